package domain

import (
	"reflect"
)

// StateDiff represents the changes between two states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID identifies the target when the diff is broadcast.
	SessionID string `json:"session_id,omitempty"`

	RegionSelected  *string    `json:"regionSelected,omitempty"`
	Countries       *[]Country `json:"countries,omitempty"`
	CountrySelected *Country   `json:"countrySelected,omitempty"`
	Loading         *bool      `json:"loading,omitempty"`

	// Error is set when the error changed. ErrorCleared distinguishes
	// "error removed" from "no change", since both marshal Error as absent.
	Error        *string `json:"error,omitempty"`
	ErrorCleared bool    `json:"errorCleared,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(oldState, newState *RegionState) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{}

	if oldState == nil || oldState.RegionSelected != newState.RegionSelected {
		v := newState.RegionSelected
		diff.RegionSelected = &v
	}
	if oldState == nil || !reflect.DeepEqual(oldState.Countries, newState.Countries) {
		v := CloneCountries(newState.Countries)
		diff.Countries = &v
	}
	if oldState == nil || !reflect.DeepEqual(oldState.CountrySelected, newState.CountrySelected) {
		v := newState.CountrySelected.Clone()
		diff.CountrySelected = &v
	}
	if oldState == nil || oldState.Loading != newState.Loading {
		v := newState.Loading
		diff.Loading = &v
	}

	// Error
	newMsg, newHas := newState.ErrorMessage()
	if oldState == nil {
		if newHas {
			diff.Error = &newMsg
		}
	} else {
		oldMsg, oldHas := oldState.ErrorMessage()
		switch {
		case newHas && (!oldHas || oldMsg != newMsg):
			diff.Error = &newMsg
		case !newHas && oldHas:
			diff.ErrorCleared = true
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.RegionSelected == nil &&
		d.Countries == nil &&
		d.CountrySelected == nil &&
		d.Loading == nil &&
		d.Error == nil &&
		!d.ErrorCleared
}
