package domain

import "fmt"

// ActionType names an event handled by the reducer.
type ActionType string

// Action catalog. The labels follow the "[Feature] Event" convention so they read
// well in logs and event streams.
const (
	// ActionGetRegions is a no-op query; the reducer returns the state unchanged.
	ActionGetRegions ActionType = "[Regions] Get Regions"

	// ActionRequestCountries asks for the country list of Region.
	// The effect layer turns it into a fetch.
	ActionRequestCountries ActionType = "[Regions] Request Countries"

	// ActionSetRegion records Region as the selected region.
	ActionSetRegion ActionType = "[Regions] Set Region"

	// ActionSetCountries delivers a successfully fetched country list.
	ActionSetCountries ActionType = "[Regions] Set Countries"

	// ActionSelectCountry records Country as the country being inspected.
	ActionSelectCountry ActionType = "[Regions] Select Country"

	// ActionLoadCountriesFailure delivers the message of a failed fetch.
	ActionLoadCountriesFailure ActionType = "[Regions] Load Countries Failure"

	// ActionClearError dismisses the active error.
	ActionClearError ActionType = "[Regions] Clear Error"
)

// Action is an immutable event dispatched to the state container.
// Only the fields relevant to Type are set.
type Action struct {
	Type      ActionType `json:"type"`
	Region    string     `json:"region,omitempty"`
	Countries []Country  `json:"countries,omitempty"`
	Country   *Country   `json:"country,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// GetRegions builds the no-op query action.
func GetRegions() Action {
	return Action{Type: ActionGetRegions}
}

// RequestCountries builds the request for the country list of region.
func RequestCountries(region string) Action {
	return Action{Type: ActionRequestCountries, Region: region}
}

// SetRegion builds the region selection action.
func SetRegion(region string) Action {
	return Action{Type: ActionSetRegion, Region: region}
}

// SetCountries builds the success outcome of a fetch.
func SetCountries(countries []Country) Action {
	return Action{Type: ActionSetCountries, Countries: countries}
}

// SelectCountry builds the country selection action.
func SelectCountry(c Country) Action {
	return Action{Type: ActionSelectCountry, Country: &c}
}

// LoadCountriesFailure builds the failure outcome of a fetch.
func LoadCountriesFailure(message string) Action {
	return Action{Type: ActionLoadCountriesFailure, Error: message}
}

// ClearError builds the error dismissal action.
func ClearError() Action {
	return Action{Type: ActionClearError}
}

// Known reports whether t belongs to the action catalog.
func (t ActionType) Known() bool {
	switch t {
	case ActionGetRegions, ActionRequestCountries, ActionSetRegion, ActionSetCountries,
		ActionSelectCountry, ActionLoadCountriesFailure, ActionClearError:
		return true
	}
	return false
}

// Validate checks an action received from outside the process (HTTP, MCP).
// The reducer itself is total and never needs it.
func (a Action) Validate() error {
	if !a.Type.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}
	switch a.Type {
	case ActionRequestCountries, ActionSetRegion:
		if _, err := ParseRegion(a.Region); err != nil {
			return err
		}
	case ActionSelectCountry:
		if a.Country == nil {
			return fmt.Errorf("%s requires a country", a.Type)
		}
	case ActionLoadCountriesFailure:
		if a.Error == "" {
			return fmt.Errorf("%s requires an error message", a.Type)
		}
	}
	return nil
}
