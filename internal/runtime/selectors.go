package runtime

import (
	"strings"

	"github.com/aretw0/regions/pkg/domain"
)

// Selector is a read-only projection over the state.
type Selector[T any] func(domain.RegionState) T

// Select applies sel to state.
func Select[T any](state domain.RegionState, sel Selector[T]) T {
	return sel(state)
}

// InitialRegions selects the selectable region labels.
func InitialRegions(s domain.RegionState) []string { return s.RegionInit }

// RegionSelected selects the chosen region ("" when none).
func RegionSelected(s domain.RegionState) string { return s.RegionSelected }

// Countries selects the loaded country list.
func Countries(s domain.RegionState) []domain.Country { return s.Countries }

// CountrySelected selects the country being inspected.
func CountrySelected(s domain.RegionState) domain.Country { return s.CountrySelected }

// Loading selects the loading flag.
func Loading(s domain.RegionState) bool { return s.Loading }

// Error selects the active error message (nil when none).
func Error(s domain.RegionState) *string { return s.Error }

// CountryByName returns a selector resolving a country of the loaded list by
// name, case-insensitively.
func CountryByName(name string) Selector[*domain.Country] {
	want := strings.TrimSpace(name)
	return func(s domain.RegionState) *domain.Country {
		for i := range s.Countries {
			if strings.EqualFold(s.Countries[i].Name, want) {
				c := s.Countries[i].Clone()
				return &c
			}
		}
		return nil
	}
}
