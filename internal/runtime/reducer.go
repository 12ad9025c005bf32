package runtime

import (
	"github.com/aretw0/regions/pkg/domain"
)

// Reduce computes the next state for action.
// It is pure and total: unknown actions return the state unchanged, and the
// input state is never modified. Fields not touched by an action are carried
// over by value.
func Reduce(state domain.RegionState, action domain.Action) domain.RegionState {
	switch action.Type {
	case domain.ActionGetRegions:
		return state

	case domain.ActionRequestCountries:
		next := state
		next.Loading = true
		next.Error = nil
		return next

	case domain.ActionSetRegion:
		next := state
		next.RegionSelected = action.Region
		next.CountrySelected = domain.EmptyCountry()
		return next

	case domain.ActionSetCountries:
		next := state
		next.Countries = domain.CloneCountries(action.Countries)
		next.Loading = false
		next.Error = nil
		return next

	case domain.ActionSelectCountry:
		next := state
		if action.Country == nil {
			next.CountrySelected = domain.EmptyCountry()
		} else {
			next.CountrySelected = action.Country.Clone()
		}
		return next

	case domain.ActionLoadCountriesFailure:
		msg := action.Error
		next := state
		next.Loading = false
		next.Error = &msg
		next.Countries = []domain.Country{}
		return next

	case domain.ActionClearError:
		next := state
		next.Error = nil
		return next
	}

	return state
}
