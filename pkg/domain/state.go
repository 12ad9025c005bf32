package domain

// RegionState is the single record held by the state container.
// Transitions never mutate a RegionState in place; they build a new one,
// so any previous value stays valid to compare against.
type RegionState struct {
	// Region1 and Region2 are the fixed region labels.
	Region1 string `json:"region1"`
	Region2 string `json:"region2"`

	// RegionInit lists the selectable regions in display order.
	RegionInit []string `json:"regionInit"`

	// RegionSelected is the chosen region, or "" when none was chosen.
	RegionSelected string `json:"regionSelected"`

	// Countries holds the countries of the selected region.
	// Empty when nothing was loaded or the last fetch failed.
	Countries []Country `json:"countries"`

	// CountrySelected is the country being inspected.
	// The EmptyCountry sentinel means "none selected".
	CountrySelected Country `json:"countrySelected"`

	// Loading is true strictly between issuing a fetch and its resolution.
	Loading bool `json:"loading"`

	// Error is the human-readable message of the last failed fetch (nil = no error).
	Error *string `json:"error"`
}

// NewRegionState creates the initial state of a session.
func NewRegionState() RegionState {
	return RegionState{
		Region1:         RegionAsia,
		Region2:         RegionEurope,
		RegionInit:      Regions(),
		RegionSelected:  "",
		Countries:       []Country{},
		CountrySelected: EmptyCountry(),
		Loading:         false,
		Error:           nil,
	}
}

// Snapshot returns a deep copy of the state, safe to hand to other goroutines.
func (s RegionState) Snapshot() RegionState {
	next := s
	if s.RegionInit != nil {
		next.RegionInit = append([]string(nil), s.RegionInit...)
	}
	next.Countries = CloneCountries(s.Countries)
	next.CountrySelected = s.CountrySelected.Clone()
	if s.Error != nil {
		msg := *s.Error
		next.Error = &msg
	}
	return next
}

// ErrorMessage returns the active error message, if any.
func (s RegionState) ErrorMessage() (string, bool) {
	if s.Error == nil {
		return "", false
	}
	return *s.Error, true
}

// HasCountrySelected reports whether the user drilled into a country.
func (s RegionState) HasCountrySelected() bool {
	return !s.CountrySelected.IsEmpty()
}
