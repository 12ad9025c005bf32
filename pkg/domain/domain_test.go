package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegionState(t *testing.T) {
	s := NewRegionState()

	assert.Equal(t, "Asia", s.Region1)
	assert.Equal(t, "Europe", s.Region2)
	assert.Equal(t, []string{"Asia", "Europe"}, s.RegionInit)
	assert.Equal(t, "", s.RegionSelected)
	assert.NotNil(t, s.Countries)
	assert.Empty(t, s.Countries)
	assert.True(t, s.CountrySelected.IsEmpty())
	assert.Equal(t, []Currency{{Name: ""}}, s.CountrySelected.Currencies)
	assert.False(t, s.Loading)
	assert.Nil(t, s.Error)
}

func TestRegionState_Snapshot(t *testing.T) {
	msg := "boom"
	s := NewRegionState()
	s.Countries = []Country{{Name: "Japan", Currencies: []Currency{{Name: "Yen"}}}}
	s.Error = &msg

	snap := s.Snapshot()
	snap.Countries[0].Currencies[0].Name = "mutated"
	snap.RegionInit[0] = "mutated"
	*snap.Error = "mutated"

	assert.Equal(t, "Yen", s.Countries[0].Currencies[0].Name)
	assert.Equal(t, "Asia", s.RegionInit[0])
	assert.Equal(t, "boom", *s.Error)
}

func TestRegionState_JSON(t *testing.T) {
	data, err := json.Marshal(NewRegionState())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Contains(t, raw, "regionInit")
	assert.Contains(t, raw, "countrySelected")
	assert.Nil(t, raw["error"], "no error must serialize as null")
	assert.Equal(t, []any{}, raw["countries"])
}

func TestCountry_JSONShape(t *testing.T) {
	in := `{"name":"Germany","capital":"Berlin","population":"83000000","currencies":[{"name":"Euro"}],"flag":"https://example.com/germany.svg"}`

	var c Country
	require.NoError(t, json.Unmarshal([]byte(in), &c))
	assert.Equal(t, "Germany", c.Name)
	assert.Equal(t, []string{"Euro"}, c.CurrencyNames())

	out, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestCountry_IsEmpty(t *testing.T) {
	assert.True(t, EmptyCountry().IsEmpty())
	assert.True(t, Country{}.IsEmpty())
	assert.False(t, Country{Name: "France"}.IsEmpty())
	assert.False(t, Country{Currencies: []Currency{{Name: "Euro"}}}.IsEmpty())
}

func TestParseRegion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Asia", RegionAsia},
		{" europe ", RegionEurope},
		{"ASIA", RegionAsia},
	}
	for _, tt := range tests {
		got, err := ParseRegion(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseRegion("Oceania")
	assert.True(t, errors.Is(err, ErrUnknownRegion))
}

func TestAction_Validate(t *testing.T) {
	assert.NoError(t, RequestCountries("Europe").Validate())
	assert.NoError(t, ClearError().Validate())
	assert.NoError(t, SelectCountry(Country{Name: "Japan"}).Validate())
	assert.NoError(t, SetCountries(nil).Validate())

	assert.ErrorIs(t, Action{Type: "UNKNOWN"}.Validate(), ErrUnknownAction)
	assert.ErrorIs(t, SetRegion("Mars").Validate(), ErrUnknownRegion)
	assert.Error(t, Action{Type: ActionSelectCountry}.Validate())
	assert.Error(t, LoadCountriesFailure("").Validate())
}

func TestFetchError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := error(&FetchError{Status: 0, Err: cause})

	assert.Equal(t, "dial tcp: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 0, fe.Status)

	assert.Equal(t, "fetch failed with status 418", (&FetchError{Status: 418}).Error())
}
