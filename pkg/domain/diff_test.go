package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestDiff(t *testing.T) {
	germany := Country{Name: "Germany", Capital: "Berlin", Population: "83000000", Currencies: []Currency{{Name: "Euro"}}}

	t.Run("Initial Load (Old is Nil)", func(t *testing.T) {
		s := NewRegionState()
		diff := Diff(nil, &s)
		require.NotNil(t, diff)
		require.NotNil(t, diff.RegionSelected)
		assert.Equal(t, "", *diff.RegionSelected)
		require.NotNil(t, diff.Loading)
		assert.False(t, *diff.Loading)
		assert.Nil(t, diff.Error, "no error in initial state")
	})

	t.Run("No Changes", func(t *testing.T) {
		s := NewRegionState()
		same := s.Snapshot()
		assert.Nil(t, Diff(&s, &same))
	})

	t.Run("Loading and Region", func(t *testing.T) {
		old := NewRegionState()
		next := old
		next.RegionSelected = RegionEurope
		next.Loading = true

		diff := Diff(&old, &next)
		require.NotNil(t, diff)
		assert.Equal(t, RegionEurope, *diff.RegionSelected)
		assert.True(t, *diff.Loading)
		assert.Nil(t, diff.Countries)
		assert.Nil(t, diff.CountrySelected)
	})

	t.Run("Countries Loaded", func(t *testing.T) {
		old := NewRegionState()
		next := old
		next.Countries = []Country{germany}

		diff := Diff(&old, &next)
		require.NotNil(t, diff)
		require.NotNil(t, diff.Countries)
		assert.Len(t, *diff.Countries, 1)
	})

	t.Run("Error Set Then Cleared", func(t *testing.T) {
		old := NewRegionState()
		failed := old
		failed.Error = strPtr("Server error. Please try again later.")

		diff := Diff(&old, &failed)
		require.NotNil(t, diff)
		assert.Equal(t, "Server error. Please try again later.", *diff.Error)
		assert.False(t, diff.ErrorCleared)

		cleared := failed
		cleared.Error = nil
		diff = Diff(&failed, &cleared)
		require.NotNil(t, diff)
		assert.Nil(t, diff.Error)
		assert.True(t, diff.ErrorCleared)
	})
}

func TestDiff_JSON(t *testing.T) {
	old := NewRegionState()
	next := old
	next.Loading = true

	diff := Diff(&old, &next)
	diff.SessionID = "sess-1"

	data, err := json.Marshal(diff)
	require.NoError(t, err)
	s := string(data)

	if !strings.Contains(s, `"loading":true`) {
		t.Errorf("expected loading in diff, got %s", s)
	}
	if strings.Contains(s, "countries") {
		t.Errorf("unchanged countries should be omitted, got %s", s)
	}
}
