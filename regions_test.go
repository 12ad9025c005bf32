package regions_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/aretw0/regions"
	"github.com/aretw0/regions/pkg/adapters/memory"
	"github.com/aretw0/regions/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var europe = []domain.Country{
	{Name: "Germany", Capital: "Berlin", Population: "83000000", Currencies: []domain.Currency{{Name: "Euro"}}},
	{Name: "France", Capital: "Paris", Population: "67000000", Currencies: []domain.Currency{{Name: "Euro"}}},
}

func newStore(t *testing.T, fetcher *memory.Fetcher, opts ...regions.Option) *regions.Store {
	t.Helper()
	s := regions.New(append([]regions.Option{regions.WithFetcher(fetcher)}, opts...)...)
	t.Cleanup(s.Close)
	return s
}

func TestStore_InitialState(t *testing.T) {
	s := newStore(t, memory.NewFetcher(nil))

	assert.Equal(t, []string{"Asia", "Europe"}, s.InitialRegions())
	assert.Equal(t, "", s.RegionSelected())
	assert.Empty(t, s.Countries())
	assert.False(t, s.Loading())
	_, hasErr := s.Error()
	assert.False(t, hasErr)
	_, selected := s.CountrySelected()
	assert.False(t, selected)
}

func TestStore_SelectRegion(t *testing.T) {
	fetcher := memory.NewFetcher(map[string][]domain.Country{domain.RegionEurope: europe})
	s := newStore(t, fetcher)
	ctx := context.Background()

	require.NoError(t, s.SelectRegion(ctx, "europe"))
	assert.Equal(t, domain.RegionEurope, s.RegionSelected())

	s.Wait()
	assert.False(t, s.Loading())
	assert.Len(t, s.Countries(), 2)
	assert.Equal(t, 1, fetcher.Calls(domain.RegionEurope))
}

func TestStore_SelectRegion_Unknown(t *testing.T) {
	s := newStore(t, memory.NewFetcher(nil))

	err := s.SelectRegion(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, domain.ErrUnknownRegion)
	assert.Equal(t, "", s.RegionSelected())
}

func TestStore_SelectCountryByName(t *testing.T) {
	s := newStore(t, memory.NewFetcher(map[string][]domain.Country{domain.RegionEurope: europe}))
	ctx := context.Background()

	require.NoError(t, s.SelectRegion(ctx, domain.RegionEurope))
	s.Wait()

	c, err := s.SelectCountryByName(ctx, "FRANCE")
	require.NoError(t, err)
	assert.Equal(t, "Paris", c.Capital)

	selected, ok := s.CountrySelected()
	assert.True(t, ok)
	assert.Equal(t, "France", selected.Name)

	_, err = s.SelectCountryByName(ctx, "Narnia")
	assert.ErrorIs(t, err, domain.ErrCountryNotFound)
	selected, _ = s.CountrySelected()
	assert.Equal(t, "France", selected.Name, "a failed lookup keeps the selection")

	// Changing region resets the selection.
	require.NoError(t, s.SelectRegion(ctx, domain.RegionAsia))
	_, ok = s.CountrySelected()
	assert.False(t, ok)
}

func TestStore_FailureRetryAndClear(t *testing.T) {
	fetcher := memory.NewFetcher(map[string][]domain.Country{domain.RegionEurope: europe}).
		FailWith(domain.RegionEurope, &domain.FetchError{Status: 503})
	s := newStore(t, fetcher)
	ctx := context.Background()

	require.NoError(t, s.SelectRegion(ctx, domain.RegionEurope))
	s.Wait()

	msg, ok := s.Error()
	require.True(t, ok)
	assert.Equal(t, "Server error. Please try again later.", msg)
	assert.Empty(t, s.Countries())

	s.ClearError(ctx)
	_, ok = s.Error()
	assert.False(t, ok)

	fetcher.FailWith(domain.RegionEurope, nil)
	require.NoError(t, s.Retry(ctx))
	s.Wait()

	_, ok = s.Error()
	assert.False(t, ok)
	assert.Len(t, s.Countries(), 2)
	assert.Equal(t, 2, fetcher.Calls(domain.RegionEurope))
}

func TestStore_RetryWithoutRegion(t *testing.T) {
	s := newStore(t, memory.NewFetcher(nil))
	assert.ErrorIs(t, s.Retry(context.Background()), domain.ErrNoRegionSelected)
}

func TestStore_Reset(t *testing.T) {
	s := newStore(t, memory.NewFetcher(map[string][]domain.Country{domain.RegionEurope: europe}))
	ctx := context.Background()

	require.NoError(t, s.SelectRegion(ctx, domain.RegionEurope))
	s.Wait()

	s.Reset()
	assert.Equal(t, domain.NewRegionState(), s.State())
}

func TestStore_WithInitialState(t *testing.T) {
	saved := domain.NewRegionState()
	saved.RegionSelected = domain.RegionEurope
	saved.Countries = europe

	s := newStore(t, memory.NewFetcher(nil), regions.WithInitialState(saved))
	assert.Equal(t, domain.RegionEurope, s.RegionSelected())
	assert.Len(t, s.Countries(), 2)
}

func TestStore_Hooks(t *testing.T) {
	var dispatches, fetches atomic.Int32
	hooks := domain.LifecycleHooks{
		OnDispatch:  func(context.Context, *domain.DispatchEvent) { dispatches.Add(1) },
		OnFetchDone: func(context.Context, *domain.FetchEvent) { fetches.Add(1) },
	}
	s := newStore(t, memory.NewFetcher(nil), regions.WithLifecycleHooks(hooks))

	require.NoError(t, s.SelectRegion(context.Background(), domain.RegionAsia))
	s.Wait()

	// SetRegion, RequestCountries, SetCountries
	assert.Equal(t, int32(3), dispatches.Load())
	assert.Equal(t, int32(1), fetches.Load())
}

func TestStore_Subscribe(t *testing.T) {
	s := newStore(t, memory.NewFetcher(nil))
	changes, unsubscribe := s.Subscribe(16)
	defer unsubscribe()

	require.NoError(t, s.SelectRegion(context.Background(), domain.RegionAsia))
	s.Wait()

	var types []domain.ActionType
	for i := 0; i < 3; i++ {
		types = append(types, (<-changes).Action.Type)
	}
	assert.Equal(t, []domain.ActionType{
		domain.ActionSetRegion,
		domain.ActionRequestCountries,
		domain.ActionSetCountries,
	}, types)
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, regions.Version)
}
