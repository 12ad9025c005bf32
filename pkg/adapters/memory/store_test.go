package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/regions/pkg/adapters/memory"
	"github.com/aretw0/regions/pkg/domain"
	"github.com/aretw0/regions/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}

func TestFetcher(t *testing.T) {
	ctx := context.Background()
	f := memory.NewFetcher(map[string][]domain.Country{
		domain.RegionEurope: {{Name: "Germany"}, {Name: "France"}},
	})

	countries, err := f.FetchCountries(ctx, domain.RegionEurope)
	require.NoError(t, err)
	assert.Len(t, countries, 2)

	countries[0].Name = "mutated"
	again, _ := f.FetchCountries(ctx, domain.RegionEurope)
	assert.Equal(t, "Germany", again[0].Name, "fetched data must be a copy")

	empty, err := f.FetchCountries(ctx, domain.RegionAsia)
	require.NoError(t, err)
	assert.Empty(t, empty)

	assert.Equal(t, 2, f.Calls(domain.RegionEurope))
	assert.Equal(t, 1, f.Calls(domain.RegionAsia))
}

func TestFetcher_FailWith(t *testing.T) {
	f := memory.NewFetcher(nil).FailWith(domain.RegionAsia, &domain.FetchError{Status: 404})

	_, err := f.FetchCountries(context.Background(), domain.RegionAsia)
	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 404, fe.Status)

	f.FailWith(domain.RegionAsia, nil)
	_, err = f.FetchCountries(context.Background(), domain.RegionAsia)
	assert.NoError(t, err)
}

func TestFetcher_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := memory.NewFetcher(nil).FetchCountries(ctx, domain.RegionAsia)
	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 0, fe.Status)
}
