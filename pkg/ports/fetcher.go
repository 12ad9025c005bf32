package ports

import (
	"context"

	"github.com/aretw0/regions/pkg/domain"
)

// CountryFetcher loads the countries of a region.
// Implementations should report failures as *domain.FetchError so the effect
// layer can map the status to a user-facing message.
type CountryFetcher interface {
	FetchCountries(ctx context.Context, region string) ([]domain.Country, error)
}

// FetcherFunc adapts a plain function to CountryFetcher.
type FetcherFunc func(ctx context.Context, region string) ([]domain.Country, error)

// FetchCountries calls f(ctx, region).
func (f FetcherFunc) FetchCountries(ctx context.Context, region string) ([]domain.Country, error) {
	return f(ctx, region)
}
