package memory

import (
	"context"
	"sync"

	"github.com/aretw0/regions/pkg/domain"
)

// Fetcher implements ports.CountryFetcher from fixed data.
// Regions without data resolve to an empty list; regions registered with
// FailWith return that error instead.
type Fetcher struct {
	mu    sync.RWMutex
	data  map[string][]domain.Country
	errs  map[string]error
	calls map[string]int
}

// NewFetcher creates a fetcher serving data, keyed by region label.
func NewFetcher(data map[string][]domain.Country) *Fetcher {
	f := &Fetcher{
		data:  make(map[string][]domain.Country),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
	for region, countries := range data {
		f.data[region] = domain.CloneCountries(countries)
	}
	return f
}

// FailWith makes every fetch of region fail with err. A nil err clears it.
func (f *Fetcher) FailWith(region string, err error) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, region)
	} else {
		f.errs[region] = err
	}
	return f
}

// FetchCountries returns a copy of the countries registered for region.
func (f *Fetcher) FetchCountries(ctx context.Context, region string) ([]domain.Country, error) {
	f.mu.Lock()
	f.calls[region]++
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &domain.FetchError{Status: 0, Err: err}
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if err, ok := f.errs[region]; ok {
		return nil, err
	}
	return domain.CloneCountries(f.data[region]), nil
}

// Calls reports how many times region was fetched.
func (f *Fetcher) Calls(region string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.calls[region]
}
