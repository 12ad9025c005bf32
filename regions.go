package regions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/regions/internal/logging"
	"github.com/aretw0/regions/internal/runtime"
	"github.com/aretw0/regions/pkg/adapters/restcountries"
	"github.com/aretw0/regions/pkg/domain"
	"github.com/aretw0/regions/pkg/ports"
)

// Change is published to subscribers after every transition.
type Change = runtime.Change

// Store is the high-level entry point of the library.
// It wraps the runtime container and adds the operations a host (CLI, HTTP
// handler, MCP tool) performs on behalf of a user.
type Store struct {
	runtime *runtime.Store
	initial domain.RegionState
	fetcher ports.CountryFetcher
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// Option defines a functional option for configuring the Store.
type Option func(*Store)

// WithFetcher sets where country lists come from.
func WithFetcher(f ports.CountryFetcher) Option {
	return func(s *Store) {
		s.fetcher = f
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Store) {
		s.hooks = hooks
	}
}

// WithInitialState starts from a previously saved state instead of the defaults.
// Reset still returns to the default state.
func WithInitialState(state domain.RegionState) Option {
	return func(s *Store) {
		s.initial = state.Snapshot()
	}
}

// New creates a Store. Without WithFetcher it uses the REST Countries client.
func New(opts ...Option) *Store {
	s := &Store{
		initial: domain.NewRegionState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.fetcher == nil {
		s.fetcher = restcountries.New(restcountries.WithLogger(s.logger))
	}

	s.runtime = runtime.NewStore(
		runtime.WithInitialState(s.initial),
		runtime.WithEffects(runtime.NewEffects(s.fetcher, s.hooks, s.logger)),
		runtime.WithLifecycleHooks(s.hooks),
		runtime.WithLogger(s.logger),
	)
	return s
}

// Dispatch sends a raw action to the container and returns the new state.
func (s *Store) Dispatch(ctx context.Context, action domain.Action) domain.RegionState {
	return s.runtime.Dispatch(ctx, action)
}

// State returns a snapshot of the current state.
func (s *Store) State() domain.RegionState {
	return s.runtime.State()
}

// SelectRegion records region and requests its countries.
// The label is matched case-insensitively against domain.Regions().
func (s *Store) SelectRegion(ctx context.Context, region string) error {
	canonical, err := domain.ParseRegion(region)
	if err != nil {
		return err
	}
	s.runtime.Dispatch(ctx, domain.SetRegion(canonical))
	s.runtime.Dispatch(ctx, domain.RequestCountries(canonical))
	return nil
}

// SelectCountry records c as the country being inspected.
func (s *Store) SelectCountry(ctx context.Context, c domain.Country) {
	s.runtime.Dispatch(ctx, domain.SelectCountry(c))
}

// SelectCountryByName selects a country of the loaded list.
func (s *Store) SelectCountryByName(ctx context.Context, name string) (domain.Country, error) {
	c := runtime.Select(s.runtime.State(), runtime.CountryByName(name))
	if c == nil {
		return domain.Country{}, fmt.Errorf("%w: %q", domain.ErrCountryNotFound, name)
	}
	s.runtime.Dispatch(ctx, domain.SelectCountry(*c))
	return *c, nil
}

// ClearError dismisses the active error, if any.
func (s *Store) ClearError(ctx context.Context) {
	s.runtime.Dispatch(ctx, domain.ClearError())
}

// Retry dismisses the error and requests the selected region again.
func (s *Store) Retry(ctx context.Context) error {
	region := s.RegionSelected()
	if region == "" {
		return domain.ErrNoRegionSelected
	}
	s.runtime.Dispatch(ctx, domain.ClearError())
	s.runtime.Dispatch(ctx, domain.RequestCountries(region))
	return nil
}

// Replace swaps the whole state, e.g. to restore a saved session.
func (s *Store) Replace(state domain.RegionState) {
	s.runtime.Replace(state)
}

// Reset returns to the default state. Fetches still in flight land afterwards.
func (s *Store) Reset() {
	s.runtime.Replace(domain.NewRegionState())
}

// Wait blocks until no fetch is in flight.
func (s *Store) Wait() {
	s.runtime.Wait()
}

// Subscribe registers a listener for state changes.
// See runtime.Store.Subscribe for delivery semantics.
func (s *Store) Subscribe(buffer int) (<-chan Change, func()) {
	return s.runtime.Subscribe(buffer)
}

// Close waits for in-flight fetches and ends all subscriptions.
func (s *Store) Close() {
	s.runtime.Close()
}

// InitialRegions returns the selectable regions.
func (s *Store) InitialRegions() []string {
	return runtime.Select(s.runtime.State(), runtime.InitialRegions)
}

// RegionSelected returns the chosen region, or "" when none.
func (s *Store) RegionSelected() string {
	return runtime.Select(s.runtime.State(), runtime.RegionSelected)
}

// Countries returns the loaded country list.
func (s *Store) Countries() []domain.Country {
	return runtime.Select(s.runtime.State(), runtime.Countries)
}

// CountrySelected returns the inspected country and whether one is selected.
func (s *Store) CountrySelected() (domain.Country, bool) {
	c := runtime.Select(s.runtime.State(), runtime.CountrySelected)
	return c, !c.IsEmpty()
}

// Loading reports whether a fetch is pending.
func (s *Store) Loading() bool {
	return runtime.Select(s.runtime.State(), runtime.Loading)
}

// Error returns the active error message.
func (s *Store) Error() (string, bool) {
	msg := runtime.Select(s.runtime.State(), runtime.Error)
	if msg == nil {
		return "", false
	}
	return *msg, true
}
