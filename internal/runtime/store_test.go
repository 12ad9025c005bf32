package runtime_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/regions/internal/runtime"
	"github.com/aretw0/regions/pkg/domain"
	"github.com/aretw0/regions/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedFetcher blocks each region's fetch until released by the test.
type gatedFetcher struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	data  map[string][]domain.Country
	errs  map[string]error
	calls []string
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		gates: make(map[string]chan struct{}),
		data:  make(map[string][]domain.Country),
		errs:  make(map[string]error),
	}
}

func (f *gatedFetcher) gate(region string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.gates[region]
	if !ok {
		ch = make(chan struct{})
		f.gates[region] = ch
	}
	return ch
}

func (f *gatedFetcher) release(region string) {
	close(f.gate(region))
}

func (f *gatedFetcher) FetchCountries(ctx context.Context, region string) ([]domain.Country, error) {
	f.mu.Lock()
	f.calls = append(f.calls, region)
	f.mu.Unlock()

	<-f.gate(region)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[region]; err != nil {
		return nil, err
	}
	return f.data[region], nil
}

func newStore(fetcher ports.CountryFetcher, opts ...runtime.StoreOption) *runtime.Store {
	opts = append(opts, runtime.WithEffects(runtime.NewEffects(fetcher, domain.LifecycleHooks{}, nil)))
	return runtime.NewStore(opts...)
}

func TestStore_InitialState(t *testing.T) {
	s := runtime.NewStore()
	assert.Equal(t, domain.NewRegionState(), s.State())
}

func TestStore_DispatchSuccess(t *testing.T) {
	fetcher := ports.FetcherFunc(func(ctx context.Context, region string) ([]domain.Country, error) {
		return []domain.Country{germany, france}, nil
	})
	s := newStore(fetcher)
	ctx := context.Background()

	state := s.Dispatch(ctx, domain.SetRegion(domain.RegionEurope))
	assert.Equal(t, domain.RegionEurope, state.RegionSelected)

	state = s.Dispatch(ctx, domain.RequestCountries(domain.RegionEurope))
	assert.True(t, state.Loading, "loading is set synchronously")

	s.Wait()

	final := s.State()
	assert.False(t, final.Loading)
	assert.Len(t, final.Countries, 2)
	assert.Nil(t, final.Error)
}

func TestStore_DispatchFailure(t *testing.T) {
	fetcher := ports.FetcherFunc(func(ctx context.Context, region string) ([]domain.Country, error) {
		return nil, &domain.FetchError{Status: 0}
	})
	s := newStore(fetcher, runtime.WithInitialState(func() domain.RegionState {
		st := domain.NewRegionState()
		st.Countries = []domain.Country{germany}
		return st
	}()))

	s.Dispatch(context.Background(), domain.RequestCountries(domain.RegionAsia))
	s.Wait()

	final := s.State()
	require.NotNil(t, final.Error)
	assert.Equal(t, "Unable to connect to server. Please check your internet connection.", *final.Error)
	assert.Empty(t, final.Countries)
	assert.False(t, final.Loading)
}

func TestStore_CancelledContextDoesNotCancelFetch(t *testing.T) {
	fetcher := ports.FetcherFunc(func(ctx context.Context, region string) ([]domain.Country, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []domain.Country{germany}, nil
	})
	s := newStore(fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	s.Dispatch(ctx, domain.RequestCountries(domain.RegionEurope))
	cancel()
	s.Wait()

	assert.Len(t, s.State().Countries, 1)
}

func TestStore_LastWriteWins(t *testing.T) {
	fetcher := newGatedFetcher()
	fetcher.data[domain.RegionAsia] = []domain.Country{{Name: "Japan"}}
	fetcher.data[domain.RegionEurope] = []domain.Country{germany, france}

	s := newStore(fetcher)
	ctx := context.Background()

	s.Dispatch(ctx, domain.SetRegion(domain.RegionAsia))
	s.Dispatch(ctx, domain.RequestCountries(domain.RegionAsia))
	s.Dispatch(ctx, domain.SetRegion(domain.RegionEurope))
	s.Dispatch(ctx, domain.RequestCountries(domain.RegionEurope))
	assert.Equal(t, 2, s.InFlight(), "earlier fetch is not cancelled")

	// Europe resolves first, then the stale Asia answer lands.
	fetcher.release(domain.RegionEurope)
	require.Eventually(t, func() bool { return s.InFlight() == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, s.State().Countries, 2)

	fetcher.release(domain.RegionAsia)
	s.Wait()

	final := s.State()
	assert.Equal(t, domain.RegionEurope, final.RegionSelected)
	require.Len(t, final.Countries, 1)
	assert.Equal(t, "Japan", final.Countries[0].Name)
}

func TestStore_Subscribe(t *testing.T) {
	s := runtime.NewStore()
	changes, unsubscribe := s.Subscribe(8)

	s.Dispatch(context.Background(), domain.SetRegion(domain.RegionAsia))
	s.Dispatch(context.Background(), domain.ClearError())

	first := <-changes
	assert.Equal(t, domain.ActionSetRegion, first.Action.Type)
	assert.Equal(t, "", first.Previous.RegionSelected)
	assert.Equal(t, domain.RegionAsia, first.Current.RegionSelected)

	second := <-changes
	assert.Equal(t, domain.ActionClearError, second.Action.Type)
	assert.Equal(t, second.Previous, second.Current)

	unsubscribe()
	unsubscribe()
	_, open := <-changes
	assert.False(t, open)
}

func TestStore_SubscriberBufferFull(t *testing.T) {
	s := runtime.NewStore()
	changes, unsubscribe := s.Subscribe(1)
	defer unsubscribe()

	s.Dispatch(context.Background(), domain.SetRegion(domain.RegionAsia))
	s.Dispatch(context.Background(), domain.SetRegion(domain.RegionEurope))

	c := <-changes
	assert.Equal(t, domain.RegionAsia, c.Current.RegionSelected)
	select {
	case extra := <-changes:
		t.Fatalf("expected dropped change, got %+v", extra)
	default:
	}
}

func TestStore_Hooks(t *testing.T) {
	var mu sync.Mutex
	var events []*domain.DispatchEvent

	s := runtime.NewStore(runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e)
		},
	}))

	s.Dispatch(context.Background(), domain.RequestCountries(domain.RegionAsia))
	s.Dispatch(context.Background(), domain.GetRegions())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, domain.ActionRequestCountries, events[0].Action)
	assert.True(t, events[0].Changed)
	assert.True(t, events[0].Loading)
	assert.False(t, events[1].Changed)
}

func TestStore_Replace(t *testing.T) {
	s := runtime.NewStore()
	s.Dispatch(context.Background(), domain.SetRegion(domain.RegionAsia))

	s.Replace(domain.NewRegionState())
	assert.Equal(t, domain.NewRegionState(), s.State())
}

func TestStore_Close(t *testing.T) {
	fetcher := newGatedFetcher()
	fetcher.data[domain.RegionAsia] = []domain.Country{{Name: "Japan"}}
	s := newStore(fetcher)
	changes, _ := s.Subscribe(8)

	s.Dispatch(context.Background(), domain.RequestCountries(domain.RegionAsia))

	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()

	fetcher.release(domain.RegionAsia)
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after in-flight fetch resolved")
	}

	assert.Len(t, s.State().Countries, 1)

	// New requests are dropped instead of leaving the state loading.
	before := s.State()
	after := s.Dispatch(context.Background(), domain.RequestCountries(domain.RegionEurope))
	assert.Equal(t, 0, s.InFlight())
	assert.False(t, after.Loading)
	assert.Equal(t, before, after)
	assert.Equal(t, before, s.State())

	// Actions without effects still apply.
	s.Dispatch(context.Background(), domain.SetRegion(domain.RegionEurope))
	assert.Equal(t, domain.RegionEurope, s.State().RegionSelected)

	for range changes {
	}
}
