package runtime_test

import (
	"context"
	"errors"
	"net"
	"net/url"
	"sync"
	"testing"

	"github.com/aretw0/regions/internal/runtime"
	"github.com/aretw0/regions/pkg/domain"
	"github.com/aretw0/regions/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"status 0", &domain.FetchError{Status: 0, Message: "Http failure response: 0 Unknown Error"}, runtime.MsgUnreachable},
		{"not found", &domain.FetchError{Status: 404, Message: "whatever"}, runtime.MsgNotFound},
		{"internal error", &domain.FetchError{Status: 500}, runtime.MsgServerError},
		{"unavailable", &domain.FetchError{Status: 503}, runtime.MsgServerError},
		{"bad request with message", &domain.FetchError{Status: 400, Message: "Http failure response: 400 Bad Request"}, "Http failure response: 400 Bad Request"},
		{"forbidden with cause", &domain.FetchError{Status: 403, Err: errors.New("forbidden")}, "forbidden"},
		{"forbidden without message", &domain.FetchError{Status: 403}, runtime.MsgUnexpected},
		{"wrapped fetch error", errors.Join(errors.New("ctx"), &domain.FetchError{Status: 404}), runtime.MsgNotFound},
		{"url error", &url.Error{Op: "Get", URL: "http://x", Err: errors.New("dial")}, runtime.MsgUnreachable},
		{"net op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, runtime.MsgUnreachable},
		{"plain error", errors.New("something odd"), "something odd"},
		{"empty error", errors.New(""), runtime.MsgUnexpected},
		{"nil", nil, runtime.MsgUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runtime.ErrorMessage(tt.err))
		})
	}
}

func TestEffects_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("success emits set countries", func(t *testing.T) {
		fetcher := ports.FetcherFunc(func(ctx context.Context, region string) ([]domain.Country, error) {
			assert.Equal(t, domain.RegionEurope, region)
			return []domain.Country{germany, france}, nil
		})
		eff := runtime.NewEffects(fetcher, domain.LifecycleHooks{}, nil)

		follow, ok := eff.Handle(ctx, domain.RequestCountries(domain.RegionEurope))
		require.True(t, ok)
		assert.Equal(t, domain.ActionSetCountries, follow.Type)
		assert.Len(t, follow.Countries, 2)
	})

	t.Run("status 0 emits unreachable failure", func(t *testing.T) {
		fetcher := ports.FetcherFunc(func(ctx context.Context, region string) ([]domain.Country, error) {
			return nil, &domain.FetchError{Status: 0}
		})
		eff := runtime.NewEffects(fetcher, domain.LifecycleHooks{}, nil)

		follow, ok := eff.Handle(ctx, domain.RequestCountries(domain.RegionAsia))
		require.True(t, ok)
		assert.Equal(t, domain.LoadCountriesFailure(runtime.MsgUnreachable), follow)
	})

	t.Run("status 503 emits server error failure", func(t *testing.T) {
		fetcher := ports.FetcherFunc(func(ctx context.Context, region string) ([]domain.Country, error) {
			return nil, &domain.FetchError{Status: 503, Message: "Service Unavailable"}
		})
		eff := runtime.NewEffects(fetcher, domain.LifecycleHooks{}, nil)

		follow, ok := eff.Handle(ctx, domain.RequestCountries(domain.RegionAsia))
		require.True(t, ok)
		assert.Equal(t, "Server error. Please try again later.", follow.Error)
	})

	t.Run("other actions are ignored", func(t *testing.T) {
		eff := runtime.NewEffects(ports.FetcherFunc(func(ctx context.Context, region string) ([]domain.Country, error) {
			t.Fatal("fetcher must not be called")
			return nil, nil
		}), domain.LifecycleHooks{}, nil)

		for _, a := range []domain.Action{domain.GetRegions(), domain.SetRegion("Asia"), domain.ClearError()} {
			_, ok := eff.Handle(ctx, a)
			assert.False(t, ok)
		}
	})

	t.Run("no fetcher means no effect", func(t *testing.T) {
		eff := runtime.NewEffects(nil, domain.LifecycleHooks{}, nil)
		assert.False(t, eff.Triggers(domain.RequestCountries("Asia")))
	})
}

func TestEffects_Hooks(t *testing.T) {
	var mu sync.Mutex
	var started []string
	var done []*domain.FetchEvent

	hooks := domain.LifecycleHooks{
		OnFetchStart: func(ctx context.Context, e *domain.FetchEvent) {
			mu.Lock()
			defer mu.Unlock()
			started = append(started, e.Region)
		},
		OnFetchDone: func(ctx context.Context, e *domain.FetchEvent) {
			mu.Lock()
			defer mu.Unlock()
			done = append(done, e)
		},
	}
	fetcher := ports.FetcherFunc(func(ctx context.Context, region string) ([]domain.Country, error) {
		if region == domain.RegionAsia {
			return nil, &domain.FetchError{Status: 404}
		}
		return []domain.Country{germany}, nil
	})
	eff := runtime.NewEffects(fetcher, hooks, nil)

	eff.Handle(context.Background(), domain.RequestCountries(domain.RegionEurope))
	eff.Handle(context.Background(), domain.RequestCountries(domain.RegionAsia))

	assert.Equal(t, []string{"Europe", "Asia"}, started)
	require.Len(t, done, 2)
	assert.Equal(t, domain.EventFetchDone, done[0].Type)
	assert.Equal(t, 1, done[0].Count)
	assert.False(t, done[0].IsError)
	assert.True(t, done[1].IsError)
	assert.Equal(t, 404, done[1].Status)
	assert.Equal(t, runtime.MsgNotFound, done[1].Error)
}
