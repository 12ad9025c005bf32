package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/regions/pkg/domain"
)

// LoggingHooks logs every container event on logger.
// Dispatches are logged at debug level, fetch failures as warnings.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
			logger.DebugContext(ctx, "dispatch",
				"action", e.Action,
				"region", e.Region,
				"changed", e.Changed,
				"loading", e.Loading,
				"has_error", e.HasError,
			)
		},
		OnFetchStart: func(ctx context.Context, e *domain.FetchEvent) {
			logger.InfoContext(ctx, "fetch_start", "region", e.Region)
		},
		OnFetchDone: func(ctx context.Context, e *domain.FetchEvent) {
			if e.IsError {
				logger.WarnContext(ctx, "fetch_done",
					"region", e.Region,
					"status", e.Status,
					"duration", e.Duration,
					"err", e.Error,
				)
				return
			}
			logger.InfoContext(ctx, "fetch_done",
				"region", e.Region,
				"count", e.Count,
				"duration", e.Duration,
			)
		},
	}
}

// ChainHooks calls every set of hooks in order.
func ChainHooks(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks

	var dispatch []func(context.Context, *domain.DispatchEvent)
	var start, done []func(context.Context, *domain.FetchEvent)
	for _, h := range all {
		if h.OnDispatch != nil {
			dispatch = append(dispatch, h.OnDispatch)
		}
		if h.OnFetchStart != nil {
			start = append(start, h.OnFetchStart)
		}
		if h.OnFetchDone != nil {
			done = append(done, h.OnFetchDone)
		}
	}

	if len(dispatch) > 0 {
		out.OnDispatch = func(ctx context.Context, e *domain.DispatchEvent) {
			for _, fn := range dispatch {
				fn(ctx, e)
			}
		}
	}
	if len(start) > 0 {
		out.OnFetchStart = fanOut(start)
	}
	if len(done) > 0 {
		out.OnFetchDone = fanOut(done)
	}
	return out
}

func fanOut(fns []func(context.Context, *domain.FetchEvent)) func(context.Context, *domain.FetchEvent) {
	return func(ctx context.Context, e *domain.FetchEvent) {
		for _, fn := range fns {
			fn(ctx, e)
		}
	}
}
