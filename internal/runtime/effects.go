package runtime

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/aretw0/regions/internal/logging"
	"github.com/aretw0/regions/pkg/domain"
	"github.com/aretw0/regions/pkg/ports"
)

// User-facing messages for failed fetches.
const (
	MsgUnreachable = "Unable to connect to server. Please check your internet connection."
	MsgNotFound    = "The requested resource was not found."
	MsgServerError = "Server error. Please try again later."
	MsgUnexpected  = "An unexpected error occurred."
)

// ErrorMessage translates a fetch failure into the message stored in state.
//
//   - no status reachable (status 0, or a network error): MsgUnreachable
//   - 404: MsgNotFound
//   - >= 500: MsgServerError
//   - otherwise the error's own message, or MsgUnexpected when it has none
func ErrorMessage(err error) string {
	if err == nil {
		return MsgUnexpected
	}

	var fe *domain.FetchError
	if errors.As(err, &fe) {
		switch {
		case fe.Status == 0:
			return MsgUnreachable
		case fe.Status == 404:
			return MsgNotFound
		case fe.Status >= 500:
			return MsgServerError
		}
		if fe.Message != "" {
			return fe.Message
		}
		if fe.Err != nil && fe.Err.Error() != "" {
			return fe.Err.Error()
		}
		return MsgUnexpected
	}

	// Errors that never reached a server carry no status either.
	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return MsgUnreachable
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgUnexpected
}

// Effects turns actions that need I/O into fetches and follow-up actions.
type Effects struct {
	fetcher ports.CountryFetcher
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// NewEffects creates the effect layer around a fetcher.
func NewEffects(fetcher ports.CountryFetcher, hooks domain.LifecycleHooks, logger *slog.Logger) *Effects {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Effects{
		fetcher: fetcher,
		hooks:   hooks,
		logger:  logger,
	}
}

// Triggers reports whether action starts an effect.
func (e *Effects) Triggers(action domain.Action) bool {
	return e != nil && e.fetcher != nil && action.Type == domain.ActionRequestCountries
}

// Handle performs the effect for action and returns exactly one follow-up
// action. It blocks for the duration of the fetch. The boolean is false when
// the action does not start an effect.
func (e *Effects) Handle(ctx context.Context, action domain.Action) (domain.Action, bool) {
	if !e.Triggers(action) {
		return domain.Action{}, false
	}

	region := action.Region
	start := time.Now()
	e.emitFetchStart(ctx, region)
	e.logger.Debug("fetching countries", "region", region)

	countries, err := e.fetcher.FetchCountries(ctx, region)
	if err != nil {
		msg := ErrorMessage(err)
		status := 0
		var fe *domain.FetchError
		if errors.As(err, &fe) {
			status = fe.Status
		}
		e.logger.Warn("country fetch failed", "region", region, "status", status, "err", err)
		e.emitFetchDone(ctx, &domain.FetchEvent{
			Region:   region,
			Duration: time.Since(start),
			Status:   status,
			IsError:  true,
			Error:    msg,
		})
		return domain.LoadCountriesFailure(msg), true
	}

	e.logger.Debug("countries fetched", "region", region, "count", len(countries))
	e.emitFetchDone(ctx, &domain.FetchEvent{
		Region:   region,
		Count:    len(countries),
		Duration: time.Since(start),
	})
	return domain.SetCountries(countries), true
}

func (e *Effects) emitFetchStart(ctx context.Context, region string) {
	if e.hooks.OnFetchStart == nil {
		return
	}
	e.hooks.OnFetchStart(ctx, &domain.FetchEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventFetchStart},
		Region:    region,
	})
}

func (e *Effects) emitFetchDone(ctx context.Context, ev *domain.FetchEvent) {
	if e.hooks.OnFetchDone == nil {
		return
	}
	ev.EventBase = domain.EventBase{Timestamp: time.Now(), Type: domain.EventFetchDone}
	e.hooks.OnFetchDone(ctx, ev)
}
