package runtime

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/aretw0/regions/internal/logging"
	"github.com/aretw0/regions/pkg/domain"
)

// Change is published to subscribers after every dispatch.
type Change struct {
	Action   domain.Action
	Previous domain.RegionState
	Current  domain.RegionState
}

// Store is the state container. Transitions are serialized under a single
// mutex: each one reads the current value and replaces it with the reducer
// output. The only asynchronous work is the fetch started by the effect layer,
// which reports back by dispatching exactly one follow-up action.
type Store struct {
	mu      sync.Mutex
	idle    *sync.Cond
	state   domain.RegionState
	effects *Effects
	hooks   domain.LifecycleHooks
	logger  *slog.Logger

	subs     map[chan Change]struct{}
	inflight int
	closed   bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithInitialState starts the container from state instead of the defaults.
func WithInitialState(state domain.RegionState) StoreOption {
	return func(s *Store) {
		s.state = state.Snapshot()
	}
}

// WithEffects attaches the effect layer.
func WithEffects(effects *Effects) StoreOption {
	return func(s *Store) {
		s.effects = effects
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) StoreOption {
	return func(s *Store) {
		s.hooks = hooks
	}
}

// WithLogger sets the logger used for internal events.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a container holding the initial state.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		state:  domain.NewRegionState(),
		logger: logging.NewNop(),
		subs:   make(map[chan Change]struct{}),
	}
	s.idle = sync.NewCond(&s.mu)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot of the current state.
func (s *Store) State() domain.RegionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

// Dispatch applies action and returns the resulting state.
// If the action starts an effect, the fetch runs in its own goroutine and its
// outcome is dispatched when it resolves. Cancelling ctx does not cancel the
// fetch; only its values are passed on.
//
// Once the store is closed, actions that would start an effect are dropped
// and the current state is returned unchanged. Outcomes of fetches already in
// flight still apply.
func (s *Store) Dispatch(ctx context.Context, action domain.Action) domain.RegionState {
	s.mu.Lock()
	if s.closed && s.effects.Triggers(action) {
		current := s.state.Snapshot()
		s.mu.Unlock()
		s.logger.Warn("store closed, dropping action", "type", action.Type, "region", action.Region)
		return current
	}
	prev := s.state
	next := Reduce(prev, action)
	s.state = next
	changed := !reflect.DeepEqual(prev, next)
	s.publish(Change{Action: action, Previous: prev.Snapshot(), Current: next.Snapshot()})

	startEffect := s.effects.Triggers(action)
	if startEffect {
		s.inflight++
	}
	s.mu.Unlock()

	s.logger.Debug("action dispatched", "type", action.Type, "changed", changed)
	s.emitDispatch(ctx, action, next, changed)

	if startEffect {
		go s.runEffect(context.WithoutCancel(ctx), action)
	}
	return next.Snapshot()
}

// Replace swaps the whole state, e.g. to reset a session.
// Subscribers see it as a change caused by a zero Action.
func (s *Store) Replace(state domain.RegionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state
	s.state = state.Snapshot()
	s.publish(Change{Previous: prev.Snapshot(), Current: s.state.Snapshot()})
}

func (s *Store) runEffect(ctx context.Context, action domain.Action) {
	defer func() {
		s.mu.Lock()
		s.inflight--
		if s.inflight == 0 {
			s.idle.Broadcast()
		}
		s.mu.Unlock()
	}()

	follow, ok := s.effects.Handle(ctx, action)
	if !ok {
		return
	}

	// Fetches are not cancelled when the user moves on, so a slow answer for a
	// previous region can land after a newer one. It is applied anyway (last
	// write wins) and logged.
	if current := s.State().RegionSelected; current != "" && current != action.Region {
		s.logger.Warn("applying country fetch for a region that is no longer selected",
			"fetched_region", action.Region,
			"selected_region", current,
			"outcome", follow.Type,
		)
	}

	s.Dispatch(ctx, follow)
}

// Wait blocks until no effect is in flight.
func (s *Store) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.inflight > 0 {
		s.idle.Wait()
	}
}

// InFlight reports the number of unresolved fetches.
func (s *Store) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight
}

// Subscribe registers a listener for state changes.
// Changes are dropped for a subscriber whose buffer is full.
// The returned function unsubscribes and closes the channel.
func (s *Store) Subscribe(buffer int) (<-chan Change, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Change, buffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[ch]; ok {
				delete(s.subs, ch)
				close(ch)
			}
		})
	}
}

// Close stops new effects, waits for in-flight ones and closes all subscriptions.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	for s.inflight > 0 {
		s.idle.Wait()
	}
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
	s.mu.Unlock()
}

// publish must be called with s.mu held.
func (s *Store) publish(c Change) {
	for ch := range s.subs {
		select {
		case ch <- c:
		default:
			s.logger.Warn("subscriber buffer full, dropping change", "action", c.Action.Type)
		}
	}
}

func (s *Store) emitDispatch(ctx context.Context, action domain.Action, next domain.RegionState, changed bool) {
	if s.hooks.OnDispatch == nil {
		return
	}
	s.hooks.OnDispatch(ctx, &domain.DispatchEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventDispatch},
		Action:    action.Type,
		Region:    action.Region,
		Changed:   changed,
		Loading:   next.Loading,
		HasError:  next.Error != nil,
	})
}
