package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/regions"
	"github.com/aretw0/regions/internal/logging"
	"github.com/aretw0/regions/pkg/domain"
	"github.com/aretw0/regions/pkg/ports"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultLockTTL     = 30 * time.Second
	defaultSaveTimeout = 5 * time.Second
	changeBuffer       = 64
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// live is a running session: its container and the goroutine persisting it.
type live struct {
	store       *regions.Store
	unsubscribe func()
	done        chan struct{}
	deleted     atomic.Bool
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// Locks are reference counted and dropped once no caller holds them.
type Manager struct {
	store ports.StateStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	liveMu sync.Mutex
	live   map[string]*live

	locker    ports.DistributedLocker // Optional distributed locker
	lockTTL   time.Duration
	storeOpts []regions.Option
	logger    *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets how long a distributed lock survives a crashed holder.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithStoreOptions configures every container the manager starts,
// e.g. its fetcher and hooks.
func WithStoreOptions(opts ...regions.Option) Option {
	return func(m *Manager) {
		m.storeOpts = append(m.storeOpts, opts...)
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		live:    make(map[string]*live),
		lockTTL: defaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Create starts a session under a fresh random ID.
func (m *Manager) Create(ctx context.Context) (string, *regions.Store, error) {
	id := uuid.NewString()
	store, err := m.LoadOrStart(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return id, store, nil
}

// LoadOrStart returns the live container of a session, loading it from the
// store or initializing a new one as needed.
func (m *Manager) LoadOrStart(ctx context.Context, sessionID string) (*regions.Store, error) {
	return m.open(ctx, sessionID, true)
}

// Get returns the live container of an existing session.
// Returns domain.ErrSessionNotFound if it was never started.
func (m *Manager) Get(ctx context.Context, sessionID string) (*regions.Store, error) {
	return m.open(ctx, sessionID, false)
}

func (m *Manager) open(ctx context.Context, sessionID string, create bool) (*regions.Store, error) {
	if s := m.lookup(sessionID); s != nil {
		return s.store, nil
	}

	var store *regions.Store
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		// Another caller may have opened it while we waited.
		if s := m.lookup(sessionID); s != nil {
			store = s.store
			return nil
		}

		state, err := m.store.Load(ctx, sessionID)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrSessionNotFound) && create:
			state = domain.NewRegionState()
			// Persist immediately to reserve the ID
			if err := m.store.Save(ctx, sessionID, state); err != nil {
				return fmt.Errorf("failed to initialize session: %w", err)
			}
			m.logger.Debug("session created", "session_id", sessionID)
		case errors.Is(err, domain.ErrSessionNotFound):
			return err
		default:
			return fmt.Errorf("failed to load session: %w", err)
		}

		store = m.start(sessionID, state)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (m *Manager) lookup(sessionID string) *live {
	m.liveMu.Lock()
	defer m.liveMu.Unlock()
	return m.live[sessionID]
}

// start must be called under the session lock.
func (m *Manager) start(sessionID string, state domain.RegionState) *regions.Store {
	opts := append([]regions.Option{}, m.storeOpts...)
	opts = append(opts, regions.WithLogger(m.logger.With("session_id", sessionID)), regions.WithInitialState(state))
	store := regions.New(opts...)

	changes, unsubscribe := store.Subscribe(changeBuffer)
	s := &live{store: store, unsubscribe: unsubscribe, done: make(chan struct{})}

	go m.persist(sessionID, s, changes)

	m.liveMu.Lock()
	m.live[sessionID] = s
	m.liveMu.Unlock()

	m.resume(sessionID, store, state)
	return store
}

// resume settles a state saved mid-fetch: that fetch died with the process
// that started it, so it is requested again, or loading is cleared when no
// region is selected.
func (m *Manager) resume(sessionID string, store *regions.Store, state domain.RegionState) {
	if !state.Loading {
		return
	}
	if state.RegionSelected != "" {
		m.logger.Info("resuming interrupted fetch", "session_id", sessionID, "region", state.RegionSelected)
		store.Dispatch(context.Background(), domain.RequestCountries(state.RegionSelected))
		return
	}
	m.logger.Warn("clearing loading flag without a selected region", "session_id", sessionID)
	state.Loading = false
	store.Replace(state)
}

// persist writes the current state back after every change. It saves the
// latest state rather than the one carried by the change, so a dropped
// notification never leaves a stale value behind.
func (m *Manager) persist(sessionID string, s *live, changes <-chan regions.Change) {
	defer close(s.done)
	for range changes {
		ctx, cancel := context.WithTimeout(context.Background(), defaultSaveTimeout)
		err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
			if s.deleted.Load() {
				return nil
			}
			return m.store.Save(ctx, sessionID, s.store.State())
		})
		cancel()
		if err != nil {
			m.logger.Error("failed to persist session", "session_id", sessionID, "err", err)
		}
	}
}

// Save persists a state for the session, replacing the live one if running.
func (m *Manager) Save(ctx context.Context, sessionID string, state domain.RegionState) error {
	if s := m.lookup(sessionID); s != nil {
		s.store.Replace(state)
	}
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, state)
	})
}

// Load returns the stored state of a session without starting it.
func (m *Manager) Load(ctx context.Context, sessionID string) (domain.RegionState, error) {
	if s := m.lookup(sessionID); s != nil {
		return s.store.State(), nil
	}
	var state domain.RegionState
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, sessionID)
		return err
	})
	return state, err
}

// Delete removes the session from the store and stops it. The session lock is
// held while it leaves both the live set and the store, so a concurrent Get
// cannot load it back in between.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	var s *live
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.liveMu.Lock()
		s = m.live[sessionID]
		delete(m.live, sessionID)
		m.liveMu.Unlock()

		if s != nil {
			s.deleted.Store(true)
		} else if _, err := m.store.Load(ctx, sessionID); err != nil {
			return err
		}
		return m.store.Delete(ctx, sessionID)
	})
	if s != nil {
		m.stop(s)
	}
	return err
}

// stop must not be called under the session lock: the persister may need it
// to flush the last change.
func (m *Manager) stop(s *live) {
	s.store.Close()
	<-s.done
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Live reports how many sessions are running in this process.
func (m *Manager) Live() int {
	m.liveMu.Lock()
	defer m.liveMu.Unlock()
	return len(m.live)
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// Close stops every running session, letting in-flight fetches land and be
// persisted. It returns ctx.Err() if that takes longer than ctx allows.
func (m *Manager) Close(ctx context.Context) error {
	m.liveMu.Lock()
	running := make([]*live, 0, len(m.live))
	for id, s := range m.live {
		running = append(running, s)
		delete(m.live, id)
	}
	m.liveMu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range running {
		g.Go(func() error {
			stopped := make(chan struct{})
			go func() {
				m.stop(s)
				close(stopped)
			}()
			select {
			case <-stopped:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	return g.Wait()
}
