package ports

import (
	"context"

	"github.com/aretw0/regions/pkg/domain"
)

// StateStore defines the interface for persisting session state.
// It lets a host (e.g. the HTTP server) keep one state container per session
// across restarts or replicas.
type StateStore interface {
	// Save persists the state for a given session ID.
	Save(ctx context.Context, sessionID string, state domain.RegionState) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (domain.RegionState, error)

	// Delete removes the state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the stored sessions.
	List(ctx context.Context) ([]string, error)
}
