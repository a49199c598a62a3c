package output

import (
	"context"

	"github.com/cassiel99/gptbot/internal/domain"
)

// StateRepository interface - Output port
// Persists the complete state of one user under its user key.
// Implementations must be safe for concurrent use.
type StateRepository interface {
	// Load returns the stored state, or nil and no error when nothing is stored
	Load(ctx context.Context, userKey string) (*domain.UserState, error)

	// Save stores the state, replacing any previous value
	Save(ctx context.Context, userKey string, state *domain.UserState) error

	// Ping checks that the backing store is reachable
	Ping(ctx context.Context) error

	// Close releases the backing store
	Close() error
}
