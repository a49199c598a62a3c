package memory

import (
	"context"
	"sync"

	"github.com/cassiel99/gptbot/internal/domain"
	"github.com/cassiel99/gptbot/internal/ports/output"
)

// Compile-time check to ensure StateRepository implements output.StateRepository
var _ output.StateRepository = (*StateRepository)(nil)

// StateRepository struct - Output adapter for in-memory user state storage
// Uses sync.Map for concurrent access. States are copied on the way in and out
// so callers never share data with the store. Nothing survives a restart.
type StateRepository struct {
	states sync.Map
}

// NewStateRepository creates a new in-memory state repository
func NewStateRepository() *StateRepository {
	return &StateRepository{}
}

// Load returns a copy of the stored state, or nil when the user is unknown
func (m *StateRepository) Load(_ context.Context, userKey string) (*domain.UserState, error) {
	value, exists := m.states.Load(userKey)
	if !exists {
		return nil, nil
	}

	state, ok := value.(*domain.UserState)
	if !ok {
		// If data is malformed, delete and return nil
		m.states.Delete(userKey)
		return nil, nil
	}

	return state.Clone(), nil
}

// Save stores a copy of the state under the user key
func (m *StateRepository) Save(_ context.Context, userKey string, state *domain.UserState) error {
	m.states.Store(userKey, state.Clone())
	return nil
}

// Ping always succeeds
func (m *StateRepository) Ping(context.Context) error {
	return nil
}

// Close is a no-op
func (m *StateRepository) Close() error {
	return nil
}
