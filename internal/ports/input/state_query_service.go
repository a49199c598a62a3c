package input

import (
	"context"

	"github.com/cassiel99/gptbot/internal/domain"
)

// StateQueryService interface - Input port (use case)
// Read-only access to stored user state for the admin API
type StateQueryService interface {
	// GetUserSessions returns the sessions of a platform user.
	// Returns domain.ErrSessionNotFound when the user has no stored state.
	GetUserSessions(ctx context.Context, platform domain.Platform, userID string) (*domain.UserSessionsView, error)
}
