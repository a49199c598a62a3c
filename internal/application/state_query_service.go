package application

import (
	"context"
	"fmt"

	"github.com/cassiel99/gptbot/internal/domain"
	"github.com/cassiel99/gptbot/internal/ports/input"
	"github.com/cassiel99/gptbot/internal/ports/output"
)

// Compile-time check that StateQueryService implements input.StateQueryService
var _ input.StateQueryService = (*StateQueryService)(nil)

// StateQueryService struct - Application service for read-only state queries
type StateQueryService struct {
	sessions *domain.SessionManager
	repo     output.StateRepository
}

// NewStateQueryService func - Creates new state query service
func NewStateQueryService(sessions *domain.SessionManager, repo output.StateRepository) *StateQueryService {
	return &StateQueryService{
		sessions: sessions,
		repo:     repo,
	}
}

// GetUserSessions func - Use case: Summarize the sessions of a platform user
func (s *StateQueryService) GetUserSessions(ctx context.Context, platform domain.Platform, userID string) (*domain.UserSessionsView, error) {
	key := domain.UserKey(platform, userID)

	state, err := s.repo.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load user state: %w", err)
	}
	if state == nil {
		return nil, domain.ErrSessionNotFound
	}

	sessions := s.sessions.SortedSessions(state)
	summaries := make([]domain.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, domain.SessionSummary{
			ID:             session.ID,
			Name:           session.Name,
			Active:         session.ID == state.ActiveSessionID,
			Messages:       len(session.History),
			BotMessageIDs:  len(session.BotMessageIDs),
			UserMessageIDs: len(session.UserMessageIDs),
		})
	}

	return &domain.UserSessionsView{
		UserKey:     key,
		Temperature: state.Temperature,
		MaxTokens:   state.MaxTokens,
		Sessions:    summaries,
	}, nil
}
