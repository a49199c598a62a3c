// Package storetest holds behaviour checks shared by the state repository adapters
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/cassiel99/gptbot/internal/domain"
	"github.com/cassiel99/gptbot/internal/ports/output"
)

// SampleState builds a two-session state with history and tracked ids
func SampleState() *domain.UserState {
	first := domain.NewChatSession("1", "chat_1", "system prompt")
	first.Append(domain.ChatMessage{Role: domain.ChatMessageRoleUser, Content: "Привет"})
	first.Append(domain.ChatMessage{Role: domain.ChatMessageRoleAssistant, Content: "Здравствуйте!"})
	first.TrackBotMessages(10, "101", "102")
	first.TrackUserMessage(10, "100")

	second := domain.NewChatSession("2", "work", "system prompt")

	return &domain.UserState{
		Sessions:        map[string]*domain.ChatSession{"1": first, "2": second},
		ActiveSessionID: "2",
		SessionSeq:      2,
		Temperature:     0.5,
		MaxTokens:       512,
	}
}

// RunStateRepositoryContract checks the behaviour every output.StateRepository must have
func RunStateRepositoryContract(t *testing.T, repo output.StateRepository) {
	t.Helper()
	ctx := context.Background()

	t.Run("load unknown user returns nil", func(t *testing.T) {
		state, err := repo.Load(ctx, "telegram:unknown")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if state != nil {
			t.Errorf("expected nil state, got %+v", state)
		}
	})

	t.Run("save then load round trips", func(t *testing.T) {
		if err := repo.Save(ctx, "telegram:1", SampleState()); err != nil {
			t.Fatalf("unexpected save error: %v", err)
		}

		loaded, err := repo.Load(ctx, "telegram:1")
		if err != nil {
			t.Fatalf("unexpected load error: %v", err)
		}
		AssertSampleState(t, loaded)
	})

	t.Run("save replaces previous state", func(t *testing.T) {
		state := SampleState()
		if err := repo.Save(ctx, "telegram:2", state); err != nil {
			t.Fatalf("unexpected save error: %v", err)
		}
		delete(state.Sessions, "1")
		state.Temperature = 0.1
		if err := repo.Save(ctx, "telegram:2", state); err != nil {
			t.Fatalf("unexpected save error: %v", err)
		}

		loaded, err := repo.Load(ctx, "telegram:2")
		if err != nil {
			t.Fatalf("unexpected load error: %v", err)
		}
		if len(loaded.Sessions) != 1 || loaded.Temperature != 0.1 {
			t.Errorf("expected replaced state, got %+v", loaded)
		}
	})

	t.Run("users are isolated", func(t *testing.T) {
		if err := repo.Save(ctx, "line:U1", SampleState()); err != nil {
			t.Fatalf("unexpected save error: %v", err)
		}
		loaded, err := repo.Load(ctx, "telegram:U1")
		if err != nil {
			t.Fatalf("unexpected load error: %v", err)
		}
		if loaded != nil {
			t.Error("expected keys of different platforms to be distinct")
		}
	})

	t.Run("loaded state is detached from the store", func(t *testing.T) {
		if err := repo.Save(ctx, "telegram:3", SampleState()); err != nil {
			t.Fatalf("unexpected save error: %v", err)
		}
		loaded, _ := repo.Load(ctx, "telegram:3")
		loaded.Sessions["1"].Append(domain.ChatMessage{Role: domain.ChatMessageRoleUser, Content: "unsaved"})

		again, _ := repo.Load(ctx, "telegram:3")
		if len(again.Sessions["1"].History) != 3 {
			t.Errorf("expected unsaved changes to stay local, got %d messages", len(again.Sessions["1"].History))
		}
	})

	t.Run("concurrent saves of different users", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				state := SampleState()
				state.MaxTokens = i + 1
				if err := repo.Save(ctx, fmt.Sprintf("telegram:c%d", i), state); err != nil {
					t.Errorf("unexpected save error: %v", err)
				}
			}(i)
		}
		wg.Wait()

		for i := 0; i < 20; i++ {
			loaded, err := repo.Load(ctx, fmt.Sprintf("telegram:c%d", i))
			if err != nil || loaded == nil {
				t.Fatalf("expected state for user %d, got %v", i, err)
			}
			if loaded.MaxTokens != i+1 {
				t.Errorf("expected max tokens %d, got %d", i+1, loaded.MaxTokens)
			}
		}
	})

	t.Run("ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("unexpected ping error: %v", err)
		}
	})
}

// AssertSampleState checks that state equals SampleState
func AssertSampleState(t *testing.T, state *domain.UserState) {
	t.Helper()
	if state == nil {
		t.Fatal("expected a stored state, got nil")
	}
	if state.ActiveSessionID != "2" || state.SessionSeq != 2 {
		t.Errorf("unexpected active session or counter: %+v", state)
	}
	if state.Temperature != 0.5 || state.MaxTokens != 512 {
		t.Errorf("unexpected settings: %v / %d", state.Temperature, state.MaxTokens)
	}
	if len(state.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(state.Sessions))
	}

	first := state.Sessions["1"]
	if first == nil || first.Name != "chat_1" {
		t.Fatalf("unexpected first session: %+v", first)
	}
	if len(first.History) != 3 || first.History[1].Content != "Привет" || first.History[2].Role != domain.ChatMessageRoleAssistant {
		t.Errorf("unexpected history: %+v", first.History)
	}
	if len(first.BotMessageIDs) != 2 || first.BotMessageIDs[1] != "102" {
		t.Errorf("unexpected bot message ids: %v", first.BotMessageIDs)
	}
	if len(first.UserMessageIDs) != 1 || first.UserMessageIDs[0] != "100" {
		t.Errorf("unexpected user message ids: %v", first.UserMessageIDs)
	}
	if state.Sessions["2"].Name != "work" {
		t.Errorf("unexpected second session name: %s", state.Sessions["2"].Name)
	}
}
