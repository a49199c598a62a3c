package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cassiel99/gptbot/internal/domain"
	"github.com/cassiel99/gptbot/internal/ports/output"

	"github.com/sirupsen/logrus"
)

// Compile-time check to ensure StateRepository implements output.StateRepository
var _ output.StateRepository = (*StateRepository)(nil)

// StateRepository struct - Output adapter storing user state in SQLite
type StateRepository struct {
	db *sql.DB
}

// NewStateRepository creates the repository and its table
func NewStateRepository(db *sql.DB) (*StateRepository, error) {
	if err := initSchema(db); err != nil {
		return nil, err
	}
	return &StateRepository{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS user_states (
			user_key TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			updated_at INTEGER NOT NULL DEFAULT (unixepoch())
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create user_states table: %w", err)
	}
	return nil
}

// Load reads the state of a user, nil when none is stored
func (r *StateRepository) Load(ctx context.Context, userKey string) (*domain.UserState, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM user_states WHERE user_key = ?`, userKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logrus.Errorln(err)
		return nil, fmt.Errorf("failed to load state of %s: %w", userKey, err)
	}

	var state domain.UserState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to decode state of %s: %w", userKey, err)
	}
	return &state, nil
}

// Save upserts the state of a user
func (r *StateRepository) Save(ctx context.Context, userKey string, state *domain.UserState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state of %s: %w", userKey, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_states (user_key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, userKey, string(data), time.Now().Unix())
	if err != nil {
		logrus.Errorln(err)
		return fmt.Errorf("failed to save state of %s: %w", userKey, err)
	}
	return nil
}

// Ping checks the database handle
func (r *StateRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database
func (r *StateRepository) Close() error {
	return r.db.Close()
}
