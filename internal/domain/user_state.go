package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultTemperature seeds the sampling temperature of a new user
	DefaultTemperature = 0.7
	// DefaultMaxTokens seeds the output token budget of a new user
	DefaultMaxTokens = 1024
	// DefaultMaxNameLength bounds session names, in runes
	DefaultMaxNameLength = 64

	// MinTemperature and MaxTemperature bound the sampling temperature
	MinTemperature = 0.0
	MaxTemperature = 1.0
	// MinMaxTokens and MaxMaxTokens bound the output token budget
	MinMaxTokens = 1
	MaxMaxTokens = 2048

	defaultSessionNamePrefix = "chat_"
)

// UserState holds everything the bot remembers about one user
type UserState struct {
	Sessions        map[string]*ChatSession `json:"sessions"`
	ActiveSessionID string                  `json:"active_session_id"`
	SessionSeq      int                     `json:"session_seq"` // Monotonic counter for ids and default names
	Temperature     float64                 `json:"temperature"`
	MaxTokens       int                     `json:"max_tokens"`
}

// Clone returns a deep copy of the state
func (u *UserState) Clone() *UserState {
	clone := *u
	if u.Sessions != nil {
		clone.Sessions = make(map[string]*ChatSession, len(u.Sessions))
		for id, session := range u.Sessions {
			clone.Sessions[id] = session.Clone()
		}
	}
	return &clone
}

// SessionManagerConfig holds the tunables of a SessionManager
type SessionManagerConfig struct {
	SystemPrompt   string
	MaxNameLength  int
	ReservedNames  []string // Labels that can not be used as session names
	DefaultTemp    float64
	DefaultTokens  int
	MaxTrackedIDs  int
	MaxHistoryMsgs int
	MaxHistoryLen  int
}

// SessionManager implements the session store operations on an explicitly passed UserState
type SessionManager struct {
	cfg SessionManagerConfig
}

// NewSessionManager creates a session manager, applying defaults to zero config values
func NewSessionManager(cfg SessionManagerConfig) *SessionManager {
	if cfg.MaxNameLength <= 0 {
		cfg.MaxNameLength = DefaultMaxNameLength
	}
	if cfg.DefaultTemp < MinTemperature || cfg.DefaultTemp > MaxTemperature {
		cfg.DefaultTemp = DefaultTemperature
	}
	if cfg.DefaultTokens < MinMaxTokens || cfg.DefaultTokens > MaxMaxTokens {
		cfg.DefaultTokens = DefaultMaxTokens
	}
	if cfg.MaxTrackedIDs <= 0 {
		cfg.MaxTrackedIDs = DefaultMaxTrackedMessages
	}
	if cfg.MaxHistoryMsgs <= 0 {
		cfg.MaxHistoryMsgs = DefaultMaxHistoryMessages
	}
	if cfg.MaxHistoryLen <= 0 {
		cfg.MaxHistoryLen = DefaultMaxHistoryChars
	}
	return &SessionManager{cfg: cfg}
}

// Config returns the effective configuration
func (m *SessionManager) Config() SessionManagerConfig {
	return m.cfg
}

// EnsureUserState initializes a zero-value UserState with default settings and one session.
// Calling it on an initialized state is a no-op.
func (m *SessionManager) EnsureUserState(state *UserState) {
	if state.Sessions == nil {
		state.Sessions = make(map[string]*ChatSession)
		state.Temperature = m.cfg.DefaultTemp
		state.MaxTokens = m.cfg.DefaultTokens
	}
	if len(state.Sessions) == 0 {
		m.CreateSession(state)
		return
	}
	if _, ok := state.Sessions[state.ActiveSessionID]; !ok {
		state.ActiveSessionID = lowestSessionID(state.Sessions)
	}
}

// CreateSession mints the next session, seeds it with the system prompt and makes it active
func (m *SessionManager) CreateSession(state *UserState) *ChatSession {
	if state.Sessions == nil {
		state.Sessions = make(map[string]*ChatSession)
	}

	state.SessionSeq++
	id := strconv.Itoa(state.SessionSeq)
	name := defaultSessionNamePrefix + id
	// A renamed sibling may already hold the default name
	for m.nameTaken(state, name, "") {
		name += "_"
	}

	session := NewChatSession(id, name, m.cfg.SystemPrompt)
	state.Sessions[id] = session
	state.ActiveSessionID = id
	return session
}

// ActiveSession returns the session the active pointer refers to
func (m *SessionManager) ActiveSession(state *UserState) *ChatSession {
	m.EnsureUserState(state)
	return state.Sessions[state.ActiveSessionID]
}

// FindByName looks a session up by trimmed, case-insensitive name
func (m *SessionManager) FindByName(state *UserState, name string) (*ChatSession, error) {
	key := normalizeName(name)
	if key == "" {
		return nil, ErrSessionNotFound
	}
	for _, session := range state.Sessions {
		if normalizeName(session.Name) == key {
			return session, nil
		}
	}
	return nil, ErrSessionNotFound
}

// SwitchByName makes the session with the given name active.
// It reports false and leaves the state unchanged when no session matches.
func (m *SessionManager) SwitchByName(state *UserState, name string) bool {
	session, err := m.FindByName(state, name)
	if err != nil {
		return false
	}
	state.ActiveSessionID = session.ID
	return true
}

// Rename validates newName and renames the session in place
func (m *SessionManager) Rename(state *UserState, session *ChatSession, newName string) error {
	name := strings.TrimSpace(newName)
	if name == "" {
		return &ValidationError{Field: "name", Err: ErrEmptySessionName}
	}
	if utf8.RuneCountInString(name) > m.cfg.MaxNameLength {
		name = strings.TrimSpace(string([]rune(name)[:m.cfg.MaxNameLength]))
	}
	if strings.HasPrefix(name, "/") {
		return &ValidationError{Field: "name", Err: ErrInvalidSessionName}
	}
	for _, reserved := range m.cfg.ReservedNames {
		if normalizeName(reserved) == normalizeName(name) {
			return &ValidationError{Field: "name", Err: ErrReservedSessionName}
		}
	}
	if m.nameTaken(state, name, session.ID) {
		return &ValidationError{Field: "name", Err: fmt.Errorf("%w: %s", ErrDuplicateSessionName, name)}
	}

	session.Name = name
	return nil
}

// RemoveSession drops a session. The last session is replaced by a fresh default one,
// otherwise the remaining session with the lowest numeric id becomes active when the
// active one was removed.
func (m *SessionManager) RemoveSession(state *UserState, id string) {
	delete(state.Sessions, id)

	if len(state.Sessions) == 0 {
		m.CreateSession(state)
		return
	}
	if _, ok := state.Sessions[state.ActiveSessionID]; !ok {
		state.ActiveSessionID = lowestSessionID(state.Sessions)
	}
}

// ResetSession drops the whole history except the system prompt
func (m *SessionManager) ResetSession(session *ChatSession) {
	session.History = []ChatMessage{SystemMessage(m.cfg.SystemPrompt)}
}

// TrimSession applies the configured history budget to a session
func (m *SessionManager) TrimSession(session *ChatSession) {
	session.Trim(m.cfg.MaxHistoryMsgs, m.cfg.MaxHistoryLen)
}

// TrackBotMessages records bot message ids on a session with the configured bound
func (m *SessionManager) TrackBotMessages(session *ChatSession, ids ...string) {
	session.TrackBotMessages(m.cfg.MaxTrackedIDs, ids...)
}

// TrackUserMessage records a user message id on a session with the configured bound
func (m *SessionManager) TrackUserMessage(session *ChatSession, id string) {
	session.TrackUserMessage(m.cfg.MaxTrackedIDs, id)
}

// SortedSessions returns the sessions ordered by numeric id
func (m *SessionManager) SortedSessions(state *UserState) []*ChatSession {
	sessions := make([]*ChatSession, 0, len(state.Sessions))
	for _, session := range state.Sessions {
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return lessSessionID(sessions[i].ID, sessions[j].ID)
	})
	return sessions
}

func (m *SessionManager) nameTaken(state *UserState, name, exceptID string) bool {
	key := normalizeName(name)
	for id, session := range state.Sessions {
		if id != exceptID && normalizeName(session.Name) == key {
			return true
		}
	}
	return false
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func lowestSessionID(sessions map[string]*ChatSession) string {
	lowest := ""
	for id := range sessions {
		if lowest == "" || lessSessionID(id, lowest) {
			lowest = id
		}
	}
	return lowest
}

// lessSessionID orders numeric ids numerically and anything else after them lexically
func lessSessionID(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
