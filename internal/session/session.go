// Package session is the client-side store of who is logged in.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/materiais/internal/apiclient"
	"github.com/erazemk/materiais/internal/model"
	"github.com/erazemk/materiais/internal/store"
)

// Session is an authenticated user together with the backend token.
type Session = model.Session

// DefaultTTL is used for tokens that carry no expiry of their own.
const DefaultTTL = 24 * time.Hour

// Manager creates, persists and restores sessions. It is safe for
// concurrent use.
type Manager struct {
	db     *sql.DB
	api    *apiclient.Client
	sealer *sealer
	ttl    time.Duration

	// now is overridable in tests.
	now func() time.Time
}

// NewManager returns a manager persisting sessions in db and talking to the
// backend through api. key seals tokens at rest and must be KeySize bytes.
func NewManager(db *sql.DB, api *apiclient.Client, key []byte, ttl time.Duration) (*Manager, error) {
	s, err := newSealer(key)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{db: db, api: api, sealer: s, ttl: ttl, now: time.Now}, nil
}

// Client returns an API client bound to the session's token.
func (m *Manager) Client(s *Session) *apiclient.Client {
	return m.api.WithToken(s.Token)
}

// Login authenticates against the backend and persists the new session.
// On failure no session is created and the backend error is returned so
// callers can show its message.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, &model.ValidationError{Fields: missing("email", email, "password", password)}
	}

	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	now := m.now()
	expires, ok := tokenExpiry(resp.Token)
	if !ok {
		expires = now.Add(m.ttl)
	}
	if !expires.After(now) {
		return nil, fmt.Errorf("logging in: token already expired: %w", model.ErrAuth)
	}

	s := &Session{
		ID:        uuid.NewString(),
		User:      resp.User,
		Token:     resp.Token,
		CreatedAt: now,
		ExpiresAt: expires,
	}
	sealed, err := m.sealer.seal(s.ID, s.Token)
	if err != nil {
		return nil, err
	}
	if err := store.SaveSession(ctx, m.db, s, sealed); err != nil {
		return nil, err
	}

	slog.Info("user logged in", "user_id", s.User.ID, "session", s.ID)
	return s, nil
}

// Register creates an account on the backend. It never authenticates; the
// caller logs in separately.
func (m *Manager) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	reg := model.Registration{
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	u, err := m.api.Register(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("registering: %w", err)
	}

	slog.Info("user registered", "user_id", u.ID)
	return u, nil
}

// Restore loads a persisted session. It returns nil, nil when the session is
// missing, expired or cannot be decrypted; stale rows are removed.
func (m *Manager) Restore(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, nil
	}

	s, sealed, err := store.GetSession(ctx, m.db, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}

	if s.Expired(m.now()) {
		return nil, m.drop(ctx, id, "expired")
	}

	token, err := m.sealer.open(id, sealed)
	if err != nil {
		slog.Warn("discarding unreadable session", "session", id, "error", err)
		return nil, m.drop(ctx, id, "unreadable")
	}
	s.Token = token
	return s, nil
}

// Logout removes the session. It is idempotent.
func (m *Manager) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := store.DeleteSession(ctx, m.db, id); err != nil {
		return err
	}
	slog.Info("user logged out", "session", id)
	return nil
}

// Invalidate removes a session whose token the backend rejected.
func (m *Manager) Invalidate(ctx context.Context, id string) error {
	return m.drop(ctx, id, "rejected by backend")
}

// Check invalidates the session when err says the backend no longer accepts
// its token. It returns true if the session was invalidated.
func (m *Manager) Check(ctx context.Context, s *Session, err error) bool {
	if s == nil || !errors.Is(err, model.ErrAuth) {
		return false
	}
	if err := m.Invalidate(ctx, s.ID); err != nil {
		slog.Error("failed to invalidate session", "session", s.ID, "error", err)
	}
	return true
}

// UpdateUser refreshes the user details cached with the session.
func (m *Manager) UpdateUser(ctx context.Context, s *Session, u model.User) error {
	if err := store.UpdateSessionUser(ctx, m.db, s.ID, u.Name, u.Email); err != nil {
		return err
	}
	s.User.Name = u.Name
	s.User.Email = u.Email
	return nil
}

// PurgeExpired removes every expired session.
func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	return store.DeleteExpiredSessions(ctx, m.db, m.now())
}

// RequestPasswordReset starts the two-step reset flow for email.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := model.ValidateEmail(email); err != nil {
		return err
	}
	if err := m.api.RequestPasswordReset(ctx, email); err != nil {
		return fmt.Errorf("requesting password reset: %w", err)
	}
	return nil
}

// ConfirmPasswordReset completes the reset flow with the emailed token.
func (m *Manager) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if token == "" || password == "" {
		return &model.ValidationError{Fields: missing("token", token, "password", password)}
	}
	if err := m.api.ConfirmPasswordReset(ctx, token, password); err != nil {
		return fmt.Errorf("resetting password: %w", err)
	}
	return nil
}

func (m *Manager) drop(ctx context.Context, id, reason string) error {
	if err := store.DeleteSession(ctx, m.db, id); err != nil {
		return err
	}
	slog.Info("session ended", "session", id, "reason", reason)
	return nil
}

// missing returns the names of the empty values among name/value pairs.
func missing(pairs ...string) []string {
	var fields []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			fields = append(fields, pairs[i])
		}
	}
	return fields
}
