package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/materiais/internal/model"
)

// SaveSession inserts or replaces a session row. The token is stored as the
// sealed bytes given; s.Token is ignored.
func SaveSession(ctx context.Context, db *sql.DB, s *model.Session, sealedToken []byte) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (id, user_id, user_name, user_email, token, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.User.ID.String(), s.User.Name, s.User.Email, sealedToken,
		s.CreatedAt.Unix(), s.ExpiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// GetSession returns a session and its sealed token by ID.
// A missing session yields nil, nil, nil.
func GetSession(ctx context.Context, db *sql.DB, id string) (*model.Session, []byte, error) {
	s := &model.Session{ID: id}
	var userID string
	var sealed []byte
	var createdAt, expiresAt int64
	err := db.QueryRowContext(ctx,
		`SELECT user_id, user_name, user_email, token, created_at, expires_at
		 FROM sessions WHERE id = ?`, id,
	).Scan(&userID, &s.User.Name, &s.User.Email, &sealed, &createdAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("getting session: %w", err)
	}
	s.User.ID = model.ID(userID)
	s.CreatedAt = time.Unix(createdAt, 0)
	s.ExpiresAt = time.Unix(expiresAt, 0)
	return s, sealed, nil
}

// UpdateSessionUser refreshes the cached user name and email of a session.
func UpdateSessionUser(ctx context.Context, db *sql.DB, id, name, email string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE sessions SET user_name = ?, user_email = ? WHERE id = ?`,
		name, email, id,
	)
	if err != nil {
		return fmt.Errorf("updating session user: %w", err)
	}
	return nil
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func DeleteSession(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes every session that expired before now and
// returns how many were removed.
func DeleteExpiredSessions(ctx context.Context, db *sql.DB, now time.Time) (int64, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, now.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted sessions: %w", err)
	}
	return n, nil
}
