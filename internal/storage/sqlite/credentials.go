package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/evenly/internal/auth"
	"github.com/mmynk/evenly/internal/models"
	"github.com/mmynk/evenly/internal/storage"
)

// LoadCredential returns the stored session.
// A token sealed with a different secret, or sealed while no secret is
// configured, is reported as auth.ErrCorrupt.
func (s *SQLiteStore) LoadCredential(ctx context.Context) (*storage.Credential, error) {
	var (
		token    string
		sealed   bool
		userJSON sql.NullString
		savedAt  int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT token, sealed, user_json, saved_at FROM credential WHERE id = 1",
	).Scan(&token, &sealed, &userJSON, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	if sealed {
		if s.sealer == nil {
			return nil, fmt.Errorf("stored token is sealed but no secret is configured: %w", auth.ErrCorrupt)
		}
		if token, err = s.sealer.Open(token); err != nil {
			return nil, err
		}
	}

	cred := &storage.Credential{
		Token:   token,
		SavedAt: time.Unix(savedAt, 0),
	}
	if userJSON.Valid && userJSON.String != "" {
		user := &models.User{}
		if err := json.Unmarshal([]byte(userJSON.String), user); err != nil {
			return nil, fmt.Errorf("failed to decode stored user: %w", err)
		}
		cred.User = user
	}
	return cred, nil
}

// SaveCredential replaces the stored session.
func (s *SQLiteStore) SaveCredential(ctx context.Context, cred *storage.Credential) error {
	if cred == nil || cred.Token == "" {
		return auth.ErrMissingToken
	}
	if cred.SavedAt.IsZero() {
		cred.SavedAt = time.Now()
	}

	token, sealed := cred.Token, false
	if s.sealer != nil {
		var err error
		if token, err = s.sealer.Seal(cred.Token); err != nil {
			return fmt.Errorf("failed to seal token: %w", err)
		}
		sealed = true
	}

	var userJSON sql.NullString
	if cred.User != nil {
		b, err := json.Marshal(cred.User)
		if err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
		userJSON = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credential (id, token, sealed, user_json, saved_at) VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET token = excluded.token, sealed = excluded.sealed,
		     user_json = excluded.user_json, saved_at = excluded.saved_at`,
		token, sealed, userJSON, cred.SavedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// ClearCredential removes the stored session.
func (s *SQLiteStore) ClearCredential(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM credential"); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}
