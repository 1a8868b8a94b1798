package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/evenly/internal/models"
)

// UpsertContacts inserts or refreshes contacts in one transaction.
func (s *SQLiteStore) UpsertContacts(ctx context.Context, users []models.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, u := range users {
		if u.ID == "" {
			continue
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO contacts (id, name, email, image_url, updated_at) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email,
			     image_url = excluded.image_url, updated_at = excluded.updated_at`,
			u.ID, u.Name, u.Email, u.ImageURL, now,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert contact %s: %w", u.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetContactsByIDs retrieves multiple contacts by their IDs.
// Contacts that aren't cached are omitted from the result.
func (s *SQLiteStore) GetContactsByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	contacts := make(map[string]models.User)
	if len(ids) == 0 {
		return contacts, nil
	}

	// Build the IN clause with placeholders
	query := `
		SELECT id, name, email, image_url
		FROM contacts
		WHERE id IN (?` + repeatPlaceholder(len(ids)-1) + `)`

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get contacts by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}

	return contacts, nil
}

// repeatPlaceholder returns a string of ", ?" repeated n times.
// Used for building IN clauses with multiple placeholders.
func repeatPlaceholder(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(", ?", n)
}
