// Package storage provides abstractions for persistent local data.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/evenly/internal/models"
)

// ErrNoCredential is returned by LoadCredential when nobody is signed in.
var ErrNoCredential = errors.New("no stored credential")

// Credential is the persisted session: the API token and the user it was
// issued for.
type Credential struct {
	Token   string
	User    *models.User
	SavedAt time.Time
}

// CredentialStore persists the single signed-in session across runs.
type CredentialStore interface {
	// LoadCredential returns the stored credential or ErrNoCredential.
	LoadCredential(ctx context.Context) (*Credential, error)

	// SaveCredential replaces the stored credential.
	// SavedAt is set by the store when zero.
	SaveCredential(ctx context.Context, cred *Credential) error

	// ClearCredential removes the stored credential. Clearing an empty store
	// is not an error.
	ClearCredential(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// ContactStore caches the users the signed-in user can see, so listings can
// show names instead of ids.
type ContactStore interface {
	// UpsertContacts inserts or updates contacts by id.
	// Users without an id are ignored.
	UpsertContacts(ctx context.Context, users []models.User) error

	// GetContactsByIDs returns the known contacts among ids, keyed by id.
	// Unknown ids are omitted from the result.
	GetContactsByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
}
