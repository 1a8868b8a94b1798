package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/evenly/internal/models"
	"github.com/mmynk/evenly/internal/storage"
)

// Display names used in listings.
const (
	NameYou     = "You"
	NameUnknown = "Other User"
)

// ContactAPI lists the user's contacts.
type ContactAPI interface {
	ListContacts(ctx context.Context) (*models.Contacts, error)
}

// Directory resolves user ids to display names from the local contact cache.
type Directory struct {
	store    storage.ContactStore
	api      ContactAPI
	identity Identity
}

// NewDirectory creates a Directory.
func NewDirectory(store storage.ContactStore, client ContactAPI, identity Identity) *Directory {
	return &Directory{store: store, api: client, identity: identity}
}

// Refresh re-fetches contacts and group members and caches them.
func (d *Directory) Refresh(ctx context.Context) error {
	contacts, err := d.api.ListContacts(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch contacts: %w", err)
	}

	users := append([]models.User(nil), contacts.Users...)
	for _, g := range contacts.Groups {
		users = append(users, g.Members...)
	}
	if err := d.store.UpsertContacts(ctx, users); err != nil {
		return err
	}
	slog.Debug("Contacts refreshed", "users", len(contacts.Users), "groups", len(contacts.Groups))
	return nil
}

// Remember caches users seen elsewhere, e.g. in a group or lookup map.
func (d *Directory) Remember(ctx context.Context, users ...models.User) error {
	return d.store.UpsertContacts(ctx, users)
}

// Names resolves ids to display names. The signed-in user reads "You" and ids
// missing from the cache read "Other User".
func (d *Directory) Names(ctx context.Context, ids []string) (map[string]string, error) {
	known, err := d.store.GetContactsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	self := d.identity.UserID()
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		switch u, ok := known[id]; {
		case id != "" && id == self:
			names[id] = NameYou
		case ok && u.Name != "":
			names[id] = u.Name
		case ok && u.Email != "":
			names[id] = u.Email
		default:
			names[id] = NameUnknown
		}
	}
	return names, nil
}

// Name resolves a single id.
func (d *Directory) Name(ctx context.Context, id string) string {
	names, err := d.Names(ctx, []string{id})
	if err != nil {
		slog.Warn("Contact lookup failed", "user_id", id, "error", err)
		if id != "" && id == d.identity.UserID() {
			return NameYou
		}
		return NameUnknown
	}
	return names[id]
}
