package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/evenly/internal/models"
)

type fakeContactAPI struct {
	contacts *models.Contacts
	err      error
}

func (f fakeContactAPI) ListContacts(context.Context) (*models.Contacts, error) {
	return f.contacts, f.err
}

func TestDirectory_Names(t *testing.T) {
	store := &memContacts{}
	dir := NewDirectory(store, fakeContactAPI{contacts: &models.Contacts{
		Users:  []models.User{bob, {ID: "u-mail", Email: "dave@example.com"}},
		Groups: []models.Group{{ID: "g1", Members: []models.User{carol}}},
	}}, fakeIdentity{id: alice.ID})
	ctx := context.Background()

	require.NoError(t, dir.Refresh(ctx))

	names, err := dir.Names(ctx, []string{alice.ID, bob.ID, carol.ID, "u-mail", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		alice.ID: NameYou,
		bob.ID:   "Bob",
		carol.ID: "Carol",
		"u-mail": "dave@example.com",
		"ghost":  NameUnknown,
	}, names)

	assert.Equal(t, "Bob", dir.Name(ctx, bob.ID))
	assert.Equal(t, NameYou, dir.Name(ctx, alice.ID))
}

func TestDirectory_Remember(t *testing.T) {
	store := &memContacts{}
	dir := NewDirectory(store, fakeContactAPI{}, fakeIdentity{})

	require.NoError(t, dir.Remember(context.Background(), models.User{ID: "u9", Name: "Nine"}))

	assert.Equal(t, "Nine", dir.Name(context.Background(), "u9"))
	assert.Equal(t, NameUnknown, dir.Name(context.Background(), ""))
}

func TestDirectory_RefreshError(t *testing.T) {
	dir := NewDirectory(&memContacts{}, fakeContactAPI{err: errors.New("offline")}, fakeIdentity{})

	assert.Error(t, dir.Refresh(context.Background()))
}
