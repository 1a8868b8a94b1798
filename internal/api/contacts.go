package api

import (
	"context"
	"net/url"

	"github.com/mmynk/evenly/internal/models"
)

// ListContacts returns the users and groups the signed-in user shares
// expenses with.
func (c *Client) ListContacts(ctx context.Context) (*models.Contacts, error) {
	contacts := &models.Contacts{}
	if err := c.get(ctx, "/contacts", nil, contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// SearchUsers finds users by name or email.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	var resp struct {
		Users []models.User `json:"users"`
	}
	if err := c.get(ctx, "/users", url.Values{"search": {query}}, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}
