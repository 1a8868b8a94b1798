package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mmynk/evenly/internal/models"
)

// ListGroups returns the groups the signed-in user belongs to.
func (c *Client) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := c.get(ctx, "/groups", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// GetGroup fetches one group. The API answers either the group itself or an
// envelope holding it under "selectedGroup" or "group".
func (c *Client) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	var raw json.RawMessage
	if err := c.get(ctx, resource("groups", id), nil, &raw); err != nil {
		return nil, err
	}

	var envelope struct {
		SelectedGroup *models.Group `json:"selectedGroup"`
		Group         *models.Group `json:"group"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode group: %w", err)
	}
	switch {
	case envelope.SelectedGroup != nil:
		return envelope.SelectedGroup, nil
	case envelope.Group != nil:
		return envelope.Group, nil
	}

	group := &models.Group{}
	if err := json.Unmarshal(raw, group); err != nil {
		return nil, fmt.Errorf("failed to decode group: %w", err)
	}
	return group, nil
}

// GetGroupExpenses returns a group with its expenses, settlements and
// per-member balances.
func (c *Client) GetGroupExpenses(ctx context.Context, id string) (*models.GroupDetails, error) {
	details := &models.GroupDetails{}
	if err := c.get(ctx, resource("groups", id, "expenses"), nil, details); err != nil {
		return nil, err
	}
	if len(details.Members) == 0 {
		details.Members = details.Group.Members
	}
	return details, nil
}

// CreateGroup creates a group.
func (c *Client) CreateGroup(ctx context.Context, in models.GroupInput) (*models.Group, error) {
	group := &models.Group{}
	if err := c.post(ctx, "/groups", in, group); err != nil {
		return nil, err
	}
	return group, nil
}

// UpdateGroup replaces a group's name, description and members.
func (c *Client) UpdateGroup(ctx context.Context, id string, in models.GroupInput) (*models.Group, error) {
	group := &models.Group{}
	if err := c.put(ctx, resource("groups", id), in, group); err != nil {
		return nil, err
	}
	return group, nil
}

// DeleteGroup deletes a group.
func (c *Client) DeleteGroup(ctx context.Context, id string) error {
	return c.delete(ctx, resource("groups", id))
}

// CreateGroupViaContacts creates a group from contact ids.
func (c *Client) CreateGroupViaContacts(ctx context.Context, in models.GroupInput) (*models.Group, error) {
	group := &models.Group{}
	if err := c.post(ctx, "/contacts/groups", in, group); err != nil {
		return nil, err
	}
	return group, nil
}

// DashboardGroups returns the groups shown on the dashboard and offered in
// the group expense form.
func (c *Client) DashboardGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := c.get(ctx, "/dashboard/groups", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}
