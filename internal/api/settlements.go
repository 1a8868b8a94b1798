package api

import (
	"context"
	"net/url"

	"github.com/mmynk/evenly/internal/models"
)

// ListSettlements returns the signed-in user's settlements.
func (c *Client) ListSettlements(ctx context.Context) ([]models.Settlement, error) {
	var settlements []models.Settlement
	if err := c.get(ctx, "/settlements", nil, &settlements); err != nil {
		return nil, err
	}
	return settlements, nil
}

// CreateSettlement records a payment between two users.
func (c *Client) CreateSettlement(ctx context.Context, in models.SettlementInput) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	if err := c.post(ctx, "/settlements", in, settlement); err != nil {
		return nil, err
	}
	return settlement, nil
}

// UpdateSettlement replaces a settlement.
func (c *Client) UpdateSettlement(ctx context.Context, id string, in models.SettlementInput) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	if err := c.put(ctx, resource("settlements", id), in, settlement); err != nil {
		return nil, err
	}
	return settlement, nil
}

// DeleteSettlement deletes a settlement.
func (c *Client) DeleteSettlement(ctx context.Context, id string) error {
	return c.delete(ctx, resource("settlements", id))
}

// SettlementData returns what is needed to settle with a user or a group.
// entityType is "user" or "group".
func (c *Client) SettlementData(ctx context.Context, entityType, entityID string) (*models.SettlementData, error) {
	query := url.Values{"entityType": {entityType}, "entityId": {entityID}}
	data := &models.SettlementData{}
	if err := c.get(ctx, "/settlements/data", query, data); err != nil {
		return nil, err
	}
	return data, nil
}
