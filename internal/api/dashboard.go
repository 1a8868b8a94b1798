package api

import (
	"context"

	"github.com/mmynk/evenly/internal/models"
)

// Balances returns the signed-in user's overall balance and who owes whom.
func (c *Client) Balances(ctx context.Context) (*models.Balances, error) {
	balances := &models.Balances{}
	if err := c.get(ctx, "/dashboard/balances", nil, balances); err != nil {
		return nil, err
	}
	return balances, nil
}

// TotalSpent returns the user's total spend for the current year.
func (c *Client) TotalSpent(ctx context.Context) (float64, error) {
	var total float64
	if err := c.get(ctx, "/dashboard/total-spent", nil, &total); err != nil {
		return 0, err
	}
	return total, nil
}

// MonthlySpending returns spend per month of the current year.
func (c *Client) MonthlySpending(ctx context.Context) ([]models.MonthlySpending, error) {
	var months []models.MonthlySpending
	if err := c.get(ctx, "/dashboard/monthly-spending", nil, &months); err != nil {
		return nil, err
	}
	return months, nil
}

// SendInsightsNow asks the API to email the user's spending insights now.
func (c *Client) SendInsightsNow(ctx context.Context) error {
	return c.post(ctx, "/dashboard/send-insights", nil, nil)
}

// SendRemindersNow asks the API to email the user's payment reminders now.
func (c *Client) SendRemindersNow(ctx context.Context) error {
	return c.post(ctx, "/dashboard/send-reminders", nil, nil)
}
