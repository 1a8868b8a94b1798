package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/mmynk/evenly/internal/models"
)

// IdempotencyHeader carries the per-submission key on expense creation.
const IdempotencyHeader = "Idempotency-Key"

// ListExpenses returns the signed-in user's expenses.
func (c *Client) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	var expenses []models.Expense
	if err := c.get(ctx, "/expenses", nil, &expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// GetExpense fetches one expense.
func (c *Client) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	expense := &models.Expense{}
	if err := c.get(ctx, resource("expenses", id), nil, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// CreateExpense submits an expense. key deduplicates retries of the same
// submission; an empty key gets a fresh one.
func (c *Client) CreateExpense(ctx context.Context, in models.CreateExpenseRequest, key string) (*models.Expense, error) {
	if key == "" {
		key = uuid.NewString()
	}
	expense := &models.Expense{}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/expenses",
		body:   in,
		header: http.Header{IdempotencyHeader: []string{key}},
	}, expense)
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// UpdateExpense replaces an expense.
func (c *Client) UpdateExpense(ctx context.Context, id string, in models.CreateExpenseRequest) (*models.Expense, error) {
	expense := &models.Expense{}
	if err := c.put(ctx, resource("expenses", id), in, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// DeleteExpense deletes an expense.
func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	return c.delete(ctx, resource("expenses", id))
}
