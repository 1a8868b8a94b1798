package models

import (
	"encoding/json"
	"time"
)

// SplitType names how an expense is divided among participants.
type SplitType string

const (
	SplitEqual      SplitType = "equal"
	SplitPercentage SplitType = "percentage"
	SplitExact      SplitType = "exact"
)

// Expense represents an amount paid by one user and split among participants.
type Expense struct {
	// ID is the unique identifier for the expense.
	ID string `json:"id"`

	// Description is the human-readable name (e.g., "Lunch", "Movie tickets").
	Description string `json:"description"`

	// Amount is the total paid.
	Amount float64 `json:"amount"`

	// Category is a category id; "other" when unset.
	Category string `json:"category"`

	// Date is when the expense happened.
	Date time.Time `json:"date"`

	// PaidByUserID is the user who paid the full amount upfront.
	PaidByUserID string `json:"paidByUserId"`

	// CreatedBy is the user who recorded the expense.
	CreatedBy string `json:"createdBy,omitempty"`

	// SplitType is the strategy used to compute Splits.
	SplitType SplitType `json:"splitType"`

	// Splits are the per-participant shares, in participant order.
	Splits []ExpenseSplit `json:"splits"`

	// GroupID is set for group expenses.
	GroupID string `json:"groupId,omitempty"`
}

// UnmarshalJSON accepts both "id" and "_id".
func (e *Expense) UnmarshalJSON(data []byte) error {
	type plain Expense
	var raw struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Expense(raw.plain)
	if e.ID == "" {
		e.ID = raw.MongoID
	}
	return nil
}

// ExpenseSplit is one participant's share of an expense.
type ExpenseSplit struct {
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"`

	// Paid is true iff this participant is the payer.
	Paid bool `json:"paid"`
}

// CreateExpenseRequest is the payload sent to create an expense.
type CreateExpenseRequest struct {
	Description  string         `json:"description"`
	Amount       float64        `json:"amount"`
	Category     string         `json:"category"`
	Date         time.Time      `json:"date"`
	PaidByUserID string         `json:"paidByUserId"`
	SplitType    SplitType      `json:"splitType"`
	Splits       []ExpenseSplit `json:"splits"`
	GroupID      string         `json:"groupId,omitempty"`
}
