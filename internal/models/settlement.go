package models

import (
	"encoding/json"
	"time"
)

// Settlement represents a payment between two users to clear debts.
type Settlement struct {
	// ID is the unique identifier for the settlement.
	ID string `json:"id"`

	// PaidByUserID is the user who paid (debtor settling up).
	PaidByUserID string `json:"paidByUserId"`

	// ReceivedByUserID is the user who received payment (creditor being paid).
	ReceivedByUserID string `json:"receivedByUserId"`

	// Amount is the payment amount.
	Amount float64 `json:"amount"`

	// Date is when the payment happened.
	Date time.Time `json:"date"`

	// Note is an optional description for the settlement.
	Note string `json:"note,omitempty"`

	// GroupID is set when the settlement belongs to a group.
	GroupID string `json:"groupId,omitempty"`
}

// UnmarshalJSON accepts both "id" and "_id".
func (s *Settlement) UnmarshalJSON(data []byte) error {
	type plain Settlement
	var raw struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Settlement(raw.plain)
	if s.ID == "" {
		s.ID = raw.MongoID
	}
	return nil
}

// SettlementInput is the payload for recording a settlement.
type SettlementInput struct {
	Amount           float64 `json:"amount"`
	Note             string  `json:"note,omitempty"`
	PaidByUserID     string  `json:"paidByUserId"`
	ReceivedByUserID string  `json:"receivedByUserId"`
	GroupID          string  `json:"groupId,omitempty"`
}

// SettlementData is what the API returns for a settle-up screen: the
// counterpart (a user or a group) and the outstanding balance.
type SettlementData struct {
	Type        string          `json:"type"`
	Counterpart *User           `json:"counterpart,omitempty"`
	Group       *Group          `json:"group,omitempty"`
	NetBalance  float64         `json:"netBalance"`
	Balances    []MemberBalance `json:"balances,omitempty"`
	UserLookup  map[string]User `json:"userLookupMap,omitempty"`
}
