package models

import "encoding/json"

// Group represents a reusable participant list.
// Expenses created against a group split among its members.
type Group struct {
	// ID is the unique identifier for the group.
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Roommates", "Work Lunch").
	Name string `json:"name"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// Members are the users in this group, in display order.
	Members []User `json:"members"`

	// CreatedBy is the user ID of the group's creator.
	CreatedBy string `json:"createdBy,omitempty"`
}

// UnmarshalJSON accepts both "id" and "_id".
func (g *Group) UnmarshalJSON(data []byte) error {
	type plain Group
	var raw struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*g = Group(raw.plain)
	if g.ID == "" {
		g.ID = raw.MongoID
	}
	return nil
}

// GroupInput is the payload for creating or updating a group.
type GroupInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Members     []string `json:"members"`
}

// MemberBalance is one member's net position inside a group.
// Positive = owed money, negative = owes money.
type MemberBalance struct {
	UserID     string  `json:"userId"`
	Name       string  `json:"name,omitempty"`
	NetBalance float64 `json:"netBalance"`
}

// GroupDetails is the expanded group view: the group plus its ledger.
type GroupDetails struct {
	Group       Group           `json:"group"`
	Members     []User          `json:"members"`
	Expenses    []Expense       `json:"expenses"`
	Settlements []Settlement    `json:"settlements"`
	Balances    []MemberBalance `json:"balances"`
	UserLookup  map[string]User `json:"userLookupMap,omitempty"`
}

// Contacts is the signed-in user's address book: people they share expenses
// with and the groups they belong to.
type Contacts struct {
	Users  []User  `json:"users"`
	Groups []Group `json:"groups"`
}
