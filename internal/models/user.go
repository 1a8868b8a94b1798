package models

import "encoding/json"

// User represents a registered user account as returned by the API.
// Contacts and group members share this shape.
type User struct {
	// ID is the user's identifier. Populated from "id" or "_id".
	ID string `json:"id"`

	// Name is the display name of the user.
	Name string `json:"name"`

	// Email is the user's email address (unique).
	Email string `json:"email,omitempty"`

	// ImageURL is an optional avatar reference.
	ImageURL string `json:"imageUrl,omitempty"`

	// AIConsent records whether the user opted into insight emails.
	AIConsent bool `json:"aiConsent,omitempty"`
}

// UnmarshalJSON accepts both "id" and "_id".
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var raw struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User(raw.plain)
	if u.ID == "" {
		u.ID = raw.MongoID
	}
	return nil
}
