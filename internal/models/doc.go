// Package models defines the wire models exchanged with the Evenly API.
//
// # Models
//
//   - User: an account, also used for contacts and group members
//   - Group: a named set of members that share expenses
//   - Expense: an amount paid by one user and split across participants
//   - Settlement: a payment between two users that clears debt
//   - Balances: the current user's owe / owed summary
//
// # Identifiers
//
// The API is not consistent about identifiers: documents arrive with either
// "id" or "_id". Every model that carries an id normalizes both keys into ID
// on decode, so callers never look at the raw field.
//
// # Amounts
//
// Amounts are float64 in the API's currency. Splits are validated against the
// expense total with a 0.01 tolerance before they are sent (see
// internal/calculator).
package models
