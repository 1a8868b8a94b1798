package calculator

import (
	"math"
	"sort"

	"github.com/mmynk/evenly/internal/models"
)

// Balance status lines shown next to the net balance.
const (
	StatusOwed    = "You are owed money"
	StatusOwes    = "You owe money"
	StatusSettled = "All settled up!"
)

// BalanceSummary is the dashboard view of the current user's balances.
type BalanceSummary struct {
	YouAreOwed float64
	YouOwe     float64
	Net        float64 // Positive = owed money, Negative = owes money
	Status     string
}

// SummarizeBalances totals the per-counterpart details. When the API sent no
// details the server-side totals are used as they are.
func SummarizeBalances(b models.Balances) BalanceSummary {
	summary := BalanceSummary{
		YouAreOwed: b.YouAreOwed,
		YouOwe:     b.YouOwe,
		Net:        b.TotalBalance,
	}

	if len(b.OweDetails.YouAreOwedBy) > 0 || len(b.OweDetails.YouOwe) > 0 {
		summary.YouAreOwed = 0
		summary.YouOwe = 0
		for _, c := range b.OweDetails.YouAreOwedBy {
			summary.YouAreOwed += c.Amount
		}
		for _, c := range b.OweDetails.YouOwe {
			summary.YouOwe += c.Amount
		}
		summary.Net = summary.YouAreOwed - summary.YouOwe
	}

	// Anything that would print as 0.00 counts as settled.
	switch {
	case math.Abs(summary.Net) < Tolerance/2:
		summary.Status = StatusSettled
	case summary.Net > 0:
		summary.Status = StatusOwed
	default:
		summary.Status = StatusOwes
	}
	return summary
}

// ExpenseShare is one user's position in a single expense.
type ExpenseShare struct {
	Involved bool    // user has a split line or paid
	Paid     bool    // user paid the expense
	Own      float64 // user's own split amount
	Lent     float64 // paid minus own share, when Paid
	Borrowed float64 // own share, when someone else paid
}

// ExpenseShareFor computes what userID lent or borrowed in e.
func ExpenseShareFor(e models.Expense, userID string) ExpenseShare {
	var share ExpenseShare
	for _, s := range e.Splits {
		if s.UserID == userID {
			share.Own += s.Amount
			share.Involved = true
		}
	}

	if e.PaidByUserID == userID {
		share.Paid = true
		share.Involved = true
		share.Lent = e.Amount - share.Own
		return share
	}
	share.Borrowed = share.Own
	return share
}

// DebtEdge represents a debt from one person to another.
type DebtEdge struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount float64
}

// SuggestSettlements turns net balances into a short list of payments that
// clears them.
//
// Algorithm:
// - Split members into creditors (net > 0) and debtors (net < 0)
// - Sort both by size, largest first (ties by user id for stable output)
// - Greedily match the head debtor with the head creditor for the smaller amount
// - Residues at or below Tolerance are treated as settled
func SuggestSettlements(balances []models.MemberBalance) []DebtEdge {
	type position struct {
		id     string
		amount float64
	}

	var creditors, debtors []position
	for _, b := range balances {
		if b.NetBalance > Tolerance {
			creditors = append(creditors, position{id: b.UserID, amount: b.NetBalance})
		} else if b.NetBalance < -Tolerance {
			debtors = append(debtors, position{id: b.UserID, amount: -b.NetBalance}) // Make positive
		}
	}

	bySize := func(list []position) func(i, j int) bool {
		return func(i, j int) bool {
			if list[i].amount != list[j].amount {
				return list[i].amount > list[j].amount
			}
			return list[i].id < list[j].id
		}
	}
	sort.Slice(creditors, bySize(creditors))
	sort.Slice(debtors, bySize(debtors))

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		// Amount to settle is minimum of what debtor owes and creditor is owed
		amount := math.Min(debtors[i].amount, creditors[j].amount)
		if amount > Tolerance { // Avoid floating point noise
			edges = append(edges, DebtEdge{
				From:   debtors[i].id,
				To:     creditors[j].id,
				Amount: amount,
			})
		}

		debtors[i].amount -= amount
		creditors[j].amount -= amount

		// Move to next debtor/creditor if fully settled
		if debtors[i].amount <= Tolerance {
			i++
		}
		if creditors[j].amount <= Tolerance {
			j++
		}
	}

	return edges
}
