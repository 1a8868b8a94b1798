package calculator

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnreconciled is matched by every *ReconciliationError.
var ErrUnreconciled = errors.New("split amounts don't add up to the total")

// ReconciliationError reports a split whose amounts miss the total by at
// least Tolerance.
type ReconciliationError struct {
	Total     float64
	Allocated float64
}

// Difference is allocated minus total.
func (e *ReconciliationError) Difference() float64 {
	return e.Allocated - e.Total
}

func (e *ReconciliationError) Error() string {
	diff := e.Difference()
	direction := "over"
	if diff < 0 {
		direction = "under"
	}
	return fmt.Sprintf("%s: splits sum to %s but the total is %s (%s by %s)",
		ErrUnreconciled, FormatMoney(e.Allocated), FormatMoney(e.Total), direction, FormatMoney(math.Abs(diff)))
}

func (e *ReconciliationError) Unwrap() error {
	return ErrUnreconciled
}

// Reconcile returns a *ReconciliationError unless the amounts add up to Total.
func (a Allocation) Reconcile() error {
	if a.AmountValid() {
		return nil
	}
	return &ReconciliationError{Total: a.Total, Allocated: a.TotalAmount}
}

// ReconcileShares re-checks submitted shares against the total independently
// of how they were produced.
func ReconcileShares(total float64, shares []Share) error {
	var allocated float64
	for _, s := range shares {
		allocated += s.Amount
	}
	if math.Abs(allocated-total) < Tolerance {
		return nil
	}
	return &ReconciliationError{Total: total, Allocated: allocated}
}
