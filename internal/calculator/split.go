package calculator

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Tolerance is the absolute slack allowed when checking a split against its total.
const Tolerance = 0.01

// Strategy is the method used to divide a total among participants.
type Strategy string

const (
	// StrategyEqual gives every participant the same share. Lines are derived.
	StrategyEqual Strategy = "equal"
	// StrategyPercentage lets the user set each participant's share of 100.
	StrategyPercentage Strategy = "percentage"
	// StrategyExact lets the user set each participant's amount.
	StrategyExact Strategy = "exact"
)

// ParseStrategy maps a wire name ("equal", "percentage", "exact") to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyEqual:
		return StrategyEqual, nil
	case StrategyPercentage:
		return StrategyPercentage, nil
	case StrategyExact:
		return StrategyExact, nil
	}
	return "", fmt.Errorf("unknown split strategy %q", s)
}

// Participant is one person taking part in a split.
type Participant struct {
	ID       string
	Name     string
	Email    string
	ImageURL string
}

// ErrDuplicateParticipant is matched by every *DuplicateParticipantError.
var ErrDuplicateParticipant = errors.New("participant listed more than once")

// DuplicateParticipantError names the first participant whose ID repeats.
type DuplicateParticipantError struct {
	Participant Participant
}

func (e *DuplicateParticipantError) Error() string {
	return fmt.Sprintf("participant %s listed more than once", e.Participant.ID)
}

func (e *DuplicateParticipantError) Unwrap() error {
	return ErrDuplicateParticipant
}

// ValidateParticipants reports a participant listed more than once.
// Participants without an ID are ignored, as Initialize skips them.
func ValidateParticipants(participants []Participant) error {
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if p.ID == "" {
			continue
		}
		if seen[p.ID] {
			return &DuplicateParticipantError{Participant: p}
		}
		seen[p.ID] = true
	}
	return nil
}

// Line is one participant's allocated amount and percentage.
type Line struct {
	UserID     string
	Name       string
	Amount     float64
	Percentage float64
	IsPayer    bool
}

// Allocation is the per-participant result of splitting Total.
// Lines follow participant order.
type Allocation struct {
	Total    float64
	Strategy Strategy
	PayerID  string
	Lines    []Line

	// TotalAmount is the sum of every line's Amount.
	TotalAmount float64
	// TotalPercentage is the sum of every line's Percentage.
	TotalPercentage float64
}

// Share is the submission projection of a line.
type Share struct {
	UserID string
	Amount float64
	Paid   bool
}

// Initialize computes the default allocation for a strategy.
//
// Equal:      amount = total/N, percentage = 100/N
// Percentage: percentage = 100/N, amount = total × percentage/100
// Exact:      amount = total/N, percentage = amount/total × 100
//
// Participants without an ID are skipped. ok is false when total <= 0, no
// participant is left or the strategy is unknown; callers must not offer a
// split in that case. Equal-split rounding drift is not redistributed.
func Initialize(total float64, participants []Participant, strategy Strategy, payerID string) (alloc Allocation, ok bool) {
	valid := make([]Participant, 0, len(participants))
	for _, p := range participants {
		if p.ID != "" {
			valid = append(valid, p)
		}
	}
	if total <= 0 || len(valid) == 0 {
		return Allocation{}, false
	}

	n := float64(len(valid))
	lines := make([]Line, len(valid))
	for i, p := range valid {
		line := Line{
			UserID:  p.ID,
			Name:    p.Name,
			IsPayer: p.ID == payerID,
		}
		switch strategy {
		case StrategyEqual:
			line.Amount = total / n
			line.Percentage = 100 / n
		case StrategyPercentage:
			line.Percentage = 100 / n
			line.Amount = total * line.Percentage / 100
		case StrategyExact:
			line.Amount = total / n
			line.Percentage = percentOf(line.Amount, total)
		default:
			return Allocation{}, false
		}
		lines[i] = line
	}

	alloc = Allocation{
		Total:    total,
		Strategy: strategy,
		PayerID:  payerID,
		Lines:    lines,
	}
	alloc.sum()
	return alloc, true
}

// UpdateLine sets one participant's value and returns the new allocation.
//
// For StrategyPercentage value is the percentage; for StrategyExact it is the
// amount. No clamping is applied and the other lines are left untouched, so an
// edit shows up in the aggregates rather than being rebalanced. Equal splits
// have no editable lines and are returned unchanged.
func (a Allocation) UpdateLine(userID string, value float64) Allocation {
	if a.Strategy != StrategyPercentage && a.Strategy != StrategyExact {
		return a
	}

	lines := make([]Line, len(a.Lines))
	copy(lines, a.Lines)
	for i := range lines {
		if lines[i].UserID != userID {
			continue
		}
		if a.Strategy == StrategyPercentage {
			lines[i].Percentage = value
			lines[i].Amount = a.Total * value / 100
		} else {
			lines[i].Amount = value
			lines[i].Percentage = percentOf(value, a.Total)
		}
	}

	a.Lines = lines
	a.sum()
	return a
}

// UpdateLineInput is UpdateLine for raw form input. Non-numeric input counts as 0.
func (a Allocation) UpdateLineInput(userID, raw string) Allocation {
	return a.UpdateLine(userID, ParseInput(raw))
}

// Line returns the line for userID.
func (a Allocation) Line(userID string) (Line, bool) {
	for _, l := range a.Lines {
		if l.UserID == userID {
			return l, true
		}
	}
	return Line{}, false
}

// PercentageValid reports whether the percentages add up to 100.
// Only meaningful for StrategyPercentage.
func (a Allocation) PercentageValid() bool {
	return math.Abs(a.TotalPercentage-100) < Tolerance
}

// AmountValid reports whether the amounts add up to Total.
func (a Allocation) AmountValid() bool {
	return math.Abs(a.TotalAmount-a.Total) < Tolerance
}

// Discrepancy is allocated minus total; positive means over-allocated.
func (a Allocation) Discrepancy() float64 {
	return a.TotalAmount - a.Total
}

// Shares projects the lines to {userId, amount, paid}.
func (a Allocation) Shares() []Share {
	shares := make([]Share, len(a.Lines))
	for i, l := range a.Lines {
		shares[i] = Share{UserID: l.UserID, Amount: l.Amount, Paid: l.IsPayer}
	}
	return shares
}

// ParseInput converts a raw numeric field to a float. Anything that is not a
// finite number, including the empty string, yields 0. Decimal commas are
// accepted.
func ParseInput(raw string) float64 {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) {
		return 0
	}
	return f
}

func (a *Allocation) sum() {
	a.TotalAmount = 0
	a.TotalPercentage = 0
	for _, l := range a.Lines {
		a.TotalAmount += l.Amount
		a.TotalPercentage += l.Percentage
	}
}

func percentOf(amount, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return (amount / total) * 100
}
