package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mmynk/evenly/internal/calculator"
)

// assignment is one "-set id=value" flag.
type assignment struct {
	UserID string
	Value  string
}

// assignments collects repeated -set flags.
type assignments []assignment

func (s *assignments) String() string {
	parts := make([]string, len(*s))
	for i, a := range *s {
		parts[i] = a.UserID + "=" + a.Value
	}
	return strings.Join(parts, ",")
}

func (s *assignments) Set(raw string) error {
	id, value, ok := strings.Cut(raw, "=")
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		return fmt.Errorf("expected id=value, got %q", raw)
	}
	*s = append(*s, assignment{UserID: id, Value: strings.TrimSpace(value)})
	return nil
}

// splitList parses a comma separated list, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// previewSplit runs the inputs through the recompute pipeline the way the
// expense form does and applies the line edits last.
func previewSplit(total string, strategy calculator.Strategy, participants []calculator.Participant, payerID string, edits assignments) (calculator.State, error) {
	amount, err := calculator.ParseAmount(total)
	if err != nil {
		return calculator.State{}, err
	}

	state := calculator.NewState(strategy)
	state = calculator.Recompute(state, calculator.ParticipantsChanged(participants))
	state = calculator.Recompute(state, calculator.PayerChanged(payerID))
	state = calculator.Recompute(state, calculator.TotalChanged(amount))
	if !state.Ready() {
		return state, fmt.Errorf("nothing to split: need a positive total and at least one participant")
	}

	if len(edits) > 0 && strategy == calculator.StrategyEqual {
		return state, fmt.Errorf("equal splits cannot be edited; use -strategy percentage or exact")
	}
	for _, e := range edits {
		if _, ok := state.Allocation.Line(e.UserID); !ok {
			return state, fmt.Errorf("%s is not a participant", e.UserID)
		}
		state = calculator.Recompute(state, calculator.LineEdited(e.UserID, e.Value))
	}
	return state, nil
}

// writeAllocation prints the allocation table followed by its totals and the
// validity checks for the strategy.
func writeAllocation(w io.Writer, a calculator.Allocation) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PARTICIPANT\tAMOUNT\tPERCENT\t")
	for _, l := range a.Lines {
		name := l.Name
		if name == "" {
			name = l.UserID
		}
		payer := ""
		if l.IsPayer {
			payer = "paid"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s%%\t%s\n", name, calculator.FormatMoney(l.Amount), calculator.FormatPercent(l.Percentage), payer)
	}
	fmt.Fprintf(tw, "TOTAL\t%s\t%s%%\t\n", calculator.FormatMoney(a.TotalAmount), calculator.FormatPercent(a.TotalPercentage))
	if err := tw.Flush(); err != nil {
		return err
	}

	if a.Strategy == calculator.StrategyPercentage && !a.PercentageValid() {
		fmt.Fprintf(w, "Percentages add up to %s%%, not 100%%\n", calculator.FormatPercent(a.TotalPercentage))
	}
	if err := a.Reconcile(); err != nil {
		fmt.Fprintf(w, "Warning: %v\n", err)
	}
	return nil
}
