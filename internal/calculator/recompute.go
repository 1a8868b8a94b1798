package calculator

// Field names the input that changed in a Change.
type Field int

const (
	FieldTotal Field = iota
	FieldParticipants
	FieldStrategy
	FieldPayer
	// FieldLine is a single-line edit of a percentage or exact amount.
	FieldLine
)

func (f Field) String() string {
	switch f {
	case FieldTotal:
		return "total"
	case FieldParticipants:
		return "participants"
	case FieldStrategy:
		return "strategy"
	case FieldPayer:
		return "payer"
	case FieldLine:
		return "line"
	default:
		return "unknown"
	}
}

// Change is one input mutation fed to Recompute. Only the members relevant to
// Field are read.
type Change struct {
	Field        Field
	Total        float64
	Participants []Participant
	Strategy     Strategy
	PayerID      string

	// UserID and Value describe a FieldLine edit. Value is raw form input.
	UserID string
	Value  string
}

func TotalChanged(total float64) Change {
	return Change{Field: FieldTotal, Total: total}
}

func ParticipantsChanged(participants []Participant) Change {
	return Change{Field: FieldParticipants, Participants: participants}
}

func StrategyChanged(strategy Strategy) Change {
	return Change{Field: FieldStrategy, Strategy: strategy}
}

func PayerChanged(payerID string) Change {
	return Change{Field: FieldPayer, PayerID: payerID}
}

func LineEdited(userID, value string) Change {
	return Change{Field: FieldLine, UserID: userID, Value: value}
}

// State is the split inputs together with the allocation derived from them.
// The zero value has no strategy; NewState sets one.
type State struct {
	Total        float64
	Participants []Participant
	Strategy     Strategy
	PayerID      string

	Allocation Allocation
	ready      bool
}

// NewState returns an empty state for a strategy.
func NewState(strategy Strategy) State {
	return State{Strategy: strategy}
}

// Ready reports whether the inputs produced an allocation.
func (s State) Ready() bool {
	return s.ready
}

// Recompute applies one change and returns the next state; prev is not
// modified.
//
// A change to the total, participants, strategy or payer re-initializes the
// allocation and discards any per-line edits. A line edit touches only that
// line. When the inputs are not allocatable (total <= 0, nobody left) the next
// state carries no allocation.
func Recompute(prev State, change Change) State {
	next := prev
	switch change.Field {
	case FieldTotal:
		next.Total = change.Total
	case FieldParticipants:
		next.Participants = append([]Participant(nil), change.Participants...)
	case FieldStrategy:
		next.Strategy = change.Strategy
	case FieldPayer:
		next.PayerID = change.PayerID
	case FieldLine:
		if prev.ready {
			next.Allocation = prev.Allocation.UpdateLineInput(change.UserID, change.Value)
		}
		return next
	default:
		return prev
	}

	next.Allocation, next.ready = Initialize(next.Total, next.Participants, next.Strategy, next.PayerID)
	return next
}
