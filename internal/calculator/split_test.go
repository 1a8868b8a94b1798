package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func people(ids ...string) []Participant {
	ps := make([]Participant, len(ids))
	for i, id := range ids {
		ps[i] = Participant{ID: id, Name: id}
	}
	return ps
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name         string
		total        float64
		participants []Participant
		strategy     Strategy
		payer        string
		wantOK       bool
		validateFunc func(t *testing.T, a Allocation)
	}{
		{
			name:         "equal three-way split of 90",
			total:        90,
			participants: people("Alice", "Bob", "Charlie"),
			strategy:     StrategyEqual,
			payer:        "Alice",
			wantOK:       true,
			validateFunc: func(t *testing.T, a Allocation) {
				require.Len(t, a.Lines, 3)
				for _, l := range a.Lines {
					assert.Equal(t, 30.0, l.Amount)
					assert.InDelta(t, 33.333, l.Percentage, 0.001)
				}
				assert.InDelta(t, 90, a.TotalAmount, 1e-9*3)
				assert.True(t, a.AmountValid())
			},
		},
		{
			name:         "percentage default sums to 100",
			total:        80,
			participants: people("Alice", "Bob", "Charlie", "Diana"),
			strategy:     StrategyPercentage,
			payer:        "Bob",
			wantOK:       true,
			validateFunc: func(t *testing.T, a Allocation) {
				assert.Equal(t, 100.0, a.TotalPercentage)
				for _, l := range a.Lines {
					assert.Equal(t, 25.0, l.Percentage)
					assert.Equal(t, 20.0, l.Amount)
				}
				assert.True(t, a.PercentageValid())
				assert.True(t, a.AmountValid())
			},
		},
		{
			name:         "exact default reconciles",
			total:        100,
			participants: people("A", "B", "C"),
			strategy:     StrategyExact,
			payer:        "A",
			wantOK:       true,
			validateFunc: func(t *testing.T, a Allocation) {
				for _, l := range a.Lines {
					assert.Equal(t, 100.0/3, l.Amount)
					assert.InDelta(t, 33.333, l.Percentage, 0.001)
				}
				assert.InDelta(t, 100, a.TotalAmount, Tolerance)
				assert.True(t, a.AmountValid())
			},
		},
		{
			name:         "payer flag and input order",
			total:        10,
			participants: people("Zed", "Amy", "Kim"),
			strategy:     StrategyEqual,
			payer:        "Amy",
			wantOK:       true,
			validateFunc: func(t *testing.T, a Allocation) {
				ids := []string{a.Lines[0].UserID, a.Lines[1].UserID, a.Lines[2].UserID}
				assert.Equal(t, []string{"Zed", "Amy", "Kim"}, ids)
				assert.False(t, a.Lines[0].IsPayer)
				assert.True(t, a.Lines[1].IsPayer)
				assert.False(t, a.Lines[2].IsPayer)
			},
		},
		{
			name:         "participants without id are skipped",
			total:        50,
			participants: []Participant{{ID: "A"}, {Name: "ghost"}, {ID: "B"}},
			strategy:     StrategyEqual,
			wantOK:       true,
			validateFunc: func(t *testing.T, a Allocation) {
				require.Len(t, a.Lines, 2)
				assert.Equal(t, 25.0, a.Lines[0].Amount)
			},
		},
		{
			name:         "zero total produces no result",
			total:        0,
			participants: people("A"),
			strategy:     StrategyEqual,
			wantOK:       false,
		},
		{
			name:         "negative total produces no result",
			total:        -5,
			participants: people("A", "B"),
			strategy:     StrategyExact,
			wantOK:       false,
		},
		{
			name:     "no participants produces no result",
			total:    10,
			strategy: StrategyEqual,
			wantOK:   false,
		},
		{
			name:         "unknown strategy produces no result",
			total:        10,
			participants: people("A"),
			strategy:     Strategy("shares"),
			wantOK:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ok := Initialize(tt.total, tt.participants, tt.strategy, tt.payer)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				assert.Empty(t, a.Lines)
				return
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, a)
			}
		})
	}
}

func TestInitialize_EqualSplitDrift(t *testing.T) {
	for n := 1; n <= 12; n++ {
		ids := make([]string, n)
		for i := range ids {
			ids[i] = string(rune('a' + i))
		}
		a, ok := Initialize(100, people(ids...), StrategyEqual, "a")
		require.True(t, ok)
		for _, l := range a.Lines {
			assert.Equal(t, 100/float64(n), l.Amount)
			assert.Equal(t, 100/float64(n), l.Percentage)
		}
		assert.InDelta(t, 100, a.TotalAmount, 1e-9*float64(n), "n=%d", n)
		assert.True(t, a.AmountValid(), "n=%d", n)
	}
}

func TestUpdateLine_Isolation(t *testing.T) {
	before, ok := Initialize(120, people("A", "B", "C"), StrategyPercentage, "A")
	require.True(t, ok)
	snapshot := append([]Line(nil), before.Lines...)

	after := before.UpdateLine("B", 10)

	// Receiver is untouched.
	assert.Equal(t, snapshot, before.Lines)

	assert.Equal(t, snapshot[0], after.Lines[0])
	assert.Equal(t, snapshot[2], after.Lines[2])
	assert.Equal(t, 10.0, after.Lines[1].Percentage)
	assert.Equal(t, 120*10.0/100, after.Lines[1].Amount)
	assert.Equal(t, after.Total*after.Lines[1].Percentage/100, after.Lines[1].Amount)
	assert.True(t, after.Lines[0].IsPayer)
}

func TestUpdateLine_PercentageValidityDegrades(t *testing.T) {
	a, ok := Initialize(200, people("p1", "p2"), StrategyPercentage, "p1")
	require.True(t, ok)
	require.Equal(t, 50.0, a.Lines[1].Percentage)

	a = a.UpdateLine("p1", 70)

	assert.Equal(t, 120.0, a.TotalPercentage)
	assert.False(t, a.PercentageValid())
	assert.Equal(t, 140.0, a.Lines[0].Amount)
	assert.Equal(t, 240.0, a.TotalAmount)
	assert.False(t, a.AmountValid())
}

func TestUpdateLine_NoClamping(t *testing.T) {
	a, _ := Initialize(100, people("A", "B"), StrategyPercentage, "A")

	a = a.UpdateLine("A", -20).UpdateLine("B", 150)

	assert.Equal(t, -20.0, a.Lines[0].Percentage)
	assert.Equal(t, -20.0, a.Lines[0].Amount)
	assert.Equal(t, 150.0, a.Lines[1].Amount)
	assert.Equal(t, 130.0, a.TotalPercentage)
}

func TestUpdateLine_ExactScenario(t *testing.T) {
	a, ok := Initialize(100.00, people("A", "B", "C"), StrategyExact, "A")
	require.True(t, ok)
	assert.True(t, a.AmountValid())

	a = a.UpdateLine("A", 40)
	assert.False(t, a.AmountValid())
	a = a.UpdateLine("B", 35)
	a = a.UpdateLine("C", 25)

	assert.Equal(t, 100.0, a.TotalAmount)
	assert.True(t, a.AmountValid())
	assert.NoError(t, a.Reconcile())
	assert.Equal(t, 40.0, a.Lines[0].Percentage)
	assert.Equal(t, 35.0, a.Lines[1].Percentage)
	assert.Equal(t, 25.0, a.Lines[2].Percentage)
}

func TestUpdateLine_EqualIsReadOnly(t *testing.T) {
	a, _ := Initialize(60, people("A", "B"), StrategyEqual, "A")

	b := a.UpdateLine("A", 59)

	assert.Equal(t, a, b)
}

func TestUpdateLine_UnknownUser(t *testing.T) {
	a, _ := Initialize(60, people("A", "B"), StrategyExact, "A")

	b := a.UpdateLine("nobody", 1000)

	assert.Equal(t, a.Lines, b.Lines)
	assert.Equal(t, a.TotalAmount, b.TotalAmount)
}

func TestUpdateLineInput_Coercion(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"12.5", 12.5},
		{" 7 ", 7},
		{"3,25", 3.25},
		{"", 0},
		{"abc", 0},
		{"12abc", 0},
		{"NaN", 0},
		{"1e400", 0},
		{"-4", -4},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			a, _ := Initialize(50, people("A", "B"), StrategyExact, "A")
			a = a.UpdateLineInput("A", tt.raw)
			assert.Equal(t, tt.want, a.Lines[0].Amount)
			assert.Equal(t, tt.want/50*100, a.Lines[0].Percentage)
			assert.Equal(t, tt.want+25, a.TotalAmount)
		})
	}
}

func TestShares(t *testing.T) {
	a, _ := Initialize(30, people("A", "B", "C"), StrategyEqual, "B")

	shares := a.Shares()

	assert.Equal(t, []Share{
		{UserID: "A", Amount: 10, Paid: false},
		{UserID: "B", Amount: 10, Paid: true},
		{UserID: "C", Amount: 10, Paid: false},
	}, shares)
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []string{"equal", "Percentage", " EXACT "} {
		_, err := ParseStrategy(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseStrategy("shares")
	assert.Error(t, err)
}

func TestValidateParticipants(t *testing.T) {
	assert.NoError(t, ValidateParticipants(people("A", "B", "C")))
	assert.NoError(t, ValidateParticipants([]Participant{{ID: "A"}, {Name: "x"}, {Name: "y"}}), "blank ids are skipped")
	assert.NoError(t, ValidateParticipants(nil))

	err := ValidateParticipants([]Participant{{ID: "A"}, {ID: "B", Name: "Bob"}, {ID: "B", Name: "Bob again"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateParticipant)
	var dup *DuplicateParticipantError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Bob again", dup.Participant.Name)
}
