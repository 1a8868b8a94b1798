package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/evenly/internal/calculator"
	"github.com/mmynk/evenly/internal/models"
)

// DefaultCategory is used when the form leaves the category empty.
const DefaultCategory = "other"

// ExpenseKind says whether an expense is between individuals or in a group.
type ExpenseKind int

const (
	KindIndividual ExpenseKind = iota
	KindGroup
)

func (k ExpenseKind) String() string {
	if k == KindGroup {
		return "group"
	}
	return "individual"
}

// FieldError is one invalid form field.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// FormErrors holds every problem found in a form, in field order.
type FormErrors struct {
	Errors []FieldError
}

func (e *FormErrors) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return "invalid expense: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the per-field causes to errors.Is.
func (e *FormErrors) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, fe := range e.Errors {
		if fe.Err != nil {
			errs = append(errs, fe.Err)
		}
	}
	return errs
}

// Field returns the message for field, or "".
func (e *FormErrors) Field(field string) string {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

func (e *FormErrors) add(field, message string, err error) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message, Err: err})
}

var (
	ErrDescriptionRequired = errors.New("description is required")
	ErrPayerRequired       = errors.New("payer is required")
	ErrPayerNotParticipant = errors.New("payer must be one of the participants")
	ErrInvalidSplitType    = errors.New("split type must be equal, percentage or exact")
	ErrNoParticipants      = errors.New("at least one participant is required")
	ErrDuplicateMember     = calculator.ErrDuplicateParticipant
	ErrGroupRequired       = errors.New("a group must be selected")
)

// ExpenseForm is the state of the add-expense form. Every setter that changes
// a split input recomputes the allocation.
type ExpenseForm struct {
	Kind        ExpenseKind
	Description string
	Category    string
	Date        time.Time

	amount      string
	groupID     string
	currentUser *models.User
	split       calculator.State
}

// NewExpenseForm returns an empty form paid by the current user. An
// individual form starts with the current user as the only participant; a
// group form has none until a group is selected.
func NewExpenseForm(kind ExpenseKind, currentUser *models.User) *ExpenseForm {
	f := &ExpenseForm{Kind: kind, currentUser: currentUser}
	f.Reset()
	return f
}

// Reset clears the form back to its defaults.
func (f *ExpenseForm) Reset() {
	f.Description = ""
	f.Category = ""
	f.Date = time.Now()
	f.amount = ""
	f.groupID = ""
	f.split = calculator.NewState(calculator.StrategyEqual)

	if f.currentUser == nil {
		return
	}
	if f.Kind == KindIndividual {
		f.SetParticipants([]models.User{*f.currentUser})
	}
	f.SetPayer(f.currentUser.ID)
}

// SetAmount sets the raw amount field.
func (f *ExpenseForm) SetAmount(raw string) {
	f.amount = raw
	f.split = calculator.Recompute(f.split, calculator.TotalChanged(calculator.ParseInput(raw)))
}

// Amount returns the raw amount field.
func (f *ExpenseForm) Amount() string {
	return f.amount
}

// SetParticipants replaces who the expense is split between.
func (f *ExpenseForm) SetParticipants(users []models.User) {
	participants := make([]calculator.Participant, len(users))
	for i, u := range users {
		participants[i] = calculator.Participant{ID: u.ID, Name: u.Name, Email: u.Email, ImageURL: u.ImageURL}
	}
	f.split = calculator.Recompute(f.split, calculator.ParticipantsChanged(participants))
}

// AddParticipant appends u unless a participant with the same id exists.
func (f *ExpenseForm) AddParticipant(u models.User) {
	for _, p := range f.split.Participants {
		if p.ID == u.ID {
			return
		}
	}
	f.SetParticipants(append(f.users(), u))
}

// RemoveParticipant drops the participant with id userID.
func (f *ExpenseForm) RemoveParticipant(userID string) {
	users := f.users()
	kept := users[:0]
	for _, u := range users {
		if u.ID != userID {
			kept = append(kept, u)
		}
	}
	f.SetParticipants(kept)
}

// Participants returns the current participants.
func (f *ExpenseForm) Participants() []calculator.Participant {
	return append([]calculator.Participant(nil), f.split.Participants...)
}

// SetGroup selects the group an expense belongs to; its members become the
// participants.
func (f *ExpenseForm) SetGroup(g models.Group) {
	f.groupID = g.ID
	f.SetParticipants(g.Members)
}

// GroupID returns the selected group id.
func (f *ExpenseForm) GroupID() string {
	return f.groupID
}

// SetPayer sets who paid.
func (f *ExpenseForm) SetPayer(userID string) {
	f.split = calculator.Recompute(f.split, calculator.PayerChanged(userID))
}

// Payer returns who paid.
func (f *ExpenseForm) Payer() string {
	return f.split.PayerID
}

// SetSplitType changes the split strategy. Per-line edits are discarded.
func (f *ExpenseForm) SetSplitType(t models.SplitType) {
	f.split = calculator.Recompute(f.split, calculator.StrategyChanged(calculator.Strategy(t)))
}

// SplitType returns the selected split strategy.
func (f *ExpenseForm) SplitType() models.SplitType {
	return models.SplitType(f.split.Strategy)
}

// EditSplit sets one participant's percentage or exact amount from raw
// input. It has no effect on equal splits.
func (f *ExpenseForm) EditSplit(userID, raw string) {
	f.split = calculator.Recompute(f.split, calculator.LineEdited(userID, raw))
}

// Allocation returns the current split, if the inputs allow one.
func (f *ExpenseForm) Allocation() (calculator.Allocation, bool) {
	return f.split.Allocation, f.split.Ready()
}

// Validate checks every field and returns a *FormErrors listing all problems.
func (f *ExpenseForm) Validate() error {
	errs := &FormErrors{}

	if strings.TrimSpace(f.Description) == "" {
		errs.add("description", "Description is required", ErrDescriptionRequired)
	}

	if _, err := calculator.ParseAmount(f.amount); err != nil {
		msg := "Amount must be a positive number"
		if errors.Is(err, calculator.ErrAmountRequired) {
			msg = "Amount is required"
		}
		errs.add("amount", msg, err)
	}

	if f.Kind == KindGroup && f.groupID == "" {
		errs.add("groupId", "Please select a group", ErrGroupRequired)
	}

	var dup *calculator.DuplicateParticipantError
	if err := calculator.ValidateParticipants(f.split.Participants); errors.As(err, &dup) {
		errs.add("participants", fmt.Sprintf("%s is listed more than once", displayName(dup.Participant)), ErrDuplicateMember)
	}
	seen := make(map[string]bool, len(f.split.Participants))
	for _, p := range f.split.Participants {
		if p.ID != "" {
			seen[p.ID] = true
		}
	}
	if len(seen) == 0 {
		errs.add("participants", "Add at least one participant", ErrNoParticipants)
	}

	switch {
	case f.split.PayerID == "":
		errs.add("paidByUserId", "Payer is required", ErrPayerRequired)
	case len(seen) > 0 && !seen[f.split.PayerID]:
		errs.add("paidByUserId", "Payer must be one of the participants", ErrPayerNotParticipant)
	}

	if _, err := calculator.ParseStrategy(string(f.split.Strategy)); err != nil {
		errs.add("splitType", "Split type must be equal, percentage or exact", ErrInvalidSplitType)
	}

	if len(errs.Errors) > 0 {
		return errs
	}
	return nil
}

// Request validates the form and builds the create-expense payload.
// A split that does not add up to the amount is rejected with a
// *calculator.ReconciliationError.
func (f *ExpenseForm) Request() (models.CreateExpenseRequest, error) {
	if err := f.Validate(); err != nil {
		return models.CreateExpenseRequest{}, err
	}

	amount, _ := calculator.ParseAmount(f.amount)
	alloc, ok := f.Allocation()
	if !ok {
		return models.CreateExpenseRequest{}, &calculator.ReconciliationError{Total: amount}
	}

	shares := alloc.Shares()
	if err := calculator.ReconcileShares(amount, shares); err != nil {
		return models.CreateExpenseRequest{}, err
	}

	splits := make([]models.ExpenseSplit, len(shares))
	for i, s := range shares {
		splits[i] = models.ExpenseSplit{UserID: s.UserID, Amount: s.Amount, Paid: s.Paid}
	}

	category := strings.TrimSpace(f.Category)
	if category == "" {
		category = DefaultCategory
	}

	req := models.CreateExpenseRequest{
		Description:  strings.TrimSpace(f.Description),
		Amount:       amount,
		Category:     category,
		Date:         f.Date.UTC(),
		PaidByUserID: f.split.PayerID,
		SplitType:    f.SplitType(),
		Splits:       splits,
	}
	if f.Kind == KindGroup {
		req.GroupID = f.groupID
	}
	return req, nil
}

func (f *ExpenseForm) users() []models.User {
	users := make([]models.User, len(f.split.Participants))
	for i, p := range f.split.Participants {
		users[i] = models.User{ID: p.ID, Name: p.Name, Email: p.Email, ImageURL: p.ImageURL}
	}
	return users
}

func displayName(p calculator.Participant) string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}
