package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mmynk/evenly/internal/api"
	"github.com/mmynk/evenly/internal/calculator"
	"github.com/mmynk/evenly/internal/metrics"
	"github.com/mmynk/evenly/internal/models"
	"github.com/mmynk/evenly/internal/session"
)

// ErrSubmitInFlight is returned when Submit is called while a submission is
// pending.
var ErrSubmitInFlight = errors.New("an expense submission is already in progress")

// Identity is the signed-in user as seen by the workflows.
type Identity interface {
	IsAuthenticated() bool
	UserID() string
}

// ExpenseAPI is the remote side of expense management.
type ExpenseAPI interface {
	ListExpenses(ctx context.Context) ([]models.Expense, error)
	GetExpense(ctx context.Context, id string) (*models.Expense, error)
	CreateExpense(ctx context.Context, in models.CreateExpenseRequest, key string) (*models.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
}

// Status is the phase of the last expense submission.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ExpenseService submits and manages expenses for the signed-in user.
type ExpenseService struct {
	api      ExpenseAPI
	identity Identity
	metrics  *metrics.Metrics

	mu     sync.Mutex
	status Status
	reason string
	// retryKey is reused when the same form is resubmitted unchanged after a
	// network failure, so the API can drop the duplicate. retryDigest is the
	// payload the key was first sent with.
	retryKey    string
	retryForm   *ExpenseForm
	retryDigest string
}

// NewExpenseService creates an ExpenseService. m may be nil.
func NewExpenseService(client ExpenseAPI, identity Identity, m *metrics.Metrics) *ExpenseService {
	return &ExpenseService{api: client, identity: identity, metrics: m}
}

// Status returns the phase of the last submission and, when it failed, why.
func (s *ExpenseService) Status() (Status, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.reason
}

// Submit validates form and creates the expense. Nothing is sent when the
// form is invalid or its split does not add up. The form is reset on
// success.
func (s *ExpenseService) Submit(ctx context.Context, form *ExpenseForm) (*models.Expense, error) {
	if !s.identity.IsAuthenticated() {
		return nil, session.ErrNotAuthenticated
	}

	req, err := form.Request()
	if err != nil {
		reason := "form"
		if errors.Is(err, calculator.ErrUnreconciled) {
			reason = "unreconciled"
		}
		s.metrics.ObserveRejection(reason)
		slog.Warn("Expense rejected before submission", "reason", reason, "error", err)
		s.mu.Lock()
		if s.status != StatusPending {
			s.status, s.reason = StatusFailed, err.Error()
		}
		s.mu.Unlock()
		return nil, err
	}

	key, err := s.begin(form, payloadDigest(req))
	if err != nil {
		return nil, err
	}

	slog.Info("Submitting expense",
		"description", req.Description,
		"amount", req.Amount,
		"split_type", req.SplitType,
		"splits_count", len(req.Splits),
		"group_id", req.GroupID,
	)

	expense, err := s.api.CreateExpense(ctx, req, key)
	if err != nil {
		slog.Error("CreateExpense failed", "error", err)
		s.metrics.ObserveSubmission(metrics.OutcomeFailed)

		var apiErr *api.Error
		s.mu.Lock()
		if errors.As(err, &apiErr) {
			// The server answered; a resubmission is a new request.
			s.clearRetry()
		}
		s.mu.Unlock()

		s.finish(StatusFailed, failureReason(err))
		return nil, err
	}

	slog.Info("Expense created", "expense_id", expense.ID)
	s.metrics.ObserveSubmission(metrics.OutcomeSucceeded)
	s.mu.Lock()
	s.clearRetry()
	s.mu.Unlock()
	s.finish(StatusSucceeded, "")
	form.Reset()
	return expense, nil
}

// List returns the signed-in user's expenses.
func (s *ExpenseService) List(ctx context.Context) ([]models.Expense, error) {
	if !s.identity.IsAuthenticated() {
		return nil, session.ErrNotAuthenticated
	}
	return s.api.ListExpenses(ctx)
}

// Get fetches one expense.
func (s *ExpenseService) Get(ctx context.Context, id string) (*models.Expense, error) {
	if !s.identity.IsAuthenticated() {
		return nil, session.ErrNotAuthenticated
	}
	return s.api.GetExpense(ctx, id)
}

// Delete deletes an expense the signed-in user may delete.
func (s *ExpenseService) Delete(ctx context.Context, expense models.Expense) error {
	if !s.identity.IsAuthenticated() {
		return session.ErrNotAuthenticated
	}
	if !s.CanDelete(expense) {
		return fmt.Errorf("cannot delete expense %s: only its creator or payer may", expense.ID)
	}
	slog.Info("Deleting expense", "expense_id", expense.ID)
	return s.api.DeleteExpense(ctx, expense.ID)
}

// CanDelete reports whether the signed-in user created or paid expense.
func (s *ExpenseService) CanDelete(expense models.Expense) bool {
	uid := s.identity.UserID()
	if uid == "" {
		return false
	}
	return expense.CreatedBy == uid || expense.PaidByUserID == uid
}

// begin moves to StatusPending and returns the idempotency key to use. The
// previous key is kept only for the same form sending the same payload.
func (s *ExpenseService) begin(form *ExpenseForm, digest string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusPending {
		return "", ErrSubmitInFlight
	}
	s.status, s.reason = StatusPending, ""
	if s.retryKey == "" || s.retryForm != form || s.retryDigest != digest {
		s.retryKey, s.retryForm, s.retryDigest = uuid.NewString(), form, digest
	}
	return s.retryKey, nil
}

// clearRetry forgets the retry key. s.mu must be held.
func (s *ExpenseService) clearRetry() {
	s.retryKey, s.retryForm, s.retryDigest = "", nil, ""
}

// payloadDigest fingerprints a request body. An unencodable request gets a
// fresh digest so it never shares a key.
func payloadDigest(req models.CreateExpenseRequest) string {
	b, err := json.Marshal(req)
	if err != nil {
		return uuid.NewString()
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (s *ExpenseService) finish(status Status, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status, s.reason = status, reason
}

func failureReason(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Failed to add expense. Please try again."
}
