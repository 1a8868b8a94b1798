package service

import (
	"context"
	"errors"
	"sync"

	"github.com/mmynk/evenly/internal/models"
)

type fakeIdentity struct{ id string }

func (f fakeIdentity) IsAuthenticated() bool { return f.id != "" }
func (f fakeIdentity) UserID() string        { return f.id }

type fakeExpenseAPI struct {
	mu       sync.Mutex
	keys     []string
	requests []models.CreateExpenseRequest
	errs     []error // returned by successive CreateExpense calls
	deleted  []string
	listed   []models.Expense
	block    chan struct{}
}

func (f *fakeExpenseAPI) ListExpenses(context.Context) ([]models.Expense, error) {
	return f.listed, nil
}

func (f *fakeExpenseAPI) GetExpense(_ context.Context, id string) (*models.Expense, error) {
	for _, e := range f.listed {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeExpenseAPI) CreateExpense(_ context.Context, in models.CreateExpenseRequest, key string) (*models.Expense, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	f.requests = append(f.requests, in)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &models.Expense{ID: "e1", Description: in.Description, Amount: in.Amount}, nil
}

func (f *fakeExpenseAPI) DeleteExpense(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type memContacts struct {
	users map[string]models.User
}

func (m *memContacts) UpsertContacts(_ context.Context, users []models.User) error {
	if m.users == nil {
		m.users = make(map[string]models.User)
	}
	for _, u := range users {
		if u.ID != "" {
			m.users[u.ID] = u
		}
	}
	return nil
}

func (m *memContacts) GetContactsByIDs(_ context.Context, ids []string) (map[string]models.User, error) {
	out := make(map[string]models.User)
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}
