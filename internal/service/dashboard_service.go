package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/evenly/internal/calculator"
	"github.com/mmynk/evenly/internal/models"
)

// DashboardAPI is the remote side of the dashboard.
type DashboardAPI interface {
	Balances(ctx context.Context) (*models.Balances, error)
	DashboardGroups(ctx context.Context) ([]models.Group, error)
	TotalSpent(ctx context.Context) (float64, error)
	MonthlySpending(ctx context.Context) ([]models.MonthlySpending, error)
}

// Dashboard is the signed-in user's overview.
type Dashboard struct {
	Balances        models.Balances
	Summary         calculator.BalanceSummary
	Groups          []models.Group
	TotalSpent      float64
	MonthlySpending []models.MonthlySpending
}

// DashboardService loads the dashboard.
type DashboardService struct {
	api DashboardAPI
}

// NewDashboardService creates a DashboardService backed by client.
func NewDashboardService(client DashboardAPI) *DashboardService {
	return &DashboardService{api: client}
}

// Load fetches every dashboard section concurrently. The first failure
// cancels the rest.
func (s *DashboardService) Load(ctx context.Context) (*Dashboard, error) {
	var (
		d        Dashboard
		balances *models.Balances
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if balances, err = s.api.Balances(ctx); err != nil {
			return fmt.Errorf("balances: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if d.Groups, err = s.api.DashboardGroups(ctx); err != nil {
			return fmt.Errorf("groups: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if d.TotalSpent, err = s.api.TotalSpent(ctx); err != nil {
			return fmt.Errorf("total spent: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if d.MonthlySpending, err = s.api.MonthlySpending(ctx); err != nil {
			return fmt.Errorf("monthly spending: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}

	if balances != nil {
		d.Balances = *balances
	}
	d.Summary = calculator.SummarizeBalances(d.Balances)
	return &d, nil
}

// Balances fetches only the balances and their summary. A nil response reads
// as empty balances.
func (s *DashboardService) Balances(ctx context.Context) (*models.Balances, calculator.BalanceSummary, error) {
	b, err := s.api.Balances(ctx)
	if err != nil {
		return nil, calculator.BalanceSummary{}, err
	}
	if b == nil {
		b = &models.Balances{}
	}
	return b, calculator.SummarizeBalances(*b), nil
}
