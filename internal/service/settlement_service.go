package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"github.com/mmynk/evenly/internal/models"
)

// Settlement data entity types.
const (
	EntityUser  = "user"
	EntityGroup = "group"
)

var (
	ErrInvalidSettlementAmount = errors.New("settlement amount must be positive")
	ErrSettlementParty         = errors.New("settlement needs both a payer and a receiver")
	ErrSelfSettlement          = errors.New("payer and receiver must differ")
	ErrInvalidEntityType       = errors.New(`entity type must be "user" or "group"`)
)

// SettlementAPI is the remote side of settlements.
type SettlementAPI interface {
	ListSettlements(ctx context.Context) ([]models.Settlement, error)
	CreateSettlement(ctx context.Context, in models.SettlementInput) (*models.Settlement, error)
	UpdateSettlement(ctx context.Context, id string, in models.SettlementInput) (*models.Settlement, error)
	DeleteSettlement(ctx context.Context, id string) error
	SettlementData(ctx context.Context, entityType, entityID string) (*models.SettlementData, error)
}

// SettlementService records payments that settle balances.
type SettlementService struct {
	api SettlementAPI
}

// NewSettlementService creates a SettlementService backed by client.
func NewSettlementService(client SettlementAPI) *SettlementService {
	return &SettlementService{api: client}
}

// List returns the user's settlements.
func (s *SettlementService) List(ctx context.Context) ([]models.Settlement, error) {
	return s.api.ListSettlements(ctx)
}

// Create records a settlement.
func (s *SettlementService) Create(ctx context.Context, in models.SettlementInput) (*models.Settlement, error) {
	if err := ValidateSettlement(in); err != nil {
		return nil, err
	}
	slog.Info("CreateSettlement request received",
		"from_user_id", in.PaidByUserID,
		"to_user_id", in.ReceivedByUserID,
		"amount", in.Amount,
		"group_id", in.GroupID,
	)

	settlement, err := s.api.CreateSettlement(ctx, in)
	if err != nil {
		slog.Error("CreateSettlement failed", "error", err)
		return nil, err
	}
	slog.Info("Settlement created", "settlement_id", settlement.ID)
	return settlement, nil
}

// Update replaces a settlement.
func (s *SettlementService) Update(ctx context.Context, id string, in models.SettlementInput) (*models.Settlement, error) {
	if err := ValidateSettlement(in); err != nil {
		return nil, err
	}
	return s.api.UpdateSettlement(ctx, id, in)
}

// Delete deletes a settlement.
func (s *SettlementService) Delete(ctx context.Context, id string) error {
	slog.Info("DeleteSettlement request received", "settlement_id", id)
	return s.api.DeleteSettlement(ctx, id)
}

// Data returns what is needed to settle with a user or a group.
func (s *SettlementService) Data(ctx context.Context, entityType, id string) (*models.SettlementData, error) {
	entityType = strings.ToLower(strings.TrimSpace(entityType))
	if entityType != EntityUser && entityType != EntityGroup {
		return nil, ErrInvalidEntityType
	}
	return s.api.SettlementData(ctx, entityType, id)
}

// ValidateSettlement checks a settlement before it is sent.
func ValidateSettlement(in models.SettlementInput) error {
	var errs []error
	if !(in.Amount > 0) || math.IsInf(in.Amount, 0) {
		errs = append(errs, ErrInvalidSettlementAmount)
	}
	switch {
	case in.PaidByUserID == "" || in.ReceivedByUserID == "":
		errs = append(errs, ErrSettlementParty)
	case in.PaidByUserID == in.ReceivedByUserID:
		errs = append(errs, ErrSelfSettlement)
	}
	return errors.Join(errs...)
}
