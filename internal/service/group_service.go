package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mmynk/evenly/internal/calculator"
	"github.com/mmynk/evenly/internal/models"
)

// ErrGroupNameRequired is returned when a group is created without a name.
var ErrGroupNameRequired = errors.New("group name is required")

// GroupAPI is the remote side of group management.
type GroupAPI interface {
	ListGroups(ctx context.Context) ([]models.Group, error)
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	GetGroupExpenses(ctx context.Context, id string) (*models.GroupDetails, error)
	CreateGroup(ctx context.Context, in models.GroupInput) (*models.Group, error)
	UpdateGroup(ctx context.Context, id string, in models.GroupInput) (*models.Group, error)
	DeleteGroup(ctx context.Context, id string) error
	CreateGroupViaContacts(ctx context.Context, in models.GroupInput) (*models.Group, error)
	DashboardGroups(ctx context.Context) ([]models.Group, error)
}

// GroupService manages the signed-in user's groups.
type GroupService struct {
	api GroupAPI
}

// NewGroupService creates a new GroupService backed by client.
func NewGroupService(client GroupAPI) *GroupService {
	return &GroupService{api: client}
}

// List returns the user's groups.
func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	return s.api.ListGroups(ctx)
}

// Selectable returns the groups offered in the group expense form.
func (s *GroupService) Selectable(ctx context.Context) ([]models.Group, error) {
	return s.api.DashboardGroups(ctx)
}

// Get retrieves a group by ID.
func (s *GroupService) Get(ctx context.Context, id string) (*models.Group, error) {
	slog.Info("GetGroup request received", "group_id", id)
	return s.api.GetGroup(ctx, id)
}

// Details retrieves a group with its expenses, settlements and balances.
func (s *GroupService) Details(ctx context.Context, id string) (*models.GroupDetails, error) {
	slog.Info("GetGroupExpenses request received", "group_id", id)

	details, err := s.api.GetGroupExpenses(ctx, id)
	if err != nil {
		slog.Error("GetGroupExpenses failed", "group_id", id, "error", err)
		return nil, err
	}
	return details, nil
}

// Create creates a new group.
func (s *GroupService) Create(ctx context.Context, in models.GroupInput) (*models.Group, error) {
	in, err := normalizeGroupInput(in)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroup request received", "name", in.Name, "members_count", len(in.Members))

	group, err := s.api.CreateGroup(ctx, in)
	if err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, err
	}

	slog.Info("Group created", "group_id", group.ID)
	return group, nil
}

// Update replaces a group's name, description and members.
func (s *GroupService) Update(ctx context.Context, id string, in models.GroupInput) (*models.Group, error) {
	in, err := normalizeGroupInput(in)
	if err != nil {
		return nil, err
	}
	slog.Info("UpdateGroup request received", "group_id", id, "members_count", len(in.Members))
	return s.api.UpdateGroup(ctx, id, in)
}

// Delete deletes a group.
func (s *GroupService) Delete(ctx context.Context, id string) error {
	slog.Info("DeleteGroup request received", "group_id", id)
	return s.api.DeleteGroup(ctx, id)
}

// CreateFromContacts creates a group from contact ids. Duplicate and empty
// ids are dropped.
func (s *GroupService) CreateFromContacts(ctx context.Context, name, description string, memberIDs []string) (*models.Group, error) {
	in, err := normalizeGroupInput(models.GroupInput{Name: name, Description: description, Members: memberIDs})
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroupViaContacts request received", "name", in.Name, "members_count", len(in.Members))

	group, err := s.api.CreateGroupViaContacts(ctx, in)
	if err != nil {
		slog.Error("CreateGroupViaContacts failed", "error", err)
		return nil, err
	}
	return group, nil
}

// Participants returns the group's members as split participants.
func (s *GroupService) Participants(group models.Group) []calculator.Participant {
	participants := make([]calculator.Participant, 0, len(group.Members))
	for _, m := range group.Members {
		participants = append(participants, calculator.Participant{
			ID:       m.ID,
			Name:     m.Name,
			Email:    m.Email,
			ImageURL: m.ImageURL,
		})
	}
	return participants
}

// SettleUp suggests the payments that clear a group's balances.
func (s *GroupService) SettleUp(ctx context.Context, groupID string) ([]calculator.DebtEdge, error) {
	details, err := s.Details(ctx, groupID)
	if err != nil {
		return nil, err
	}

	edges := calculator.SuggestSettlements(details.Balances)
	slog.Info("Settle-up computed", "group_id", groupID, "payments", len(edges))
	return edges, nil
}

func normalizeGroupInput(in models.GroupInput) (models.GroupInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return in, ErrGroupNameRequired
	}

	seen := make(map[string]bool, len(in.Members))
	members := make([]string, 0, len(in.Members))
	for _, id := range in.Members {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, id)
	}
	in.Members = members
	return in, nil
}
