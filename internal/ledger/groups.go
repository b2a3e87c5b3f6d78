package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/splitledger/internal/models"
)

// CreateGroup creates a group whose first member is creator.
func (s *Service) CreateGroup(ctx context.Context, name, description string, creator models.Member) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", models.ErrInvalidInput)
	}
	if strings.TrimSpace(creator.UserID) == "" {
		return nil, fmt.Errorf("%w: creator is required", models.ErrInvalidInput)
	}

	g := &models.Group{
		Name:        name,
		Description: description,
		Members:     []models.Member{creator},
	}
	if err := s.store.CreateGroup(ctx, g); err != nil {
		slog.Error("CreateGroup failed", "name", name, "error", err)
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	slog.Info("Group created", "group_id", g.ID, "creator", creator.UserID)
	return g, nil
}

// GetGroup returns a group with its current members.
func (s *Service) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return s.store.GetGroup(ctx, groupID)
}

// ListGroups returns the groups userID belongs to.
func (s *Service) ListGroups(ctx context.Context, userID string) ([]*models.Group, error) {
	return s.store.ListGroupsForUser(ctx, userID)
}

// AddMember adds m to the group.
func (s *Service) AddMember(ctx context.Context, groupID string, m models.Member) error {
	if strings.TrimSpace(m.UserID) == "" {
		return fmt.Errorf("%w: user_id is required", models.ErrInvalidInput)
	}
	if err := s.store.AddMember(ctx, groupID, m); err != nil {
		slog.Error("AddMember failed", "group_id", groupID, "user_id", m.UserID, "error", err)
		return err
	}
	slog.Info("Member added", "group_id", groupID, "user_id", m.UserID)
	return nil
}

// RemoveMember removes userID from the group. The last member cannot be
// removed. A removed member's past expenses and settlements stay in the
// ledger and keep counting toward balances.
func (s *Service) RemoveMember(ctx context.Context, groupID, userID string) error {
	if err := s.store.RemoveMember(ctx, groupID, userID); err != nil {
		slog.Warn("RemoveMember rejected", "group_id", groupID, "user_id", userID, "error", err)
		return err
	}
	slog.Info("Member removed", "group_id", groupID, "user_id", userID)
	return nil
}
