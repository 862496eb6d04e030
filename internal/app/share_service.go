package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"autorag/internal/model"
	"autorag/internal/repository"
	"autorag/internal/tenant"
)

type ShareService struct {
	links  ShareLinkStore
	users  UserStore
	hasher PasswordHasher
	log    *zap.Logger
}

type AddMemberInput struct {
	FullName string
	Email    string
	Password string
}

func NewShareService(links ShareLinkStore, users UserStore, hasher PasswordHasher, log *zap.Logger) *ShareService {
	return &ShareService{
		links:  links,
		users:  users,
		hasher: hasher,
		log:    log.Named("share"),
	}
}

// GetOrCreateLink returns the workspace's invite link, creating an enabled one
// on first use. Concurrent callers all get the same link.
func (s *ShareService) GetOrCreateLink(ctx context.Context, workspaceID uuid.UUID) (*model.ShareLink, error) {
	link, err := s.links.GetByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if link != nil {
		return link, nil
	}

	link = &model.ShareLink{
		Token:       uuid.New(),
		WorkspaceID: workspaceID,
		Enabled:     true,
	}
	err = s.links.Create(ctx, link)
	if errors.Is(err, repository.ErrDuplicateKey) {
		// Lost the race against another request; use the winner's row.
		winner, getErr := s.links.GetByWorkspace(ctx, workspaceID)
		if getErr != nil {
			return nil, getErr
		}
		if winner == nil {
			return nil, fmt.Errorf("share link vanished after conflict: %w", err)
		}
		return winner, nil
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

// SetLinkEnabled toggles whether the link admits new registrations. Existing
// members are unaffected.
func (s *ShareService) SetLinkEnabled(ctx context.Context, caller tenant.Identity, enabled bool) (*model.ShareLink, error) {
	if !caller.IsOwner() {
		return nil, ErrForbidden
	}
	link, err := s.GetOrCreateLink(ctx, caller.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if link.Enabled == enabled {
		return link, nil
	}
	if err := s.links.SetEnabled(ctx, link.Token, enabled); err != nil {
		return nil, err
	}
	link.Enabled = enabled
	return link, nil
}

// ListMembers returns the workspace's non-owner users in creation order.
func (s *ShareService) ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]model.User, error) {
	return s.users.ListByWorkspaceAndRole(ctx, workspaceID, model.RoleMember)
}

func (s *ShareService) AddMember(ctx context.Context, caller tenant.Identity, in AddMemberInput) (*model.User, error) {
	if !caller.IsOwner() {
		return nil, ErrForbidden
	}
	user, err := createUser(ctx, s.users, s.hasher, newUserInput{
		FullName:    in.FullName,
		Email:       in.Email,
		Password:    in.Password,
		WorkspaceID: caller.WorkspaceID,
		Role:        model.RoleMember,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("member added",
		zap.String("workspace_id", caller.WorkspaceID.String()),
		zap.String("user_id", user.ID.String()),
	)
	return user, nil
}

func (s *ShareService) RemoveMember(ctx context.Context, caller tenant.Identity, userID uuid.UUID) error {
	if !caller.IsOwner() {
		return ErrForbidden
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || user.WorkspaceID != caller.WorkspaceID {
		return ErrUserNotFound
	}
	if user.IsOwner() {
		return ErrCannotRemoveOwner
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.log.Info("member removed",
		zap.String("workspace_id", caller.WorkspaceID.String()),
		zap.String("user_id", userID.String()),
	)
	return nil
}
