package app

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"autorag/internal/model"
)

// AccountService lets a signed-in user read and edit their own profile.
type AccountService struct {
	users  UserStore
	hasher PasswordHasher
}

func NewAccountService(users UserStore, hasher PasswordHasher) *AccountService {
	return &AccountService{users: users, hasher: hasher}
}

func (s *AccountService) Account(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AccountService) UpdateAccount(ctx context.Context, userID uuid.UUID, fullName, organization string) (*model.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.Account(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.users.UpdateProfile(ctx, userID, fullName, strings.TrimSpace(organization)); err != nil {
		return nil, err
	}
	return s.Account(ctx, userID)
}

// ChangePassword requires the current password; a mismatch is reported as
// ErrWrongCredentials.
func (s *AccountService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if len(next) < minPasswordLength {
		return ErrInvalidInput
	}
	user, err := s.Account(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(user.PasswordHash, current)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongCredentials
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	return s.users.UpdatePasswordHash(ctx, userID, hash)
}
