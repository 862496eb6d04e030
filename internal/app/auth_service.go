package app

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"autorag/internal/model"
	"autorag/internal/pkg/jwtutil"
	"autorag/internal/repository"
)

const minPasswordLength = 8

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListByWorkspaceAndRole(ctx context.Context, workspaceID uuid.UUID, role string) ([]model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, fullName, organization string) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ShareLinkStore interface {
	Create(ctx context.Context, link *model.ShareLink) error
	GetByWorkspace(ctx context.Context, workspaceID uuid.UUID) (*model.ShareLink, error)
	GetByToken(ctx context.Context, token uuid.UUID) (*model.ShareLink, error)
	SetEnabled(ctx context.Context, token uuid.UUID, enabled bool) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) (bool, error)
}

type AuthService struct {
	users         UserStore
	links         ShareLinkStore
	hasher        PasswordHasher
	jwtSecret     string
	jwtExpiration time.Duration
	log           *zap.Logger

	// decoyHash is checked against on unknown emails.
	decoyOnce sync.Once
	decoyHash string
}

type RegisterInput struct {
	FullName     string
	Email        string
	Password     string
	Organization string
	// ShareToken joins an existing workspace as a member when set.
	ShareToken string
}

type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func NewAuthService(users UserStore, links ShareLinkStore, hasher PasswordHasher, jwtSecret string, jwtExpiration time.Duration, log *zap.Logger) *AuthService {
	return &AuthService{
		users:         users,
		links:         links,
		hasher:        hasher,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		log:           log.Named("auth"),
	}
}

// Register creates an account. Without a share token the user founds a new
// workspace as its owner; with one they join the link's workspace as a member.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	workspaceID := uuid.New()
	role := model.RoleOwner

	if token := strings.TrimSpace(in.ShareToken); token != "" {
		parsed, err := uuid.Parse(token)
		if err != nil {
			return nil, ErrInvalidShareLink
		}
		link, err := s.links.GetByToken(ctx, parsed)
		if err != nil {
			return nil, err
		}
		if link == nil || !link.Enabled {
			return nil, ErrInvalidShareLink
		}
		workspaceID = link.WorkspaceID
		role = model.RoleMember
	}

	user, err := createUser(ctx, s.users, s.hasher, newUserInput{
		FullName:     in.FullName,
		Email:        in.Email,
		Password:     in.Password,
		Organization: in.Organization,
		WorkspaceID:  workspaceID,
		Role:         role,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("workspace_id", user.WorkspaceID.String()),
		zap.String("role", user.Role),
	)
	return s.issue(user)
}

// Login answers ErrWrongCredentials for both an unknown email and a bad
// password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_, _ = s.hasher.Verify(s.decoy(), password)
		return nil, ErrWrongCredentials
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrWrongCredentials
	}
	return s.issue(user)
}

func (s *AuthService) decoy() string {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.log.Warn("build decoy password hash failed", zap.Error(err))
			return
		}
		s.decoyHash = hash
	})
	return s.decoyHash
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, user.ID, user.WorkspaceID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

type newUserInput struct {
	FullName     string
	Email        string
	Password     string
	Organization string
	WorkspaceID  uuid.UUID
	Role         string
}

func createUser(ctx context.Context, users UserStore, hasher PasswordHasher, in newUserInput) (*model.User, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := normalizeEmail(in.Email)
	if fullName == "" || email == "" || len(in.Password) < minPasswordLength {
		return nil, ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("email %q: %w", email, ErrInvalidInput)
	}

	existing, err := users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	hash, err := hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New(),
		FullName:     fullName,
		Email:        email,
		Organization: strings.TrimSpace(in.Organization),
		WorkspaceID:  in.WorkspaceID,
		Role:         in.Role,
		PasswordHash: hash,
	}
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
