package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/activity"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/validate"
)

// TokenIssuer signs access tokens for a logged-in user.
type TokenIssuer interface {
	Issue(userID, name, email, role string) (string, time.Time, error)
}

type Service struct {
	repo     Repository
	tokens   TokenIssuer
	activity *activity.Service
}

func NewService(repo Repository, tokens TokenIssuer, act *activity.Service) *Service {
	return &Service{repo: repo, tokens: tokens, activity: act}
}

// Login checks the credentials and issues a token. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, validate.Fail("email", "email and password are required")
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}

	token, exp, err := s.tokens.Issue(u.ID.String(), u.Name, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

// CreateUser adds an active account. It joins the caller's transaction when
// ctx carries one.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Role:         in.Role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, activity.ActionCreate, "user", u.ID.String(),
		fmt.Sprintf("Created user: %s (%s)", u.Name, u.Role))
	return u, nil
}

func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Password != nil && *in.Password != "" && len(*in.Password) < 6 {
		return nil, validate.Fail("password", "password must be at least 6 characters")
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		u.Email = strings.TrimSpace(*in.Email)
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, activity.ActionUpdate, "user", u.ID.String(), "Updated user: "+u.Name)
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Me resolves the caller from the token subject. The development principal
// has no account row and is answered from the context alone.
func (s *Service) Me(ctx context.Context) (*User, error) {
	sub := auth.UserIDFromContext(ctx)
	if sub == auth.DevUserID {
		return &User{Name: auth.UserNameFromContext(ctx), Role: auth.RoleAdmin, IsActive: true}, nil
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, role string, limit, offset int) ([]*User, int, error) {
	if role != "" && !auth.ValidRole(role) {
		return nil, 0, validate.Fail("role", "unknown role %q", role)
	}
	return s.repo.List(ctx, role, limit, offset)
}

func (s *Service) SystemStats(ctx context.Context) (*SystemStats, error) {
	return s.repo.SystemStats(ctx)
}
