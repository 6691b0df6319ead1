// Package identity is the credential collaborator: user lookup, creation,
// password verification and session issuance.
package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/KerenDoz/Event-Planner/internal/domain/user"
	"github.com/KerenDoz/Event-Planner/internal/security"
	"github.com/google/uuid"
)

type UserStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
	Update(ctx context.Context, u user.User) (user.User, error)
}

type Service struct {
	users UserStore
	now   func() time.Time
}

func NewService(users UserStore) *Service {
	return &Service{users: users, now: time.Now}
}

func (s *Service) FindByID(ctx context.Context, id string) (user.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) FindByUsername(ctx context.Context, username string) (user.User, error) {
	return s.users.GetByUsername(ctx, username)
}

func (s *Service) FindByEmail(ctx context.Context, email string) (user.User, error) {
	return s.users.GetByEmail(ctx, email)
}

func (s *Service) CreateUser(ctx context.Context, username, email, password string) (user.User, error) {
	hash, err := security.HashPassword(password)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()

	return s.users.Create(ctx, user.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *Service) VerifyPassword(u user.User, password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return security.CheckPassword(u.PasswordHash, password) == nil
}

func (s *Service) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	u.UpdatedAt = s.now().UTC()
	return s.users.Update(ctx, u)
}

func (s *Service) SetPassword(ctx context.Context, u user.User, password string) (user.User, error) {
	hash, err := security.HashPassword(password)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	u.PasswordHash = hash
	return s.UpdateUser(ctx, u)
}
