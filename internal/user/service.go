package user

import (
	"context"

	"marketplace-be/internal/db"
	"marketplace-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Register(ctx context.Context, email, name string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Register creates a user after checking the email is free. The pre-flight
// lookup is racy by itself; the unique index on users.email is the
// authoritative guard and its violation maps to the same ErrEmailExists.
func (s *service) Register(ctx context.Context, email, name string) (*User, error) {
	log := logger.FromCtx(ctx)

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		log.Error("failed to check existing email", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	u, err := New(email, name)
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(ctx, u)
	if err != nil {
		if db.IsUniqueViolation(err) {
			log.Warn("registration lost race on email", zap.String("email", email))
			return nil, ErrEmailExists
		}
		log.Error("failed to save user", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	log.Info("user registered",
		zap.String("user_id", saved.ID.String()),
		zap.String("email", saved.Email),
	)

	return saved, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// GetByEmail returns nil without error when no user matches.
func (s *service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.FindByEmail(ctx, email)
}

func (s *service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.repo.FindAll(ctx)
}
