package order

import (
	"context"

	"marketplace-be/internal/db"
	"marketplace-be/internal/logger"
	"marketplace-be/internal/user"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	CreateOrder(ctx context.Context, userID uuid.UUID) (*Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	AddItem(ctx context.Context, orderID uuid.UUID, productName string, price decimal.Decimal, quantity int) (*OrderItem, error)
	PayOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	ShipOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	CompleteOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, userID *uuid.UUID) ([]*Order, error)
	GetOrderHistory(ctx context.Context, id uuid.UUID) ([]StatusChange, error)
}

type service struct {
	repo     Repository
	userRepo user.Repository
}

func NewService(repo Repository, userRepo user.Repository) Service {
	return &service{repo: repo, userRepo: userRepo}
}

func (s *service) CreateOrder(ctx context.Context, userID uuid.UUID) (*Order, error) {
	log := logger.FromCtx(ctx)

	owner, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		log.Error("failed to resolve order owner", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, err
	}
	if owner == nil {
		return nil, user.ErrUserNotFound
	}

	o := New(userID)
	saved, err := s.repo.Save(ctx, o)
	if err != nil {
		log.Error("failed to persist new order", zap.String("order_id", o.ID.String()), zap.Error(err))
		return nil, err
	}

	log.Info("order created",
		zap.String("order_id", saved.ID.String()),
		zap.String("user_id", userID.String()),
	)

	return saved, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *service) AddItem(ctx context.Context, orderID uuid.UUID, productName string, price decimal.Decimal, quantity int) (*OrderItem, error) {
	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	item, err := o.AddItem(productName, price, quantity)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Save(ctx, o); err != nil {
		logger.FromCtx(ctx).Error("failed to persist order item",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	return item, nil
}

// PayOrder transitions the order to paid. The in-memory status check is a
// fast path only: when two payments race past it, the history unique index
// fails the second save and that conflict surfaces as ErrOrderAlreadyPaid.
func (s *service) PayOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	log := logger.FromCtx(ctx)

	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := o.Pay(); err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(ctx, o)
	if err != nil {
		if db.IsUniqueViolation(err) {
			log.Warn("payment lost race, order already paid", zap.String("order_id", id.String()))
			return nil, ErrOrderAlreadyPaid
		}
		log.Error("failed to persist payment", zap.String("order_id", id.String()), zap.Error(err))
		return nil, err
	}

	log.Info("order paid", zap.String("order_id", id.String()))
	return saved, nil
}

func (s *service) CancelOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.applyTransition(ctx, id, (*Order).Cancel)
}

func (s *service) ShipOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.applyTransition(ctx, id, (*Order).Ship)
}

func (s *service) CompleteOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.applyTransition(ctx, id, (*Order).Complete)
}

func (s *service) applyTransition(ctx context.Context, id uuid.UUID, move func(*Order) error) (*Order, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := move(o); err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(ctx, o)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to persist status change",
			zap.String("order_id", id.String()),
			zap.String("status", string(o.Status)),
			zap.Error(err),
		)
		return nil, err
	}

	return saved, nil
}

func (s *service) ListOrders(ctx context.Context, userID *uuid.UUID) ([]*Order, error) {
	if userID != nil {
		return s.repo.FindByUser(ctx, *userID)
	}
	return s.repo.FindAll(ctx)
}

func (s *service) GetOrderHistory(ctx context.Context, id uuid.UUID) ([]StatusChange, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return o.History, nil
}
