package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/pc_shop/internal/metrics"
	"github.com/Skotchmaster/pc_shop/internal/models"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("order not found")
)

// OrderService is the append-only order log. Orders are never updated or
// removed once written.
type OrderService struct {
	Repo    *GormRepo
	Metrics *metrics.Metrics
}

func (s *OrderService) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if len(order.Items) == 0 {
		return nil, fmt.Errorf("order has no items: %w", ErrValidation)
	}
	if order.CustomerName == "" || order.CustomerEmail == "" || order.CustomerCPF == "" {
		return nil, fmt.Errorf("order has no customer identity: %w", ErrValidation)
	}

	created, err := s.Repo.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	if s.Metrics != nil {
		s.Metrics.OrdersCreated.Inc()
		s.Metrics.OrdersTotalBRL.Add(created.Total)
	}
	return created, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get order %s: %w", id, ErrNotFound)
	}
	return o, err
}

func (s *OrderService) ListOrders(ctx context.Context, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListOrders(ctx, offset, limit)
}
