package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gleejeyly/storefront/internal/domain"
	"github.com/gleejeyly/storefront/internal/event"
	"github.com/gleejeyly/storefront/internal/repository"
)

// CreateOrderInput holds the parameters for placing an order. Any total the
// client sends is ignored and recomputed.
type CreateOrderInput struct {
	ID          int64     `json:"id" validate:"gte=0"`
	FullName    string    `json:"fullName" validate:"notblank"`
	PhoneNumber string    `json:"phoneNumber" validate:"notblank,phonedigits=10"`
	Facebook    string    `json:"facebook" validate:"notblank"`
	PickupDate  string    `json:"pickupDate" validate:"required,isodate"`
	Quantity    *int      `json:"quantity" validate:"omitempty,gte=1"`
	Total       float64   `json:"total"`
	CreatedAt   time.Time `json:"createdAt"`
}

// OrderService implements the business logic for orders.
type OrderService struct {
	repo     repository.OrderRepository
	producer event.Publisher
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(repo repository.OrderRepository, producer event.Publisher, logger *slog.Logger) *OrderService {
	return &OrderService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// CreateOrder prices and stores a new order. Publishing the order.created
// event is best-effort.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	quantity := 1
	if input.Quantity != nil {
		quantity = *input.Quantity
	}

	order := &domain.Order{
		ID:          input.ID,
		FullName:    strings.TrimSpace(input.FullName),
		PhoneNumber: strings.TrimSpace(input.PhoneNumber),
		Facebook:    strings.TrimSpace(input.Facebook),
		PickupDate:  input.PickupDate,
		Quantity:    quantity,
		CreatedAt:   input.CreatedAt,
	}
	order.Price()

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.WarnContext(ctx, "failed to publish order.created event",
			slog.Int64("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.Int64("order_id", order.ID),
		slog.Int("quantity", order.Quantity),
		slog.Int64("total_centavos", order.TotalCentavos()),
	)

	return order, nil
}

// ListOrders returns every stored order.
func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
