package filestore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gleejeyly/storefront/internal/domain"
)

// OrdersFile is the orders collection file name inside the data directory.
const OrdersFile = "orders.json"

// OrderRepository implements repository.OrderRepository on a JSON file.
type OrderRepository struct {
	orders *Collection[domain.Order]
	now    func() time.Time
}

// NewOrderRepository creates an order repository storing dir/orders.json.
func NewOrderRepository(dir string, logger *slog.Logger) *OrderRepository {
	return &OrderRepository{
		orders: NewCollection[domain.Order](filepath.Join(dir, OrdersFile), logger),
		now:    time.Now,
	}
}

// Create appends order, assigning its ID and creation time when absent.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	now := r.now()
	if order.ID == 0 {
		order.ID = domain.NewRecordID(now)
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now.UTC()
	}

	if err := r.orders.Append(ctx, *order); err != nil {
		return fmt.Errorf("append order: %w", err)
	}
	return nil
}

// List returns all orders in insertion order.
func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	orders, err := r.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
