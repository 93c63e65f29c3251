package repository

import (
	"context"

	"github.com/gleejeyly/storefront/internal/domain"
)

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	// Create stores an order at the end of the collection, assigning its ID
	// and creation time when absent.
	Create(ctx context.Context, order *domain.Order) error

	// List returns every stored order in insertion order.
	List(ctx context.Context) ([]domain.Order, error)
}

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	// Create stores a review at the head of the collection, assigning its ID
	// and date when absent. It reports created=false and leaves the
	// collection untouched when a review with the same ID already exists; in
	// that case review is overwritten with the stored record.
	Create(ctx context.Context, review *domain.Review) (created bool, err error)

	// List returns every stored review, newest first.
	List(ctx context.Context) ([]domain.Review, error)
}
