package filestore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gleejeyly/storefront/internal/domain"
)

// ReviewsFile is the reviews collection file name inside the data directory.
const ReviewsFile = "reviews.json"

// ReviewRepository implements repository.ReviewRepository on a JSON file.
type ReviewRepository struct {
	reviews *Collection[domain.Review]
	now     func() time.Time
}

// NewReviewRepository creates a review repository storing dir/reviews.json.
func NewReviewRepository(dir string, logger *slog.Logger) *ReviewRepository {
	return &ReviewRepository{
		reviews: NewCollection[domain.Review](filepath.Join(dir, ReviewsFile), logger),
		now:     time.Now,
	}
}

// Create prepends review. A review carrying the ID and content of a stored
// one is a replay: the stored record is returned and nothing is written.
// Any other ID collision moves the new review past the largest stored ID.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (bool, error) {
	clientID := review.ID != 0
	review.Stamp(r.now())

	created := true
	err := r.reviews.Update(ctx, func(items []domain.Review) ([]domain.Review, error) {
		var maxID int64
		collides := false
		for _, existing := range items {
			if existing.ID == review.ID {
				if clientID && sameSubmission(existing, *review) {
					*review = existing
					created = false
					return nil, ErrSkipWrite
				}
				collides = true
			}
			maxID = max(maxID, existing.ID)
		}
		if collides {
			review.ID = maxID + 1
		}
		return append([]domain.Review{*review}, items...), nil
	})
	if err != nil {
		return false, fmt.Errorf("prepend review: %w", err)
	}
	return created, nil
}

// sameSubmission reports whether b is a resend of the stored review a.
func sameSubmission(a, b domain.Review) bool {
	return a.Name == b.Name &&
		strings.EqualFold(a.Email, b.Email) &&
		a.Comment == b.Comment &&
		a.ProductRating == b.ProductRating &&
		a.ServiceRating == b.ServiceRating
}

// List returns all reviews, newest first.
func (r *ReviewRepository) List(ctx context.Context) ([]domain.Review, error) {
	reviews, err := r.reviews.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}
