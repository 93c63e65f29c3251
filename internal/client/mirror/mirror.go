// Package mirror keeps the client's local copy of the review list, the
// fallback source when the API cannot be reached.
package mirror

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gleejeyly/storefront/internal/domain"
)

// Key names the mirrored review list in every backend.
const Key = "gleejeyly_reviews"

// Store persists the mirrored review list under Key.
type Store interface {
	// Load returns the mirrored list. Missing or unparseable content loads
	// as an empty list.
	Load(ctx context.Context) ([]domain.MirroredReview, error)

	// Save replaces the mirrored list.
	Save(ctx context.Context, reviews []domain.MirroredReview) error
}

func decode(ctx context.Context, data []byte, logger *slog.Logger, source string) []domain.MirroredReview {
	var reviews []domain.MirroredReview
	if err := json.Unmarshal(data, &reviews); err != nil {
		logger.WarnContext(ctx, "discarding unreadable review mirror",
			slog.String("source", source),
			slog.String("error", err.Error()),
		)
		return []domain.MirroredReview{}
	}
	if reviews == nil {
		return []domain.MirroredReview{}
	}
	return reviews
}
