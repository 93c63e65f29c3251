package mirror

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gleejeyly/storefront/internal/domain"
	"github.com/gleejeyly/storefront/internal/repository/filestore"
)

// FileStore mirrors reviews to a JSON file.
type FileStore struct {
	reviews *filestore.Collection[domain.MirroredReview]
}

// NewFileStore creates a file mirror at path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{reviews: filestore.NewCollection[domain.MirroredReview](path, logger)}
}

// Load returns the mirrored list.
func (s *FileStore) Load(ctx context.Context) ([]domain.MirroredReview, error) {
	reviews, err := s.reviews.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load review mirror: %w", err)
	}
	return reviews, nil
}

// Save replaces the mirrored list.
func (s *FileStore) Save(ctx context.Context, reviews []domain.MirroredReview) error {
	err := s.reviews.Update(ctx, func([]domain.MirroredReview) ([]domain.MirroredReview, error) {
		return reviews, nil
	})
	if err != nil {
		return fmt.Errorf("save review mirror: %w", err)
	}
	return nil
}
