package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gleejeyly/storefront/internal/domain"
	"github.com/gleejeyly/storefront/internal/event"
	"github.com/gleejeyly/storefront/internal/repository"
)

// CreateReviewInput holds the parameters for posting a review. A client that
// stored the review offline sends its own id and date.
type CreateReviewInput struct {
	ID            int64  `json:"id" validate:"gte=0"`
	Name          string `json:"name" validate:"notblank"`
	Email         string `json:"email" validate:"notblank,looseemail"`
	ProductRating int    `json:"productRating" validate:"gte=1,lte=5"`
	ServiceRating int    `json:"serviceRating" validate:"gte=1,lte=5"`
	Comment       string `json:"comment" validate:"notblank,trimmin=10"`
	Date          string `json:"date"`
}

// ReviewService implements the business logic for reviews.
type ReviewService struct {
	repo     repository.ReviewRepository
	producer event.Publisher
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(repo repository.ReviewRepository, producer event.Publisher, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// CreateReview stores a review at the head of the list. Re-posting a stored
// review with the same id and content returns the stored record with
// created=false.
func (s *ReviewService) CreateReview(ctx context.Context, input CreateReviewInput) (*domain.Review, bool, error) {
	review := &domain.Review{
		ID:            input.ID,
		Name:          strings.TrimSpace(input.Name),
		Email:         strings.TrimSpace(input.Email),
		ProductRating: input.ProductRating,
		ServiceRating: input.ServiceRating,
		Comment:       strings.TrimSpace(input.Comment),
		Date:          input.Date,
	}

	created, err := s.repo.Create(ctx, review)
	if err != nil {
		return nil, false, fmt.Errorf("create review: %w", err)
	}

	if !created {
		s.logger.InfoContext(ctx, "review already stored", slog.Int64("review_id", review.ID))
		return review, false, nil
	}

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.WarnContext(ctx, "failed to publish review.created event",
			slog.Int64("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review created", slog.Int64("review_id", review.ID))
	return review, true, nil
}

// ListReviews returns every stored review, newest first.
func (s *ReviewService) ListReviews(ctx context.Context) ([]domain.Review, error) {
	reviews, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}
