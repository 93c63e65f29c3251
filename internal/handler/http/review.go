package http

import (
	"log/slog"
	"net/http"

	"github.com/gleejeyly/storefront/internal/service"
	"github.com/gleejeyly/storefront/pkg/httputil"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// ListReviews handles GET /api/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListReviews(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteList(w, reviews)
}

// CreateReview handles POST /api/reviews. A resend of a stored review is
// answered with 200 and the stored record.
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var input service.CreateReviewInput
	if !decodeBody(w, r, &input, "missing review body", h.logger) {
		return
	}

	review, created, err := h.service.CreateReview(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: review})
}
