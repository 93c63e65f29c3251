package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gleejeyly/storefront/internal/domain"
	"github.com/gleejeyly/storefront/pkg/validator"
)

// --- Mocks ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) (bool, error) {
	args := m.Called(ctx, review)
	return args.Bool(0), args.Error(1)
}

func (m *mockReviewRepository) List(ctx context.Context) ([]domain.Review, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockPublisher) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func intPtr(n int) *int { return &n }

func validOrderInput() CreateOrderInput {
	return CreateOrderInput{
		FullName:    " Maria Santos ",
		PhoneNumber: "09171234567",
		Facebook:    "maria.santos",
		PickupDate:  "2026-12-20",
		Quantity:    intPtr(2),
	}
}

func validReviewInput() CreateReviewInput {
	return CreateReviewInput{
		Name:          "Jo",
		Email:         "jo@example.com",
		ProductRating: 5,
		ServiceRating: 5,
		Comment:       "  Best cheesecake in town!  ",
	}
}

// ============================================================================
// OrderService Tests
// ============================================================================

func TestCreateOrder_RecomputesTotal(t *testing.T) {
	repo := new(mockOrderRepository)
	pub := new(mockPublisher)
	svc := NewOrderService(repo, pub, newTestLogger())

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Order).ID = 123
		}).Return(nil)
	pub.On("PublishOrderCreated", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)

	input := validOrderInput()
	input.Total = 1
	order, err := svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, int64(123), order.ID)
	assert.Equal(t, "Maria Santos", order.FullName)
	assert.Equal(t, 25.0, order.UnitPrice)
	assert.Equal(t, 50.0, order.Total)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCreateOrder_DefaultQuantity(t *testing.T) {
	repo := new(mockOrderRepository)
	pub := new(mockPublisher)
	svc := NewOrderService(repo, pub, newTestLogger())

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	pub.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(nil)

	input := validOrderInput()
	input.Quantity = nil
	order, err := svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 1, order.Quantity)
	assert.Equal(t, 25.0, order.Total)
}

func TestCreateOrder_RepositoryError(t *testing.T) {
	repo := new(mockOrderRepository)
	pub := new(mockPublisher)
	svc := NewOrderService(repo, pub, newTestLogger())

	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, err := svc.CreateOrder(context.Background(), validOrderInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
	pub.AssertNotCalled(t, "PublishOrderCreated", mock.Anything, mock.Anything)
}

func TestCreateOrder_PublishErrorIsNotFatal(t *testing.T) {
	repo := new(mockOrderRepository)
	pub := new(mockPublisher)
	svc := NewOrderService(repo, pub, newTestLogger())

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	pub.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	order, err := svc.CreateOrder(context.Background(), validOrderInput())
	require.NoError(t, err)
	assert.NotNil(t, order)
}

func TestListOrders(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := NewOrderService(repo, new(mockPublisher), newTestLogger())

	repo.On("List", mock.Anything).Return([]domain.Order{{ID: 1}, {ID: 2}}, nil).Once()
	orders, err := svc.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	repo.On("List", mock.Anything).Return(nil, errors.New("io")).Once()
	_, err = svc.ListOrders(context.Background())
	assert.Error(t, err)
}

func TestCreateOrderInput_Validation(t *testing.T) {
	assert.NoError(t, validator.Validate(validOrderInput()))

	input := validOrderInput()
	input.PhoneNumber = "12345"
	input.PickupDate = "20/12/2026"
	input.Quantity = intPtr(0)

	var valErr *validator.ValidationError
	require.ErrorAs(t, validator.Validate(input), &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields, "phoneNumber")
	assert.Contains(t, fields, "pickupDate")
	assert.Contains(t, fields, "quantity")
}

// ============================================================================
// ReviewService Tests
// ============================================================================

func TestCreateReview_New(t *testing.T) {
	repo := new(mockReviewRepository)
	pub := new(mockPublisher)
	svc := NewReviewService(repo, pub, newTestLogger())

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(true, nil)
	pub.On("PublishReviewCreated", mock.Anything, mock.Anything).Return(nil)

	review, created, err := svc.CreateReview(context.Background(), validReviewInput())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Best cheesecake in town!", review.Comment)
	pub.AssertExpectations(t)
}

func TestCreateReview_DuplicateSkipsEvent(t *testing.T) {
	repo := new(mockReviewRepository)
	pub := new(mockPublisher)
	svc := NewReviewService(repo, pub, newTestLogger())

	repo.On("Create", mock.Anything, mock.Anything).Return(false, nil)

	input := validReviewInput()
	input.ID = 77
	review, created, err := svc.CreateReview(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(77), review.ID)
	pub.AssertNotCalled(t, "PublishReviewCreated", mock.Anything, mock.Anything)
}

func TestCreateReview_RepositoryError(t *testing.T) {
	repo := new(mockReviewRepository)
	svc := NewReviewService(repo, new(mockPublisher), newTestLogger())

	repo.On("Create", mock.Anything, mock.Anything).Return(false, errors.New("read-only fs"))

	_, _, err := svc.CreateReview(context.Background(), validReviewInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create review")
}

func TestListReviews(t *testing.T) {
	repo := new(mockReviewRepository)
	svc := NewReviewService(repo, new(mockPublisher), newTestLogger())

	repo.On("List", mock.Anything).Return([]domain.Review{}, nil)
	reviews, err := svc.ListReviews(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, reviews)
}

func TestCreateReviewInput_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateReviewInput)
		field  string
	}{
		{"nine char comment", func(in *CreateReviewInput) { in.Comment = "123456789" }, "comment"},
		{"email without domain dot", func(in *CreateReviewInput) { in.Email = "jo@example" }, "email"},
		{"email without at", func(in *CreateReviewInput) { in.Email = "jo.example.com" }, "email"},
		{"unrated product", func(in *CreateReviewInput) { in.ProductRating = 0 }, "productRating"},
		{"service rating above five", func(in *CreateReviewInput) { in.ServiceRating = 6 }, "serviceRating"},
		{"blank name", func(in *CreateReviewInput) { in.Name = "   " }, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validReviewInput()
			tt.mutate(&input)

			var valErr *validator.ValidationError
			require.ErrorAs(t, validator.Validate(input), &valErr)
			assert.Contains(t, valErr.Fields(), tt.field)
		})
	}

	input := validReviewInput()
	input.Comment = "1234567890"
	assert.NoError(t, validator.Validate(input))
}
