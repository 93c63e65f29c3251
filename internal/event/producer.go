package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gleejeyly/storefront/internal/domain"
	pkgkafka "github.com/gleejeyly/storefront/pkg/kafka"
	"github.com/gleejeyly/storefront/pkg/logger"
)

// Kafka topic constants for storefront domain events.
const (
	TopicOrderCreated  = "gleejeyly.order.created"
	TopicReviewCreated = "gleejeyly.review.created"
)

// Event type constants.
const (
	TypeOrderCreated  = "order.created"
	TypeReviewCreated = "review.created"
)

// SourceStorefrontAPI identifies events originating from the API server.
const SourceStorefrontAPI = "storefront-api"

// EventSchemaVersion is stamped on every event as the schema_version
// metadata entry. Bump it when a payload field changes meaning.
const EventSchemaVersion = "1"

// OrderCreatedData is the payload for an order.created event.
type OrderCreatedData struct {
	OrderID       int64  `json:"order_id"`
	FullName      string `json:"full_name"`
	PhoneNumber   string `json:"phone_number"`
	Facebook      string `json:"facebook"`
	PickupDate    string `json:"pickup_date"`
	Quantity      int    `json:"quantity"`
	TotalCentavos int64  `json:"total_centavos"`
}

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ReviewID      int64  `json:"review_id"`
	Name          string `json:"name"`
	ProductRating int    `json:"product_rating"`
	ServiceRating int    `json:"service_rating"`
}

// Publisher announces storefront domain events.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
	PublishReviewCreated(ctx context.Context, review *domain.Review) error
}

// EventWriter is the part of *pkgkafka.Producer the event producer uses.
type EventWriter interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  EventWriter
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka EventWriter, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	data := OrderCreatedData{
		OrderID:       order.ID,
		FullName:      order.FullName,
		PhoneNumber:   order.PhoneNumber,
		Facebook:      order.Facebook,
		PickupDate:    order.PickupDate,
		Quantity:      order.Quantity,
		TotalCentavos: order.TotalCentavos(),
	}
	id := strconv.FormatInt(order.ID, 10)
	return p.publish(ctx, TopicOrderCreated, TypeOrderCreated, id, data)
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	data := ReviewCreatedData{
		ReviewID:      review.ID,
		Name:          review.Name,
		ProductRating: review.ProductRating,
		ServiceRating: review.ServiceRating,
	}
	id := strconv.FormatInt(review.ID, 10)
	return p.publish(ctx, TopicReviewCreated, TypeReviewCreated, id, data)
}

func (p *Producer) publish(ctx context.Context, topic, eventType, key string, data any) error {
	event, err := pkgkafka.NewEvent(eventType, key, SourceStorefrontAPI, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	event.WithMetadata("schema_version", EventSchemaVersion)
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published "+eventType+" event",
		slog.String("key", key),
	)
	return nil
}

// NopPublisher drops every event. It stands in when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(context.Context, *domain.Order) error   { return nil }
func (NopPublisher) PublishReviewCreated(context.Context, *domain.Review) error { return nil }
