package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/psvit/storefront/internal/domain"
	pkgkafka "github.com/psvit/storefront/pkg/kafka"
)

// Kafka topic constants for cart domain events.
const (
	TopicCartUpdated = "storefront.cart.updated"
	TopicCartCleared = "storefront.cart.cleared"
)

// Aggregate type constant.
const AggregateTypeCart = "cart"

// Source identifier for events originating from the storefront server.
const SourceStorefront = "storefront-server"

// CartID identifies the single shared cart aggregate.
const CartID = "cart-storage"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	Items      []CartLineData `json:"items"`
	ItemCount  int            `json:"item_count"`
	TotalPrice int64          `json:"total_price"`
}

// CartLineData is the line payload within cart events.
type CartLineData struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	ItemCount int `json:"item_count"`
}

// Producer publishes cart domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, snap domain.Snapshot) error {
	items := make([]CartLineData, len(snap))
	for i, line := range snap {
		items[i] = CartLineData{
			ProductID: line.ID,
			Name:      line.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
		}
	}

	data := CartUpdatedData{
		Items:      items,
		ItemCount:  snap.TotalItems(),
		TotalPrice: snap.TotalPrice(),
	}

	event, err := pkgkafka.NewEvent(TopicCartUpdated, CartID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.Int("item_count", data.ItemCount),
	)

	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, removedCount int) error {
	data := CartClearedData{ItemCount: removedCount}

	event, err := pkgkafka.NewEvent(TopicCartCleared, CartID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.cleared event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartCleared, event); err != nil {
		return fmt.Errorf("publish cart.cleared event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.Int("item_count", removedCount),
	)

	return nil
}
