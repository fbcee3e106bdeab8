package producer

import (
	"context"
	"encoding/json"
	"time"

	"warehouse-service/internal/service"

	"github.com/segmentio/kafka-go"
)

// Envelope формат сообщения в топике: тип события и полезная нагрузка.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// messageWriter сужение kafka.Writer для тестов.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type InventoryProducer struct {
	writer messageWriter
	now    func() time.Time
}

var _ service.EventBus = (*InventoryProducer)(nil)

func NewInventoryProducer(brokers []string, topic string) *InventoryProducer {
	return &InventoryProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
		now: time.Now,
	}
}

func (p *InventoryProducer) PublishMovementPosted(ctx context.Context, e service.MovementPostedEvent) error {
	return p.send(ctx, e.ProductID.String(), service.EventMovementPosted, e)
}

func (p *InventoryProducer) PublishLowStock(ctx context.Context, e service.LowStockEvent) error {
	return p.send(ctx, e.ProductID.String(), service.EventLowStock, e)
}

func (p *InventoryProducer) PublishSaleCompleted(ctx context.Context, e service.SaleCompletedEvent) error {
	return p.send(ctx, e.SaleID.String(), service.EventSaleCompleted, e)
}

func (p *InventoryProducer) PublishSupplierOrderReceived(ctx context.Context, e service.SupplierOrderReceivedEvent) error {
	return p.send(ctx, e.OrderID.String(), service.EventSupplierOrderReceived, e)
}

func (p *InventoryProducer) send(ctx context.Context, key, eventType string, payload any) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	value, err := json.Marshal(Envelope{Type: eventType, OccurredAt: p.now().UTC(), Payload: payload})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
		},
	})
}

func (p *InventoryProducer) Close() error {
	return p.writer.Close()
}
