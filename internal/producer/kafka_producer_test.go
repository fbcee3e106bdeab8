package producer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"warehouse-service/internal/service"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestInventoryProducer_MovementPostedEnvelope(t *testing.T) {
	w := &fakeWriter{}
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := &InventoryProducer{writer: w, now: func() time.Time { return fixed }}

	productID := uuid.New()
	err := p.PublishMovementPosted(context.Background(), service.MovementPostedEvent{
		MovementID: uuid.New(),
		ProductID:  productID,
		Quantity:   5,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, productID.String(), string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, service.EventMovementPosted, string(msg.Headers[0].Value))

	var env struct {
		Type       string          `json:"type"`
		OccurredAt time.Time       `json:"occurred_at"`
		Payload    json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, service.EventMovementPosted, env.Type)
	assert.True(t, env.OccurredAt.Equal(fixed))

	var payload service.MovementPostedEvent
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, productID, payload.ProductID)
	assert.EqualValues(t, 5, payload.Quantity)
}

func TestInventoryProducer_SaleKeyedBySaleID(t *testing.T) {
	w := &fakeWriter{}
	p := &InventoryProducer{writer: w, now: time.Now}

	saleID := uuid.New()
	require.NoError(t, p.PublishSaleCompleted(context.Background(), service.SaleCompletedEvent{SaleID: saleID}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, saleID.String(), string(w.msgs[0].Key))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
