package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idleforest/idleforest/internal/models"
)

func TestPublisher_Publish(t *testing.T) {
	amqpURI := setupAMQP(t)

	conn, err := Connect(amqpURI, 3, time.Second)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	ch, err := SetupChannel(conn, "idleforest-test", ReferralQueues("publish-test"))
	require.NoError(t, err)
	defer func() { _ = ch.Close() }()

	publisher := NewPublisher(ch, "idleforest-test")

	t.Run("event is routed to bound queue", func(t *testing.T) {
		event := models.UserRegisteredEvent{
			UserID:       "user-1",
			ReferralCode: "ABCD1234",
			RegisteredAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		}
		require.NoError(t, publisher.Publish(context.Background(), models.RoutingKeyUserRegistered, event))

		deliveries, err := ch.Consume("publish-test", "test-consumer", true, false, false, false, nil)
		require.NoError(t, err)

		select {
		case d := <-deliveries:
			var got models.UserRegisteredEvent
			require.NoError(t, json.Unmarshal(d.Body, &got))
			assert.Equal(t, event, got)
			assert.Equal(t, "application/json", d.ContentType)
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for message")
		}
	})

	t.Run("marshal error", func(t *testing.T) {
		badMsg := struct {
			Ch chan int `json:"ch"`
		}{Ch: make(chan int)}

		err := publisher.Publish(context.Background(), models.RoutingKeyUserRegistered, badMsg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := publisher.Publish(ctx, models.RoutingKeyUserRegistered, map[string]string{"a": "b"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
