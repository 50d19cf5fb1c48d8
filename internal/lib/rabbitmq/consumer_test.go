package rabbitmq

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openChannel(t *testing.T, queueName string) *amqp.Channel {
	t.Helper()
	amqpURI := setupAMQP(t)

	conn, err := Connect(amqpURI, 3, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ch, err := conn.Channel()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	_, err = ch.QueueDeclare(queueName, false, false, false, false, nil)
	require.NoError(t, err)
	return ch
}

func TestConsumerMessage_HandleMessages(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ch := openChannel(t, "consumer-test")

	var wg sync.WaitGroup
	wg.Add(2)
	var mu sync.Mutex
	received := make([]string, 0)

	handler := func(_ context.Context, body []byte) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, string(body))
		wg.Done()
		return nil
	}
	require.NoError(t, ConsumerMessage(ctx, discardLogger(), ch, "consumer-test", handler))

	for _, msg := range []string{"hello", "world"} {
		err := ch.Publish("", "consumer-test", false, false, amqp.Publishing{
			ContentType: "text/plain",
			Body:        []byte(msg),
		})
		require.NoError(t, err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for messages to be processed")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"hello", "world"}, received)
}

// Ошибка обработчика возвращает сообщение в очередь, и оно доставляется повторно.
func TestConsumerMessage_HandlerErrorRequeues(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ch := openChannel(t, "nack-test")

	var attempts atomic.Int32
	done := make(chan struct{})
	handler := func(_ context.Context, _ []byte) error {
		if attempts.Add(1) == 1 {
			return errors.New("fail")
		}
		close(done)
		return nil
	}
	require.NoError(t, ConsumerMessage(ctx, discardLogger(), ch, "nack-test", handler))

	err := ch.Publish("", "nack-test", false, false, amqp.Publishing{
		ContentType: "text/plain",
		Body:        []byte("bad"),
	})
	require.NoError(t, err)

	select {
	case <-done:
		assert.Equal(t, int32(2), attempts.Load())
	case <-time.After(10 * time.Second):
		t.Fatal("message was not redelivered after nack")
	}
}
