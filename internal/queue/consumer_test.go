package queue

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func quietConsumer(dir string) *Consumer {
	c := NewConsumer("amqp://127.0.0.1:1/", dir)
	c.log.SetOutput(io.Discard)
	return c
}

func TestHandleMessageAppendsLine(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	c := quietConsumer(dir)

	ev := OrderCreatedEvent{
		OrderID:          "O1",
		OrderNumber:      "INV-20260301-ABCDEF12",
		CashierName:      "Jane",
		Status:           "Completed",
		PaymentMethod:    "Cash",
		TotalAmountCents: 300,
		Items:            []OrderEventItem{{ProductName: "Cola", Quantity: 3, SubTotalCents: 300}},
		CreatedAt:        "2026-03-01T10:00:00Z",
	}
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	require.NoError(t, c.handleMessage(body))
	require.NoError(t, c.handleMessage(body))

	raw, err := os.ReadFile(filepath.Join(dir, OrderLogFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "number=INV-20260301-ABCDEF12")
	require.Contains(t, lines[0], "items=[Cola x3]")
	require.Contains(t, lines[0], `cashier="Jane"`)
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	c := quietConsumer(t.TempDir())
	require.Error(t, c.handleMessage([]byte("{not json")))
	require.Error(t, c.handleMessage([]byte(`{"order_number":"x"}`)))
}

func TestRunStopsOnCancel(t *testing.T) {
	c := quietConsumer(t.TempDir())
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop after cancellation")
	}
}

func TestPublishFailsWithoutBroker(t *testing.T) {
	p := NewPublisher("amqp://127.0.0.1:1/")
	p.log.SetOutput(io.Discard)
	err := p.PublishOrderCreated(context.Background(), OrderCreatedEvent{OrderID: "O1"})
	require.Error(t, err)
}
