package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// OrderLogFile is the file name the consumer appends to inside its
// directory.
const OrderLogFile = "orders.log"

// Consumer listens on the order.created queue and appends one line per
// order to <dir>/orders.log.
type Consumer struct {
	url string
	dir string
	log *log.Logger
}

// NewConsumer returns a Consumer writing into dir.
func NewConsumer(url, dir string) *Consumer {
	return &Consumer{url: url, dir: dir, log: log.New("order-consumer")}
}

// Run connects to RabbitMQ and consumes until ctx is cancelled.  Broker
// failures are retried with exponential backoff capped at 30s.  Messages
// that cannot be handled are rejected without requeue so a poison message
// cannot spin the loop.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warnf("failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warnf("consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warnf("set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(OrderCreatedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(OrderCreatedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(d.Body); err != nil {
				c.log.Errorf("handle message failed: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleMessage(body []byte) error {
	var ev OrderCreatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.OrderID == "" {
		return errors.New("event without order id")
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.dir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.dir, OrderLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatLine(ev OrderCreatedEvent) string {
	items := make([]string, 0, len(ev.Items))
	for _, it := range ev.Items {
		items = append(items, fmt.Sprintf("%s x%d", it.ProductName, it.Quantity))
	}
	return fmt.Sprintf("[%s] Order placed | order=%s | number=%s | cashier=%q | status=%s | payment=%s | total=%d cents | items=[%s]\n",
		ev.CreatedAt, ev.OrderID, ev.OrderNumber, ev.CashierName, ev.Status, ev.PaymentMethod,
		ev.TotalAmountCents, strings.Join(items, ", "))
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
