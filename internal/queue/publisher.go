package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends order events to RabbitMQ.  Each publish dials a fresh
// connection; order volume at a till is low and this keeps the publisher
// free of reconnect state.  Failures are logged and returned so the caller
// can ignore them without interrupting the request.
type Publisher struct {
	url string
	log *log.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url, log: log.New("order-publisher")}
}

// PublishOrderCreated publishes ev to the order.created queue as a
// persistent JSON message.
func (p *Publisher) PublishOrderCreated(ctx context.Context, ev OrderCreatedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Errorf("marshal event failed: %v", err)
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warnf("dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warnf("channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(OrderCreatedQueue, true, false, false, false, nil); err != nil {
		p.log.Warnf("queue declare failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.OrderID,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", OrderCreatedQueue, false, false, pub); err != nil {
		p.log.Warnf("publish failed: %v", err)
		return err
	}
	return nil
}
