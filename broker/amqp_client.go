package broker

import (
	"context"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/AlfredDev/bestcombo/apperr"
)

// AMQPClient implements Client over a single long-lived AMQP channel,
// per spec.md §4.3's "connect(url) → channel" contract.
type AMQPClient struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

var _ Client = (*AMQPClient)(nil)

// Dial opens one connection and one channel to the broker at url.
func Dial(url string) (*AMQPClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%w: amqp dial: %v", apperr.ErrTransport, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: amqp channel: %v", apperr.ErrTransport, err)
	}
	// Publisher confirms are awaited per-message (spec.md §4.3).
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%w: amqp confirm mode: %v", apperr.ErrTransport, err)
	}
	return &AMQPClient{conn: conn, ch: ch}, nil
}

// DeclareQueue implements Client.
func (c *AMQPClient) DeclareQueue(_ context.Context, name string) error {
	_, err := c.ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%w: amqp queue declare: %v", apperr.ErrTransport, err)
	}
	return nil
}

// Publish implements Client, publishing to the default exchange and
// blocking for the broker's publisher confirm.
func (c *AMQPClient) Publish(ctx context.Context, routingKey string, payload []byte) error {
	confirms := c.ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	err := c.ch.Publish("", routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         payload,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		return fmt.Errorf("%w: amqp publish: %v", apperr.ErrTransport, err)
	}

	select {
	case confirm, ok := <-confirms:
		if !ok || !confirm.Ack {
			return fmt.Errorf("%w: amqp publisher confirm not acked", apperr.ErrTransport)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: amqp publish confirm: %v", apperr.ErrTransport, ctx.Err())
	}
}

// Consume implements Client, translating amqp.Delivery values into
// broker.Delivery values the Worker Loop can ack without importing amqp.
func (c *AMQPClient) Consume(ctx context.Context, queueName, consumerTag string) (<-chan Delivery, error) {
	raw, err := c.ch.Consume(queueName, consumerTag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: amqp consume: %v", apperr.ErrTransport, err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-raw:
				if !ok {
					return
				}
				delivery := NewDelivery(d.Body, func() error { return d.Ack(false) })
				select {
				case out <- delivery:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close implements Client.
func (c *AMQPClient) Close() error {
	if err := c.ch.Close(); err != nil {
		_ = c.conn.Close()
		return fmt.Errorf("%w: amqp channel close: %v", apperr.ErrTransport, err)
	}
	return c.conn.Close()
}
