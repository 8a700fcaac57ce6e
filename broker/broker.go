// Package broker implements the Task Broker Client (spec.md §4.3, C3):
// one long-lived channel to the message broker used to declare a queue,
// publish task payloads, and consume them with manual acknowledgment.
package broker

import "context"

// Delivery is one consumed task payload, carrying enough state to ack it
// once processing succeeds.
type Delivery struct {
	Body []byte
	ack  func() error
}

// Ack acknowledges successful processing of this delivery.
func (d Delivery) Ack() error {
	return d.ack()
}

// NewDelivery builds a Delivery around an arbitrary ack function. It
// exists so Client implementations other than AMQPClient — including
// test doubles — can produce real Deliveries without reaching into
// this package's unexported fields.
func NewDelivery(body []byte, ack func() error) Delivery {
	return Delivery{Body: body, ack: ack}
}

// Client is the broker contract the Dispatcher and Worker depend on.
type Client interface {
	// DeclareQueue idempotently declares the named queue.
	DeclareQueue(ctx context.Context, name string) error

	// Publish publishes payload to the default exchange under
	// routingKey, awaiting a publisher confirm.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Consume returns one Delivery per task on the named queue.
	// The returned channel closes when ctx is canceled or the
	// underlying connection closes.
	Consume(ctx context.Context, queueName, consumerTag string) (<-chan Delivery, error)

	// Close tears down the channel and connection.
	Close() error
}
