package queue

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// AmqpQueue publishes events to a RabbitMQ queue. Consumption happens in
// cmd/worker, which owns the long-lived consumer channel; Subscribe here
// is only used by in-process setups.
type AmqpQueue struct {
	URL string
}

func NewAmqpQueue(url string) *AmqpQueue {
	return &AmqpQueue{URL: url}
}

func (q *AmqpQueue) Publish(topic string, payload any) error {
	conn, err := amqp.Dial(q.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to queue: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open queue channel: %w", err)
	}
	defer ch.Close()

	declared, err := ch.QueueDeclare(
		topic,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	return ch.Publish(
		"",
		declared.Name,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// Subscribe consumes the topic in a goroutine. cmd/worker is the normal
// consumer; this exists so AmqpQueue satisfies the Queue interface for
// single-process deployments.
func (q *AmqpQueue) Subscribe(topic string, handler func(payload any) error) error {
	conn, err := amqp.Dial(q.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to queue: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open queue channel: %w", err)
	}

	declared, err := ch.QueueDeclare(topic, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	msgs, err := ch.Consume(declared.Name, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		defer conn.Close()
		defer ch.Close()
		for d := range msgs {
			var evt DisbursementEvent
			if err := json.Unmarshal(d.Body, &evt); err != nil {
				d.Ack(false)
				continue
			}
			if err := handler(evt); err != nil {
				d.Nack(false, true) // requeue
				continue
			}
			d.Ack(false)
		}
	}()
	return nil
}

var _ Queue = (*AmqpQueue)(nil)
var _ Queue = (*InMemoryQueue)(nil)
