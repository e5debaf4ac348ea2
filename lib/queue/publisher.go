package queue

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mitchfriedman/soirees/lib/logging"
)

// Publisher sends generation requests to a durable queue. The connection is
// opened on first use and dropped after any failure so the next publish
// dials again.
type Publisher struct {
	url    string
	queue  string
	logger logging.StructuredLogger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url, queue string, logger logging.StructuredLogger) *Publisher {
	return &Publisher{url: url, queue: queue, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, req GenerationRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "failed to encode generation request")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connect(); err != nil {
		return err
	}

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    req.Timestamp,
		Body:         body,
	})
	if err != nil {
		p.reset()
		return errors.Wrapf(err, "failed to publish to %s", p.queue)
	}

	p.logger.WithField("soiree_id", req.SoireeID).WithField("style", req.Style).Info("published generation request")
	return nil
}

func (p *Publisher) connect() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.reset()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return errors.Wrap(err, "failed to connect to broker")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "failed to open channel")
	}
	if _, err := declare(ch, p.queue); err != nil {
		conn.Close()
		return err
	}

	p.conn, p.ch = conn, ch
	return nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	p.reset()
	p.mu.Unlock()
	return nil
}

func declare(ch *amqp.Channel, queue string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	return q, errors.Wrapf(err, "failed to declare queue %s", queue)
}
