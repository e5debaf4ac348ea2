package queue

import (
	"context"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mitchfriedman/soirees/lib/logging"
)

// Handler processes one delivery and settles it with Ack or Reject.
type Handler func(ctx context.Context, d amqp.Delivery)

type session interface {
	Deliveries() <-chan amqp.Delivery
	Closed() <-chan *amqp.Error
	Cancel() error
	Close() error
}

type dialer func(ctx context.Context) (session, error)

// Consumer reads the queue one delivery at a time and reconnects whenever
// the broker connection is lost.
type Consumer struct {
	dial           dialer
	queue          string
	logger         logging.StructuredLogger
	reconnectDelay time.Duration
}

type ConsumerOption func(*Consumer)

func WithReconnectDelay(d time.Duration) ConsumerOption {
	return func(c *Consumer) {
		c.reconnectDelay = d
	}
}

func withDialer(d dialer) ConsumerOption {
	return func(c *Consumer) {
		c.dial = d
	}
}

func NewConsumer(url, queue, tag string, logger logging.StructuredLogger, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		queue:          queue,
		logger:         logger.WithField("queue", queue),
		reconnectDelay: 5 * time.Second,
	}
	c.dial = func(ctx context.Context) (session, error) {
		return dialAMQP(url, queue, tag)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Consume blocks until ctx is done. A delivery being handled when ctx is
// cancelled is finished before Consume returns.
func (c *Consumer) Consume(ctx context.Context, handle Handler) error {
	for {
		s, err := c.dial(ctx)
		if err != nil {
			c.logger.WithError(err).Warnf("broker unavailable, retrying in %s", c.reconnectDelay)
		} else {
			c.logger.Info("consuming")
			err = c.serve(ctx, s, handle)
			if ctx.Err() != nil {
				return nil
			}
			c.logger.WithError(err).Warnf("broker connection lost, reconnecting in %s", c.reconnectDelay)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.reconnectDelay):
		}
	}
}

var errDeliveriesClosed = errors.New("delivery channel closed")

func (c *Consumer) serve(ctx context.Context, s session, handle Handler) error {
	defer s.Close()

	for {
		select {
		case <-ctx.Done():
			if err := s.Cancel(); err != nil {
				c.logger.WithError(err).Warn("failed to cancel consumer")
			}
			return nil
		case err := <-s.Closed():
			if err == nil {
				return errDeliveriesClosed
			}
			return err
		case d, ok := <-s.Deliveries():
			if !ok {
				return errDeliveriesClosed
			}
			if ctx.Err() != nil {
				// shutting down: hand the message back to the broker.
				d.Nack(false, true)
				continue
			}
			handle(ctx, d)
		}
	}
}

type amqpSession struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	tag        string
	deliveries <-chan amqp.Delivery
	closed     chan *amqp.Error
}

func dialAMQP(url, queue, tag string) (session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to broker")
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to open channel")
	}
	if _, err := declare(ch, queue); err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to set prefetch")
	}

	deliveries, err := ch.Consume(queue, tag, false, false, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "failed to consume %s", queue)
	}

	return &amqpSession{
		conn:       conn,
		ch:         ch,
		tag:        tag,
		deliveries: deliveries,
		closed:     conn.NotifyClose(make(chan *amqp.Error, 1)),
	}, nil
}

func (s *amqpSession) Deliveries() <-chan amqp.Delivery {
	return s.deliveries
}

func (s *amqpSession) Closed() <-chan *amqp.Error {
	return s.closed
}

func (s *amqpSession) Cancel() error {
	return s.ch.Cancel(s.tag, false)
}

func (s *amqpSession) Close() error {
	if !s.conn.IsClosed() {
		return s.conn.Close()
	}
	return nil
}
