package engine

import (
	"context"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mitchfriedman/soirees/lib/logging"
	"github.com/mitchfriedman/soirees/lib/metrics"
	"github.com/mitchfriedman/soirees/lib/playlist"
	"github.com/mitchfriedman/soirees/lib/queue"
	"github.com/mitchfriedman/soirees/lib/worker"
)

/*
Engine is the generation worker. Its algorithm is:

At startup, register the worker with a TTL check and begin a heartbeat
goroutine that renews it every X seconds.

Then consume the queue, one message at a time:

1. Decode the message; reject it if it is unreadable.
2. Execute it: generate, store, link.
3. Ack if the playlist is stored, reject otherwise.

When the context is cancelled the consumer stops taking messages, the
message in flight is finished, and the worker deregisters.
*/

var defaultLeaseDuration = time.Minute
var defaultLeaseRenewDuration = 15 * time.Second

type Processor interface {
	Execute(ctx context.Context, req queue.GenerationRequest) (*playlist.Playlist, error)
}

type Source interface {
	Consume(ctx context.Context, handle queue.Handler) error
}

type Engine struct {
	w          *worker.Worker
	ex         Processor
	source     Source
	wr         worker.Registerer
	recorder   metrics.Recorder
	logger     logging.StructuredLogger
	heartbeats chan worker.Heartbeat

	leaseDuration      time.Duration
	leaseRenewDuration time.Duration
}

type Option func(e *Engine)

func WithLeaseDuration(d time.Duration) Option {
	return func(e *Engine) {
		e.leaseDuration = d
	}
}

func WithLeaseRenewDuration(d time.Duration) Option {
	return func(e *Engine) {
		e.leaseRenewDuration = d
	}
}

func NewEngine(w *worker.Worker, ex Processor, source Source, wr worker.Registerer, heartbeats chan worker.Heartbeat, recorder metrics.Recorder, logger logging.StructuredLogger, options ...Option) *Engine {
	e := &Engine{w: w, ex: ex, source: source, wr: wr, heartbeats: heartbeats, recorder: recorder, logger: logger}
	e.leaseDuration = defaultLeaseDuration
	e.leaseRenewDuration = defaultLeaseRenewDuration

	for _, opt := range options {
		opt(e)
	}
	return e
}

// Start blocks until ctx is cancelled and the message in flight, if any,
// has been settled.
func (e *Engine) Start(ctx context.Context) error {
	logger := e.logger.WithField("worker_id", e.w.UUID)

	if err := e.wr.Register(ctx, e.w.Registration(e.leaseDuration)); err != nil {
		logger.WithError(err).Warn("failed to register worker, continuing unregistered")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.wr.Deregister(ctx, e.w.UUID); err != nil {
			logger.WithError(err).Warn("failed to deregister worker")
		}
	}()

	go e.heartbeat(ctx)

	logger.Info("worker started")
	err := e.source.Consume(ctx, e.Handle)
	logger.Info("worker stopped")
	return err
}

// Handle settles one delivery. It runs to completion even if ctx is
// cancelled while it works.
func (e *Engine) Handle(ctx context.Context, d amqp.Delivery) {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	defer func() {
		e.recorder.Timing(metrics.MessageDuration, time.Since(start), nil, 1)
	}()

	defer func() {
		if r := recover(); r != nil {
			e.reject(d, errors.Errorf("panic: %v", r))
		}
	}()

	req, err := queue.Decode(d.Body)
	if err != nil {
		e.reject(d, errors.Wrap(ErrDecode, err.Error()))
		return
	}

	if _, err := e.ex.Execute(ctx, req); err != nil {
		e.reject(d, err)
		return
	}

	if err := d.Ack(false); err != nil {
		e.logger.WithError(err).WithField("soiree_id", req.SoireeID).Error("failed to ack message")
		return
	}
	e.recorder.Incr(metrics.MessageAcked, nil, 1)
}

func (e *Engine) reject(d amqp.Delivery, cause error) {
	e.recorder.Incr(metrics.MessageRejected, nil, 1)
	logger := e.logger.WithError(cause).WithField("delivery_tag", d.DeliveryTag)
	if err := d.Reject(false); err != nil {
		logger = logger.WithField("reject_error", err.Error())
	}
	logger.Error("message rejected")
}

func (e *Engine) heartbeat(ctx context.Context) {
	t := time.NewTicker(e.leaseRenewDuration)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			select {
			case e.heartbeats <- worker.Heartbeat{Worker: *e.w, LeaseDuration: e.leaseDuration}:
			case <-ctx.Done():
				return
			}
		}
	}
}
