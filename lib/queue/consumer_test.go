package queue_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchfriedman/soirees/lib/logging"
	"github.com/mitchfriedman/soirees/lib/queue"
)

type fakeAcknowledger struct {
	mu     sync.Mutex
	nacked []uint64
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error { return nil }

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.mu.Lock()
	f.nacked = append(f.nacked, tag)
	f.mu.Unlock()
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error { return nil }

type fakeSession struct {
	deliveries chan amqp.Delivery
	closed     chan *amqp.Error

	mu        sync.Mutex
	cancelled bool
	shut      bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		deliveries: make(chan amqp.Delivery, 10),
		closed:     make(chan *amqp.Error, 1),
	}
}

func (f *fakeSession) Deliveries() <-chan amqp.Delivery { return f.deliveries }
func (f *fakeSession) Closed() <-chan *amqp.Error       { return f.closed }

func (f *fakeSession) Cancel() error {
	f.mu.Lock()
	f.cancelled = true
	f.mu.Unlock()
	return nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	f.shut = true
	f.mu.Unlock()
	return nil
}

func (f *fakeSession) state() (bool, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled, f.shut
}

func delivery(ack amqp.Acknowledger, tag uint64, body string) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: tag, Body: []byte(body)}
}

// scriptedDialer hands out the given sessions in order; a nil entry fails.
func scriptedDialer(sessions ...*fakeSession) (func(context.Context) (queue.Session, error), func() int) {
	var mu sync.Mutex
	calls := 0
	dial := func(ctx context.Context) (queue.Session, error) {
		mu.Lock()
		defer mu.Unlock()
		i := calls
		calls++
		if i >= len(sessions) || sessions[i] == nil {
			return nil, errors.New("connection refused")
		}
		return sessions[i], nil
	}
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return calls
	}
	return dial, count
}

func newConsumer(dial func(context.Context) (queue.Session, error)) *queue.Consumer {
	return queue.NewConsumer("amqp://unused", queue.DefaultQueue, "test", logging.New("test", os.Stderr),
		queue.WithReconnectDelay(time.Millisecond),
		queue.WithDialer(dial),
	)
}

func TestConsumeInOrderAndShutdown(t *testing.T) {
	s := newFakeSession()
	dial, _ := scriptedDialer(s)
	c := newConsumer(dial)

	ack := &fakeAcknowledger{}
	s.deliveries <- delivery(ack, 1, "one")
	s.deliveries <- delivery(ack, 2, "two")

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var got []string
	done := make(chan error)
	go func() {
		done <- c.Consume(ctx, func(ctx context.Context, d amqp.Delivery) {
			mu.Lock()
			got = append(got, string(d.Body))
			n := len(got)
			mu.Unlock()
			if n == 2 {
				cancel()
			}
		})
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}

	assert.Equal(t, []string{"one", "two"}, got)
	cancelled, shut := s.state()
	assert.True(t, cancelled)
	assert.True(t, shut)
}

func TestConsumeReconnects(t *testing.T) {
	first, second := newFakeSession(), newFakeSession()
	dial, calls := scriptedDialer(nil, first, nil, second)
	c := newConsumer(dial)

	ack := &fakeAcknowledger{}
	first.deliveries <- delivery(ack, 1, "before")
	second.deliveries <- delivery(ack, 1, "after")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 2)
	done := make(chan error)
	go func() {
		done <- c.Consume(ctx, func(ctx context.Context, d amqp.Delivery) {
			received <- string(d.Body)
			if string(d.Body) == "before" {
				first.closed <- amqp.ErrClosed
			}
		})
	}()

	assert.Equal(t, "before", <-received)
	select {
	case body := <-received:
		assert.Equal(t, "after", body)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not reconnect")
	}
	assert.Equal(t, 4, calls())

	_, shut := first.state()
	assert.True(t, shut)

	cancel()
	require.NoError(t, <-done)
}

func TestConsumeFinishesInFlightMessage(t *testing.T) {
	s := newFakeSession()
	dial, _ := scriptedDialer(s)
	c := newConsumer(dial)

	ack := &fakeAcknowledger{}
	s.deliveries <- delivery(ack, 1, "slow")

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan struct{})

	done := make(chan error)
	go func() {
		done <- c.Consume(ctx, func(ctx context.Context, d amqp.Delivery) {
			close(started)
			<-release
			close(finished)
		})
	}()

	<-started
	cancel()

	select {
	case <-done:
		t.Fatal("consumer returned before the in-flight message finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	assert.NoError(t, <-done)
	<-finished
}

func TestConsumeStopsWhileBrokerDown(t *testing.T) {
	dial, calls := scriptedDialer()
	c := queue.NewConsumer("amqp://unused", queue.DefaultQueue, "test", logging.New("test", os.Stderr),
		queue.WithReconnectDelay(10*time.Millisecond),
		queue.WithDialer(dial),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	assert.NoError(t, c.Consume(ctx, func(context.Context, amqp.Delivery) {}))
	assert.True(t, calls() >= 2)
}
