package metrics

import (
	"fmt"
	"net"
	"time"

	"github.com/DataDog/datadog-go/statsd"

	"github.com/mitchfriedman/soirees/lib/logging"
)

// Pipeline metric names.
const (
	MessageAcked       = "worker.message.acked"
	MessageRejected    = "worker.message.rejected"
	MessageDuration    = "worker.message.duration"
	PropagationFailed  = "worker.propagation.failed"
	PlaylistReused     = "worker.playlist.reused"
	GenerationFallback = "generation.fallback"
	AttemptFailed      = "generation.attempt.failed"
	PublishFailed      = "publisher.publish.failed"
)

// Recorder is the subset of the statsd client used by the pipeline.
type Recorder interface {
	Incr(name string, tags []string, rate float64) error
	Timing(name string, value time.Duration, tags []string, rate float64) error
}

type emptySink struct {
	logger logging.StructuredLogger
}

func (e *emptySink) Write(data []byte) (n int, err error) {
	e.logger.Debugf("[statsd] %q", string(data))
	return len(data), nil
}

func (e *emptySink) SetWriteTimeout(time.Duration) error {
	return nil
}

func (e *emptySink) Close() error {
	return nil
}

func LoadStatsd(host, port, namespace string, tags []string, logger logging.StructuredLogger) (client *statsd.Client, err error) {
	if host == "" {
		return statsd.NewWithWriter(&emptySink{logger})
	}

	return statsd.New(net.JoinHostPort(host, port),
		statsd.WithNamespace(fmt.Sprintf("%s.", namespace)),
		statsd.WithTags(tags),
	)
}
