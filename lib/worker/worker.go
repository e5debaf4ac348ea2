package worker

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mitchfriedman/soirees/lib/discovery"
)

// Worker identifies one running generation worker in the registry.
type Worker struct {
	UUID      string
	Service   string
	Host      string
	StartedAt time.Time
}

const prefix = "WO"

func NewWorker(service, host string) *Worker {
	return &Worker{
		UUID:      fmt.Sprintf("%s-%s", prefix, uuid.New().String()),
		Service:   service,
		Host:      host,
		StartedAt: time.Now().UTC(),
	}
}

// Registration describes the worker with a TTL check that expires unless
// the lease is renewed within leaseDuration.
func (w *Worker) Registration(leaseDuration time.Duration) discovery.Registration {
	return discovery.Registration{
		ID:      w.UUID,
		Name:    w.Service,
		Address: w.Host,
		Tags:    []string{"worker", "soirees"},
		TTL:     leaseDuration,
	}
}
