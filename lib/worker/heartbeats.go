package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/mitchfriedman/soirees/lib/logging"
)

type Heartbeat struct {
	Worker        Worker
	LeaseDuration time.Duration
}

// HeartbeatProcessor renews the lease of every heartbeat it receives.
type HeartbeatProcessor struct {
	hb     chan Heartbeat
	l      Leaser
	logger logging.StructuredLogger
}

func NewHeartbeatProcessor(hb chan Heartbeat, leaser Leaser, logger logging.StructuredLogger) *HeartbeatProcessor {
	return &HeartbeatProcessor{
		hb:     hb,
		l:      leaser,
		logger: logger,
	}
}

// Start blocks until ctx is done or the heartbeat channel is closed.
func (h *HeartbeatProcessor) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case hb, ok := <-h.hb:
			if !ok {
				return
			}
			note := fmt.Sprintf("alive since %s", hb.Worker.StartedAt.Format(time.RFC3339))
			if err := h.l.RenewLease(ctx, hb.Worker.UUID, note); err != nil {
				h.logger.WithError(err).WithField("worker_id", hb.Worker.UUID).Warn("heartbeat: failed to renew lease")
			}
		}
	}
}
