package worker_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/mitchfriedman/soirees/lib/logging"
	"github.com/mitchfriedman/soirees/lib/worker"
)

type fakeLeaser struct {
	counter   int
	counterMu sync.Mutex
	err       error
}

func (f *fakeLeaser) RenewLease(context.Context, string, string) error {
	f.counterMu.Lock()
	f.counter++
	f.counterMu.Unlock()
	return f.err
}

func (f *fakeLeaser) count() int {
	f.counterMu.Lock()
	c := f.counter
	f.counterMu.Unlock()
	return c
}

func TestHeartbeatProcessor(t *testing.T) {
	tests := map[string]struct {
		err error
	}{
		"renewals succeed": {nil},
		"renewals fail":    {errors.New("agent unreachable")},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			leaser := &fakeLeaser{err: tc.err}
			hbs := make(chan worker.Heartbeat, 1)
			hbp := worker.NewHeartbeatProcessor(hbs, leaser, logging.New("test", os.Stderr))

			var wg sync.WaitGroup
			wg.Add(1)

			ctx, cancel := context.WithCancel(context.Background())
			go func() {
				defer wg.Done()
				hbp.Start(ctx)
			}()

			go func() {
				for i := 0; i < 10; i++ {
					hbs <- worker.Heartbeat{Worker: worker.Worker{UUID: fmt.Sprintf("%d", i)}, LeaseDuration: time.Millisecond}
				}
			}()

			assert.Eventually(t, func() bool { return leaser.count() == 10 }, time.Second, time.Millisecond)

			cancel()
			wg.Wait()
		})
	}
}

func TestRegistration(t *testing.T) {
	w := worker.NewWorker("service-playlist-worker", "worker-1")
	reg := w.Registration(time.Minute)

	assert.Contains(t, w.UUID, "WO-")
	assert.Equal(t, w.UUID, reg.ID)
	assert.Equal(t, "service-playlist-worker", reg.Name)
	assert.Equal(t, time.Minute, reg.TTL)
	assert.Empty(t, reg.HealthPath)
}
