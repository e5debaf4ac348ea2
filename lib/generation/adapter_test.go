package generation_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/mitchfriedman/soirees/lib/generation"
	"github.com/mitchfriedman/soirees/lib/logging"
	"github.com/mitchfriedman/soirees/lib/metrics"
)

type fakeRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func newRecorder() *fakeRecorder {
	return &fakeRecorder{counts: make(map[string]int)}
}

func (f *fakeRecorder) Incr(name string, tags []string, rate float64) error {
	f.mu.Lock()
	f.counts[name]++
	f.mu.Unlock()
	return nil
}

func (f *fakeRecorder) Timing(string, time.Duration, []string, float64) error {
	return nil
}

func (f *fakeRecorder) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[name]
}

// instantTimer fires immediately and remembers every requested wait.
type instantTimer struct {
	c     chan time.Time
	waits []time.Duration
}

func newInstantTimer() *instantTimer {
	return &instantTimer{c: make(chan time.Time, 1)}
}

func (t *instantTimer) Start(d time.Duration) {
	t.waits = append(t.waits, d)
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time {
	return t.c
}

type scriptedProvider struct {
	mu      sync.Mutex
	calls   int
	results []error
}

func (p *scriptedProvider) Fetch(ctx context.Context, style string) (generation.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.calls
	p.calls++
	if i < len(p.results) && p.results[i] != nil {
		return generation.Result{}, p.results[i]
	}
	return generation.Result{Title: "Disco Night", Style: style, Tracks: []string{"A", "B", "C"}}, nil
}

var errDown = errors.Wrap(generation.ErrProvider, "status 503")

func TestGenerate(t *testing.T) {
	tests := map[string]struct {
		results       []error
		expectedCalls int
		expectedWaits int
		fallback      bool
	}{
		"first attempt succeeds":  {nil, 1, 0, false},
		"third attempt succeeds":  {[]error{errDown, errDown}, 3, 2, false},
		"every attempt fails":     {[]error{errDown, errDown, errDown, errDown}, 3, 2, true},
		"second attempt succeeds": {[]error{errDown}, 2, 1, false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			p := &scriptedProvider{results: tc.results}
			rec := newRecorder()
			timer := newInstantTimer()
			a := generation.NewAdapter(p, rec, logging.New("test", os.Stderr),
				generation.WithTimer(func() backoff.Timer { return timer }),
			)

			res := a.Generate(context.Background(), "disco")

			assert.Equal(t, tc.expectedCalls, p.calls)
			assert.Len(t, timer.waits, tc.expectedWaits)
			for _, w := range timer.waits {
				assert.Equal(t, 10*time.Second, w)
			}
			if tc.fallback {
				assert.Equal(t, generation.Fallback("disco"), res)
				assert.Equal(t, 1, rec.count(metrics.GenerationFallback))
			} else {
				assert.Equal(t, "Disco Night", res.Title)
				assert.Equal(t, []string{"A", "B", "C"}, res.Tracks)
				assert.Equal(t, 0, rec.count(metrics.GenerationFallback))
			}
			assert.Equal(t, len(timer.waits), rec.count(metrics.AttemptFailed)-boolToInt(tc.fallback))
		})
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestGenerateOpenBreakerSkipsProvider(t *testing.T) {
	failures := make([]error, 20)
	for i := range failures {
		failures[i] = errDown
	}
	p := &scriptedProvider{results: failures}
	timer := newInstantTimer()
	a := generation.NewAdapter(p, newRecorder(), logging.New("test", os.Stderr),
		generation.WithTimer(func() backoff.Timer { return timer }),
	)

	for i := 0; i < 3; i++ {
		assert.Equal(t, generation.Fallback("jazz"), a.Generate(context.Background(), "jazz"))
	}
	// the breaker opens after five consecutive failures.
	assert.Equal(t, 5, p.calls)
}

func TestGenerateAttemptTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	a := generation.NewAdapter(generation.NewHTTPProvider(srv.URL, srv.Client()), newRecorder(), logging.New("test", os.Stderr),
		generation.WithTimeout(20*time.Millisecond),
		generation.WithDelay(time.Millisecond),
		generation.WithMaxAttempts(2),
	)

	start := time.Now()
	res := a.Generate(context.Background(), "rock")
	assert.Equal(t, generation.Fallback("rock"), res)
	assert.True(t, time.Since(start) < 900*time.Millisecond)
}

func TestFallback(t *testing.T) {
	tests := map[string]struct {
		style  string
		title  string
		tracks []string
	}{
		"disco": {"disco", "Disco Mix - Default", []string{"Track 1 - disco Vibes", "Track 2 - disco Energy", "Track 3 - disco Dreams"}},
		"jazz":  {"jazz", "Jazz Mix - Default", []string{"Track 1 - jazz Vibes", "Track 2 - jazz Energy", "Track 3 - jazz Dreams"}},
		"empty": {"", " Mix - Default", []string{"Track 1 -  Vibes", "Track 2 -  Energy", "Track 3 -  Dreams"}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			res := generation.Fallback(tc.style)
			assert.Equal(t, tc.title, res.Title)
			assert.Equal(t, tc.style, res.Style)
			assert.Equal(t, tc.tracks, res.Tracks)
			assert.Len(t, res.Tracks, generation.FallbackTrackCount)
		})
	}
}
