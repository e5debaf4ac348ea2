package generation

import (
	"context"
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/mitchfriedman/soirees/lib/logging"
	"github.com/mitchfriedman/soirees/lib/metrics"
)

const (
	FallbackTrackCount = 3

	defaultMaxAttempts = 3
	defaultDelay       = 10 * time.Second
	defaultTimeout     = 90 * time.Second

	breakerTripAfter = 5
	breakerOpenFor   = time.Minute
)

var fallbackMoods = [FallbackTrackCount]string{"Vibes", "Energy", "Dreams"}

// Adapter turns a style into a playlist. It never fails: once the provider
// has been tried maxAttempts times, or the breaker is open, the
// deterministic fallback is returned.
//
// The breaker is shared by every request, so maxAttempts is an upper bound:
// a request stops early as soon as the breaker opens.
type Adapter struct {
	provider Provider
	recorder metrics.Recorder
	logger   logging.StructuredLogger
	breaker  *gobreaker.CircuitBreaker

	maxAttempts int
	delay       time.Duration
	timeout     time.Duration
	newTimer    func() backoff.Timer
}

type Option func(*Adapter)

// WithMaxAttempts sets the total number of provider calls, first one included.
func WithMaxAttempts(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

func WithDelay(d time.Duration) Option {
	return func(a *Adapter) {
		a.delay = d
	}
}

// WithTimeout bounds every single provider call.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		a.timeout = d
	}
}

// WithTimer replaces the timer used to wait between attempts.
func WithTimer(newTimer func() backoff.Timer) Option {
	return func(a *Adapter) {
		a.newTimer = newTimer
	}
}

func NewAdapter(p Provider, recorder metrics.Recorder, logger logging.StructuredLogger, opts ...Option) *Adapter {
	a := &Adapter{
		provider:    p,
		recorder:    recorder,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
		delay:       defaultDelay,
		timeout:     defaultTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "generation-provider",
		Timeout: breakerOpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= breakerTripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithField("breaker", name).Warnf("circuit breaker %s -> %s", from, to)
		},
	})
	return a
}

// Generate asks the provider for a playlist of style.
func (a *Adapter) Generate(ctx context.Context, style string) Result {
	logger := a.logger.WithField("style", style)

	attempt := 0
	var res Result
	op := func() error {
		attempt++
		r, err := a.fetch(ctx, style)
		if err == nil {
			res = r
			return nil
		}

		a.recorder.Incr(metrics.AttemptFailed, nil, 1)
		logger.WithError(err).WithField("attempt", attempt).Warn("provider attempt failed")
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(a.delay), uint64(a.maxAttempts-1)),
		ctx,
	)

	var err error
	if a.newTimer != nil {
		err = backoff.RetryNotifyWithTimer(op, b, nil, a.newTimer())
	} else {
		err = backoff.Retry(op, b)
	}
	if err == nil {
		return res
	}

	logger.WithError(err).WithField("attempts", attempt).Error("provider unavailable, using fallback playlist")
	a.recorder.Incr(metrics.GenerationFallback, nil, 1)
	return Fallback(style)
}

func (a *Adapter) fetch(ctx context.Context, style string) (Result, error) {
	out, err := a.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		return a.provider.Fetch(ctx, style)
	})
	if err != nil {
		return Result{}, err
	}
	return out.(Result), nil
}

// Fallback is the playlist used when the provider cannot be reached.
func Fallback(style string) Result {
	tracks := make([]string, 0, FallbackTrackCount)
	for i, mood := range fallbackMoods {
		tracks = append(tracks, fmt.Sprintf("Track %d - %s %s", i+1, style, mood))
	}
	return Result{
		Title:  fmt.Sprintf("%s Mix - Default", capitalize(style)),
		Style:  style,
		Tracks: tracks,
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
