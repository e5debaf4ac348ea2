// Package discovery finds the address of sibling services and registers
// the running process with the service registry.
package discovery

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mitchfriedman/soirees/lib/logging"
)

var ErrServiceUnresolved = errors.New("service unresolved")

// Instance is one healthy member of a service.
type Instance struct {
	ID      string
	Address string
	Port    int
}

func (i Instance) URL() string {
	return fmt.Sprintf("http://%s:%d", i.Address, i.Port)
}

// Backend lists the instances of a service currently passing health checks.
type Backend interface {
	HealthyInstances(ctx context.Context, service string) ([]Instance, error)
}

type location struct {
	address    string
	resolvedAt time.Time
}

// Locator resolves service names to base URLs. Addresses found through the
// backend are cached for the TTL; fallback addresses are never cached.
type Locator struct {
	backend  Backend
	fallback map[string]string
	logger   logging.StructuredLogger

	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
	pick    func(n int) int

	mu    sync.Mutex
	cache map[string]location
}

type LocatorOption func(*Locator)

func WithTTL(d time.Duration) LocatorOption {
	return func(l *Locator) {
		l.ttl = d
	}
}

// WithTimeout bounds each backend query.
func WithTimeout(d time.Duration) LocatorOption {
	return func(l *Locator) {
		l.timeout = d
	}
}

func WithClock(now func() time.Time) LocatorOption {
	return func(l *Locator) {
		l.now = now
	}
}

// WithPicker replaces the random choice among healthy instances.
func WithPicker(pick func(n int) int) LocatorOption {
	return func(l *Locator) {
		l.pick = pick
	}
}

func NewLocator(backend Backend, fallback map[string]string, logger logging.StructuredLogger, opts ...LocatorOption) *Locator {
	l := &Locator{
		backend:  backend,
		fallback: fallback,
		logger:   logger,
		ttl:      30 * time.Second,
		timeout:  2 * time.Second,
		now:      time.Now,
		pick:     rand.Intn,
		cache:    make(map[string]location),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Resolve returns the base URL of one healthy instance of service.
func (l *Locator) Resolve(ctx context.Context, service string) (string, error) {
	if addr, ok := l.cached(service); ok {
		return addr, nil
	}

	instances, err := l.query(ctx, service)
	if err == nil && len(instances) > 0 {
		addr := instances[l.pick(len(instances))].URL()
		l.store(service, addr)
		return addr, nil
	}

	logger := l.logger.WithField("service", service)
	if err != nil {
		logger = logger.WithError(err)
	}

	if addr, ok := l.fallback[service]; ok {
		logger.WithField("address", addr).Warn("using fallback address")
		return addr, nil
	}

	logger.Error("no address for service")
	return "", errors.Wrap(ErrServiceUnresolved, service)
}

// Forget drops the cached address of service so the next Resolve asks the
// backend again.
func (l *Locator) Forget(service string) {
	l.mu.Lock()
	delete(l.cache, service)
	l.mu.Unlock()
}

func (l *Locator) cached(service string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	loc, ok := l.cache[service]
	if !ok || l.now().Sub(loc.resolvedAt) >= l.ttl {
		return "", false
	}
	return loc.address, true
}

func (l *Locator) store(service, addr string) {
	l.mu.Lock()
	l.cache[service] = location{address: addr, resolvedAt: l.now()}
	l.mu.Unlock()
}

type queryResult struct {
	instances []Instance
	err       error
}

// query stops waiting after the timeout even when the backend does not
// honour its context.
func (l *Locator) query(ctx context.Context, service string) ([]Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	res := make(chan queryResult, 1)
	go func() {
		instances, err := l.backend.HealthyInstances(ctx, service)
		res <- queryResult{instances: instances, err: err}
	}()

	select {
	case r := <-res:
		return r.instances, r.err
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), "discovery query for %s", service)
	}
}
