package rest

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/mitchfriedman/soirees/lib/discovery"
	"github.com/mitchfriedman/soirees/lib/logging"
)

var shutdownTimeout = 10 * time.Second

type Registrar interface {
	Register(ctx context.Context, reg discovery.Registration) error
	Deregister(ctx context.Context, id string) error
}

// Serve runs handler on ln until ctx is done. The service is registered
// once the listener is up and deregistered before the server shuts down.
// A failed registration is logged; the service keeps serving.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, reg discovery.Registration, registrar Registrar, logger logging.StructuredLogger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger = logger.WithField("service_id", reg.ID)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("listening on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "server stopped")
		}
		return nil
	})

	g.Go(func() error {
		if err := registrar.Register(gctx, reg); err != nil {
			logger.WithError(err).Warn("failed to register service")
		} else {
			logger.Info("service registered")
		}

		<-gctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := registrar.Deregister(ctx, reg.ID); err != nil {
			logger.WithError(err).Warn("failed to deregister service")
		}
		logger.Info("shutting down")
		return errors.Wrap(srv.Shutdown(ctx), "failed to shut down server")
	})

	return g.Wait()
}
