package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mitchfriedman/soirees/lib/app"
	"github.com/mitchfriedman/soirees/lib/config"
	"github.com/mitchfriedman/soirees/lib/engine"
	"github.com/mitchfriedman/soirees/lib/generation"
	"github.com/mitchfriedman/soirees/lib/playlist"
	"github.com/mitchfriedman/soirees/lib/queue"
	"github.com/mitchfriedman/soirees/lib/soiree"
	"github.com/mitchfriedman/soirees/lib/worker"
)

func main() {
	a, err := app.New(config.ServiceWorker, 0)
	if err != nil {
		panic(err)
	}
	defer a.Close()
	logger := a.Logger
	cfg := a.Config

	locator := a.Locator()
	records := &http.Client{Timeout: cfg.Store.Timeout}

	adapter := generation.NewAdapter(
		generation.NewHTTPProvider(cfg.Generation.URL, &http.Client{}),
		a.Statsd, logger,
		generation.WithMaxAttempts(cfg.Generation.MaxRetries),
		generation.WithDelay(cfg.Generation.RetryDelay),
		generation.WithTimeout(cfg.Generation.Timeout),
	)
	ex := engine.NewExecutor(adapter,
		playlist.NewClient(config.ServicePlaylists, locator, records),
		soiree.NewClient(config.ServiceSoirees, locator, records),
		a.Statsd, logger,
		engine.WithDefaultStyle(cfg.DefaultStyle),
	)

	w := worker.NewWorker(cfg.Service.Name, cfg.Service.Host)
	consumer := queue.NewConsumer(cfg.RabbitMQ.BrokerURL(), cfg.RabbitMQ.Queue, w.UUID, logger,
		queue.WithReconnectDelay(cfg.RabbitMQ.ReconnectDelay),
	)
	logger.WithField("broker", cfg.RabbitMQ.Redacted()).Info("consuming generation requests")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	heartbeats := make(chan worker.Heartbeat)
	go worker.NewHeartbeatProcessor(heartbeats, a.Registry, logger).Start(ctx)

	e := engine.NewEngine(w, ex, consumer, a.Registry, heartbeats, a.Statsd, logger)
	if err := e.Start(ctx); err != nil {
		logger.WithError(err).Error("worker stopped with error")
	}
}
