package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mitchfriedman/soirees/lib/app"
	"github.com/mitchfriedman/soirees/lib/config"
	"github.com/mitchfriedman/soirees/lib/queue"
	"github.com/mitchfriedman/soirees/lib/rest"
	"github.com/mitchfriedman/soirees/lib/soiree"
)

func main() {
	a, err := app.New(config.ServiceSoirees, 3003)
	if err != nil {
		panic(err)
	}
	defer a.Close()
	logger := a.Logger
	cfg := a.Config

	var repo soiree.Repo
	if a.FileStore() {
		c, err := a.Collection("soirees")
		if err != nil {
			logger.WithError(err).Fatal("failed to open soiree store")
		}
		repo = soiree.NewFileStorage(c, cfg.DefaultStyle)
	} else {
		db, err := a.Database()
		if err != nil {
			logger.WithError(err).Fatal("failed to open database")
		}
		repo = soiree.NewDatabaseStorage(db, cfg.DefaultStyle)
	}

	// the broker is dialled on first publish so the service starts without it.
	pub := queue.NewPublisher(cfg.RabbitMQ.BrokerURL(), cfg.RabbitMQ.Queue, logger)
	defer pub.Close()
	logger.WithField("broker", cfg.RabbitMQ.Redacted()).Info("publishing generation requests")

	router := rest.NewRouter(cfg.Service.Name)
	rest.RegisterSoirees(router, repo, pub, a.Statsd, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := a.Listen()
	if err != nil {
		logger.WithError(err).Fatal("failed to listen")
	}
	if err := rest.Serve(ctx, ln, router, a.Registration(), a.Registry, logger); err != nil {
		logger.WithError(err).Error("server failed")
	}
}
