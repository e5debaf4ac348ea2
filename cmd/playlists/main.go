package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mitchfriedman/soirees/lib/app"
	"github.com/mitchfriedman/soirees/lib/config"
	"github.com/mitchfriedman/soirees/lib/playlist"
	"github.com/mitchfriedman/soirees/lib/rest"
)

func main() {
	a, err := app.New(config.ServicePlaylists, 3002)
	if err != nil {
		panic(err)
	}
	defer a.Close()
	logger := a.Logger

	var repo playlist.Repo
	if a.FileStore() {
		c, err := a.Collection("playlists")
		if err != nil {
			logger.WithError(err).Fatal("failed to open playlist store")
		}
		repo = playlist.NewFileStorage(c)
	} else {
		db, err := a.Database()
		if err != nil {
			logger.WithError(err).Fatal("failed to open database")
		}
		repo = playlist.NewDatabaseStorage(db)
	}

	router := rest.NewRouter(a.Config.Service.Name)
	rest.RegisterPlaylists(router, repo, logger)

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
