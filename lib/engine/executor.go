package engine

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/mitchfriedman/soirees/lib/generation"
	"github.com/mitchfriedman/soirees/lib/logging"
	"github.com/mitchfriedman/soirees/lib/metrics"
	"github.com/mitchfriedman/soirees/lib/playlist"
	"github.com/mitchfriedman/soirees/lib/queue"
	"github.com/mitchfriedman/soirees/lib/soiree"
	"github.com/mitchfriedman/soirees/lib/tracing"
)

var (
	ErrPersist = errors.New("failed to persist playlist")
	ErrDecode  = errors.New("undecodable message")
)

type Generator interface {
	Generate(ctx context.Context, style string) generation.Result
}

type PlaylistStore interface {
	Create(ctx context.Context, p *playlist.Playlist) (*playlist.Playlist, error)
	ListByEvent(ctx context.Context, eventID string) ([]*playlist.Playlist, error)
}

type EventLinker interface {
	LinkPlaylist(ctx context.Context, soireeID, playlistID string) (*soiree.Soiree, error)
}

// Executor turns one generation request into a stored playlist linked to
// its soiree.
type Executor struct {
	gen          Generator
	playlists    PlaylistStore
	events       EventLinker
	recorder     metrics.Recorder
	logger       logging.StructuredLogger
	defaultStyle string
}

type ExecutorOption func(*Executor)

func WithDefaultStyle(style string) ExecutorOption {
	return func(e *Executor) {
		e.defaultStyle = style
	}
}

func NewExecutor(gen Generator, playlists PlaylistStore, events EventLinker, recorder metrics.Recorder, logger logging.StructuredLogger, opts ...ExecutorOption) *Executor {
	e := &Executor{
		gen:          gen,
		playlists:    playlists,
		events:       events,
		recorder:     recorder,
		logger:       logger,
		defaultStyle: "disco",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute generates, stores and links a playlist for req. Only a storage
// failure is returned; a failed link is logged and counted.
func (x *Executor) Execute(ctx context.Context, req queue.GenerationRequest) (p *playlist.Playlist, err error) {
	span, ctx := tracing.NewServiceSpan(ctx, "executor.execute")
	defer func() {
		span.RecordError(err)
		span.Finish()
	}()
	span.SetTag("soiree_id", req.SoireeID)

	style := req.Style
	if style == "" {
		style = x.defaultStyle
	}
	logger := tracing.CorrelatedLogger(ctx, x.logger).
		WithField("soiree_id", req.SoireeID).
		WithField("client_id", req.ClientID).
		WithField("style", style)

	p = x.existing(ctx, req.SoireeID, logger)
	if p == nil {
		p, err = x.create(ctx, req.SoireeID, style)
		if err != nil {
			logger.WithError(err).Error("failed to store playlist")
			return nil, err
		}
		logger.WithField("playlist_id", p.ID).Info("playlist stored")
	}

	if _, err := x.events.LinkPlaylist(ctx, req.SoireeID, p.ID); err != nil {
		x.recorder.Incr(metrics.PropagationFailed, nil, 1)
		logger.WithError(err).WithField("playlist_id", p.ID).Warn("failed to link playlist to soiree")
		return p, nil
	}

	logger.WithField("playlist_id", p.ID).Info("playlist linked to soiree")
	return p, nil
}

// existing returns the playlist already stored for the soiree, if any. A
// lookup failure is treated as none found.
func (x *Executor) existing(ctx context.Context, soireeID string, logger logging.StructuredLogger) *playlist.Playlist {
	found, err := x.playlists.ListByEvent(ctx, soireeID)
	if err != nil {
		logger.WithError(err).Warn("failed to look up existing playlist")
		return nil
	}
	if len(found) == 0 {
		return nil
	}

	x.recorder.Incr(metrics.PlaylistReused, nil, 1)
	logger.WithField("playlist_id", found[0].ID).Info("reusing playlist already stored for soiree")
	return found[0]
}

func (x *Executor) create(ctx context.Context, soireeID, style string) (*playlist.Playlist, error) {
	res := x.gen.Generate(ctx, style)

	created, err := x.playlists.Create(ctx, &playlist.Playlist{
		Name:        res.Title,
		Styles:      playlist.StringList{res.Style},
		Description: fmt.Sprintf("Playlist generated for soiree %s", soireeID),
		Tracks:      playlist.StringList(res.Tracks),
		EventID:     soireeID,
	})
	if err != nil {
		return nil, errors.Wrapf(ErrPersist, "soiree %s: %v", soireeID, err)
	}
	return created, nil
}
