package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mitchfriedman/soirees/lib/logging"
	"github.com/mitchfriedman/soirees/lib/playlist"
	"github.com/mitchfriedman/soirees/lib/tracing"
)

func playlistErr(err error) error {
	if errors.Cause(err) == playlist.ErrNotFound {
		return Error(http.StatusNotFound, err.Error())
	}
	return err
}

// BuildListPlaylistsHandler lists every playlist, or only those of one
// soiree when the eventId query parameter is set.
func BuildListPlaylistsHandler(repo playlist.Repo, logger logging.StructuredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		span, ctx := tracing.NewServiceSpan(r.Context(), "list_playlists")
		defer span.Finish()

		var all []*playlist.Playlist
		var err error
		if eventID := r.URL.Query().Get("eventId"); eventID != "" {
			span.SetTag("event_id", eventID)
			all, err = repo.ListByEvent(ctx, eventID)
		} else {
			all, err = repo.List(ctx)
		}
		if err != nil {
			span.RecordError(err)
			logger.WithError(err).Error("failed to list playlists")
			respondErr(w, err)
			return
		}
		respond(w, http.StatusOK, all)
	}
}

func BuildGetPlaylistHandler(repo playlist.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		span, ctx := tracing.NewServiceSpan(r.Context(), "get_playlist")
		defer span.Finish()
		span.SetTag("id", id)

		p, err := repo.Get(ctx, id)
		if err != nil {
			respondErr(w, playlistErr(err))
			return
		}
		respond(w, http.StatusOK, p)
	}
}

func BuildCreatePlaylistHandler(repo playlist.Repo, logger logging.StructuredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		span, ctx := tracing.NewServiceSpan(r.Context(), "create_playlist")
		defer span.Finish()

		var p playlist.Playlist
		if err := decode(r, &p); err != nil {
			respondErr(w, err)
			return
		}
		p.ID = ""
		span.SetTag("event_id", p.EventID)

		if err := repo.Create(ctx, &p); err != nil {
			span.RecordError(err)
			logger.WithError(err).Error("failed to create playlist")
			respondErr(w, err)
			return
		}
		respond(w, http.StatusCreated, p)
	}
}

func BuildUpdatePlaylistHandler(repo playlist.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		span, ctx := tracing.NewServiceSpan(r.Context(), "update_playlist")
		defer span.Finish()
		span.SetTag("id", id)

		var patch playlist.Patch
		if err := decode(r, &patch); err != nil {
			respondErr(w, err)
			return
		}

		p, err := repo.Update(ctx, id, patch)
		if err != nil {
			respondErr(w, playlistErr(err))
			return
		}
		respond(w, http.StatusOK, p)
	}
}

func BuildDeletePlaylistHandler(repo playlist.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		span, ctx := tracing.NewServiceSpan(r.Context(), "delete_playlist")
		defer span.Finish()
		span.SetTag("id", id)

		if err := repo.Delete(ctx, id); err != nil {
			respondErr(w, playlistErr(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
