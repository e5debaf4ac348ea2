package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mitchfriedman/soirees/lib/logging"
	"github.com/mitchfriedman/soirees/lib/metrics"
	"github.com/mitchfriedman/soirees/lib/queue"
	"github.com/mitchfriedman/soirees/lib/soiree"
	"github.com/mitchfriedman/soirees/lib/tracing"
)

type publisher interface {
	Publish(ctx context.Context, req queue.GenerationRequest) error
}

func soireeErr(err error) error {
	if errors.Cause(err) == soiree.ErrNotFound {
		return Error(http.StatusNotFound, err.Error())
	}
	return err
}

func BuildListSoireesHandler(repo soiree.Repo, logger logging.StructuredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		span, ctx := tracing.NewServiceSpan(r.Context(), "list_soirees")
		defer span.Finish()

		all, err := repo.List(ctx)
		if err != nil {
			span.RecordError(err)
			logger.WithError(err).Error("failed to list soirees")
			respondErr(w, err)
			return
		}
		respond(w, http.StatusOK, all)
	}
}

func BuildGetSoireeHandler(repo soiree.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		span, ctx := tracing.NewServiceSpan(r.Context(), "get_soiree")
		defer span.Finish()
		span.SetTag("id", id)

		s, err := repo.Get(ctx, id)
		if err != nil {
			respondErr(w, soireeErr(err))
			return
		}
		respond(w, http.StatusOK, s)
	}
}

// BuildCreateSoireeHandler stores the soiree and then asks for its playlist.
// A failed publish is logged and counted; the soiree stays created.
func BuildCreateSoireeHandler(repo soiree.Repo, pub publisher, recorder metrics.Recorder, logger logging.StructuredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		span, ctx := tracing.NewServiceSpan(r.Context(), "create_soiree")
		defer span.Finish()

		var s soiree.Soiree
		if err := decode(r, &s); err != nil {
			respondErr(w, err)
			return
		}
		s.ID = ""

		if err := repo.Create(ctx, &s); err != nil {
			span.RecordError(err)
			logger.WithError(err).Error("failed to create soiree")
			respondErr(w, err)
			return
		}
		span.SetTag("id", s.ID)

		req := queue.GenerationRequest{
			SoireeID:  s.ID,
			ClientID:  s.ClientID,
			Style:     s.Style,
			Timestamp: time.Now().UTC(),
		}
		if err := pub.Publish(ctx, req); err != nil {
			recorder.Incr(metrics.PublishFailed, nil, 1)
			tracing.CorrelatedLogger(ctx, logger).WithError(err).WithField("soiree_id", s.ID).
				Error("failed to publish generation request")
		}

		respond(w, http.StatusCreated, s)
	}
}

func BuildUpdateSoireeHandler(repo soiree.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		span, ctx := tracing.NewServiceSpan(r.Context(), "update_soiree")
		defer span.Finish()
		span.SetTag("id", id)

		var patch soiree.Patch
		if err := decode(r, &patch); err != nil {
			respondErr(w, err)
			return
		}

		s, err := repo.Update(ctx, id, patch)
		if err != nil {
			respondErr(w, soireeErr(err))
			return
		}
		respond(w, http.StatusOK, s)
	}
}

func BuildDeleteSoireeHandler(repo soiree.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		span, ctx := tracing.NewServiceSpan(r.Context(), "delete_soiree")
		defer span.Finish()
		span.SetTag("id", id)

		if err := repo.Delete(ctx, id); err != nil {
			respondErr(w, soireeErr(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
