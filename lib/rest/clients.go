package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mitchfriedman/soirees/lib/client"
	"github.com/mitchfriedman/soirees/lib/logging"
	"github.com/mitchfriedman/soirees/lib/tracing"
)

func clientErr(err error) error {
	if errors.Cause(err) == client.ErrNotFound {
		return Error(http.StatusNotFound, err.Error())
	}
	return err
}

func BuildListClientsHandler(repo client.Repo, logger logging.StructuredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		span, ctx := tracing.NewServiceSpan(r.Context(), "list_clients")
		defer span.Finish()

		all, err := repo.List(ctx)
		if err != nil {
			span.RecordError(err)
			logger.WithError(err).Error("failed to list clients")
			respondErr(w, err)
			return
		}
		respond(w, http.StatusOK, all)
	}
}

func BuildGetClientHandler(repo client.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		span, ctx := tracing.NewServiceSpan(r.Context(), "get_client")
		defer span.Finish()
		span.SetTag("id", id)

		c, err := repo.Get(ctx, id)
		if err != nil {
			respondErr(w, clientErr(err))
			return
		}
		respond(w, http.StatusOK, c)
	}
}

func BuildCreateClientHandler(repo client.Repo, logger logging.StructuredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		span, ctx := tracing.NewServiceSpan(r.Context(), "create_client")
		defer span.Finish()

		var c client.Client
		if err := decode(r, &c); err != nil {
			respondErr(w, err)
			return
		}
		c.ID = ""

		if err := repo.Create(ctx, &c); err != nil {
			span.RecordError(err)
			logger.WithError(err).Error("failed to create client")
			respondErr(w, err)
			return
		}
		respond(w, http.StatusCreated, c)
	}
}

func BuildUpdateClientHandler(repo client.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		span, ctx := tracing.NewServiceSpan(r.Context(), "update_client")
		defer span.Finish()
		span.SetTag("id", id)

		var patch client.Patch
		if err := decode(r, &patch); err != nil {
			respondErr(w, err)
			return
		}

		c, err := repo.Update(ctx, id, patch)
		if err != nil {
			respondErr(w, clientErr(err))
			return
		}
		respond(w, http.StatusOK, c)
	}
}

func BuildDeleteClientHandler(repo client.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		span, ctx := tracing.NewServiceSpan(r.Context(), "delete_client")
		defer span.Finish()
		span.SetTag("id", id)

		if err := repo.Delete(ctx, id); err != nil {
			respondErr(w, clientErr(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
