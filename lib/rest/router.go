package rest

import (
	"net/http"

	"gopkg.in/DataDog/dd-trace-go.v1/contrib/gorilla/mux"

	"github.com/mitchfriedman/soirees/lib/client"
	"github.com/mitchfriedman/soirees/lib/logging"
	"github.com/mitchfriedman/soirees/lib/metrics"
	"github.com/mitchfriedman/soirees/lib/playlist"
	"github.com/mitchfriedman/soirees/lib/soiree"
)

// NewRouter creates a traced mux with the health route registered.
func NewRouter(serviceName string) *mux.Router {
	router := mux.NewRouter(mux.WithServiceName(serviceName))
	router.HandleFunc("/health", BuildHealthcheckHandler(serviceName)).Methods(http.MethodGet)
	return router
}

func RegisterClients(router *mux.Router, repo client.Repo, logger logging.StructuredLogger) {
	router.HandleFunc("/api/clients", BuildListClientsHandler(repo, logger)).Methods(http.MethodGet)
	router.HandleFunc("/api/clients", BuildCreateClientHandler(repo, logger)).Methods(http.MethodPost)
	router.HandleFunc("/api/clients/{id}", BuildGetClientHandler(repo)).Methods(http.MethodGet)
	router.HandleFunc("/api/clients/{id}", BuildUpdateClientHandler(repo)).Methods(http.MethodPut)
	router.HandleFunc("/api/clients/{id}", BuildDeleteClientHandler(repo)).Methods(http.MethodDelete)
}

func RegisterPlaylists(router *mux.Router, repo playlist.Repo, logger logging.StructuredLogger) {
	router.HandleFunc("/api/playlists", BuildListPlaylistsHandler(repo, logger)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", BuildCreatePlaylistHandler(repo, logger)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}", BuildGetPlaylistHandler(repo)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}", BuildUpdatePlaylistHandler(repo)).Methods(http.MethodPut)
	router.HandleFunc("/api/playlists/{id}", BuildDeletePlaylistHandler(repo)).Methods(http.MethodDelete)
}

func RegisterSoirees(router *mux.Router, repo soiree.Repo, pub publisher, recorder metrics.Recorder, logger logging.StructuredLogger) {
	router.HandleFunc("/api/soirees", BuildListSoireesHandler(repo, logger)).Methods(http.MethodGet)
	router.HandleFunc("/api/soirees", BuildCreateSoireeHandler(repo, pub, recorder, logger)).Methods(http.MethodPost)
	router.HandleFunc("/api/soirees/{id}", BuildGetSoireeHandler(repo)).Methods(http.MethodGet)
	router.HandleFunc("/api/soirees/{id}", BuildUpdateSoireeHandler(repo)).Methods(http.MethodPut)
	router.HandleFunc("/api/soirees/{id}", BuildDeleteSoireeHandler(repo)).Methods(http.MethodDelete)
}
