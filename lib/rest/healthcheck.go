package rest

import "net/http"

func BuildHealthcheckHandler(serviceName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := m{"status": "OK", "service": serviceName}
		respond(w, http.StatusOK, resp)
	}
}
