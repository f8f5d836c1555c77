package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/web/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	apiPrefix   = "/api/v1"
	kindPattern = "{kind:open|confirm|close}"
)

// SetupRoutes registers every route on the root router. Subrouter routes inherit the
// prefix matcher, which turns a wrong method on a known path into 404 instead of 405.
func SetupRoutes(s *Server, limiter *middleware.RateLimiter) http.Handler {
	r := mux.NewRouter()
	limit := middleware.RateLimitMiddleware(limiter)

	api := func(path string, h http.HandlerFunc, method string) {
		r.Handle(apiPrefix+path, limit(h)).Methods(method)
	}

	api("/decode/"+kindPattern, s.CodecHandler.HandleDecode, http.MethodPost)
	api("/encode/"+kindPattern, s.CodecHandler.HandleEncode, http.MethodPost)
	api("/stream", s.Stream.HandleWebSocket, http.MethodGet)

	if s.ObservationHandler != nil {
		api("/observations", s.ObservationHandler.HandleList, http.MethodGet)
		api("/meshes/{mesh_id}/peers", s.ObservationHandler.HandlePeers, http.MethodGet)
	}

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	return r
}
