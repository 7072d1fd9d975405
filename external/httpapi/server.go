// Package httpapi exposes the service boundaries: session creation, the
// vendor lifecycle webhook, the live turn stream (WebSocket), transcript
// readback, health, and metrics.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/halcyonlabs/meetscribe/internal/ingest"
	"github.com/halcyonlabs/meetscribe/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	store   store.Store
	gateway *ingest.Gateway
	router  *mux.Router
}

func NewServer(s store.Store, gateway *ingest.Gateway) *Server {
	srv := &Server{store: s, gateway: gateway}
	srv.router = srv.routes()
	return srv
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/v1/sessions", s.handleCreateSession).Methods(http.MethodPost)
	r.HandleFunc("/v1/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	r.HandleFunc("/v1/sessions/{id}/transcript", s.handleGetTranscript).Methods(http.MethodGet)
	r.HandleFunc("/v1/meetings/notify", s.handleNotify).Methods(http.MethodPost)
	r.HandleFunc("/v1/stream", s.handleStream).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}
