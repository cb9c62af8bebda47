// Package httpapi is a thin HTTP adapter over the storage engine. It
// maps GET /, POST /set, GET /get/{key}, and DELETE /del/{key} onto
// the engine's public operations and is not part of the storage core:
// it only ever calls into engine.Engine, never reimplements any of its
// logic.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/avhimaz/kvengine/internal/engine"
)

// Server wraps a mux.Router bound to a single engine instance.
type Server struct {
	router *mux.Router
	store  *engine.Engine
}

// NewServer builds a Server that serves requests against store.
func NewServer(store *engine.Engine) *Server {
	s := &Server{
		router: mux.NewRouter(),
		store:  store,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/set", s.handleSet).Methods(http.MethodPost)
	s.router.HandleFunc("/get/{key}", s.handleGet).Methods(http.MethodGet)
	s.router.HandleFunc("/del/{key}", s.handleDel).Methods(http.MethodDelete)
}

// ListenAndServe starts an http.Server bound to addr using this
// Server's router. It blocks until the server stops.
func (s *Server) ListenAndServe(addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	logger.Info().Str("addr", addr).Msg("httpapi: listening")
	return httpServer.ListenAndServe()
}

// Router exposes the underlying mux.Router, chiefly for tests that
// want to drive requests through httptest without a live listener.
func (s *Server) Router() *mux.Router {
	return s.router
}
