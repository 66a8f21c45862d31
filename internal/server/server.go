// Package server exposes read-only status of a running engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lazypower/ecan/internal/atomspace"
	"github.com/lazypower/ecan/internal/bank"
	"github.com/lazypower/ecan/internal/logging"
	"github.com/lazypower/ecan/internal/scheduler"
)

// StatusSource reports the scheduler's view of the agents.
type StatusSource interface {
	Status() scheduler.Status
}

type pinger interface {
	PingContext(ctx context.Context) error
}

// Server is the ecan status API server.
type Server struct {
	store   atomspace.Store
	bank    *bank.Bank
	sched   StatusSource
	logger  *zap.Logger
	router  chi.Router
	version string
	started time.Time
}

// New creates a Server. sched may be nil when no scheduler is running.
func New(store atomspace.Store, b *bank.Bank, sched StatusSource, version string, logger *zap.Logger) *Server {
	s := &Server{
		store:   store,
		bank:    b,
		sched:   sched,
		logger:  logging.OrNop(logger).Named("http"),
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/bank", s.handleBank)
		r.Get("/stats", s.handleStats)
		r.Get("/atoms/{handle}", s.handleAtom)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	storeOK := true
	if p, ok := s.store.(pinger); ok {
		if err := p.PingContext(r.Context()); err != nil {
			storeOK = false
		}
	}
	if _, err := s.store.Count(r.Context()); err != nil {
		storeOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"store":   storeOK,
	})
}

func (s *Server) handleBank(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.bank.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
