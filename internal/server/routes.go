package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lazypower/ecan/internal/atomspace"
	"github.com/lazypower/ecan/internal/bank"
	"github.com/lazypower/ecan/internal/scheduler"
)

type statsResponse struct {
	Elements  int               `json:"elements"`
	Bank      bank.Snapshot     `json:"bank"`
	Scheduler *scheduler.Status `json:"scheduler,omitempty"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Count(r.Context())
	if err != nil {
		s.logger.Warn("stats: count", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	resp := statsResponse{Elements: n, Bank: s.bank.Snapshot()}
	if s.sched != nil {
		st := s.sched.Status()
		resp.Scheduler = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

type atomResponse struct {
	Handle     atomspace.Handle          `json:"handle"`
	Type       atomspace.Type            `json:"type"`
	Name       string                    `json:"name,omitempty"`
	Outgoing   []atomspace.Handle        `json:"outgoing,omitempty"`
	Incoming   []atomspace.Handle        `json:"incoming,omitempty"`
	Truth      *atomspace.TruthValue     `json:"tv,omitempty"`
	Attention  *atomspace.AttentionValue `json:"av,omitempty"`
	Disposable bool                      `json:"disposable"`
}

func (s *Server) handleAtom(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "handle"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "handle must be an integer")
		return
	}
	h := atomspace.Handle(id)

	e, err := s.store.Get(r.Context(), h)
	if errors.Is(err, atomspace.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no such element")
		return
	}
	if err != nil {
		s.logger.Warn("atom: get", zap.Int64("handle", id), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	in, err := s.store.Incoming(r.Context(), h)
	if err != nil && !errors.Is(err, atomspace.ErrNotFound) {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, atomResponse{
		Handle:     e.Handle,
		Type:       e.Type,
		Name:       e.Name,
		Outgoing:   e.Outgoing,
		Incoming:   in,
		Truth:      e.TV,
		Attention:  e.AV,
		Disposable: e.Disposability() == atomspace.Disposable,
	})
}
