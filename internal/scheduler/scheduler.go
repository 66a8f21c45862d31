// Package scheduler drives the maintenance agents on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lazypower/ecan/internal/atomspace"
	"github.com/lazypower/ecan/internal/logging"
)

// Agent is one maintenance pass over the store.
type Agent interface {
	Name() string
	Run(ctx context.Context) error
}

// Reporter is implemented by agents that summarize their last run.
type Reporter interface {
	Report() any
}

// AgentStatus is the outcome of an agent's most recent run.
type AgentStatus struct {
	Name     string        `json:"name"`
	Runs     int64         `json:"runs"`
	LastRun  time.Time     `json:"last_run"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
	Report   any           `json:"report,omitempty"`
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	Interval time.Duration `json:"interval_ns"`
	Cycles   int64         `json:"cycles"`
	Agents   []AgentStatus `json:"agents"`
}

// Scheduler runs its agents in order, once per cycle.
type Scheduler struct {
	interval time.Duration
	agents   []Agent
	logger   *zap.Logger

	mu     sync.RWMutex
	cycles int64
	status map[string]AgentStatus
}

// New returns a scheduler that runs agents every interval.
func New(interval time.Duration, logger *zap.Logger, agents ...Agent) *Scheduler {
	return &Scheduler{
		interval: interval,
		agents:   agents,
		logger:   logging.OrNop(logger).Named("scheduler"),
		status:   make(map[string]AgentStatus, len(agents)),
	}
}

// RunOnce runs every agent once, in order. A failing agent does not stop
// the ones after it, except when the store is unavailable or ctx is done.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var errs []error
	for _, a := range s.agents {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		err := a.Run(ctx)
		s.record(a, start, err)

		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		errs = append(errs, fmt.Errorf("%s: %w", a.Name(), err))
		if errors.Is(err, atomspace.ErrStoreUnavailable) {
			break
		}
	}

	s.mu.Lock()
	s.cycles++
	s.mu.Unlock()
	return errors.Join(errs...)
}

func (s *Scheduler) record(a Agent, start time.Time, err error) {
	st := AgentStatus{
		Name:     a.Name(),
		LastRun:  start,
		Duration: time.Since(start),
	}
	if err != nil {
		st.Error = err.Error()
	}
	if r, ok := a.(Reporter); ok {
		st.Report = r.Report()
	}

	s.mu.Lock()
	st.Runs = s.status[st.Name].Runs + 1
	s.status[st.Name] = st
	s.mu.Unlock()
}

// Run runs a cycle immediately and then once per interval until ctx is
// done. Cycle errors are logged; the loop keeps going.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("scheduler: interval must be positive, got %s", s.interval)
	}

	s.cycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cycle(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	if err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("cycle failed", zap.Error(err))
	}
}

// Status returns the cycle count and each agent's last outcome, in the
// order the agents run.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{Interval: s.interval, Cycles: s.cycles}
	for _, a := range s.agents {
		if as, ok := s.status[a.Name()]; ok {
			st.Agents = append(st.Agents, as)
		}
	}
	return st
}
