package agents

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lazypower/ecan/internal/atomspace"
	"github.com/lazypower/ecan/internal/config"
	"github.com/lazypower/ecan/internal/logging"
)

// Scorer rates an element's importance from its truth value. Lower scores
// are forgotten first.
type Scorer func(atomspace.TruthValue) float64

// StrengthScore ranks by truth-value strength alone.
func StrengthScore(tv atomspace.TruthValue) float64 { return tv.Strength }

// StrengthConfidenceScore ranks by strength weighted by confidence.
func StrengthConfidenceScore(tv atomspace.TruthValue) float64 {
	return tv.Strength * tv.Confidence
}

// ScorerFor maps a config policy name to a Scorer.
func ScorerFor(name string) (Scorer, error) {
	switch name {
	case "", "strength":
		return StrengthScore, nil
	case "strength_confidence":
		return StrengthConfidenceScore, nil
	default:
		return nil, fmt.Errorf("unknown scoring policy %q", name)
	}
}

// ForgetReport summarizes one forgetting run.
type ForgetReport struct {
	RunID      string             `json:"run_id"`
	SizeBefore int                `json:"size_before"`
	SizeAfter  int                `json:"size_after"`
	Candidates int                `json:"candidates"`
	Removed    []atomspace.Handle `json:"removed"` // elements targeted, not counting cascaded links
}

// Forgetter evicts the lowest-scoring disposable elements once the store
// holds more than MaxSize elements. Only elements scoring at or below
// ForgetThreshold are eligible; anything flagged NonDisposable, or
// referenced by a NonDisposable link, is kept.
type Forgetter struct {
	MaxSize         int
	ForgetThreshold float64
	Scorer          Scorer

	store  atomspace.Store
	logger *zap.Logger
	last   ForgetReport
}

// NewForgetter returns a Forgetter with strength scoring. Set MaxSize and
// ForgetThreshold, or call Configure, before Run.
func NewForgetter(store atomspace.Store, logger *zap.Logger) *Forgetter {
	return &Forgetter{
		Scorer: StrengthScore,
		store:  store,
		logger: logging.OrNop(logger).Named("forgetting"),
	}
}

// Configure copies the forgetting settings from cfg.
func (f *Forgetter) Configure(cfg config.ForgettingConfig) error {
	scorer, err := ScorerFor(cfg.Scoring)
	if err != nil {
		return err
	}
	f.MaxSize = cfg.MaxSize
	f.ForgetThreshold = cfg.ForgetThreshold
	f.Scorer = scorer
	return nil
}

// Name identifies the agent to the scheduler.
func (f *Forgetter) Name() string { return "forgetting" }

// LastReport returns the summary of the most recent Run.
func (f *Forgetter) LastReport() ForgetReport { return f.last }

// Report is LastReport for callers that only know the agent interface.
func (f *Forgetter) Report() any { return f.last }

type candidate struct {
	handle atomspace.Handle
	score  float64
}

// Run removes candidates in ascending score order, ties broken by handle
// (oldest first), until the store is back within MaxSize or no candidates
// remain. Removal is recursive: links referencing a removed element go
// with it.
func (f *Forgetter) Run(ctx context.Context) error {
	report := ForgetReport{RunID: uuid.NewString()}
	log := f.logger.With(zap.String("run", report.RunID))

	size, err := f.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("forgetting: count: %w", err)
	}
	report.SizeBefore, report.SizeAfter = size, size
	if size <= f.MaxSize {
		f.last = report
		return nil
	}

	cands, err := f.candidates(ctx, log)
	if err != nil {
		return err
	}
	report.Candidates = len(cands)

	for _, c := range cands {
		if size <= f.MaxSize {
			break
		}
		if err := ctx.Err(); err != nil {
			f.last = report
			return err
		}
		removed, err := f.store.Remove(ctx, c.handle, true)
		if err != nil {
			if errors.Is(err, atomspace.ErrStoreUnavailable) {
				f.last = report
				return fmt.Errorf("forgetting: remove %d: %w", c.handle, err)
			}
			log.Warn("remove failed", zap.Int64("handle", int64(c.handle)), zap.Error(err))
			continue
		}
		if !removed {
			// Already taken by an earlier cascade.
			continue
		}
		report.Removed = append(report.Removed, c.handle)
		if size, err = f.store.Count(ctx); err != nil {
			f.last = report
			return fmt.Errorf("forgetting: count: %w", err)
		}
		report.SizeAfter = size
	}

	f.last = report
	log.Info("forgetting pass",
		zap.Int("size_before", report.SizeBefore),
		zap.Int("size_after", report.SizeAfter),
		zap.Int("max_size", f.MaxSize),
		zap.Int("candidates", report.Candidates),
		zap.Int("removed", len(report.Removed)))
	return nil
}

func (f *Forgetter) candidates(ctx context.Context, log *zap.Logger) ([]candidate, error) {
	scorer := f.Scorer
	if scorer == nil {
		scorer = StrengthScore
	}

	handles, err := f.store.GetByType(ctx, atomspace.TypeAtom, true)
	if err != nil {
		return nil, fmt.Errorf("forgetting: list elements: %w", err)
	}

	var out []candidate
	for _, h := range handles {
		e, err := f.store.Get(ctx, h)
		if err != nil {
			if errors.Is(err, atomspace.ErrStoreUnavailable) {
				return nil, fmt.Errorf("forgetting: get %d: %w", h, err)
			}
			log.Debug("skipping element", zap.Int64("handle", int64(h)), zap.Error(err))
			continue
		}
		if e.TV == nil {
			log.Debug("skipping element",
				zap.Int64("handle", int64(h)),
				zap.Error(fmt.Errorf("%s has no truth value: %w", e, atomspace.ErrInvalidState)))
			continue
		}
		if e.AV == nil {
			log.Debug("skipping element",
				zap.Int64("handle", int64(h)),
				zap.Error(fmt.Errorf("%s has no attention value: %w", e, atomspace.ErrInvalidState)))
			continue
		}
		if e.Disposability() == atomspace.NonDisposable {
			continue
		}
		score := scorer(*e.TV)
		if score > f.ForgetThreshold {
			continue
		}
		protected, err := f.protected(ctx, h)
		if err != nil {
			if errors.Is(err, atomspace.ErrStoreUnavailable) {
				return nil, fmt.Errorf("forgetting: incoming %d: %w", h, err)
			}
			log.Debug("skipping element", zap.Int64("handle", int64(h)), zap.Error(err))
			continue
		}
		if protected {
			continue
		}
		out = append(out, candidate{handle: h, score: score})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score < out[j].score
		}
		return out[i].handle < out[j].handle
	})
	return out, nil
}

// protected reports whether removing h would cascade into a NonDisposable
// link, or a link whose disposability is unknown.
func (f *Forgetter) protected(ctx context.Context, h atomspace.Handle) (bool, error) {
	links, err := atomspace.IncomingClosure(ctx, f.store, h)
	if err != nil {
		return false, err
	}
	for _, l := range links {
		e, err := f.store.Get(ctx, l)
		if err != nil {
			return false, err
		}
		// A link without an attention value may be NonDisposable.
		if e.AV == nil || e.Disposability() == atomspace.NonDisposable {
			return true, nil
		}
	}
	return false, nil
}
