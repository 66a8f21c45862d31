// Package agents implements the attention-economy maintenance agents:
// rent collection, which steers the bank's fund pools toward their targets
// by charging every element, and forgetting, which evicts low-value
// elements once the store grows past its capacity.
package agents

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lazypower/ecan/internal/atomspace"
	"github.com/lazypower/ecan/internal/bank"
	"github.com/lazypower/ecan/internal/config"
	"github.com/lazypower/ecan/internal/logging"
)

// ErrParamsNotLoaded is reported when rent is computed before LoadParams
// has ever succeeded. Rent falls back to zero.
var ErrParamsNotLoaded = errors.New("rent parameters not loaded")

// maxSurplusRatio bounds how much of the base rent a surplus can rebate.
const maxSurplusRatio = -0.99

// ParamSource supplies the current attention-economy parameters.
// *config.Holder satisfies it.
type ParamSource interface {
	ECAN() config.ECANConfig
}

// RentParams is the snapshot taken by LoadParams.
type RentParams struct {
	STIAtomRent    int64
	LTIAtomRent    int64
	TargetSTI      int64
	TargetLTI      int64
	STIFundsBuffer int64
	LTIFundsBuffer int64
}

// RentReport summarizes one rent collection run.
type RentReport struct {
	RunID        string `json:"run_id"`
	STIRent      int64  `json:"sti_rent"`
	LTIRent      int64  `json:"lti_rent"`
	Visited      int    `json:"visited"`
	Charged      int    `json:"charged"`
	Skipped      int    `json:"skipped"`
	STICollected int64  `json:"sti_collected"`
	LTICollected int64  `json:"lti_collected"`
}

// RentCollector charges every element in the store STI and LTI rent and
// credits the bank with what it collects.
type RentCollector struct {
	store  atomspace.Store
	bank   *bank.Bank
	source ParamSource
	logger *zap.Logger

	params RentParams
	loaded bool
	last   RentReport
}

// NewRentCollector wires a rent collector. Call LoadParams (or Run, which
// reloads) before computing rent.
func NewRentCollector(store atomspace.Store, b *bank.Bank, source ParamSource, logger *zap.Logger) *RentCollector {
	return &RentCollector{
		store:  store,
		bank:   b,
		source: source,
		logger: logging.OrNop(logger).Named("rent"),
	}
}

// Name identifies the agent to the scheduler.
func (r *RentCollector) Name() string { return "rent" }

// LoadParams snapshots the rent parameters from the source. Safe to call
// repeatedly; each call replaces the previous snapshot.
func (r *RentCollector) LoadParams() {
	if r.source == nil {
		return
	}
	c := r.source.ECAN()
	r.params = RentParams{
		STIAtomRent:    c.STIAtomRent,
		LTIAtomRent:    c.LTIAtomRent,
		TargetSTI:      c.TargetSTIFunds,
		TargetLTI:      c.TargetLTIFunds,
		STIFundsBuffer: c.STIFundsBuffer,
		LTIFundsBuffer: c.LTIFundsBuffer,
	}
	r.loaded = true
}

// Params returns the loaded parameters and whether LoadParams has run.
func (r *RentCollector) Params() (RentParams, bool) { return r.params, r.loaded }

// STIAtomRent is the loaded base STI rent.
func (r *RentCollector) STIAtomRent() int64 { return r.params.STIAtomRent }

// LTIAtomRent is the loaded base LTI rent.
func (r *RentCollector) LTIAtomRent() int64 { return r.params.LTIAtomRent }

// LastReport returns the summary of the most recent Run.
func (r *RentCollector) LastReport() RentReport { return r.last }

// Report is LastReport for callers that only know the agent interface.
func (r *RentCollector) Report() any { return r.last }

// CalculateSTIRent returns the per-element STI rent for the current bank
// balance: the base rent plus STIAdjustment. With funds at target it is
// exactly STIAtomRent.
func (r *RentCollector) CalculateSTIRent() int64 {
	if !r.loaded {
		return 0
	}
	return rentFor(r.params.STIAtomRent, r.STIAdjustment())
}

// CalculateLTIRent is the LTI counterpart of CalculateSTIRent.
func (r *RentCollector) CalculateLTIRent() int64 {
	if !r.loaded {
		return 0
	}
	return rentFor(r.params.LTIAtomRent, r.LTIAdjustment())
}

// STIAdjustment is the signed correction applied to the base STI rent.
// It is zero only when the STI funds sit exactly on target; a deficit
// yields a positive value, a surplus a negative one.
func (r *RentCollector) STIAdjustment() int64 {
	if !r.loaded {
		return 0
	}
	return deviationAdjustment(r.params.TargetSTI-r.bank.STIFunds(), r.params.STIFundsBuffer, r.params.STIAtomRent)
}

// LTIAdjustment is the LTI counterpart of STIAdjustment.
func (r *RentCollector) LTIAdjustment() int64 {
	if !r.loaded {
		return 0
	}
	return deviationAdjustment(r.params.TargetLTI-r.bank.LTIFunds(), r.params.LTIFundsBuffer, r.params.LTIAtomRent)
}

// deviationAdjustment scales base linearly by deviation/buffer, clamped to
// [maxSurplusRatio, 1], rounding away from zero with a magnitude of at
// least 1 whenever deviation is non-zero.
func deviationAdjustment(deviation, buffer, base int64) int64 {
	if deviation == 0 {
		return 0
	}
	if buffer <= 0 {
		buffer = 1
	}
	ratio := float64(deviation) / float64(buffer)
	ratio = math.Max(math.Min(ratio, 1), maxSurplusRatio)

	mag := int64(math.Ceil(math.Abs(float64(base) * ratio)))
	if mag < 1 {
		mag = 1
	}
	if deviation < 0 {
		return -mag
	}
	return mag
}

// rentFor combines base and adjustment. A positive base never yields a
// charge below 1.
func rentFor(base, adjustment int64) int64 {
	rent := base + adjustment
	if base > 0 && rent < 1 {
		rent = 1
	}
	return rent
}

// Run reloads the parameters, computes both rents once from the current
// balances, and charges every element. Each element's debit and the bank's
// matching credit are applied together, so the STI and LTI totals across
// elements and funds are unchanged. Elements that cannot be read or
// written are skipped; a store outage aborts the run.
func (r *RentCollector) Run(ctx context.Context) error {
	r.LoadParams()
	report := RentReport{RunID: uuid.NewString()}
	log := r.logger.With(zap.String("run", report.RunID))

	if !r.loaded {
		log.Warn("charging zero rent", zap.Error(ErrParamsNotLoaded))
	}
	report.STIRent = r.CalculateSTIRent()
	report.LTIRent = r.CalculateLTIRent()

	handles, err := r.store.GetByType(ctx, atomspace.TypeAtom, true)
	if err != nil {
		return fmt.Errorf("rent: list elements: %w", err)
	}

	for _, h := range handles {
		if err := ctx.Err(); err != nil {
			r.last = report
			return err
		}
		report.Visited++

		charged, err := r.charge(ctx, h, report.STIRent, report.LTIRent)
		if errors.Is(err, atomspace.ErrStoreUnavailable) {
			r.last = report
			return fmt.Errorf("rent: element %d: %w", h, err)
		}
		if err != nil {
			report.Skipped++
			log.Debug("skipping element", zap.Int64("handle", int64(h)), zap.Error(err))
			continue
		}
		if charged {
			report.Charged++
			report.STICollected += report.STIRent
			report.LTICollected += report.LTIRent
		}
	}

	r.last = report
	log.Info("rent collected",
		zap.Int64("sti_rent", report.STIRent),
		zap.Int64("lti_rent", report.LTIRent),
		zap.Int("visited", report.Visited),
		zap.Int("charged", report.Charged),
		zap.Int("skipped", report.Skipped),
		zap.Int64("sti_funds", r.bank.STIFunds()),
		zap.Int64("lti_funds", r.bank.LTIFunds()))
	return nil
}

// charge applies one element's rent. It reports false with a nil error
// when there is nothing to move.
func (r *RentCollector) charge(ctx context.Context, h atomspace.Handle, sti, lti int64) (bool, error) {
	e, err := r.store.Get(ctx, h)
	if err != nil {
		return false, err
	}
	if e.AV == nil {
		return false, fmt.Errorf("%s has no attention value: %w", e, atomspace.ErrInvalidState)
	}
	if sti == 0 && lti == 0 {
		return false, nil
	}

	av := *e.AV
	av.STI -= sti
	av.LTI -= lti
	if err := r.store.SetAttentionValue(ctx, h, av); err != nil {
		return false, err
	}
	r.bank.UpdateSTIFunds(sti)
	r.bank.UpdateLTIFunds(lti)
	return true, nil
}
