package agents

import (
	"context"
	"fmt"
	"testing"

	"github.com/lazypower/ecan/internal/atomspace"
	"github.com/lazypower/ecan/internal/bank"
	"github.com/lazypower/ecan/internal/config"
)

// faultyStore wraps a MemoryStore and fails or degrades selected handles.
type faultyStore struct {
	*atomspace.MemoryStore
	noAV     map[atomspace.Handle]bool
	noTV     map[atomspace.Handle]bool
	failSet  map[atomspace.Handle]bool
	downList bool
}

func newFaultyStore() *faultyStore {
	return &faultyStore{
		MemoryStore: atomspace.NewMemoryStore(),
		noAV:        map[atomspace.Handle]bool{},
		noTV:        map[atomspace.Handle]bool{},
		failSet:     map[atomspace.Handle]bool{},
	}
}

func (f *faultyStore) Get(ctx context.Context, h atomspace.Handle) (atomspace.Element, error) {
	e, err := f.MemoryStore.Get(ctx, h)
	if err != nil {
		return e, err
	}
	if f.noAV[h] {
		e.AV = nil
	}
	if f.noTV[h] {
		e.TV = nil
	}
	return e, nil
}

func (f *faultyStore) SetAttentionValue(ctx context.Context, h atomspace.Handle, av atomspace.AttentionValue) error {
	if f.failSet[h] {
		return fmt.Errorf("write %d refused", h)
	}
	return f.MemoryStore.SetAttentionValue(ctx, h, av)
}

func (f *faultyStore) GetByType(ctx context.Context, t atomspace.Type, subtypes bool) ([]atomspace.Handle, error) {
	if f.downList {
		return nil, fmt.Errorf("list: %w", atomspace.ErrStoreUnavailable)
	}
	return f.MemoryStore.GetByType(ctx, t, subtypes)
}

func (f *faultyStore) Count(ctx context.Context) (int, error) {
	if f.downList {
		return 0, fmt.Errorf("count: %w", atomspace.ErrStoreUnavailable)
	}
	return f.MemoryStore.Count(ctx)
}

func addNode(t *testing.T, s atomspace.Store, name string, strength, confidence float64) atomspace.Handle {
	t.Helper()
	ctx := context.Background()
	h, err := s.AddNode(ctx, atomspace.TypeConceptNode, name)
	if err != nil {
		t.Fatalf("AddNode %s: %v", name, err)
	}
	if err := s.SetTruthValue(ctx, h, atomspace.TruthValue{Strength: strength, Confidence: confidence}); err != nil {
		t.Fatalf("SetTruthValue %s: %v", name, err)
	}
	return h
}

func addLink(t *testing.T, s atomspace.Store, strength, confidence float64, outgoing ...atomspace.Handle) atomspace.Handle {
	t.Helper()
	ctx := context.Background()
	h, err := s.AddLink(ctx, atomspace.TypeInheritanceLink, outgoing...)
	if err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if err := s.SetTruthValue(ctx, h, atomspace.TruthValue{Strength: strength, Confidence: confidence}); err != nil {
		t.Fatalf("SetTruthValue link: %v", err)
	}
	return h
}

func setAV(t *testing.T, s atomspace.Store, h atomspace.Handle, av atomspace.AttentionValue) {
	t.Helper()
	if err := s.SetAttentionValue(context.Background(), h, av); err != nil {
		t.Fatalf("SetAttentionValue: %v", err)
	}
}

func handles(t *testing.T, s atomspace.Store) []atomspace.Handle {
	t.Helper()
	hs, err := s.GetByType(context.Background(), atomspace.TypeAtom, true)
	if err != nil {
		t.Fatalf("GetByType: %v", err)
	}
	return hs
}

// totals sums STI and LTI across every element that has an attention value.
func totals(t *testing.T, s atomspace.Store) (sti, lti int64) {
	t.Helper()
	ctx := context.Background()
	for _, h := range handles(t, s) {
		e, err := s.Get(ctx, h)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if e.AV != nil {
			sti += e.AV.STI
			lti += e.AV.LTI
		}
	}
	return sti, lti
}

func testRent(t *testing.T, s atomspace.Store) (*RentCollector, *bank.Bank, *config.Holder) {
	t.Helper()
	cfg := config.Default()
	b := bank.New(cfg.ECAN.StartingSTIFunds, cfg.ECAN.StartingLTIFunds)
	h := config.NewHolder(cfg)
	return NewRentCollector(s, b, h, nil), b, h
}
