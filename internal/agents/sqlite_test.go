package agents

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lazypower/ecan/internal/atomspace"
	"github.com/lazypower/ecan/internal/store"
)

func sqliteStore(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestForgetLowestFirstSQLite(t *testing.T) {
	db := sqliteStore(t)
	atom1 := addNode(t, db, "Atom1", 0.5, 0.9)
	atom2 := addNode(t, db, "Atom2", 0.3, 0.8)
	atom3 := addNode(t, db, "Atom3", 0.2, 0.7)
	addLink(t, db, 0.8, 0.9, atom1, atom2)
	addLink(t, db, 0.7, 0.9, atom2, atom3)

	f := runForgetter(t, db, 2, 0.3)

	if diff := cmp.Diff([]atomspace.Handle{atom1}, handles(t, db)); diff != "" {
		t.Errorf("remaining (-want +got):\n%s", diff)
	}
	if rep := f.LastReport(); rep.SizeBefore != 5 || rep.SizeAfter != 1 {
		t.Errorf("sizes = %d -> %d, want 5 -> 1", rep.SizeBefore, rep.SizeAfter)
	}
}

func TestRentConservesTotalsSQLite(t *testing.T) {
	db := sqliteStore(t)
	a := addNode(t, db, "a", 0.1, 0.1)
	bn := addNode(t, db, "b", 0.9, 0.9)
	addLink(t, db, 0.7, 0.9, a, bn)
	setAV(t, db, a, atomspace.AttentionValue{STI: 50, LTI: 50})

	r, b, _ := testRent(t, db)
	b.SetSTIFunds(8000)

	sti0, lti0 := totals(t, db)
	sti0 += b.STIFunds()
	lti0 += b.LTIFunds()

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	sti1, lti1 := totals(t, db)
	if sti0 != sti1+b.STIFunds() || lti0 != lti1+b.LTIFunds() {
		t.Errorf("totals changed: sti %d -> %d, lti %d -> %d",
			sti0, sti1+b.STIFunds(), lti0, lti1+b.LTIFunds())
	}
	if rep := r.LastReport(); rep.Charged != 3 {
		t.Errorf("charged = %d, want 3", rep.Charged)
	}
}
