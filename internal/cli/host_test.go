package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lazypower/ecan/internal/atomspace"
	"github.com/lazypower/ecan/internal/config"
)

func seed(t *testing.T, s atomspace.Store) {
	t.Helper()
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		h, err := s.AddNode(ctx, atomspace.TypeConceptNode, name)
		if err != nil {
			t.Fatalf("AddNode: %v", err)
		}
		if err := s.SetTruthValue(ctx, h, atomspace.TruthValue{Strength: 0.1, Confidence: 0.5}); err != nil {
			t.Fatalf("SetTruthValue: %v", err)
		}
	}
}

func TestCycleInMemory(t *testing.T) {
	useMemory = true
	t.Cleanup(func() { useMemory = false })

	cfg := config.Default()
	cfg.Forgetting.MaxSize = 2

	h, err := newHost(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("newHost: %v", err)
	}
	defer h.Close()
	if h.db != nil {
		t.Fatal("expected in-memory graph")
	}
	seed(t, h.store)

	if err := h.sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	var out bytes.Buffer
	printCycle(&out, h)
	for _, want := range []string{"store:      memory", "3 charged", "3 -> 2 elements", "sti 10030"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, out.String())
		}
	}
}

func TestForgettingFollowsConfigReload(t *testing.T) {
	useMemory = true
	t.Cleanup(func() { useMemory = false })

	h, err := newHost(context.Background(), config.Default(), nil)
	if err != nil {
		t.Fatalf("newHost: %v", err)
	}
	defer h.Close()
	seed(t, h.store)

	cfg := config.Default()
	cfg.Forgetting.MaxSize = 1
	h.holder.Store(cfg)

	if err := h.sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if n, _ := h.store.Count(context.Background()); n != 1 {
		t.Errorf("Count = %d, want 1 after reload lowered max_size", n)
	}
}

func TestFundsSurviveRestart(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "ecan.db")
	ctx := context.Background()

	h, err := newHost(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("newHost: %v", err)
	}
	seed(t, h.store)
	if err := h.sched.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	want := h.bank.Snapshot()
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	h2, err := newHost(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer h2.Close()
	if got := h2.bank.Snapshot(); got != want {
		t.Errorf("funds after restart = %+v, want %+v", got, want)
	}
	if n, _ := h2.store.Count(ctx); n != 3 {
		t.Errorf("Count after restart = %d, want 3", n)
	}
}
