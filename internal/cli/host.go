package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lazypower/ecan/internal/agents"
	"github.com/lazypower/ecan/internal/atomspace"
	"github.com/lazypower/ecan/internal/bank"
	"github.com/lazypower/ecan/internal/config"
	"github.com/lazypower/ecan/internal/logging"
	"github.com/lazypower/ecan/internal/scheduler"
	"github.com/lazypower/ecan/internal/store"
)

// host is everything a command needs to run the agents.
type host struct {
	cfg    config.Config
	holder *config.Holder
	logger *zap.Logger

	store     atomspace.Store
	storeDesc string
	db        *store.DB // nil for the in-memory graph

	bank      *bank.Bank
	rent      *agents.RentCollector
	forgetter *agents.Forgetter
	sched     *scheduler.Scheduler
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}

// newHost opens the graph, restores the bank and wires
// the agents. The caller owns Close.
func newHost(ctx context.Context, cfg config.Config, logger *zap.Logger) (*host, error) {
	h := &host{
		cfg:    cfg,
		holder: config.NewHolder(cfg),
		logger: logging.OrNop(logger),
		bank:   bank.New(cfg.ECAN.StartingSTIFunds, cfg.ECAN.StartingLTIFunds),
	}

	if err := h.openStore(ctx); err != nil {
		return nil, err
	}

	h.rent = agents.NewRentCollector(h.store, h.bank, h.holder, h.logger)
	h.forgetter = agents.NewForgetter(h.store, h.logger)

	steps := []scheduler.Agent{h.rent, &liveForgetter{Forgetter: h.forgetter, holder: h.holder}}
	if h.db != nil {
		steps = append(steps, store.FundsCheckpoint{DB: h.db, Bank: h.bank})
	}
	h.sched = scheduler.New(cfg.Scheduler.Interval, h.logger, steps...)
	return h, nil
}

func (h *host) openStore(ctx context.Context) error {
	dbPath := h.cfg.Database.Path
	if useMemory || dbPath == ":memory:" {
		h.store = atomspace.NewMemoryStore()
		h.storeDesc = "memory"
		return nil
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	snap, ok, err := db.LoadFunds(ctx)
	if err != nil {
		db.Close()
		return fmt.Errorf("restore funds: %w", err)
	}
	if ok {
		h.bank.SetSTIFunds(snap.STIFunds)
		h.bank.SetLTIFunds(snap.LTIFunds)
	}

	h.store = db
	h.db = db
	h.storeDesc = dbPath
	return nil
}

// Close saves the bank and releases the graph.
func (h *host) Close() error {
	if h.db == nil {
		return nil
	}
	if err := h.db.SaveFunds(context.Background(), h.bank.Snapshot()); err != nil {
		h.logger.Warn("save funds on close", zap.Error(err))
	}
	return h.db.Close()
}

// liveForgetter picks up forgetting settings from the holder before every
// run, so a config reload takes effect at the next cycle.
type liveForgetter struct {
	*agents.Forgetter
	holder *config.Holder
}

func (f *liveForgetter) Run(ctx context.Context) error {
	if err := f.Configure(f.holder.Get().Forgetting); err != nil {
		return fmt.Errorf("forgetting: %w", err)
	}
	return f.Forgetter.Run(ctx)
}
