package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lazypower/ecan/internal/bank"
)

// LoadFunds returns the last saved fund balances. ok is false when none
// have been saved yet.
func (db *DB) LoadFunds(ctx context.Context) (snap bank.Snapshot, ok bool, err error) {
	err = db.QueryRowContext(ctx, `SELECT sti_funds, lti_funds FROM bank WHERE id = 1`).
		Scan(&snap.STIFunds, &snap.LTIFunds)
	if errors.Is(err, sql.ErrNoRows) {
		return bank.Snapshot{}, false, nil
	}
	if err != nil {
		return bank.Snapshot{}, false, unavailable("load funds", err)
	}
	return snap, true, nil
}

// SaveFunds records the fund balances, replacing any earlier save.
func (db *DB) SaveFunds(ctx context.Context, snap bank.Snapshot) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO bank (id, sti_funds, lti_funds, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sti_funds = excluded.sti_funds,
			lti_funds = excluded.lti_funds,
			updated_at = excluded.updated_at
	`, snap.STIFunds, snap.LTIFunds, time.Now().UnixMilli())
	if err != nil {
		return unavailable("save funds", err)
	}
	return nil
}

// FundsCheckpoint is a maintenance agent that saves the bank's balances
// after each cycle.
type FundsCheckpoint struct {
	DB   *DB
	Bank *bank.Bank
}

// Name identifies the agent to the scheduler.
func (c FundsCheckpoint) Name() string { return "checkpoint" }

// Run saves the current balances.
func (c FundsCheckpoint) Run(ctx context.Context) error {
	if err := c.DB.SaveFunds(ctx, c.Bank.Snapshot()); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}
