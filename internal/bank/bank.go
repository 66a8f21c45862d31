// Package bank holds the attention economy's two fund pools.
package bank

import "sync"

// Bank tracks the STI and LTI funds. Balances are signed; a negative
// balance signals a systemic deficit. Safe for concurrent reads while a
// single agent writes.
type Bank struct {
	mu  sync.RWMutex
	sti int64
	lti int64
}

// New returns a Bank seeded with the given balances.
func New(stiFunds, ltiFunds int64) *Bank {
	return &Bank{sti: stiFunds, lti: ltiFunds}
}

// STIFunds returns the current STI balance.
func (b *Bank) STIFunds() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sti
}

// LTIFunds returns the current LTI balance.
func (b *Bank) LTIFunds() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lti
}

// SetSTIFunds overwrites the STI balance.
func (b *Bank) SetSTIFunds(v int64) {
	b.mu.Lock()
	b.sti = v
	b.mu.Unlock()
}

// SetLTIFunds overwrites the LTI balance.
func (b *Bank) SetLTIFunds(v int64) {
	b.mu.Lock()
	b.lti = v
	b.mu.Unlock()
}

// UpdateSTIFunds adds delta to the STI balance and returns the new value.
func (b *Bank) UpdateSTIFunds(delta int64) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sti += delta
	return b.sti
}

// UpdateLTIFunds adds delta to the LTI balance and returns the new value.
func (b *Bank) UpdateLTIFunds(delta int64) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lti += delta
	return b.lti
}

// Snapshot is a point-in-time copy of both balances.
type Snapshot struct {
	STIFunds int64 `json:"sti_funds"`
	LTIFunds int64 `json:"lti_funds"`
}

// Snapshot reads both balances under one lock.
func (b *Bank) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Snapshot{STIFunds: b.sti, LTIFunds: b.lti}
}
