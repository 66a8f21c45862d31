package config

import "sync"

// Holder keeps the live configuration. Readers always see a complete
// Config; Store swaps it atomically.
type Holder struct {
	mu  sync.RWMutex
	cfg Config
}

// NewHolder returns a Holder seeded with cfg.
func NewHolder(cfg Config) *Holder {
	return &Holder{cfg: cfg}
}

// Get returns a copy of the current configuration.
func (h *Holder) Get() Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

// Store replaces the current configuration.
func (h *Holder) Store(cfg Config) {
	h.mu.Lock()
	h.cfg = cfg
	h.mu.Unlock()
}

// ECAN returns the current attention-economy parameters.
func (h *Holder) ECAN() ECANConfig {
	return h.Get().ECAN
}
