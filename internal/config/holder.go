package config

import "sync/atomic"

// Holder provides lock-free access to the current Config and supports
// reloading it from the original YAML path. A failed reload keeps the old
// config in place.
type Holder struct {
	current atomic.Pointer[Config]
	path    string
}

// NewHolder wraps an already-loaded config together with its YAML path.
func NewHolder(cfg *Config, path string) *Holder {
	h := &Holder{path: path}
	h.current.Store(cfg)
	return h
}

// Get returns the current config snapshot.
func (h *Holder) Get() *Config {
	return h.current.Load()
}

// Reload re-runs the full load hierarchy from the stored path and swaps the
// snapshot in atomically. On any error the previous config stays active.
func (h *Holder) Reload() error {
	cfg, err := LoadFrom(h.path)
	if err != nil {
		return err
	}
	h.current.Store(cfg)
	return nil
}
