package engine

import "sync/atomic"

// Holder publishes the current engine to concurrent readers. Hot reload
// builds a complete replacement engine off to the side and swaps it in with
// a single atomic store, so in-flight requests keep the engine they
// started with and never observe a partially-rebuilt one.
type Holder struct {
	current atomic.Pointer[Engine]
}

// NewHolder creates a holder with an initial engine.
func NewHolder(e *Engine) *Holder {
	h := &Holder{}
	h.current.Store(e)
	return h
}

// Get returns the current engine.
func (h *Holder) Get() *Engine {
	return h.current.Load()
}

// Swap replaces the current engine and returns the previous one.
func (h *Holder) Swap(e *Engine) *Engine {
	return h.current.Swap(e)
}
