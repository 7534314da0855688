package control

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"
)

// HeldAxes is the registry of continuously reasserted analog outputs. The
// decision loop writes values into it through Queue.Flush; the reapply loop
// re-sends every held value at ~120Hz so the core keeps authority over an
// axis between decision ticks, overriding any competing external input.
//
// An entry exists only while its value is nonzero: setting an axis to
// exactly 0 removes the entry, returning the axis to external control.
type HeldAxes struct {
	mu     sync.Mutex
	values map[CommandType]float64

	logged bool // suppresses repeat dispatch-failure logging at reapply rate
}

// NewHeldAxes creates an empty registry.
func NewHeldAxes() *HeldAxes {
	return &HeldAxes{values: make(map[CommandType]float64)}
}

// Set records v as the held value for axis t. An exact 0 removes the entry;
// repeated zero-sets are idempotent.
func (h *HeldAxes) Set(t CommandType, v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if v == 0 {
		delete(h.values, t)
		return
	}
	h.values[t] = v
}

// Get returns the held value for t and whether t is currently held.
func (h *HeldAxes) Get(t CommandType) (float64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.values[t]
	return v, ok
}

// Snapshot returns the currently held axes in stable type order.
func (h *HeldAxes) Snapshot() []Command {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Command, 0, len(h.values))
	for t, v := range h.values {
		out = append(out, Command{Type: t, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Run re-sends every held axis value through d once per interval until ctx
// is done. Dispatch is best-effort: a failure is logged (once per failure
// streak, to avoid 120Hz log spam) and the value is simply retried on the
// next tick.
func (h *HeldAxes) Run(ctx context.Context, interval time.Duration, d Dispatcher) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.reapply(d)
		}
	}
}

func (h *HeldAxes) reapply(d Dispatcher) {
	for _, cmd := range h.Snapshot() {
		if err := d.Dispatch(cmd.Type, cmd.Value); err != nil {
			if !h.logged {
				log.Printf("control: reapply %s=%.2f: %v", cmd.Type, cmd.Value, err)
				h.logged = true
			}
			continue
		}
		h.logged = false
	}
}

// ReleaseAll dispatches an explicit 0 for every held axis and empties the
// registry. Called from disable() so no stale control input survives
// shutdown; dispatch failures are logged but the registry is cleared
// regardless.
func (h *HeldAxes) ReleaseAll(d Dispatcher) {
	for _, cmd := range h.Snapshot() {
		if err := d.Dispatch(cmd.Type, 0); err != nil {
			log.Printf("control: release %s: %v", cmd.Type, err)
		}
	}
	h.mu.Lock()
	h.values = make(map[CommandType]float64)
	h.mu.Unlock()
}
