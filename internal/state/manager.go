package state

import (
	"sync"
	"time"

	"github.com/simwidget/autoflight/pkg/types"
)

// Manager holds a concurrent-safe cache of the latest state frame. The sim
// link poller writes it; the decision loop reads it once per tick.
type Manager struct {
	mu             sync.RWMutex
	frame          types.StateFrame
	lastUpdated    time.Time
	staleThreshold time.Duration
}

// NewManager creates a Manager with the given stale threshold.
// A zero threshold disables staleness checking.
func NewManager(staleThreshold time.Duration) *Manager {
	return &Manager{staleThreshold: staleThreshold}
}

// Update stores a new frame and records the current time.
func (m *Manager) Update(frame types.StateFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frame = frame
	m.lastUpdated = time.Now()
}

// Frame returns the cached frame, or ErrStale if no frame has been received
// yet or the data age exceeds the stale threshold.
func (m *Manager) Frame() (types.StateFrame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastUpdated.IsZero() {
		return types.StateFrame{}, ErrStale
	}
	if m.staleThreshold > 0 && time.Since(m.lastUpdated) > m.staleThreshold {
		return types.StateFrame{}, ErrStale
	}
	return m.frame, nil
}

// LastUpdated returns the time of the most recent Update, or zero if never updated.
func (m *Manager) LastUpdated() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastUpdated
}
