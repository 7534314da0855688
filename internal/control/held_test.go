package control

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	h := NewHeldAxes()
	h.Set(CmdElevator, -5)

	v, ok := h.Get(CmdElevator)
	require.True(t, ok)
	assert.Equal(t, -5.0, v)
}

func TestSetZeroRemovesEntry(t *testing.T) {
	h := NewHeldAxes()
	h.Set(CmdElevator, -5)
	h.Set(CmdElevator, 0)

	_, ok := h.Get(CmdElevator)
	assert.False(t, ok)

	// Repeated zero-sets are idempotent.
	h.Set(CmdElevator, 0)
	_, ok = h.Get(CmdElevator)
	assert.False(t, ok)
	assert.Empty(t, h.Snapshot())
}

func TestSnapshotStableOrder(t *testing.T) {
	h := NewHeldAxes()
	h.Set(CmdRudder, 3)
	h.Set(CmdElevator, -5)
	h.Set(CmdAileron, 1)

	snap := h.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, CmdElevator, snap[0].Type)
	assert.Equal(t, CmdAileron, snap[1].Type)
	assert.Equal(t, CmdRudder, snap[2].Type)
}

func TestRunReappliesHeldValues(t *testing.T) {
	h := NewHeldAxes()
	h.Set(CmdElevator, -5)
	h.Set(CmdAileron, 2)

	d := &mockDispatcher{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Run(ctx, time.Millisecond, d)
	}()

	// Several reapply ticks worth of time.
	assert.Eventually(t, func() bool {
		return len(d.callsFor(CmdElevator)) >= 3 && len(d.callsFor(CmdAileron)) >= 3
	}, time.Second, time.Millisecond)

	cancel()
	<-done

	for _, v := range d.callsFor(CmdElevator) {
		assert.Equal(t, -5.0, v)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	h := NewHeldAxes()
	d := &mockDispatcher{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Run(ctx, time.Millisecond, d)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reapply loop did not stop on cancel")
	}
}

func TestReleaseAllDispatchesZerosAndClears(t *testing.T) {
	h := NewHeldAxes()
	h.Set(CmdElevator, -5)
	h.Set(CmdRudder, 2)

	d := &mockDispatcher{}
	h.ReleaseAll(d)

	assert.Equal(t, []float64{0}, d.callsFor(CmdElevator))
	assert.Equal(t, []float64{0}, d.callsFor(CmdRudder))
	assert.Empty(t, h.Snapshot())
}

func TestReleaseAllWithEmptyRegistry(t *testing.T) {
	h := NewHeldAxes()
	d := &mockDispatcher{}
	h.ReleaseAll(d)
	assert.Zero(t, d.callCount())
}
