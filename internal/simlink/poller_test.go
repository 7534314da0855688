package simlink

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simwidget/autoflight/pkg/types"
)

type frameCapture struct {
	mu     sync.Mutex
	frames []types.StateFrame
}

func (c *frameCapture) Update(f types.StateFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
}

func (c *frameCapture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *frameCapture) last() types.StateFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames[len(c.frames)-1]
}

func TestRegisterSimVarsSendsEveryDefinition(t *testing.T) {
	c, server := pipeClient(t)
	p := NewPoller(c, &frameCapture{}, DefaultPollerConfig())

	done := make(chan error, 1)
	go func() { done <- p.RegisterSimVars() }()

	for range FrameSimVars {
		h, _ := readFrame(t, server)
		assert.Equal(t, uint32(MsgAddToDataDef), h.Type)
	}
	require.NoError(t, <-done)
}

func TestPollerFeedsDecodedFrames(t *testing.T) {
	c, server := pipeClient(t)
	capture := &frameCapture{}
	p := NewPoller(c, capture, PollerConfig{PollInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pollerDone := make(chan error, 1)
	go func() { pollerDone <- p.Start(ctx) }()

	// Answer the first data request with one frame, then keep draining.
	h, _ := readFrame(t, server)
	require.Equal(t, uint32(MsgRequestData), h.Type)

	payload := buildPayload([]float64{1500, 400, 72})
	_, err := server.Write(EncodeHeader(MsgSimObjectData, ReqIDFrame, len(payload)))
	require.NoError(t, err)
	_, err = server.Write(payload)
	require.NoError(t, err)

	// Drain further data requests so the poll loop never blocks on the pipe.
	go func() {
		buf := make([]byte, 256)
		for {
			if _, err := server.Read(buf); err != nil {
				return
			}
		}
	}()

	assert.Eventually(t, func() bool { return capture.count() >= 1 },
		time.Second, 5*time.Millisecond)

	f := capture.last()
	assert.Equal(t, 1500.0, f.Altitude.V)
	assert.Equal(t, 72.0, f.IndicatedSpeed.V)
	assert.False(t, f.OnGround.Known)

	cancel()
	select {
	case <-pollerDone:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}

func TestPollerStopsWhenConnectionCloses(t *testing.T) {
	c, server := pipeClient(t)
	p := NewPoller(c, &frameCapture{}, PollerConfig{PollInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pollerDone := make(chan error, 1)
	go func() { pollerDone <- p.Start(ctx) }()

	server.Close()

	select {
	case err := <-pollerDone:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after connection close")
	}
}
