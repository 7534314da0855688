package simlink

import (
	"context"
	"log"
	"time"

	"github.com/simwidget/autoflight/pkg/types"
)

// FrameUpdater is implemented by state.Manager.
// Defined here (consuming side) to avoid import cycles.
type FrameUpdater interface {
	Update(frame types.StateFrame)
}

// PollerConfig holds configuration for the Poller.
type PollerConfig struct {
	PollInterval time.Duration
}

// DefaultPollerConfig returns a PollerConfig with sensible defaults.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{PollInterval: 33 * time.Millisecond}
}

// Poller manages periodic frame requests and feeds decoded frames to a
// FrameUpdater at roughly 30Hz.
type Poller struct {
	client  *Client
	updater FrameUpdater
	cfg     PollerConfig
}

// NewPoller creates a Poller backed by the given client and updater.
func NewPoller(client *Client, updater FrameUpdater, cfg PollerConfig) *Poller {
	return &Poller{client: client, updater: updater, cfg: cfg}
}

// RegisterSimVars calls AddToDataDefinition for each var in FrameSimVars.
func (p *Poller) RegisterSimVars() error {
	for _, sv := range FrameSimVars {
		if err := p.client.AddToDataDefinition(DefIDFrame, sv); err != nil {
			return err
		}
	}
	return nil
}

// Start blocks, sending periodic RequestData messages and processing
// responses. It exits when ctx is cancelled or the connection is closed.
func (p *Poller) Start(ctx context.Context) error {
	interval := p.cfg.PollInterval
	if interval == 0 {
		interval = 33 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	done := make(chan error, 1)
	go p.readLoop(done)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-done:
			return err
		case <-ticker.C:
			if err := p.client.RequestData(DefIDFrame, ObjectIDUser, ReqIDFrame); err != nil {
				return err
			}
		}
	}
}

// readLoop reads responses from the simulator and dispatches them to the updater.
func (p *Poller) readLoop(done chan<- error) {
	for {
		h, data, err := p.client.ReadNext()
		if err != nil {
			done <- err
			return
		}
		switch h.Type {
		case MsgSimObjectData:
			if h.ID == ReqIDFrame {
				frame, err := ParseFramePayload(data)
				if err != nil {
					log.Printf("simlink: parse frame payload: %v", err)
					continue
				}
				p.updater.Update(frame)
			}
		case MsgException:
			log.Printf("simlink: received exception message (id=%d)", h.ID)
		}
	}
}
