// Package mcp exposes the operator control surface over MCP stdio: enabling
// and disabling autonomous control, flight status, and the tuning/learning
// state, mirroring what the advisory loop sees.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/simwidget/autoflight/internal/learning"
	"github.com/simwidget/autoflight/internal/state"
	"github.com/simwidget/autoflight/internal/tuning"
	"github.com/simwidget/autoflight/pkg/types"
)

// Core is the subset of core.Controller the server drives.
type Core interface {
	Enable(ctx context.Context, cruiseAltitude float64) error
	Disable() error
	Enabled() bool
	CruiseAltitude() float64
	Phase() (types.Phase, types.TakeoffSubPhase)
}

// FrameGetter is the subset of state.Manager used by the server.
type FrameGetter interface {
	Frame() (types.StateFrame, error)
}

// Server wraps the MCP SDK server and exposes the autoflight tools.
type Server struct {
	sdk       *mcpsdk.Server
	core      Core
	frames    FrameGetter
	tuning    *tuning.Store
	learnings *learning.Store

	// runCtx bounds the loops started by enable_autoflight; the per-request
	// context would cancel them as soon as the tool call returns.
	runCtx context.Context
}

// NewServer creates a Server and registers the autoflight tools.
func NewServer(runCtx context.Context, core Core, frames FrameGetter, t *tuning.Store, l *learning.Store) *Server {
	s := &Server{
		sdk: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    "autoflight",
			Version: "1.0.0",
		}, nil),
		core:      core,
		frames:    frames,
		tuning:    t,
		learnings: l,
		runCtx:    runCtx,
	}

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "get_flight_status",
		Description: "Returns the current flight phase, autoflight state, and live aircraft data.",
	}, s.handleGetFlightStatus)
	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "enable_autoflight",
		Description: "Enables autonomous flight control with the given cruise altitude.",
	}, s.handleEnable)
	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "disable_autoflight",
		Description: "Disables autonomous flight control, releasing all held control axes.",
	}, s.handleDisable)
	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "list_learnings",
		Description: "Lists the stored flight learnings with confidence and reinforcement counts.",
	}, s.handleListLearnings)
	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "list_tuning",
		Description: "Lists the tuning parameters with defaults, current values, and descriptions.",
	}, s.handleListTuning)

	return s
}

// Run starts the MCP server over stdio and blocks until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.sdk.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect connects the server to an existing transport (used in tests).
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.sdk.Connect(ctx, t, nil)
}

type emptyInput struct{}

// FlightStatusResponse is the JSON payload returned by get_flight_status.
type FlightStatusResponse struct {
	Enabled        bool     `json:"enabled"`
	CruiseAltitude float64  `json:"cruise_altitude_ft"`
	Phase          string   `json:"phase"`
	SubPhase       string   `json:"sub_phase,omitempty"`
	FrameFresh     bool     `json:"frame_fresh"`
	AltitudeMSL    *float64 `json:"altitude_msl_ft,omitempty"`
	AltitudeAGL    *float64 `json:"altitude_agl_ft,omitempty"`
	IndicatedSpeed *float64 `json:"indicated_speed_kts,omitempty"`
	GroundSpeed    *float64 `json:"ground_speed_kts,omitempty"`
	VerticalSpeed  *float64 `json:"vertical_speed_fpm,omitempty"`
	Heading        *float64 `json:"heading_deg,omitempty"`
	OnGround       *bool    `json:"on_ground,omitempty"`
	Timestamp      string   `json:"timestamp"`
}

func (s *Server) handleGetFlightStatus(
	ctx context.Context,
	req *mcpsdk.CallToolRequest,
	input emptyInput,
) (*mcpsdk.CallToolResult, any, error) {
	ph, sub := s.core.Phase()
	resp := FlightStatusResponse{
		Enabled:        s.core.Enabled(),
		CruiseAltitude: s.core.CruiseAltitude(),
		Phase:          ph.String(),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}
	if ph == types.PhaseTakeoff {
		resp.SubPhase = sub.String()
	}

	frame, err := s.frames.Frame()
	if err == nil {
		resp.FrameFresh = true
		resp.AltitudeMSL = knownValue(frame.Altitude)
		resp.AltitudeAGL = knownValue(frame.AltitudeAGL)
		resp.IndicatedSpeed = knownValue(frame.IndicatedSpeed)
		resp.GroundSpeed = knownValue(frame.GroundSpeed)
		resp.VerticalSpeed = knownValue(frame.VerticalSpeed)
		resp.Heading = knownValue(frame.Heading)
		if frame.OnGround.Known {
			v := frame.OnGround.V
			resp.OnGround = &v
		}
	} else if !errors.Is(err, state.ErrStale) {
		return errorResult(err), nil, nil
	}

	return jsonResult(resp)
}

// enableInput holds arguments for the enable_autoflight tool.
type enableInput struct {
	CruiseAltitudeFt float64 `json:"cruise_altitude_ft,omitempty"`
}

func (s *Server) handleEnable(
	ctx context.Context,
	req *mcpsdk.CallToolRequest,
	input enableInput,
) (*mcpsdk.CallToolResult, any, error) {
	cruise := input.CruiseAltitudeFt
	if cruise <= 0 {
		cruise = 5000
	}
	if err := s.core.Enable(s.runCtx, cruise); err != nil {
		return errorResult(err), nil, nil
	}
	return jsonResult(map[string]any{
		"enabled":            true,
		"cruise_altitude_ft": cruise,
	})
}

func (s *Server) handleDisable(
	ctx context.Context,
	req *mcpsdk.CallToolRequest,
	input emptyInput,
) (*mcpsdk.CallToolResult, any, error) {
	if err := s.core.Disable(); err != nil {
		return errorResult(err), nil, nil
	}
	return jsonResult(map[string]any{"enabled": false})
}

func (s *Server) handleListLearnings(
	ctx context.Context,
	req *mcpsdk.CallToolRequest,
	input emptyInput,
) (*mcpsdk.CallToolResult, any, error) {
	return jsonResult(map[string]any{"learnings": s.learnings.Entries()})
}

func (s *Server) handleListTuning(
	ctx context.Context,
	req *mcpsdk.CallToolRequest,
	input emptyInput,
) (*mcpsdk.CallToolResult, any, error) {
	return jsonResult(map[string]any{"parameters": s.tuning.Params()})
}

func knownValue(v types.Value) *float64 {
	if !v.Known {
		return nil
	}
	x := v.V
	return &x
}

func jsonResult(v any) (*mcpsdk.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil, nil
}

func errorResult(err error) *mcpsdk.CallToolResult {
	data, _ := json.Marshal(map[string]any{
		"error":     err.Error(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
		IsError: true,
	}
}
