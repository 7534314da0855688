package advisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/simwidget/autoflight/internal/learning"
	"github.com/simwidget/autoflight/internal/telemetry"
	"github.com/simwidget/autoflight/internal/tuning"
	"github.com/simwidget/autoflight/pkg/types"
)

// Bundle is everything one advisory cycle shows the advisor.
type Bundle struct {
	Frame       *types.StateFrame
	Parameters  []tuning.ParamView
	Learnings   []learning.Entry
	Attempts    []telemetry.Record
	LastOutcome telemetry.Outcome
}

// BuildPrompt renders the bundle plus the response grammar into the advisor
// prompt. The grammar section is the authoritative statement of the directive
// forms Parse accepts.
func BuildPrompt(b Bundle) string {
	var sb strings.Builder

	sb.WriteString("You advise an autonomous flight-control core on a small single-engine aircraft.\n")
	sb.WriteString("Review the telemetry below and respond with any of these directive lines:\n\n")
	sb.WriteString("  TUNING_JSON: {\"parameter_name\": value, ...}   (single line of JSON)\n")
	sb.WriteString("  LEARNING: [NN%] one observation worth remembering\n")
	sb.WriteString("  FORGET: #id\n\n")
	sb.WriteString("Any other text is ignored. Unknown parameter names are skipped; values are clamped to physical bounds.\n\n")

	sb.WriteString("## Current state\n")
	if b.Frame == nil {
		sb.WriteString("No fresh state frame available.\n")
	} else {
		writeFrame(&sb, *b.Frame)
	}

	sb.WriteString("\n## Tuning parameters\n")
	for _, p := range b.Parameters {
		marker := ""
		if p.Overridden {
			marker = " (overridden)"
		}
		fmt.Fprintf(&sb, "- %s = %g%s — %s (default %g)\n", p.Name, p.Current, marker, p.Description, p.Default)
	}

	sb.WriteString("\n## Learnings\n")
	if len(b.Learnings) == 0 {
		sb.WriteString("None yet.\n")
	}
	for _, e := range b.Learnings {
		fmt.Fprintf(&sb, "- #%d [%d%%, x%d] %s\n", e.ID, e.Confidence, e.Reinforcement, e.Text)
	}

	if b.LastOutcome != "" {
		fmt.Fprintf(&sb, "\n## Last attempt outcome\n%s\n", b.LastOutcome)
	}

	sb.WriteString("\n## Recent takeoff attempts\n")
	if len(b.Attempts) == 0 {
		sb.WriteString("None recorded.\n")
	}
	for _, rec := range b.Attempts {
		blob, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		sb.Write(blob)
		sb.WriteByte('\n')
	}

	return sb.String()
}

func writeFrame(sb *strings.Builder, f types.StateFrame) {
	writeValue(sb, "altitude_ft", f.Altitude)
	writeValue(sb, "agl_ft", f.AltitudeAGL)
	writeValue(sb, "indicated_kt", f.IndicatedSpeed)
	writeValue(sb, "ground_speed_kt", f.GroundSpeed)
	writeValue(sb, "vertical_fpm", f.VerticalSpeed)
	writeValue(sb, "heading_deg", f.Heading)
	writeValue(sb, "pitch_deg", f.Pitch)
	writeValue(sb, "bank_deg", f.Bank)
	writeValue(sb, "engine_rpm", f.EngineRPM)
	writeValue(sb, "throttle_pct", f.Throttle)
	if f.OnGround.Known {
		fmt.Fprintf(sb, "- on_ground = %t\n", f.OnGround.V)
	}
}

func writeValue(sb *strings.Builder, name string, v types.Value) {
	if v.Known {
		fmt.Fprintf(sb, "- %s = %.1f\n", name, v.V)
	}
}
