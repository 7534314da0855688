// Package advisor runs the periodic tuning/learning feedback loop against an
// external advisor and owns its prompt and response grammar.
package advisor

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Learning is one parsed LEARNING directive.
type Learning struct {
	Confidence int
	Text       string
}

// Directives is the parsed, validated content of one advisor response.
type Directives struct {
	Tuning    map[string]float64
	Learnings []Learning
	Forgets   []int
}

// Empty reports whether no directive was parsed.
func (d Directives) Empty() bool {
	return len(d.Tuning) == 0 && len(d.Learnings) == 0 && len(d.Forgets) == 0
}

var (
	learningRe = regexp.MustCompile(`^\[(\d{1,3})%\]\s+(\S.*)$`)
	forgetRe   = regexp.MustCompile(`^#(\d+)$`)
)

// Parse scans an advisor response line by line for the three directive
// forms:
//
//	TUNING_JSON: {"name": value, ...}
//	LEARNING: [NN%] text
//	FORGET: #id
//
// The grammar is strict: a directive that does not match exactly is dropped
// whole and counted as malformed — a parse ambiguity is a no-op, never a
// best-effort guess. Prose lines that carry no directive prefix are ignored
// silently. Parse never fails; a fully unusable response just yields empty
// Directives with a nonzero malformed count.
func Parse(text string) (Directives, int) {
	d := Directives{Tuning: make(map[string]float64)}
	malformed := 0

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "TUNING_JSON:"):
			raw := strings.TrimSpace(strings.TrimPrefix(line, "TUNING_JSON:"))
			var values map[string]float64
			if err := json.Unmarshal([]byte(raw), &values); err != nil || len(values) == 0 {
				malformed++
				continue
			}
			for k, v := range values {
				d.Tuning[k] = v
			}

		case strings.HasPrefix(line, "LEARNING:"):
			raw := strings.TrimSpace(strings.TrimPrefix(line, "LEARNING:"))
			m := learningRe.FindStringSubmatch(raw)
			if m == nil {
				malformed++
				continue
			}
			conf, err := strconv.Atoi(m[1])
			if err != nil || conf > 100 {
				malformed++
				continue
			}
			d.Learnings = append(d.Learnings, Learning{Confidence: conf, Text: m[2]})

		case strings.HasPrefix(line, "FORGET:"):
			raw := strings.TrimSpace(strings.TrimPrefix(line, "FORGET:"))
			m := forgetRe.FindStringSubmatch(raw)
			if m == nil {
				malformed++
				continue
			}
			id, err := strconv.Atoi(m[1])
			if err != nil {
				malformed++
				continue
			}
			d.Forgets = append(d.Forgets, id)
		}
	}
	return d, malformed
}
