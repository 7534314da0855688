package advisor

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/simwidget/autoflight/internal/learning"
	"github.com/simwidget/autoflight/internal/metrics"
	"github.com/simwidget/autoflight/internal/state"
	"github.com/simwidget/autoflight/internal/telemetry"
	"github.com/simwidget/autoflight/internal/tuning"
)

// Advisor produces a free-text response to an advisory prompt. Implemented
// by the HTTP client; the LLM behind it is an external collaborator.
type Advisor interface {
	Advise(ctx context.Context, prompt string) (string, error)
}

// Loop periodically assembles the advisory context, calls the advisor, and
// applies whatever directives parse cleanly. It runs as its own goroutine so
// a slow advisor call never stalls the decision or reapply loops; results
// land through the stores' own locks.
type Loop struct {
	advisor      Advisor
	tuning       *tuning.Store
	learnings    *learning.Store
	history      *telemetry.History
	frames       *state.Manager
	interval     time.Duration
	attemptLimit int
}

// NewLoop wires an advisory Loop. history may be nil when no attempt
// history is available.
func NewLoop(a Advisor, t *tuning.Store, l *learning.Store, h *telemetry.History, frames *state.Manager, interval time.Duration, attemptLimit int) *Loop {
	if interval <= 0 {
		interval = time.Minute
	}
	if attemptLimit <= 0 {
		attemptLimit = 5
	}
	return &Loop{
		advisor:      a,
		tuning:       t,
		learnings:    l,
		history:      h,
		frames:       frames,
		interval:     interval,
		attemptLimit: attemptLimit,
	}
}

// Run blocks, cycling once per interval until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.cycle(ctx)
		}
	}
}

func (l *Loop) cycle(ctx context.Context) {
	prompt := BuildPrompt(l.collect())

	resp, err := l.advisor.Advise(ctx, prompt)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Printf("advisor: advise call: %v", err)
		}
		return
	}

	directives, malformed := Parse(resp)
	if malformed > 0 {
		metrics.AdvisoryParseFailures.Inc()
		log.Printf("advisor: discarded %d malformed directive(s)", malformed)
	}
	l.apply(directives)
	metrics.AdvisoryCycles.Inc()
}

func (l *Loop) collect() Bundle {
	b := Bundle{
		Parameters: l.tuning.Params(),
		Learnings:  l.learnings.Entries(),
	}

	if frame, err := l.frames.Frame(); err == nil {
		b.Frame = &frame
	}

	if l.history != nil {
		attempts, err := l.history.LastN(l.attemptLimit)
		if err != nil {
			log.Printf("advisor: load attempt history: %v", err)
		} else {
			b.Attempts = attempts
		}
		if outcome, ok, err := l.history.LastOutcome(); err == nil && ok {
			b.LastOutcome = outcome
		}
	}
	return b
}

func (l *Loop) apply(d Directives) {
	if len(d.Tuning) > 0 {
		applied := l.tuning.BulkSet(d.Tuning)
		log.Printf("advisor: applied %d tuning update(s)", applied)
	}
	for _, lr := range d.Learnings {
		e := l.learnings.Add(lr.Text, lr.Confidence)
		log.Printf("advisor: learning #%d [%d%%] (x%d)", e.ID, e.Confidence, e.Reinforcement)
	}
	for _, id := range d.Forgets {
		if err := l.learnings.Remove(id); err != nil {
			log.Printf("advisor: forget #%d: %v", id, err)
			continue
		}
		log.Printf("advisor: forgot learning #%d", id)
	}
}
