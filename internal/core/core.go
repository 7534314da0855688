// Package core is the flight-control decision engine: it owns the 30Hz
// decision loop, the enable/disable boundary, and the wiring between phase
// classification, rule evaluation, command dispatch, and telemetry.
package core

import (
	"context"
	"errors"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/simwidget/autoflight/internal/advisor"
	"github.com/simwidget/autoflight/internal/control"
	"github.com/simwidget/autoflight/internal/learning"
	"github.com/simwidget/autoflight/internal/metrics"
	"github.com/simwidget/autoflight/internal/phase"
	"github.com/simwidget/autoflight/internal/rules"
	"github.com/simwidget/autoflight/internal/state"
	"github.com/simwidget/autoflight/internal/storage"
	"github.com/simwidget/autoflight/internal/telemetry"
	"github.com/simwidget/autoflight/internal/tuning"
	"github.com/simwidget/autoflight/pkg/types"
)

// Deps carries the collaborators the Controller is wired with. Frames,
// Dispatcher, and Tuning are required; History, Learnings, Advisor, and
// Clearance are optional.
type Deps struct {
	Frames     *state.Manager
	Dispatcher control.Dispatcher
	Tuning     *tuning.Store
	Learnings  *learning.Store
	History    *telemetry.History
	Advisor    advisor.Advisor
	Clearance  phase.Clearance

	StatePath        string
	DecisionInterval time.Duration
	ReapplyInterval  time.Duration
	SampleInterval   time.Duration
	AdvisoryInterval time.Duration
	AttemptLimit     int
}

// Controller runs the three timing domains: the decision loop, the held-axis
// reapply loop, and the advisory loop. Enable and Disable are the atomic
// external boundary; each loop observes cancellation at its next tick.
type Controller struct {
	deps      Deps
	machine   *phase.Machine
	registry  *rules.Registry
	held      *control.HeldAxes
	queue     *control.Queue
	recorder  *telemetry.Recorder
	stateFile *StateFile

	cruiseAltBits atomic.Uint64

	mu       sync.Mutex
	enabled  bool
	cancel   context.CancelFunc
	done     sync.WaitGroup
	phaseNow types.Phase
	subNow   types.TakeoffSubPhase
}

// New creates a Controller from deps.
func New(deps Deps) *Controller {
	c := &Controller{
		deps:      deps,
		held:      control.NewHeldAxes(),
		recorder:  telemetry.NewRecorder(deps.SampleInterval),
		stateFile: NewStateFile(deps.StatePath),
		phaseNow:  types.PhasePreflight,
	}
	c.queue = control.NewQueue(deps.Dispatcher, c.held)
	c.machine = phase.New(deps.Tuning, deps.Clearance, c.CruiseAltitude)
	c.registry = rules.NewRegistry(deps.Tuning, c.CruiseAltitude)
	return c
}

// Enabled reports whether the core currently holds control authority.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// CruiseAltitude returns the configured cruise altitude in feet MSL.
func (c *Controller) CruiseAltitude() float64 {
	return math.Float64frombits(c.cruiseAltBits.Load())
}

// Phase returns the current classification.
func (c *Controller) Phase() (types.Phase, types.TakeoffSubPhase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phaseNow, c.subNow
}

// HeldAxes returns the currently held axis commands.
func (c *Controller) HeldAxes() []control.Command {
	return c.held.Snapshot()
}

// Enable starts the decision, reapply, and advisory loops and persists
// {enabled:true, cruiseAltitude}. Enabling while enabled is a no-op.
func (c *Controller) Enable(ctx context.Context, cruiseAltitude float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.enabled {
		return nil
	}

	c.cruiseAltBits.Store(math.Float64bits(cruiseAltitude))
	// Persistence failure is logged, never blocks enabling: in-memory state
	// is authoritative and the next transition retries the write.
	if err := c.stateFile.Save(EngineState{Enabled: true, CruiseAltitude: cruiseAltitude}); err != nil {
		log.Printf("core: persist engine state: %v", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.enabled = true
	c.phaseNow = types.PhasePreflight
	c.subNow = types.SubNone

	c.done.Add(2)
	go func() {
		defer c.done.Done()
		c.decisionLoop(loopCtx)
	}()
	go func() {
		defer c.done.Done()
		c.held.Run(loopCtx, c.deps.ReapplyInterval, c.deps.Dispatcher)
	}()

	if c.deps.Advisor != nil {
		loop := advisor.NewLoop(
			c.deps.Advisor, c.deps.Tuning, c.deps.Learnings, c.deps.History,
			c.deps.Frames, c.deps.AdvisoryInterval, c.deps.AttemptLimit)
		c.done.Add(1)
		go func() {
			defer c.done.Done()
			loop.Run(loopCtx)
		}()
	}

	log.Printf("core: enabled, cruise altitude %.0fft", cruiseAltitude)
	return nil
}

// Disable stops all loops, dispatches an explicit zero for every held axis
// so no stale control input survives, and persists {enabled:false}.
// Disabling while disabled is a no-op.
func (c *Controller) Disable() error {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return nil
	}
	c.enabled = false
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	cancel()
	c.done.Wait()

	if c.recorder.Active() {
		c.finalizeAttempt(telemetry.OutcomeAborted, time.Now())
	}

	// ReleaseAll clears the registry, so even a reapply tick racing the
	// cancellation has nothing left to reassert after this.
	c.held.ReleaseAll(c.deps.Dispatcher)

	if err := c.stateFile.Save(EngineState{Enabled: false, CruiseAltitude: c.CruiseAltitude()}); err != nil {
		log.Printf("core: persist engine state: %v", err)
	}

	log.Printf("core: disabled, all held axes released")
	return nil
}

// Resume loads the persisted engine state and, if it was enabled, restarts
// autonomous control without an external Enable call (crash recovery).
func (c *Controller) Resume(ctx context.Context) error {
	st, err := c.stateFile.Load()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	if !st.Enabled {
		c.cruiseAltBits.Store(math.Float64bits(st.CruiseAltitude))
		return nil
	}
	log.Printf("core: resuming autonomous control from persisted state")
	return c.Enable(ctx, st.CruiseAltitude)
}

// decisionLoop is the 30Hz domain: classify phase, evaluate the phase's rule
// engine, enqueue and flush commands, and feed the attempt recorder. It must
// finish well inside its tick budget, so it never blocks on I/O beyond the
// fire-and-forget dispatch calls.
func (c *Controller) decisionLoop(ctx context.Context) {
	ticker := time.NewTicker(c.deps.DecisionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(time.Now())
		}
	}
}

func (c *Controller) tick(now time.Time) {
	frame, err := c.deps.Frames.Frame()
	if err != nil {
		// No fresh frame: skip the tick rather than act on stale data. The
		// reapply loop keeps the held axes asserted meanwhile.
		return
	}
	metrics.FramesProcessed.Inc()

	c.mu.Lock()
	prevPhase, prevSub := c.phaseNow, c.subNow
	c.mu.Unlock()

	ph, sub, changed := c.machine.Advance(frame, prevPhase, prevSub)
	if changed {
		log.Printf("core: phase %s/%s -> %s/%s", prevPhase, prevSub, ph, sub)
		metrics.PhaseTransitions.WithLabelValues(ph.String()).Inc()

		if ph == types.PhaseTakeoff && prevPhase != types.PhaseTakeoff {
			c.recorder.Start(now)
		}
		if prevPhase == types.PhaseTakeoff && ph != types.PhaseTakeoff && c.recorder.Active() {
			c.finalizeAttempt(attemptOutcome(prevSub, ph, frame), now)
		}

		c.mu.Lock()
		c.phaseNow, c.subNow = ph, sub
		c.mu.Unlock()
	}

	if c.recorder.Active() {
		c.recorder.Observe(frame, sub, now)
	}

	engine := c.registry.ForPhase(ph)
	if engine == nil {
		c.queue.Flush()
		return
	}

	cmds := engine.Evaluate(rules.Input{
		Phase:        ph,
		SubPhase:     sub,
		Frame:        frame,
		PhaseChanged: changed,
		Now:          now,
	})

	var elevator, aileron *float64
	for _, cmd := range cmds {
		c.queue.Enqueue(cmd)
		switch cmd.Type {
		case control.CmdElevator:
			v := cmd.Value
			elevator = &v
		case control.CmdAileron:
			v := cmd.Value
			aileron = &v
		}
	}
	c.recorder.ObserveSurface(elevator, aileron)

	c.queue.Flush()
}

func (c *Controller) finalizeAttempt(outcome telemetry.Outcome, now time.Time) {
	rec := c.recorder.Finalize(outcome, now)
	log.Printf("core: takeoff attempt %s finished: %s (%d sub-phases, %d samples)",
		rec.ID, rec.Outcome, len(rec.SubPhasesReached), len(rec.Samples))
	if c.deps.History == nil {
		return
	}
	if err := c.deps.History.Append(rec); err != nil {
		log.Printf("core: append attempt history: %v", err)
	}
}

// attemptOutcome classifies how a takeoff attempt ended: exiting into CLIMB
// is success; coming back onto the ground after an airborne sub-phase is a
// crash; anything else is an abort.
func attemptOutcome(lastSub types.TakeoffSubPhase, next types.Phase, f types.StateFrame) telemetry.Outcome {
	if next == types.PhaseClimb {
		return telemetry.OutcomeSuccess
	}
	if lastSub >= types.SubLiftoff && f.OnGround.Known && f.OnGround.V {
		return telemetry.OutcomeCrashed
	}
	return telemetry.OutcomeAborted
}
