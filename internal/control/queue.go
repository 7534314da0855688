package control

import (
	"log"
	"math"
	"sort"

	"github.com/simwidget/autoflight/internal/metrics"
)

// Queue buffers at most one command per type per decision tick and dedups
// against the last value actually dispatched. Discrete commands go out on
// any change; continuous commands only when the delta exceeds the type's
// epsilon. An exact-zero value on a held axis is the release sentinel and is
// always dispatched regardless of epsilon.
//
// Queue is used from the decision loop only and is not safe for concurrent
// use; the held-axis registry it feeds has its own lock.
type Queue struct {
	dispatcher Dispatcher
	held       *HeldAxes
	buffered   map[CommandType]Command
	lastSent   map[CommandType]float64
}

// NewQueue creates a Queue dispatching through d. held may be nil when no
// held-axis registry participates (tests).
func NewQueue(d Dispatcher, held *HeldAxes) *Queue {
	return &Queue{
		dispatcher: d,
		held:       held,
		buffered:   make(map[CommandType]Command),
		lastSent:   make(map[CommandType]float64),
	}
}

// Enqueue buffers cmd for the current tick. A second command of the same
// type within one tick replaces the first: last write wins.
func (q *Queue) Enqueue(cmd Command) {
	q.buffered[cmd.Type] = cmd
}

// Flush dispatches the tick's buffered commands, applying the dedup policy,
// and clears the buffer. Dispatch failures are logged and contained here;
// the failed type keeps its previous lastSent value so the next differing
// command retries naturally.
func (q *Queue) Flush() {
	if len(q.buffered) == 0 {
		return
	}

	types := make([]CommandType, 0, len(q.buffered))
	for t := range q.buffered {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, t := range types {
		cmd := q.buffered[t]
		delete(q.buffered, t)

		if !q.shouldDispatch(cmd) {
			metrics.CommandsSuppressed.Inc()
			continue
		}

		if err := q.dispatcher.Dispatch(cmd.Type, cmd.Value); err != nil {
			metrics.DispatchFailures.Inc()
			log.Printf("control: dispatch %s=%.2f (%s): %v", cmd.Type, cmd.Value, cmd.Reason, err)
			continue
		}
		metrics.CommandsDispatched.WithLabelValues(cmd.Type.String()).Inc()
		q.lastSent[cmd.Type] = cmd.Value

		if q.held != nil && cmd.Type.IsAxis() {
			q.held.Set(cmd.Type, cmd.Value)
		}
	}
}

func (q *Queue) shouldDispatch(cmd Command) bool {
	last, sent := q.lastSent[cmd.Type]
	if !sent {
		return true
	}
	if cmd.Type.IsDiscrete() {
		return cmd.Value != last
	}
	// Exact zero on a held axis releases it and must never be swallowed by
	// the epsilon, even when the last value was already close to zero.
	if cmd.Type.IsAxis() && cmd.Value == 0 {
		return last != 0
	}
	return math.Abs(cmd.Value-last) > cmd.Type.Epsilon()
}
