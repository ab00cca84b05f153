// sim/simulator.go
package sim

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/fesim/sim/trace"
)

// ErrSimulationEnded is returned when scheduling on a simulator whose run
// stopped at the horizon. The first pending event was speculatively extracted
// and put back; nothing may be inserted ahead of it until the horizon moves.
var ErrSimulationEnded = errors.New("simulation ended at horizon")

// Model is the simulated system whose events a Simulator fires. Handlers
// reach it through Simulator.Model so that a snapshot can carry its own copy.
type Model interface {
	// Rebind returns a copy of the model that belongs to snap. Pending
	// events in snap are duplicates; references to them must be looked up
	// in snap.FES().
	Rebind(snap *Simulator) Model
}

// Simulator is the event loop that drives a FutureEventSet: it owns the
// clock, schedules and cancels events, and fires them in order.
//
// Thread-safety: NOT thread-safe. Parallel runs need one Simulator each.
type Simulator struct {
	Clock   int64
	Horizon int64
	Metrics *Metrics
	// Trace is nil unless tracing was requested with EnableTrace.
	Trace *trace.SimulationTrace
	Model Model

	fes            *FutureEventSet
	sampleInterval int64
	ended          bool
}

// NewSimulator creates a simulator at time 0 with an empty event set.
func NewSimulator(cfg SimConfig) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulator config: %w", err)
	}
	return &Simulator{
		Horizon:        cfg.horizon(),
		Metrics:        NewMetrics(),
		fes:            NewFutureEventSetWithConfig(cfg.FES),
		sampleInterval: cfg.SampleInterval,
	}, nil
}

// EnableTrace starts recording fired and cancelled events.
func (sim *Simulator) EnableTrace(level trace.TraceLevel) {
	sim.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: level})
}

// FES exposes the pending event set for inspection.
func (sim *Simulator) FES() *FutureEventSet { return sim.fes }

// Ended reports whether the last Step stopped at the horizon.
func (sim *Simulator) Ended() bool { return sim.ended }

// IsScheduled reports whether ev is pending in this simulator's event set.
func (sim *Simulator) IsScheduled(ev *Event) bool {
	return ev.IsScheduled() && ev.owner == sim.fes
}

// ScheduleAt schedules ev to fire at time t. Priorities must be
// non-negative: same-instant events in the ring buffer have priority 0 and
// are drained before the heap.
func (sim *Simulator) ScheduleAt(t int64, ev *Event) error {
	if sim.ended {
		return ErrSimulationEnded
	}
	if ev.Priority < 0 {
		return fmt.Errorf("cannot schedule %q with negative priority %d", ev.Name, ev.Priority)
	}
	if t < sim.Clock {
		return fmt.Errorf("cannot schedule %q at %d: simulation time is already %d", ev.Name, t, sim.Clock)
	}
	if ev.IsScheduled() {
		return fmt.Errorf("cannot schedule %q: already scheduled for %d", ev.Name, ev.ArrivalTime)
	}
	ev.ArrivalTime = t
	sim.fes.Insert(ev, sim.Clock)
	_, buffered := ev.Location().BufferSlot()
	sim.Metrics.recordInsert(buffered, sim.fes.Len())
	return nil
}

// ScheduleAfter schedules ev to fire d ticks from now.
func (sim *Simulator) ScheduleAfter(d int64, ev *Event) error {
	if d < 0 {
		return fmt.Errorf("cannot schedule %q with negative delay %d", ev.Name, d)
	}
	return sim.ScheduleAt(sim.Clock+d, ev)
}

// Cancel removes ev from the pending set. It returns false if ev was not
// pending, e.g. because it has already fired.
func (sim *Simulator) Cancel(ev *Event) bool {
	_, found := sim.fes.Remove(ev)
	if found {
		sim.Metrics.EventsCancelled++
	} else {
		sim.Metrics.CancelMisses++
	}
	if sim.Trace.Enabled() {
		sim.Trace.RecordCancel(trace.CancelRecord{
			Clock:       sim.Clock,
			ArrivalTime: ev.ArrivalTime,
			Name:        ev.Name,
			Found:       found,
		})
	}
	return found
}

// Step fires the next event. It returns false when no event is pending or
// the next one lies beyond the horizon; in the latter case the event is put
// back and the simulator is marked ended. An ended simulator does not step.
func (sim *Simulator) Step() bool {
	if sim.ended {
		return false
	}
	ev := sim.fes.RemoveFirst()
	if ev == nil {
		return false
	}
	if ev.ArrivalTime > sim.Horizon {
		sim.fes.PutBackFirst(ev)
		sim.Metrics.PutBacks++
		sim.ended = true
		logrus.Debugf("[tick %07d] next event %s is beyond horizon %d", sim.Clock, ev.Name, sim.Horizon)
		return false
	}

	sim.Clock = ev.ArrivalTime
	sim.Metrics.EventsFired++
	if sim.sampleInterval > 0 && sim.Metrics.EventsFired%sim.sampleInterval == 0 {
		sim.Metrics.samplePending(sim.fes.Len())
	}
	if sim.Trace.Enabled() {
		sim.Trace.RecordFired(trace.FiredRecord{
			Clock:    sim.Clock,
			Seq:      ev.InsertionSequence(),
			Priority: ev.Priority,
			Name:     ev.Name,
			Kind:     ev.Kind,
		})
	}
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		logrus.Debugf("[tick %07d] Executing %s", sim.Clock, ev.Name)
	}
	if ev.Handler != nil {
		ev.Handler(sim, ev)
	}
	return true
}

// Run fires events until none are pending or the horizon is reached.
func (sim *Simulator) Run() {
	for sim.Step() {
	}
	sim.Metrics.SimEndedTime = min(sim.Clock, sim.Horizon)
	logrus.Infof("[tick %07d] Simulation ended, %d events fired, %s pending", sim.Clock, sim.Metrics.EventsFired, sim.fes)
}

// RunUntil fires events up to and including time t, without ending the
// simulation; events after t stay pending.
func (sim *Simulator) RunUntil(t int64) {
	for {
		next := sim.fes.PeekFirst()
		if next == nil || next.ArrivalTime > t || next.ArrivalTime > sim.Horizon {
			return
		}
		sim.Step()
	}
}

// ExtendHorizon moves the horizon to h and resumes a simulator that ended.
func (sim *Simulator) ExtendHorizon(h int64) error {
	if h < sim.Horizon {
		return fmt.Errorf("horizon can only grow: %d < %d", h, sim.Horizon)
	}
	sim.Horizon = h
	sim.ended = false
	return nil
}

// Snapshot returns an independent simulator holding duplicates of every
// pending event, with the model rebound to it.
func (sim *Simulator) Snapshot() *Simulator {
	m := *sim.Metrics
	m.PendingSamples = append([]float64(nil), sim.Metrics.PendingSamples...)
	snap := &Simulator{
		Clock:          sim.Clock,
		Horizon:        sim.Horizon,
		Metrics:        &m,
		Trace:          sim.Trace.Clone(),
		fes:            sim.fes.Copy(),
		sampleInterval: sim.sampleInterval,
		ended:          sim.ended,
	}
	if sim.Model != nil {
		snap.Model = sim.Model.Rebind(snap)
	}
	return snap
}
