package workload

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/fesim/sim"
)

// Event kinds produced by the stress model.
const (
	KindTimer    = "timer"
	KindDelivery = "delivery"
)

// timerPayload identifies the source a timer event belongs to.
type timerPayload struct {
	source int
}

// message is the payload of a delivery event.
type message struct {
	id     int64
	origin int
	dest   int
	hops   int
}

func (m *message) Dup() any {
	c := *m
	return &c
}

// Stress is a cancel-heavy workload: a set of sources that keep one
// self-timer each and pass messages between one another. A message arriving
// at a source cancels and restarts that source's timer; sending to another
// source does the same to the target. Many deliveries happen at the current
// instant, so both the ring buffer and the heap see constant traffic.
type Stress struct {
	spec   StressSpec
	rng    *sim.PartitionedRNG
	timers []*sim.Event

	Generated    int64 // messages created
	Delivered    int64 // delivery events fired
	Dropped      int64 // messages retired after MaxHops deliveries
	TimerRestart int64 // timers cancelled by a message and rescheduled
}

// NewStress validates spec, installs the model on s and schedules every
// source's first timer at ServiceTime.
func NewStress(spec StressSpec, s *sim.Simulator) (*Stress, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stress spec: %w", err)
	}
	st := &Stress{
		spec:   spec,
		rng:    sim.NewPartitionedRNG(sim.NewSimulationKey(spec.Seed)),
		timers: make([]*sim.Event, spec.Sources),
	}
	s.Model = st
	for i := range st.timers {
		st.timers[i] = &sim.Event{
			Name:    fmt.Sprintf("timer-%d", i),
			Kind:    KindTimer,
			Payload: timerPayload{source: i},
			Handler: onTimer,
		}
		if err := s.ScheduleAt(s.Clock+spec.ServiceTime, st.timers[i]); err != nil {
			return nil, fmt.Errorf("scheduling timer of source %d: %w", i, err)
		}
	}
	logrus.Infof("stress: %d sources, service time %d, zero-delay fraction %.2f", spec.Sources, spec.ServiceTime, spec.ZeroDelayFraction)
	return st, nil
}

// Rebind implements sim.Model. Timers are looked up among snap's pending
// events; the random streams continue from their current position.
func (st *Stress) Rebind(snap *sim.Simulator) sim.Model {
	c := *st
	c.rng = st.rng.Clone()
	c.timers = make([]*sim.Event, len(st.timers))
	snap.FES().ForEach(func(e *sim.Event) {
		if p, ok := e.Payload.(timerPayload); ok && e.Kind == KindTimer {
			c.timers[p.source] = e
		}
	})
	for i, t := range c.timers {
		if t == nil {
			c.timers[i] = st.timers[i].Dup()
		}
	}
	return &c
}

// Spec returns the configuration the model was built with.
func (st *Stress) Spec() StressSpec { return st.spec }

func stressOf(s *sim.Simulator) *Stress {
	return s.Model.(*Stress)
}

// onTimer fires when a source's timer expires: the source may create a
// message, and a random source sends one out.
func onTimer(s *sim.Simulator, ev *sim.Event) {
	st := stressOf(s)
	src := ev.Payload.(timerPayload).source

	var msg *sim.Event
	if st.rng.ForSubsystem(sim.SubsystemSource(src)).Float64() < st.spec.SendProbability {
		msg = st.newMessage(src)
	}
	st.sendOut(s, src, st.pickSource(), msg)
	st.ensureTimer(s, src)
}

// onDelivery fires when a message reaches its destination. The receiver's
// timer is cancelled, and the message is forwarded unless it used up its hops.
func onDelivery(s *sim.Simulator, ev *sim.Event) {
	st := stressOf(s)
	m := ev.Payload.(*message)
	st.Delivered++
	m.hops++

	receiver := m.dest
	s.Cancel(st.timers[receiver])

	fwd := ev
	if st.spec.MaxHops > 0 && m.hops >= st.spec.MaxHops {
		st.Dropped++
		fwd = nil
	}
	st.sendOut(s, receiver, st.pickSource(), fwd)
	st.ensureTimer(s, receiver)
}

// sendOut makes target send msg, or a message of its own if msg is nil,
// on behalf of caller. A target other than the caller has its timer restarted.
func (st *Stress) sendOut(s *sim.Simulator, caller, target int, msg *sim.Event) {
	if msg == nil {
		msg = st.newMessage(target)
	}
	msg.Payload.(*message).dest = st.pickSource()

	rng := st.rng.ForSubsystem(sim.SubsystemWorkload)
	var delay int64
	if rng.Float64() >= st.spec.ZeroDelayFraction {
		delay = 1 + rng.Int64N(st.spec.MaxDelay)
	}
	msg.Priority = 0
	if st.spec.PriorityLevels > 1 {
		msg.Priority = rng.IntN(st.spec.PriorityLevels)
	}
	st.schedule(s, delay, msg)

	if target != caller {
		if s.Cancel(st.timers[target]) {
			st.TimerRestart++
		}
	}
	st.ensureTimer(s, target)
}

func (st *Stress) newMessage(origin int) *sim.Event {
	st.Generated++
	return &sim.Event{
		Name:    fmt.Sprintf("msg-%d", st.Generated),
		Kind:    KindDelivery,
		Payload: &message{id: st.Generated, origin: origin},
		Handler: onDelivery,
	}
}

func (st *Stress) pickSource() int {
	return st.rng.ForSubsystem(sim.SubsystemRouting).IntN(st.spec.Sources)
}

func (st *Stress) ensureTimer(s *sim.Simulator, src int) {
	if !st.timers[src].IsScheduled() {
		st.schedule(s, st.spec.ServiceTime, st.timers[src])
	}
}

func (st *Stress) schedule(s *sim.Simulator, delay int64, ev *sim.Event) {
	if err := s.ScheduleAfter(delay, ev); err != nil {
		logrus.Errorf("stress: [tick %07d] %v", s.Clock, err)
	}
}
