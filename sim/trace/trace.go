package trace

import (
	"encoding/binary"
	"hash/fnv"
)

// TraceLevel controls the verbosity of event tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelEvents captures every fired and cancelled event.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelEvents: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects event records during a simulation run.
type SimulationTrace struct {
	Config  TraceConfig
	Fired   []FiredRecord
	Cancels []CancelRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:  config,
		Fired:   make([]FiredRecord, 0),
		Cancels: make([]CancelRecord, 0),
	}
}

// Enabled reports whether records should be collected.
func (st *SimulationTrace) Enabled() bool {
	return st != nil && st.Config.Level == TraceLevelEvents
}

// RecordFired appends a fired-event record.
func (st *SimulationTrace) RecordFired(record FiredRecord) {
	st.Fired = append(st.Fired, record)
}

// RecordCancel appends a cancellation record.
func (st *SimulationTrace) RecordCancel(record CancelRecord) {
	st.Cancels = append(st.Cancels, record)
}

// Len returns the number of fired records.
func (st *SimulationTrace) Len() int {
	if st == nil {
		return 0
	}
	return len(st.Fired)
}

// Digest returns a FNV-1a 64 hash over the fired sequence. Two runs that
// delivered the same events in the same order have equal digests.
func (st *SimulationTrace) Digest() uint64 {
	h := fnv.New64a()
	if st == nil {
		return h.Sum64()
	}
	var buf [8]byte
	for _, r := range st.Fired {
		binary.LittleEndian.PutUint64(buf[:], uint64(r.Clock))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], r.Seq)
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(r.Priority)))
		h.Write(buf[:])
		h.Write([]byte(r.Name))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// Clone returns an independent copy of the trace.
func (st *SimulationTrace) Clone() *SimulationTrace {
	if st == nil {
		return nil
	}
	return &SimulationTrace{
		Config:  st.Config,
		Fired:   append(make([]FiredRecord, 0, len(st.Fired)), st.Fired...),
		Cancels: append(make([]CancelRecord, 0, len(st.Cancels)), st.Cancels...),
	}
}
