// Package trace provides fired-event trace recording for determinism checks.
// This package has no dependencies on sim/ and stores plain data types.
package trace

// FiredRecord captures a single event as it was delivered by the event loop.
type FiredRecord struct {
	Clock    int64
	Seq      uint64 // insertion sequence assigned by the event set
	Priority int
	Name     string
	Kind     string
}

// CancelRecord captures a cancellation of a pending event.
type CancelRecord struct {
	Clock       int64 // simulation time of the cancellation
	ArrivalTime int64 // time the event would have fired
	Name        string
	Found       bool // false when the event had already fired or was never scheduled
}
