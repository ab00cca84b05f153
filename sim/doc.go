// Package sim provides the future event set and the event loop that drains it.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - event.go: Event, its Location inside the set, and the firing order
//   - fes.go: FutureEventSet, which routes each insert to the ring buffer or the heap
//   - simulator.go: the event loop, cancellation, horizon handling and snapshots
//
// # Architecture
//
// The FutureEventSet keeps two stores behind one interface:
//   - ringbuffer.go: a FIFO of events due at the current instant with priority 0
//   - heap.go: a one-indexed binary heap holding everything else
//
// Events fire in (ArrivalTime, Priority, insertion sequence) order no matter
// which store holds them. Each event records where it lives, so cancellation
// is O(log n) from the heap and O(n) from the buffer without searching.
//
// Sub-packages:
//   - sim/trace/: fired and cancelled event records, digests for replay checks
//   - sim/workload/: the stress workload that drives the set from the CLI
//
// # Key Interfaces
//
//   - Handler: callback invoked when an event fires
//   - Model: simulation state that must follow the simulator into a Snapshot
//   - Duplicator: payloads that need a deep copy when the set is copied
package sim
