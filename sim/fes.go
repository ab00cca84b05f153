package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// FutureEventSet holds every pending event and yields them in
// (arrival time, priority, insertion sequence) order.
//
// Events scheduled for the current instant with priority 0 go to a ring
// buffer with O(1) insert and remove; everything else goes to a binary heap.
// The buffer is drained before the heap.
//
// Thread-safety: NOT thread-safe. Each goroutine must own its own set.
type FutureEventSet struct {
	cb      *ringBuffer
	heap    *eventHeap
	nextSeq uint64
}

// NewFutureEventSet creates an empty set with default capacities.
func NewFutureEventSet() *FutureEventSet {
	return NewFutureEventSetWithConfig(FESConfig{})
}

// NewFutureEventSetWithConfig creates an empty set with the given initial capacities.
func NewFutureEventSetWithConfig(cfg FESConfig) *FutureEventSet {
	cfg = cfg.withDefaults()
	return &FutureEventSet{
		cb:   newRingBuffer(cfg.BufferCapacity),
		heap: newEventHeap(cfg.HeapCapacity),
	}
}

// Insert takes ownership of e. now is the current simulation time, used to
// decide whether e can join the ring buffer. Inserting an event that is
// already resident panics. An event at now with negative priority goes to
// the heap and fires after events already in the buffer.
func (f *FutureEventSet) Insert(e *Event, now int64) {
	if e.owner != nil || e.loc.IsPresent() {
		panic(fmt.Sprintf("fes: insert of already scheduled event %s", e))
	}
	e.owner = f
	e.seq = f.nextSeq
	f.nextSeq++

	// The buffer only ever holds priority-0 events of the current instant.
	// It stays valid while the heap holds nothing else for that instant.
	if e.ArrivalTime == now && e.Priority == 0 && (f.heap.len() == 0 || f.heap.peekFirst().ArrivalTime != now) {
		f.cb.pushBack(e)
	} else {
		f.heap.insert(e)
	}
	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		logrus.Tracef("fes: inserted %s", e)
	}
}

// PeekFirst returns the earliest event without removing it, or nil.
func (f *FutureEventSet) PeekFirst() *Event {
	if e := f.cb.peekFront(); e != nil {
		return e
	}
	return f.heap.peekFirst()
}

// RemoveFirst removes and returns the earliest event, or nil if the set is
// empty. Ownership passes to the caller.
func (f *FutureEventSet) RemoveFirst() *Event {
	e := f.cb.popFront()
	if e == nil {
		e = f.heap.removeFirst()
	}
	if e != nil {
		e.owner = nil
	}
	return e
}

// Remove cancels e. It returns false if e is not in any set, which is the
// normal outcome for an event that has already fired. Removing an event
// owned by a different set panics.
func (f *FutureEventSet) Remove(e *Event) (*Event, bool) {
	if !e.loc.IsPresent() {
		return nil, false
	}
	if e.owner != f {
		panic(fmt.Sprintf("fes: remove of event %s owned by another set", e))
	}
	if slot, ok := e.loc.BufferSlot(); ok {
		f.cb.remove(e, slot)
	} else {
		idx, _ := e.loc.HeapIndex()
		f.heap.remove(e, idx)
	}
	e.owner = nil
	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		logrus.Tracef("fes: removed %s", e)
	}
	return e, true
}

// PutBackFirst reinstates e as the earliest event. It undoes a RemoveFirst
// whose event turned out not to be wanted yet; e keeps its insertion sequence.
func (f *FutureEventSet) PutBackFirst(e *Event) {
	if e.owner != nil || e.loc.IsPresent() {
		panic(fmt.Sprintf("fes: put back of already scheduled event %s", e))
	}
	e.owner = f
	f.cb.pushFront(e)
}

// Get returns the k-th earliest event (0-based) without removing it, or nil
// if k is out of range. It may sort the heap, which changes the internal
// layout but not the logical contents.
func (f *FutureEventSet) Get(k int) *Event {
	if k < 0 {
		return nil
	}
	n := f.cb.len()
	if k < n {
		return f.cb.get(k)
	}
	k -= n
	if k >= f.heap.len() {
		return nil
	}
	f.heap.sort()
	return f.heap.get(k)
}

// Sort fully orders the heap so that enumeration follows firing order.
func (f *FutureEventSet) Sort() {
	f.heap.sort()
}

// Events returns the pending events in firing order. The events remain owned
// by the set.
func (f *FutureEventSet) Events() []*Event {
	f.heap.sort()
	out := make([]*Event, 0, f.Len())
	f.cb.each(func(e *Event) { out = append(out, e) })
	f.heap.each(func(e *Event) { out = append(out, e) })
	return out
}

// ForEach calls fn for every pending event in unspecified order. fn must not
// mutate the set.
func (f *FutureEventSet) ForEach(fn func(*Event)) {
	f.cb.each(fn)
	f.heap.each(fn)
}

// Len returns the number of pending events.
func (f *FutureEventSet) Len() int { return f.cb.len() + f.heap.len() }

// BufferedLen returns the number of events in the ring buffer.
func (f *FutureEventSet) BufferedLen() int { return f.cb.len() }

// HeapedLen returns the number of events in the heap.
func (f *FutureEventSet) HeapedLen() int { return f.heap.len() }

// IsEmpty reports whether no event is pending.
func (f *FutureEventSet) IsEmpty() bool { return f.Len() == 0 }

// Clear removes every pending event and returns them in firing order.
// Ownership of the returned events passes to the caller.
func (f *FutureEventSet) Clear() []*Event {
	f.heap.sort()
	out := make([]*Event, 0, f.Len())
	release := func(e *Event) {
		e.owner = nil
		out = append(out, e)
	}
	f.cb.drain(release)
	f.heap.drain(release)
	return out
}

// Copy returns an independent set holding duplicates of every pending
// event, partitioned and sequenced exactly like f.
func (f *FutureEventSet) Copy() *FutureEventSet {
	c := &FutureEventSet{nextSeq: f.nextSeq}
	own := func(e *Event) { e.owner = c }
	c.cb = f.cb.clone(own)
	c.heap = f.heap.clone(own)
	return c
}

func (f *FutureEventSet) String() string {
	if f.IsEmpty() {
		return "empty"
	}
	return fmt.Sprintf("length=%d", f.Len())
}
