package sim

import (
	"fmt"
	"slices"
)

// defaultHeapCapacity is the initial number of heap slots.
const defaultHeapCapacity = 128

// eventHeap is a one-indexed binary min-heap of events ordered by Compare.
// h[0] is unused; h[1] is the earliest event.
type eventHeap struct {
	h      []*Event
	sorted bool // h[1:] is fully sorted; cleared by every mutation
}

func newEventHeap(capacity int) *eventHeap {
	if capacity < 1 {
		capacity = 1
	}
	return &eventHeap{h: make([]*Event, 1, capacity+1), sorted: true}
}

func (eh *eventHeap) len() int { return len(eh.h) - 1 }

func (eh *eventHeap) capacity() int { return cap(eh.h) - 1 }

func (eh *eventHeap) set(i int, e *Event) {
	eh.h[i] = e
	e.loc = Heaped(i)
}

// grow doubles the slot capacity. Indices of existing members are unchanged.
func (eh *eventHeap) grow() {
	h := make([]*Event, len(eh.h), 2*eh.capacity()+1)
	copy(h, eh.h)
	eh.h = h
}

func (eh *eventHeap) insert(e *Event) {
	if len(eh.h) == cap(eh.h) {
		eh.grow()
	}
	eh.h = append(eh.h, e)
	eh.sorted = false
	eh.siftUp(len(eh.h)-1, e)
}

// siftUp places e at index j or above, moving greater parents down.
func (eh *eventHeap) siftUp(j int, e *Event) {
	for j > 1 {
		i := j >> 1
		if !Precedes(e, eh.h[i]) {
			break
		}
		eh.set(j, eh.h[i])
		j = i
	}
	eh.set(j, e)
}

// siftDown restores heap order in the sub-heap rooted at i.
func (eh *eventHeap) siftDown(i int) {
	n := eh.len()
	for {
		j := i << 1
		if j > n {
			return
		}
		if j < n && Precedes(eh.h[j+1], eh.h[j]) {
			j++
		}
		if !Precedes(eh.h[j], eh.h[i]) {
			return
		}
		a, b := eh.h[i], eh.h[j]
		eh.set(i, b)
		eh.set(j, a)
		i = j
	}
}

func (eh *eventHeap) peekFirst() *Event {
	if eh.len() == 0 {
		return nil
	}
	return eh.h[1]
}

func (eh *eventHeap) removeFirst() *Event {
	if eh.len() == 0 {
		return nil
	}
	e := eh.h[1]
	eh.removeAt(1)
	return e
}

// remove takes e out of heap index i.
func (eh *eventHeap) remove(e *Event, i int) {
	if i < 1 || i > eh.len() || eh.h[i] != e {
		panic(fmt.Sprintf("fes: heap index %d does not hold %s", i, e))
	}
	eh.removeAt(i)
}

// removeAt fills the hole at i with the last member and sifts it into place.
func (eh *eventHeap) removeAt(i int) {
	e := eh.h[i]
	n := eh.len()
	fill := eh.h[n]
	eh.h[n] = nil
	eh.h = eh.h[:n]
	e.loc = NotPresent
	// Only truncating the tail keeps a sorted array sorted.
	eh.sorted = eh.sorted && (i == n || n <= 2)
	if i == n {
		return
	}
	if i > 1 && Precedes(fill, eh.h[i>>1]) {
		eh.siftUp(i, fill)
		return
	}
	eh.set(i, fill)
	eh.siftDown(i)
}

// sort orders the members fully. A sorted array is a valid heap, so the heap
// invariant is preserved.
func (eh *eventHeap) sort() {
	if eh.sorted {
		return
	}
	slices.SortFunc(eh.h[1:], Compare)
	for i := 1; i < len(eh.h); i++ {
		eh.h[i].loc = Heaped(i)
	}
	eh.sorted = true
}

// get returns the k-th member (0-based) in array order.
func (eh *eventHeap) get(k int) *Event {
	return eh.h[k+1]
}

func (eh *eventHeap) each(fn func(*Event)) {
	for _, e := range eh.h[1:] {
		fn(e)
	}
}

// drain detaches every member in array order and leaves the heap empty.
func (eh *eventHeap) drain(fn func(*Event)) {
	for i := 1; i < len(eh.h); i++ {
		e := eh.h[i]
		eh.h[i] = nil
		e.loc = NotPresent
		fn(e)
	}
	eh.h = eh.h[:1]
	eh.sorted = true
}

// clone duplicates the heap with the same layout, handing every copy to own.
func (eh *eventHeap) clone(own func(*Event)) *eventHeap {
	c := &eventHeap{h: make([]*Event, len(eh.h), cap(eh.h)), sorted: eh.sorted}
	for i := 1; i < len(eh.h); i++ {
		d := eh.h[i].Dup()
		own(d)
		c.set(i, d)
	}
	return c
}
