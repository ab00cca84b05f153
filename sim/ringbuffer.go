package sim

import "fmt"

// defaultBufferCapacity is the initial ring buffer size. Must be a power of 2.
const defaultBufferCapacity = 4

// ringBuffer holds events scheduled for the current instant with priority 0.
// Members are kept in firing order from head to tail.
//
// The backing slice length is always a power of 2 so that wrap-around is a
// mask. head == tail means empty; the buffer grows as soon as an insert
// makes it full, so a full state is never observed between calls.
type ringBuffer struct {
	slots []*Event
	head  int
	tail  int
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{slots: make([]*Event, ceilPow2(capacity))}
}

// ceilPow2 rounds n up to a power of 2 (minimum 2).
func ceilPow2(n int) int {
	c := 2
	for c < n {
		c <<= 1
	}
	return c
}

func (r *ringBuffer) mask() int { return len(r.slots) - 1 }

func (r *ringBuffer) len() int { return (r.tail - r.head) & r.mask() }

func (r *ringBuffer) capacity() int { return len(r.slots) }

func (r *ringBuffer) pushBack(e *Event) {
	r.slots[r.tail] = e
	e.loc = Buffered(r.tail)
	r.tail = (r.tail + 1) & r.mask()
	if r.tail == r.head {
		r.grow()
	}
}

func (r *ringBuffer) pushFront(e *Event) {
	r.head = (r.head - 1) & r.mask()
	r.slots[r.head] = e
	e.loc = Buffered(r.head)
	if r.tail == r.head {
		r.grow()
	}
}

// grow doubles the backing slice. It is only called when the buffer is full,
// i.e. every slot is occupied; members are unrolled to start at slot 0.
func (r *ringBuffer) grow() {
	n := len(r.slots)
	slots := make([]*Event, 2*n)
	for i := 0; i < n; i++ {
		e := r.slots[(r.head+i)&r.mask()]
		slots[i] = e
		e.loc = Buffered(i)
	}
	r.slots = slots
	r.head = 0
	r.tail = n
}

func (r *ringBuffer) peekFront() *Event {
	if r.head == r.tail {
		return nil
	}
	return r.slots[r.head]
}

func (r *ringBuffer) popFront() *Event {
	if r.head == r.tail {
		return nil
	}
	e := r.slots[r.head]
	r.slots[r.head] = nil
	r.head = (r.head + 1) & r.mask()
	e.loc = NotPresent
	return e
}

// remove takes e out of slot i, shifting the members behind it one slot
// toward the head.
func (r *ringBuffer) remove(e *Event, i int) {
	if r.slots[i] != e {
		panic(fmt.Sprintf("fes: buffer slot %d does not hold %s", i, e))
	}
	prev := i
	for i = (i + 1) & r.mask(); i != r.tail; i = (i + 1) & r.mask() {
		r.slots[prev] = r.slots[i]
		r.slots[prev].loc = Buffered(prev)
		prev = i
	}
	r.tail = (r.tail - 1) & r.mask()
	r.slots[r.tail] = nil
	e.loc = NotPresent
}

// get returns the k-th member counted from the head. k must be in range.
func (r *ringBuffer) get(k int) *Event {
	return r.slots[(r.head+k)&r.mask()]
}

func (r *ringBuffer) each(fn func(*Event)) {
	for i := r.head; i != r.tail; i = (i + 1) & r.mask() {
		fn(r.slots[i])
	}
}

// drain detaches every member in order and leaves the buffer empty.
func (r *ringBuffer) drain(fn func(*Event)) {
	for i := r.head; i != r.tail; i = (i + 1) & r.mask() {
		e := r.slots[i]
		r.slots[i] = nil
		e.loc = NotPresent
		fn(e)
	}
	r.head, r.tail = 0, 0
}

// clone duplicates the buffer with the same layout, handing every copy to own.
func (r *ringBuffer) clone(own func(*Event)) *ringBuffer {
	c := &ringBuffer{slots: make([]*Event, len(r.slots)), head: r.head, tail: r.tail}
	for i := r.head; i != r.tail; i = (i + 1) & r.mask() {
		d := r.slots[i].Dup()
		d.loc = Buffered(i)
		own(d)
		c.slots[i] = d
	}
	return c
}
