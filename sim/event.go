package sim

import "fmt"

// Handler is invoked by the Simulator when an event fires.
type Handler func(sim *Simulator, ev *Event)

// Duplicator is implemented by payloads that must be deep-copied when an
// event is duplicated. Payloads that don't implement it are shared.
type Duplicator interface {
	Dup() any
}

// locationKind tags where a pending event currently lives.
type locationKind uint8

const (
	locNotPresent locationKind = iota
	locHeaped
	locBuffered
)

// Location records the residency of an event inside a FutureEventSet.
// The zero value is NotPresent.
type Location struct {
	kind  locationKind
	index int
}

// NotPresent is the location of an event that is not in any event set.
var NotPresent = Location{}

// Heaped returns the location of an event stored at index i of the heap.
func Heaped(i int) Location { return Location{kind: locHeaped, index: i} }

// Buffered returns the location of an event stored in slot i of the ring buffer.
func Buffered(i int) Location { return Location{kind: locBuffered, index: i} }

// IsPresent reports whether the event is resident in an event set.
func (l Location) IsPresent() bool { return l.kind != locNotPresent }

// HeapIndex returns the heap index and true if the location is a heap position.
func (l Location) HeapIndex() (int, bool) { return l.index, l.kind == locHeaped }

// BufferSlot returns the buffer slot and true if the location is a buffer slot.
func (l Location) BufferSlot() (int, bool) { return l.index, l.kind == locBuffered }

func (l Location) String() string {
	switch l.kind {
	case locHeaped:
		return fmt.Sprintf("heaped(%d)", l.index)
	case locBuffered:
		return fmt.Sprintf("buffered(%d)", l.index)
	default:
		return "not-present"
	}
}

// Event is a pending simulation event.
//
// ArrivalTime and Priority are the ordering keys. They must not change while
// the event is resident in a FutureEventSet.
type Event struct {
	Name        string
	Kind        string
	ArrivalTime int64 // simulation time (in ticks)
	Priority    int   // lower fires first among equal arrival times
	Payload     any
	Handler     Handler

	seq   uint64 // insertion sequence, final tie-break
	loc   Location
	owner *FutureEventSet
}

// NewEvent creates an unscheduled event.
func NewEvent(name string, priority int, handler Handler) *Event {
	return &Event{Name: name, Priority: priority, Handler: handler}
}

// Location returns where the event currently resides.
func (e *Event) Location() Location { return e.loc }

// IsScheduled reports whether the event is resident in an event set.
func (e *Event) IsScheduled() bool { return e.loc.IsPresent() }

// InsertionSequence returns the sequence number assigned by the last insert.
func (e *Event) InsertionSequence() uint64 { return e.seq }

// Dup returns a detached deep copy of e. The copy keeps the insertion
// sequence so that duplicated sets order identically.
func (e *Event) Dup() *Event {
	c := *e
	c.loc = NotPresent
	c.owner = nil
	if d, ok := e.Payload.(Duplicator); ok {
		c.Payload = d.Dup()
	}
	return &c
}

func (e *Event) String() string {
	return fmt.Sprintf("%s(t=%d, p=%d, seq=%d, %s)", e.Name, e.ArrivalTime, e.Priority, e.seq, e.loc)
}

// Compare orders events by arrival time, then priority, then insertion
// sequence. It returns a negative number when a fires before b.
func Compare(a, b *Event) int {
	switch {
	case a.ArrivalTime < b.ArrivalTime:
		return -1
	case a.ArrivalTime > b.ArrivalTime:
		return 1
	case a.Priority < b.Priority:
		return -1
	case a.Priority > b.Priority:
		return 1
	case a.seq < b.seq:
		return -1
	case a.seq > b.seq:
		return 1
	}
	return 0
}

// Precedes reports whether a fires strictly before b.
func Precedes(a, b *Event) bool {
	return Compare(a, b) < 0
}
