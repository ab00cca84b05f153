package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// ev creates an unscheduled event with the given ordering keys.
func ev(name string, t int64, priority int) *Event {
	return &Event{Name: name, ArrivalTime: t, Priority: priority}
}

// names maps events to their names, for readable sequence comparisons.
func names(events []*Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Name
	}
	return out
}

// drain removes every event from f in firing order.
func drain(f *FutureEventSet) []*Event {
	var out []*Event
	for e := f.RemoveFirst(); e != nil; e = f.RemoveFirst() {
		out = append(out, e)
	}
	return out
}

// requireConsistent checks that every resident event's location matches its
// slot, that the heap is ordered, and that buffer members are tied.
func requireConsistent(t *testing.T, f *FutureEventSet) {
	t.Helper()
	var first *Event
	for i := f.cb.head; i != f.cb.tail; i = (i + 1) & f.cb.mask() {
		e := f.cb.slots[i]
		require.NotNil(t, e, "buffer slot %d", i)
		require.Equal(t, Buffered(i), e.Location(), "buffer slot %d", i)
		require.Same(t, f, e.owner)
		if first == nil {
			first = e
		}
	}
	for i := 1; i <= f.heap.len(); i++ {
		e := f.heap.h[i]
		require.Equal(t, Heaped(i), e.Location(), "heap index %d", i)
		require.Same(t, f, e.owner)
		if i > 1 {
			require.False(t, Precedes(e, f.heap.h[i>>1]), "heap order violated at %d", i)
		}
	}
	require.Equal(t, f.Len(), f.cb.len()+f.heap.len())
}
