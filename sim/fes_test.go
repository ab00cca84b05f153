package sim

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureEventSet_ConcreteScenario(t *testing.T) {
	// GIVEN current simulation time 10
	const now = 10
	f := NewFutureEventSet()
	e1, e2, e3, e4, e5 := ev("E1", 10, 0), ev("E2", 10, 0), ev("E3", 12, 0), ev("E4", 10, 0), ev("E5", 10, 5)

	// WHEN inserted in order
	for _, e := range []*Event{e1, e2, e3, e4, e5} {
		f.Insert(e, now)
	}

	// THEN E1, E2, E4 are buffered and E3, E5 heaped with E5 at the root
	for _, e := range []*Event{e1, e2, e4} {
		_, ok := e.Location().BufferSlot()
		assert.True(t, ok, "%s should be buffered, is %s", e.Name, e.Location())
	}
	for _, e := range []*Event{e3, e5} {
		_, ok := e.Location().HeapIndex()
		assert.True(t, ok, "%s should be heaped, is %s", e.Name, e.Location())
	}
	assert.Same(t, e5, f.heap.peekFirst())
	requireConsistent(t, f)

	// AND removeFirst drains the buffer, then the heap
	assert.Equal(t, []string{"E1", "E2", "E4", "E5", "E3"}, names(drain(f)))
}

func TestFutureEventSet_HeapAtNowBlocksBuffer(t *testing.T) {
	// GIVEN the heap's earliest event is at the current time
	f := NewFutureEventSet()
	hi := ev("hi", 10, 3)
	f.Insert(hi, 10)

	// WHEN a zero-priority event for now is inserted
	z := ev("z", 10, 0)
	f.Insert(z, 10)

	// THEN it goes to the heap and still fires first
	_, heaped := z.Location().HeapIndex()
	assert.True(t, heaped)
	assert.Equal(t, 0, f.BufferedLen())
	assert.Equal(t, []string{"z", "hi"}, names(drain(f)))
}

func TestFutureEventSet_Routing(t *testing.T) {
	tests := []struct {
		name     string
		event    *Event
		buffered bool
	}{
		{"now with priority 0", ev("a", 5, 0), true},
		{"now with positive priority", ev("b", 5, 1), false},
		{"now with negative priority", ev("c", 5, -1), false},
		{"future with priority 0", ev("d", 6, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFutureEventSet()
			f.Insert(tt.event, 5)
			_, buffered := tt.event.Location().BufferSlot()
			assert.Equal(t, tt.buffered, buffered)
		})
	}
}

func TestFutureEventSet_InsertAssignsIncreasingSequence(t *testing.T) {
	f := NewFutureEventSet()
	a, b, c := ev("a", 0, 0), ev("b", 3, 0), ev("c", 0, 2)
	f.Insert(a, 0)
	f.Insert(b, 0)
	f.Insert(c, 0)
	assert.Equal(t, uint64(0), a.InsertionSequence())
	assert.Equal(t, uint64(1), b.InsertionSequence())
	assert.Equal(t, uint64(2), c.InsertionSequence())
}

func TestFutureEventSet_GlobalOrdering(t *testing.T) {
	// GIVEN random inserts at a fixed current time, many tied for "now"
	rng := rand.New(rand.NewPCG(42, 7))
	var totalBuffered, totalHeaped int
	for round := 0; round < 50; round++ {
		const now = 100
		f := NewFutureEventSetWithConfig(FESConfig{HeapCapacity: 2, BufferCapacity: 2})
		var inserted []*Event
		for i := 0; i < 200; i++ {
			e := ev("e", now+int64(rng.IntN(4)), []int{0, 0, 0, 1, 2}[rng.IntN(5)])
			f.Insert(e, now)
			inserted = append(inserted, e)
		}
		requireConsistent(t, f)
		totalBuffered += f.BufferedLen()
		totalHeaped += f.HeapedLen()

		// WHEN drained
		got := drain(f)

		// THEN the sequence equals the stable sort by (time, priority)
		want := slices.Clone(inserted)
		slices.SortStableFunc(want, func(a, b *Event) int {
			if a.ArrivalTime != b.ArrivalTime {
				return int(a.ArrivalTime - b.ArrivalTime)
			}
			return a.Priority - b.Priority
		})
		require.Len(t, got, len(want))
		for i := range want {
			require.Same(t, want[i], got[i], "position %d", i)
		}
		assert.True(t, f.IsEmpty())
	}
	assert.Positive(t, totalBuffered, "some events should have used the ring buffer")
	assert.Positive(t, totalHeaped)
}

func TestFutureEventSet_NegativePriorityAtNow_FiresAfterBuffered(t *testing.T) {
	// GIVEN a buffered priority-0 event at now
	f := NewFutureEventSet()
	b := ev("b", 5, 0)
	f.Insert(b, 5)
	require.Equal(t, 1, f.BufferedLen())

	// WHEN a negative-priority event for the same instant is inserted
	n := ev("n", 5, -1)
	f.Insert(n, 5)

	// THEN it lands in the heap and the buffer still drains first
	_, heaped := n.Location().HeapIndex()
	assert.True(t, heaped)
	assert.Equal(t, []string{"b", "n"}, names(drain(f)))
}

func TestFutureEventSet_RoundTrip(t *testing.T) {
	for _, tt := range []struct {
		name string
		e    *Event
	}{
		{"buffered", ev("b", 0, 0)},
		{"heaped", ev("h", 9, 0)},
	} {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFutureEventSet()
			f.Insert(tt.e, 0)

			got, ok := f.Remove(tt.e)
			require.True(t, ok)
			assert.Same(t, tt.e, got)
			assert.False(t, tt.e.IsScheduled())
			assert.Nil(t, tt.e.owner)
			assert.True(t, f.IsEmpty())

			got, ok = f.Remove(tt.e)
			assert.False(t, ok, "second remove must report not found")
			assert.Nil(t, got)
		})
	}
}

func TestFutureEventSet_RemoveFiredEvent_NotFound(t *testing.T) {
	f := NewFutureEventSet()
	e := ev("e", 0, 0)
	f.Insert(e, 0)
	require.Same(t, e, f.RemoveFirst())

	_, ok := f.Remove(e)
	assert.False(t, ok)

	_, ok = f.Remove(ev("never", 0, 0))
	assert.False(t, ok)
}

func TestFutureEventSet_MidStreamCancellation(t *testing.T) {
	// GIVEN N events spread across buffer and heap
	rng := rand.New(rand.NewPCG(3, 3))
	for round := 0; round < 30; round++ {
		f := NewFutureEventSet()
		var inserted []*Event
		for i := 0; i < 40; i++ {
			e := ev("e", int64(rng.IntN(3)), rng.IntN(2))
			f.Insert(e, 0)
			inserted = append(inserted, e)
		}
		order := f.Events()

		// WHEN one arbitrary non-head event is removed
		victim := order[1+rng.IntN(len(order)-1)]
		_, ok := f.Remove(victim)
		require.True(t, ok)
		requireConsistent(t, f)

		// THEN the remaining N-1 extract in the original order minus the victim
		want := slices.DeleteFunc(slices.Clone(order), func(e *Event) bool { return e == victim })
		got := drain(f)
		require.Len(t, got, len(inserted)-1)
		for i := range want {
			require.Same(t, want[i], got[i], "position %d", i)
		}
	}
}

func TestFutureEventSet_PartitionTransparency(t *testing.T) {
	// GIVEN events interleaved between buffer and heap, with cancellations from both
	f := NewFutureEventSet()
	b1, h1, b2, h2, b3, h3 := ev("b1", 0, 0), ev("h1", 1, 1), ev("b2", 0, 0), ev("h2", 2, 0), ev("b3", 0, 0), ev("h3", 1, -5)
	for _, e := range []*Event{b1, h1, b2, h2, b3, h3} {
		f.Insert(e, 0)
	}
	require.Equal(t, 3, f.BufferedLen())
	require.Equal(t, 3, f.HeapedLen())

	// WHEN one from each side is cancelled
	_, ok := f.Remove(b2)
	require.True(t, ok)
	_, ok = f.Remove(h1)
	require.True(t, ok)
	requireConsistent(t, f)

	// THEN one global order comes out
	assert.Equal(t, []string{"b1", "b3", "h3", "h2"}, names(drain(f)))
}

func TestFutureEventSet_GrowthCorrectness(t *testing.T) {
	// GIVEN tiny initial capacities
	f := NewFutureEventSetWithConfig(FESConfig{HeapCapacity: 1, BufferCapacity: 1})

	// WHEN far more events than either capacity are inserted
	var buffered, heaped []*Event
	for i := 0; i < 300; i++ {
		b := ev("b", 7, 0)
		f.Insert(b, 7)
		buffered = append(buffered, b)
		h := ev("h", 8+int64(299-i), 0)
		f.Insert(h, 7)
		heaped = append(heaped, h)
	}

	// THEN nothing was lost and order holds
	requireConsistent(t, f)
	assert.Equal(t, 300, f.BufferedLen())
	assert.Equal(t, 300, f.HeapedLen())
	assert.GreaterOrEqual(t, f.cb.capacity(), 512)
	got := drain(f)
	require.Len(t, got, 600)
	for i, b := range buffered {
		require.Same(t, b, got[i])
	}
	for i := 0; i < 300; i++ {
		require.Same(t, heaped[299-i], got[300+i])
	}
}

func TestFutureEventSet_PeekFirst(t *testing.T) {
	f := NewFutureEventSet()
	assert.Nil(t, f.PeekFirst())
	assert.Nil(t, f.RemoveFirst())

	h := ev("h", 3, 0)
	f.Insert(h, 0)
	assert.Same(t, h, f.PeekFirst())

	b := ev("b", 0, 0)
	f.Insert(b, 0)
	assert.Same(t, b, f.PeekFirst(), "buffer head takes precedence")
	assert.Equal(t, 2, f.Len())
}

func TestFutureEventSet_PutBackFirst(t *testing.T) {
	// GIVEN a set with buffered and heaped events
	f := NewFutureEventSet()
	for _, e := range []*Event{ev("a", 0, 0), ev("b", 0, 0), ev("c", 4, 0)} {
		f.Insert(e, 0)
	}

	// WHEN the first event is taken and put back
	first := f.RemoveFirst()
	seq := first.InsertionSequence()
	f.PutBackFirst(first)

	// THEN it is first again, with its sequence unchanged
	assert.Same(t, first, f.PeekFirst())
	assert.Equal(t, seq, first.InsertionSequence())
	requireConsistent(t, f)
	assert.Equal(t, []string{"a", "b", "c"}, names(drain(f)))
}

func TestFutureEventSet_PutBackFirst_FromHeapGrowsBuffer(t *testing.T) {
	// GIVEN a full small buffer
	f := NewFutureEventSetWithConfig(FESConfig{BufferCapacity: 2})
	f.Insert(ev("h", 1, 0), 0)
	f.Insert(ev("b", 0, 0), 0)
	h := f.heap.removeFirst()
	h.owner = nil

	// WHEN a heap-extracted event is put back
	f.PutBackFirst(h)

	// THEN the buffer grew and the event leads
	assert.Equal(t, 4, f.cb.capacity())
	requireConsistent(t, f)
	assert.Equal(t, []string{"h", "b"}, names(drain(f)))
}

func TestFutureEventSet_Get(t *testing.T) {
	f := NewFutureEventSet()
	for _, e := range []*Event{ev("h3", 9, 0), ev("b1", 1, 0), ev("h1", 2, 0), ev("b2", 1, 0), ev("h2", 5, 0)} {
		f.Insert(e, 1)
	}

	var got []string
	for k := 0; k < f.Len(); k++ {
		got = append(got, f.Get(k).Name)
	}
	assert.Equal(t, []string{"b1", "b2", "h1", "h2", "h3"}, got)
	assert.Nil(t, f.Get(-1))
	assert.Nil(t, f.Get(f.Len()))
	requireConsistent(t, f)

	// Get may reorder the array but not the logical contents.
	assert.Equal(t, []string{"b1", "b2", "h1", "h2", "h3"}, names(drain(f)))
}

func TestFutureEventSet_ForEach_VisitsAll(t *testing.T) {
	f := NewFutureEventSet()
	want := map[string]bool{}
	for _, e := range []*Event{ev("a", 0, 0), ev("b", 1, 0), ev("c", 0, 2), ev("d", 0, 0)} {
		f.Insert(e, 0)
		want[e.Name] = true
	}
	got := map[string]bool{}
	f.ForEach(func(e *Event) { got[e.Name] = true })
	assert.Equal(t, want, got)
}

func TestFutureEventSet_Clear(t *testing.T) {
	// GIVEN a populated set
	f := NewFutureEventSet()
	evs := []*Event{ev("h", 4, 0), ev("b", 0, 0), ev("p", 0, 1)}
	for _, e := range evs {
		f.Insert(e, 0)
	}

	// WHEN cleared
	out := f.Clear()

	// THEN every event is returned in firing order and detached
	assert.Equal(t, []string{"b", "p", "h"}, names(out))
	assert.True(t, f.IsEmpty())
	assert.Nil(t, f.PeekFirst())
	for _, e := range evs {
		assert.False(t, e.IsScheduled())
		assert.Nil(t, e.owner)
	}

	// AND the events and the set are reusable
	f.Insert(evs[0], 0)
	assert.Equal(t, 1, f.Len())
}

func TestFutureEventSet_Copy_SnapshotIndependence(t *testing.T) {
	// GIVEN a set with events in both substructures
	f := NewFutureEventSet()
	for _, e := range []*Event{ev("b1", 5, 0), ev("h1", 8, 0), ev("b2", 5, 0), ev("h2", 5, 3), ev("h3", 6, 0)} {
		f.Insert(e, 5)
	}
	want := names(f.Events())

	// WHEN copied and the original is mutated
	c := f.Copy()
	requireConsistent(t, c)
	assert.Equal(t, f.BufferedLen(), c.BufferedLen())
	assert.Equal(t, f.HeapedLen(), c.HeapedLen())

	f.RemoveFirst()
	_, ok := f.Remove(f.Get(2))
	require.True(t, ok)
	f.Insert(ev("late", 5, -9), 5)

	// THEN the copy still extracts the original sequence
	copied := drain(c)
	if diff := cmp.Diff(want, names(copied)); diff != "" {
		t.Errorf("copy extraction mismatch (-want +got):\n%s", diff)
	}
	for _, e := range copied {
		assert.False(t, e.IsScheduled())
	}
	assert.Equal(t, 4, f.Len())
}

func TestFutureEventSet_Copy_SequencesContinue(t *testing.T) {
	f := NewFutureEventSet()
	f.Insert(ev("a", 0, 0), 0)
	f.Insert(ev("b", 0, 0), 0)
	c := f.Copy()

	x, y := ev("x", 0, 0), ev("y", 0, 0)
	f.Insert(x, 0)
	c.Insert(y, 0)
	assert.Equal(t, x.InsertionSequence(), y.InsertionSequence())
}

func TestFutureEventSet_Copy_EventsBelongToCopy(t *testing.T) {
	f := NewFutureEventSet()
	f.Insert(ev("a", 1, 0), 0)
	c := f.Copy()
	dup := c.PeekFirst()

	assert.Panics(t, func() { f.Remove(dup) }, "removing another set's event must fail fast")
	_, ok := c.Remove(dup)
	assert.True(t, ok)
}

func TestFutureEventSet_InsertResident_Panics(t *testing.T) {
	f := NewFutureEventSet()
	e := ev("e", 0, 0)
	f.Insert(e, 0)
	assert.Panics(t, func() { f.Insert(e, 0) })
	assert.Panics(t, func() { NewFutureEventSet().Insert(e, 0) })
	assert.Panics(t, func() { f.PutBackFirst(e) })
}

func TestFutureEventSet_String(t *testing.T) {
	f := NewFutureEventSet()
	assert.Equal(t, "empty", f.String())
	f.Insert(ev("a", 0, 0), 0)
	f.Insert(ev("b", 2, 0), 0)
	assert.Equal(t, "length=2", f.String())
}
