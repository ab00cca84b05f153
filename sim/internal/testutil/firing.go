// Package testutil provides shared test assertions for the simulator's
// sub-packages.
package testutil

import (
	"math"
	"testing"

	"github.com/inference-sim/fesim/sim/trace"
)

// RequireFiringOrder fails t unless the fired records never move the
// clock backwards and, within one instant, never fire an event inserted
// later ahead of an earlier one of the same priority.
func RequireFiringOrder(t *testing.T, fired []trace.FiredRecord) {
	t.Helper()
	for i := 1; i < len(fired); i++ {
		prev, cur := fired[i-1], fired[i]
		if cur.Clock < prev.Clock {
			t.Fatalf("record %d: clock went back from %d to %d", i, prev.Clock, cur.Clock)
		}
		if cur.Clock == prev.Clock && cur.Priority == prev.Priority && cur.Seq < prev.Seq {
			t.Fatalf("record %d: %s (seq %d) fired after %s (seq %d) at tick %d",
				i, cur.Name, cur.Seq, prev.Name, prev.Seq, cur.Clock)
		}
	}
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
