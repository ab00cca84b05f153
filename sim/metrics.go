// Tracks event-set activity over a simulation run: inserts per substructure,
// fired and cancelled events, and sampled pending-set sizes.

package sim

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Metrics aggregates statistics about the simulation
// for final reporting.
type Metrics struct {
	EventsInserted  int64 // Number of successful inserts
	BufferedInserts int64 // Inserts routed to the ring buffer
	HeapedInserts   int64 // Inserts routed to the heap
	EventsFired     int64 // Events delivered to handlers
	EventsCancelled int64 // Cancellations that removed a pending event
	CancelMisses    int64 // Cancellations of events that were not pending
	PutBacks        int64 // Speculative extractions undone at the horizon
	PeakPending     int   // Max number of simultaneously pending events
	SimEndedTime    int64 // Clock when Run returned, capped at the horizon

	PendingSamples []float64 // pending-set size sampled every SampleInterval fired events
}

// NewMetrics returns zeroed metrics.
func NewMetrics() *Metrics {
	return &Metrics{PendingSamples: make([]float64, 0)}
}

func (m *Metrics) recordInsert(buffered bool, pending int) {
	m.EventsInserted++
	if buffered {
		m.BufferedInserts++
	} else {
		m.HeapedInserts++
	}
	m.PeakPending = max(m.PeakPending, pending)
}

func (m *Metrics) samplePending(pending int) {
	m.PendingSamples = append(m.PendingSamples, float64(pending))
}

// BufferedFraction returns the share of inserts served by the ring buffer.
func (m *Metrics) BufferedFraction() float64 {
	if m.EventsInserted == 0 {
		return 0
	}
	return float64(m.BufferedInserts) / float64(m.EventsInserted)
}

// PendingStats returns the mean and standard deviation of the sampled
// pending-set sizes. The deviation is 0 with fewer than two samples.
func (m *Metrics) PendingStats() (mean, stdDev float64) {
	switch len(m.PendingSamples) {
	case 0:
		return 0, 0
	case 1:
		return m.PendingSamples[0], 0
	}
	return stat.MeanStdDev(m.PendingSamples, nil)
}

// Print displays aggregated metrics at the end of the simulation.
func (m *Metrics) Print() {
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Simulation Ended At  : %d ticks\n", m.SimEndedTime)
	fmt.Printf("Events Fired         : %d\n", m.EventsFired)
	fmt.Printf("Events Inserted      : %d\n", m.EventsInserted)
	if m.EventsInserted > 0 {
		fmt.Printf("  Ring Buffer        : %d (%.2f%%)\n", m.BufferedInserts, 100*m.BufferedFraction())
		fmt.Printf("  Heap               : %d\n", m.HeapedInserts)
	}
	fmt.Printf("Events Cancelled     : %d (%d misses)\n", m.EventsCancelled, m.CancelMisses)
	fmt.Printf("Put Backs            : %d\n", m.PutBacks)
	fmt.Printf("Peak Pending         : %d\n", m.PeakPending)
	if len(m.PendingSamples) > 0 {
		mean, sd := m.PendingStats()
		fmt.Printf("Pending (mean ± sd)  : %.2f ± %.2f over %d samples\n", mean, sd, len(m.PendingSamples))
	}
}
