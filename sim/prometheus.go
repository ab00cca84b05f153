package sim

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "fesim"

// RegisterMetrics exposes the simulator's counters and the current size of
// its event set through reg. Values are read at gather time, so gathering
// must happen on the goroutine that runs the simulator.
func RegisterMetrics(reg prometheus.Registerer, sim *Simulator) error {
	counter := func(name, help string, value func() int64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(value()) })
	}
	pending := func(store string, value func() int) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "pending_events",
			Help:        "Number of events currently pending, by substructure.",
			ConstLabels: prometheus.Labels{"store": store},
		}, func() float64 { return float64(value()) })
	}

	collectors := []prometheus.Collector{
		counter("events_inserted_total", "Events inserted into the event set.", func() int64 { return sim.Metrics.EventsInserted }),
		counter("buffered_inserts_total", "Inserts routed to the ring buffer.", func() int64 { return sim.Metrics.BufferedInserts }),
		counter("heaped_inserts_total", "Inserts routed to the heap.", func() int64 { return sim.Metrics.HeapedInserts }),
		counter("events_fired_total", "Events delivered to handlers.", func() int64 { return sim.Metrics.EventsFired }),
		counter("events_cancelled_total", "Pending events removed by cancellation.", func() int64 { return sim.Metrics.EventsCancelled }),
		counter("cancel_misses_total", "Cancellations of events that were not pending.", func() int64 { return sim.Metrics.CancelMisses }),
		pending("buffer", func() int { return sim.fes.BufferedLen() }),
		pending("heap", func() int { return sim.fes.HeapedLen() }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "simulation_time_ticks",
			Help:      "Current simulation clock.",
		}, func() float64 { return float64(sim.Clock) }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("registering simulator metrics: %w", err)
		}
	}
	return nil
}
