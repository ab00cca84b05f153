package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalFired       int
	TotalCancelled   int
	CancelMisses     int            // cancellations of events that were not pending
	LongestBurst     int            // most events fired at one simulation instant
	KindDistribution map[string]int // event kind → count of fired events
	UniqueKinds      int
	FinalClock       int64
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		KindDistribution: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalFired = len(st.Fired)
	burst := 0
	for i, r := range st.Fired {
		summary.KindDistribution[r.Kind]++
		if i > 0 && st.Fired[i-1].Clock == r.Clock {
			burst++
		} else {
			burst = 1
		}
		summary.LongestBurst = max(summary.LongestBurst, burst)
		summary.FinalClock = r.Clock
	}

	for _, c := range st.Cancels {
		if c.Found {
			summary.TotalCancelled++
		} else {
			summary.CancelMisses++
		}
	}

	summary.UniqueKinds = len(summary.KindDistribution)

	return summary
}
