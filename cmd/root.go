package cmd

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/fesim/sim"
	"github.com/inference-sim/fesim/sim/trace"
	"github.com/inference-sim/fesim/sim/workload"
)

var (
	// CLI flags for the stress workload
	seed              int64   // Seed for the partitioned RNG
	simulationHorizon int64   // Last simulated tick
	logLevel          string  // Log verbosity level
	sources           int     // Number of message sources
	serviceTime       int64   // Ticks between a source's timer expiries
	sendProbability   float64 // Chance a timer expiry creates a message
	zeroDelayFraction float64 // Share of deliveries at the current instant
	maxDelay          int64   // Upper bound of non-zero delivery delays
	priorityLevels    int     // Number of delivery priorities
	maxHops           int     // Deliveries before a message is dropped
	workloadSpecPath  string  // Path to a YAML stress spec
	traceLevel        string  // Trace verbosity level
	metricsFile       string  // Prometheus text file written after the run
	sampleInterval    int64   // Sample pending events every N fired events

	// Event set sizing
	heapCapacity   int
	bufferCapacity int
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "fesim",
	Short: "Discrete-event simulation future event set driver",
}

// runCmd runs the stress workload against the event set
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the stress workload to the horizon",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s", traceLevel)
		}
		spec, err := resolveStressSpec(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		logrus.Infof("Starting simulation with seed=%d, horizon=%dticks, sources=%d", spec.Seed, spec.Horizon, spec.Sources)
		s, err := runStress(spec, trace.TraceLevel(traceLevel))
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		s.Metrics.Print()
		if s.Trace.Enabled() {
			printTraceSummary(s.Trace)
		}
		if metricsFile != "" {
			if err := writeMetricsFile(metricsFile, s); err != nil {
				logrus.Fatalf("%v", err)
			}
			logrus.Infof("Metrics written to %s", metricsFile)
		}
		logrus.Info("Simulation complete.")
	},
}

// verifyCmd checks that a snapshot taken mid-run continues identically
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that a mid-run snapshot reproduces the original run",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		spec, err := resolveStressSpec(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		orig, snap, err := verifyStress(spec)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		fmt.Printf("Original digest : %016x\n", orig)
		fmt.Printf("Snapshot digest : %016x\n", snap)
		if orig != snap {
			logrus.Fatalf("snapshot diverged from the original run")
		}
		fmt.Println("Snapshot continuation matches.")
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

func simConfig(spec *workload.StressSpec) sim.SimConfig {
	return sim.SimConfig{
		FES:            sim.FESConfig{HeapCapacity: heapCapacity, BufferCapacity: bufferCapacity},
		Horizon:        spec.Horizon,
		SampleInterval: sampleInterval,
	}
}

func newStressSimulator(spec *workload.StressSpec, level trace.TraceLevel) (*sim.Simulator, error) {
	s, err := sim.NewSimulator(simConfig(spec))
	if err != nil {
		return nil, fmt.Errorf("creating simulator: %w", err)
	}
	s.EnableTrace(level)
	if _, err := workload.NewStress(*spec, s); err != nil {
		return nil, err
	}
	return s, nil
}

// runStress runs the workload described by spec to its horizon.
func runStress(spec *workload.StressSpec, level trace.TraceLevel) (*sim.Simulator, error) {
	s, err := newStressSimulator(spec, level)
	if err != nil {
		return nil, err
	}
	s.Run()
	return s, nil
}

// verifyStress runs the workload to half its horizon, snapshots it, and
// finishes both copies. It returns the trace digests of both.
func verifyStress(spec *workload.StressSpec) (orig, snap uint64, err error) {
	s, err := newStressSimulator(spec, trace.TraceLevelEvents)
	if err != nil {
		return 0, 0, err
	}
	s.RunUntil(spec.Horizon / 2)
	c := s.Snapshot()
	logrus.Infof("[tick %07d] Snapshot taken with %s pending", s.Clock, c.FES())
	s.Run()
	c.Run()
	return s.Trace.Digest(), c.Trace.Digest(), nil
}

// writeMetricsFile exports the simulator's counters in Prometheus text format.
func writeMetricsFile(path string, s *sim.Simulator) error {
	reg := prometheus.NewRegistry()
	if err := sim.RegisterMetrics(reg, s); err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("writing metrics file: %w", err)
	}
	return nil
}

func printTraceSummary(st *trace.SimulationTrace) {
	summary := trace.Summarize(st)
	fmt.Println("=== Trace Summary ===")
	fmt.Printf("Digest               : %016x\n", st.Digest())
	fmt.Printf("Longest Burst        : %d events\n", summary.LongestBurst)
	for _, kind := range sortedKinds(summary.KindDistribution) {
		fmt.Printf("  %-18s : %d\n", kind, summary.KindDistribution[kind])
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func registerStressFlags(cmd *cobra.Command) {
	defaults := workload.DefaultStressSpec()
	cmd.Flags().Int64Var(&seed, "seed", defaults.Seed, "Seed for the workload's random streams")
	cmd.Flags().Int64Var(&simulationHorizon, "horizon", defaults.Horizon, "Total simulation horizon (in ticks)")
	cmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	cmd.Flags().StringVar(&workloadSpecPath, "workload", "", "Path to a YAML stress spec; flags set explicitly override it")

	cmd.Flags().IntVar(&sources, "sources", defaults.Sources, "Number of message sources")
	cmd.Flags().Int64Var(&serviceTime, "service-time", defaults.ServiceTime, "Ticks between a source's timer expiries")
	cmd.Flags().Float64Var(&sendProbability, "send-probability", defaults.SendProbability, "Probability that a timer expiry creates a message")
	cmd.Flags().Float64Var(&zeroDelayFraction, "zero-delay-fraction", defaults.ZeroDelayFraction, "Fraction of deliveries scheduled at the current tick")
	cmd.Flags().Int64Var(&maxDelay, "max-delay", defaults.MaxDelay, "Maximum non-zero delivery delay (in ticks)")
	cmd.Flags().IntVar(&priorityLevels, "priority-levels", defaults.PriorityLevels, "Number of delivery priorities")
	cmd.Flags().IntVar(&maxHops, "max-hops", defaults.MaxHops, "Deliveries before a message is dropped (0 = never)")

	cmd.Flags().IntVar(&heapCapacity, "heap-capacity", 0, "Initial heap capacity (0 = default)")
	cmd.Flags().IntVar(&bufferCapacity, "buffer-capacity", 0, "Initial ring buffer capacity (0 = default)")
}

func init() {
	registerStressFlags(runCmd)
	registerStressFlags(verifyCmd)

	runCmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Trace level (none, events)")
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")
	runCmd.Flags().Int64Var(&sampleInterval, "sample-interval", 1000, "Sample the pending event count every N fired events (0 = off)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(verifyCmd)
}
