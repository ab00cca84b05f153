package cmd

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/fesim/sim/workload"
)

// resolveStressSpec builds the workload configuration for cmd. A --workload
// file provides the base; only flags the user set explicitly override it.
// Without a file every flag applies.
func resolveStressSpec(cmd *cobra.Command) (*workload.StressSpec, error) {
	var spec *workload.StressSpec
	if workloadSpecPath != "" {
		loaded, err := workload.LoadStressSpec(workloadSpecPath)
		if err != nil {
			return nil, err
		}
		logrus.Infof("Using stress spec %s", workloadSpecPath)
		spec = loaded
	} else {
		d := workload.DefaultStressSpec()
		spec = &d
	}

	override := func(name string) bool {
		return workloadSpecPath == "" || cmd.Flags().Changed(name)
	}
	if override("seed") {
		spec.Seed = seed
	}
	if override("horizon") {
		spec.Horizon = simulationHorizon
	}
	if override("sources") {
		spec.Sources = sources
	}
	if override("service-time") {
		spec.ServiceTime = serviceTime
	}
	if override("send-probability") {
		spec.SendProbability = sendProbability
	}
	if override("zero-delay-fraction") {
		spec.ZeroDelayFraction = zeroDelayFraction
	}
	if override("max-delay") {
		spec.MaxDelay = maxDelay
	}
	if override("priority-levels") {
		spec.PriorityLevels = priorityLevels
	}
	if override("max-hops") {
		spec.MaxHops = maxHops
	}

	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stress spec: %w", err)
	}
	return spec, nil
}

func sortedKinds(dist map[string]int) []string {
	kinds := make([]string, 0, len(dist))
	for k := range dist {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
