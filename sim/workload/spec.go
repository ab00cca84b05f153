package workload

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// currentVersion is the stress spec format written by this package.
const currentVersion = "1"

// StressSpec is the top-level stress workload configuration.
// Loaded from YAML via LoadStressSpec(path).
type StressSpec struct {
	Version           string  `yaml:"version"`
	Seed              int64   `yaml:"seed"`
	Sources           int     `yaml:"sources"`             // number of message sources
	ServiceTime       int64   `yaml:"service_time"`        // ticks between a source's timer expiries
	SendProbability   float64 `yaml:"send_probability"`    // chance a timer expiry generates its own message
	ZeroDelayFraction float64 `yaml:"zero_delay_fraction"` // share of messages delivered at the current instant
	MaxDelay          int64   `yaml:"max_delay"`           // upper bound of non-zero delivery delays
	PriorityLevels    int     `yaml:"priority_levels"`     // delivery priorities are drawn from [0, levels)
	MaxHops           int     `yaml:"max_hops"`            // deliveries before a message is dropped (0 = never)
	Horizon           int64   `yaml:"horizon"`
}

// DefaultStressSpec returns the configuration used when no file is given.
func DefaultStressSpec() StressSpec {
	return StressSpec{
		Version:           currentVersion,
		Seed:              42,
		Sources:           8,
		ServiceTime:       100,
		SendProbability:   0.5,
		ZeroDelayFraction: 0.6,
		MaxDelay:          50,
		PriorityLevels:    1,
		MaxHops:           16,
		Horizon:           100_000,
	}
}

// LoadStressSpec reads and parses a YAML stress specification file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
// Fields absent from the file keep their DefaultStressSpec values.
func LoadStressSpec(path string) (*StressSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stress spec: %w", err)
	}
	spec := DefaultStressSpec()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing stress spec: %w", err)
	}
	if spec.Version == "" {
		spec.Version = currentVersion
	}
	if spec.Version != currentVersion {
		logrus.Warnf("stress spec version %q is not %q; fields are read as version %s", spec.Version, currentVersion, currentVersion)
	}
	return &spec, nil
}

// Validate checks that every field is in range.
func (s *StressSpec) Validate() error {
	if s.Sources <= 0 {
		return fmt.Errorf("sources must be positive, got %d", s.Sources)
	}
	if s.ServiceTime <= 0 {
		return fmt.Errorf("service_time must be positive, got %d", s.ServiceTime)
	}
	if err := validateFraction("send_probability", s.SendProbability); err != nil {
		return err
	}
	if err := validateFraction("zero_delay_fraction", s.ZeroDelayFraction); err != nil {
		return err
	}
	if s.MaxDelay <= 0 && s.ZeroDelayFraction < 1 {
		return fmt.Errorf("max_delay must be positive unless zero_delay_fraction is 1, got %d", s.MaxDelay)
	}
	if s.PriorityLevels <= 0 {
		return fmt.Errorf("priority_levels must be positive, got %d", s.PriorityLevels)
	}
	if s.MaxHops < 0 {
		return fmt.Errorf("max_hops must be non-negative, got %d", s.MaxHops)
	}
	if s.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %d", s.Horizon)
	}
	return nil
}

func validateFraction(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%s must be in [0, 1], got %f", field, v)
	}
	return nil
}
