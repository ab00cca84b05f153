package sim

import (
	"fmt"
	"math"
)

// FESConfig groups the initial sizes of a FutureEventSet's two substructures.
// Zero values select the defaults.
type FESConfig struct {
	HeapCapacity   int // initial heap slots (default 128)
	BufferCapacity int // initial ring buffer slots, rounded up to a power of 2 (default 4)
}

// withDefaults returns a copy of c with zero fields replaced by defaults.
func (c FESConfig) withDefaults() FESConfig {
	if c.HeapCapacity == 0 {
		c.HeapCapacity = defaultHeapCapacity
	}
	if c.BufferCapacity == 0 {
		c.BufferCapacity = defaultBufferCapacity
	}
	return c
}

// Validate rejects negative capacities.
func (c FESConfig) Validate() error {
	if c.HeapCapacity < 0 {
		return fmt.Errorf("heap capacity must be non-negative, got %d", c.HeapCapacity)
	}
	if c.BufferCapacity < 0 {
		return fmt.Errorf("buffer capacity must be non-negative, got %d", c.BufferCapacity)
	}
	return nil
}

// SimConfig groups parameters for NewSimulator.
type SimConfig struct {
	FES            FESConfig
	Horizon        int64 // last simulation time that may fire (0 = unlimited)
	SampleInterval int64 // sample the pending-set size every N fired events (0 = never)
}

// horizon returns the effective horizon.
func (c SimConfig) horizon() int64 {
	if c.Horizon <= 0 {
		return math.MaxInt64
	}
	return c.Horizon
}

// Validate checks the configuration before a simulator is built.
func (c SimConfig) Validate() error {
	if err := c.FES.Validate(); err != nil {
		return fmt.Errorf("fes: %w", err)
	}
	if c.SampleInterval < 0 {
		return fmt.Errorf("sample interval must be non-negative, got %d", c.SampleInterval)
	}
	return nil
}
