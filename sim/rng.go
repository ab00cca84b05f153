package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two simulations with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical results.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemWorkload is the RNG subsystem for workload generation.
	SubsystemWorkload = "workload"

	// SubsystemRouting is the RNG subsystem that picks message destinations.
	SubsystemRouting = "routing"
)

// SubsystemSource returns the subsystem name for stress source N.
func SubsystemSource(id int) string {
	return fmt.Sprintf("source_%d", id)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula: each subsystem gets a PCG source seeded with
// (masterSeed, fnv1a64(subsystemName)).
//
// PCG state is a plain value, so Clone can duplicate every stream at its
// current position; a cloned simulation draws exactly what the original does.
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	sources    map[string]*rand.PCG
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		sources:    make(map[string]*rand.PCG),
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	src := rand.NewPCG(uint64(p.key), fnv1a64(name))
	return p.install(name, src)
}

func (p *PartitionedRNG) install(name string, src *rand.PCG) *rand.Rand {
	rng := rand.New(src)
	p.sources[name] = src
	p.subsystems[name] = rng
	return rng
}

// Clone returns an independent PartitionedRNG whose streams continue from
// the current position of every stream in p.
func (p *PartitionedRNG) Clone() *PartitionedRNG {
	c := NewPartitionedRNG(p.key)
	for name, src := range p.sources {
		dup := *src
		c.install(name, &dup)
	}
	return c
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
