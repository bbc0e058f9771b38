// Package rng provides the RNG abstraction used by the solver (spec §4.J):
// a source of doubles strictly within the open interval (0,1).
package rng

import (
	"hash/fnv"
	"math/rand"
	"strconv"
)

// Source produces doubles strictly in (0,1). Implementations must detect
// and perturb the exact 0 and 1 outputs of their underlying generator,
// since choose_and_advance takes -ln(u) of the result (spec §4.J).
type Source interface {
	NextUniformOpen01() float64
}

// smallestStep is added to a draw of exactly 0, or subtracted from a draw
// of exactly 1, to push it strictly inside the open interval.
const smallestStep = 1e-16

// MathRand wraps math/rand.Rand, matching the teacher's use of
// math/rand for deterministic, seedable per-subsystem streams
// (sim/cluster/rng.go's PartitionedRNG).
type MathRand struct {
	r *rand.Rand
}

// NewMathRand builds a MathRand seeded deterministically from seed.
func NewMathRand(seed int64) *MathRand {
	return &MathRand{r: rand.New(rand.NewSource(seed))}
}

// FromSource wraps an already-constructed *rand.Rand, e.g. one handed out
// by a PartitionedRNG subsystem stream.
func FromSource(r *rand.Rand) *MathRand {
	return &MathRand{r: r}
}

// NextUniformOpen01 implements Source.
func (m *MathRand) NextUniformOpen01() float64 {
	u := m.r.Float64() // [0,1)
	if u == 0 {
		return smallestStep
	}
	return u
}

// PartitionedRNG provides isolated, deterministic RNG streams per
// subsystem and per sector, so that parallel partitions draw from
// independent but reproducible streams. Grounded on
// sim/cluster/rng.go's PartitionedRNG: subsystem seeds are derived by
// XOR-ing the master seed with an FNV hash of the subsystem name, which
// is order-independent (calling ForSector in any order yields the same
// per-sector stream).
type PartitionedRNG struct {
	masterSeed int64
	streams    map[string]*MathRand
}

// NewPartitionedRNG builds a PartitionedRNG from a master seed.
func NewPartitionedRNG(masterSeed int64) *PartitionedRNG {
	return &PartitionedRNG{masterSeed: masterSeed, streams: make(map[string]*MathRand)}
}

// ForSector returns the RNG stream dedicated to sector sect, creating it
// deterministically on first use.
func (p *PartitionedRNG) ForSector(sect int) Source {
	return p.forName(sectorStreamName(sect))
}

func (p *PartitionedRNG) forName(name string) *MathRand {
	if s, ok := p.streams[name]; ok {
		return s
	}
	s := NewMathRand(p.deriveSeed(name))
	p.streams[name] = s
	return s
}

func sectorStreamName(sect int) string {
	return "sector_" + strconv.Itoa(sect)
}

// deriveSeed deterministically derives a stream seed from the master seed
// and a stream name: subsystemSeed = masterSeed XOR hash(name).
func (p *PartitionedRNG) deriveSeed(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return p.masterSeed ^ int64(h.Sum64())
}
