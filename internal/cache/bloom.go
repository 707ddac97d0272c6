// Package cache implements the Multi-layer Cache (spec.md §4.5): a
// negative-existence filter, a request coalescer, an access-frequency
// counter, and adaptive-TTL KV backing, grounded on the teacher's
// Redis-backed cache (internal/skills/redis_cache.go) generalized from a
// single prompt-cache use case to the four cooperating layers this spec
// requires.
package cache

import (
	"hash/maphash"
	"math"
)

// NegativeFilter is a Bloom-style probabilistic set used to short-circuit
// lookups known to have no authoritative result (spec.md §4.5.1).
// might_exist returning false is a hard guarantee of absence; true is only
// probabilistic presence, per the standard Bloom-filter contract.
type NegativeFilter struct {
	bits  []uint64
	m     uint64 // bit count
	k     int    // hash count
	seed1 maphash.Seed
	seed2 maphash.Seed
}

// NewNegativeFilter sizes the filter for n expected items at the given
// false-positive rate, using the standard m = -n*ln(p)/(ln2)^2 and
// k = (m/n)*ln2 formulas.
func NewNegativeFilter(n int, falsePositiveRate float64) *NegativeFilter {
	if n <= 0 {
		n = 1
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}
	m := uint64(math.Ceil(-float64(n) * math.Log(falsePositiveRate) / (math.Ln2 * math.Ln2)))
	if m < 64 {
		m = 64
	}
	k := int(math.Round(float64(m) / float64(n) * math.Ln2))
	if k < 1 {
		k = 1
	}
	words := (m + 63) / 64
	return &NegativeFilter{
		bits:  make([]uint64, words),
		m:     words * 64,
		k:     k,
		seed1: maphash.MakeSeed(),
		seed2: maphash.MakeSeed(),
	}
}

// positions computes the k bit positions for key via double hashing
// (Kirsch-Mitzenmacher): h_i = h1 + i*h2 mod m.
func (f *NegativeFilter) positions(key string) []uint64 {
	var h1, h2 maphash.Hash
	h1.SetSeed(f.seed1)
	h2.SetSeed(f.seed2)
	h1.WriteString(key)
	h2.WriteString(key + "\x00salt")
	a, b := h1.Sum64(), h2.Sum64()

	out := make([]uint64, f.k)
	for i := 0; i < f.k; i++ {
		out[i] = (a + uint64(i)*b) % f.m
	}
	return out
}

// MarkExists sets key's bits. Idempotent: setting an already-set bit is a
// no-op.
func (f *NegativeFilter) MarkExists(key string) {
	for _, pos := range f.positions(key) {
		f.bits[pos/64] |= 1 << (pos % 64)
	}
}

// MightExist returns false only when key is definitely absent.
func (f *NegativeFilter) MightExist(key string) bool {
	for _, pos := range f.positions(key) {
		if f.bits[pos/64]&(1<<(pos%64)) == 0 {
			return false
		}
	}
	return true
}

// Clear resets the filter to empty, per the administrative clear_cache
// command (spec.md §4.5.1, §4.12's WebSocket command protocol).
func (f *NegativeFilter) Clear() {
	for i := range f.bits {
		f.bits[i] = 0
	}
}
