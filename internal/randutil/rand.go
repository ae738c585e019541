// Package randutil centralises how random generators are seeded so that a
// single int64 seed reproduces every shuffle and room id in the process.
package randutil

import rand "math/rand/v2"

// New returns a *rand.Rand seeded deterministically from the provided int64.
// The seed is mixed through SplitMix64 to derive the two 64-bit PCG seeds,
// so nearby seeds still produce unrelated sequences.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(^u)))
}

// Derive spawns an independent generator from an existing one. Each room gets
// a derived generator at creation so per-room operations never contend on a
// shared source.
func Derive(r *rand.Rand) *rand.Rand {
	return rand.New(rand.NewPCG(r.Uint64(), r.Uint64()))
}

// mix is the SplitMix64 finalizer.
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
