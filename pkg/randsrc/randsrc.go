// Package randsrc provides the uniform random streams used by the stochastic
// estimators. A stream is owned by exactly one worker; none of the values
// returned here are safe for concurrent use.
package randsrc

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

// Source yields uniform values in [0, 1).
type Source interface {
	Float64() float64
}

// Factory creates a fresh Source. Stochastic estimators call it once per
// worker at the start of every run.
type Factory func() Source

var fallbackCounter atomic.Uint64

// New returns a PCG stream seeded from the operating system entropy pool.
func New() Source {
	hi, lo := entropySeed()
	return Seeded(hi, lo)
}

// Seeded returns a PCG stream with a fixed seed.
func Seeded(hi, lo uint64) Source {
	return rand.New(rand.NewPCG(hi, lo))
}

func entropySeed() (uint64, uint64) {
	var b [16]byte
	if _, err := crand.Read(b[:]); err == nil {
		return binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:])
	}
	// clock plus a process-wide counter keeps concurrent workers apart
	n := fallbackCounter.Add(1)
	now := uint64(time.Now().UnixNano())
	return mix64(now + n), mix64(now ^ (n << 32))
}

// mix64 is the splitmix64 finaliser.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
