// Package randutil builds the seeded generators behind `flip7 simulate`, so
// a run can be replayed with --seed.
package randutil

import (
	rand "math/rand/v2"
	"time"
)

// New returns a PCG generator for seed. It is the first of Streams(seed, n).
func New(seed int64) *rand.Rand {
	sm := splitMix(seed)
	return sm.pcg()
}

// Streams returns n generators for the simulator's workers. Each stream
// depends only on seed and its index, so results are reproducible for a
// fixed worker count.
func Streams(seed int64, n int) []*rand.Rand {
	sm := splitMix(seed)
	out := make([]*rand.Rand, n)
	for i := range out {
		out[i] = sm.pcg()
	}
	return out
}

// Seed returns *explicit when set, otherwise a time-derived seed. The second
// return value reports whether the seed was supplied by the caller.
func Seed(explicit *int64) (int64, bool) {
	if explicit != nil {
		return *explicit, true
	}
	return time.Now().UnixNano(), false
}

// splitMix is a splitmix64 sequence used to expand one seed into PCG state
type splitMix uint64

func (s *splitMix) next() uint64 {
	*s += 0x9e3779b97f4a7c15
	z := uint64(*s)
	z = (z ^ z>>30) * 0xbf58476d1ce4e5b9
	z = (z ^ z>>27) * 0x94d049bb133111eb
	return z ^ z>>31
}

func (s *splitMix) pcg() *rand.Rand {
	hi := s.next()
	lo := s.next()
	return rand.New(rand.NewPCG(hi, lo))
}
