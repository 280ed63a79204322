// Package synth generates deterministic (features, target) example
// streams for benchmarks and tests, standing in for the corpus pipeline
// that lives outside this repo. Targets follow a Zipf-like skew and
// feature indices correlate with the target, so a model trained on a
// stream has real signal to find.
package synth

import (
	"math/rand"
	"slices"
	"sort"
)

// Stream is a deterministic example source. Not safe for concurrent
// use; give each goroutine its own stream.
type Stream struct {
	rng         *rand.Rand
	isz         int
	osz         int
	maxFeatures int
	counts      []int64
	cum         []float64
}

// NewStream builds a stream over isz input features and osz output
// classes, emitting between 1 and maxFeatures features per example.
// The same seed always yields the same sequence.
func NewStream(isz, osz, maxFeatures int, seed int64) *Stream {
	if isz <= 0 || osz <= 0 || maxFeatures <= 0 {
		panic("synth: sizes must be positive")
	}
	s := &Stream{
		rng:         rand.New(rand.NewSource(seed)),
		isz:         isz,
		osz:         osz,
		maxFeatures: maxFeatures,
		counts:      make([]int64, osz),
		cum:         make([]float64, osz),
	}
	var total float64
	for i := range s.counts {
		s.counts[i] = int64(1_000_000/(i+1)) + 1
		total += float64(s.counts[i])
		s.cum[i] = total
	}
	for i := range s.cum {
		s.cum[i] /= total
	}
	return s
}

// Counts returns the class frequencies targets are drawn from, sorted
// in non-increasing order.
func (s *Stream) Counts() []int64 {
	return slices.Clone(s.counts)
}

// Next returns the next example: most features fall in a band keyed to
// the target, the rest are uniform noise.
func (s *Stream) Next() ([]int, int) {
	target := s.drawTarget()
	features := make([]int, 1+s.rng.Intn(s.maxFeatures))
	band := s.isz / s.osz
	if band == 0 {
		band = 1
	}
	for i := range features {
		if s.rng.Float64() < 0.8 {
			features[i] = (target*band + s.rng.Intn(band)) % s.isz
		} else {
			features[i] = s.rng.Intn(s.isz)
		}
	}
	return features, target
}

func (s *Stream) drawTarget() int {
	i := sort.SearchFloat64s(s.cum, s.rng.Float64())
	if i >= s.osz {
		i = s.osz - 1
	}
	return i
}
