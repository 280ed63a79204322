package model

import (
	"math"
	"math/rand"
)

// negativeTableSize fixes the resolution of the sampling table. Class
// multiplicities are proportional to sqrt(frequency) at this scale.
const negativeTableSize = 1e7

// buildNegatives builds the shuffled sampling table: class i contributes
// round(sqrt(count) * size / Z) copies of its index, where Z is the sum
// of sqrt(count) over all classes.
func buildNegatives(counts []int64, rng *rand.Rand) []int32 {
	var z float64
	for _, c := range counts {
		z += math.Sqrt(float64(c))
	}
	table := make([]int32, 0, negativeTableSize)
	for i, c := range counts {
		n := int(math.Round(math.Sqrt(float64(c)) * negativeTableSize / z))
		for j := 0; j < n; j++ {
			table = append(table, int32(i))
		}
	}
	rng.Shuffle(len(table), func(a, b int) {
		table[a], table[b] = table[b], table[a]
	})
	return table
}

// nextNegative draws the next class from the table, skipping the
// excluded one. With a single output class the skip can never succeed;
// negative sampling requires at least two classes.
func (m *Model) nextNegative(exclude int32) int32 {
	for {
		neg := m.negatives[m.negpos]
		m.negpos = (m.negpos + 1) % len(m.negatives)
		if neg != exclude {
			return neg
		}
	}
}
