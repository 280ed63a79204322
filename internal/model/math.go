package model

import "math"

const (
	maxActivation    = 8
	sigmoidTableSize = 512
	logTableSize     = 512
)

// Logistic steps run millions of times per training pass, so sigmoid and
// log are served from small lookup tables built once at package load.
var (
	sigmoidTable [sigmoidTableSize + 1]float32
	logTable     [logTableSize + 1]float32
)

func init() {
	for i := range sigmoidTable {
		x := float64(i*2*maxActivation)/sigmoidTableSize - maxActivation
		sigmoidTable[i] = float32(1.0 / (1.0 + math.Exp(-x)))
	}
	for i := range logTable {
		x := (float64(i) + 1e-5) / logTableSize
		logTable[i] = float32(math.Log(x))
	}
}

// sigmoid approximates the logistic function, saturating to 0 and 1
// outside [-maxActivation, maxActivation].
func sigmoid(x float32) float32 {
	switch {
	case x < -maxActivation:
		return 0
	case x > maxActivation:
		return 1
	default:
		i := int((x + maxActivation) * sigmoidTableSize / maxActivation / 2)
		return sigmoidTable[i]
	}
}

// safeLog approximates log(x) on (0, 1], returning 0 for any x >= 1 and
// a large negative value (not -Inf) at x == 0. Results are never
// positive; the tree search's pruning bound depends on that.
func safeLog(x float32) float32 {
	if x >= 1.0 {
		return 0
	}
	i := int(x * logTableSize)
	return logTable[i]
}
