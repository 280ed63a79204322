package model

import (
	"math"
	"sync/atomic"
)

// LearningRate is the step-size scalar shared by every trainer built
// over the same tables. The driving layer decays it as training
// progresses; trainers read it at each step. Loads and stores are
// atomic but deliberately unsynchronized with row updates, consistent
// with the lock-free SGD scheme the trainers run under.
type LearningRate struct {
	bits  atomic.Uint32
	floor float32
}

// NewLearningRate returns a shared rate cell starting at initial. The
// cell never stores a value below floor.
func NewLearningRate(initial, floor float32) *LearningRate {
	if floor < 0 {
		panic("model: negative learning rate floor")
	}
	r := &LearningRate{floor: floor}
	r.Set(initial)
	return r
}

// Value returns the current rate.
func (r *LearningRate) Value() float32 {
	return math.Float32frombits(r.bits.Load())
}

// Set replaces the current rate, clamping at the floor.
func (r *LearningRate) Set(v float32) {
	if v < r.floor {
		v = r.floor
	}
	r.bits.Store(math.Float32bits(v))
}

// Floor returns the configured minimum rate.
func (r *LearningRate) Floor() float32 { return r.floor }
