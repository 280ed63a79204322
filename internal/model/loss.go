package model

import (
	"math"

	"github.com/fbotkashower/fastText/internal/tensor"
)

// lossStrategy is one of the three scoring/gradient procedures a model
// is built with. step scores target against the current hidden vector,
// updates every output row it touches, accumulates the input-side
// gradient into the model's buffer, and returns the example loss.
type lossStrategy interface {
	step(target int32, lr float32) float32
}

// binaryLogistic performs a single logistic step against output row c:
// score the hidden vector, nudge the row toward label, and mirror the
// term into the gradient buffer. The gradient reads the row before the
// row moves.
func (m *Model) binaryLogistic(c int32, label bool, lr float32) float32 {
	row := m.wo.Row(int(c))
	score := sigmoid(tensor.Dot(row, m.hidden))
	y := float32(0)
	if label {
		y = 1
	}
	alpha := lr * (y - score)
	tensor.AddScaled(m.grad, row, alpha)
	tensor.AddScaled(row, m.hidden, alpha)
	if label {
		return -safeLog(score)
	}
	return -safeLog(1.0 - score)
}

// negSamplingLoss contrasts the target against sampled non-target
// classes: one positive logistic step plus NegativeSamples negative
// ones.
type negSamplingLoss struct{ m *Model }

func (l negSamplingLoss) step(target int32, lr float32) float32 {
	m := l.m
	if len(m.negatives) == 0 {
		panic("model: sampling table not built")
	}
	tensor.Zero(m.grad)
	var loss float32
	for n := 0; n <= m.cfg.NegativeSamples; n++ {
		if n == 0 {
			loss += m.binaryLogistic(target, true, lr)
		} else {
			loss += m.binaryLogistic(m.nextNegative(target), false, lr)
		}
	}
	return loss
}

// hierSoftmaxLoss walks the target's root-to-leaf path, treating each
// branch bit as the label of a logistic step against that internal
// node's output row.
type hierSoftmaxLoss struct{ m *Model }

func (l hierSoftmaxLoss) step(target int32, lr float32) float32 {
	m := l.m
	if m.tree == nil {
		panic("model: coding tree not built")
	}
	tensor.Zero(m.grad)
	path := m.tree.paths[target]
	code := m.tree.codes[target]
	var loss float32
	for i := range path {
		loss += m.binaryLogistic(path[i], code[i], lr)
	}
	return loss
}

// softmaxLoss is the exact flat softmax; every output row moves on every
// step, so the cost is linear in the number of classes.
type softmaxLoss struct{ m *Model }

func (l softmaxLoss) step(target int32, lr float32) float32 {
	m := l.m
	tensor.Zero(m.grad)
	m.computeSoftmax()
	for i := 0; i < m.osz; i++ {
		label := float32(0)
		if int32(i) == target {
			label = 1
		}
		alpha := lr * (label - m.output[i])
		row := m.wo.Row(i)
		tensor.AddScaled(m.grad, row, alpha)
		tensor.AddScaled(row, m.hidden, alpha)
	}
	return -safeLog(m.output[target])
}

// computeSoftmax fills the output buffer with softmax probabilities of
// the current hidden vector: subtract the max activation, exponentiate
// exactly, normalize. Only the final loss goes through the log table.
func (m *Model) computeSoftmax() {
	tensor.MatVec(m.output, m.wo, m.hidden)
	max := m.output[0]
	for _, v := range m.output[1:] {
		if v > max {
			max = v
		}
	}
	var z float64
	for i, v := range m.output {
		e := float32(math.Exp(float64(v - max)))
		m.output[i] = e
		z += float64(e)
	}
	tensor.Scale(m.output, float32(1.0/z))
}
