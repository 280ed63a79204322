// Package model implements the training and inference core of a shallow
// log-bilinear embedding model. One instance binds a pair of shared
// embedding tables (input features and output classes) to per-example
// operations: Update runs a single SGD step under one of three loss
// formulations, Predict returns the top-k classes either by exact scan
// or by branch-and-bound search over a frequency-built coding tree.
//
// Instances are single-threaded. Parallel training runs one Clone per
// goroutine over the same tables and the same LearningRate cell; row
// updates intentionally race (lock-free SGD), while every piece of
// per-instance state stays private.
package model

import (
	"fmt"
	"math/rand"

	"github.com/fbotkashower/fastText/internal/tensor"
)

// Loss selects the scoring strategy a model trains and predicts with.
type Loss uint8

const (
	// LossNegativeSampling contrasts the target against a handful of
	// classes drawn from the sampling table.
	LossNegativeSampling Loss = iota
	// LossHierarchicalSoftmax factors the output distribution over a
	// binary coding tree, making each step logarithmic in the number of
	// classes.
	LossHierarchicalSoftmax
	// LossSoftmax is the exact flat softmax, linear in the number of
	// classes per step.
	LossSoftmax
)

func (l Loss) String() string {
	switch l {
	case LossNegativeSampling:
		return "ns"
	case LossHierarchicalSoftmax:
		return "hs"
	case LossSoftmax:
		return "softmax"
	default:
		return fmt.Sprintf("loss(%d)", uint8(l))
	}
}

// ParseLoss maps the configuration names ns, hs and softmax onto Loss
// values.
func ParseLoss(s string) (Loss, error) {
	switch s {
	case "ns":
		return LossNegativeSampling, nil
	case "hs":
		return LossHierarchicalSoftmax, nil
	case "softmax":
		return LossSoftmax, nil
	default:
		return 0, fmt.Errorf("model: unknown loss %q", s)
	}
}

// Config is the knob set a model is built with.
type Config struct {
	// Loss picks the training/prediction strategy.
	Loss Loss
	// NegativeSamples is the number of negative draws per example under
	// LossNegativeSampling.
	NegativeSamples int
	// NormalizeGradient divides the accumulated input gradient by the
	// number of active features before applying it. Classifier variants
	// train with this on; embedding variants leave it off.
	NormalizeGradient bool
	// Seed drives the instance's private sampling state.
	Seed int64
}

// Model binds the shared embedding tables to one trainer/predictor
// instance. The tables are externally owned; the model mutates their
// rows in place and never resizes them.
type Model struct {
	wi, wo *tensor.Mat
	rate   *LearningRate
	cfg    Config

	isz, osz, dim int

	// Scratch, rebuilt every call; no state crosses calls through these.
	hidden []float32
	grad   []float32
	output []float32

	strategy lossStrategy

	tree      *tree
	negatives []int32
	negpos    int

	rng *rand.Rand

	lossSum   float64
	nexamples int64
}

// New builds a model over the given tables. wi and wo are shared
// storage; rate is the learning-rate cell common to every instance
// training these tables. Class frequency counts must be supplied via
// SetTargetCounts before the first Update or Predict under the sampled
// and hierarchical losses.
func New(wi, wo *tensor.Mat, rate *LearningRate, cfg Config) *Model {
	if wi.C != wo.C {
		panic("model: input and output tables disagree on dimension")
	}
	if cfg.Loss == LossNegativeSampling && cfg.NegativeSamples < 0 {
		panic("model: negative sample count must be non-negative")
	}
	m := &Model{
		wi:     wi,
		wo:     wo,
		rate:   rate,
		cfg:    cfg,
		isz:    wi.R,
		osz:    wo.R,
		dim:    wi.C,
		hidden: make([]float32, wi.C),
		grad:   make([]float32, wi.C),
		output: make([]float32, wo.R),
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
	m.bindStrategy()
	return m
}

func (m *Model) bindStrategy() {
	switch m.cfg.Loss {
	case LossNegativeSampling:
		m.strategy = negSamplingLoss{m}
	case LossHierarchicalSoftmax:
		m.strategy = hierSoftmaxLoss{m}
	case LossSoftmax:
		m.strategy = softmaxLoss{m}
	default:
		panic("model: unknown loss mode")
	}
}

// SetTargetCounts installs the class frequencies and builds whichever
// structure the configured loss needs: the sampling table under
// LossNegativeSampling, the coding tree under LossHierarchicalSoftmax.
// counts holds one entry per output class, sorted in non-increasing
// order; an unsorted slice silently yields a non-minimal coding tree.
func (m *Model) SetTargetCounts(counts []int64) {
	if len(counts) != m.osz {
		panic("model: counts length does not match output table")
	}
	switch m.cfg.Loss {
	case LossNegativeSampling:
		m.negatives = buildNegatives(counts, m.rng)
	case LossHierarchicalSoftmax:
		m.tree = buildTree(counts)
	}
}

// computeHidden fills dst with the mean of the input rows. input must be
// non-empty.
func (m *Model) computeHidden(input []int, dst []float32) {
	tensor.Zero(dst)
	for _, i := range input {
		tensor.AddScaled(dst, m.wi.Row(i), 1.0)
	}
	tensor.Scale(dst, 1.0/float32(len(input)))
}

// Update runs one training step: recompute the hidden vector as the mean
// of the active input rows, let the configured loss strategy score
// target against it (moving the output rows it touches), then add the
// accumulated gradient into every active input row. Returns this
// example's loss. An empty input set is a defined no-op returning 0.
// target must lie in [0, OutputSize).
func (m *Model) Update(input []int, target int) float32 {
	if target < 0 || target >= m.osz {
		panic("model: target class out of range")
	}
	if len(input) == 0 {
		return 0
	}
	m.computeHidden(input, m.hidden)
	loss := m.strategy.step(int32(target), m.rate.Value())
	if m.cfg.NormalizeGradient {
		tensor.Scale(m.grad, 1.0/float32(len(input)))
	}
	for _, i := range input {
		tensor.AddScaled(m.wi.Row(i), m.grad, 1.0)
	}
	m.lossSum += float64(loss)
	m.nexamples++
	return loss
}

// Predict scores the input set and returns the k best classes in
// descending score order. Under LossHierarchicalSoftmax the scores are
// path log-probabilities found by branch-and-bound search; under the
// other losses they are raw output activations from a full scan, which
// rank identically to softmax probabilities. Prediction writes only the
// instance's scratch buffers. k must be positive and input non-empty.
func (m *Model) Predict(input []int, k int) []Prediction {
	if k <= 0 {
		panic("model: k must be positive")
	}
	if len(input) == 0 {
		panic("model: empty input")
	}
	m.computeHidden(input, m.hidden)
	heap := newTopK(k)
	if m.cfg.Loss == LossHierarchicalSoftmax {
		if m.tree == nil {
			panic("model: coding tree not built")
		}
		m.dfs(heap, m.tree.root(), 0)
	} else {
		m.findKBest(heap)
	}
	return heap.sorted()
}

// findKBest scans every output activation into the heap.
func (m *Model) findKBest(h *topK) {
	tensor.MatVec(m.output, m.wo, m.hidden)
	for i, s := range m.output {
		h.push(Prediction{Score: s, Class: i})
	}
}

// dfs descends the coding tree accumulating branch log-probabilities and
// collects leaves into the heap. Branch increments are never positive,
// so a partial score already below a full heap's minimum bounds every
// leaf underneath and the subtree is cut.
func (m *Model) dfs(h *topK, node int32, score float32) {
	if h.full() && score < h.min() {
		return
	}
	n := &m.tree.nodes[node]
	if n.left == noLink && n.right == noLink {
		h.push(Prediction{Score: score, Class: int(node)})
		return
	}
	f := sigmoid(tensor.Dot(m.wo.Row(int(node)-m.osz), m.hidden))
	m.dfs(h, n.left, score+safeLog(1.0-f))
	m.dfs(h, n.right, score+safeLog(f))
}

// Clone returns a new instance sharing the tables, the learning-rate
// cell and the read-only tree and sampling structures, with private
// scratch and sampling state. The clone's sampling cursor starts at a
// seed-derived offset so parallel trainers do not replay one another's
// negative draws.
func (m *Model) Clone(seed int64) *Model {
	c := &Model{
		wi:        m.wi,
		wo:        m.wo,
		rate:      m.rate,
		cfg:       m.cfg,
		isz:       m.isz,
		osz:       m.osz,
		dim:       m.dim,
		hidden:    make([]float32, m.dim),
		grad:      make([]float32, m.dim),
		output:    make([]float32, m.osz),
		tree:      m.tree,
		negatives: m.negatives,
		rng:       rand.New(rand.NewSource(seed)),
	}
	c.cfg.Seed = seed
	c.bindStrategy()
	if len(c.negatives) > 0 {
		c.negpos = c.rng.Intn(len(c.negatives))
	}
	return c
}

// Dim returns the embedding width.
func (m *Model) Dim() int { return m.dim }

// InputSize returns the number of input feature rows.
func (m *Model) InputSize() int { return m.isz }

// OutputSize returns the number of output classes.
func (m *Model) OutputSize() int { return m.osz }

// Loss returns the configured loss mode.
func (m *Model) Loss() Loss { return m.cfg.Loss }

// Examples returns the number of update steps this instance has run.
func (m *Model) Examples() int64 { return m.nexamples }

// AvgLoss returns the mean per-example loss over this instance's
// updates, 0 before the first one.
func (m *Model) AvgLoss() float32 {
	if m.nexamples == 0 {
		return 0
	}
	return float32(m.lossSum / float64(m.nexamples))
}

// TreeDepth returns the longest root-to-leaf code length, 0 when the
// model carries no coding tree.
func (m *Model) TreeDepth() int {
	if m.tree == nil {
		return 0
	}
	return m.tree.maxDepth()
}

// MeanCodeLength returns the unweighted mean code length, 0 when the
// model carries no coding tree.
func (m *Model) MeanCodeLength() float64 {
	if m.tree == nil {
		return 0
	}
	return m.tree.meanDepth()
}
