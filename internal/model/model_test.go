package model

import (
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/fbotkashower/fastText/internal/tensor"
)

func closeEnough(a, b float32, rel float64) bool {
	da := float64(a)
	db := float64(b)
	diff := math.Abs(da - db)
	scale := math.Max(1.0, math.Max(math.Abs(da), math.Abs(db)))
	return diff <= rel*scale
}

func newTestTables(isz, osz, dim int, seed int64) (*tensor.Mat, *tensor.Mat) {
	wi := tensor.NewMat(isz, dim)
	wo := tensor.NewMat(osz, dim)
	tensor.FillUniform(&wi, 1.0/float32(dim), seed)
	tensor.FillUniform(&wo, 1.0/float32(dim), seed+1)
	return &wi, &wo
}

func descendingCounts(osz int) []int64 {
	counts := make([]int64, osz)
	for i := range counts {
		n := int64(osz - i)
		counts[i] = n*n + 1
	}
	return counts
}

func randomInput(rng *rand.Rand, isz int) []int {
	in := make([]int, 1+rng.Intn(5))
	for i := range in {
		in[i] = rng.Intn(isz)
	}
	return in
}

var allLosses = []Loss{LossNegativeSampling, LossHierarchicalSoftmax, LossSoftmax}

func TestHiddenVectorIsMeanOfInputRows(t *testing.T) {
	wi, wo := newTestTables(10, 4, 16, 3)
	m := New(wi, wo, NewLearningRate(0.05, 1e-6), Config{Loss: LossSoftmax})

	for _, input := range [][]int{{2, 5, 7}, {0}, {9, 9}} {
		m.computeHidden(input, m.hidden)
		for d := 0; d < m.dim; d++ {
			var sum float64
			for _, i := range input {
				sum += float64(wi.Row(i)[d])
			}
			want := float32(sum / float64(len(input)))
			if !closeEnough(m.hidden[d], want, 1e-5) {
				t.Fatalf("input %v dim %d: hidden = %g, want %g", input, d, m.hidden[d], want)
			}
		}
	}
}

func TestUpdateEmptyInputNoOp(t *testing.T) {
	wi, wo := newTestTables(6, 4, 8, 9)
	m := New(wi, wo, NewLearningRate(0.05, 1e-6), Config{Loss: LossSoftmax})
	wiBefore := slices.Clone(wi.Data)
	woBefore := slices.Clone(wo.Data)

	if loss := m.Update(nil, 1); loss != 0 {
		t.Fatalf("empty update returned loss %g, want 0", loss)
	}
	if !slices.Equal(wi.Data, wiBefore) {
		t.Fatal("empty update touched the input table")
	}
	if !slices.Equal(wo.Data, woBefore) {
		t.Fatal("empty update touched the output table")
	}
	if m.Examples() != 0 {
		t.Fatalf("empty update counted as an example: %d", m.Examples())
	}
}

func TestUpdateLossNonNegative(t *testing.T) {
	for _, loss := range allLosses {
		t.Run(loss.String(), func(t *testing.T) {
			wi, wo := newTestTables(20, 6, 12, 17)
			m := New(wi, wo, NewLearningRate(0.1, 1e-6), Config{
				Loss:            loss,
				NegativeSamples: 3,
				Seed:            5,
			})
			m.SetTargetCounts(descendingCounts(6))

			rng := rand.New(rand.NewSource(23))
			var sum float64
			const steps = 300
			for i := 0; i < steps; i++ {
				l := m.Update(randomInput(rng, 20), rng.Intn(6))
				if l < 0 {
					t.Fatalf("step %d: loss %g < 0", i, l)
				}
				sum += float64(l)
			}
			if m.Examples() != steps {
				t.Fatalf("Examples = %d, want %d", m.Examples(), steps)
			}
			if want := float32(sum / steps); !closeEnough(m.AvgLoss(), want, 1e-6) {
				t.Fatalf("AvgLoss = %g, want %g", m.AvgLoss(), want)
			}
		})
	}
}

func TestPredictMutatesNothing(t *testing.T) {
	for _, loss := range allLosses {
		t.Run(loss.String(), func(t *testing.T) {
			wi, wo := newTestTables(8, 5, 6, 21)
			m := New(wi, wo, NewLearningRate(0.05, 1e-6), Config{
				Loss:            loss,
				NegativeSamples: 2,
				Seed:            9,
			})
			m.SetTargetCounts(descendingCounts(5))
			wiBefore := slices.Clone(wi.Data)
			woBefore := slices.Clone(wo.Data)
			cursor := m.negpos

			var first []Prediction
			for i := 0; i < 3; i++ {
				got := m.Predict([]int{1, 3}, 3)
				if i == 0 {
					first = got
					continue
				}
				if !slices.Equal(got, first) {
					t.Fatalf("call %d returned %+v, first call %+v", i, got, first)
				}
			}
			if !slices.Equal(wi.Data, wiBefore) {
				t.Fatal("predict touched the input table")
			}
			if !slices.Equal(wo.Data, woBefore) {
				t.Fatal("predict touched the output table")
			}
			if m.negpos != cursor {
				t.Fatal("predict advanced the sampling cursor")
			}
		})
	}
}

// bruteForceTreeTopK scores every class by replaying its root-to-leaf
// path and keeps the k best, bypassing the branch-and-bound search.
func bruteForceTreeTopK(m *Model, input []int, k int) []Prediction {
	hidden := make([]float32, m.dim)
	m.computeHidden(input, hidden)
	all := make([]Prediction, 0, m.osz)
	for class := 0; class < m.osz; class++ {
		var score float32
		path := m.tree.paths[class]
		code := m.tree.codes[class]
		for i := range path {
			f := sigmoid(tensor.Dot(m.wo.Row(int(path[i])), hidden))
			if code[i] {
				score += safeLog(f)
			} else {
				score += safeLog(1 - f)
			}
		}
		all = append(all, Prediction{Score: score, Class: class})
	}
	slices.SortFunc(all, func(a, b Prediction) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	return all[:min(k, len(all))]
}

func TestTreePredictionMatchesBruteForce(t *testing.T) {
	for seed := int64(0); seed < 25; seed++ {
		rng := rand.New(rand.NewSource(seed))
		osz := 2 + rng.Intn(5)
		dim := 3 + rng.Intn(6)
		isz := 4 + rng.Intn(8)

		wi := tensor.NewMat(isz, dim)
		wo := tensor.NewMat(osz, dim)
		tensor.FillUniform(&wi, 0.8, seed*31+7)
		tensor.FillUniform(&wo, 0.8, seed*31+8)
		m := New(&wi, &wo, NewLearningRate(0.05, 1e-6), Config{
			Loss: LossHierarchicalSoftmax,
			Seed: seed,
		})
		m.SetTargetCounts(descendingCounts(osz))
		input := randomInput(rng, isz)

		// Score multiplicity over all classes, for skipping class checks
		// on tied scores (tie order is unspecified).
		full := bruteForceTreeTopK(m, input, osz)
		times := make(map[float32]int, osz)
		for _, p := range full {
			times[p.Score]++
		}

		for k := 1; k <= osz; k++ {
			got := m.Predict(input, k)
			want := full[:k]
			if len(got) != len(want) {
				t.Fatalf("seed %d osz %d k %d: got %d results, want %d", seed, osz, k, len(got), len(want))
			}
			for i := range want {
				if got[i].Score != want[i].Score {
					t.Fatalf("seed %d osz %d k %d: result %d score %g, brute force %g",
						seed, osz, k, i, got[i].Score, want[i].Score)
				}
				if times[want[i].Score] == 1 && got[i].Class != want[i].Class {
					t.Fatalf("seed %d osz %d k %d: result %d class %d, brute force %d",
						seed, osz, k, i, got[i].Class, want[i].Class)
				}
			}
		}
	}
}

func TestPredictFlatRanksByActivation(t *testing.T) {
	// With dim 1 and a unit input row the activations are the output
	// weights themselves.
	wi := tensor.NewMatFromData(1, 1, []float32{1})
	wo := tensor.NewMatFromData(5, 1, []float32{0.1, 0.9, 0.3, 0.7, 0.5})
	m := New(&wi, &wo, NewLearningRate(0.05, 1e-6), Config{Loss: LossSoftmax})

	got := m.Predict([]int{0}, 3)
	want := []Prediction{{0.9, 1}, {0.7, 3}, {0.5, 4}}
	if !slices.Equal(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestPredictKLargerThanClasses(t *testing.T) {
	wi, wo := newTestTables(4, 5, 6, 2)
	m := New(wi, wo, NewLearningRate(0.05, 1e-6), Config{Loss: LossSoftmax})
	got := m.Predict([]int{0, 2}, 12)
	if len(got) != 5 {
		t.Fatalf("got %d results, want all 5 classes", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Fatalf("not descending at %d", i)
		}
	}
}

func TestNormalizeGradientScalesInputStep(t *testing.T) {
	build := func(normalize bool) (*Model, *tensor.Mat) {
		wi := tensor.NewMat(6, 8)
		wo := tensor.NewMat(4, 8)
		tensor.FillUniform(&wi, 0.125, 77)
		tensor.FillUniform(&wo, 0.125, 78)
		m := New(&wi, &wo, NewLearningRate(0.2, 1e-6), Config{
			Loss:              LossNegativeSampling,
			NegativeSamples:   2,
			NormalizeGradient: normalize,
			Seed:              13,
		})
		m.SetTargetCounts(descendingCounts(4))
		return m, &wi
	}
	mn, win := build(true)
	mu, wiu := build(false)
	before := slices.Clone(win.Data)

	input := []int{1, 4}
	mn.Update(input, 0)
	mu.Update(input, 0)

	for _, r := range input {
		for d := 0; d < 8; d++ {
			dn := win.Row(r)[d] - before[r*8+d]
			du := wiu.Row(r)[d] - before[r*8+d]
			if !closeEnough(2*dn, du, 1e-4) {
				t.Fatalf("row %d dim %d: normalized step %g, unnormalized %g", r, d, dn, du)
			}
		}
	}
	for d := 0; d < 8; d++ {
		if win.Row(0)[d] != before[d] || wiu.Row(0)[d] != before[d] {
			t.Fatal("update touched an inactive input row")
		}
	}
}

func TestCloneSharesTablesPrivateState(t *testing.T) {
	wi, wo := newTestTables(10, 5, 8, 31)
	m := New(wi, wo, NewLearningRate(0.1, 1e-6), Config{
		Loss:            LossNegativeSampling,
		NegativeSamples: 3,
		Seed:            1,
	})
	m.SetTargetCounts(descendingCounts(5))
	c := m.Clone(99)

	if &c.negatives[0] != &m.negatives[0] {
		t.Fatal("clone rebuilt the sampling table")
	}
	if c.wi != m.wi || c.wo != m.wo || c.rate != m.rate {
		t.Fatal("clone does not share tables and rate")
	}
	if c.cfg.Seed != 99 {
		t.Fatalf("clone seed = %d, want 99", c.cfg.Seed)
	}

	cursor := c.negpos
	m.Update([]int{1, 2}, 0)
	if c.negpos != cursor {
		t.Fatal("parent update moved the clone's cursor")
	}
	for _, v := range c.hidden {
		if v != 0 {
			t.Fatal("parent update wrote into the clone's scratch")
		}
	}

	before := slices.Clone(wi.Data)
	c.Update([]int{3}, 1)
	if slices.Equal(wi.Data, before) {
		t.Fatal("clone update did not reach the shared input table")
	}
	if m.Examples() != 1 || c.Examples() != 1 {
		t.Fatalf("example counters not private: %d / %d", m.Examples(), c.Examples())
	}
}

func TestCloneSharesTree(t *testing.T) {
	wi, wo := newTestTables(6, 4, 8, 41)
	m := New(wi, wo, NewLearningRate(0.05, 1e-6), Config{Loss: LossHierarchicalSoftmax, Seed: 2})
	m.SetTargetCounts(descendingCounts(4))
	c := m.Clone(17)

	if c.tree != m.tree {
		t.Fatal("clone rebuilt the coding tree")
	}
	a := m.Predict([]int{0, 3}, 4)
	b := c.Predict([]int{0, 3}, 4)
	if !slices.Equal(a, b) {
		t.Fatalf("clone predicts differently: %+v vs %+v", b, a)
	}
}

func TestTrainingSeparatesToyClasses(t *testing.T) {
	for _, loss := range allLosses {
		t.Run(loss.String(), func(t *testing.T) {
			// Two disjoint features, one per class.
			wi := tensor.NewMat(2, 16)
			wo := tensor.NewMat(2, 16)
			tensor.FillUniform(&wi, 1.0/16, 3)
			m := New(&wi, &wo, NewLearningRate(0.5, 1e-6), Config{
				Loss:              loss,
				NegativeSamples:   1,
				NormalizeGradient: true,
				Seed:              4,
			})
			m.SetTargetCounts([]int64{2, 1})

			var early, late float64
			const steps = 2000
			for i := 0; i < steps; i++ {
				f := i % 2
				l := float64(m.Update([]int{f}, f))
				if i < 200 {
					early += l
				}
				if i >= steps-200 {
					late += l
				}
			}
			if late >= early {
				t.Fatalf("loss did not drop: early %g late %g", early/200, late/200)
			}
			for f := 0; f < 2; f++ {
				if got := m.Predict([]int{f}, 1); got[0].Class != f {
					t.Fatalf("feature %d predicts class %d", f, got[0].Class)
				}
			}
		})
	}
}

func TestTreeSummariesExposed(t *testing.T) {
	wi, wo := newTestTables(4, 5, 6, 8)
	m := New(wi, wo, NewLearningRate(0.05, 1e-6), Config{Loss: LossHierarchicalSoftmax})
	m.SetTargetCounts([]int64{10, 8, 6, 3, 1})
	if got := m.TreeDepth(); got != 4 {
		t.Fatalf("TreeDepth = %d, want 4", got)
	}
	if got := m.MeanCodeLength(); got != 14.0/5.0 {
		t.Fatalf("MeanCodeLength = %g, want %g", got, 14.0/5.0)
	}

	flat := New(wi, wo, NewLearningRate(0.05, 1e-6), Config{Loss: LossSoftmax})
	if flat.TreeDepth() != 0 || flat.MeanCodeLength() != 0 {
		t.Fatal("flat model reports a coding tree")
	}
}

func TestLossNames(t *testing.T) {
	for _, loss := range allLosses {
		got, err := ParseLoss(loss.String())
		if err != nil {
			t.Fatalf("ParseLoss(%q): %v", loss.String(), err)
		}
		if got != loss {
			t.Fatalf("ParseLoss(%q) = %v", loss.String(), got)
		}
	}
	if _, err := ParseLoss("hinge"); err == nil {
		t.Fatal("ParseLoss accepted an unknown name")
	}
}

func TestContractViolationsPanic(t *testing.T) {
	newHS := func() *Model {
		wi, wo := newTestTables(4, 4, 6, 5)
		return New(wi, wo, NewLearningRate(0.05, 1e-6), Config{Loss: LossHierarchicalSoftmax})
	}
	tests := []struct {
		name string
		fn   func()
	}{
		{"target negative", func() {
			m := newHS()
			m.SetTargetCounts(descendingCounts(4))
			m.Update([]int{0}, -1)
		}},
		{"target too large", func() {
			m := newHS()
			m.SetTargetCounts(descendingCounts(4))
			m.Update([]int{0}, 4)
		}},
		{"k zero", func() {
			m := newHS()
			m.SetTargetCounts(descendingCounts(4))
			m.Predict([]int{0}, 0)
		}},
		{"empty predict input", func() {
			m := newHS()
			m.SetTargetCounts(descendingCounts(4))
			m.Predict(nil, 1)
		}},
		{"counts length mismatch", func() {
			newHS().SetTargetCounts([]int64{3, 1})
		}},
		{"table width mismatch", func() {
			wi := tensor.NewMat(3, 4)
			wo := tensor.NewMat(2, 5)
			New(&wi, &wo, NewLearningRate(0.05, 1e-6), Config{Loss: LossSoftmax})
		}},
		{"predict before counts", func() {
			newHS().Predict([]int{0}, 1)
		}},
		{"update before counts", func() {
			wi, wo := newTestTables(4, 4, 6, 5)
			m := New(wi, wo, NewLearningRate(0.05, 1e-6), Config{
				Loss:            LossNegativeSampling,
				NegativeSamples: 2,
			})
			m.Update([]int{0}, 1)
		}},
		{"negative sample count", func() {
			wi, wo := newTestTables(4, 4, 6, 5)
			New(wi, wo, NewLearningRate(0.05, 1e-6), Config{
				Loss:            LossNegativeSampling,
				NegativeSamples: -1,
			})
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			tc.fn()
		})
	}
}

func BenchmarkUpdate(b *testing.B) {
	for _, loss := range allLosses {
		b.Run(loss.String(), func(b *testing.B) {
			wi, wo := newTestTables(5000, 1000, 100, 1)
			m := New(wi, wo, NewLearningRate(0.05, 1e-6), Config{
				Loss:            loss,
				NegativeSamples: 5,
				Seed:            2,
			})
			m.SetTargetCounts(descendingCounts(1000))
			rng := rand.New(rand.NewSource(3))
			input := make([]int, 8)
			for i := range input {
				input[i] = rng.Intn(5000)
			}
			target := 0
			for b.Loop() {
				m.Update(input, target%1000)
				target++
			}
		})
	}
}

func BenchmarkPredict(b *testing.B) {
	for _, loss := range []Loss{LossHierarchicalSoftmax, LossSoftmax} {
		b.Run(loss.String(), func(b *testing.B) {
			wi, wo := newTestTables(5000, 1000, 100, 1)
			m := New(wi, wo, NewLearningRate(0.05, 1e-6), Config{Loss: loss, Seed: 2})
			m.SetTargetCounts(descendingCounts(1000))
			input := []int{4, 99, 2048, 77}
			for b.Loop() {
				m.Predict(input, 10)
			}
		})
	}
}
