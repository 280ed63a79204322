package tensor

import "math/rand"

// Mat represents a dense row-major matrix of float32 values.
//
// R and C are the number of rows and columns. Data holds the flattened
// values, row i occupying Data[i*C : (i+1)*C]. A Mat carries no
// synchronization: concurrent row updates race under the
// asynchronous-SGD scheme the trainer uses, and callers that need
// stricter guarantees must arrange them externally.
//
// Mat performs no memory safety beyond the checks done by Go's slice
// types; out-of-range indices panic.
type Mat struct {
	R, C int
	Data []float32
}

// NewMat allocates a zero-initialised matrix with the given shape.
func NewMat(r, c int) Mat {
	if r < 0 || c < 0 {
		panic("tensor: negative dimension for matrix")
	}
	return Mat{
		R:    r,
		C:    c,
		Data: make([]float32, r*c),
	}
}

// NewMatFromData creates a matrix from existing data. It checks that
// the data length matches r*c.
func NewMatFromData(r, c int, data []float32) Mat {
	if r*c != len(data) {
		panic("tensor: data length mismatch")
	}
	return Mat{R: r, C: c, Data: data}
}

// Row returns a view of the i-th row. The slice has length C and
// aliases the underlying matrix storage, so writes through it update
// the matrix.
func (m *Mat) Row(i int) []float32 {
	if i < 0 || i >= m.R {
		panic("tensor: row index out of range")
	}
	start := i * m.C
	return m.Data[start : start+m.C]
}

// FillUniform fills the matrix with reproducible pseudo-random values
// drawn uniformly from (-scale, scale). The seed controls the sequence;
// the same seed always produces the same matrix. Embedding tables are
// conventionally initialised with scale = 1/dim.
func FillUniform(m *Mat, scale float32, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range m.Data {
		m.Data[i] = (rng.Float32()*2 - 1) * scale
	}
}
