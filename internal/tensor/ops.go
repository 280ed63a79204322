package tensor

// Zero fills dst with zeros.
func Zero(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
}

// Scale multiplies every element of dst by a.
func Scale(dst []float32, a float32) {
	for i := range dst {
		dst[i] *= a
	}
}

// AddScaled adds a*src to dst element-wise. dst and src must have the
// same length.
func AddScaled(dst, src []float32, a float32) {
	if len(dst) != len(src) {
		panic("tensor: addscaled length mismatch")
	}
	for i := range dst {
		dst[i] += a * src[i]
	}
}

// Dot computes the dot product of a and b. The slices must have the
// same length.
func Dot(a, b []float32) float32 {
	if len(a) != len(b) {
		panic("tensor: dot length mismatch")
	}
	var sum float32
	i := 0
	for ; i+3 < len(a); i += 4 {
		sum += a[i]*b[i] + a[i+1]*b[i+1] + a[i+2]*b[i+2] + a[i+3]*b[i+3]
	}
	for ; i < len(a); i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// MatVec computes dst = m * x where m is a matrix and x is a vector.
// Serial; parallelism lives at the trainer level, one model instance
// per goroutine.
func MatVec(dst []float32, m *Mat, x []float32) {
	if len(dst) < m.R || len(x) < m.C {
		panic("tensor: matvec shape mismatch")
	}
	for i := 0; i < m.R; i++ {
		dst[i] = Dot(m.Data[i*m.C:i*m.C+m.C], x[:m.C])
	}
}
