package tensor

import "math"

// Add adds src to dst element-wise.
func Add(dst, src []float32) {
	for i := range dst {
		dst[i] += src[i]
	}
}

// Dot computes the dot product of a and b.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Softmax converts x to a probability distribution in place using the
// numerically stable formulation: the row max is subtracted before
// exponentiating and a small epsilon guards the denominator against an
// all-zero row.
func Softmax(x []float32, eps float64) {
	if len(x) == 0 {
		return
	}
	maxv := x[0]
	for i := 1; i < len(x); i++ {
		if x[i] > maxv {
			maxv = x[i]
		}
	}
	var sum float64
	for i := range x {
		v := math.Exp(float64(x[i] - maxv))
		x[i] = float32(v)
		sum += v
	}
	inv := float32(1.0 / (sum + eps))
	for i := range x {
		x[i] *= inv
	}
}

const geluCoef = 0.044715

// GELU computes the tanh approximation of the Gaussian Error Linear Unit.
// The same formula is used everywhere an activation is needed so that runs
// are reproducible bit for bit.
func GELU(x float32) float32 {
	x64 := float64(x)
	return float32(x64 * 0.5 * (1 + math.Tanh(math.Sqrt(2/math.Pi)*(x64+geluCoef*x64*x64*x64))))
}

// GELUInPlace applies GELU to every element of x.
func GELUInPlace(x []float32) {
	for i := range x {
		x[i] = GELU(x[i])
	}
}

// MeanRows averages the rows of an r-row slice view into dst.
// rows must contain r*len(dst) values laid out row-major.
func MeanRows(dst []float32, rows []float32, r int) {
	if r <= 0 {
		return
	}
	c := len(dst)
	for j := range dst {
		dst[j] = 0
	}
	for i := 0; i < r; i++ {
		row := rows[i*c : (i+1)*c]
		for j, v := range row {
			dst[j] += v
		}
	}
	inv := 1 / float32(r)
	for j := range dst {
		dst[j] *= inv
	}
}

// Cosine returns the cosine similarity of a and b with an epsilon guard
// against zero norms.
func Cosine(a, b []float32) float32 {
	dot := Dot(a, b)
	na := math.Sqrt(float64(Dot(a, a)))
	nb := math.Sqrt(float64(Dot(b, b)))
	return float32(float64(dot) / (na*nb + 1e-8))
}
