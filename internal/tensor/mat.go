package tensor

import (
	"fmt"
	"math/rand"
)

// DType describes the element encoding of a Mat.
type DType int

const (
	// F32 keeps Data populated for direct access.
	F32 DType = iota
	// F16 keeps Raw populated and decodes rows on access to halve the
	// resident size of frozen weights.
	F16
)

// Mat is a dense row-major matrix of float32 values.
//
// R and C are the number of rows and columns. For F32 matrices Data holds the
// flattened values; for F16 matrices Raw holds IEEE half-precision bits and
// rows are decoded on demand. Out-of-range indices panic, matching Go slice
// semantics.
type Mat struct {
	R, C int

	DType DType
	Data  []float32
	Raw   []uint16
}

// NewMat allocates a zeroed F32 matrix with the given shape.
func NewMat(r, c int) Mat {
	if r < 0 || c < 0 {
		panic("tensor: negative matrix dimension")
	}
	return Mat{
		R:     r,
		C:     c,
		DType: F32,
		Data:  make([]float32, r*c),
	}
}

// NewMatFromData wraps existing data without copying.
func NewMatFromData(r, c int, data []float32) Mat {
	if r*c != len(data) {
		panic(fmt.Sprintf("tensor: data length %d does not match %dx%d", len(data), r, c))
	}
	return Mat{R: r, C: c, DType: F32, Data: data}
}

// Row returns the i-th row. For F32 matrices this is a view into the
// underlying storage; for F16 matrices a freshly decoded copy is returned.
// Prefer RowTo in hot paths.
func (m *Mat) Row(i int) []float32 {
	if i < 0 || i >= m.R {
		panic("tensor: row index out of range")
	}
	if m.DType == F32 {
		start := i * m.C
		return m.Data[start : start+m.C]
	}
	row := make([]float32, m.C)
	m.RowTo(row, i)
	return row
}

// RowTo decodes the i-th row into dst. dst must have length >= C.
func (m *Mat) RowTo(dst []float32, i int) {
	if i < 0 || i >= m.R {
		panic("tensor: row index out of range")
	}
	if len(dst) < m.C {
		panic("tensor: row buffer too small")
	}
	start := i * m.C
	if m.DType == F32 {
		copy(dst[:m.C], m.Data[start:start+m.C])
		return
	}
	Float16ToFloat32Slice(m.Raw[start:start+m.C], dst[:m.C])
}

// At returns the element at row i, column j.
func (m *Mat) At(i, j int) float32 {
	if i < 0 || i >= m.R || j < 0 || j >= m.C {
		panic("tensor: index out of range")
	}
	if m.DType == F32 {
		return m.Data[i*m.C+j]
	}
	return Float16ToFloat32(m.Raw[i*m.C+j])
}

// ToF16 returns an F16 copy of an F32 matrix. Values are rounded through
// half precision; the source is left untouched.
func (m *Mat) ToF16() Mat {
	if m.DType != F32 {
		panic("tensor: ToF16 requires an f32 source")
	}
	raw := make([]uint16, len(m.Data))
	Float32ToFloat16Slice(m.Data, raw)
	return Mat{R: m.R, C: m.C, DType: F16, Raw: raw}
}

// FillRandn fills an F32 matrix with reproducible Gaussian noise scaled by
// scale. The same seed always produces the same matrix.
func FillRandn(m *Mat, seed int64, scale float64) {
	if m.DType != F32 {
		panic("tensor: FillRandn only supports f32 mats")
	}
	rng := rand.New(rand.NewSource(seed))
	for i := range m.Data {
		m.Data[i] = float32(rng.NormFloat64() * scale)
	}
}
