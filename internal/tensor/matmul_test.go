package tensor

import (
	"math"
	"testing"
)

func TestMatMul(t *testing.T) {
	t.Parallel()

	a := NewMatFromData(2, 3, []float32{1, 2, 3, 4, 5, 6})
	b := NewMatFromData(3, 2, []float32{7, 8, 9, 10, 11, 12})
	dst := NewMat(2, 2)
	MatMul(&dst, &a, &b)

	want := []float32{58, 64, 139, 154}
	for i, w := range want {
		if dst.Data[i] != w {
			t.Errorf("dst[%d] = %g, want %g", i, dst.Data[i], w)
		}
	}
}

func TestMatMulF16Operand(t *testing.T) {
	t.Parallel()

	a := NewMatFromData(1, 2, []float32{1, 2})
	b := NewMatFromData(2, 2, []float32{0.5, -0.5, 0.25, 0.75})
	bh := b.ToF16()
	dst := NewMat(1, 2)
	MatMul(&dst, &a, &bh)

	want := []float32{1, 1}
	for i, w := range want {
		if math.Abs(float64(dst.Data[i]-w)) > 1e-2 {
			t.Errorf("dst[%d] = %g, want %g", i, dst.Data[i], w)
		}
	}
}

func TestMatMulParallelMatchesSerial(t *testing.T) {
	t.Parallel()

	const r, k, c = 33, 17, 29
	a := NewMat(r, k)
	b := NewMat(k, c)
	FillRandn(&a, 1, 1)
	FillRandn(&b, 2, 1)

	serial := NewMat(r, c)
	parallel := NewMat(r, c)
	MatMul(&serial, &a, &b)
	MatMulParallel(&parallel, &a, &b)

	for i := range serial.Data {
		if math.Abs(float64(serial.Data[i]-parallel.Data[i])) > 1e-5 {
			t.Fatalf("mismatch at %d: serial %g, parallel %g", i, serial.Data[i], parallel.Data[i])
		}
	}
}

func TestMatMulShapePanic(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on shape mismatch")
		}
	}()
	a := NewMat(2, 3)
	b := NewMat(4, 2)
	dst := NewMat(2, 2)
	MatMul(&dst, &a, &b)
}
