package tensor

import (
	"math"
	"testing"
)

func TestSoftmaxSumsToOne(t *testing.T) {
	t.Parallel()

	x := []float32{1, 2, 3, 4}
	Softmax(x, 1e-8)
	var sum float64
	for _, v := range x {
		if v < 0 {
			t.Fatalf("negative probability %g", v)
		}
		sum += float64(v)
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Errorf("sum = %g, want 1", sum)
	}
	for i := 1; i < len(x); i++ {
		if x[i] <= x[i-1] {
			t.Errorf("softmax not monotone over increasing logits: %v", x)
		}
	}
}

func TestSoftmaxLargeLogits(t *testing.T) {
	t.Parallel()

	// Stability: shifted by the max, huge logits must not overflow to NaN.
	x := []float32{1000, 1001, 1002}
	Softmax(x, 1e-8)
	for i, v := range x {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("x[%d] = %g after softmax of large logits", i, v)
		}
	}
}

func TestGELU(t *testing.T) {
	t.Parallel()

	if g := GELU(0); g != 0 {
		t.Errorf("GELU(0) = %g, want 0", g)
	}
	if g := GELU(1); math.Abs(float64(g)-0.8412) > 1e-3 {
		t.Errorf("GELU(1) = %g, want ~0.8412", g)
	}
	// Large negative inputs vanish, large positive pass through.
	if g := GELU(-10); math.Abs(float64(g)) > 1e-3 {
		t.Errorf("GELU(-10) = %g, want ~0", g)
	}
	if g := GELU(10); math.Abs(float64(g)-10) > 1e-3 {
		t.Errorf("GELU(10) = %g, want ~10", g)
	}
}

func TestDotAndAdd(t *testing.T) {
	t.Parallel()

	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}
	if got := Dot(a, b); got != 32 {
		t.Errorf("Dot = %g, want 32", got)
	}
	Add(a, b)
	want := []float32{5, 7, 9}
	for i := range want {
		if a[i] != want[i] {
			t.Errorf("Add[%d] = %g, want %g", i, a[i], want[i])
		}
	}
}

func TestMeanRows(t *testing.T) {
	t.Parallel()

	rows := []float32{1, 2, 3, 4, 5, 6} // two rows of three
	dst := make([]float32, 3)
	MeanRows(dst, rows, 2)
	want := []float32{2.5, 3.5, 4.5}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("mean[%d] = %g, want %g", i, dst[i], want[i])
		}
	}
}

func TestCosine(t *testing.T) {
	t.Parallel()

	a := []float32{1, 0, 2}
	if got := Cosine(a, a); math.Abs(float64(got)-1) > 1e-6 {
		t.Errorf("Cosine(a,a) = %g, want 1", got)
	}
	b := []float32{0, 3, 0}
	if got := Cosine(a, b); math.Abs(float64(got)) > 1e-6 {
		t.Errorf("Cosine(orthogonal) = %g, want 0", got)
	}
}
