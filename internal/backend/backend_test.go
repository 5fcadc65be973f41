package backend

import (
	"math"
	"testing"

	"github.com/wisplm/wisp/internal/tensor"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":          Auto,
		"auto":      Auto,
		"  Serial ": Serial,
		"PARALLEL":  Parallel,
	}
	for in, want := range cases {
		got, err := Normalize(in)
		if err != nil {
			t.Errorf("Normalize(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := Normalize("cuda"); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestNewBackendsAgree(t *testing.T) {
	t.Parallel()

	a := tensor.NewMat(5, 7)
	b := tensor.NewMat(7, 3)
	tensor.FillRandn(&a, 1, 1)
	tensor.FillRandn(&b, 2, 1)

	serial, err := New(Serial, nil)
	if err != nil {
		t.Fatalf("New(serial): %v", err)
	}
	parallel, err := New(Parallel, nil)
	if err != nil {
		t.Fatalf("New(parallel): %v", err)
	}

	d1 := tensor.NewMat(5, 3)
	d2 := tensor.NewMat(5, 3)
	serial.MatMul(&d1, &a, &b)
	parallel.MatMul(&d2, &a, &b)

	for i := range d1.Data {
		if math.Abs(float64(d1.Data[i]-d2.Data[i])) > 1e-5 {
			t.Fatalf("backends disagree at %d: %g vs %g", i, d1.Data[i], d2.Data[i])
		}
	}
}

func TestNewAuto(t *testing.T) {
	t.Parallel()

	ops, err := New(Auto, nil)
	if err != nil {
		t.Fatalf("New(auto): %v", err)
	}
	if ops == nil {
		t.Fatal("nil ops")
	}
}

func TestNewRejectsUnknown(t *testing.T) {
	t.Parallel()

	if _, err := New("gpu", nil); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
