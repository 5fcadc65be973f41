package model

import "github.com/wisplm/wisp/internal/tensor"

// Ops abstracts the matrix-multiply kernel so acceleration backends can be
// swapped by configuration instead of subclassing.
type Ops interface {
	MatMul(dst, a, b *tensor.Mat)
}

type defaultOps struct{}

func (defaultOps) MatMul(dst, a, b *tensor.Mat) {
	tensor.MatMul(dst, a, b)
}

func ensureOps(current Ops) Ops {
	if current == nil {
		return defaultOps{}
	}
	return current
}
