// Package backend selects the matrix-multiply kernel the forward engine
// runs on. Backends are chosen by configuration through a capability
// interface rather than by subclassing the engine.
package backend

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/wisplm/wisp/internal/logger"
	"github.com/wisplm/wisp/internal/model"
	"github.com/wisplm/wisp/internal/tensor"
)

const (
	// Serial runs every multiply on the calling goroutine.
	Serial = "serial"
	// Parallel splits output rows across a worker pool.
	Parallel = "parallel"
	// Auto picks based on the host.
	Auto = "auto"
)

// Normalize canonicalizes a backend name, defaulting empty to Auto.
func Normalize(name string) (string, error) {
	b := strings.ToLower(strings.TrimSpace(name))
	if b == "" {
		return Auto, nil
	}
	switch b {
	case Serial, Parallel, Auto:
		return b, nil
	default:
		return "", fmt.Errorf("unknown backend %q (expected auto, serial, or parallel)", b)
	}
}

// New returns the Ops implementation for a normalized backend name.
func New(name string, log logger.Logger) (model.Ops, error) {
	name, err := Normalize(name)
	if err != nil {
		return nil, err
	}
	if name == Auto {
		name = autoSelect(log)
	}
	switch name {
	case Serial:
		return serialOps{}, nil
	case Parallel:
		return parallelOps{}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

func autoSelect(log logger.Logger) string {
	procs := runtime.GOMAXPROCS(0)
	if procs > 1 {
		if log != nil {
			log.Debug("backend auto-select", "backend", Parallel, "procs", procs, "simd", simdHint())
		}
		return Parallel
	}
	if log != nil {
		log.Debug("backend auto-select", "backend", Serial, "procs", procs)
	}
	return Serial
}

type serialOps struct{}

func (serialOps) MatMul(dst, a, b *tensor.Mat) {
	tensor.MatMul(dst, a, b)
}

type parallelOps struct{}

func (parallelOps) MatMul(dst, a, b *tensor.Mat) {
	tensor.MatMulParallel(dst, a, b)
}
