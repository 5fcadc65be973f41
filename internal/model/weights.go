package model

import (
	"fmt"

	"github.com/wisplm/wisp/internal/tensor"
)

// initScale is the standard deviation of the Gaussian weight init.
const initScale = 0.02

// LayerWeights holds the six matrices of one transformer layer.
type LayerWeights struct {
	Wq, Wk, Wv, Wo tensor.Mat // attention projections, EmbedDim x EmbedDim
	W1             tensor.Mat // feed-forward up, EmbedDim x HiddenDim
	W2             tensor.Mat // feed-forward down, HiddenDim x EmbedDim
}

// Weights is the model's frozen parameter store. It is built once, never
// mutated afterwards, and therefore safe to share across any number of
// concurrent forward passes.
type Weights struct {
	Embedding tensor.Mat // VocabSize x EmbedDim
	Layers    []LayerWeights
	Output    tensor.Mat // EmbedDim x VocabSize
}

// NewWeights builds a randomly initialized parameter store for cfg.
// Initialization is deterministic in seed: the same (cfg, seed) pair always
// yields identical weights.
func NewWeights(cfg Config, seed int64) (*Weights, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Each matrix gets its own derived seed so layout changes in one place
	// do not reshuffle every other matrix.
	next := seed
	fill := func(r, c int) tensor.Mat {
		m := tensor.NewMat(r, c)
		tensor.FillRandn(&m, next, initScale)
		next++
		if cfg.Precision == PrecisionF16 {
			return m.ToF16()
		}
		return m
	}

	w := &Weights{
		Embedding: fill(cfg.VocabSize, cfg.EmbedDim),
		Layers:    make([]LayerWeights, cfg.NumLayers),
		Output:    fill(cfg.EmbedDim, cfg.VocabSize),
	}
	for i := range w.Layers {
		w.Layers[i] = LayerWeights{
			Wq: fill(cfg.EmbedDim, cfg.EmbedDim),
			Wk: fill(cfg.EmbedDim, cfg.EmbedDim),
			Wv: fill(cfg.EmbedDim, cfg.EmbedDim),
			Wo: fill(cfg.EmbedDim, cfg.EmbedDim),
			W1: fill(cfg.EmbedDim, cfg.HiddenDim),
			W2: fill(cfg.HiddenDim, cfg.EmbedDim),
		}
	}
	return w, nil
}

// FootprintMB estimates the resident size of the parameter store.
func (w *Weights) FootprintMB() float64 {
	var bytes int
	count := func(m *tensor.Mat) {
		n := m.R * m.C
		if m.DType == tensor.F16 {
			bytes += 2 * n
		} else {
			bytes += 4 * n
		}
	}
	count(&w.Embedding)
	count(&w.Output)
	for i := range w.Layers {
		l := &w.Layers[i]
		count(&l.Wq)
		count(&l.Wk)
		count(&l.Wv)
		count(&l.Wo)
		count(&l.W1)
		count(&l.W2)
	}
	return float64(bytes) / (1024 * 1024)
}

// check verifies that every matrix shape matches cfg. A mismatch is a
// construction-time error; Forward never re-validates shapes.
func (w *Weights) check(cfg Config) error {
	want := func(name string, m *tensor.Mat, r, c int) error {
		if m.R != r || m.C != c {
			return &ConfigError{
				Field:  name,
				Reason: fmt.Sprintf("have %dx%d, config requires %dx%d", m.R, m.C, r, c),
			}
		}
		return nil
	}
	if err := want("Embedding", &w.Embedding, cfg.VocabSize, cfg.EmbedDim); err != nil {
		return err
	}
	if len(w.Layers) != cfg.NumLayers {
		return &ConfigError{
			Field:  "Layers",
			Reason: fmt.Sprintf("have %d layers, config requires %d", len(w.Layers), cfg.NumLayers),
		}
	}
	for i := range w.Layers {
		l := &w.Layers[i]
		prefix := fmt.Sprintf("Layers[%d].", i)
		if err := want(prefix+"Wq", &l.Wq, cfg.EmbedDim, cfg.EmbedDim); err != nil {
			return err
		}
		if err := want(prefix+"Wk", &l.Wk, cfg.EmbedDim, cfg.EmbedDim); err != nil {
			return err
		}
		if err := want(prefix+"Wv", &l.Wv, cfg.EmbedDim, cfg.EmbedDim); err != nil {
			return err
		}
		if err := want(prefix+"Wo", &l.Wo, cfg.EmbedDim, cfg.EmbedDim); err != nil {
			return err
		}
		if err := want(prefix+"W1", &l.W1, cfg.EmbedDim, cfg.HiddenDim); err != nil {
			return err
		}
		if err := want(prefix+"W2", &l.W2, cfg.HiddenDim, cfg.EmbedDim); err != nil {
			return err
		}
	}
	return want("Output", &w.Output, cfg.EmbedDim, cfg.VocabSize)
}
