package model

import "fmt"

// Precision selects the storage encoding for frozen weights.
type Precision string

const (
	// PrecisionF32 keeps weights in full precision.
	PrecisionF32 Precision = "f32"
	// PrecisionF16 stores weights as IEEE halves and decodes on access.
	// This trades a small amount of accuracy for half the resident memory;
	// it is never a correctness concern.
	PrecisionF16 Precision = "f16"
)

// Config fully determines the shape of every weight matrix in the model.
// It is immutable once the engine is constructed.
type Config struct {
	VocabSize  int
	EmbedDim   int
	NumHeads   int
	HiddenDim  int
	NumLayers  int
	MaxSeqLen  int
	Precision  Precision
}

// DefaultConfig mirrors the footprint of the original lightweight assistant
// model: small enough to run on modest hardware, large enough to exercise
// every code path.
func DefaultConfig() Config {
	return Config{
		VocabSize: 15000,
		EmbedDim:  128,
		NumHeads:  8,
		HiddenDim: 256,
		NumLayers: 2,
		MaxSeqLen: 256,
		Precision: PrecisionF16,
	}
}

// HeadDim returns the per-head width of the attention projections.
func (c Config) HeadDim() int {
	return c.EmbedDim / c.NumHeads
}

// Validate reports the first shape constraint the config violates.
// A config that passes Validate can never produce a runtime shape error.
func (c Config) Validate() error {
	if c.VocabSize <= 0 {
		return &ConfigError{Field: "VocabSize", Reason: fmt.Sprintf("must be positive, got %d", c.VocabSize)}
	}
	if c.EmbedDim <= 0 {
		return &ConfigError{Field: "EmbedDim", Reason: fmt.Sprintf("must be positive, got %d", c.EmbedDim)}
	}
	if c.NumHeads <= 0 {
		return &ConfigError{Field: "NumHeads", Reason: fmt.Sprintf("must be positive, got %d", c.NumHeads)}
	}
	if c.EmbedDim%c.NumHeads != 0 {
		return &ConfigError{Field: "NumHeads", Reason: fmt.Sprintf("EmbedDim %d not divisible by NumHeads %d", c.EmbedDim, c.NumHeads)}
	}
	if c.HiddenDim <= 0 {
		return &ConfigError{Field: "HiddenDim", Reason: fmt.Sprintf("must be positive, got %d", c.HiddenDim)}
	}
	if c.NumLayers <= 0 {
		return &ConfigError{Field: "NumLayers", Reason: fmt.Sprintf("must be positive, got %d", c.NumLayers)}
	}
	if c.MaxSeqLen <= 0 {
		return &ConfigError{Field: "MaxSeqLen", Reason: fmt.Sprintf("must be positive, got %d", c.MaxSeqLen)}
	}
	switch c.Precision {
	case PrecisionF32, PrecisionF16:
	case "":
		return &ConfigError{Field: "Precision", Reason: "must be set (f32 or f16)"}
	default:
		return &ConfigError{Field: "Precision", Reason: fmt.Sprintf("unknown precision %q", c.Precision)}
	}
	return nil
}
