package model

import (
	"errors"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	t.Parallel()

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig invalid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero vocab", func(c *Config) { c.VocabSize = 0 }, "VocabSize"},
		{"negative embed", func(c *Config) { c.EmbedDim = -1 }, "EmbedDim"},
		{"zero heads", func(c *Config) { c.NumHeads = 0 }, "NumHeads"},
		{"indivisible heads", func(c *Config) { c.NumHeads = 3 }, "NumHeads"},
		{"zero hidden", func(c *Config) { c.HiddenDim = 0 }, "HiddenDim"},
		{"zero layers", func(c *Config) { c.NumLayers = 0 }, "NumLayers"},
		{"zero context", func(c *Config) { c.MaxSeqLen = 0 }, "MaxSeqLen"},
		{"empty precision", func(c *Config) { c.Precision = "" }, "Precision"},
		{"bogus precision", func(c *Config) { c.Precision = "f8" }, "Precision"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("got %T, want *ConfigError", err)
			}
			if ce.Field != tc.field {
				t.Errorf("field = %q, want %q", ce.Field, tc.field)
			}
		})
	}
}

func TestHeadDim(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if got := cfg.HeadDim(); got != cfg.EmbedDim/cfg.NumHeads {
		t.Errorf("HeadDim = %d", got)
	}
}

func TestWeightsFootprint(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	f32, err := NewWeights(cfg, 1)
	if err != nil {
		t.Fatalf("NewWeights: %v", err)
	}

	cfg16 := cfg
	cfg16.Precision = PrecisionF16
	f16, err := NewWeights(cfg16, 1)
	if err != nil {
		t.Fatalf("NewWeights: %v", err)
	}

	if f32.FootprintMB() <= f16.FootprintMB() {
		t.Errorf("f32 footprint %g should exceed f16 footprint %g",
			f32.FootprintMB(), f16.FootprintMB())
	}
}
