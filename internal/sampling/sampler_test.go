package sampling

import (
	"errors"
	"math"
	"testing"
)

func neutralConfig() Config {
	return Config{
		Seed:              42,
		Temperature:       1,
		TopK:              0,
		TopP:              1,
		RepetitionPenalty: 1,
	}
}

func mustSampler(t *testing.T, cfg Config) *Sampler {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestConfigValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"top_p zero", func(c *Config) { c.TopP = 0 }},
		{"top_p above one", func(c *Config) { c.TopP = 1.5 }},
		{"negative top_k", func(c *Config) { c.TopK = -1 }},
		{"zero repetition penalty", func(c *Config) { c.RepetitionPenalty = 0 }},
		{"negative repeat window", func(c *Config) { c.RepeatWindow = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := neutralConfig()
			tc.mutate(&cfg)
			if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("got %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestSamplerDeterminism(t *testing.T) {
	t.Parallel()

	logits := []float32{0, 1, 2, 3, 4, 5}
	cfg := Config{Seed: 42, Temperature: 0.9, TopK: 4, TopP: 0.95, RepetitionPenalty: 1.1}
	s1 := mustSampler(t, cfg)
	s2 := mustSampler(t, cfg)
	for i := 0; i < 20; i++ {
		a := s1.Sample(logits, nil)
		b := s2.Sample(logits, nil)
		if a != b {
			t.Fatalf("step %d: same seed diverged, %d vs %d", i, a, b)
		}
	}
}

func TestSamplerGreedy(t *testing.T) {
	t.Parallel()

	logits := []float32{-1, 5, 3, 7, 2}
	s := mustSampler(t, Config{Seed: 99, Temperature: 1, TopK: 1, TopP: 1, RepetitionPenalty: 1})
	if idx := s.Sample(logits, nil); idx != 3 {
		t.Fatalf("greedy index = %d, want 3", idx)
	}
}

func TestNeutralParamsMatchPlainSoftmax(t *testing.T) {
	t.Parallel()

	logits := []float32{0.3, -1.2, 2.5, 0, 1.1}
	s := mustSampler(t, neutralConfig())
	probs := s.Probabilities(logits, nil)

	want := make([]float64, len(logits))
	var maxv float64 = -math.MaxFloat64
	for _, v := range logits {
		if float64(v) > maxv {
			maxv = float64(v)
		}
	}
	var sum float64
	for i, v := range logits {
		want[i] = math.Exp(float64(v) - maxv)
		sum += want[i]
	}
	for i := range want {
		want[i] /= sum
	}

	for i := range probs {
		if math.Abs(probs[i]-want[i]) > 1e-5 {
			t.Errorf("probs[%d] = %g, want %g", i, probs[i], want[i])
		}
	}
}

func TestProbabilitiesSumToOne(t *testing.T) {
	t.Parallel()

	logits := []float32{1, -2, 0.5, 3, -0.1, 2.2}
	s := mustSampler(t, Config{Seed: 1, Temperature: 0.7, TopK: 3, TopP: 0.9, RepetitionPenalty: 1.1})
	probs := s.Probabilities(logits, []int{0, 3})
	var sum float64
	for i, p := range probs {
		if p < 0 {
			t.Fatalf("probs[%d] = %g, negative", i, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("sum = %g, want 1", sum)
	}
}

func TestTopKRestriction(t *testing.T) {
	t.Parallel()

	logits := []float32{1, 2, 3, 4, 5}
	s := mustSampler(t, Config{Seed: 5, Temperature: 1, TopK: 2, TopP: 1, RepetitionPenalty: 1})
	probs := s.Probabilities(logits, nil)
	for i := 0; i < 3; i++ {
		if probs[i] > 1e-6 {
			t.Errorf("probs[%d] = %g, should be masked by top-k", i, probs[i])
		}
	}
	if probs[3] <= 0 || probs[4] <= 0 {
		t.Error("top-2 entries should retain probability mass")
	}
}

func TestTopPRestriction(t *testing.T) {
	t.Parallel()

	// The dominant logit holds nearly all probability mass, so top-p = 0.5
	// keeps only it.
	logits := []float32{10, 0, 0, 0, 0}
	s := mustSampler(t, Config{Seed: 7, Temperature: 1, TopK: 0, TopP: 0.5, RepetitionPenalty: 1})
	for i := 0; i < 10; i++ {
		if idx := s.Sample(logits, nil); idx != 0 {
			t.Fatalf("top-p sampling returned unexpected index %d", idx)
		}
	}
	probs := s.Probabilities(logits, nil)
	if math.Abs(probs[0]-1) > 1e-6 {
		t.Errorf("probs[0] = %g, want 1 after renormalization", probs[0])
	}
}

func TestRepetitionPenaltyAsymmetry(t *testing.T) {
	t.Parallel()

	s := mustSampler(t, Config{Seed: 1, Temperature: 1, TopK: 0, TopP: 1, RepetitionPenalty: 2})

	// A positive logit in history loses mass.
	posLogits := []float32{2, 1, 0}
	with := s.Probabilities(posLogits, []int{0})
	without := s.Probabilities(posLogits, nil)
	if with[0] >= without[0] {
		t.Errorf("penalized positive logit: %g should drop below %g", with[0], without[0])
	}

	// A negative logit divided by the penalty moves toward zero and gains
	// mass. The divide is unconditional; the asymmetry is intentional.
	negLogits := []float32{-2, 1, 0}
	withNeg := s.Probabilities(negLogits, []int{0})
	withoutNeg := s.Probabilities(negLogits, nil)
	if withNeg[0] <= withoutNeg[0] {
		t.Errorf("penalized negative logit: %g should rise above %g", withNeg[0], withoutNeg[0])
	}
}

func TestRepetitionPenaltyWindow(t *testing.T) {
	t.Parallel()

	s := mustSampler(t, Config{Seed: 1, Temperature: 1, TopK: 0, TopP: 1, RepetitionPenalty: 2, RepeatWindow: 2})
	logits := []float32{2, 1, 0}

	// Token 0 only appears outside the trailing window of 2.
	outside := s.Probabilities(logits, []int{0, 1, 2})
	plain := s.Probabilities(logits, nil)
	if math.Abs(outside[0]-plain[0]) > 1e-9 {
		t.Errorf("token outside window was penalized: %g vs %g", outside[0], plain[0])
	}

	inside := s.Probabilities(logits, []int{1, 2, 0})
	if inside[0] >= plain[0] {
		t.Errorf("token inside window was not penalized: %g vs %g", inside[0], plain[0])
	}
}

func TestTemperatureFloor(t *testing.T) {
	t.Parallel()

	logits := []float32{1, 2, 3}
	tiny := mustSampler(t, Config{Seed: 1, Temperature: 0.001, TopK: 0, TopP: 1, RepetitionPenalty: 1})
	floor := mustSampler(t, Config{Seed: 1, Temperature: 0.1, TopK: 0, TopP: 1, RepetitionPenalty: 1})

	a := tiny.Probabilities(logits, nil)
	b := floor.Probabilities(logits, nil)
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-12 {
			t.Fatalf("temperature below the floor should behave like the floor: %v vs %v", a, b)
		}
	}
}

func TestSampleIgnoresOutOfRangeHistory(t *testing.T) {
	t.Parallel()

	s := mustSampler(t, Config{Seed: 3, Temperature: 1, TopK: 0, TopP: 1, RepetitionPenalty: 1.5})
	logits := []float32{1, 2, 3}
	// Out-of-range ids in history must not panic or shift anything.
	with := s.Probabilities(logits, []int{-5, 99})
	plain := s.Probabilities(logits, nil)
	for i := range with {
		if math.Abs(with[i]-plain[i]) > 1e-12 {
			t.Fatalf("out-of-range history changed the distribution")
		}
	}
}

func TestSampleEmptyLogits(t *testing.T) {
	t.Parallel()

	s := mustSampler(t, neutralConfig())
	if got := s.Sample(nil, nil); got != 0 {
		t.Fatalf("Sample(nil) = %d, want 0", got)
	}
}
