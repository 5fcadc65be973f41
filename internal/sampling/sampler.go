package sampling

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

// ErrInvalidConfig wraps every sampler parameter validation failure.
var ErrInvalidConfig = errors.New("invalid sampling config")

// maskValue replaces logits removed by top-k so they vanish after softmax.
const maskValue = -1e9

// temperatureFloor bounds the temperature divisor away from zero.
const temperatureFloor = 0.1

// softmaxEps guards the softmax denominator against an all-zero row.
const softmaxEps = 1e-8

// Config holds the sampling parameters.
type Config struct {
	// Seed initializes the RNG. Negative means time-derived.
	Seed int64
	// Temperature scales the logits; it is floored at 0.1 before dividing.
	Temperature float64
	// TopK keeps only the k highest logits when k > 0.
	TopK int
	// TopP keeps the smallest probability prefix whose cumulative mass
	// reaches p when p < 1. Must be in (0, 1]; zero is rejected, it does
	// not mean "disabled".
	TopP float64
	// RepetitionPenalty divides the logits of recently seen tokens.
	// Values above 1 discourage repetition.
	RepetitionPenalty float64
	// RepeatWindow is how many trailing history tokens are penalized.
	// Zero means the default of 20.
	RepeatWindow int
}

// defaultRepeatWindow matches the trailing window the original model
// penalizes.
const defaultRepeatWindow = 20

// Validate reports the first out-of-range parameter.
func (c Config) Validate() error {
	if c.TopP <= 0 || c.TopP > 1 {
		return fmt.Errorf("%w: top_p must be in (0, 1], got %v", ErrInvalidConfig, c.TopP)
	}
	if c.TopK < 0 {
		return fmt.Errorf("%w: top_k must be >= 0, got %d", ErrInvalidConfig, c.TopK)
	}
	if c.RepetitionPenalty <= 0 {
		return fmt.Errorf("%w: repetition_penalty must be > 0, got %v", ErrInvalidConfig, c.RepetitionPenalty)
	}
	if c.RepeatWindow < 0 {
		return fmt.Errorf("%w: repeat_window must be >= 0, got %d", ErrInvalidConfig, c.RepeatWindow)
	}
	return nil
}

// Sampler draws one token from a logits vector. It is not safe for
// concurrent use; each generation request owns its own sampler.
type Sampler struct {
	cfg  Config
	rng  *rand.Rand
	work []float64
	keep []int
}

// New validates cfg and returns a sampler.
func New(cfg Config) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.RepeatWindow == 0 {
		cfg.RepeatWindow = defaultRepeatWindow
	}
	seed := cfg.Seed
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	return &Sampler{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}, nil
}

// Sample draws a single token id from logits given the recent history.
// The stages run in a fixed order that is part of the contract:
//
//  1. Repetition penalty over the trailing history window.
//  2. Temperature scaling, floored at 0.1.
//  3. Top-k masking.
//  4. Numerically stable softmax.
//  5. Top-p (nucleus) truncation with renormalization.
//  6. Categorical draw.
//
// logits is not modified. If filtering collapses all probability mass the
// highest-probability token is returned deterministically instead of failing.
func (s *Sampler) Sample(logits []float32, history []int) int {
	if len(logits) == 0 {
		return 0
	}
	if cap(s.work) < len(logits) {
		s.work = make([]float64, len(logits))
	}
	work := s.work[:len(logits)]
	for i, v := range logits {
		work[i] = float64(v)
	}
	s.pipeline(work, history)
	return s.draw(work)
}

// pipeline turns raw logits (already widened into work) into the final
// categorical distribution, in the contractual stage order.
func (s *Sampler) pipeline(work []float64, history []int) {
	s.applyRepetitionPenalty(work, history)

	// Temperature. The floor keeps near-zero temperatures from producing
	// unbounded logits.
	invTemp := 1 / math.Max(s.cfg.Temperature, temperatureFloor)
	for i := range work {
		work[i] *= invTemp
	}

	if s.cfg.TopK > 0 && s.cfg.TopK < len(work) {
		s.applyTopK(work)
	}

	softmax(work)

	if s.cfg.TopP < 1 {
		s.applyTopP(work)
	}
}

// applyRepetitionPenalty divides the logit of every distinct token in the
// trailing window by the penalty. The divide is unconditional: a negative
// logit moves toward zero, i.e. becomes more likely. That asymmetry is
// observed behaviour of the system this engine reproduces and is kept as-is;
// see DESIGN.md.
func (s *Sampler) applyRepetitionPenalty(work []float64, history []int) {
	if s.cfg.RepetitionPenalty == 1 || len(history) == 0 {
		return
	}
	start := len(history) - s.cfg.RepeatWindow
	if start < 0 {
		start = 0
	}
	seen := make(map[int]struct{}, s.cfg.RepeatWindow)
	for _, id := range history[start:] {
		if id < 0 || id >= len(work) {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		work[id] /= s.cfg.RepetitionPenalty
	}
}

// applyTopK masks everything outside the k highest logits.
func (s *Sampler) applyTopK(work []float64) {
	k := s.cfg.TopK
	if cap(s.keep) < len(work) {
		s.keep = make([]int, len(work))
	}
	idx := s.keep[:len(work)]
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return work[idx[a]] > work[idx[b]] })
	for _, i := range idx[k:] {
		work[i] = maskValue
	}
}

// applyTopP zeroes the tail of the distribution outside the smallest prefix
// whose cumulative probability reaches TopP, then renormalizes the kept mass.
func (s *Sampler) applyTopP(probs []float64) {
	if cap(s.keep) < len(probs) {
		s.keep = make([]int, len(probs))
	}
	idx := s.keep[:len(probs)]
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return probs[idx[a]] > probs[idx[b]] })

	var cum float64
	cut := len(idx)
	for i, id := range idx {
		cum += probs[id]
		if cum >= s.cfg.TopP {
			cut = i + 1
			break
		}
	}

	var kept float64
	for _, id := range idx[:cut] {
		kept += probs[id]
	}
	for _, id := range idx[cut:] {
		probs[id] = 0
	}
	if kept <= 0 {
		return
	}
	inv := 1 / kept
	for _, id := range idx[:cut] {
		probs[id] *= inv
	}
}

// draw samples an index from the categorical distribution. A degenerate
// all-zero distribution falls back to argmax instead of erroring.
func (s *Sampler) draw(probs []float64) int {
	var total float64
	for _, p := range probs {
		total += p
	}
	if total <= 0 {
		return argmax(probs)
	}

	r := s.rng.Float64() * total
	var cum float64
	for i, p := range probs {
		cum += p
		if r <= cum {
			return i
		}
	}
	// Floating-point round-off can leave r marginally above the final
	// cumulative sum; return the last non-zero entry.
	for i := len(probs) - 1; i >= 0; i-- {
		if probs[i] > 0 {
			return i
		}
	}
	return argmax(probs)
}

// Probabilities returns the decoder's pre-draw distribution for logits and
// history, running every stage except the final draw. Exposed for tests and
// diagnostics.
func (s *Sampler) Probabilities(logits []float32, history []int) []float64 {
	if len(logits) == 0 {
		return nil
	}
	work := make([]float64, len(logits))
	for i, v := range logits {
		work[i] = float64(v)
	}
	s.pipeline(work, history)
	return work
}

func softmax(x []float64) {
	maxv := x[0]
	for _, v := range x[1:] {
		if v > maxv {
			maxv = v
		}
	}
	var sum float64
	for i, v := range x {
		e := math.Exp(v - maxv)
		x[i] = e
		sum += e
	}
	inv := 1 / (sum + softmaxEps)
	for i := range x {
		x[i] *= inv
	}
}

func argmax(x []float64) int {
	best := 0
	for i, v := range x {
		if v > x[best] {
			best = i
		}
	}
	return best
}
