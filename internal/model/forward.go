package model

import (
	"math"

	"github.com/wisplm/wisp/internal/tensor"
)

// causalMask is added to attention scores at strictly-future positions so
// they vanish after softmax.
const causalMask = -1e9

// softmaxEps guards attention-row softmax denominators, matching the
// decoder's softmax so the whole pipeline uses one formulation.
const softmaxEps = 1e-8

// Engine runs the forward pass over a frozen parameter store. It holds the
// only reference to its weights; nothing mutates them after construction, so
// one engine may serve concurrent Forward calls.
type Engine struct {
	cfg     Config
	weights *Weights
	ops     Ops
}

// Option configures optional engine behaviour.
type Option func(*Engine)

// WithOps installs an acceleration backend for matrix multiplies.
func WithOps(ops Ops) Option {
	return func(e *Engine) { e.ops = ops }
}

// NewEngine validates cfg against w and returns an engine. Any shape
// mismatch surfaces here as a ConfigError; Forward assumes shapes are sound.
func NewEngine(cfg Config, w *Weights, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := w.check(cfg); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, weights: w}
	for _, opt := range opts {
		opt(e)
	}
	e.ops = ensureOps(e.ops)
	return e, nil
}

// Config returns the engine's immutable configuration.
func (e *Engine) Config() Config { return e.cfg }

// Weights exposes the frozen parameter store, e.g. for footprint reporting.
func (e *Engine) Weights() *Weights { return e.weights }

// Forward computes the next-token logits for a token sequence. The returned
// slice has exactly VocabSize entries and is freshly allocated, so concurrent
// calls never alias.
//
// Out-of-range ids are clamped into [0, VocabSize-1] rather than rejected;
// an empty or over-length sequence is a caller contract violation and fails
// with an error wrapping ErrInvalidInput before any computation happens.
func (e *Engine) Forward(ids []int) ([]float32, error) {
	if len(ids) == 0 {
		return nil, ErrEmptySequence
	}
	if len(ids) > e.cfg.MaxSeqLen {
		return nil, sequenceTooLong(len(ids), e.cfg.MaxSeqLen)
	}

	seqLen := len(ids)
	embedDim := e.cfg.EmbedDim
	numHeads := e.cfg.NumHeads
	headDim := e.cfg.HeadDim()
	scale := float32(1 / math.Sqrt(float64(headDim)))

	// Embedding lookup with id clamping.
	x := tensor.NewMat(seqLen, embedDim)
	for i, id := range ids {
		e.weights.Embedding.RowTo(x.Data[i*embedDim:(i+1)*embedDim], clampID(id, e.cfg.VocabSize))
	}

	q := tensor.NewMat(seqLen, embedDim)
	k := tensor.NewMat(seqLen, embedDim)
	v := tensor.NewMat(seqLen, embedDim)
	attnOut := tensor.NewMat(seqLen, embedDim)
	proj := tensor.NewMat(seqLen, embedDim)
	hidden := tensor.NewMat(seqLen, e.cfg.HiddenDim)
	ffnOut := tensor.NewMat(seqLen, embedDim)
	scores := make([]float32, seqLen)

	for li := range e.weights.Layers {
		layer := &e.weights.Layers[li]

		e.ops.MatMul(&q, &x, &layer.Wq)
		e.ops.MatMul(&k, &x, &layer.Wk)
		e.ops.MatMul(&v, &x, &layer.Wv)

		// Per-head causal attention. Each head works on its own
		// headDim-wide slice of the projections.
		for i := range attnOut.Data {
			attnOut.Data[i] = 0
		}
		for h := 0; h < numHeads; h++ {
			off := h * headDim
			for i := 0; i < seqLen; i++ {
				qi := q.Data[i*embedDim+off : i*embedDim+off+headDim]
				row := scores[:seqLen]
				for j := 0; j <= i; j++ {
					kj := k.Data[j*embedDim+off : j*embedDim+off+headDim]
					row[j] = tensor.Dot(qi, kj) * scale
				}
				for j := i + 1; j < seqLen; j++ {
					row[j] = causalMask
				}
				tensor.Softmax(row, softmaxEps)

				out := attnOut.Data[i*embedDim+off : i*embedDim+off+headDim]
				for j := 0; j <= i; j++ {
					w := row[j]
					if w == 0 {
						continue
					}
					vj := v.Data[j*embedDim+off : j*embedDim+off+headDim]
					for d, val := range vj {
						out[d] += w * val
					}
				}
			}
		}

		// Output projection and residual.
		e.ops.MatMul(&proj, &attnOut, &layer.Wo)
		tensor.Add(x.Data, proj.Data)

		// Feed-forward with GELU and second residual.
		e.ops.MatMul(&hidden, &x, &layer.W1)
		tensor.GELUInPlace(hidden.Data)
		e.ops.MatMul(&ffnOut, &hidden, &layer.W2)
		tensor.Add(x.Data, ffnOut.Data)
	}

	// Only the last position's hidden state maps to next-token logits.
	last := tensor.NewMatFromData(1, embedDim, x.Data[(seqLen-1)*embedDim:seqLen*embedDim])
	logits := tensor.NewMat(1, e.cfg.VocabSize)
	e.ops.MatMul(&logits, &last, &e.weights.Output)
	return logits.Data, nil
}

// Embed returns the mean-pooled embedding of a token sequence, with the same
// id clamping as Forward.
func (e *Engine) Embed(ids []int) ([]float32, error) {
	if len(ids) == 0 {
		return nil, ErrEmptySequence
	}
	embedDim := e.cfg.EmbedDim
	rows := make([]float32, len(ids)*embedDim)
	for i, id := range ids {
		e.weights.Embedding.RowTo(rows[i*embedDim:(i+1)*embedDim], clampID(id, e.cfg.VocabSize))
	}
	mean := make([]float32, embedDim)
	tensor.MeanRows(mean, rows, len(ids))
	return mean, nil
}

// Similarity computes the cosine similarity of two sequences' mean-pooled
// embeddings. Useful to collaborators ranking memories by relevance.
func (e *Engine) Similarity(a, b []int) (float32, error) {
	ea, err := e.Embed(a)
	if err != nil {
		return 0, err
	}
	eb, err := e.Embed(b)
	if err != nil {
		return 0, err
	}
	return tensor.Cosine(ea, eb), nil
}

func clampID(id, vocab int) int {
	if id < 0 {
		return 0
	}
	if id >= vocab {
		return vocab - 1
	}
	return id
}
