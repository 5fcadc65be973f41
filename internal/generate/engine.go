package generate

import (
	"context"
	"fmt"

	"github.com/wisplm/wisp/internal/model"
	"github.com/wisplm/wisp/internal/sampling"
	"github.com/wisplm/wisp/internal/tokenizer"
)

// StreamFunc receives decoded token text as it is generated.
type StreamFunc func(token string)

// Request carries one text-level generation request.
type Request struct {
	Prompt    string
	MaxTokens int

	Seed              int64
	Temperature       float64
	TopK              int
	TopP              float64
	RepetitionPenalty float64
}

// Response is the text-level outcome of a request.
type Response struct {
	Text  string
	State State
	Stats Stats
}

// Engine ties the tokenizer, forward engine and sampler into the
// text-in/text-out operation the CLI and API call.
type Engine struct {
	model *model.Engine
	tok   *tokenizer.Tokenizer
}

// NewEngine wraps a forward engine and tokenizer.
func NewEngine(m *model.Engine, tok *tokenizer.Tokenizer) *Engine {
	return &Engine{model: m, tok: tok}
}

// Model exposes the underlying forward engine.
func (e *Engine) Model() *model.Engine { return e.model }

// Tokenizer exposes the tokenizer for callers that pre-encode text.
func (e *Engine) Tokenizer() *tokenizer.Tokenizer { return e.tok }

// Generate encodes the prompt, runs the generation loop and decodes the
// produced tokens. stream, when non-nil, receives each token's text as soon
// as it is drawn.
func (e *Engine) Generate(ctx context.Context, req *Request, stream StreamFunc) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sampler, err := sampling.New(sampling.Config{
		Seed:              req.Seed,
		Temperature:       req.Temperature,
		TopK:              req.TopK,
		TopP:              req.TopP,
		RepetitionPenalty: req.RepetitionPenalty,
	})
	if err != nil {
		return nil, err
	}

	ids := e.tok.EncodePrompt(req.Prompt)
	gen := &Generator{
		Model:     e.model,
		Sampler:   sampler,
		StopToken: tokenizer.EOS,
		MaxSeqLen: e.model.Config().MaxSeqLen,
	}

	var onToken func(id int)
	if stream != nil {
		onToken = func(id int) {
			stream(e.tok.Decode([]int{id}, true))
		}
	}

	res, err := gen.Generate(ctx, ids, req.MaxTokens, onToken)
	if err != nil {
		return nil, err
	}

	return &Response{
		Text:  e.tok.Decode(res.Tokens[len(ids):], true),
		State: res.State,
		Stats: res.Stats,
	}, nil
}
