package generate

import (
	"context"
	"fmt"
	"time"

	"github.com/wisplm/wisp/internal/sampling"
)

// Model is the forward pass the loop drives. Implemented by model.Engine.
type Model interface {
	Forward(ids []int) ([]float32, error)
}

// State describes why the loop is running or stopped.
type State int

const (
	// Running is the initial, non-terminal state.
	Running State = iota
	// StoppedByBudget means the token budget was exhausted.
	StoppedByBudget
	// StoppedByStopToken means the stop token was drawn.
	StoppedByStopToken
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case StoppedByBudget:
		return "stopped_by_budget"
	case StoppedByStopToken:
		return "stopped_by_stop_token"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Stats summarizes one generation run.
type Stats struct {
	TokensGenerated int
	Duration        time.Duration
	TPS             float64
}

// Result is the outcome of one generation run. Tokens is the seed plus
// everything generated, stop token included when one was drawn.
type Result struct {
	Tokens    []int
	Generated int
	State     State
	Stats     Stats
}

// Generator drives the forward engine and sampler autoregressively. Each
// step feeds the model the trailing MaxSeqLen window of the sequence, draws
// one token and appends it. Generation is inherently sequential; there is no
// parallelism across steps.
type Generator struct {
	Model   Model
	Sampler *sampling.Sampler

	// StopToken ends generation when drawn. Negative disables it.
	StopToken int
	// MaxSeqLen bounds the window passed to the model.
	MaxSeqLen int
}

// Generate extends seed by at most maxTokens tokens. Cancellation is
// honoured at step boundaries only; a single forward pass is not
// interruptible. The loop always terminates: the budget bounds it even if
// the stop token is never drawn.
func (g *Generator) Generate(ctx context.Context, seed []int, maxTokens int, onToken func(id int)) (Result, error) {
	res := Result{
		Tokens: append(make([]int, 0, len(seed)+maxTokens), seed...),
		State:  Running,
	}
	start := time.Now()

	for res.Generated < maxTokens {
		if err := ctx.Err(); err != nil {
			g.finish(&res, start)
			return res, err
		}

		logits, err := g.Model.Forward(g.window(res.Tokens))
		if err != nil {
			g.finish(&res, start)
			return res, fmt.Errorf("forward at step %d: %w", res.Generated, err)
		}

		next := g.Sampler.Sample(logits, res.Tokens)
		res.Tokens = append(res.Tokens, next)
		res.Generated++
		if onToken != nil {
			onToken(next)
		}

		if g.StopToken >= 0 && next == g.StopToken {
			res.State = StoppedByStopToken
			g.finish(&res, start)
			return res, nil
		}
	}

	res.State = StoppedByBudget
	g.finish(&res, start)
	return res, nil
}

func (g *Generator) window(tokens []int) []int {
	if g.MaxSeqLen > 0 && len(tokens) > g.MaxSeqLen {
		return tokens[len(tokens)-g.MaxSeqLen:]
	}
	return tokens
}

func (g *Generator) finish(res *Result, start time.Time) {
	res.Stats.TokensGenerated = res.Generated
	res.Stats.Duration = time.Since(start)
	if secs := res.Stats.Duration.Seconds(); secs > 0 {
		res.Stats.TPS = float64(res.Generated) / secs
	}
}
