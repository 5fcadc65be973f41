// Package assistant composes the generation engine with the memory store
// and user profile into a conversational surface.
package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/wisplm/wisp/internal/generate"
	"github.com/wisplm/wisp/internal/logger"
	"github.com/wisplm/wisp/internal/memory"
	"github.com/wisplm/wisp/internal/profile"
)

// Options carries the sampling defaults used for every chat turn.
type Options struct {
	MaxTokens         int
	Seed              int64
	Temperature       float64
	TopK              int
	TopP              float64
	RepetitionPenalty float64
}

// DefaultOptions mirrors the original assistant's generation defaults.
func DefaultOptions() Options {
	return Options{
		MaxTokens:         50,
		Seed:              -1,
		Temperature:       0.7,
		TopK:              50,
		TopP:              0.9,
		RepetitionPenalty: 1.1,
	}
}

type turn struct {
	user string
	ai   string
}

// Assistant is the conversational brain: it learns from messages, recalls
// relevant memories into the prompt and generates replies.
type Assistant struct {
	engine *generate.Engine
	memory *memory.Store
	user   *profile.Context
	opts   Options
	log    logger.Logger

	mu      sync.Mutex
	history []turn
}

// New wires an assistant together.
func New(engine *generate.Engine, mem *memory.Store, user *profile.Context, opts Options, log logger.Logger) *Assistant {
	if log == nil {
		log = logger.Default()
	}
	return &Assistant{engine: engine, memory: mem, user: user, opts: opts, log: log}
}

// Greeting returns the assistant's opening line.
func (a *Assistant) Greeting() string {
	return a.user.Greeting(time.Now())
}

var (
	namePattern     = regexp.MustCompile(`(?i)^\s*my name is\s+(\S+)`)
	likePattern     = regexp.MustCompile(`(?i)^\s*i (?:like|love)\s+(.+)`)
	rememberPattern = regexp.MustCompile(`(?i)^\s*remember that\s+(.+)`)
)

// Chat processes one user message and returns the reply. Learning phrases
// ("my name is", "i like", "remember that") short-circuit generation and
// update the profile or memory directly; everything else goes through the
// model.
func (a *Assistant) Chat(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("assistant: empty message")
	}
	if err := a.user.Touch(); err != nil {
		a.log.Warn("profile update failed", "err", err)
	}

	if reply, handled, err := a.learn(message); handled || err != nil {
		if err == nil {
			a.record(message, reply)
		}
		return reply, err
	}

	reply, err := a.respond(ctx, message)
	if err != nil {
		return "", err
	}
	a.record(message, reply)
	return reply, nil
}

// learn checks for explicit teaching phrases.
func (a *Assistant) learn(message string) (string, bool, error) {
	if m := namePattern.FindStringSubmatch(message); m != nil {
		name := strings.Trim(m[1], ".,!?")
		if err := a.user.SetName(name); err != nil {
			return "", true, err
		}
		return fmt.Sprintf("Nice to meet you, %s. I'll remember that.", name), true, nil
	}
	if m := likePattern.FindStringSubmatch(message); m != nil {
		interest := strings.Trim(m[1], ".,!?")
		if err := a.user.AddInterest(interest); err != nil {
			return "", true, err
		}
		return fmt.Sprintf("Noted: you like %s.", interest), true, nil
	}
	if m := rememberPattern.FindStringSubmatch(message); m != nil {
		fact := strings.TrimSpace(m[1])
		if _, err := a.memory.Add(fact, "facts", 1.5); err != nil {
			return "", true, err
		}
		return "Got it, I'll remember that.", true, nil
	}
	return "", false, nil
}

func (a *Assistant) respond(ctx context.Context, message string) (string, error) {
	prompt := a.buildPrompt(message)
	resp, err := a.engine.Generate(ctx, &generate.Request{
		Prompt:            prompt,
		MaxTokens:         a.opts.MaxTokens,
		Seed:              a.opts.Seed,
		Temperature:       a.opts.Temperature,
		TopK:              a.opts.TopK,
		TopP:              a.opts.TopP,
		RepetitionPenalty: a.opts.RepetitionPenalty,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	a.log.Debug("chat turn",
		"state", resp.State.String(),
		"tokens", resp.Stats.TokensGenerated,
		"tps", resp.Stats.TPS)
	return strings.TrimSpace(resp.Text), nil
}

// buildPrompt assembles profile context, relevant memories and the last few
// turns ahead of the new message.
func (a *Assistant) buildPrompt(message string) string {
	var b strings.Builder
	if summary := a.user.Summary(); summary != "" {
		b.WriteString(summary)
	}
	for _, item := range a.memory.Search(message, 3, "") {
		fmt.Fprintf(&b, "Memory: %s\n", item.Content)
	}

	a.mu.Lock()
	history := a.history
	if len(history) > 3 {
		history = history[len(history)-3:]
	}
	for _, t := range history {
		fmt.Fprintf(&b, "User: %s\nAI: %s\n", t.user, t.ai)
	}
	a.mu.Unlock()

	fmt.Fprintf(&b, "User: %s\nAI:", message)
	return b.String()
}

func (a *Assistant) record(message, reply string) {
	a.mu.Lock()
	a.history = append(a.history, turn{user: message, ai: reply})
	a.mu.Unlock()
	if _, err := a.memory.Add("User: "+message, "conversations", 1); err != nil {
		a.log.Warn("memory write failed", "err", err)
	}
}

// SearchMemory exposes memory search to the CLI and API surfaces.
func (a *Assistant) SearchMemory(query string, topK int) []memory.Item {
	return a.memory.Search(query, topK, "")
}

// MemoryStats exposes the memory counters.
func (a *Assistant) MemoryStats() memory.Stats {
	return a.memory.Stats()
}
