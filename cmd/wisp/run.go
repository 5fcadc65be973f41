package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wisplm/wisp/internal/generate"
)

func runCmd() *cli.Command {
	var (
		prompt        string
		maxTokens     int64
		temp          float64
		topK          int64
		topP          float64
		repeatPenalty float64
		seed          int64
		showConfig    bool
	)

	flags := append([]cli.Flag{}, commonModelFlags()...)
	flags = append(flags, loggingFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "prompt",
			Aliases:     []string{"p"},
			Usage:       "prompt text",
			Destination: &prompt,
		},
		&cli.Int64Flag{
			Name:        "max-tokens",
			Aliases:     []string{"n"},
			Usage:       "number of tokens to generate",
			Value:       50,
			Destination: &maxTokens,
		},
		&cli.Float64Flag{
			Name:        "temp",
			Aliases:     []string{"temperature", "t"},
			Usage:       "sampling temperature",
			Value:       0.7,
			Destination: &temp,
		},
		&cli.Int64Flag{
			Name:        "top-k",
			Aliases:     []string{"top_k"},
			Usage:       "top-k sampling parameter (0 = disabled)",
			Value:       50,
			Destination: &topK,
		},
		&cli.Float64Flag{
			Name:        "top-p",
			Aliases:     []string{"top_p"},
			Usage:       "top-p sampling parameter (must be in (0, 1])",
			Value:       0.9,
			Destination: &topP,
		},
		&cli.Float64Flag{
			Name:        "repeat-penalty",
			Aliases:     []string{"repeat_penalty"},
			Usage:       "repetition penalty (1.0 = disabled)",
			Value:       1.1,
			Destination: &repeatPenalty,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "sampling RNG seed (default -1 = random)",
			Value:       -1,
			Destination: &seed,
		},
		&cli.BoolFlag{
			Name:        "show-config",
			Usage:       "print model summary before generating",
			Destination: &showConfig,
		},
	)

	return &cli.Command{
		Name:  "run",
		Usage: "Generate text from a prompt",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := LoadConfig()
			applyModelConfig(c, cfg)
			applySamplingConfig(c, cfg, &temp, &topK, &topP, &repeatPenalty, &maxTokens, &seed)

			if prompt == "" {
				return cli.Exit("error: --prompt is required", 1)
			}

			log := newLogger()
			engine, err := buildEngine(log, nil)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: build engine: %v", err), 1)
			}

			if showConfig {
				mc := engine.Model().Config()
				fmt.Fprintf(os.Stderr, "vocab=%d embd=%d heads=%d ffn=%d layers=%d ctx=%d precision=%s\n",
					mc.VocabSize, mc.EmbedDim, mc.NumHeads, mc.HiddenDim, mc.NumLayers, mc.MaxSeqLen, mc.Precision)
				fmt.Fprintf(os.Stderr, "sampling: temp=%.3g top_k=%d top_p=%.3g repeat_penalty=%.3g seed=%d\n",
					temp, topK, topP, repeatPenalty, seed)
			}

			resp, err := engine.Generate(ctx, &generate.Request{
				Prompt:            prompt,
				MaxTokens:         int(maxTokens),
				Seed:              seed,
				Temperature:       temp,
				TopK:              int(topK),
				TopP:              topP,
				RepetitionPenalty: repeatPenalty,
			}, func(token string) {
				fmt.Print(token)
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: generation: %v", err), 1)
			}

			fmt.Println()
			fmt.Fprintf(os.Stderr, "Stats: %.2f TPS (%d tokens in %s, %s)\n",
				resp.Stats.TPS, resp.Stats.TokensGenerated, resp.Stats.Duration, resp.State)
			return nil
		},
	}
}
