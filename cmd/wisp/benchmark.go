package main

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wisplm/wisp/internal/generate"
)

func benchmarkCmd() *cli.Command {
	var (
		warmupRuns int64
		benchRuns  int64
		prompt     string
		steps      int64
	)

	flags := append([]cli.Flag{}, commonModelFlags()...)
	flags = append(flags, loggingFlags()...)
	flags = append(flags,
		&cli.Int64Flag{
			Name:        "warmup",
			Usage:       "number of warmup runs",
			Value:       1,
			Destination: &warmupRuns,
		},
		&cli.Int64Flag{
			Name:        "runs",
			Usage:       "number of benchmark runs",
			Value:       3,
			Destination: &benchRuns,
		},
		&cli.StringFlag{
			Name:        "prompt",
			Aliases:     []string{"p"},
			Usage:       "prompt text for benchmarking",
			Value:       "hello world how are you today",
			Destination: &prompt,
		},
		&cli.Int64Flag{
			Name:        "steps",
			Aliases:     []string{"n"},
			Usage:       "number of tokens to generate per run",
			Value:       32,
			Destination: &steps,
		},
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Benchmark generation throughput",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := LoadConfig()
			applyModelConfig(c, cfg)

			log := newLogger()
			engine, err := buildEngine(log, nil)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: build engine: %v", err), 1)
			}

			req := generate.Request{
				Prompt:            prompt,
				MaxTokens:         int(steps),
				Seed:              42,
				Temperature:       0.7,
				TopK:              50,
				TopP:              0.9,
				RepetitionPenalty: 1.1,
			}

			mc := engine.Model().Config()
			fmt.Printf("model: vocab=%d embd=%d heads=%d layers=%d ctx=%d precision=%s backend=%s procs=%d\n",
				mc.VocabSize, mc.EmbedDim, mc.NumHeads, mc.NumLayers, mc.MaxSeqLen, mc.Precision,
				backendName, runtime.GOMAXPROCS(0))

			for i := int64(0); i < warmupRuns; i++ {
				if _, err := engine.Generate(ctx, &req, nil); err != nil {
					return cli.Exit(fmt.Sprintf("error: warmup run: %v", err), 1)
				}
			}

			var (
				totalTokens int
				totalTime   time.Duration
			)
			for i := int64(0); i < benchRuns; i++ {
				resp, err := engine.Generate(ctx, &req, nil)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: bench run %d: %v", i+1, err), 1)
				}
				fmt.Printf("run %d: %.2f TPS (%d tokens in %s)\n",
					i+1, resp.Stats.TPS, resp.Stats.TokensGenerated, resp.Stats.Duration)
				totalTokens += resp.Stats.TokensGenerated
				totalTime += resp.Stats.Duration
			}

			if totalTime > 0 {
				fmt.Printf("mean: %.2f TPS (%d tokens in %s)\n",
					float64(totalTokens)/totalTime.Seconds(), totalTokens, totalTime)
			}
			return nil
		},
	}
}
