package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wisplm/wisp/internal/assistant"
	"github.com/wisplm/wisp/internal/memory"
	"github.com/wisplm/wisp/internal/profile"
)

func chatCmd() *cli.Command {
	var (
		maxTokens     int64
		temp          float64
		topK          int64
		topP          float64
		repeatPenalty float64
		seed          int64
	)

	flags := append([]cli.Flag{}, commonModelFlags()...)
	flags = append(flags, loggingFlags()...)
	flags = append(flags,
		&cli.Int64Flag{
			Name:        "max-tokens",
			Aliases:     []string{"n"},
			Usage:       "tokens to generate per reply",
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
	)

	return &cli.Command{
		Name:  "chat",
		Usage: "Chat with the assistant (persistent memory and profile)",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := LoadConfig()
			applyModelConfig(c, cfg)
			applySamplingConfig(c, cfg, &temp, &topK, &topP, &repeatPenalty, &maxTokens, &seed)

			log := newLogger()
			dir, err := resolveDataDir()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			tok, vocabPath := loadTokenizer(dir, int(vocabSize))
			engine, err := buildEngine(log, tok)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: build engine: %v", err), 1)
			}

			mem, err := memory.Open(filepath.Join(dir, "memory.json"), memory.WithLogger(log))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open memory: %v", err), 1)
			}
			user, err := profile.Open(filepath.Join(dir, "profile.json"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open profile: %v", err), 1)
			}

			asst := assistant.New(engine, mem, user, assistant.Options{
				MaxTokens:         int(maxTokens),
				Seed:              seed,
				Temperature:       temp,
				TopK:              int(topK),
				TopP:              topP,
				RepetitionPenalty: repeatPenalty,
			}, log)

			fmt.Println(asst.Greeting())
			fmt.Fprintln(os.Stderr, "Commands: /exit, /memory <query>, /stats")

			defer func() {
				if err := tok.Save(vocabPath); err != nil {
					log.Warn("vocab save failed", "err", err)
				}
			}()

			for {
				line, err := readInteractiveLine("you> ")
				if err != nil {
					if err == io.EOF {
						return nil
					}
					return cli.Exit(fmt.Sprintf("error: read input: %v", err), 1)
				}
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if handled, quit := handleChatCommand(asst, line); handled {
					if quit {
						return nil
					}
					continue
				}

				reply, err := asst.Chat(ctx, line)
				if err != nil {
					fmt.Fprintln(os.Stderr, "error:", err)
					continue
				}
				fmt.Println("wisp>", reply)
			}
		},
	}
}

// handleChatCommand processes slash commands. It reports whether the line was
// a command and whether the REPL should exit.
func handleChatCommand(asst *assistant.Assistant, line string) (handled, quit bool) {
	if !strings.HasPrefix(line, "/") {
		return false, false
	}
	cmd, rest, _ := strings.Cut(line, " ")
	switch cmd {
	case "/exit", "/quit":
		return true, true
	case "/memory":
		query := strings.TrimSpace(rest)
		if query == "" {
			fmt.Println("usage: /memory <query>")
			return true, false
		}
		hits := asst.SearchMemory(query, 5)
		if len(hits) == 0 {
			fmt.Println("no memories found")
			return true, false
		}
		for _, h := range hits {
			fmt.Printf("  [%s] %s\n", h.Category, h.Content)
		}
		return true, false
	case "/stats":
		st := asst.MemoryStats()
		fmt.Printf("memories: %d items, %d accesses\n", st.TotalItems, st.TotalAccesses)
		for cat, n := range st.Categories {
			fmt.Printf("  %s: %d\n", cat, n)
		}
		return true, false
	default:
		fmt.Println("unknown command:", cmd)
		return true, false
	}
}
