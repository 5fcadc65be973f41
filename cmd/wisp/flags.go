package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/wisplm/wisp/internal/backend"
	"github.com/wisplm/wisp/internal/generate"
	"github.com/wisplm/wisp/internal/logger"
	"github.com/wisplm/wisp/internal/model"
	"github.com/wisplm/wisp/internal/tokenizer"
)

var (
	vocabSize   int64
	embedDim    int64
	numHeads    int64
	hiddenDim   int64
	numLayers   int64
	maxContext  int64
	precision   string
	weightSeed  int64
	backendName string
	dataDir     string
	logLevel    string
	logFormat   string
	debug       bool
)

func commonModelFlags() []cli.Flag {
	def := model.DefaultConfig()
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "vocab-size",
			Usage:       "vocabulary size",
			Value:       int64(def.VocabSize),
			Destination: &vocabSize,
		},
		&cli.Int64Flag{
			Name:        "embed-dim",
			Aliases:     []string{"d"},
			Usage:       "embedding dimension",
			Value:       int64(def.EmbedDim),
			Destination: &embedDim,
		},
		&cli.Int64Flag{
			Name:        "heads",
			Usage:       "number of attention heads",
			Value:       int64(def.NumHeads),
			Destination: &numHeads,
		},
		&cli.Int64Flag{
			Name:        "hidden-dim",
			Usage:       "feed-forward hidden dimension",
			Value:       int64(def.HiddenDim),
			Destination: &hiddenDim,
		},
		&cli.Int64Flag{
			Name:        "layers",
			Aliases:     []string{"l"},
			Usage:       "number of transformer layers",
			Value:       int64(def.NumLayers),
			Destination: &numLayers,
		},
		&cli.Int64Flag{
			Name:        "max-context",
			Aliases:     []string{"max-ctx", "ctx", "c"},
			Usage:       "max context length",
			Value:       int64(def.MaxSeqLen),
			Destination: &maxContext,
		},
		&cli.StringFlag{
			Name:        "precision",
			Usage:       "weight storage precision (f32, f16)",
			Value:       string(def.Precision),
			Destination: &precision,
		},
		&cli.Int64Flag{
			Name:        "weight-seed",
			Usage:       "RNG seed for weight initialization",
			Value:       42,
			Destination: &weightSeed,
		},
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "execution backend (auto, serial, parallel)",
			Value:       "auto",
			Destination: &backendName,
		},
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "directory for vocabulary, memory and profile files",
			Destination: &dataDir,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func newLogger() logger.Logger {
	level := logger.ParseLevel(logLevel)
	if debug {
		level = logger.ParseLevel("debug")
	}
	switch logFormat {
	case "json":
		return logger.JSON(os.Stderr, level)
	case "pretty":
		return logger.Pretty(os.Stderr, level)
	default:
		return logger.Default()
	}
}

func buildModelConfig() model.Config {
	return model.Config{
		VocabSize: int(vocabSize),
		EmbedDim:  int(embedDim),
		NumHeads:  int(numHeads),
		HiddenDim: int(hiddenDim),
		NumLayers: int(numLayers),
		MaxSeqLen: int(maxContext),
		Precision: model.Precision(precision),
	}
}

// resolveDataDir returns the data directory, defaulting to ~/.wisp.
func resolveDataDir() (string, error) {
	if dataDir != "" {
		return dataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".wisp"), nil
}

// loadTokenizer restores a persisted vocabulary from dir when present,
// otherwise builds a fresh one.
func loadTokenizer(dir string, maxVocab int) (*tokenizer.Tokenizer, string) {
	path := filepath.Join(dir, "vocab.json")
	if tok, err := tokenizer.Load(path); err == nil {
		return tok, path
	}
	return tokenizer.New(maxVocab), path
}

// buildEngine assembles the model, backend and tokenizer from the shared
// flags into a text-level generation engine.
func buildEngine(log logger.Logger, tok *tokenizer.Tokenizer) (*generate.Engine, error) {
	cfg := buildModelConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ops, err := backend.New(backendName, log)
	if err != nil {
		return nil, err
	}

	weights, err := model.NewWeights(cfg, weightSeed)
	if err != nil {
		return nil, err
	}
	log.Debug("weights initialized",
		"layers", cfg.NumLayers,
		"precision", string(cfg.Precision),
		"footprint_mb", weights.FootprintMB())

	eng, err := model.NewEngine(cfg, weights, model.WithOps(ops))
	if err != nil {
		return nil, err
	}
	if tok == nil {
		tok = tokenizer.New(cfg.VocabSize)
	}
	return generate.NewEngine(eng, tok), nil
}
