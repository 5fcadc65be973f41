package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/wisplm/wisp/internal/api"
	"github.com/wisplm/wisp/internal/assistant"
	"github.com/wisplm/wisp/internal/memory"
	"github.com/wisplm/wisp/internal/profile"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		noChat      bool
	)

	flags := append([]cli.Flag{}, commonModelFlags()...)
	flags = append(flags, loggingFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "listen address",
			Value:       "127.0.0.1:8080",
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "read-timeout",
			Usage:       "read timeout",
			Value:       30 * time.Second,
			Destination: &readTimeout,
		},
		&cli.BoolFlag{
			Name:        "no-chat",
			Usage:       "disable the chat and memory routes",
			Destination: &noChat,
		},
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the REST API",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := LoadConfig()
			applyModelConfig(c, cfg)
			applyServeConfig(c, cfg, &addr)

			log := newLogger()

			dir, err := resolveDataDir()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			tok, _ := loadTokenizer(dir, int(vocabSize))
			engine, err := buildEngine(log, tok)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: build engine: %v", err), 1)
			}

			var asst *assistant.Assistant
			if !noChat {
				mem, err := memory.Open(filepath.Join(dir, "memory.json"), memory.WithLogger(log))
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: open memory: %v", err), 1)
				}
				user, err := profile.Open(filepath.Join(dir, "profile.json"))
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: open profile: %v", err), 1)
				}
				asst = assistant.New(engine, mem, user, assistant.DefaultOptions(), log)
			}

			server := api.NewServer(engine, asst, log)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
