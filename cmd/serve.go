package main

import (
	"context"

	"github.com/desertthunder/mtrack/internal/server"
	"github.com/desertthunder/mtrack/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}

	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	srv := server.New(cfg, server.Deps{
		Library:        lib,
		Catalog:        r.catalog,
		Spotify:        r.spotify,
		Tokens:         r.tokens,
		ReleaseWorkers: r.config.Streaming.ReleaseWorkers,
	}, shared.WithLogger(r.logger, "component", "server"))

	return srv.Run(ctx)
}
