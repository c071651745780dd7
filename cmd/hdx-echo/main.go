/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hdxecho/internal/config"
	"hdxecho/internal/logging"
	"hdxecho/internal/output"
	"hdxecho/pkg/audioengine"
	"hdxecho/pkg/spec"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

const (
	version_major = 1
	version_minor = 0
	server_name   = spec.EngineName
)

func main() {
	os.Exit(run())
}

func run() int {
	cfgPath := pflag.StringP("config", "c", "", "path to hdx-echo.toml")
	backend := pflag.StringP("output", "o", "", "output backend, overrides the config file")
	pflag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FAIL] config: %v\n", err)
		return 1
	}
	if *backend != "" {
		cfg.Output.Backend = *backend
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "[FAIL] %v\n", err)
			return 1
		}
	}

	guard, err := logging.Init(logging.Options{File: cfg.Log.File, Level: cfg.Log.Level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FAIL] logging: %v\n", err)
		return 1
	}
	defer guard.Close()
	log := guard.Logger

	opener, err := output.ForBackend(cfg.Output.Backend)
	if err != nil {
		log.Error().Err(err).Msg("output backend")
		return 1
	}
	player := audioengine.NewPlayer(engineOptions(cfg, opener, log)...)
	defer player.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("socket", cfg.Server.Socket).
		Str("output", cfg.Output.Backend).
		Msgf("%s V.%d.%d listening", server_name, version_major, version_minor)

	srv := newServer(player, log)
	if err := srv.listen(ctx, cfg.Server.Socket); err != nil {
		log.Error().Err(err).Msg("ipc")
		return 1
	}
	return 0
}

func engineOptions(cfg *config.Config, opener output.Opener, log zerolog.Logger) []audioengine.Option {
	return []audioengine.Option{
		audioengine.WithLogger(log),
		audioengine.WithOutput(opener),
		audioengine.WithOutputBuffer(cfg.Output.Buffer()),
		audioengine.WithVolume(cfg.Engine.Volume),
		audioengine.WithBufferThreshold(cfg.Engine.MinBuffer),
		audioengine.WithSpectrumInterval(cfg.Engine.SpectrumInterval()),
		audioengine.WithBackoff(cfg.Engine.Backoff()),
	}
}
