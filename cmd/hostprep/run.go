package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fgeck/hostprep/internal/config"
	"github.com/fgeck/hostprep/internal/models"
	"github.com/fgeck/hostprep/internal/services/progress"
	"github.com/fgeck/hostprep/internal/services/provision"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// dotEnvFile is loaded from the working directory when present.
const dotEnvFile = ".env"

type action func(svc provision.Service, ctx context.Context, cfg models.Config) (*models.ProvisionResult, error)

// loadConfig merges the config file, environment and flags. overrides are
// applied last and win over every other source.
func loadConfig(cmd *cobra.Command, overrides map[string]any) (*models.Config, error) {
	if err := config.LoadDotEnv(dotEnvFile); err != nil {
		log.Warn().Err(err).Msg("ignoring .env file")
	}

	parser := config.NewParser()
	if err := parser.BindFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	for key, value := range overrides {
		parser.Set(key, value)
	}

	cfg, err := parser.Load(configFile)
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to load config")
		return nil, err
	}

	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return nil, err
	}

	if missing := config.MissingTarget(cfg.Target); len(missing) > 0 && len(missing) < 3 {
		log.Warn().Strs("missing", missing).Msg("incomplete remote connection parameters, running locally")
	}

	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Warn().Str("signal", sig.String()).Msg("received signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func newPrinter() *progress.Printer {
	return progress.New(os.Stdout, os.Stderr)
}

func runAction(cmd *cobra.Command, overrides map[string]any, run action) error {
	cfg, err := loadConfig(cmd, overrides)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc := provision.New(log.Logger, newPrinter())
	result, err := run(svc, ctx, *cfg)
	if err != nil {
		return err
	}

	log.Info().
		Str("action", result.Action).
		Str("target", result.Target).
		Dur("duration", result.Duration).
		Msg("completed successfully")
	return nil
}
