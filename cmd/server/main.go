package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/npezzotti/gurubu/internal/api"
	"github.com/npezzotti/gurubu/internal/config"
	"github.com/npezzotti/gurubu/internal/grooming"
	"github.com/npezzotti/gurubu/internal/server"
	"github.com/npezzotti/gurubu/internal/stats"
	"github.com/npezzotti/gurubu/internal/users"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var errorLabel = color.New(color.FgRed)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		errorLabel.Fprintf(os.Stderr, "Error: config: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(cfg).Execute(); err != nil {
		errorLabel.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the gurubu command. Flags override values read from the
// environment.
func newRootCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gurubu",
		Short:         "Gurubu - real-time planning poker server",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.ServerAddr, "addr", cfg.ServerAddr, "server address")
	flags.StringVar(&cfg.SigningSecret, "signing-key", cfg.SigningSecret, "base64 encoded signing key")
	flags.StringSliceVar(&cfg.AllowedOrigins, "allowed-origins", cfg.AllowedOrigins, "comma-separated list of allowed origins for CORS")
	flags.DurationVar(&cfg.RoomTTL, "room-ttl", cfg.RoomTTL, "lifetime of a room")
	flags.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "interval between expired room sweeps")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace, debug, info, warn, error)")
	flags.BoolVar(&cfg.Pretty, "pretty", cfg.Pretty, "human readable console logs")

	return cmd
}

func newLogger(cfg *config.Config) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse log level: %w", err)
	}

	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}

	return logger.Level(level).With().Timestamp().Str("service", "gurubu").Logger(), nil
}

func run(cfg *config.Config) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	userStore := users.NewStore(logger, cfg.SigningKey)
	manager := grooming.NewManager(logger, userStore, statsUpdater, grooming.WithRoomTTL(cfg.RoomTTL))
	groomingServer := server.NewGroomingServer(logger, manager, statsUpdater, cfg.SweepInterval)

	srv := api.NewGroomingApp(mux, logger, groomingServer, manager, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go groomingServer.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Info().Str("signal", sig.String()).Msg("received signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server")
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}

	logger.Info().Msg("shutting down grooming server...")
	if err := groomingServer.Shutdown(shutDownCtx); err != nil {
		return fmt.Errorf("grooming server shutdown: %w", err)
	}

	logger.Info().Msg("shutdown complete")
	return nil
}
