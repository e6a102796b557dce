package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/PabloGalante/trina/internal/config"
	"github.com/PabloGalante/trina/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		observability.Logger().Error().Err(err).Msg("trina-api failed")
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()

	root := &cobra.Command{
		Use:           "trina-api",
		Short:         "Trina conversation API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	flags := root.PersistentFlags()
	flags.String("port", "", "HTTP port (TRINA_PORT)")
	flags.String("storage", "", "storage backend: memory, sqlite, mysql, postgres, firestore (TRINA_STORAGE_BACKEND)")
	flags.String("log-level", "", "log level (TRINA_LOG_LEVEL)")
	bindFlag(v, "port", root, "port")
	bindFlag(v, "storage_backend", root, "storage")
	bindFlag(v, "log_level", root, "log-level")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), v)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the database schema for the configured storage backend",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd.Context(), v)
			},
		},
	)

	return root
}

// bindFlag makes an explicitly set flag win over env and defaults.
func bindFlag(v *viper.Viper, key string, cmd *cobra.Command, name string) {
	_ = v.BindPFlag(key, cmd.PersistentFlags().Lookup(name))
}

func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg, err := config.LoadFrom(v)
	if err != nil {
		return nil, err
	}
	observability.Setup(cfg.LogLevel, cfg.IsDevelopment())
	return cfg, nil
}
