package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/PabloGalante/trina/internal/observability"
)

func runMigrate(ctx context.Context, v *viper.Viper) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := observability.Logger()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer st.Close()

	if _, ok := st.(schemaEnsurer); !ok {
		log.Info().Str("storage", cfg.StorageBackend).Msg("backend has no schema, nothing to migrate")
		return nil
	}

	if err := ensureSchema(ctx, st); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	log.Info().Str("storage", cfg.StorageBackend).Msg("schema is up to date")
	return nil
}
