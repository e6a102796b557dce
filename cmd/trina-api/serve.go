package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/PabloGalante/trina/internal/adapters/http"
	"github.com/PabloGalante/trina/internal/app/activity"
	"github.com/PabloGalante/trina/internal/app/conversation"
	"github.com/PabloGalante/trina/internal/app/generation"
	"github.com/PabloGalante/trina/internal/app/history"
	"github.com/PabloGalante/trina/internal/app/prompt"
	"github.com/PabloGalante/trina/internal/app/registry"
	"github.com/PabloGalante/trina/internal/observability"
)

const shutdownTimeout = 30 * time.Second

func runServe(ctx context.Context, v *viper.Viper) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := observability.Logger()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("closing storage")
		}
	}()

	if err := ensureSchema(ctx, st); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	client, err := newCompletionClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating llm client: %w", err)
	}

	health := []httpadapter.Pinger{st}

	locker, redisLock, err := newLocker(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating conversation lock: %w", err)
	}
	if redisLock != nil {
		health = append(health, redisLock)
		defer redisLock.Close()
	}

	turns := history.New(st)
	conversations := conversation.NewService(
		registry.New(st),
		turns,
		prompt.NewAssembler(turns, cfg.ContextWindow),
		generation.New(client),
		locker,
		conversation.Options{
			GenerationTimeout: cfg.GenerationTimeout,
			GenerationRetries: cfg.GenerationRetries,
		},
	)

	handler := httpadapter.NewServer(httpadapter.Options{
		Conversations: conversations,
		Activities:    activity.NewService(st),
		Health:        health,
		JWTSecret:     []byte(cfg.JWTSecret),
		CORSOrigins:   cfg.CORSOrigins,
		MaxBodyBytes:  cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// A send may block for the full generation timeout.
		WriteTimeout: cfg.GenerationTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().
			Str("port", cfg.Port).
			Str("storage", cfg.StorageBackend).
			Str("llm", cfg.LLMProvider).
			Msg("trina-api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
