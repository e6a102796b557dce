package main

import (
	"context"
	"fmt"
	"time"

	"github.com/PabloGalante/trina/internal/adapters/llm"
	"github.com/PabloGalante/trina/internal/adapters/lock"
	firestorestore "github.com/PabloGalante/trina/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/trina/internal/adapters/storage/memory"
	pgstore "github.com/PabloGalante/trina/internal/adapters/storage/postgres"
	"github.com/PabloGalante/trina/internal/adapters/storage/sqlstore"
	"github.com/PabloGalante/trina/internal/config"
	"github.com/PabloGalante/trina/internal/domain"
	"github.com/PabloGalante/trina/internal/observability"
)

// store is what every storage backend provides.
type store interface {
	domain.ConversationStore
	domain.TurnStore
	domain.ActivityStore
	Ping(ctx context.Context) error
	Close() error
}

type schemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

func openStore(ctx context.Context, cfg *config.Config) (store, error) {
	log := observability.Logger()

	switch cfg.StorageBackend {
	case config.StorageSQLite:
		log.Info().Str("path", cfg.SQLitePath).Msg("using sqlite storage")
		return sqlstore.OpenSQLite(ctx, cfg.SQLitePath)
	case config.StorageMySQL:
		log.Info().Msg("using mysql storage")
		return sqlstore.OpenMySQL(ctx, cfg.MySQLDSN)
	case config.StoragePostgres:
		log.Info().Msg("using postgres storage")
		return pgstore.NewStore(ctx, cfg.DatabaseURL)
	case config.StorageFirestore:
		log.Info().Str("project", cfg.GCPProjectID).Msg("using firestore storage")
		return firestorestore.NewStore(ctx, cfg.GCPProjectID)
	case config.StorageMemory:
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		return memstore.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// ensureSchema is a no-op for schemaless backends.
func ensureSchema(ctx context.Context, s store) error {
	if e, ok := s.(schemaEnsurer); ok {
		return e.EnsureSchema(ctx)
	}
	return nil
}

func newCompletionClient(ctx context.Context, cfg *config.Config) (domain.CompletionClient, error) {
	log := observability.Logger()

	switch cfg.LLMProvider {
	case config.LLMVertex:
		log.Info().Str("model", cfg.ModelName).Msg("using vertex llm client")
		return llm.NewVertexClient(ctx, llm.VertexConfig{
			Project:   cfg.GCPProjectID,
			Location:  cfg.GCPLocation,
			ModelName: cfg.ModelName,
		})
	case config.LLMOpenAI:
		log.Info().Str("model", cfg.OpenAIModel).Msg("using openai llm client")
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
	case config.LLMMock:
		log.Info().Msg("using mock llm client")
		return llm.NewMockLLM(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

// newLocker returns a Redis lock when TRINA_REDIS_URL is set, otherwise an
// in-process one. The Redis lock is also returned as a health pinger.
func newLocker(ctx context.Context, cfg *config.Config) (domain.Locker, *lock.Redis, error) {
	if cfg.RedisURL == "" {
		return lock.NewLocal(), nil, nil
	}

	// Long enough to cover one full send including generation.
	ttl := cfg.GenerationTimeout + 30*time.Second
	r, err := lock.NewRedisFromURL(ctx, cfg.RedisURL, ttl)
	if err != nil {
		return nil, nil, err
	}
	observability.Logger().Info().Msg("using redis conversation lock")
	return r, r, nil
}
