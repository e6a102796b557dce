package main

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/trina/internal/adapters/llm"
	"github.com/PabloGalante/trina/internal/adapters/lock"
	memstore "github.com/PabloGalante/trina/internal/adapters/storage/memory"
	"github.com/PabloGalante/trina/internal/adapters/storage/sqlstore"
	"github.com/PabloGalante/trina/internal/config"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		st, err := openStore(ctx, &config.Config{StorageBackend: config.StorageMemory})
		require.NoError(t, err)
		defer st.Close()

		assert.IsType(t, &memstore.Store{}, st)
		assert.NoError(t, ensureSchema(ctx, st))
	})

	t.Run("sqlite", func(t *testing.T) {
		st, err := openStore(ctx, &config.Config{StorageBackend: config.StorageSQLite, SQLitePath: ":memory:"})
		require.NoError(t, err)
		defer st.Close()

		assert.IsType(t, &sqlstore.Store{}, st)
		require.NoError(t, ensureSchema(ctx, st))
		assert.NoError(t, st.Ping(ctx))
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := openStore(ctx, &config.Config{StorageBackend: "etcd"})
		assert.Error(t, err)
	})
}

func TestNewCompletionClient(t *testing.T) {
	ctx := context.Background()

	c, err := newCompletionClient(ctx, &config.Config{LLMProvider: config.LLMMock})
	require.NoError(t, err)
	assert.IsType(t, &llm.MockLLM{}, c)

	c, err = newCompletionClient(ctx, &config.Config{LLMProvider: config.LLMOpenAI, OpenAIAPIKey: "sk-test"})
	require.NoError(t, err)
	assert.IsType(t, &llm.OpenAIClient{}, c)

	_, err = newCompletionClient(ctx, &config.Config{LLMProvider: "nope"})
	assert.Error(t, err)
}

func TestNewLocker(t *testing.T) {
	ctx := context.Background()

	l, r, err := newLocker(ctx, &config.Config{})
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.IsType(t, &lock.Local{}, l)

	mr := miniredis.RunT(t)
	l, r, err = newLocker(ctx, &config.Config{
		RedisURL:          "redis://" + mr.Addr(),
		GenerationTimeout: time.Second,
	})
	require.NoError(t, err)
	require.NotNil(t, r)
	defer r.Close()
	assert.Same(t, r, l)
	assert.NoError(t, r.Ping(ctx))
}
