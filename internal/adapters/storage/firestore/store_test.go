package firestore

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/trina/internal/adapters/storage/storetest"
)

// Runs against the Firestore emulator only (FIRESTORE_EMULATOR_HOST).
func TestFirestoreStore(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx := context.Background()
	s, err := NewStore(ctx, "trina-test")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Ping(ctx))
	storetest.Run(t, s)
}
