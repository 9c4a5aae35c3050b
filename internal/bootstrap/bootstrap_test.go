package bootstrap

import (
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/repository"
)

// Shares the global viper instance; not parallel.
func TestOpenStore_Memory(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("INGEST_BATCH_SIZE", "10")

	require.NoError(t, Init())

	store, closeFn, err := OpenStore(context.Background())
	require.NoError(t, err)
	require.IsType(t, &repository.MemoryStore{}, store)
	require.NoError(t, closeFn())

	svcs, err := Services(context.Background(), store)
	require.NoError(t, err)
	require.NotNil(t, svcs.Dashboard)

	_, err = svcs.Dashboard.Export(context.Background())
	require.Error(t, err, "export is disabled without cloud services")
}
