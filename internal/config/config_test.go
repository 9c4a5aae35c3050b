package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// Tests in this file share the global viper instance and must not run in parallel.

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	require.NoError(t, Load())
	require.Equal(t, ":8080", APIAddr())
	require.Equal(t, BackendPostgres, StoreBackend())
	require.Equal(t, "coldchain/readings", MQTTTopic())
	require.Equal(t, 100, IngestBatchSize())
	require.Equal(t, 1, IngestMaxAttempts())
	require.Equal(t, 168, SeedHours())
	require.Equal(t, 5*time.Second, SimulatorInterval())
	require.False(t, UseCloudServices())
}

func TestLoad_EnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("INGEST_BATCH_SIZE", "25")
	t.Setenv("USE_CLOUD_SERVICES", "true")
	t.Setenv("SIMULATOR_INTERVAL", "250ms")

	require.NoError(t, Load())
	require.Equal(t, BackendMemory, StoreBackend())
	require.Equal(t, 25, IngestBatchSize())
	require.True(t, UseCloudServices())
	require.Equal(t, 250*time.Millisecond, SimulatorInterval())
}

func TestLoad_RejectsInvalidSettings(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("STORE_BACKEND", "cassandra")
	require.ErrorContains(t, Load(), "STORE_BACKEND")

	viper.Reset()
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("INGEST_BATCH_SIZE", "0")
	require.ErrorContains(t, Load(), "INGEST_BATCH_SIZE")
}
