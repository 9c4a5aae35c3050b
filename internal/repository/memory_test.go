package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/domain"
)

func seededMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()

	s := NewMemoryStore()
	for _, d := range []domain.Device{
		{ID: "d1", Name: "Vaccine Fridge A", Category: domain.CategoryFridge},
		{ID: "d2", Name: "Transport Cooler 1", Category: domain.CategoryTransport},
	} {
		require.NoError(t, s.CreateDevice(context.Background(), &d))
	}
	return s
}

func TestMemoryStore_Devices(t *testing.T) {
	t.Parallel()
	s := seededMemoryStore(t)
	ctx := context.Background()

	d, err := s.GetDevice(ctx, "d2")
	require.NoError(t, err)
	require.Equal(t, "Transport Cooler 1", d.Name)

	_, err = s.GetDevice(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	list, err := s.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	err = s.CreateDevice(ctx, &domain.Device{ID: "d1"})
	require.ErrorIs(t, err, domain.ErrConflict)
	require.NotErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestMemoryStore_AppendThenQuery(t *testing.T) {
	t.Parallel()
	s := seededMemoryStore(t)
	ctx := context.Background()

	base := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.AppendLog(ctx, &domain.TemperatureLog{ID: "l1", DeviceID: "d1", Temperature: 4, Timestamp: base}))
	require.NoError(t, s.AppendLog(ctx, &domain.TemperatureLog{ID: "l2", DeviceID: "d2", Temperature: 9, Timestamp: base.Add(time.Hour), Breach: true}))

	rows, err := s.QueryLogs(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "l2", rows[0].ID)
	require.Equal(t, "Transport Cooler 1", rows[0].Device.Name)
	require.Equal(t, "Vaccine Fridge A", rows[1].Device.Name)

	err = s.AppendLog(ctx, &domain.TemperatureLog{ID: "l3", DeviceID: "ghost", Timestamp: base})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_AppendLogs_IsAtomic(t *testing.T) {
	t.Parallel()
	s := seededMemoryStore(t)
	ctx := context.Background()

	ts := time.Now()
	err := s.AppendLogs(ctx, []domain.TemperatureLog{
		{ID: "l1", DeviceID: "d1", Timestamp: ts},
		{ID: "l2", DeviceID: "ghost", Timestamp: ts},
	})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.GetLog(ctx, "l1")
	require.ErrorIs(t, err, domain.ErrNotFound, "no row of a failed chunk may be stored")

	err = s.AppendLogs(ctx, []domain.TemperatureLog{
		{ID: "l1", DeviceID: "d1", Timestamp: ts},
		{ID: "l1", DeviceID: "d1", Timestamp: ts},
	})
	require.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, s.AppendLog(ctx, &domain.TemperatureLog{ID: "l1", DeviceID: "d1", Timestamp: ts}))
	err = s.AppendLog(ctx, &domain.TemperatureLog{ID: "l1", DeviceID: "d1", Timestamp: ts})
	require.ErrorIs(t, err, domain.ErrConflict)
	require.NotErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestMemoryStore_SetAcknowledged(t *testing.T) {
	t.Parallel()
	s := seededMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendLog(ctx, &domain.TemperatureLog{ID: "l1", DeviceID: "d1", Temperature: 9, Timestamp: time.Now(), Breach: true}))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.SetAcknowledged(ctx, "l1"))
		}()
	}
	wg.Wait()

	l, err := s.GetLog(ctx, "l1")
	require.NoError(t, err)
	require.True(t, l.Acknowledged)

	require.ErrorIs(t, s.SetAcknowledged(ctx, "nope"), domain.ErrNotFound)
}

// TestMemoryStore_ConcurrentAppends verifies no entry is lost under concurrent ingestion
// and that query order is strictly descending for distinct timestamps.
func TestMemoryStore_ConcurrentAppends(t *testing.T) {
	t.Parallel()
	s := seededMemoryStore(t)
	ctx := context.Background()

	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	const n = 200

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l := &domain.TemperatureLog{
				ID:        fmt.Sprintf("log-%03d", i),
				DeviceID:  "d1",
				Timestamp: base.Add(time.Duration(i) * time.Minute),
			}
			assert.NoError(t, s.AppendLog(ctx, l))
		}(i)
	}
	wg.Wait()

	rows, err := s.QueryLogs(ctx)
	require.NoError(t, err)
	require.Len(t, rows, n)
	for i := 1; i < len(rows); i++ {
		require.True(t, rows[i-1].Timestamp.After(rows[i].Timestamp))
	}
}
