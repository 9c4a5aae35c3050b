package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/repository"
	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/service"
)

type apiEnv struct {
	app  *fiber.App
	svcs *service.Services
	ids  map[string]string
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	n := 0
	svcs := service.New(repository.NewMemoryStore(), service.Options{
		NewID: func() string { n++; return fmt.Sprintf("id-%d", n) },
		Now:   func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) },
	})
	app := fiber.New()
	Register(app, svcs)

	env := &apiEnv{app: app, svcs: svcs, ids: map[string]string{}}
	for _, name := range []string{"Vaccine Fridge A", "Storage Freezer X"} {
		d, err := svcs.Devices.Register(context.Background(), service.NewDevice{Name: name})
		require.NoError(t, err)
		env.ids[name] = d.ID
	}
	return env
}

func (e *apiEnv) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestHealth(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t)

	status, body := env.do(t, nethttp.MethodGet, "/health", "")
	require.Equal(t, nethttp.StatusOK, status)
	require.Equal(t, "ok", string(body))
}

func TestDevices(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t)

	status, body := env.do(t, nethttp.MethodGet, "/devices", "")
	require.Equal(t, nethttp.StatusOK, status)
	var devices []domain.Device
	require.NoError(t, json.Unmarshal(body, &devices))
	require.Len(t, devices, 2)

	status, body = env.do(t, nethttp.MethodGet, "/devices/"+env.ids["Storage Freezer X"], "")
	require.Equal(t, nethttp.StatusOK, status)
	require.Contains(t, string(body), `"category":"FREEZER"`)

	status, _ = env.do(t, nethttp.MethodGet, "/devices/unknown", "")
	require.Equal(t, nethttp.StatusNotFound, status)
}

func TestIngestAcknowledgeAndDashboard(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t)

	body := fmt.Sprintf(`{"device_id":%q,"temperature":9.2,"timestamp":"2026-10-19T10:00:00Z"}`, env.ids["Vaccine Fridge A"])
	status, resp := env.do(t, nethttp.MethodPost, "/readings", body)
	require.Equal(t, nethttp.StatusCreated, status)

	var breach domain.TemperatureLog
	require.NoError(t, json.Unmarshal(resp, &breach))
	require.True(t, breach.Breach)

	body = fmt.Sprintf(`{"device_id":%q,"temperature":30,"timestamp":"2026-10-19T11:00:00Z"}`, env.ids["Storage Freezer X"])
	status, resp = env.do(t, nethttp.MethodPost, "/readings", body)
	require.Equal(t, nethttp.StatusCreated, status)

	var freezer domain.TemperatureLog
	require.NoError(t, json.Unmarshal(resp, &freezer))
	require.False(t, freezer.Breach)

	for i := 0; i < 2; i++ {
		status, resp = env.do(t, nethttp.MethodPost, "/logs/"+breach.ID+"/acknowledge", "")
		require.Equal(t, nethttp.StatusOK, status)
		require.Contains(t, string(resp), `"acknowledged":true`)
	}

	status, _ = env.do(t, nethttp.MethodPost, "/logs/"+freezer.ID+"/acknowledge", "")
	require.Equal(t, nethttp.StatusUnprocessableEntity, status)

	status, _ = env.do(t, nethttp.MethodPost, "/logs/nope/acknowledge", "")
	require.Equal(t, nethttp.StatusNotFound, status)

	status, resp = env.do(t, nethttp.MethodGet, "/dashboard", "")
	require.Equal(t, nethttp.StatusOK, status)

	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(resp, &snap))
	require.Len(t, snap.Entries, 2)
	require.Equal(t, freezer.ID, snap.Entries[0].ID)
	require.Equal(t, "Storage Freezer X", snap.Entries[0].Device.Name)
	require.True(t, snap.Entries[1].Acknowledged)
	require.Equal(t, domain.Summary{Total: 2, Breaches: 1, Acknowledged: 1}, snap.Summary)
}

func TestReadings_Invalid(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t)

	status, _ := env.do(t, nethttp.MethodPost, "/readings", `{"device_id":`)
	require.Equal(t, nethttp.StatusBadRequest, status)

	status, resp := env.do(t, nethttp.MethodPost, "/readings", `{"temperature":3,"timestamp":"2026-10-19T10:00:00Z"}`)
	require.Equal(t, nethttp.StatusBadRequest, status)
	require.Contains(t, string(resp), "device_id")

	status, _ = env.do(t, nethttp.MethodPost, "/readings", `{"device_id":"ghost","temperature":3,"timestamp":"2026-10-19T10:00:00Z"}`)
	require.Equal(t, nethttp.StatusNotFound, status)

	// A missing temperature is not a 0 °C reading.
	body := fmt.Sprintf(`{"device_id":%q,"timestamp":"2026-10-19T10:00:00Z"}`, env.ids["Vaccine Fridge A"])
	status, resp = env.do(t, nethttp.MethodPost, "/readings", body)
	require.Equal(t, nethttp.StatusBadRequest, status)
	require.Contains(t, string(resp), "temperature")

	snap, err := env.svcs.Dashboard.Snapshot(context.Background())
	require.NoError(t, err)
	require.Empty(t, snap.Entries)
}

func TestReadingsBatch(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t)

	id := env.ids["Vaccine Fridge A"]
	body := fmt.Sprintf(`[
		{"device_id":%q,"temperature":4.1,"timestamp":"2026-10-19T08:00:00Z"},
		{"device_id":%q,"temperature":8.4,"timestamp":"2026-10-19T09:00:00Z"}
	]`, id, id)

	status, resp := env.do(t, nethttp.MethodPost, "/readings/batch", body)
	require.Equal(t, nethttp.StatusCreated, status)

	var report struct {
		Total  int `json:"total"`
		Stored int `json:"stored"`
	}
	require.NoError(t, json.Unmarshal(resp, &report))
	require.Equal(t, 2, report.Total)
	require.Equal(t, 2, report.Stored)

	body = fmt.Sprintf(`[
		{"device_id":%q,"temperature":4.1,"timestamp":"2026-10-19T10:00:00Z"},
		{"device_id":%q,"timestamp":"2026-10-19T11:00:00Z"}
	]`, id, id)
	status, resp = env.do(t, nethttp.MethodPost, "/readings/batch", body)
	require.Equal(t, nethttp.StatusBadRequest, status)
	require.Contains(t, string(resp), "reading 1")
	require.Contains(t, string(resp), "temperature")

	snap, err := env.svcs.Dashboard.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Entries, 2, "a rejected batch writes nothing")
}

func TestExport_Disabled(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t)

	status, resp := env.do(t, nethttp.MethodPost, "/dashboard/export", "")
	require.Equal(t, nethttp.StatusServiceUnavailable, status)
	require.Contains(t, string(resp), "not configured")
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want int
	}{
		{&domain.NotFoundError{Entity: "device", ID: "x"}, fiber.StatusNotFound},
		{domain.ErrNotBreach, fiber.StatusUnprocessableEntity},
		{&domain.ConflictError{Entity: "temperature log", ID: "l1"}, fiber.StatusConflict},
		{&domain.ValidationError{Field: "temperature", Reason: "is required"}, fiber.StatusBadRequest},
		{&domain.StoreError{Op: "insert log"}, fiber.StatusServiceUnavailable},
		{service.ErrExportDisabled, fiber.StatusServiceUnavailable},
		{context.Canceled, fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, statusFor(tc.err), "%v", tc.err)
	}
}

func TestBatchStatus(t *testing.T) {
	t.Parallel()

	ok := service.ChunkResult{}
	bad := service.ChunkResult{Err: domain.ErrStoreUnavailable}

	require.Equal(t, fiber.StatusCreated, batchStatus(service.BatchReport{Chunks: []service.ChunkResult{ok, ok}}))
	require.Equal(t, fiber.StatusMultiStatus, batchStatus(service.BatchReport{Chunks: []service.ChunkResult{ok, bad}}))
	require.Equal(t, fiber.StatusServiceUnavailable, batchStatus(service.BatchReport{Chunks: []service.ChunkResult{bad}}))

	body := batchBody(service.BatchReport{Total: 1, Chunks: []service.ChunkResult{bad}})
	chunks := body["chunks"].([]fiber.Map)
	require.Equal(t, "store unavailable", chunks[0]["error"])
}
