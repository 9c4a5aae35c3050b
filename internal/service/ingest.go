package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/repository"
)

type IngestionService struct {
	devices     repository.DeviceRegistry
	logs        repository.LogStore
	batchSize   int
	maxAttempts int
	now         func() time.Time
	newID       func() string
}

// Ingest classifies a single reading and appends it to the log store.
func (s *IngestionService) Ingest(ctx context.Context, r domain.Reading) (domain.TemperatureLog, error) {
	if err := r.Validate(); err != nil {
		return domain.TemperatureLog{}, err
	}

	device, err := s.devices.GetDevice(ctx, r.DeviceID)
	if err != nil {
		return domain.TemperatureLog{}, fmt.Errorf("lookup device: %w", err)
	}

	l, err := domain.NewTemperatureLog(s.newID(), device, r)
	if err != nil {
		return domain.TemperatureLog{}, err
	}
	if err := s.logs.AppendLog(ctx, &l); err != nil {
		return domain.TemperatureLog{}, fmt.Errorf("append log: %w", err)
	}

	log.Debug().
		Str("log_id", l.ID).
		Str("device_id", l.DeviceID).
		Float64("temperature", l.Temperature).
		Bool("breach", l.Breach).
		Msg("reading ingested")
	return l, nil
}

// ReadingPayload is the wire form of a reading shared by the HTTP and MQTT
// ingest paths. Temperature is a pointer so a missing field is rejected rather
// than stored as 0 °C.
type ReadingPayload struct {
	DeviceID    string     `json:"device_id"`
	Temperature *float64   `json:"temperature"`
	Timestamp   *time.Time `json:"timestamp"`
}

// Reading converts p into a domain reading. Payloads without a timestamp are
// stamped with the receive time.
func (s *IngestionService) Reading(p ReadingPayload) (domain.Reading, error) {
	if p.Temperature == nil {
		return domain.Reading{}, &domain.ValidationError{Field: "temperature", Reason: "is required"}
	}
	r := domain.Reading{DeviceID: p.DeviceID, Temperature: *p.Temperature, Timestamp: s.now()}
	if p.Timestamp != nil {
		r.Timestamp = *p.Timestamp
	}
	return r, nil
}

func (s *IngestionService) IngestPayload(ctx context.Context, p ReadingPayload) (domain.TemperatureLog, error) {
	r, err := s.Reading(p)
	if err != nil {
		return domain.TemperatureLog{}, err
	}
	return s.Ingest(ctx, r)
}

// IngestPayloads converts every payload before handing the batch to IngestBatch.
func (s *IngestionService) IngestPayloads(ctx context.Context, payloads []ReadingPayload) (BatchReport, error) {
	readings := make([]domain.Reading, len(payloads))
	for i, p := range payloads {
		r, err := s.Reading(p)
		if err != nil {
			return BatchReport{}, fmt.Errorf("reading %d: %w", i, err)
		}
		readings[i] = r
	}
	return s.IngestBatch(ctx, readings)
}

// FromMQTT decodes a JSON reading published on topic and ingests it.
func (s *IngestionService) FromMQTT(ctx context.Context, topic string, payload []byte) (domain.TemperatureLog, error) {
	var p ReadingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return domain.TemperatureLog{}, &domain.ValidationError{Field: "payload", Reason: fmt.Sprintf("decode %s: %v", topic, err)}
	}
	return s.IngestPayload(ctx, p)
}

// ChunkResult is the outcome of writing one chunk of a batch.
type ChunkResult struct {
	Index    int   `json:"index"`
	Start    int   `json:"start"`
	End      int   `json:"end"`
	Attempts int   `json:"attempts"`
	Err      error `json:"-"`
}

func (c ChunkResult) Succeeded() bool { return c.Err == nil }

// BatchReport lists every chunk of a batch load, successful or not.
type BatchReport struct {
	Total  int           `json:"total"`
	Stored int           `json:"stored"`
	Chunks []ChunkResult `json:"chunks"`
}

func (r BatchReport) Failed() []ChunkResult {
	var out []ChunkResult
	for _, c := range r.Chunks {
		if !c.Succeeded() {
			out = append(out, c)
		}
	}
	return out
}

// Err joins the errors of failed chunks, or returns nil when all were stored.
func (r BatchReport) Err() error {
	var errs []error
	for _, c := range r.Failed() {
		errs = append(errs, fmt.Errorf("chunk %d [%d:%d]: %w", c.Index, c.Start, c.End, c.Err))
	}
	return errors.Join(errs...)
}

// IngestBatch classifies readings and stores them in bounded chunks. Every
// reading is validated and resolved to a device before anything is written.
func (s *IngestionService) IngestBatch(ctx context.Context, readings []domain.Reading) (BatchReport, error) {
	devices := make(map[string]domain.Device)
	logs := make([]domain.TemperatureLog, 0, len(readings))

	for i, r := range readings {
		if err := r.Validate(); err != nil {
			return BatchReport{}, fmt.Errorf("reading %d: %w", i, err)
		}
		device, ok := devices[r.DeviceID]
		if !ok {
			d, err := s.devices.GetDevice(ctx, r.DeviceID)
			if err != nil {
				return BatchReport{}, fmt.Errorf("reading %d: lookup device: %w", i, err)
			}
			devices[r.DeviceID] = d
			device = d
		}
		l, err := domain.NewTemperatureLog(s.newID(), device, r)
		if err != nil {
			return BatchReport{}, fmt.Errorf("reading %d: %w", i, err)
		}
		logs = append(logs, l)
	}

	return s.loadChunks(ctx, logs), nil
}

// LoadBatch stores already classified logs, e.g. historical imports or seed
// data, in bounded chunks.
func (s *IngestionService) LoadBatch(ctx context.Context, logs []domain.TemperatureLog) (BatchReport, error) {
	known := make(map[string]struct{})
	for i, l := range logs {
		if err := l.Validate(); err != nil {
			return BatchReport{}, fmt.Errorf("log %d: %w", i, err)
		}
		if l.Acknowledged && !l.Breach {
			return BatchReport{}, fmt.Errorf("log %d: %w", i, domain.ErrNotBreach)
		}
		if _, ok := known[l.DeviceID]; ok {
			continue
		}
		if _, err := s.devices.GetDevice(ctx, l.DeviceID); err != nil {
			return BatchReport{}, fmt.Errorf("log %d: lookup device: %w", i, err)
		}
		known[l.DeviceID] = struct{}{}
	}

	return s.loadChunks(ctx, logs), nil
}

// batchLimiter is implemented by stores with a hard per-chunk item limit.
type batchLimiter interface {
	MaxBatchSize() int
}

func (s *IngestionService) chunkSize() int {
	size := s.batchSize
	if bl, ok := s.logs.(batchLimiter); ok && bl.MaxBatchSize() < size {
		size = bl.MaxBatchSize()
	}
	return size
}

func (s *IngestionService) loadChunks(ctx context.Context, logs []domain.TemperatureLog) BatchReport {
	size := s.chunkSize()
	report := BatchReport{Total: len(logs)}

	for start, idx := 0, 0; start < len(logs); start, idx = start+size, idx+1 {
		end := min(start+size, len(logs))
		res := ChunkResult{Index: idx, Start: start, End: end}

		for res.Attempts < s.maxAttempts {
			if err := ctx.Err(); err != nil {
				res.Err = err
				break
			}
			res.Attempts++
			res.Err = s.logs.AppendLogs(ctx, logs[start:end])
			if res.Err == nil || !retryable(res.Err) {
				break
			}
		}

		if res.Err != nil {
			log.Error().Err(res.Err).Int("chunk", idx).Int("attempts", res.Attempts).Msg("chunk failed")
		} else {
			report.Stored += end - start
			log.Debug().Int("chunk", idx).Int("size", end-start).Msg("chunk stored")
		}
		report.Chunks = append(report.Chunks, res)
	}

	return report
}

// retryable reports whether repeating the same chunk could succeed.
func retryable(err error) bool {
	return errors.Is(err, domain.ErrStoreUnavailable) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
