package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/repository"
)

const (
	DefaultBatchSize   = 100
	DefaultMaxAttempts = 1
)

type Services struct {
	Devices         *DeviceService
	Ingestion       *IngestionService
	Acknowledgments *AcknowledgmentService
	Dashboard       *DashboardService
}

type Options struct {
	// BatchSize bounds the number of logs written per chunk.
	BatchSize int
	// MaxAttempts is how many times a failed chunk is tried in total.
	MaxAttempts int
	// Exporter archives dashboard snapshots; nil disables exports.
	Exporter Exporter
	Now      func() time.Time
	NewID    func() string
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

func New(store repository.Store, opts Options) *Services {
	opts = opts.withDefaults()

	return &Services{
		Devices: &DeviceService{registry: store, newID: opts.NewID},
		Ingestion: &IngestionService{
			devices:     store,
			logs:        store,
			batchSize:   opts.BatchSize,
			maxAttempts: opts.MaxAttempts,
			now:         opts.Now,
			newID:       opts.NewID,
		},
		Acknowledgments: &AcknowledgmentService{logs: store},
		Dashboard:       &DashboardService{logs: store, exporter: opts.Exporter, now: opts.Now},
	}
}
