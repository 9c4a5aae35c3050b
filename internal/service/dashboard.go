package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/repository"
)

var ErrExportDisabled = errors.New("snapshot export is not configured")

// Exporter archives a snapshot and returns where it was written.
type Exporter interface {
	Export(ctx context.Context, snap domain.Snapshot) (string, error)
}

type DashboardService struct {
	logs     repository.LogStore
	exporter Exporter
	now      func() time.Time
}

// Snapshot returns every log, newest first, with its device inline.
func (s *DashboardService) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	rows, err := s.logs.QueryLogs(ctx)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("dashboard snapshot: %w", err)
	}

	logs := make([]domain.TemperatureLog, len(rows))
	for i, r := range rows {
		logs[i] = r.TemperatureLog
	}

	return domain.Snapshot{
		GeneratedAt: s.now().UTC(),
		Entries:     rows,
		Summary:     domain.Summarize(logs),
	}, nil
}

func (s *DashboardService) Export(ctx context.Context) (string, error) {
	if s.exporter == nil {
		return "", ErrExportDisabled
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	loc, err := s.exporter.Export(ctx, snap)
	if err != nil {
		return "", fmt.Errorf("export snapshot: %w", err)
	}

	log.Info().Str("location", loc).Int("entries", len(snap.Entries)).Msg("snapshot exported")
	return loc, nil
}
