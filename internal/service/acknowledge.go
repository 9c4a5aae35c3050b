package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/repository"
)

type AcknowledgmentService struct {
	logs repository.LogStore
}

// Acknowledge marks a breach as handled and returns the updated log.
// Acknowledging twice returns the log unchanged; non-breach logs are
// rejected with domain.ErrNotBreach.
func (s *AcknowledgmentService) Acknowledge(ctx context.Context, logID string) (domain.TemperatureLog, error) {
	if strings.TrimSpace(logID) == "" {
		return domain.TemperatureLog{}, &domain.ValidationError{Field: "log_id", Reason: "is required"}
	}

	l, err := s.logs.GetLog(ctx, logID)
	if err != nil {
		return domain.TemperatureLog{}, fmt.Errorf("acknowledge: %w", err)
	}

	changed, err := l.Acknowledge()
	if err != nil {
		return domain.TemperatureLog{}, fmt.Errorf("acknowledge %s: %w", logID, err)
	}
	if !changed {
		return l, nil
	}

	if err := s.logs.SetAcknowledged(ctx, logID); err != nil {
		return domain.TemperatureLog{}, fmt.Errorf("acknowledge: %w", err)
	}

	log.Info().Str("log_id", logID).Str("device_id", l.DeviceID).Msg("breach acknowledged")
	return l, nil
}
