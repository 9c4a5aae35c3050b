package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/bootstrap"
	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/config"
	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/seed"
)

func main() {
	if err := bootstrap.Init(); err != nil {
		log.Fatal().Err(err).Msg("init failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := bootstrap.OpenStore(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("store open failed")
	}
	defer closeStore()

	svcs, err := bootstrap.Services(ctx, store)
	if err != nil {
		log.Fatal().Err(err).Msg("services init failed")
	}

	gen := seed.NewGenerator(rand.New(rand.NewSource(time.Now().UnixNano())), uuid.NewString)
	now := time.Now().UTC().Truncate(time.Hour)

	var logs []domain.TemperatureLog
	for _, nd := range seed.SampleDevices() {
		d, err := svcs.Devices.Register(ctx, nd)
		if err != nil {
			log.Fatal().Err(err).Str("name", nd.Name).Msg("create device failed")
		}
		logs = append(logs, gen.History(d, now, config.SeedHours())...)
	}

	report, err := svcs.Ingestion.LoadBatch(ctx, logs)
	if err != nil {
		log.Fatal().Err(err).Msg("seed rejected")
	}
	for _, ch := range report.Chunks {
		if ch.Succeeded() {
			log.Info().Msgf("inserted batch %d/%d", ch.Index+1, len(report.Chunks))
		}
	}

	s := domain.Summarize(logs)
	log.Info().
		Int("total_logs", s.Total).
		Int("stored", report.Stored).
		Int("breaches", s.Breaches).
		Int("acknowledged", s.Acknowledged).
		Int("unacknowledged", s.Unacknowledged).
		Msg("seeding statistics")

	if err := report.Err(); err != nil {
		log.Error().Err(err).Int("failed_chunks", len(report.Failed())).Msg("seeding incomplete")
		os.Exit(1)
	}
	log.Info().Msg("seeding completed")
}
