package main

import (
	"context"
	"encoding/json"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/bootstrap"
	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/config"
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

	devices, err := store.ListDevices(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list devices failed")
	}
	if len(devices) == 0 {
		log.Fatal().Msg("no devices registered; run cmd/seed first")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(config.MQTTBroker()).
		SetClientID(config.MQTTClientID() + "-simulator")
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	gen := seed.NewGenerator(rand.New(rand.NewSource(time.Now().UnixNano())), uuid.NewString)
	topic := config.MQTTTopic()
	ticker := time.NewTicker(config.SimulatorInterval())
	defer ticker.Stop()

	for round := 0; round < config.SimulatorRounds(); round++ {
		now := time.Now().UTC()
		for _, d := range devices {
			payload, err := json.Marshal(gen.Reading(d, now))
			if err != nil {
				log.Error().Err(err).Msg("encode reading")
				continue
			}
			token := client.Publish(topic, 1, false, payload)
			token.Wait()
			if err := token.Error(); err != nil {
				log.Error().Err(err).Str("device_id", d.ID).Msg("publish failed")
			}
		}
		log.Debug().Int("round", round).Int("devices", len(devices)).Msg("readings published")

		select {
		case <-ctx.Done():
			log.Info().Msg("simulation interrupted")
			return
		case <-ticker.C:
		}
	}
	log.Info().Msg("simulation done")
}
