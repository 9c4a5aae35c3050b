// Package seed generates synthetic devices and temperature history for local
// environments and property tests. Nominal readings are classified by
// domain.Classify; injected excursions are always recorded as breaches.
package seed

import (
	"math"
	"math/rand"
	"time"

	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/service"
)

const (
	// DefaultHours is seven days of hourly readings.
	DefaultHours = 7 * 24

	injectionRate = 0.05
	ackRate       = 0.3
)

// Band is a nominal temperature range in °C.
type Band struct {
	Min, Max float64
}

var (
	bands = map[domain.Category]Band{
		domain.CategoryTransport: {Min: 2, Max: 10},
		domain.CategoryFreezer:   {Min: -20, Max: -15},
		domain.CategoryFridge:    {Min: 2, Max: 6},
	}
	injectedBand = Band{Min: 8, Max: 13}
)

// NominalBand returns the simulated range for a category.
func NominalBand(c domain.Category) Band {
	if b, ok := bands[c]; ok {
		return b
	}
	return bands[domain.CategoryFridge]
}

// SampleDevices are the devices a fresh environment starts with. Categories
// are left empty so registration infers them from the names.
func SampleDevices() []service.NewDevice {
	return []service.NewDevice{
		{Name: "Vaccine Fridge A", Location: "Hospital Main Building - Floor 2"},
		{Name: "Vaccine Fridge B", Location: "Hospital Main Building - Floor 3"},
		{Name: "Transport Cooler 1", Location: "Mobile Unit - Route A"},
		{Name: "Storage Freezer X", Location: "Warehouse - Cold Storage"},
		{Name: "Backup Fridge C", Location: "Emergency Storage - Basement"},
	}
}

type Generator struct {
	rng   *rand.Rand
	newID func() string
}

func NewGenerator(rng *rand.Rand, newID func() string) *Generator {
	return &Generator{rng: rng, newID: newID}
}

// Temperature draws a reading for the category: usually from its nominal band,
// with a 5% chance of an injected excursion into 8–13 °C. injected reports
// which of the two happened.
func (g *Generator) Temperature(c domain.Category) (t float64, injected bool) {
	b := NominalBand(c)
	t = b.Min + g.rng.Float64()*(b.Max-b.Min)
	if g.rng.Float64() < injectionRate {
		t = injectedBand.Min + g.rng.Float64()*(injectedBand.Max-injectedBand.Min)
		injected = true
	}
	return round1(t), injected
}

// Reading draws a raw reading for the device at ts. Live readings are
// classified on ingest, so the injection flag is not carried.
func (g *Generator) Reading(d domain.Device, ts time.Time) domain.Reading {
	t, _ := g.Temperature(d.Category)
	return domain.Reading{DeviceID: d.ID, Temperature: t, Timestamp: ts}
}

// History produces one log per hour going back from now. Injected excursions
// are breaches for every category, including freezers and values that round
// to the threshold. About 30% of breaches come pre-acknowledged.
func (g *Generator) History(d domain.Device, now time.Time, hours int) []domain.TemperatureLog {
	logs := make([]domain.TemperatureLog, 0, hours)
	for i := 0; i < hours; i++ {
		t, injected := g.Temperature(d.Category)
		r := domain.Reading{DeviceID: d.ID, Temperature: t, Timestamp: now.Add(-time.Duration(i) * time.Hour)}
		l, err := domain.NewTemperatureLog(g.newID(), d, r)
		if err != nil {
			// Generated readings are always valid for a device with an id.
			continue
		}
		if injected {
			l.Breach = true
		}
		if l.Breach && g.rng.Float64() < ackRate {
			l.Acknowledged = true
		}
		logs = append(logs, l)
	}
	return logs
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
