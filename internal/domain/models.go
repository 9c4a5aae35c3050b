package domain

import (
	"math"
	"time"
)

type Device struct {
	ID       string   `db:"id" json:"id"`
	Name     string   `db:"name" json:"name"`
	Location string   `db:"location" json:"location"`
	OwnerID  string   `db:"owner_id" json:"owner_id"`
	Category Category `db:"category" json:"category"`
}

// Reading is a raw temperature sample before classification.
type Reading struct {
	DeviceID    string    `json:"device_id"`
	Temperature float64   `json:"temperature"`
	Timestamp   time.Time `json:"timestamp"`
}

func (r Reading) Validate() error {
	if r.DeviceID == "" {
		return &ValidationError{Field: "device_id", Reason: "is required"}
	}
	if math.IsNaN(r.Temperature) || math.IsInf(r.Temperature, 0) {
		return &ValidationError{Field: "temperature", Reason: "must be a finite number"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "is required"}
	}
	return nil
}

// TemperatureLog is a classified reading. Only Acknowledged changes after creation.
type TemperatureLog struct {
	ID           string    `db:"id" json:"id"`
	DeviceID     string    `db:"device_id" json:"device_id"`
	Temperature  float64   `db:"temperature" json:"temperature"`
	Timestamp    time.Time `db:"timestamp" json:"timestamp"`
	Breach       bool      `db:"breach" json:"breach"`
	Acknowledged bool      `db:"acknowledged" json:"acknowledged"`
}

// NewTemperatureLog classifies r against the device category. The verdict is
// fixed for the lifetime of the log.
func NewTemperatureLog(id string, device Device, r Reading) (TemperatureLog, error) {
	if id == "" {
		return TemperatureLog{}, &ValidationError{Field: "id", Reason: "is required"}
	}
	if err := r.Validate(); err != nil {
		return TemperatureLog{}, err
	}
	if r.DeviceID != device.ID {
		return TemperatureLog{}, &ValidationError{Field: "device_id", Reason: "does not match device"}
	}
	return TemperatureLog{
		ID:          id,
		DeviceID:    device.ID,
		Temperature: r.Temperature,
		Timestamp:   r.Timestamp,
		Breach:      Classify(device.Category, r.Temperature),
	}, nil
}

// Validate checks a fully formed log, e.g. one produced by bulk import.
func (l TemperatureLog) Validate() error {
	if l.ID == "" {
		return &ValidationError{Field: "id", Reason: "is required"}
	}
	return Reading{DeviceID: l.DeviceID, Temperature: l.Temperature, Timestamp: l.Timestamp}.Validate()
}

// LogWithDevice is a dashboard row: the log with its owning device inline.
type LogWithDevice struct {
	TemperatureLog
	Device Device `db:"device" json:"device"`
}
