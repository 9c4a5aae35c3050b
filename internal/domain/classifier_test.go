package domain

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInferCategory(t *testing.T) {
	t.Parallel()

	cases := map[string]Category{
		"Transport Cooler 1":         CategoryTransport,
		"Storage Freezer X":          CategoryFreezer,
		"Vaccine Fridge A":           CategoryFridge,
		"Backup Fridge C":            CategoryFridge,
		"Transport Freezer Van":      CategoryTransport,
		"transport cooler lowercase": CategoryFridge,
		"":                           CategoryFridge,
	}
	for name, want := range cases {
		require.Equal(t, want, InferCategory(name), name)
	}
}

func TestParseCategory(t *testing.T) {
	t.Parallel()

	c, err := ParseCategory(" freezer ")
	require.NoError(t, err)
	require.Equal(t, CategoryFreezer, c)

	_, err = ParseCategory("oven")
	require.ErrorIs(t, err, ErrValidation)
}

// TestClassify_Scenarios pins the documented device scenarios.
func TestClassify_Scenarios(t *testing.T) {
	t.Parallel()

	fridge := InferCategory("Vaccine Fridge A")
	require.True(t, Classify(fridge, 9.2))
	require.False(t, Classify(fridge, 5.0))

	transport := InferCategory("Transport Cooler 1")
	require.False(t, Classify(transport, 8.0))
	require.True(t, Classify(transport, 8.1))

	freezer := InferCategory("Storage Freezer X")
	require.False(t, Classify(freezer, 30.0))
}

// TestClassify_Properties checks the category predicates over random readings.
func TestClassify_Properties(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5000; i++ {
		temp := -40 + rng.Float64()*80

		require.Equal(t, temp > 8, Classify(CategoryTransport, temp))
		require.Equal(t, temp > 8, Classify(CategoryFridge, temp))
		require.False(t, Classify(CategoryFreezer, temp))
		require.Equal(t, temp > 8, Classify(Category("UNKNOWN"), temp))
	}
}

func TestReadingValidate(t *testing.T) {
	t.Parallel()

	now := time.Now()
	require.NoError(t, Reading{DeviceID: "d1", Temperature: 4, Timestamp: now}.Validate())

	bad := []Reading{
		{Temperature: 4, Timestamp: now},
		{DeviceID: "d1", Temperature: math.NaN(), Timestamp: now},
		{DeviceID: "d1", Temperature: math.Inf(1), Timestamp: now},
		{DeviceID: "d1", Temperature: 4},
	}
	for _, r := range bad {
		err := r.Validate()
		require.ErrorIs(t, err, ErrValidation)

		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		require.NotEmpty(t, ve.Field)
	}
}

func TestNewTemperatureLog(t *testing.T) {
	t.Parallel()

	dev := Device{ID: "d1", Name: "Transport Cooler 1", Category: CategoryTransport}
	ts := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	l, err := NewTemperatureLog("log-1", dev, Reading{DeviceID: "d1", Temperature: 9.5, Timestamp: ts})
	require.NoError(t, err)
	require.True(t, l.Breach)
	require.False(t, l.Acknowledged)
	require.Equal(t, ts, l.Timestamp)

	_, err = NewTemperatureLog("log-2", dev, Reading{DeviceID: "other", Temperature: 1, Timestamp: ts})
	require.ErrorIs(t, err, ErrValidation)

	_, err = NewTemperatureLog("", dev, Reading{DeviceID: "d1", Temperature: 1, Timestamp: ts})
	require.ErrorIs(t, err, ErrValidation)
}
