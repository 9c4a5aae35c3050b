package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/repository"
)

type DeviceService struct {
	registry repository.DeviceRegistry
	newID    func() string
}

func (s *DeviceService) Get(ctx context.Context, id string) (domain.Device, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Device{}, &domain.ValidationError{Field: "id", Reason: "is required"}
	}
	return s.registry.GetDevice(ctx, id)
}

func (s *DeviceService) List(ctx context.Context) ([]domain.Device, error) {
	return s.registry.ListDevices(ctx)
}

// NewDevice describes a device to register. An empty Category is inferred
// from the name once, at registration.
type NewDevice struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	OwnerID  string `json:"owner_id"`
	Category string `json:"category"`
}

func (s *DeviceService) Register(ctx context.Context, in NewDevice) (domain.Device, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Device{}, &domain.ValidationError{Field: "name", Reason: "is required"}
	}

	category := domain.InferCategory(name)
	if in.Category != "" {
		c, err := domain.ParseCategory(in.Category)
		if err != nil {
			return domain.Device{}, err
		}
		category = c
	}

	d := domain.Device{
		ID:       s.newID(),
		Name:     name,
		Location: in.Location,
		OwnerID:  in.OwnerID,
		Category: category,
	}
	if err := s.registry.CreateDevice(ctx, &d); err != nil {
		return domain.Device{}, fmt.Errorf("register device: %w", err)
	}

	log.Info().Str("device_id", d.ID).Str("name", d.Name).Str("category", string(d.Category)).Msg("device registered")
	return d, nil
}
