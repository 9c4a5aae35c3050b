package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/domain"
)

// MemoryStore keeps devices and logs in process. It enforces the same
// referential rules as the SQL schema and is used for local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	devices map[string]domain.Device
	logs    map[string]domain.TemperatureLog
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		devices: make(map[string]domain.Device),
		logs:    make(map[string]domain.TemperatureLog),
	}
}

func (s *MemoryStore) GetDevice(_ context.Context, id string) (domain.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.devices[id]
	if !ok {
		return domain.Device{}, &domain.NotFoundError{Entity: "device", ID: id}
	}
	return d, nil
}

func (s *MemoryStore) ListDevices(_ context.Context) ([]domain.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Device, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) CreateDevice(_ context.Context, d *domain.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.devices[d.ID]; exists {
		return &domain.ConflictError{Entity: "device", ID: d.ID}
	}
	s.devices[d.ID] = *d
	return nil
}

func (s *MemoryStore) AppendLog(_ context.Context, l *domain.TemperatureLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkInsert(*l); err != nil {
		return err
	}
	s.logs[l.ID] = *l
	return nil
}

func (s *MemoryStore) AppendLogs(_ context.Context, logs []domain.TemperatureLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(logs))
	for _, l := range logs {
		if err := s.checkInsert(l); err != nil {
			return err
		}
		if _, dup := seen[l.ID]; dup {
			return &domain.ConflictError{Entity: "temperature log", ID: l.ID}
		}
		seen[l.ID] = struct{}{}
	}
	for _, l := range logs {
		s.logs[l.ID] = l
	}
	return nil
}

// checkInsert must be called with the write lock held.
func (s *MemoryStore) checkInsert(l domain.TemperatureLog) error {
	if _, ok := s.devices[l.DeviceID]; !ok {
		return fmt.Errorf("insert log: %w", &domain.NotFoundError{Entity: "device", ID: l.DeviceID})
	}
	if _, exists := s.logs[l.ID]; exists {
		return &domain.ConflictError{Entity: "temperature log", ID: l.ID}
	}
	return nil
}

func (s *MemoryStore) GetLog(_ context.Context, id string) (domain.TemperatureLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.logs[id]
	if !ok {
		return domain.TemperatureLog{}, &domain.NotFoundError{Entity: "temperature log", ID: id}
	}
	return l, nil
}

func (s *MemoryStore) QueryLogs(_ context.Context) ([]domain.LogWithDevice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.LogWithDevice, 0, len(s.logs))
	for _, l := range s.logs {
		out = append(out, domain.LogWithDevice{TemperatureLog: l, Device: s.devices[l.DeviceID]})
	}
	domain.SortByRecency(out)
	return out, nil
}

func (s *MemoryStore) SetAcknowledged(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.logs[id]
	if !ok {
		return &domain.NotFoundError{Entity: "temperature log", ID: id}
	}
	l.Acknowledged = true
	s.logs[id] = l
	return nil
}
