package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/domain"
)

// DeviceRegistry looks up devices. Creation is administrative and only used
// by seeding and import tooling.
type DeviceRegistry interface {
	GetDevice(ctx context.Context, id string) (domain.Device, error)
	ListDevices(ctx context.Context) ([]domain.Device, error)
	CreateDevice(ctx context.Context, d *domain.Device) error
}

// LogStore is the append-only log collection. The only mutation after insert
// is SetAcknowledged, which must be idempotent.
type LogStore interface {
	AppendLog(ctx context.Context, l *domain.TemperatureLog) error
	// AppendLogs writes one chunk atomically: either every log is stored or none.
	AppendLogs(ctx context.Context, logs []domain.TemperatureLog) error
	GetLog(ctx context.Context, id string) (domain.TemperatureLog, error)
	// QueryLogs returns every log joined to its device, newest first.
	QueryLogs(ctx context.Context) ([]domain.LogWithDevice, error)
	SetAcknowledged(ctx context.Context, id string) error
}

type Store interface {
	DeviceRegistry
	LogStore
}

const (
	// pgForeignKeyViolation is raised when a log references a missing device.
	pgForeignKeyViolation = "23503"
	// pgInvalidTextRepresentation is raised for ids that are not UUIDs.
	pgInvalidTextRepresentation = "22P02"
	// pgUniqueViolation is raised when an id is inserted twice.
	pgUniqueViolation = "23505"
)

type Repos struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repos { return &Repos{db: db} }

func (r *Repos) GetDevice(ctx context.Context, id string) (domain.Device, error) {
	var d domain.Device
	err := r.db.GetContext(ctx, &d, `SELECT id, name, location, owner_id, category FROM devices WHERE id = $1`, id)
	if err != nil {
		return domain.Device{}, lookupError(err, "get device", "device", id)
	}
	return d, nil
}

func (r *Repos) ListDevices(ctx context.Context) ([]domain.Device, error) {
	var out []domain.Device
	if err := r.db.SelectContext(ctx, &out, `SELECT id, name, location, owner_id, category FROM devices ORDER BY name, id`); err != nil {
		return nil, &domain.StoreError{Op: "list devices", Err: err}
	}
	return out, nil
}

func (r *Repos) CreateDevice(ctx context.Context, d *domain.Device) error {
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO devices (id, name, location, owner_id, category)
		VALUES (:id, :name, :location, :owner_id, :category)`, d)
	if hasCode(err, pgUniqueViolation) {
		return &domain.ConflictError{Entity: "device", ID: d.ID, Err: err}
	}
	if err != nil {
		return &domain.StoreError{Op: "create device", Err: err}
	}
	return nil
}

const insertLog = `INSERT INTO temperature_logs (id, device_id, temperature, timestamp, breach, acknowledged)
	VALUES (:id, :device_id, :temperature, :timestamp, :breach, :acknowledged)`

func (r *Repos) AppendLog(ctx context.Context, l *domain.TemperatureLog) error {
	if _, err := r.db.NamedExecContext(ctx, insertLog, l); err != nil {
		return mapInsertError(err, l.DeviceID, l.ID)
	}
	return nil
}

func (r *Repos) AppendLogs(ctx context.Context, logs []domain.TemperatureLog) error {
	if len(logs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return &domain.StoreError{Op: "begin chunk", Err: err}
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// sqlx expands a slice argument into a multi-row VALUES list.
	if _, err := tx.NamedExecContext(ctx, insertLog, logs); err != nil {
		return mapInsertError(err, "", "")
	}
	if err := tx.Commit(); err != nil {
		return &domain.StoreError{Op: "commit chunk", Err: err}
	}
	return nil
}

func (r *Repos) GetLog(ctx context.Context, id string) (domain.TemperatureLog, error) {
	var l domain.TemperatureLog
	err := r.db.GetContext(ctx, &l, `SELECT id, device_id, temperature, timestamp, breach, acknowledged
		FROM temperature_logs WHERE id = $1`, id)
	if err != nil {
		return domain.TemperatureLog{}, lookupError(err, "get log", "temperature log", id)
	}
	return l, nil
}

func (r *Repos) QueryLogs(ctx context.Context) ([]domain.LogWithDevice, error) {
	out := []domain.LogWithDevice{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT l.id, l.device_id, l.temperature, l.timestamp, l.breach, l.acknowledged,
		       d.id AS "device.id", d.name AS "device.name", d.location AS "device.location",
		       d.owner_id AS "device.owner_id", d.category AS "device.category"
		FROM temperature_logs l
		JOIN devices d ON d.id = l.device_id
		ORDER BY l.timestamp DESC, l.id DESC`)
	if err != nil {
		return nil, &domain.StoreError{Op: "query logs", Err: err}
	}
	return out, nil
}

// SetAcknowledged only ever writes TRUE, so concurrent callers converge.
func (r *Repos) SetAcknowledged(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE temperature_logs SET acknowledged = TRUE WHERE id = $1`, id)
	if err != nil {
		return lookupError(err, "acknowledge log", "temperature log", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &domain.StoreError{Op: "acknowledge log", Err: err}
	}
	if n == 0 {
		return &domain.NotFoundError{Entity: "temperature log", ID: id}
	}
	return nil
}

func lookupError(err error, op, entity, id string) error {
	if errors.Is(err, sql.ErrNoRows) || hasCode(err, pgInvalidTextRepresentation) {
		return &domain.NotFoundError{Entity: entity, ID: id}
	}
	return &domain.StoreError{Op: op, Err: err}
}

// mapInsertError leaves ids empty for multi-row inserts where the offending
// row is unknown.
func mapInsertError(err error, deviceID, logID string) error {
	switch {
	case hasCode(err, pgForeignKeyViolation):
		return fmt.Errorf("insert log: %w", &domain.NotFoundError{Entity: "device", ID: deviceID})
	case hasCode(err, pgUniqueViolation):
		return &domain.ConflictError{Entity: "temperature log", ID: logID, Err: err}
	}
	return &domain.StoreError{Op: "insert log", Err: err}
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
