package database

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/config"
)

func Connect() (*sqlx.DB, error) {
	return sqlx.Connect("pgx", config.DBDSN())
}

const schema = `
CREATE TABLE IF NOT EXISTS devices (
	id       UUID PRIMARY KEY,
	name     TEXT NOT NULL,
	location TEXT NOT NULL DEFAULT '',
	owner_id TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL CHECK (category IN ('TRANSPORT', 'FREEZER', 'FRIDGE'))
);

CREATE TABLE IF NOT EXISTS temperature_logs (
	id           UUID PRIMARY KEY,
	device_id    UUID NOT NULL REFERENCES devices (id),
	temperature  DOUBLE PRECISION NOT NULL,
	timestamp    TIMESTAMPTZ NOT NULL,
	breach       BOOLEAN NOT NULL,
	acknowledged BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS temperature_logs_timestamp_idx ON temperature_logs (timestamp DESC, id DESC);
CREATE INDEX IF NOT EXISTS temperature_logs_device_idx ON temperature_logs (device_id);
`

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
