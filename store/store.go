// Package store persists cash flows, instrument configurations and
// market-data caches in Postgres.
//
// The flow and config tables are owned by the entry/import subsystem and read
// here; the index-rate and treasury-mark tables are append-only caches owned
// by this package, upserted with ON CONFLICT so concurrent refreshes stay
// idempotent.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // postgres driver
)

var schema = `
CREATE TABLE IF NOT EXISTS index_rates (
    series TEXT NOT NULL,
    day DATE NOT NULL,
    rate DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (series, day)
);

CREATE TABLE IF NOT EXISTS treasury_marks (
    label TEXT NOT NULL,
    day DATE NOT NULL,
    base_price DOUBLE PRECISION NOT NULL,
    purchase_price DOUBLE PRECISION NOT NULL DEFAULT 0,
    PRIMARY KEY (label, day)
);
`

// Open connects to Postgres and ensures the cache tables exist.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}
