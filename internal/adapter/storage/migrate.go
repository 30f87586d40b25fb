// internal/adapter/storage/migrate.go

package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Migrate creates the schema if it does not exist. Rooms carry a PostGIS
// geography point with a GIST index for the nearby query, plus a btree on
// created_at for the expiry cutoff and sweep.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis`,
		`CREATE TABLE IF NOT EXISTS users (
			id               UUID PRIMARY KEY,
			email            TEXT NOT NULL UNIQUE,
			password_hash    TEXT NOT NULL,
			anonymous_handle TEXT NOT NULL UNIQUE,
			created_at       TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rooms (
			id         UUID PRIMARY KEY,
			title      TEXT NOT NULL,
			creator_id UUID NOT NULL,
			tags       TEXT[] NOT NULL DEFAULT '{}',
			location   GEOGRAPHY(POINT, 4326) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS rooms_location_idx ON rooms USING GIST (location)`,
		`CREATE INDEX IF NOT EXISTS rooms_created_at_idx ON rooms (created_at)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("error running migration: %w", err)
		}
	}

	return nil
}
