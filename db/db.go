// Package db stores the course catalog, program definitions and overlap
// policies in PostgreSQL and serves them back as loader sources.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Database struct {
	Pool *pgxpool.Pool
}

// Open connects to the database described by connString.
func Open(ctx context.Context, connString string) (*Database, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return &Database{Pool: pool}, nil
}

func (d *Database) Close() {
	d.Pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS subjects (
	code TEXT PRIMARY KEY,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS courses (
	code TEXT PRIMARY KEY,
	subject_code TEXT NOT NULL,
	catalog_number TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	credits INTEGER NOT NULL DEFAULT 0,
	level INTEGER NOT NULL DEFAULT 0,
	tags TEXT[] NOT NULL DEFAULT '{}',
	prerequisites JSONB,
	corequisites JSONB,
	description TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS programs (
	name TEXT PRIMARY KEY,
	definition JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS policies (
	position INTEGER PRIMARY KEY,
	definition JSONB NOT NULL
);`

// Migrate creates any missing tables.
func (d *Database) Migrate(ctx context.Context) error {
	if _, err := d.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
