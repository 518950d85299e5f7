package migration

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"

	"gopower/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

var _ Migrator = (*MigrationRunner)(nil)

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
	steps   []step
}

type step struct {
	name string
	sql  string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
		steps: []step{
			{name: "create schema_migrations table", sql: createSchemaMigrationsTable},
			{name: "create power_calculations table", sql: createCalculationsTable},
			{name: "add labels column", sql: addLabelsColumn},
			{name: "create indexes", sql: createIndexes},
		},
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Steps returns the migration step names in execution order
func (r *MigrationRunner) Steps() []string {
	names := make([]string, len(r.steps))
	for i, s := range r.steps {
		names[i] = s.name
	}
	return names
}

// Checksum identifies the schema the steps produce
func (r *MigrationRunner) Checksum() string {
	h := sha256.New()
	for _, s := range r.steps {
		h.Write([]byte(s.sql))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Run executes all database migrations in order and records the applied
// version. Every step is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, s := range r.steps {
		if _, err := db.ExecContext(ctx, s.sql); err != nil {
			return errors.Wrapf(errors.DatabaseError("migration step failed", err), "failed to %s", s.name)
		}
		log.Printf("[Migration] %s", s.name)
	}

	if _, err := db.ExecContext(ctx, recordVersion, r.version, r.Checksum()); err != nil {
		return errors.DatabaseError("failed to record schema version", err)
	}
	log.Printf("[Migration] schema version %s", r.version)
	return nil
}

const createSchemaMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		checksum TEXT NOT NULL,
		applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	)
`

const recordVersion = `
	INSERT INTO schema_migrations (version, checksum) VALUES ($1, $2)
	ON CONFLICT (version) DO NOTHING
`

const createCalculationsTable = `
	CREATE TABLE IF NOT EXISTS power_calculations (
		id UUID PRIMARY KEY,
		kind VARCHAR(32) NOT NULL,
		reference_proportion DOUBLE PRECISION NOT NULL,
		alternative_proportion DOUBLE PRECISION NOT NULL,
		power_level DOUBLE PRECISION NOT NULL,
		z_alpha DOUBLE PRECISION NOT NULL,
		sample_size DOUBLE PRECISION NOT NULL,
		required INTEGER NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	)
`

const addLabelsColumn = `
	DO $$
	BEGIN
		IF NOT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = 'power_calculations' AND column_name = 'labels'
		) THEN
			ALTER TABLE power_calculations ADD COLUMN labels JSONB NOT NULL DEFAULT '{}'::jsonb;
		END IF;
	END $$;
`

const createIndexes = `
	CREATE INDEX IF NOT EXISTS idx_power_calculations_created_at ON power_calculations (created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_power_calculations_kind ON power_calculations (kind)
`
