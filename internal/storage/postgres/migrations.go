package postgres

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Migration struct {
	Version     int
	Description string
	Up          string
	Down        string
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: `
		CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			pubkey TEXT UNIQUE NOT NULL,
			lamports BIGINT NOT NULL,
			data BYTEA,
			owner TEXT NOT NULL,
			executable BOOLEAN NOT NULL,
			slot BIGINT NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_accounts_owner ON accounts(owner);
		CREATE INDEX IF NOT EXISTS idx_accounts_slot ON accounts(slot DESC);

		CREATE TABLE IF NOT EXISTS instructions (
			id TEXT PRIMARY KEY,
			signature TEXT NOT NULL,
			program_id TEXT NOT NULL,
			instruction TEXT NOT NULL,
			instruction_index INT NOT NULL,
			slot BIGINT NOT NULL,
			block_time TIMESTAMP NOT NULL,
			success BOOLEAN NOT NULL,
			error_code TEXT,
			error_message TEXT,
			signers TEXT[] NOT NULL,
			accounts TEXT[] NOT NULL,
			log_messages TEXT[],
			writes INT NOT NULL,
			duration_us BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_instructions_signature ON instructions(signature);
		CREATE INDEX IF NOT EXISTS idx_instructions_instruction ON instructions(instruction);
		CREATE INDEX IF NOT EXISTS idx_instructions_slot ON instructions(slot DESC);

		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			receipt_id TEXT NOT NULL,
			signature TEXT NOT NULL,
			instruction TEXT NOT NULL,
			event_name TEXT NOT NULL,
			data JSONB NOT NULL,
			slot BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_events_receipt_id ON events(receipt_id);
		CREATE INDEX IF NOT EXISTS idx_events_event_name ON events(event_name);
		CREATE INDEX IF NOT EXISTS idx_events_slot ON events(slot DESC);
		`,
		Down: `
		DROP TABLE IF EXISTS events;
		DROP TABLE IF EXISTS instructions;
		DROP TABLE IF EXISTS accounts;
		`,
	},
	{
		Version:     2,
		Description: "Settled draws",
		Up: `
		CREATE TABLE IF NOT EXISTS draws (
			id TEXT PRIMARY KEY,
			round BIGINT UNIQUE NOT NULL,
			receipt_id TEXT NOT NULL,
			winner TEXT NOT NULL,
			random_number TEXT NOT NULL,
			total_entries BIGINT NOT NULL,
			payout BIGINT NOT NULL,
			runner_ups TEXT[] NOT NULL,
			runner_up_payout BIGINT NOT NULL,
			rewards_payout BIGINT NOT NULL,
			carry_over BIGINT NOT NULL,
			slot BIGINT NOT NULL,
			settled_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_draws_winner ON draws(winner);
		`,
		Down: `
		DROP TABLE IF EXISTS draws;
		`,
	},
}

type Migrator struct {
	pool    *pgxpool.Pool
	applied int
}

func NewMigrator(pool *pgxpool.Pool) *Migrator {
	return &Migrator{pool: pool}
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INT PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TIMESTAMP NOT NULL DEFAULT NOW()
	);
	`
	_, err := m.pool.Exec(ctx, query)
	return err
}

func (m *Migrator) getCurrentVersion(ctx context.Context) (int, error) {
	var version int
	err := m.pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (m *Migrator) Up(ctx context.Context) error {
	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	applied := 0
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		if _, err := tx.Exec(ctx, migration.Up); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		applied++
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migrations: %w", err)
	}

	m.applied = applied
	return nil
}

// Applied returns how many migrations the last Up call applied.
func (m *Migrator) Applied() int {
	return m.applied
}

func (m *Migrator) Down(ctx context.Context, steps int) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	if currentVersion == 0 {
		return fmt.Errorf("no migrations to rollback")
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rolledBack := 0
	for i := len(migrations) - 1; i >= 0 && rolledBack < steps; i-- {
		migration := migrations[i]
		if migration.Version > currentVersion {
			continue
		}

		if _, err := tx.Exec(ctx, migration.Down); err != nil {
			return fmt.Errorf("failed to rollback migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec(ctx,
			"DELETE FROM schema_migrations WHERE version = $1",
			migration.Version,
		); err != nil {
			return fmt.Errorf("failed to remove migration record %d: %w", migration.Version, err)
		}

		rolledBack++
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rollback: %w", err)
	}

	return nil
}

func (m *Migrator) Status(ctx context.Context, w io.Writer) error {
	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	fmt.Fprintf(w, "Current schema version: %d\n", currentVersion)
	fmt.Fprintf(w, "Available migrations:\n")
	for _, migration := range migrations {
		status := "pending"
		if migration.Version <= currentVersion {
			status = "applied"
		}
		fmt.Fprintf(w, "  [%s] v%d: %s\n", status, migration.Version, migration.Description)
	}

	return nil
}
