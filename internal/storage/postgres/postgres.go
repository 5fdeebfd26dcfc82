package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lugondev/go-soflotto/internal/config"
	"github.com/lugondev/go-soflotto/internal/storage"
)

type PostgresRepository struct {
	pool            *pgxpool.Pool
	accountRepo     storage.AccountRepository
	instructionRepo storage.InstructionRepository
	eventRepo       storage.EventRepository
	drawRepo        storage.DrawRepository
}

// NewPool opens and pings a connection pool.
func NewPool(ctx context.Context, cfg *config.PostgresConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.ConnMaxLifetime) * time.Second
	}
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// NewPostgresRepository connects and brings the schema up to date.
func NewPostgresRepository(ctx context.Context, cfg *config.PostgresConfig) (*PostgresRepository, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	migrator := NewMigrator(pool)
	if err := migrator.Up(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresRepository{
		pool:            pool,
		accountRepo:     &postgresAccountRepository{pool: pool},
		instructionRepo: &postgresInstructionRepository{pool: pool},
		eventRepo:       &postgresEventRepository{pool: pool},
		drawRepo:        &postgresDrawRepository{pool: pool},
	}, nil
}

func (r *PostgresRepository) Accounts() storage.AccountRepository {
	return r.accountRepo
}

func (r *PostgresRepository) Instructions() storage.InstructionRepository {
	return r.instructionRepo
}

func (r *PostgresRepository) Events() storage.EventRepository {
	return r.eventRepo
}

func (r *PostgresRepository) Draws() storage.DrawRepository {
	return r.drawRepo
}

func (r *PostgresRepository) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
