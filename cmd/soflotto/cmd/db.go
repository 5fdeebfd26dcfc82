package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/lugondev/go-soflotto/internal/storage"
	"github.com/lugondev/go-soflotto/internal/storage/postgres"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database schema management",
	Long:  `Inspect and migrate the PostgreSQL schema used by the receipt journal.`,
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
			return postgres.NewMigrator(pool).Status(ctx, cmd.OutOrStdout())
		})
	},
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
			m := postgres.NewMigrator(pool)
			if err := m.Up(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", m.Applied())
			return nil
		})
	},
}

var dbRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Roll back the latest migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		if steps <= 0 {
			return fmt.Errorf("--steps must be positive")
		}
		return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
			if err := postgres.NewMigrator(pool).Down(ctx, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s)\n", steps)
			return nil
		})
	},
}

func withPool(ctx context.Context, fn func(context.Context, *pgxpool.Pool) error) error {
	if storage.DatabaseType(cfg.Database.Type) != storage.DatabaseTypePostgres {
		return fmt.Errorf("migrations require database.type postgres, got %q", cfg.Database.Type)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	pool, err := postgres.NewPool(ctx, &cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, pool)
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbRollbackCmd)
	dbRollbackCmd.Flags().Int("steps", 1, "number of migrations to roll back")
}
