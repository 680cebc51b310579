package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/doodlesbykumbi/pgconf/pkg/migrations"
)

// dbMigrateCmd represents the db migrate command
var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create and/or upgrade the database schema",
	Long: `Create and/or upgrade the database schema.

This command runs all pending database migrations to bring the schema
up to date. Applied migrations are recorded in the table named by
DB_HISTORY_TABLE (in DB_HISTORY_SCHEMA), or in schema_migrations when
it is unset.

Example:
  pgconfctl db migrate
  pgconfctl db migrate --migrations ./sql`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := withRunner(runMigrations); err != nil {
			fmt.Println("Migration failed:", err)
			os.Exit(1)
		}
	},
}

var dbMigrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Rollback database migrations",
	Long: `Rollback database migrations.

This command rolls back the specified number of migrations (default: 1).

Example:
  pgconfctl db down      # Rollback 1 migration
  pgconfctl db down 3    # Rollback 3 migrations`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		steps := 1
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Println("Rollback failed: steps must be an integer")
				os.Exit(1)
			}
			steps = n
		}

		err := withRunner(func(r *migrations.Runner, log *zap.Logger) error {
			return runMigrationsDown(r, steps)
		})
		if err != nil {
			fmt.Println("Rollback failed:", err)
			os.Exit(1)
		}
	},
}

var dbMigrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current migration version",
	Long:  `Show the current database migration version.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := withRunner(showMigrationStatus); err != nil {
			fmt.Println("Failed to get status:", err)
			os.Exit(1)
		}
	},
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbMigrateDownCmd)
	dbCmd.AddCommand(dbMigrateStatusCmd)
}

func withRunner(fn func(*migrations.Runner, *zap.Logger) error) error {
	log := mustLogger()
	defer func() { _ = log.Sync() }()

	factory, err := newFactory(viper.GetViper(), log)
	if err != nil {
		return err
	}
	reg, err := factory.Resolve()
	if err != nil {
		return err
	}
	if reg.Migrations != nil && reg.Migrations.HistoryTable != "" {
		log.Info("using migrations history table",
			zap.String("table", reg.Migrations.HistoryTable),
			zap.String("schema", reg.Migrations.HistorySchema),
		)
	}

	r, err := migrations.Open(reg, nil, log)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _ = r.Close() }()

	return fn(r, log)
}

func runMigrations(r *migrations.Runner, log *zap.Logger) error {
	before, err := r.Status()
	if err != nil {
		return err
	}
	fmt.Printf("Current version: %d (dirty: %v)\n", before.Version, before.Dirty)

	if err := r.Up(); err != nil {
		return err
	}

	after, err := r.Status()
	if err != nil {
		return err
	}
	if after == before {
		fmt.Println("No migrations to run - database is up to date")
		return nil
	}
	fmt.Printf("Migrated to version: %d\n", after.Version)
	fmt.Println("Migrations complete")
	return nil
}

func runMigrationsDown(r *migrations.Runner, steps int) error {
	fmt.Printf("Rolling back %d migration(s)...\n", steps)

	if err := r.Down(steps); err != nil {
		return err
	}

	status, err := r.Status()
	if err != nil {
		return err
	}
	fmt.Printf("Rolled back to version: %d\n", status.Version)
	return nil
}

func showMigrationStatus(r *migrations.Runner, log *zap.Logger) error {
	status, err := r.Status()
	if err != nil {
		return err
	}
	if !status.Applied {
		fmt.Println("No migrations have been applied yet")
		return nil
	}

	fmt.Printf("Current version: %d\n", status.Version)
	if status.Dirty {
		fmt.Println("Warning: Database is in a dirty state")
	}
	return nil
}
