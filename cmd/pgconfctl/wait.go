package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/doodlesbykumbi/pgconf/pkg/dbconfig"
)

// waitCmd represents the wait command
var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for the database to accept connections",
	Long: `Wait for the database to accept connections using the resolved
connection settings.

This command will repeatedly try to connect until it succeeds or the
maximum number of retries is reached. Configuration errors fail
immediately.

Example:
  pgconfctl wait
  pgconfctl wait --retries 60`,
	Run: func(cmd *cobra.Command, args []string) {
		retries, _ := cmd.Flags().GetInt("retries")
		interval, _ := cmd.Flags().GetDuration("interval")

		if err := waitForDatabase(retries, interval); err != nil {
			fmt.Fprintf(os.Stderr, "Database did not become ready: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().IntP("retries", "r", 90, "Number of retries")
	waitCmd.Flags().Duration("interval", time.Second, "Delay between retries")
}

func validateRetries(retries int) error {
	if retries <= 0 {
		return fmt.Errorf("retries must be a positive integer, got %d", retries)
	}
	return nil
}

func waitForDatabase(retries int, interval time.Duration) error {
	if err := validateRetries(retries); err != nil {
		return err
	}

	log := mustLogger()
	defer func() { _ = log.Sync() }()

	factory, err := newFactory(viper.GetViper(), log)
	if err != nil {
		return err
	}
	// Fail fast on configuration problems rather than retrying them.
	if _, err := factory.Resolve(); err != nil {
		return err
	}

	fmt.Println("Waiting for the database to be ready...")

	var lastErr error
	for i := 0; i < retries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		dbCtx, err := factory.Open(ctx)
		cancel()
		if err == nil {
			_ = dbCtx.Close()
			fmt.Println()
			fmt.Println("Database is ready!")
			return nil
		}
		if errors.Is(err, dbconfig.ErrConfiguration) {
			return err
		}
		lastErr = err
		log.Debug("database not ready", zap.Int("attempt", i+1), zap.Error(err))

		fmt.Print(".")
		time.Sleep(interval)
	}

	fmt.Println()
	return fmt.Errorf("database is not ready after %d attempts: %w", retries, lastErr)
}
