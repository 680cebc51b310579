package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var dbPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Connect with the resolved settings and print the server version",
	Run: func(cmd *cobra.Command, args []string) {
		timeout, _ := cmd.Flags().GetDuration("timeout")

		if err := pingDatabase(timeout); err != nil {
			fmt.Fprintf(os.Stderr, "Ping failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	dbCmd.AddCommand(dbPingCmd)
	dbPingCmd.Flags().Duration("timeout", 10*time.Second, "connection timeout")
}

func pingDatabase(timeout time.Duration) error {
	log := mustLogger()
	defer func() { _ = log.Sync() }()

	factory, err := newFactory(viper.GetViper(), log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	dbCtx, err := factory.Open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = dbCtx.Close() }()

	var version string
	if err := dbCtx.DB.Raw("SELECT version()").Row().Scan(&version); err != nil {
		return fmt.Errorf("failed to query server version: %w", err)
	}
	fmt.Println(version)
	return nil
}
