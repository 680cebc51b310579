package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/doodlesbykumbi/pgconf/pkg/db"
)

const defaultMigrationsPath = "db/migrations"

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the database",
	Long:  `Check connectivity and manage the database schema and migrations.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'db' requires a subcommand (ping, migrate, down, status)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.PersistentFlags().String("migrations", defaultMigrationsPath, "migrations directory or file:// URL")
	_ = viper.BindPFlag("migrations", dbCmd.PersistentFlags().Lookup("migrations"))
}

func newFactory(v *viper.Viper, log *zap.Logger) (*db.Factory, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}
	vars := envVariables(v)
	opts := db.Options{
		MigrationsSource: v.GetString("migrations"),
		Vars:             &vars,
		Logger:           log,
	}
	if log.Core().Enabled(zap.DebugLevel) {
		opts.GormConfig = &gorm.Config{Logger: db.NewGormLogger(log, logger.Info)}
	}
	return db.NewFactory(cfg, opts), nil
}
