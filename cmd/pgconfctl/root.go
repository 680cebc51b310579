package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/doodlesbykumbi/pgconf/pkg/config"
	"github.com/doodlesbykumbi/pgconf/pkg/dbconfig"
)

var rootCmd = &cobra.Command{
	Use:   "pgconfctl",
	Short: "Resolve and manage PostgreSQL connection settings",
	Long: `Resolve PostgreSQL connection settings from configuration files, dotenv
files and environment variables, and run database migrations with them.`,
	SilenceUsage: true,
}

// varFlags maps each key-name flag to its viper key and default.
var varFlags = []struct {
	flag, key, def, usage string
}{
	{"connection-var", "connection_var", dbconfig.DefaultConnectionVar, "variable naming the connection string to use"},
	{"host-var", "host_var", dbconfig.DefaultHostVar, "variable overriding the host"},
	{"port-var", "port_var", dbconfig.DefaultPortVar, "variable overriding the port"},
	{"database-var", "database_var", dbconfig.DefaultDatabaseVar, "variable overriding the database name"},
	{"user-var", "user_var", dbconfig.DefaultUserVar, "variable overriding the user name"},
	{"password-var", "password_var", dbconfig.DefaultPasswordVar, "variable overriding the password"},
	{"history-table-var", "history_table_var", dbconfig.DefaultHistoryTableVar, "variable naming the migrations history table"},
	{"history-schema-var", "history_schema_var", dbconfig.DefaultHistorySchemaVar, "variable naming the migrations history schema"},
}

func init() {
	v := viper.GetViper()
	v.SetDefault("config", "")
	v.SetDefault("log_level", "info")
	for _, f := range varFlags {
		v.SetDefault(f.key, f.def)
	}

	// PGCONFCTL_LOG_LEVEL, PGCONFCTL_HOST_VAR, ...
	v.SetEnvPrefix("PGCONFCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	flags := rootCmd.PersistentFlags()
	flags.String("config", v.GetString("config"), "directory holding pgconf.yml (default $PGCONF_CONFIG_PATH or "+config.DefaultConfigPath+")")
	flags.String("log-level", v.GetString("log_level"), "log level (debug, info, warn, error)")
	for _, f := range varFlags {
		flags.String(f.flag, v.GetString(f.key), f.usage)
	}

	_ = v.BindPFlag("config", flags.Lookup("config"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	for _, f := range varFlags {
		_ = v.BindPFlag(f.key, flags.Lookup(f.flag))
	}
}

func envVariables(v *viper.Viper) dbconfig.EnvVariables {
	return dbconfig.EnvVariables{
		Connection:    v.GetString("connection_var"),
		Host:          v.GetString("host_var"),
		Port:          v.GetString("port_var"),
		Database:      v.GetString("database_var"),
		User:          v.GetString("user_var"),
		Password:      v.GetString("password_var"),
		HistoryTable:  v.GetString("history_table_var"),
		HistorySchema: v.GetString("history_schema_var"),
	}
}

func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg, err := config.LoadWith(config.LoadOptions{ConfigPath: v.GetString("config")})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	if lvl.Level() == zap.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl
	return cfg.Build()
}

func mustLogger() *zap.Logger {
	log, err := newLogger(viper.GetString("log_level"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return log
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
