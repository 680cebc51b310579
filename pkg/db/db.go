package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/pgconf/pkg/connstr"
	"github.com/doodlesbykumbi/pgconf/pkg/dbconfig"
)

// Options configures a Factory.
type Options struct {
	// MigrationsSource locates the migrations (file:// URL or directory).
	// Migration settings are only produced when it is non-blank.
	MigrationsSource string
	// Vars overrides the configuration key names; nil uses the defaults.
	Vars *dbconfig.EnvVariables
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// GormConfig is passed to gorm.Open. Its Logger is replaced by a zap
	// bridge when unset.
	GormConfig *gorm.Config
}

// MigrationSettings tells the migration runner where migrations live and
// which table records them.
type MigrationSettings struct {
	Source        string
	HistoryTable  string
	HistorySchema string
}

// Registration is a resolved, not yet opened, database registration.
type Registration struct {
	// ConnectionString is the resolved keyword/value connection string.
	ConnectionString string
	// DSN is ConnectionString in libpq form.
	DSN        string
	Migrations *MigrationSettings
}

// Context is an open database together with the registration it came from.
type Context struct {
	DB           *gorm.DB
	Registration *Registration
}

// Close closes the underlying connection pool.
func (c *Context) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Factory resolves connection settings from a configuration lookup and opens
// gorm databases from them.
type Factory struct {
	lookup dbconfig.Lookup
	opts   Options
	logger *zap.Logger
}

// openDB is replaced in tests.
var openDB = func(cfg *pgx.ConnConfig) *sql.DB {
	return stdlib.OpenDB(*cfg)
}

// NewFactory creates a Factory. Nothing is resolved until Resolve or Open.
func NewFactory(lookup dbconfig.Lookup, opts Options) *Factory {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Factory{lookup: lookup, opts: opts, logger: log}
}

// Resolve builds the registration without connecting. It is safe to call
// repeatedly; each call reads the lookup again.
func (f *Factory) Resolve() (*Registration, error) {
	res, err := dbconfig.Resolve(f.lookup, f.opts.Vars)
	if err != nil {
		return nil, err
	}

	cs, err := connstr.Parse(res.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse resolved connection string: %w", err)
	}

	reg := &Registration{
		ConnectionString: res.ConnectionString,
		DSN:              cs.DSN(),
	}
	if strings.TrimSpace(f.opts.MigrationsSource) != "" {
		reg.Migrations = &MigrationSettings{Source: f.opts.MigrationsSource}
		if res.HistoryTable != nil && strings.TrimSpace(*res.HistoryTable) != "" {
			reg.Migrations.HistoryTable = *res.HistoryTable
			if res.HistorySchema != nil {
				reg.Migrations.HistorySchema = *res.HistorySchema
			}
		}
	}

	f.logger.Debug("resolved database registration",
		zap.String("connection_string", cs.Redacted()),
		zap.Bool("migrations", reg.Migrations != nil),
	)
	return reg, nil
}

// Open resolves the registration and opens a gorm database over pgx. ctx
// bounds the initial ping only; it is not attached to the returned DB.
func (f *Factory) Open(ctx context.Context) (*Context, error) {
	reg, err := f.Resolve()
	if err != nil {
		return nil, err
	}

	connConfig, err := pgx.ParseConfig(reg.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid connection settings: %w", err)
	}

	sqlDB := openDB(connConfig)
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	gormConfig := &gorm.Config{}
	if f.opts.GormConfig != nil {
		cfg := *f.opts.GormConfig
		gormConfig = &cfg
	}
	if gormConfig.Logger == nil {
		gormConfig.Logger = NewGormLogger(f.logger, LogLevelFromEnv())
	}

	db, err := gorm.Open(
		postgres.New(postgres.Config{
			Conn:                 sqlDB,
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		}),
		gormConfig,
	)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	f.logger.Info("database opened",
		zap.String("host", connConfig.Host),
		zap.Uint16("port", connConfig.Port),
		zap.String("database", connConfig.Database),
	)
	return &Context{DB: db, Registration: reg}, nil
}

// IsPostgres reports whether db is backed by the PostgreSQL dialector.
func IsPostgres(db *gorm.DB) bool {
	if db == nil || db.Dialector == nil {
		return false
	}
	return db.Dialector.Name() == "postgres"
}
