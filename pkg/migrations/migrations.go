package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/doodlesbykumbi/pgconf/pkg/db"
)

// ErrNoMigrations is returned by Open when the registration has no
// migrations source.
var ErrNoMigrations = errors.New("no migrations source configured")

// Config configures a Runner.
type Config struct {
	// Source is a file:// URL or a directory path. Ignored when FS is set.
	Source string
	// FS holds migration files at its root.
	FS fs.FS
	// HistoryTable defaults to golang-migrate's schema_migrations.
	HistoryTable string
	// HistorySchema defaults to the connection's current schema. It is
	// created if missing.
	HistorySchema         string
	MultiStatementEnabled bool
	Logger                *zap.Logger
}

// Status describes the applied migration version.
type Status struct {
	// Applied is false when no migration has ever run.
	Applied bool
	Version uint
	Dirty   bool
}

// migrator is the subset of *migrate.Migrate used by Runner.
type migrator interface {
	Up() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Close() (source error, database error)
}

// Runner applies migrations and records them in the history table.
type Runner struct {
	m      migrator
	logger *zap.Logger
}

// New creates a Runner over sqlDB. The Runner owns sqlDB; Close closes it.
func New(sqlDB *sql.DB, cfg Config) (*Runner, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if cfg.HistorySchema != "" {
		if _, err := sqlDB.Exec("CREATE SCHEMA IF NOT EXISTS " + pq.QuoteIdentifier(cfg.HistorySchema)); err != nil {
			return nil, fmt.Errorf("failed to create schema %s: %w", cfg.HistorySchema, err)
		}
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{
		MigrationsTable:       cfg.HistoryTable,
		SchemaName:            cfg.HistorySchema,
		MultiStatementEnabled: cfg.MultiStatementEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver instance: %w", err)
	}

	var m *migrate.Migrate
	if cfg.FS != nil {
		src, err := iofs.New(cfg.FS, ".")
		if err != nil {
			return nil, fmt.Errorf("failed to create iofs driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "postgres", driver)
		if err != nil {
			return nil, fmt.Errorf("failed to create migrate instance: %w", err)
		}
	} else {
		u, err := sourceURL(cfg.Source)
		if err != nil {
			return nil, err
		}
		log.Debug("using migrations source", zap.String("source", u))
		m, err = migrate.NewWithDatabaseInstance(u, "postgres", driver)
		if err != nil {
			return nil, fmt.Errorf("failed to create migrate instance: %w", err)
		}
	}
	m.Log = migrateLogger{sugar: log.Sugar()}

	return &Runner{m: m, logger: log}, nil
}

// Open connects with the registration's DSN and creates a Runner from its
// migration settings. A non-nil fsys replaces the registration's source.
func Open(reg *db.Registration, fsys fs.FS, log *zap.Logger) (*Runner, error) {
	if reg == nil || reg.Migrations == nil {
		return nil, ErrNoMigrations
	}

	sqlDB, err := sql.Open("postgres", reg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	r, err := New(sqlDB, Config{
		Source:        reg.Migrations.Source,
		FS:            fsys,
		HistoryTable:  reg.Migrations.HistoryTable,
		HistorySchema: reg.Migrations.HistorySchema,
		Logger:        log,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return r, nil
}

// Up applies every pending migration. An up-to-date database is not an error.
func (r *Runner) Up() error {
	err := r.m.Up()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, migrate.ErrNoChange):
		r.logger.Info("No new migrations found. Skipping...")
		return nil
	case errors.Is(err, os.ErrNotExist):
		r.logger.Warn("No migration files found. Skipping migration step...")
		return nil
	}

	var dirtyErr migrate.ErrDirty
	if errors.As(err, &dirtyErr) {
		return fmt.Errorf("migration failed: dirty database version %d", dirtyErr.Version)
	}
	return fmt.Errorf("migration failed: %w", err)
}

// Down rolls back steps migrations.
func (r *Runner) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be a positive integer, got %d", steps)
	}
	if err := r.m.Steps(-steps); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return nil
}

// Status reports the current version.
func (r *Runner) Status() (Status, error) {
	version, dirty, err := r.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, err
	}
	return Status{Applied: true, Version: version, Dirty: dirty}, nil
}

// Close releases the source and the database.
func (r *Runner) Close() error {
	srcErr, dbErr := r.m.Close()
	return errors.Join(srcErr, dbErr)
}

func sourceURL(source string) (string, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", errors.New("migrations source is required")
	}
	if strings.Contains(source, "://") {
		return source, nil
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return "", fmt.Errorf("failed to resolve migrations path: %w", err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}

type migrateLogger struct {
	sugar *zap.SugaredLogger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.sugar.Infof(strings.TrimSuffix(format, "\n"), v...)
}

func (l migrateLogger) Verbose() bool {
	return l.sugar.Desugar().Core().Enabled(zap.DebugLevel)
}
