package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/doodlesbykumbi/pgconf/pkg/config"
	"github.com/doodlesbykumbi/pgconf/pkg/dbconfig"
)

type widget struct {
	ID   uint
	Name string
}

func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{
			Conn:                 mockDB,
			PreferSimpleProtocol: true,
		}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		},
	)
	require.NoError(t, err)

	return gormDB, mock
}

func stubOpenDB(t *testing.T, sqlDB *sql.DB) *pgx.ConnConfig {
	t.Helper()
	var got pgx.ConnConfig
	prev := openDB
	openDB = func(cfg *pgx.ConnConfig) *sql.DB {
		got = *cfg
		return sqlDB
	}
	t.Cleanup(func() { openDB = prev })
	return &got
}

func lookup(settings map[string]string) config.MapLookup {
	return config.MapLookup{
		Settings: settings,
		ConnectionStrings: map[string]string{
			"db": "Host=localhost;Port=5432;Database=orders;Username=app;Password=secret",
		},
	}
}

func TestFactory_Resolve(t *testing.T) {
	f := NewFactory(lookup(map[string]string{"DB_HOST": "db.internal"}), Options{})

	reg, err := f.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "Host=db.internal;Port=5432;Database=orders;Username=app;Password=secret", reg.ConnectionString)
	assert.Equal(t, "host=db.internal port=5432 dbname=orders user=app password=secret", reg.DSN)
	assert.Nil(t, reg.Migrations)
}

func TestFactory_Resolve_LogsRedacted(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	f := NewFactory(lookup(nil), Options{Logger: zap.New(core)})

	_, err := f.Resolve()
	require.NoError(t, err)

	entries := logs.FilterMessage("resolved database registration").All()
	require.Len(t, entries, 1)
	assert.Equal(t,
		"Host=localhost;Port=5432;Database=orders;Username=app;Password=***",
		entries[0].ContextMap()["connection_string"],
	)
}

func TestFactory_Resolve_NilLookup(t *testing.T) {
	_, err := NewFactory(nil, Options{}).Resolve()
	var argErr *dbconfig.ArgumentError
	assert.ErrorAs(t, err, &argErr)
}

func TestFactory_Resolve_Migrations(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		settings map[string]string
		want     *MigrationSettings
	}{
		{
			name:   "no source",
			source: "  ",
			settings: map[string]string{
				"DB_HISTORY_TABLE": "history",
			},
			want: nil,
		},
		{
			name:     "source without history table",
			source:   "db/migrations",
			settings: map[string]string{},
			want:     &MigrationSettings{Source: "db/migrations"},
		},
		{
			name:   "blank history table is ignored",
			source: "db/migrations",
			settings: map[string]string{
				"DB_HISTORY_TABLE":  " ",
				"DB_HISTORY_SCHEMA": "meta",
			},
			want: &MigrationSettings{Source: "db/migrations"},
		},
		{
			name:   "history table and schema",
			source: "db/migrations",
			settings: map[string]string{
				"DB_HISTORY_TABLE":  "history",
				"DB_HISTORY_SCHEMA": "meta",
			},
			want: &MigrationSettings{Source: "db/migrations", HistoryTable: "history", HistorySchema: "meta"},
		},
		{
			name:   "history table without schema",
			source: "db/migrations",
			settings: map[string]string{
				"DB_HISTORY_TABLE": "history",
			},
			want: &MigrationSettings{Source: "db/migrations", HistoryTable: "history"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := NewFactory(lookup(tt.settings), Options{MigrationsSource: tt.source}).Resolve()
			require.NoError(t, err)
			assert.Equal(t, tt.want, reg.Migrations)
		})
	}
}

func TestFactory_Resolve_CustomVars(t *testing.T) {
	vars := dbconfig.EnvVariables{Host: "APP_DB_HOST"}
	f := NewFactory(lookup(map[string]string{"APP_DB_HOST": "custom", "DB_HOST": "ignored"}), Options{Vars: &vars})

	reg, err := f.Resolve()
	require.NoError(t, err)
	assert.Contains(t, reg.ConnectionString, "Host=custom")
}

func TestFactory_Resolve_PropagatesConfigurationError(t *testing.T) {
	f := NewFactory(lookup(map[string]string{"DB_PORT": "qwerty"}), Options{})

	_, err := f.Resolve()
	assert.ErrorIs(t, err, dbconfig.ErrConfiguration)
}

func TestFactory_Open(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	got := stubOpenDB(t, mockDB)

	f := NewFactory(lookup(nil), Options{MigrationsSource: "db/migrations"})
	dbCtx, err := f.Open(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "localhost", got.Host)
	assert.Equal(t, uint16(5432), got.Port)
	assert.Equal(t, "orders", got.Database)
	assert.Equal(t, "app", got.User)
	assert.Equal(t, "secret", got.Password)
	assert.True(t, IsPostgres(dbCtx.DB))
	assert.Equal(t, "db/migrations", dbCtx.Registration.Migrations.Source)

	mock.ExpectClose()
	require.NoError(t, dbCtx.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFactory_Open_ContextOnlyBoundsConnect(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	stubOpenDB(t, mockDB)

	ctx, cancel := context.WithCancel(context.Background())
	dbCtx, err := NewFactory(lookup(nil), Options{}).Open(ctx)
	require.NoError(t, err)
	cancel()

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))

	var one int
	require.NoError(t, dbCtx.DB.Raw("SELECT 1").Row().Scan(&one))
	assert.Equal(t, 1, one)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFactory_Open_PingFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	stubOpenDB(t, mockDB)

	mock.ExpectClose()
	require.NoError(t, mockDB.Close())

	_, err = NewFactory(lookup(nil), Options{}).Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to database")
}

func TestFactory_Open_InvalidSettings(t *testing.T) {
	l := config.MapLookup{ConnectionStrings: map[string]string{"db": "Host=h;Port=abc"}}

	_, err := NewFactory(l, Options{}).Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid connection settings")
}

func TestIsPostgres(t *testing.T) {
	db, _ := setupTestDB(t)
	assert.True(t, IsPostgres(db))
	assert.False(t, IsPostgres(nil))
}

func TestLogLevelFromEnv(t *testing.T) {
	t.Setenv(LogLevelVar, "DEBUG")
	assert.Equal(t, logger.Info, LogLevelFromEnv())

	t.Setenv(LogLevelVar, "info")
	assert.Equal(t, logger.Silent, LogLevelFromEnv())
}
