package migrations

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/doodlesbykumbi/pgconf/pkg/db"
)

func TestSourceURL(t *testing.T) {
	t.Run("url is kept", func(t *testing.T) {
		u, err := sourceURL("file:///srv/migrations")
		require.NoError(t, err)
		assert.Equal(t, "file:///srv/migrations", u)
	})

	t.Run("relative path", func(t *testing.T) {
		u, err := sourceURL("db/migrations")
		require.NoError(t, err)
		abs, err := filepath.Abs("db/migrations")
		require.NoError(t, err)
		assert.Equal(t, "file://"+filepath.ToSlash(abs), u)
		assert.True(t, strings.HasSuffix(u, "/db/migrations"))
	})

	t.Run("blank", func(t *testing.T) {
		_, err := sourceURL("  ")
		assert.Error(t, err)
	})
}

func TestOpen_NoMigrations(t *testing.T) {
	_, err := Open(nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoMigrations)

	_, err = Open(&db.Registration{DSN: "host=localhost"}, nil, nil)
	assert.ErrorIs(t, err, ErrNoMigrations)
}

type fakeMigrator struct {
	upErr      error
	steps      []int
	stepsErr   error
	version    uint
	dirty      bool
	versionErr error
	srcErr     error
	dbErr      error
}

func (f *fakeMigrator) Up() error { return f.upErr }

func (f *fakeMigrator) Steps(n int) error {
	f.steps = append(f.steps, n)
	return f.stepsErr
}

func (f *fakeMigrator) Version() (uint, bool, error) {
	return f.version, f.dirty, f.versionErr
}

func (f *fakeMigrator) Close() (error, error) { return f.srcErr, f.dbErr }

func newTestRunner(m *fakeMigrator) *Runner {
	return &Runner{m: m, logger: zap.NewNop()}
}

func TestRunner_Up(t *testing.T) {
	tests := []struct {
		name    string
		upErr   error
		wantErr string
	}{
		{name: "applied"},
		{name: "no change", upErr: migrate.ErrNoChange},
		{name: "no migration files", upErr: &fs.PathError{Op: "open", Path: "db/migrations", Err: os.ErrNotExist}},
		{name: "dirty", upErr: migrate.ErrDirty{Version: 3}, wantErr: "migration failed: dirty database version 3"},
		{name: "other failure", upErr: errors.New("syntax error at or near"), wantErr: "migration failed: syntax error at or near"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newTestRunner(&fakeMigrator{upErr: tt.upErr}).Up()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestRunner_Down(t *testing.T) {
	for _, steps := range []int{0, -1} {
		m := &fakeMigrator{}
		err := newTestRunner(m).Down(steps)
		assert.ErrorContains(t, err, "steps must be a positive integer")
		assert.Empty(t, m.steps)
	}

	m := &fakeMigrator{}
	require.NoError(t, newTestRunner(m).Down(2))
	assert.Equal(t, []int{-2}, m.steps)

	m = &fakeMigrator{stepsErr: os.ErrNotExist}
	err := newTestRunner(m).Down(1)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorContains(t, err, "rollback failed")
}

func TestRunner_Status(t *testing.T) {
	tests := []struct {
		name    string
		m       *fakeMigrator
		want    Status
		wantErr bool
	}{
		{
			name: "never migrated",
			m:    &fakeMigrator{versionErr: migrate.ErrNilVersion},
			want: Status{},
		},
		{
			name: "applied",
			m:    &fakeMigrator{version: 4},
			want: Status{Applied: true, Version: 4},
		},
		{
			name: "dirty",
			m:    &fakeMigrator{version: 5, dirty: true},
			want: Status{Applied: true, Version: 5, Dirty: true},
		},
		{
			name:    "query failure",
			m:       &fakeMigrator{versionErr: errors.New("connection reset")},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newTestRunner(tt.m).Status()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunner_Close(t *testing.T) {
	srcErr := errors.New("source closed")
	dbErr := errors.New("database closed")

	err := newTestRunner(&fakeMigrator{srcErr: srcErr, dbErr: dbErr}).Close()
	assert.ErrorIs(t, err, srcErr)
	assert.ErrorIs(t, err, dbErr)

	assert.NoError(t, newTestRunner(&fakeMigrator{}).Close())
}

func TestNew_CreatesHistorySchema(t *testing.T) {
	t.Run("create fails", func(t *testing.T) {
		mockDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer mockDB.Close()

		mock.ExpectExec(regexp.QuoteMeta(`CREATE SCHEMA IF NOT EXISTS "meta"`)).
			WillReturnError(errors.New("permission denied"))

		_, err = New(mockDB, Config{Source: "db/migrations", HistorySchema: "meta"})
		assert.ErrorContains(t, err, "failed to create schema meta")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver setup fails after create", func(t *testing.T) {
		mockDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer mockDB.Close()

		mock.ExpectExec(regexp.QuoteMeta(`CREATE SCHEMA IF NOT EXISTS "meta"`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT CURRENT_DATABASE()")).
			WillReturnError(errors.New("connection reset"))

		_, err = New(mockDB, Config{Source: "db/migrations", HistorySchema: "meta"})
		assert.ErrorContains(t, err, "failed to create postgres driver instance")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no schema skips create", func(t *testing.T) {
		mockDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer mockDB.Close()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT CURRENT_DATABASE()")).
			WillReturnError(errors.New("connection reset"))

		_, err = New(mockDB, Config{Source: "db/migrations"})
		assert.ErrorContains(t, err, "failed to create postgres driver instance")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func expectDriverSetup(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT CURRENT_DATABASE()")).
		WillReturnRows(sqlmock.NewRows([]string{"current_database"}).AddRow("orders"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT CURRENT_SCHEMA()")).
		WillReturnRows(sqlmock.NewRows([]string{"current_schema"}).AddRow("public"))
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_lock($1)")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(1) FROM information_schema.tables")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_unlock($1)")).
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestNew_StatusFromHistoryTable(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	expectDriverSetup(mock)

	fsys := fstest.MapFS{
		"1_create_widgets.up.sql":   {Data: []byte("CREATE TABLE widgets (id serial primary key);")},
		"1_create_widgets.down.sql": {Data: []byte("DROP TABLE widgets;")},
	}
	r, err := New(mockDB, Config{FS: fsys})
	require.NoError(t, err)

	versionQuery := regexp.QuoteMeta(`SELECT version, dirty FROM "public"."schema_migrations" LIMIT 1`)

	mock.ExpectQuery(versionQuery).
		WillReturnRows(sqlmock.NewRows([]string{"version", "dirty"}))
	status, err := r.Status()
	require.NoError(t, err)
	assert.Equal(t, Status{}, status)

	mock.ExpectQuery(versionQuery).
		WillReturnRows(sqlmock.NewRows([]string{"version", "dirty"}).AddRow(1, false))
	status, err = r.Status()
	require.NoError(t, err)
	assert.Equal(t, Status{Applied: true, Version: 1}, status)

	assert.ErrorContains(t, r.Down(0), "steps must be a positive integer")

	mock.ExpectClose()
	require.NoError(t, r.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
