// Package db opens PostgreSQL databases through GORM using connection settings
// resolved by package dbconfig.
//
// # Connection
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	factory := db.NewFactory(cfg, db.Options{MigrationsSource: "db/migrations"})
//	dbCtx, err := factory.Open(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dbCtx.Close()
//
// Factory.Resolve returns the Registration without connecting, which is what
// the migration runner and the CLI's resolve command use.
//
// # Environment Variables
//
//   - DB, DB_HOST, DB_PORT, DB_NAME, DB_USER, DB_PWD: see package dbconfig
//   - DB_HISTORY_TABLE, DB_HISTORY_SCHEMA: migrations history table
//   - PGCONF_LOG_LEVEL: Set to "debug" for SQL query logging
//
// # Lookups
//
// FindByID and FindBy wrap gorm queries and report missing rows as
// *ObjectNotFoundError, which still matches gorm.ErrRecordNotFound.
package db
