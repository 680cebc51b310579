// Package dbconfig resolves the PostgreSQL connection string and migration
// history settings for a database context.
//
// A base connection string is selected by name from the ConnectionStrings
// section, then individual fields are overridden from plain configuration
// keys, conventionally populated from environment variables.
//
// # Default Keys
//
//   - DB: name of the connection string to use (default "db")
//   - DB_HOST, DB_PORT, DB_NAME, DB_USER, DB_PWD: field overrides
//   - DB_HISTORY_TABLE, DB_HISTORY_SCHEMA: migrations history table
//
// A blank value under a default key means "no override". When a caller
// supplies custom key names through EnvVariables, a blank value is an error,
// except for the history schema which falls back to "public".
//
// # Usage
//
//	res, err := dbconfig.Resolve(lookup, &dbconfig.EnvVariables{
//	    Connection: "ORDERS_DB",
//	    Host:       "ORDERS_DB_HOST",
//	})
//	if err != nil {
//	    var missing *dbconfig.MissingConnectionStringError
//	    if errors.As(err, &missing) {
//	        log.Fatalf("no connection string %q", missing.Key)
//	    }
//	    log.Fatal(err)
//	}
//
// Resolve never opens a connection; see package db for that.
package dbconfig
