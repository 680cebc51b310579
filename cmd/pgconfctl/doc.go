// Command pgconfctl resolves PostgreSQL connection settings and manages the
// database they point at.
//
// # Quick Start
//
//	# Show where every setting comes from
//	pgconfctl configuration show
//
//	# Print the effective connection string
//	DB_HOST=replica pgconfctl resolve
//
//	# Check connectivity
//	pgconfctl db ping
//
//	# Run database migrations
//	DB_HISTORY_TABLE=__migrations pgconfctl db migrate --migrations db/migrations
//
// # Environment Variables
//
//   - PGCONF_CONFIG_PATH: directory holding pgconf.yml (default /etc/pgconf)
//   - PGCONF_ENV_FILE: dotenv file read before the environment
//   - PGCONF_LOG_LEVEL: "debug" logs every SQL statement
//   - ConnectionStrings__<name>: a named connection string
//   - DB, DB_HOST, DB_PORT, DB_NAME, DB_USER, DB_PWD: connection overrides
//   - DB_HISTORY_TABLE, DB_HISTORY_SCHEMA: migrations history table
//
// The names of the override variables can be changed with the --*-var flags
// or PGCONFCTL_*_VAR variables.
package main
