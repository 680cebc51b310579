// Package config provides the configuration sources read by the resolver.
//
// # Configuration Sources
//
// Config merges, in increasing precedence:
//
//   - the YAML file pgconf.yml in PGCONF_CONFIG_PATH (default /etc/pgconf)
//   - a dotenv file (.env next to pgconf.yml, or PGCONF_ENV_FILE)
//   - the process environment
//
// The YAML file has two sections:
//
//	connection_strings:
//	  db: "Host=db.internal;Port=5432;Database=orders;Username=app"
//	settings:
//	  DB_HOST: localhost
//
// In dotenv files and the environment, ConnectionStrings__<name> (or
// ConnectionStrings:<name>) sets a connection string; every other variable
// is a setting.
//
// MapLookup, EnvLookup and ViperLookup are lighter dbconfig.Lookup
// implementations for tests, bare environments and viper-based programs.
package config
