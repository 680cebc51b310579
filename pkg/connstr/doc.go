// Package connstr parses and rewrites PostgreSQL connection strings in the
// semicolon-separated keyword/value form:
//
//	Host=192.168.1.1;Port=5430;Database=test;Username=u;Password=p
//
// Keywords are case-insensitive and the common synonyms (Server, User Id,
// Pwd, ...) address the same field. Serialization keeps every keyword in its
// original position and spelling so a parse/rewrite/serialize cycle only
// changes the fields that were explicitly set.
//
// # Conversions
//
// Parse also accepts postgres:// URLs (converted with lib/pq), and DSN renders
// the libpq form understood by pgx and gorm:
//
//	cs, err := connstr.Parse(raw)
//	if err != nil {
//	    return err
//	}
//	cs.SetHost("localhost")
//	dsn := cs.DSN() // host=localhost port=5430 dbname=test user=u password=p
package connstr
