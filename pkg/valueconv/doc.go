// Package valueconv provides column types that normalize values on their way
// to and from PostgreSQL.
//
//   - EnumText / NullEnumText store enumerations as snake_case text.
//   - UTCTime / NullUTCTime force timestamps to UTC.
//
// The types implement sql.Scanner and driver.Valuer, so they work with plain
// database/sql as well as gorm models:
//
//	type Deployment struct {
//	    ID        uint
//	    Stage     valueconv.EnumText[Stage]
//	    StartedAt valueconv.UTCTime
//	    EndedAt   valueconv.NullUTCTime
//	}
package valueconv
