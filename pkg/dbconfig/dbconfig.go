package dbconfig

// Conventional configuration key names, used when no EnvVariables are given.
const (
	DefaultConnectionVar    = "DB"
	DefaultHostVar          = "DB_HOST"
	DefaultPortVar          = "DB_PORT"
	DefaultDatabaseVar      = "DB_NAME"
	DefaultUserVar          = "DB_USER"
	DefaultPasswordVar      = "DB_PWD"
	DefaultHistoryTableVar  = "DB_HISTORY_TABLE"
	DefaultHistorySchemaVar = "DB_HISTORY_SCHEMA"
)

const (
	// DefaultConnectionStringName is the connection string used when the
	// selector variable is unset.
	DefaultConnectionStringName = "db"
	// ConnectionStringsSection is the configuration section holding named
	// connection strings.
	ConnectionStringsSection = "ConnectionStrings"
	// FallbackHistorySchema is used when a custom history schema variable
	// resolves to nothing.
	FallbackHistorySchema = "public"
)

// Lookup is the configuration source the resolver reads from. Get returns
// plain settings (conventionally environment variables); ConnectionString
// returns entries of the ConnectionStrings section.
type Lookup interface {
	Get(key string) (string, bool)
	ConnectionString(name string) (string, bool)
}

// EnvVariables names the configuration keys that supply each overridable
// field. An empty name disables the corresponding override.
type EnvVariables struct {
	// Connection holds the name of the connection string to use.
	Connection string
	Host       string
	Port       string
	Database   string
	User       string
	Password   string
	// HistoryTable and HistorySchema name the migrations history table.
	HistoryTable  string
	HistorySchema string
}

// DefaultEnvVariables returns the conventional key names.
func DefaultEnvVariables() EnvVariables {
	return EnvVariables{
		Connection:    DefaultConnectionVar,
		Host:          DefaultHostVar,
		Port:          DefaultPortVar,
		Database:      DefaultDatabaseVar,
		User:          DefaultUserVar,
		Password:      DefaultPasswordVar,
		HistoryTable:  DefaultHistoryTableVar,
		HistorySchema: DefaultHistorySchemaVar,
	}
}

// Result is the outcome of a resolution. HistoryTable and HistorySchema are
// nil when the corresponding variable name is not configured or the lookup
// has no such key.
type Result struct {
	ConnectionString string
	HistoryTable     *string
	HistorySchema    *string
}
