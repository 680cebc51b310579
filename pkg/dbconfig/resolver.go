package dbconfig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/doodlesbykumbi/pgconf/pkg/connstr"
)

// fieldPolicy describes one overridable connection field. A blank key
// disables the override; a blank value is fatal unless the key is the
// conventional default, in which case it means "keep the base value".
type fieldPolicy struct {
	key        string
	defaultKey string
	label      string
	apply      func(cs *connstr.ConnectionString, key, value string) error
}

func fieldPolicies(vars EnvVariables) []fieldPolicy {
	return []fieldPolicy{
		{key: vars.Host, defaultKey: DefaultHostVar, label: "db host", apply: setHost},
		{key: vars.Port, defaultKey: DefaultPortVar, label: "db port", apply: setPort},
		{key: vars.Database, defaultKey: DefaultDatabaseVar, label: "db name", apply: setDatabase},
		{key: vars.User, defaultKey: DefaultUserVar, label: "db user name", apply: setUsername},
		{key: vars.Password, defaultKey: DefaultPasswordVar, label: "db password", apply: setPassword},
	}
}

// value reads the override for p. An empty result means no override.
func (p fieldPolicy) value(lookup Lookup) (string, error) {
	if isBlank(p.key) {
		return "", nil
	}
	v, _ := lookup.Get(p.key)
	if isBlank(v) {
		if p.key != p.defaultKey {
			return "", &ConfigurationError{
				Key:     p.key,
				Message: fmt.Sprintf("There is no %s in the environment variable '%s'", p.label, p.key),
			}
		}
		return "", nil
	}
	return v, nil
}

// Resolve builds the final connection string and migration history settings.
// A nil vars uses DefaultEnvVariables. The first invalid setting aborts
// resolution; no partial result is returned.
func Resolve(lookup Lookup, vars *EnvVariables) (*Result, error) {
	if lookup == nil {
		return nil, &ArgumentError{Name: "lookup"}
	}
	names := DefaultEnvVariables()
	if vars != nil {
		names = *vars
	}

	name, err := connectionStringName(lookup, names.Connection)
	if err != nil {
		return nil, err
	}
	raw, _ := lookup.ConnectionString(name)
	if isBlank(raw) {
		return nil, newMissingConnectionString(name)
	}
	cs, err := connstr.Parse(raw)
	if err != nil {
		return nil, &ConfigurationError{
			Key:     name,
			Message: fmt.Sprintf("Connection string with name '%s' is malformed", name),
			Err:     err,
		}
	}

	for _, p := range fieldPolicies(names) {
		v, err := p.value(lookup)
		if err != nil {
			return nil, err
		}
		if v == "" {
			continue
		}
		if err := p.apply(cs, p.key, v); err != nil {
			return nil, err
		}
	}

	return &Result{
		ConnectionString: cs.String(),
		HistoryTable:     historyTable(lookup, names.HistoryTable),
		HistorySchema:    historySchema(lookup, names.HistorySchema),
	}, nil
}

func connectionStringName(lookup Lookup, key string) (string, error) {
	if isBlank(key) {
		return DefaultConnectionStringName, nil
	}
	name, _ := lookup.Get(key)
	if !isBlank(name) {
		return name, nil
	}
	if key != DefaultConnectionVar {
		return "", &ConfigurationError{
			Key:     key,
			Message: fmt.Sprintf("There is no connection string name in the environment variable '%s'", key),
		}
	}
	return DefaultConnectionStringName, nil
}

func historyTable(lookup Lookup, key string) *string {
	if isBlank(key) {
		return nil
	}
	table, ok := lookup.Get(key)
	if !ok {
		return nil
	}
	return &table
}

func historySchema(lookup Lookup, key string) *string {
	if isBlank(key) {
		return nil
	}
	schema, ok := lookup.Get(key)
	if isBlank(schema) && key != DefaultHistorySchemaVar {
		schema = FallbackHistorySchema
	} else if !ok {
		return nil
	}
	return &schema
}

func setHost(cs *connstr.ConnectionString, _, value string) error {
	cs.SetHost(value)
	return nil
}

func setPort(cs *connstr.ConnectionString, key, value string) error {
	port, err := strconv.ParseInt(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return &ConfigurationError{Key: key, Message: wrongPortMessage(key), Err: err}
	}
	if port <= 0 {
		return &ConfigurationError{Key: key, Message: wrongPortMessage(key)}
	}
	cs.SetPort(int(port))
	return nil
}

func wrongPortMessage(key string) string {
	return fmt.Sprintf("There is wrong value in the environment variable '%s'. Must be a positive integer", key)
}

func setDatabase(cs *connstr.ConnectionString, _, value string) error {
	cs.SetDatabase(value)
	return nil
}

func setUsername(cs *connstr.ConnectionString, _, value string) error {
	cs.SetUsername(value)
	return nil
}

func setPassword(cs *connstr.ConnectionString, _, value string) error {
	cs.SetPassword(value)
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
