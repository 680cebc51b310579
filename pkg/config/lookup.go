package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/doodlesbykumbi/pgconf/pkg/dbconfig"
)

// MapLookup is an in-memory dbconfig.Lookup.
type MapLookup struct {
	Settings          map[string]string
	ConnectionStrings map[string]string
}

func (m MapLookup) Get(key string) (string, bool) {
	v, ok := m.Settings[key]
	return v, ok
}

func (m MapLookup) ConnectionString(name string) (string, bool) {
	v, ok := m.ConnectionStrings[name]
	return v, ok
}

// EnvLookup reads the process environment only. Connection strings come from
// ConnectionStrings__<name> variables.
type EnvLookup struct{}

func (EnvLookup) Get(key string) (string, bool) {
	return os.LookupEnv(key)
}

func (EnvLookup) ConnectionString(name string) (string, bool) {
	return os.LookupEnv(dbconfig.ConnectionStringsSection + "__" + name)
}

// ViperLookup adapts a viper instance. Connection strings are read from the
// ConnectionStrings map, e.g. ConnectionStrings.db.
type ViperLookup struct {
	V *viper.Viper
}

// NewViperLookup wraps v, or the global viper instance when v is nil.
func NewViperLookup(v *viper.Viper) ViperLookup {
	if v == nil {
		v = viper.GetViper()
	}
	return ViperLookup{V: v}
}

func (l ViperLookup) Get(key string) (string, bool) {
	if !l.V.IsSet(key) {
		return "", false
	}
	return l.V.GetString(key), true
}

func (l ViperLookup) ConnectionString(name string) (string, bool) {
	key := strings.ToLower(dbconfig.ConnectionStringsSection) + "." + strings.ToLower(name)
	if !l.V.IsSet(key) {
		return "", false
	}
	return l.V.GetString(key), true
}
