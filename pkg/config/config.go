package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/doodlesbykumbi/pgconf/pkg/connstr"
	"github.com/doodlesbykumbi/pgconf/pkg/dbconfig"
)

const (
	DefaultConfigPath = "/etc/pgconf"
	ConfigFileName    = "pgconf.yml"
	EnvFileName       = ".env"

	// ConfigPathVar and EnvFileVar are read from the process environment to
	// locate the config directory and the dotenv file.
	ConfigPathVar = "PGCONF_CONFIG_PATH"
	EnvFileVar    = "PGCONF_ENV_FILE"
)

const maskedValue = "******"

// Config holds settings and named connection strings merged from every
// source, with the source each value was read from. Keys are
// case-insensitive.
type Config struct {
	settings          map[string]entry
	connectionStrings map[string]entry

	configFilePath string
	envFilePath    string
}

type entry struct {
	name   string
	value  string
	source Source
}

// Attribute represents a configuration value together with its source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source Source `json:"source"`
}

type fileConfig struct {
	ConnectionStrings map[string]string `yaml:"connection_strings"`
	Settings          map[string]string `yaml:"settings"`
}

// LoadOptions overrides where Load looks for its sources. Zero values fall
// back to the process environment.
type LoadOptions struct {
	ConfigPath string
	EnvFile    string
	// Environ uses "KEY=value" entries instead of os.Environ().
	Environ []string
}

func newConfig() *Config {
	return &Config{
		settings:          make(map[string]entry),
		connectionStrings: make(map[string]entry),
	}
}

// Load reads the config file, the dotenv file and the process environment.
func Load() (*Config, error) {
	return LoadWith(LoadOptions{})
}

// LoadWith is Load with explicit locations.
func LoadWith(opts LoadOptions) (*Config, error) {
	c := newConfig()

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = os.Getenv(ConfigPathVar)
	}
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	c.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(c.configFilePath); err == nil {
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", c.configFilePath, err)
		}
		c.applyFileConfig(&file)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file %s: %w", c.configFilePath, err)
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = os.Getenv(EnvFileVar)
	}
	required := envFile != ""
	if envFile == "" {
		envFile = filepath.Join(configPath, EnvFileName)
	}
	if _, err := os.Stat(envFile); err == nil || required {
		values, err := godotenv.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", envFile, err)
		}
		c.envFilePath = envFile
		c.applyPairs(values, SourceDotenv)
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	c.applyPairs(splitEnviron(environ), SourceEnvironment)

	return c, nil
}

func (c *Config) applyFileConfig(file *fileConfig) {
	for name, value := range file.ConnectionStrings {
		c.setConnectionString(name, value, SourceFile)
	}
	for key, value := range file.Settings {
		c.setSetting(key, value, SourceFile)
	}
}

func (c *Config) applyPairs(values map[string]string, source Source) {
	for key, value := range values {
		if name, ok := connectionStringKey(key); ok {
			c.setConnectionString(name, value, source)
			continue
		}
		c.setSetting(key, value, source)
	}
}

func (c *Config) setSetting(key, value string, source Source) {
	c.settings[strings.ToLower(key)] = entry{name: key, value: value, source: source}
}

func (c *Config) setConnectionString(name, value string, source Source) {
	c.connectionStrings[strings.ToLower(name)] = entry{name: name, value: value, source: source}
}

// connectionStringKey recognizes ConnectionStrings__<name> and
// ConnectionStrings:<name>.
func connectionStringKey(key string) (string, bool) {
	prefix := strings.ToLower(dbconfig.ConnectionStringsSection)
	lower := strings.ToLower(key)
	for _, sep := range []string{"__", ":"} {
		if strings.HasPrefix(lower, prefix+sep) && len(key) > len(prefix)+len(sep) {
			return key[len(prefix)+len(sep):], true
		}
	}
	return "", false
}

func splitEnviron(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		values[key] = value
	}
	return values
}

// Get returns a plain setting.
func (c *Config) Get(key string) (string, bool) {
	e, ok := c.settings[strings.ToLower(key)]
	return e.value, ok
}

// ConnectionString returns a named entry of the ConnectionStrings section.
func (c *Config) ConnectionString(name string) (string, bool) {
	e, ok := c.connectionStrings[strings.ToLower(name)]
	return e.value, ok
}

// ConfigFilePath returns the path to the config file
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// EnvFilePath returns the dotenv file that was read, if any.
func (c *Config) EnvFilePath() string {
	return c.envFilePath
}

// Source returns the source of a setting
func (c *Config) Source(key string) Source {
	if e, ok := c.settings[strings.ToLower(key)]; ok {
		return e.source
	}
	return SourceDefault
}

// Attributes returns the settings named by vars followed by every
// connection string. Passwords are masked.
func (c *Config) Attributes(vars dbconfig.EnvVariables) []Attribute {
	keys := []struct {
		key    string
		secret bool
	}{
		{vars.Connection, false},
		{vars.Host, false},
		{vars.Port, false},
		{vars.Database, false},
		{vars.User, false},
		{vars.Password, true},
		{vars.HistoryTable, false},
		{vars.HistorySchema, false},
	}

	var attrs []Attribute
	for _, k := range keys {
		if strings.TrimSpace(k.key) == "" {
			continue
		}
		attr := Attribute{Name: k.key, Source: SourceDefault}
		if e, ok := c.settings[strings.ToLower(k.key)]; ok {
			attr.Value, attr.Source = e.value, e.source
			if k.secret && e.value != "" {
				attr.Value = maskedValue
			}
		}
		attrs = append(attrs, attr)
	}

	names := make([]string, 0, len(c.connectionStrings))
	for name := range c.connectionStrings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e := c.connectionStrings[name]
		attrs = append(attrs, Attribute{
			Name:   dbconfig.ConnectionStringsSection + ":" + e.name,
			Value:  redact(e.value),
			Source: e.source,
		})
	}
	return attrs
}

func redact(value string) string {
	cs, err := connstr.Parse(value)
	if err != nil {
		return "(malformed)"
	}
	return cs.Redacted()
}

// FormatText returns a text representation of the configuration
func (c *Config) FormatText(vars dbconfig.EnvVariables) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n", c.configFilePath))
	if c.envFilePath != "" {
		sb.WriteString(fmt.Sprintf("Env file: %s\n", c.envFilePath))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%-40s %-50s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-40s %-50s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes(vars) {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-40s %-50s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *Config) FormatJSON(vars dbconfig.EnvVariables) (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"env_file":    c.envFilePath,
		"attributes":  c.Attributes(vars),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
