package connstr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// ErrSyntax is returned (wrapped) when a connection string cannot be parsed.
var ErrSyntax = errors.New("connection string syntax error")

// Canonical keyword spellings used when a field is added to a connection
// string that did not carry it before.
const (
	KeyHost     = "Host"
	KeyPort     = "Port"
	KeyDatabase = "Database"
	KeyUsername = "Username"
	KeyPassword = "Password"
)

// synonyms maps a normalized keyword to the canonical field it addresses.
var synonyms = map[string]string{
	"host":     KeyHost,
	"server":   KeyHost,
	"port":     KeyPort,
	"database": KeyDatabase,
	"db":       KeyDatabase,
	"username": KeyUsername,
	"userid":   KeyUsername,
	"user":     KeyUsername,
	"uid":      KeyUsername,
	"password": KeyPassword,
	"pwd":      KeyPassword,
	"psw":      KeyPassword,
}

// libpqKeywords maps normalized keywords to their libpq/pgx equivalents.
// Keywords missing here are kept in String() but left out of DSN().
var libpqKeywords = map[string]string{
	"host":                    "host",
	"port":                    "port",
	"database":                "dbname",
	"username":                "user",
	"password":                "password",
	"sslmode":                 "sslmode",
	"timeout":                 "connect_timeout",
	"applicationname":         "application_name",
	"searchpath":              "search_path",
	"targetsessionattributes": "target_session_attrs",
}

// fromLibpq maps libpq keywords (as produced by pq.ParseURL) back to keyword form.
var fromLibpq = map[string]string{
	"host":                 KeyHost,
	"port":                 KeyPort,
	"dbname":               KeyDatabase,
	"user":                 KeyUsername,
	"password":             KeyPassword,
	"sslmode":              "SSL Mode",
	"connect_timeout":      "Timeout",
	"application_name":     "Application Name",
	"search_path":          "Search Path",
	"target_session_attrs": "Target Session Attributes",
}

type pair struct {
	key   string
	value string
}

// ConnectionString is an ordered set of keyword/value pairs in the
// "Host=...;Port=...;Database=..." format. Keywords are matched
// case-insensitively and through their synonyms; the original spelling and
// position of every keyword is preserved when the string is serialized.
type ConnectionString struct {
	pairs []pair
}

// Parse parses a keyword/value connection string. A postgres:// or
// postgresql:// URL is accepted as well and converted to keyword form.
func Parse(s string) (*ConnectionString, error) {
	trimmed := strings.TrimSpace(s)
	if isURL(trimmed) {
		return parseURL(trimmed)
	}

	pairs, err := parseKeywords(s)
	if err != nil {
		return nil, err
	}
	cs := &ConnectionString{}
	for _, p := range pairs {
		cs.Set(p.key, p.value)
	}
	return cs, nil
}

func isURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}

func parseURL(s string) (*ConnectionString, error) {
	kv, err := pq.ParseURL(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	pairs, err := parseLibpq(kv)
	if err != nil {
		return nil, err
	}

	cs := &ConnectionString{}
	for _, p := range pairs {
		key, ok := fromLibpq[p.key]
		if !ok {
			key = p.key
		}
		cs.Set(key, p.value)
	}
	return cs, nil
}

func parseKeywords(s string) ([]pair, error) {
	var pairs []pair
	i := 0
	for {
		for i < len(s) && (s[i] == ';' || isSpace(s[i])) {
			i++
		}
		if i >= len(s) {
			return pairs, nil
		}

		start := i
		for i < len(s) && s[i] != '=' && s[i] != ';' {
			i++
		}
		key := strings.TrimSpace(s[start:i])
		if i >= len(s) || s[i] == ';' {
			return nil, fmt.Errorf("%w: keyword %q has no value", ErrSyntax, key)
		}
		if key == "" {
			return nil, fmt.Errorf("%w: empty keyword at position %d", ErrSyntax, start)
		}
		i++

		for i < len(s) && isSpace(s[i]) {
			i++
		}

		var value string
		if i < len(s) && (s[i] == '"' || s[i] == '\'') {
			quote := s[i]
			i++
			var b strings.Builder
			closed := false
			for i < len(s) {
				if s[i] == quote {
					if i+1 < len(s) && s[i+1] == quote {
						b.WriteByte(quote)
						i += 2
						continue
					}
					i++
					closed = true
					break
				}
				b.WriteByte(s[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("%w: unterminated quoted value for %q", ErrSyntax, key)
			}
			for i < len(s) && isSpace(s[i]) {
				i++
			}
			if i < len(s) && s[i] != ';' {
				return nil, fmt.Errorf("%w: unexpected character after quoted value for %q", ErrSyntax, key)
			}
			value = b.String()
		} else {
			start := i
			for i < len(s) && s[i] != ';' {
				i++
			}
			value = strings.TrimSpace(s[start:i])
		}

		pairs = append(pairs, pair{key: key, value: value})
	}
}

// parseLibpq reads the space separated key='value' form emitted by pq.ParseURL.
func parseLibpq(s string) ([]pair, error) {
	var pairs []pair
	i := 0
	for {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			return pairs, nil
		}

		start := i
		for i < len(s) && s[i] != '=' {
			i++
		}
		if i >= len(s) {
			return nil, fmt.Errorf("%w: keyword %q has no value", ErrSyntax, s[start:])
		}
		key := strings.TrimSpace(s[start:i])
		i++

		var b strings.Builder
		if i < len(s) && s[i] == '\'' {
			i++
			closed := false
			for i < len(s) {
				c := s[i]
				if c == '\\' && i+1 < len(s) {
					b.WriteByte(s[i+1])
					i += 2
					continue
				}
				i++
				if c == '\'' {
					closed = true
					break
				}
				b.WriteByte(c)
			}
			if !closed {
				return nil, fmt.Errorf("%w: unterminated quoted value for %q", ErrSyntax, key)
			}
		} else {
			for i < len(s) && !isSpace(s[i]) {
				b.WriteByte(s[i])
				i++
			}
		}
		pairs = append(pairs, pair{key: key, value: b.String()})
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func normalize(key string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(key) {
		if r == ' ' || r == '_' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// canonical returns the identity under which a keyword is stored, folding
// synonyms onto the same field.
func canonical(key string) string {
	n := normalize(key)
	if c, ok := synonyms[n]; ok {
		return normalize(c)
	}
	return n
}

func (c *ConnectionString) index(key string) int {
	want := canonical(key)
	for i, p := range c.pairs {
		if canonical(p.key) == want {
			return i
		}
	}
	return -1
}

// Get returns the value of a keyword (or any of its synonyms).
func (c *ConnectionString) Get(key string) (string, bool) {
	if i := c.index(key); i >= 0 {
		return c.pairs[i].value, true
	}
	return "", false
}

// Set assigns a keyword. An existing keyword or synonym is rewritten in place
// with its original spelling; a new keyword is appended.
func (c *ConnectionString) Set(key, value string) {
	if i := c.index(key); i >= 0 {
		c.pairs[i].value = value
		return
	}
	c.pairs = append(c.pairs, pair{key: key, value: value})
}

// Keys returns the keywords in order of appearance.
func (c *ConnectionString) Keys() []string {
	keys := make([]string, len(c.pairs))
	for i, p := range c.pairs {
		keys[i] = p.key
	}
	return keys
}

func (c *ConnectionString) Host() string {
	v, _ := c.Get(KeyHost)
	return v
}

// Port returns the configured port and whether it is present and numeric.
func (c *ConnectionString) Port() (int, bool) {
	v, ok := c.Get(KeyPort)
	if !ok {
		return 0, false
	}
	port, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return port, true
}

func (c *ConnectionString) Database() string {
	v, _ := c.Get(KeyDatabase)
	return v
}

func (c *ConnectionString) Username() string {
	v, _ := c.Get(KeyUsername)
	return v
}

func (c *ConnectionString) Password() string {
	v, _ := c.Get(KeyPassword)
	return v
}

func (c *ConnectionString) SetHost(host string)         { c.Set(KeyHost, host) }
func (c *ConnectionString) SetPort(port int)            { c.Set(KeyPort, strconv.Itoa(port)) }
func (c *ConnectionString) SetDatabase(database string) { c.Set(KeyDatabase, database) }
func (c *ConnectionString) SetUsername(username string) { c.Set(KeyUsername, username) }
func (c *ConnectionString) SetPassword(password string) { c.Set(KeyPassword, password) }

// Clone returns an independent copy.
func (c *ConnectionString) Clone() *ConnectionString {
	pairs := make([]pair, len(c.pairs))
	copy(pairs, c.pairs)
	return &ConnectionString{pairs: pairs}
}

// String serializes the connection string back to keyword form.
func (c *ConnectionString) String() string {
	parts := make([]string, len(c.pairs))
	for i, p := range c.pairs {
		parts[i] = p.key + "=" + quoteKeyword(p.value)
	}
	return strings.Join(parts, ";")
}

// Redacted is String with the password masked.
func (c *ConnectionString) Redacted() string {
	clone := c.Clone()
	if _, ok := clone.Get(KeyPassword); ok {
		clone.SetPassword("***")
	}
	return clone.String()
}

// DSN renders the connection string in the libpq keyword/value form accepted
// by pgx and lib/pq.
func (c *ConnectionString) DSN() string {
	parts := make([]string, 0, len(c.pairs))
	for _, p := range c.pairs {
		kw, ok := libpqKeywords[canonical(p.key)]
		if !ok {
			continue
		}
		parts = append(parts, kw+"="+quoteLibpq(p.value))
	}
	return strings.Join(parts, " ")
}

func quoteKeyword(v string) string {
	needsQuote := strings.ContainsAny(v, ";=\"") ||
		strings.HasPrefix(v, "'") ||
		strings.TrimSpace(v) != v
	if !needsQuote {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

func quoteLibpq(v string) string {
	if v != "" && !strings.ContainsAny(v, " '\\\t\n") {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
