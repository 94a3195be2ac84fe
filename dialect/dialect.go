// Package dialect describes the SQL dialects commands are compiled for.
//
// Dialect differences are expressed as data wherever possible: every dialect is a
// Capabilities table consumed read-only by the statement generators in query/sqlgen.
// Only quoting and placeholder rebinding are strategy functions.
package dialect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-version"
)

// Name identifies a dialect.
type Name string

const (
	// MySQL dialect (also MariaDB).
	MySQL Name = "mysql"
	// Postgres dialect.
	Postgres Name = "postgres"
	// SQLite dialect.
	SQLite Name = "sqlite"
	// SQLServer dialect (Microsoft SQL Server).
	SQLServer Name = "sqlserver"
)

// Dialect is the capability table plus the few behaviors that genuinely diverge.
type Dialect interface {
	// Name returns the dialect name.
	Name() Name

	// Version returns the server version the capabilities were derived from,
	// or nil when it is unknown.
	Version() *version.Version

	// Capabilities returns the static capability table.
	Capabilities() *Capabilities

	// QuoteIdentifier quotes a table, column, index or database name.
	// Dotted names are quoted per part.
	QuoteIdentifier(name string) string

	// QuoteValue renders a value as a SQL literal. It is only used where the
	// dialect has no bind-parameter form (DDL defaults).
	QuoteValue(v any) string

	// Rebind rewrites the ? placeholders of a finished statement into the
	// driver's native placeholder syntax.
	Rebind(query string) string

	// SkipQuoted reports whether s[i] opens a string literal or quoted
	// identifier and returns the index just past it.
	SkipQuoted(s string, i int) (int, bool)
}

// New returns the dialect with the given name, its capabilities derived from the
// server version. An empty version selects the capabilities of current releases.
func New(name Name, serverVersion string) (Dialect, error) {
	var v *version.Version
	if serverVersion != "" {
		parsed, err := ParseVersion(serverVersion)
		if err != nil {
			return nil, err
		}
		v = parsed
	}
	switch name {
	case MySQL:
		return newMySQL(v), nil
	case Postgres:
		return newPostgres(v), nil
	case SQLite:
		return newSQLite(v), nil
	case SQLServer:
		return newSQLServer(v), nil
	default:
		return nil, fmt.Errorf("dialect: unsupported dialect %q", name)
	}
}

// MustNew is like New but panics on error.
func MustNew(name Name, serverVersion string) Dialect {
	d, err := New(name, serverVersion)
	if err != nil {
		panic(err)
	}
	return d
}

// ForDriver maps a database/sql driver name to its dialect name.
func ForDriver(driverName string) (Name, error) {
	switch strings.ToLower(driverName) {
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "sqlserver", "mssql":
		return SQLServer, nil
	default:
		return "", fmt.Errorf("dialect: no dialect for driver %q", driverName)
	}
}

// DriverName returns the database/sql driver name used to open connections.
func DriverName(name Name) string {
	switch name {
	case SQLite:
		return "sqlite3"
	default:
		return string(name)
	}
}

var versionRe = regexp.MustCompile(`\d+(\.\d+)*`)

// ParseVersion extracts the leading version number of a server version banner,
// e.g. "15.3 (Debian 15.3-1.pgdg120+1)" or "8.0.32-0ubuntu0.22.04.2".
func ParseVersion(banner string) (*version.Version, error) {
	m := versionRe.FindString(banner)
	if m == "" {
		return nil, fmt.Errorf("dialect: no version number in %q", banner)
	}
	v, err := version.NewVersion(m)
	if err != nil {
		return nil, fmt.Errorf("dialect: parse version %q: %w", banner, err)
	}
	return v, nil
}

// atLeast reports whether v is unknown or not older than min.
func atLeast(v *version.Version, min string) bool {
	if v == nil {
		return true
	}
	return v.GreaterThanOrEqual(version.Must(version.NewVersion(min)))
}

// base is the shared Dialect implementation; dialects differ by data and by the
// strategy functions they plug in.
type base struct {
	name        Name
	version     *version.Version
	caps        Capabilities
	quoteIdent  func(string) string
	quoteString func(string) string
	quoteBytes  func([]byte) string
	placeholder func(n int) string
}

func (b *base) Name() Name                  { return b.name }
func (b *base) Version() *version.Version   { return b.version }
func (b *base) Capabilities() *Capabilities { return &b.caps }

func (b *base) QuoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = b.quoteIdent(p)
	}
	return strings.Join(parts, ".")
}

func (b *base) Rebind(query string) string {
	if b.placeholder == nil {
		return query
	}
	var (
		sb strings.Builder
		n  int
	)
	sb.Grow(len(query) + 8)
	for i := 0; i < len(query); {
		if end, ok := b.SkipQuoted(query, i); ok {
			sb.WriteString(query[i:end])
			i = end
			continue
		}
		if query[i] == '?' {
			n++
			sb.WriteString(b.placeholder(n))
		} else {
			sb.WriteByte(query[i])
		}
		i++
	}
	return sb.String()
}

var _ Dialect = (*base)(nil)
