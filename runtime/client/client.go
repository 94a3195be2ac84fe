// Package client runs commands against a database session.
//
// A Client owns up to two pinned connections: the primary, opened on connect, and
// the replication master, opened on the first write when a master is configured.
// Commands are compiled by query/sqlgen and executed statement by statement; the
// client tracks nested transaction depth, the selected database and the last
// INSERT so that both connections see the same session.
//
// A Client is a single session and is not safe for concurrent use.
package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"

	"github.com/satishbabariya/dbcmd/dialect"
	"github.com/satishbabariya/dbcmd/internal/debug"
	"github.com/satishbabariya/dbcmd/query/command"
	"github.com/satishbabariya/dbcmd/query/sqlgen"
	"github.com/satishbabariya/dbcmd/telemetry"
)

// DefaultStmtCacheSize is the number of prepared statements kept per connection.
const DefaultStmtCacheSize = 64

type options struct {
	masterDSN     string
	masterDB      *sql.DB
	database      string
	largeResults  bool
	stmtCacheSize int
	slowThreshold time.Duration
	serverVersion string
	middlewares   []Middleware
}

// Option configures a Client.
type Option func(*options)

// WithMasterDSN configures the replication master writes are routed to.
func WithMasterDSN(dsn string) Option {
	return func(o *options) { o.masterDSN = dsn }
}

// WithMasterDB configures an already opened replication master pool. The client
// does not close it.
func WithMasterDB(db *sql.DB) Option {
	return func(o *options) { o.masterDB = db }
}

// WithDatabase selects a database right after connecting.
func WithDatabase(name string) Option {
	return func(o *options) { o.database = name }
}

// WithLargeResults streams query rows from the driver instead of buffering them.
func WithLargeResults(enable bool) Option {
	return func(o *options) { o.largeResults = enable }
}

// WithStmtCacheSize sets the prepared statement cache size per connection; zero
// disables the cache.
func WithStmtCacheSize(n int) Option {
	return func(o *options) { o.stmtCacheSize = n }
}

// WithSlowThreshold reports statements running longer than d.
func WithSlowThreshold(d time.Duration) Option {
	return func(o *options) { o.slowThreshold = d }
}

// WithServerVersion skips server version detection.
func WithServerVersion(v string) Option {
	return func(o *options) { o.serverVersion = v }
}

// WithMiddleware adds statement middlewares, outermost first.
func WithMiddleware(m ...Middleware) Option {
	return func(o *options) { o.middlewares = append(o.middlewares, m...) }
}

// Client is a database session.
type Client struct {
	d    dialect.Dialect
	opts options

	primary *Conn
	master  *Conn

	database   string
	depth      int
	bulkImport bool

	lastInsert *sqlgen.InsertTarget
	lastResult sql.Result
	lastConn   *Conn

	stats  *telemetry.QueryStats
	closed bool
}

// Open connects to dsn with the driver registered for the dialect.
func Open(ctx context.Context, name dialect.Name, dsn string, opts ...Option) (*Client, error) {
	db, err := sql.Open(dialect.DriverName(name), dsn)
	if err != nil {
		return nil, fmt.Errorf("client: open %s: %w", name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("client: connect %s: %w", name, err)
	}
	c, err := newClient(ctx, name, db, true, opts)
	if err != nil {
		return nil, err
	}
	if c.database == "" && name == dialect.MySQL {
		if cfg, err := mysql.ParseDSN(dsn); err == nil {
			c.database = cfg.DBName
		}
	}
	return c, nil
}

// NewFromDB starts a session on an existing pool. The client does not close db.
func NewFromDB(ctx context.Context, name dialect.Name, db *sql.DB, opts ...Option) (*Client, error) {
	return newClient(ctx, name, db, false, opts)
}

func newClient(ctx context.Context, name dialect.Name, db *sql.DB, ownsDB bool, opts []Option) (*Client, error) {
	o := options{stmtCacheSize: DefaultStmtCacheSize}
	for _, opt := range opts {
		opt(&o)
	}

	primary, err := openConn(ctx, Primary, db, ownsDB, o.stmtCacheSize)
	if err != nil {
		return nil, err
	}

	banner := o.serverVersion
	if banner == "" {
		banner = detectVersion(ctx, name, primary)
	}
	d, err := dialect.New(name, banner)
	if err != nil {
		debug.Warn("unrecognized server version, assuming a current release", "dialect", name, "version", banner)
		d, err = dialect.New(name, "")
	}
	if err != nil {
		primary.Close()
		return nil, err
	}

	c := &Client{
		d:       d,
		opts:    o,
		primary: primary,
		stats:   telemetry.NewQueryStats(o.slowThreshold),
	}
	if o.database != "" {
		if _, err := c.Execute(ctx, &command.Use{Database: o.database}); err != nil {
			primary.Close()
			return nil, err
		}
	}
	debug.Debug("connected", "dialect", name, "version", banner)
	return c, nil
}

// detectVersion reads the server version banner; it returns "" when unknown.
func detectVersion(ctx context.Context, name dialect.Name, conn *Conn) string {
	var query string
	switch name {
	case dialect.SQLite:
		if conn.db.Driver() != nil {
			if _, ok := conn.db.Driver().(*sqlite3.SQLiteDriver); ok {
				v, _, _ := sqlite3.Version()
				return v
			}
		}
		query = "SELECT sqlite_version()"
	case dialect.MySQL:
		query = "SELECT VERSION()"
	case dialect.Postgres:
		query = "SHOW server_version"
	case dialect.SQLServer:
		query = "SELECT CAST(SERVERPROPERTY('ProductVersion') AS NVARCHAR(128))"
	default:
		return ""
	}
	var v sql.NullString
	if err := conn.conn.QueryRowContext(ctx, query).Scan(&v); err != nil {
		debug.Warn("server version detection failed", "dialect", name, "error", err)
		return ""
	}
	return v.String
}

// Dialect returns the dialect commands are compiled for.
func (c *Client) Dialect() dialect.Dialect { return c.d }

// Database returns the currently selected database, if known.
func (c *Client) Database() string { return c.database }

// Stats returns the execution statistics of the session.
func (c *Client) Stats() telemetry.Snapshot { return c.stats.Snapshot() }

// OnSlow replaces the slow statement report.
func (c *Client) OnSlow(fn telemetry.SlowFunc) { c.stats.OnSlow(fn) }

// SetLargeResults switches between buffered and streaming cursors.
func (c *Client) SetLargeResults(enable bool) { c.opts.largeResults = enable }

// BulkImport reports whether bulk import mode is enabled.
func (c *Client) BulkImport() bool { return c.bulkImport }

// Disconnect commits any open transaction and closes both connections. Both are
// released even when the commit fails.
func (c *Client) Disconnect(ctx context.Context) error {
	if c.closed {
		return nil
	}
	var errs []error
	if c.depth > 0 {
		c.depth = 1
		if err := c.Commit(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if c.master != nil {
		errs = append(errs, c.master.Close())
	}
	errs = append(errs, c.primary.Close())
	c.closed = true
	return errors.Join(errs...)
}
