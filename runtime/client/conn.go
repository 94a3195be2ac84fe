package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/satishbabariya/dbcmd/query/cache"
)

// Slot names a connection of the client.
type Slot string

const (
	Primary Slot = "primary"
	Master  Slot = "master"
)

// Conn is one pinned physical connection. Session state (the selected database,
// open transactions, SET variables) sticks to it for the life of the client.
type Conn struct {
	slot  Slot
	db    *sql.DB
	conn  *sql.Conn
	stmts *cache.StmtCache
	// ownsDB is set when Close must close the pool as well.
	ownsDB bool
	// inTx is set while a real transaction is open on this connection.
	inTx bool
}

func openConn(ctx context.Context, slot Slot, db *sql.DB, ownsDB bool, cacheSize int) (*Conn, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		if ownsDB {
			db.Close()
		}
		return nil, fmt.Errorf("client: open %s connection: %w", slot, err)
	}
	return &Conn{
		slot:   slot,
		db:     db,
		conn:   conn,
		stmts:  cache.New(conn, cacheSize),
		ownsDB: ownsDB,
	}, nil
}

// Slot returns the connection's slot.
func (c *Conn) Slot() Slot { return c.slot }

// Prepare returns the cached prepared statement for query.
func (c *Conn) Prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	return c.stmts.Prepare(ctx, query)
}

// Exec runs a statement. Statements with parameters go through the prepared
// statement cache; the rest are sent as is, since several servers refuse to
// prepare session statements such as USE.
func (c *Conn) Exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	if len(args) == 0 {
		return c.conn.ExecContext(ctx, query)
	}
	return c.stmts.Exec(ctx, query, args...)
}

// Query runs a statement returning rows.
func (c *Conn) Query(ctx context.Context, query string, args []any) (*sql.Rows, error) {
	if len(args) == 0 {
		return c.conn.QueryContext(ctx, query)
	}
	return c.stmts.Query(ctx, query, args...)
}

// CacheStats returns the prepared statement cache statistics.
func (c *Conn) CacheStats() cache.Stats {
	return c.stmts.Stats()
}

// Close releases the cached statements and the connection.
func (c *Conn) Close() error {
	errs := []error{c.stmts.Clear(), c.conn.Close()}
	if c.ownsDB {
		errs = append(errs, c.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("client: close %s connection: %w", c.slot, err)
	}
	return nil
}
