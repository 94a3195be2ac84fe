package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/satishbabariya/dbcmd/internal/debug"
	"github.com/satishbabariya/dbcmd/query/cache"
	"github.com/satishbabariya/dbcmd/query/command"
	"github.com/satishbabariya/dbcmd/query/sqlgen"
	"github.com/satishbabariya/dbcmd/telemetry"
)

// Execute compiles cmd for the session's dialect, runs the resulting statements
// on the routed connection and returns the result cursor. Malformed and
// unsupported commands are rejected before anything is sent to the server.
func (c *Client) Execute(ctx context.Context, cmd command.Command) (*Cursor, error) {
	if c.closed {
		return nil, ErrClosed
	}
	plan, err := c.Compile(ctx, cmd)
	if err != nil {
		return nil, err
	}
	conn, err := c.route(ctx, plan.Tag)
	if err != nil {
		return nil, err
	}
	cur, err := c.run(ctx, conn, plan)
	if err != nil {
		return nil, err
	}

	switch cmd := cmd.(type) {
	case *command.Use:
		c.database = cmd.Database
	case *command.BulkImportMode:
		c.bulkImport = cmd.Enable
	case *command.Insert:
		c.lastInsert = plan.AutoIncrement
		c.lastResult = cur.result
		c.lastConn = conn
	}
	return cur, nil
}

// Compile returns the plan Execute would run for cmd. Dropping columns on dialects
// that recreate the table reads the live column list first.
func (c *Client) Compile(ctx context.Context, cmd command.Command) (*sqlgen.Plan, error) {
	if c.closed {
		return nil, ErrClosed
	}
	plan, err := sqlgen.Compile(c.d, cmd)
	if !errors.Is(err, sqlgen.ErrColumnsRequired) {
		return plan, err
	}

	drop := cmd.(*command.DropColumn)
	conn, err := c.route(ctx, command.TagDropColumn)
	if err != nil {
		return nil, err
	}
	existing, err := c.columns(ctx, conn, drop.Table)
	if err != nil {
		return nil, err
	}
	return sqlgen.RecreateWithout(c.d, drop, existing)
}

func (c *Client) columns(ctx context.Context, conn *Conn, table string) ([]string, error) {
	stmt := sqlgen.ColumnsQuery(c.d, table)
	rows, err := c.query(ctx, conn, command.TagDropColumn, 0, stmt.SQL, stmt.Values())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("client: read columns of %s: %w", table, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("client: read columns of %s: %w", table, err)
	}
	if len(names) == 0 {
		return nil, command.Invalid(command.TagDropColumn, "table", "table %q does not exist", table)
	}
	return names, nil
}

// run executes the statements of plan in order on conn, stopping at the first
// failure.
func (c *Client) run(ctx context.Context, conn *Conn, plan *sqlgen.Plan) (*Cursor, error) {
	var (
		affected int64
		result   sql.Result
	)
	for i, stmt := range plan.Statements {
		if plan.Query && i == len(plan.Statements)-1 {
			rows, err := c.query(ctx, conn, plan.Tag, i, stmt.SQL, stmt.Values())
			if err != nil {
				return nil, err
			}
			cur, err := newCursor(rows, plan, c.opts.largeResults)
			if err != nil {
				return nil, executionError(plan.Tag, i, stmt.SQL, err)
			}
			return cur, nil
		}

		res, err := c.exec(ctx, conn, plan.Tag, i, stmt.SQL, stmt.Values())
		if err != nil {
			return nil, err
		}
		if n, err := res.RowsAffected(); err == nil {
			affected += n
		}
		result = res
	}

	if schemaChange(plan.Tag) {
		// Prepared statements may hold plans for the old table shape.
		if err := conn.stmts.Clear(); err != nil {
			debug.Warn("failed to release prepared statements", "slot", conn.slot, "error", err)
		}
	}
	return &Cursor{affected: affected, result: result}, nil
}

func schemaChange(tag command.Tag) bool {
	switch tag {
	case command.TagCreateTable, command.TagDropTable, command.TagAddColumn, command.TagDropColumn,
		command.TagAddIndex, command.TagDropIndex, command.TagDropDatabase:
		return true
	}
	return false
}

func (c *Client) exec(ctx context.Context, conn *Conn, tag command.Tag, index int, query string, args []any) (sql.Result, error) {
	var res sql.Result
	err := c.statement(ctx, conn, tag, index, query, args, func() error {
		var err error
		res, err = conn.Exec(ctx, query, args)
		return err
	})
	return res, err
}

func (c *Client) query(ctx context.Context, conn *Conn, tag command.Tag, index int, query string, args []any) (*sql.Rows, error) {
	var rows *sql.Rows
	err := c.statement(ctx, conn, tag, index, query, args, func() error {
		var err error
		rows, err = conn.Query(ctx, query, args)
		return err
	})
	return rows, err
}

// statement runs one statement through the middleware chain and records it.
func (c *Client) statement(ctx context.Context, conn *Conn, tag command.Tag, index int, query string, args []any, fn func() error) error {
	event := &StatementEvent{Tag: tag, Slot: conn.slot, Index: index, SQL: query, Args: args}
	err := c.intercept(ctx, event, fn)

	c.stats.Record(telemetry.StatementEvent{
		Command: string(tag),
		SQL:     query,
		Elapsed: event.Duration,
		Err:     err,
	})
	debug.Debug("statement", "slot", conn.slot, "command", tag, "sql", query, "args", len(args), "elapsed", event.Duration)

	if err != nil {
		var execErr *ExecutionError
		if errors.As(err, &execErr) {
			return err
		}
		return executionError(tag, index, query, err)
	}
	return nil
}

// CacheStats returns the prepared statement cache statistics of the connection
// commands currently run on.
func (c *Client) CacheStats() cache.Stats {
	return c.active().CacheStats()
}
