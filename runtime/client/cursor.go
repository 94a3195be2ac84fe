package client

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/satishbabariya/dbcmd/query/command"
	"github.com/satishbabariya/dbcmd/query/sqlgen"
)

// exportTimeLayout is how exported date and time values are rendered so that they
// can be replayed as INSERT values on any dialect.
const exportTimeLayout = "2006-01-02 15:04:05"

// Cursor iterates the result of one command. Results are buffered unless large
// results are enabled, in which case rows are read from the driver on demand and
// the cursor must be drained or closed before the next command runs.
type Cursor struct {
	columns  []string
	affected int64
	result   sql.Result

	// buffered mode
	rows []sqlgen.Row
	pos  int

	// streaming mode
	stream *sql.Rows
	reader *rowReader
	filter rowFilter

	current sqlgen.Row
	err     error
	closed  bool
}

// Next advances to the next row.
func (c *Cursor) Next() bool {
	if c.closed {
		return false
	}
	if c.stream == nil {
		if c.pos >= len(c.rows) {
			c.current = nil
			return false
		}
		c.current = c.rows[c.pos]
		c.pos++
		return true
	}
	for !c.filter.done() && c.stream.Next() {
		row, err := c.reader.read(c.stream)
		if err != nil {
			c.err = err
			c.Close()
			return false
		}
		if c.filter.keep() {
			c.current = row
			return true
		}
	}
	if err := c.stream.Err(); err != nil && c.err == nil {
		c.err = err
	}
	c.current = nil
	c.Close()
	return false
}

// Row returns the current row.
func (c *Cursor) Row() sqlgen.Row { return c.current }

// Err returns the error that stopped iteration, if any.
func (c *Cursor) Err() error { return c.err }

// Columns returns the result column names; it is empty for commands that return
// no rows.
func (c *Cursor) Columns() []string { return c.columns }

// RowsAffected returns the number of rows changed by a write command.
func (c *Cursor) RowsAffected() int64 { return c.affected }

// All reads the remaining rows and closes the cursor.
func (c *Cursor) All() ([]sqlgen.Row, error) {
	var out []sqlgen.Row
	for c.Next() {
		out = append(out, c.current)
	}
	if err := c.Close(); err != nil && c.err == nil {
		c.err = err
	}
	return out, c.err
}

// Close releases the cursor. Unread rows are discarded.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.rows = nil
	if c.stream != nil {
		return c.stream.Close()
	}
	return nil
}

// newCursor wraps rows according to the plan's post-execution directives.
func newCursor(rows *sql.Rows, plan *sqlgen.Plan, stream bool) (*Cursor, error) {
	reader, err := newRowReader(rows, plan.ExportRows)
	if err != nil {
		rows.Close()
		return nil, err
	}
	filter := newRowFilter(plan.RowFilter)

	if stream && plan.Reshape == nil {
		return &Cursor{columns: reader.columns, stream: rows, reader: reader, filter: filter}, nil
	}

	defer rows.Close()
	var buffered []sqlgen.Row
	for !filter.done() && rows.Next() {
		row, err := reader.read(rows)
		if err != nil {
			return nil, err
		}
		if filter.keep() {
			buffered = append(buffered, row)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	columns := reader.columns
	if plan.Reshape != nil {
		if buffered, err = plan.Reshape(buffered); err != nil {
			return nil, err
		}
		if len(plan.Columns) > 0 {
			columns = plan.Columns
		}
	}
	return &Cursor{columns: columns, rows: buffered}, nil
}

// rowReader scans driver rows into normalized rows.
type rowReader struct {
	columns []string
	binary  []bool
	export  bool
	values  []any
	ptrs    []any
}

func newRowReader(rows *sql.Rows, export bool) (*rowReader, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("client: read columns: %w", err)
	}
	r := &rowReader{
		columns: columns,
		binary:  make([]bool, len(columns)),
		export:  export,
		values:  make([]any, len(columns)),
		ptrs:    make([]any, len(columns)),
	}
	if types, err := rows.ColumnTypes(); err == nil {
		for i, t := range types {
			r.binary[i] = isBinaryType(t.DatabaseTypeName())
		}
	}
	for i := range r.values {
		r.ptrs[i] = &r.values[i]
	}
	return r, nil
}

func (r *rowReader) read(rows *sql.Rows) (sqlgen.Row, error) {
	if err := rows.Scan(r.ptrs...); err != nil {
		return nil, fmt.Errorf("client: scan row: %w", err)
	}
	row := make(sqlgen.Row, len(r.columns))
	for i, name := range r.columns {
		row[name] = r.normalize(r.values[i], r.binary[i])
		r.values[i] = nil
	}
	return row, nil
}

func (r *rowReader) normalize(v any, binary bool) any {
	switch v := v.(type) {
	case []byte:
		if !binary {
			return string(v)
		}
		b := append([]byte(nil), v...)
		if r.export {
			return command.Binary(b)
		}
		return b
	case time.Time:
		if r.export {
			return v.Format(exportTimeLayout)
		}
		return v
	default:
		return v
	}
}

func isBinaryType(name string) bool {
	name = strings.ToUpper(name)
	for _, t := range []string{"BLOB", "BINARY", "BYTEA", "IMAGE"} {
		if strings.Contains(name, t) {
			return true
		}
	}
	return false
}

// rowFilter applies a client side skip/take.
type rowFilter struct {
	skip, take int
	seen, kept int
}

func newRowFilter(f *sqlgen.RowFilter) rowFilter {
	if f == nil {
		return rowFilter{take: -1}
	}
	return rowFilter{skip: f.Skip, take: f.Take}
}

// keep reports whether the next row read is part of the result.
func (f *rowFilter) keep() bool {
	f.seen++
	if f.seen <= f.skip {
		return false
	}
	f.kept++
	return true
}

func (f *rowFilter) done() bool {
	return f.take >= 0 && f.kept >= f.take
}
