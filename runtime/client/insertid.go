package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/satishbabariya/dbcmd/query/command"
	"github.com/satishbabariya/dbcmd/query/sqlgen"
)

const tagInsertID command.Tag = "INSERT ID"

// InsertID returns the AUTO INCREMENT value generated by the last INSERT of the
// session. It is read on the connection that ran the INSERT.
func (c *Client) InsertID(ctx context.Context) (int64, error) {
	if c.closed {
		return 0, ErrClosed
	}
	if c.lastConn == nil {
		return 0, ErrNoInsert
	}

	stmt, ok, err := sqlgen.InsertIDQuery(c.d, c.lastInsert)
	if err != nil {
		return 0, fmt.Errorf("client: insert id: %w", err)
	}
	if !ok {
		if c.lastResult == nil {
			return 0, ErrNoInsert
		}
		id, err := c.lastResult.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("client: insert id: %w", err)
		}
		return id, nil
	}

	rows, err := c.query(ctx, c.lastConn, tagInsertID, 0, stmt.SQL, stmt.Values())
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var id sql.NullInt64
	if rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("client: insert id: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("client: insert id: %w", err)
	}
	if !id.Valid {
		return 0, ErrNoInsert
	}
	return id.Int64, nil
}
