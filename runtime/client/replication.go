package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/satishbabariya/dbcmd/dialect"
	"github.com/satishbabariya/dbcmd/internal/debug"
	"github.com/satishbabariya/dbcmd/query/command"
	"github.com/satishbabariya/dbcmd/query/sqlgen"
)

// active returns the connection commands currently run on. Once the master is
// open it stays active for the rest of the session.
func (c *Client) active() *Conn {
	if c.master != nil {
		return c.master
	}
	return c.primary
}

func (c *Client) hasMaster() bool {
	return c.opts.masterDSN != "" || c.opts.masterDB != nil
}

// route returns the connection for a command with the given tag, switching to
// the master on the first write.
func (c *Client) route(ctx context.Context, tag command.Tag) (*Conn, error) {
	if c.master == nil && tag.Write() && c.hasMaster() {
		if err := c.UseMaster(ctx); err != nil {
			return nil, err
		}
	}
	return c.active(), nil
}

// UseMaster switches the session to the replication master. The selected
// database, bulk import mode and an open transaction are re-established there
// first. It is a no-op without a configured master or once switched.
func (c *Client) UseMaster(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	if c.master != nil || !c.hasMaster() {
		return nil
	}

	db, owns := c.opts.masterDB, false
	if db == nil {
		var err error
		db, err = sql.Open(dialect.DriverName(c.d.Name()), c.opts.masterDSN)
		if err != nil {
			return fmt.Errorf("client: open master: %w", err)
		}
		owns = true
	}
	master, err := openConn(ctx, Master, db, owns, c.opts.stmtCacheSize)
	if err != nil {
		return err
	}

	var replay []command.Command
	if c.database != "" {
		replay = append(replay, &command.Use{Database: c.database})
	}
	if c.bulkImport {
		replay = append(replay, &command.BulkImportMode{Enable: true})
	}
	for _, cmd := range replay {
		plan, err := sqlgen.Compile(c.d, cmd)
		if err == nil {
			_, err = c.run(ctx, master, plan)
		}
		if err != nil {
			master.Close()
			return fmt.Errorf("client: restore session on master: %w", err)
		}
	}
	if c.depth > 0 {
		if err := c.session(ctx, master, tagBegin, c.d.Capabilities().Begin); err != nil {
			master.Close()
			return fmt.Errorf("client: restore transaction on master: %w", err)
		}
		master.inTx = true
	}

	c.master = master
	debug.Info("switched to replication master", "dialect", c.d.Name(), "database", c.database, "depth", c.depth)
	return nil
}
