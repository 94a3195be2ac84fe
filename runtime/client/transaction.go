package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/satishbabariya/dbcmd/query/command"
)

const (
	tagBegin    command.Tag = "BEGIN"
	tagCommit   command.Tag = "COMMIT"
	tagRollback command.Tag = "ROLLBACK"
)

// Depth returns the nested transaction depth.
func (c *Client) Depth() int { return c.depth }

// Begin opens a transaction. Only the outermost Begin starts a real transaction;
// nested calls only count depth.
func (c *Client) Begin(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	if c.depth == 0 {
		conn := c.active()
		if err := c.session(ctx, conn, tagBegin, c.d.Capabilities().Begin); err != nil {
			return err
		}
		conn.inTx = true
	}
	c.depth++
	return nil
}

// Commit closes one level of nesting. The outermost Commit commits the real
// transaction on every connection holding one.
func (c *Client) Commit(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	switch {
	case c.depth == 0:
		return fmt.Errorf("client: commit without an open transaction")
	case c.depth > 1:
		c.depth--
		return nil
	}
	c.depth = 0
	return c.finish(ctx, tagCommit, c.d.Capabilities().Commit)
}

// Rollback rolls back the real transaction regardless of nesting depth.
func (c *Client) Rollback(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	c.depth = 0
	return c.finish(ctx, tagRollback, c.d.Capabilities().Rollback)
}

// finish ends the transaction on every connection that holds one; all of them are
// attempted.
func (c *Client) finish(ctx context.Context, tag command.Tag, stmt string) error {
	var errs []error
	for _, conn := range []*Conn{c.primary, c.master} {
		if conn == nil || !conn.inTx {
			continue
		}
		conn.inTx = false
		if err := c.session(ctx, conn, tag, stmt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// session runs a statement that is not part of a command plan.
func (c *Client) session(ctx context.Context, conn *Conn, tag command.Tag, stmt string) error {
	_, err := c.exec(ctx, conn, tag, 0, stmt, nil)
	return err
}

// TransactionFunc is a function that runs within a transaction
type TransactionFunc func(c *Client) error

// Transaction executes fn within a transaction
// If fn returns an error or panics, the transaction is rolled back
// Otherwise, the transaction is committed
// Calls nest: an inner Transaction only commits with the outermost one
func (c *Client) Transaction(ctx context.Context, fn TransactionFunc) error {
	if err := c.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = c.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(c); err != nil {
		if rbErr := c.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := c.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
