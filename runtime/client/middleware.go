package client

import (
	"context"
	"time"

	"github.com/satishbabariya/dbcmd/query/command"
)

// StatementEvent represents one statement execution
type StatementEvent struct {
	Tag   command.Tag
	Slot  Slot
	Index int
	SQL   string
	Args  []any
	// Filled in once the statement ran.
	Start    time.Time
	Duration time.Duration
	Error    error
}

// Middleware is a function that intercepts statements. It must call next to run
// the statement.
type Middleware func(ctx context.Context, event *StatementEvent, next func() error) error

// Use adds a middleware to the chain
func (c *Client) Use(m Middleware) {
	c.opts.middlewares = append(c.opts.middlewares, m)
}

// intercept executes a statement through the middleware chain
func (c *Client) intercept(ctx context.Context, event *StatementEvent, exec func() error) error {
	event.Start = time.Now()
	run := func() error {
		err := exec()
		event.Duration = time.Since(event.Start)
		event.Error = err
		return err
	}

	var next func() error
	index := 0
	next = func() error {
		if index >= len(c.opts.middlewares) {
			return run()
		}
		m := c.opts.middlewares[index]
		index++
		return m(ctx, event, next)
	}
	return next()
}

// LoggingMiddleware creates a middleware that logs statements
func LoggingMiddleware(logf func(format string, args ...any)) Middleware {
	return func(ctx context.Context, event *StatementEvent, next func() error) error {
		err := next()
		if err != nil {
			logf("[%s] %s failed after %v: %v", event.Slot, event.SQL, event.Duration, err)
		} else {
			logf("[%s] %s (%v)", event.Slot, event.SQL, event.Duration)
		}
		return err
	}
}

// ErrorMiddleware creates a middleware that reports failed statements
func ErrorMiddleware(onError func(event *StatementEvent)) Middleware {
	return func(ctx context.Context, event *StatementEvent, next func() error) error {
		err := next()
		if err != nil && onError != nil {
			onError(event)
		}
		return err
	}
}
