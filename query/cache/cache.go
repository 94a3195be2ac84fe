// Package cache provides a prepared statement cache for one database connection.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// ErrDisabled is returned by Prepare on a cache with no capacity.
var ErrDisabled = errors.New("cache: statement cache disabled")

// Preparer is the connection statements are prepared on. *sql.Conn, *sql.DB and
// *sql.Tx satisfy it.
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Stats represents cache statistics
type Stats struct {
	Hits      int64
	Misses    int64
	Size      int
	MaxSize   int
	Evictions int64
	HitRate   float64
}

// StmtCache keeps up to maxSize prepared statements, closing the least recently
// used one when a new statement does not fit.
type StmtCache struct {
	mu      sync.Mutex
	conn    Preparer
	data    map[string]*stmtNode
	maxSize int
	head    *stmtNode
	tail    *stmtNode
	stats   Stats
}

// stmtNode represents a node in the doubly-linked list for LRU
type stmtNode struct {
	query string
	stmt  *sql.Stmt
	prev  *stmtNode
	next  *stmtNode
}

// New creates a statement cache over conn. A maxSize of zero or less disables
// caching: Exec and Query then go straight to conn.
func New(conn Preparer, maxSize int) *StmtCache {
	return &StmtCache{
		conn:    conn,
		data:    make(map[string]*stmtNode),
		maxSize: maxSize,
		stats:   Stats{MaxSize: max(maxSize, 0)},
	}
}

// Prepare returns the cached statement for query, preparing it on a miss. The
// statement is owned by the cache and must not be closed by the caller.
func (c *StmtCache) Prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	if c.maxSize <= 0 {
		return nil, ErrDisabled
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.data[query]; ok {
		c.moveToFront(node)
		c.stats.Hits++
		c.updateHitRate()
		return node.stmt, nil
	}
	c.stats.Misses++
	c.updateHitRate()

	stmt, err := c.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	var evictErr error
	if len(c.data) >= c.maxSize {
		evictErr = c.evictLRU()
	}
	node := &stmtNode{query: query, stmt: stmt}
	c.addToFront(node)
	c.data[query] = node
	c.stats.Size = len(c.data)
	if evictErr != nil {
		return stmt, fmt.Errorf("cache: close evicted statement: %w", evictErr)
	}
	return stmt, nil
}

// Exec runs query through its cached statement.
func (c *StmtCache) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if c.maxSize <= 0 {
		return c.conn.ExecContext(ctx, query, args...)
	}
	stmt, err := c.Prepare(ctx, query)
	if stmt == nil {
		return nil, err
	}
	return stmt.ExecContext(ctx, args...)
}

// Query runs query through its cached statement.
func (c *StmtCache) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if c.maxSize <= 0 {
		return c.conn.QueryContext(ctx, query, args...)
	}
	stmt, err := c.Prepare(ctx, query)
	if stmt == nil {
		return nil, err
	}
	return stmt.QueryContext(ctx, args...)
}

// Clear closes and forgets every cached statement. Statistics are kept.
func (c *StmtCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for node := c.head; node != nil; node = node.next {
		if err := node.stmt.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.data = make(map[string]*stmtNode)
	c.head = nil
	c.tail = nil
	c.stats.Size = 0
	return errors.Join(errs...)
}

// Stats returns cache statistics
func (c *StmtCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// addToFront adds a node to the front of the list
func (c *StmtCache) addToFront(node *stmtNode) {
	node.prev = nil
	node.next = c.head
	if c.head != nil {
		c.head.prev = node
	}
	c.head = node
	if c.tail == nil {
		c.tail = node
	}
}

// moveToFront moves a node to the front of the list
func (c *StmtCache) moveToFront(node *stmtNode) {
	if node == c.head {
		return
	}
	c.unlink(node)
	c.addToFront(node)
}

func (c *StmtCache) unlink(node *stmtNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		c.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		c.tail = node.prev
	}
	node.prev, node.next = nil, nil
}

// evictLRU closes and removes the least recently used statement.
func (c *StmtCache) evictLRU() error {
	node := c.tail
	if node == nil {
		return nil
	}
	c.unlink(node)
	delete(c.data, node.query)
	c.stats.Evictions++
	c.stats.Size = len(c.data)
	return node.stmt.Close()
}

// updateHitRate updates the hit rate statistic
func (c *StmtCache) updateHitRate() {
	total := c.stats.Hits + c.stats.Misses
	if total > 0 {
		c.stats.HitRate = float64(c.stats.Hits) / float64(total) * 100
	}
}
