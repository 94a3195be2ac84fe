package client

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/satishbabariya/dbcmd/query/command"
)

var (
	// ErrExecution is matched by every ExecutionError.
	ErrExecution = errors.New("execution failed")

	// ErrClosed is returned once the client has been disconnected.
	ErrClosed = errors.New("client: disconnected")

	// ErrNoInsert is returned by InsertID before any INSERT ran.
	ErrNoInsert = errors.New("client: no INSERT executed in this session")
)

// ExecutionError wraps a driver failure while running a plan.
type ExecutionError struct {
	Tag command.Tag
	// Index is the position of the failing statement in the plan.
	Index int
	SQL   string
	// Code is the driver's error code, when the driver reports one.
	Code string
	Err  error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("execute %s (statement %d)", e.Tag, e.Index+1)
	if e.Code != "" {
		msg += " [" + e.Code + "]"
	}
	return msg + ": " + e.Err.Error()
}

// Unwrap returns the driver error.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrExecution.
func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecution
}

func executionError(tag command.Tag, index int, sql string, err error) *ExecutionError {
	return &ExecutionError{Tag: tag, Index: index, SQL: sql, Code: driverCode(err), Err: err}
}

// driverCode extracts the error code of the MySQL, PostgreSQL and SQLite drivers.
func driverCode(err error) string {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return strconv.Itoa(int(myErr.Number))
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return strconv.Itoa(int(liteErr.ExtendedCode))
	}
	return ""
}
