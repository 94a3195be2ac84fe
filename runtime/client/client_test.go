package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/dbcmd/dialect"
	"github.com/satishbabariya/dbcmd/query/command"
	"github.com/satishbabariya/dbcmd/query/sqlgen"
)

var testVersions = map[dialect.Name]string{
	dialect.MySQL:     "8.0.32",
	dialect.Postgres:  "15.3",
	dialect.SQLite:    "3.45.1",
	dialect.SQLServer: "16.0.1000.6",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newMockClient(t *testing.T, name dialect.Name, opts ...Option) (*Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	opts = append([]Option{WithServerVersion(testVersions[name])}, opts...)
	c, err := NewFromDB(context.Background(), name, db, opts...)
	require.NoError(t, err)
	return c, mock
}

func ok() sql.Result { return sqlmock.NewResult(0, 0) }

func TestExecuteSelect(t *testing.T) {
	ctx := context.Background()
	c, mock := newMockClient(t, dialect.MySQL)

	mock.ExpectPrepare("SELECT * FROM `users` WHERE id = ?").
		ExpectQuery().
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), []byte("ann")))

	cur, err := c.Execute(ctx, &command.Select{From: "?", Where: "id = ?", Args: []any{"users", 1}})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, cur.Columns())

	rows, err := cur.All()
	require.NoError(t, err)
	assert.Equal(t, []sqlgen.Row{{"id": int64(1), "name": "ann"}}, rows)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Queries)
	assert.Equal(t, int64(1), stats.ByCommand["SELECT"])
	assert.Equal(t, int64(1), c.CacheStats().Misses)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPreparedStatementReuse(t *testing.T) {
	ctx := context.Background()
	c, mock := newMockClient(t, dialect.MySQL)

	prep := mock.ExpectPrepare("DELETE FROM `t` WHERE id = ?")
	prep.ExpectExec().WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(2).WillReturnResult(sqlmock.NewResult(0, 1))

	for _, id := range []int{1, 2} {
		cur, err := c.Execute(ctx, &command.Delete{Table: "t", Where: "id = ?", Args: []any{id}})
		require.NoError(t, err)
		assert.Equal(t, int64(1), cur.RowsAffected())
	}
	assert.Equal(t, int64(1), c.CacheStats().Hits)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidationBeforeDriver(t *testing.T) {
	c, mock := newMockClient(t, dialect.MySQL)

	_, err := c.Execute(context.Background(), &command.Select{})
	assert.True(t, command.IsValidation(err))

	_, err = c.Execute(context.Background(), &command.Insert{Table: "t"})
	assert.True(t, command.IsValidation(err))

	require.NoError(t, mock.ExpectationsWereMet())
	assert.Zero(t, c.Stats().Queries)
}

func TestUnsupportedCommand(t *testing.T) {
	c, mock := newMockClient(t, dialect.SQLite)

	_, err := c.Execute(context.Background(), &command.ShowCreateDatabase{Name: "main"})
	assert.True(t, command.IsUnsupported(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutionErrorCode(t *testing.T) {
	c, mock := newMockClient(t, dialect.MySQL)

	mock.ExpectPrepare("INSERT INTO `t` (`id`) VALUES (?)").
		ExpectExec().
		WithArgs(1).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1' for key 'PRIMARY'"})

	_, err := c.Execute(context.Background(), &command.Insert{Table: "t", Values: map[string]any{"id": 1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExecution))

	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, command.TagInsert, execErr.Tag)
	assert.Equal(t, 0, execErr.Index)
	assert.Equal(t, "1062", execErr.Code)
	assert.Contains(t, err.Error(), "[1062]")

	var myErr *mysql.MySQLError
	assert.True(t, errors.As(err, &myErr))
	assert.Equal(t, int64(1), c.Stats().Errors)
}

func TestNestedTransactions(t *testing.T) {
	ctx := context.Background()
	c, mock := newMockClient(t, dialect.Postgres)

	mock.ExpectExec("BEGIN").WillReturnResult(ok())
	mock.ExpectExec("COMMIT").WillReturnResult(ok())

	require.NoError(t, c.Begin(ctx))
	require.NoError(t, c.Begin(ctx))
	assert.Equal(t, 2, c.Depth())
	require.NoError(t, c.Commit(ctx))
	assert.Equal(t, 1, c.Depth())
	require.NoError(t, c.Commit(ctx))
	assert.Equal(t, 0, c.Depth())

	assert.Error(t, c.Commit(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRollbackResetsDepth(t *testing.T) {
	ctx := context.Background()
	c, mock := newMockClient(t, dialect.MySQL)

	mock.ExpectExec("BEGIN").WillReturnResult(ok())
	mock.ExpectExec("ROLLBACK").WillReturnResult(ok())

	require.NoError(t, c.Begin(ctx))
	require.NoError(t, c.Begin(ctx))
	require.NoError(t, c.Rollback(ctx))
	assert.Equal(t, 0, c.Depth())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionFunc(t *testing.T) {
	ctx := context.Background()
	c, mock := newMockClient(t, dialect.MySQL)

	mock.ExpectExec("BEGIN").WillReturnResult(ok())
	mock.ExpectExec("ROLLBACK").WillReturnResult(ok())

	boom := errors.New("boom")
	err := c.Transaction(ctx, func(c *Client) error {
		return c.Transaction(ctx, func(*Client) error { return boom })
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Depth())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWritesMoveToMaster(t *testing.T) {
	ctx := context.Background()
	masterDB, master := newMockDB(t)
	primaryDB, primary := newMockDB(t)

	primary.ExpectExec("USE `shop`").WillReturnResult(ok())
	primary.ExpectExec("SET FOREIGN_KEY_CHECKS = 0").WillReturnResult(ok())
	primary.ExpectExec("SET UNIQUE_CHECKS = 0").WillReturnResult(ok())
	primary.ExpectExec("BEGIN").WillReturnResult(ok())
	primary.ExpectExec("COMMIT").WillReturnResult(ok())

	master.ExpectExec("USE `shop`").WillReturnResult(ok())
	master.ExpectExec("SET FOREIGN_KEY_CHECKS = 0").WillReturnResult(ok())
	master.ExpectExec("SET UNIQUE_CHECKS = 0").WillReturnResult(ok())
	master.ExpectExec("BEGIN").WillReturnResult(ok())
	master.ExpectPrepare("INSERT INTO `t` (`a`) VALUES (?)").
		ExpectExec().
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(5, 1))
	master.ExpectPrepare("UPDATE `t` SET `a` = ? WHERE id = ?").
		ExpectExec().
		WithArgs(2, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	master.ExpectQuery("SELECT * FROM t").WillReturnRows(sqlmock.NewRows([]string{"a"}).AddRow(int64(1)))
	master.ExpectExec("COMMIT").WillReturnResult(ok())

	c, err := NewFromDB(ctx, dialect.MySQL, primaryDB,
		WithServerVersion("8.0.32"),
		WithDatabase("shop"),
		WithMasterDB(masterDB),
	)
	require.NoError(t, err)
	assert.Equal(t, "shop", c.Database())

	_, err = c.Execute(ctx, &command.BulkImportMode{Enable: true})
	require.NoError(t, err)
	assert.True(t, c.BulkImport())

	require.NoError(t, c.Begin(ctx))
	_, err = c.Execute(ctx, &command.Insert{Table: "t", Values: map[string]any{"a": 1}})
	require.NoError(t, err)

	id, err := c.InsertID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)

	// A second write reuses the master connection and its open transaction.
	conn := c.master
	cur, err := c.Execute(ctx, &command.Update{Table: "t", Values: map[string]any{"a": 2}, Where: "id = ?", Args: []any{5}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cur.RowsAffected())
	assert.Same(t, conn, c.master)
	assert.Equal(t, 1, masterDB.Stats().OpenConnections)

	// Reads stay on the master once it is in use.
	cur, err = c.Execute(ctx, &command.Select{From: "t"})
	require.NoError(t, err)
	rows, err := cur.All()
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	require.NoError(t, c.Commit(ctx))
	require.NoError(t, primary.ExpectationsWereMet())
	require.NoError(t, master.ExpectationsWereMet())
}

func TestPostgresInsertID(t *testing.T) {
	ctx := context.Background()
	c, mock := newMockClient(t, dialect.Postgres)

	_, err := c.InsertID(ctx)
	assert.ErrorIs(t, err, ErrNoInsert)

	mock.ExpectPrepare(`INSERT INTO "users" ("name") VALUES ($1)`).
		ExpectExec().
		WithArgs("ann").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectPrepare("SELECT currval(pg_get_serial_sequence($1, $2))").
		ExpectQuery().
		WithArgs(`"users"`, "id").
		WillReturnRows(sqlmock.NewRows([]string{"currval"}).AddRow(int64(7)))

	_, err = c.Execute(ctx, &command.Insert{Table: "users", Values: map[string]any{"name": "ann"}, AutoIncrement: "id"})
	require.NoError(t, err)

	id, err := c.InsertID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRowFilter(t *testing.T) {
	for _, large := range []bool{false, true} {
		t.Run(fmt.Sprintf("large=%v", large), func(t *testing.T) {
			c, mock := newMockClient(t, dialect.SQLServer, WithLargeResults(large))

			rows := sqlmock.NewRows([]string{"id"})
			for i := 1; i <= 5; i++ {
				rows.AddRow(int64(i))
			}
			mock.ExpectQuery("SELECT * FROM t").WillReturnRows(rows)

			cur, err := c.Execute(context.Background(), &command.Select{From: "t", Limit: "1, 2"})
			require.NoError(t, err)
			got, err := cur.All()
			require.NoError(t, err)
			assert.Equal(t, []sqlgen.Row{{"id": int64(2)}, {"id": int64(3)}}, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStreamingCursor(t *testing.T) {
	c, mock := newMockClient(t, dialect.MySQL, WithLargeResults(true))

	mock.ExpectQuery("SELECT * FROM t").
		WillReturnRows(sqlmock.NewRows([]string{"a"}).AddRow(int64(1)).AddRow(int64(2)))

	cur, err := c.Execute(context.Background(), &command.Select{From: "t"})
	require.NoError(t, err)
	require.True(t, cur.Next())
	assert.Equal(t, sqlgen.Row{"a": int64(1)}, cur.Row())
	require.NoError(t, cur.Close())
	assert.False(t, cur.Next())
	require.NoError(t, cur.Err())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShowTablesReshape(t *testing.T) {
	c, mock := newMockClient(t, dialect.MySQL)

	mock.ExpectQuery("SHOW TABLES").
		WillReturnRows(sqlmock.NewRows([]string{"Tables_in_shop"}).AddRow([]byte("users")))

	cur, err := c.Execute(context.Background(), &command.ShowTables{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Table"}, cur.Columns())
	rows, err := cur.All()
	require.NoError(t, err)
	assert.Equal(t, []sqlgen.Row{{"Table": "users"}}, rows)
}

func TestDropColumnRecreate(t *testing.T) {
	c, mock := newMockClient(t, dialect.SQLite, WithServerVersion("3.31.1"))

	mock.ExpectPrepare("SELECT name FROM pragma_table_info(?) ORDER BY cid").
		ExpectQuery().
		WithArgs("t").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("id").AddRow("name").AddRow("age"))
	mock.ExpectExec(`CREATE TABLE "t_dbcmd_recreate" AS SELECT "id", "name" FROM "t"`).WillReturnResult(ok())
	mock.ExpectExec(`DROP TABLE "t"`).WillReturnResult(ok())
	mock.ExpectExec(`ALTER TABLE "t_dbcmd_recreate" RENAME TO "t"`).WillReturnResult(ok())

	_, err := c.Execute(context.Background(), &command.DropColumn{Table: "t", Columns: []string{"age"}})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Zero(t, c.CacheStats().Size)
}

func TestDisconnect(t *testing.T) {
	ctx := context.Background()
	c, mock := newMockClient(t, dialect.MySQL)

	mock.ExpectExec("BEGIN").WillReturnResult(ok())
	mock.ExpectExec("COMMIT").WillReturnError(errors.New("connection lost"))

	require.NoError(t, c.Begin(ctx))
	require.NoError(t, c.Begin(ctx))

	err := c.Disconnect(ctx)
	assert.ErrorIs(t, err, ErrExecution)
	assert.NoError(t, c.Disconnect(ctx))

	_, err = c.Execute(ctx, &command.Select{From: "t"})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.Begin(ctx), ErrClosed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMiddleware(t *testing.T) {
	var (
		events []StatementEvent
		logged []string
	)
	c, mock := newMockClient(t, dialect.MySQL,
		WithMiddleware(func(ctx context.Context, event *StatementEvent, next func() error) error {
			err := next()
			events = append(events, *event)
			return err
		}),
		WithMiddleware(LoggingMiddleware(func(format string, args ...any) {
			logged = append(logged, fmt.Sprintf(format, args...))
		})),
	)

	mock.ExpectExec("TRUNCATE TABLE `t`").WillReturnResult(ok())

	_, err := c.Execute(context.Background(), &command.TruncateTable{Tables: []string{"t"}})
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, command.TagTruncateTable, events[0].Tag)
	assert.Equal(t, Primary, events[0].Slot)
	assert.Equal(t, "TRUNCATE TABLE `t`", events[0].SQL)
	require.Len(t, logged, 1)
	assert.Contains(t, logged[0], "[primary] TRUNCATE TABLE `t`")
}

func TestMiddlewareCanReject(t *testing.T) {
	denied := errors.New("read only")
	c, mock := newMockClient(t, dialect.MySQL)

	var failed *StatementEvent
	c.Use(ErrorMiddleware(func(event *StatementEvent) { failed = event }))
	c.Use(func(ctx context.Context, event *StatementEvent, next func() error) error {
		if event.Tag.Write() {
			return denied
		}
		return next()
	})

	_, err := c.Execute(context.Background(), &command.DropTable{Tables: []string{"t"}})
	assert.ErrorIs(t, err, denied)
	assert.ErrorIs(t, err, ErrExecution)
	require.NotNil(t, failed)
	require.NoError(t, mock.ExpectationsWereMet())
}
