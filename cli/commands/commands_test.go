package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/dbcmd/cli/internal/ui"
	"github.com/satishbabariya/dbcmd/dialect"
	"github.com/satishbabariya/dbcmd/query/command"
	"github.com/satishbabariya/dbcmd/query/sqlgen"
	"github.com/satishbabariya/dbcmd/runtime/client"
)

func quiet(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := ui.Out
	ui.Out = &buf
	t.Cleanup(func() { ui.Out = old })
	return &buf
}

func memoryDB(t *testing.T) *client.Client {
	t.Helper()
	c, err := client.Open(context.Background(), dialect.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { c.Disconnect(context.Background()) })
	return c
}

func selectRows(t *testing.T, c *client.Client, table string) []sqlgen.Row {
	t.Helper()
	rows, err := all(context.Background(), c, &command.Select{From: "?", OrderBy: "id", Args: []any{table}})
	require.NoError(t, err)
	return rows
}

const seed = `{"cmd":"CREATE TABLE","opts":{"TABLE":"items","COLUMNS":{"id":"INTEGER(8) NOT NULL AUTO INCREMENT PRIMARY KEY","name":"STRING(2)","data":{"TYPE":"BINARY","SIZE":2}}}}
{"cmd":"INSERT","opts":{"TABLE":"items","ROWS":[{"name":"ann","data":{"$binary":"AAE="}},{"name":"bob","data":null}]}}
# comment lines are skipped
{"cmd":"SELECT","opts":{"FROM":"items","WHERE":"name = ?"},"args":["ann"]}
`

func TestRunCommands(t *testing.T) {
	quiet(t)
	c := memoryDB(t)

	var asked []command.Tag
	decline := func(cmd command.Command, line int) (bool, error) {
		asked = append(asked, cmd.Tag())
		return false, nil
	}

	n, err := runCommands(context.Background(), c, strings.NewReader(seed+`{"cmd":"DROP TABLE","opts":"items"}`+"\n"), decline)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []command.Tag{command.TagDropTable}, asked)
	assert.Len(t, selectRows(t, c, "items"), 2)
}

func TestRunCommandsReportsLine(t *testing.T) {
	quiet(t)
	c := memoryDB(t)

	_, err := runCommands(context.Background(), c, strings.NewReader(`{"cmd":"SELECT","opts":{"FROM":"missing"}}`+"\n"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
	assert.ErrorIs(t, err, client.ErrExecution)
}

func TestDumpRestore(t *testing.T) {
	quiet(t)
	ctx := context.Background()
	src := memoryDB(t)
	_, err := runCommands(ctx, src, strings.NewReader(seed), nil)
	require.NoError(t, err)

	var out bytes.Buffer
	n, err := dump(ctx, src, command.NewEncoder(&out), nil, dumpOptions{bulk: true, batchSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cmds, err := readCommands(&out)
	require.NoError(t, err)
	// bulk on, create, two single row inserts, bulk off
	require.Len(t, cmds, 5)
	assert.Equal(t, command.TagCreateTable, cmds[1].Tag())

	dst := memoryDB(t)
	restored := 0
	require.NoError(t, restore(ctx, dst, cmds, true, func() { restored++ }))
	assert.Equal(t, len(cmds), restored)

	want := selectRows(t, src, "items")
	assert.Equal(t, want, selectRows(t, dst, "items"))
	assert.Equal(t, []byte{0x00, 0x01}, want[0]["data"])
}

func TestPlanMarkdown(t *testing.T) {
	in := `{"cmd":"SELECT","opts":{"FROM":"t","LIMIT":"1, 2"}}
{"cmd":"INSERT","opts":{"TABLE":"users","VALUES":{"name":"ann"},"AUTO INCREMENT":"id"}}
`
	md, err := planMarkdown(dialect.MustNew(dialect.SQLServer, "16.0"), strings.NewReader(in))
	require.NoError(t, err)
	assert.Contains(t, md, "# sqlserver (16.0.0)")
	assert.Contains(t, md, "## 1. SELECT")
	assert.Contains(t, md, "SELECT * FROM t;")
	assert.Contains(t, md, "skip 1, take 2")
	assert.Contains(t, md, "INSERT INTO [users] ([name]) VALUES (@p1);")
	assert.Contains(t, md, "insert id read from `users.id`")

	md, err = planMarkdown(dialect.MustNew(dialect.SQLite, "3.31.1"), strings.NewReader(`{"cmd":"DROP COLUMN","opts":{"TABLE":"t","COLUMNS":["a"]}}`))
	require.NoError(t, err)
	assert.Contains(t, md, "recreated")

	_, err = planMarkdown(dialect.MustNew(dialect.SQLite, ""), strings.NewReader(`{"cmd":"SHOW CREATE DATABASE","opts":"main"}`))
	assert.True(t, command.IsUnsupported(err))
}

func TestRootCommandFlags(t *testing.T) {
	buf := quiet(t)
	root := NewRootCommand()
	root.SetArgs([]string{"plan", "--raw", "--dialect", "postgres", "--server-version", "15.3"})
	root.SetIn(strings.NewReader(`{"cmd":"USE","opts":"shop"}`))
	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "# postgres (15.3.0)")
	assert.Contains(t, buf.String(), `SET search_path TO "shop";`)
}
