package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, name := range []Name{MySQL, Postgres, SQLite, SQLServer} {
		d, err := New(name, "")
		require.NoError(t, err)
		assert.Equal(t, name, d.Name())
		assert.Nil(t, d.Version())
	}
	_, err := New("oracle", "")
	require.Error(t, err)
}

func TestForDriver(t *testing.T) {
	tests := map[string]Name{
		"mysql":     MySQL,
		"postgres":  Postgres,
		"pgx":       Postgres,
		"sqlite3":   SQLite,
		"sqlserver": SQLServer,
	}
	for driver, want := range tests {
		got, err := ForDriver(driver)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ForDriver("oci8")
	require.Error(t, err)
	assert.Equal(t, "sqlite3", DriverName(SQLite))
	assert.Equal(t, "postgres", DriverName(Postgres))
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		banner string
		want   string
	}{
		{"8.0.32-0ubuntu0.22.04.2", "8.0.32"},
		{"15.3 (Debian 15.3-1.pgdg120+1)", "15.3.0"},
		{"3.45.1", "3.45.1"},
		{"10.6.12-MariaDB", "10.6.12"},
	}
	for _, tt := range tests {
		t.Run(tt.banner, func(t *testing.T) {
			v, err := ParseVersion(tt.banner)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}
	_, err := ParseVersion("unknown")
	require.Error(t, err)
}

func TestSQLiteVersionCapabilities(t *testing.T) {
	old := MustNew(SQLite, "3.31.1")
	assert.Equal(t, DropColumnRecreate, old.Capabilities().DropColumn)
	assert.Equal(t, 500, old.Capabilities().MaxInsertRows)

	ancient := MustNew(SQLite, "3.7.2")
	assert.Equal(t, 1, ancient.Capabilities().MaxInsertRows)

	current := MustNew(SQLite, "3.45.1")
	assert.Equal(t, DropColumnNative, current.Capabilities().DropColumn)
}

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name Name
		in   string
		want string
	}{
		{MySQL, "users", "`users`"},
		{MySQL, "we`ird", "`we``ird`"},
		{MySQL, "shop.users", "`shop`.`users`"},
		{Postgres, "users", `"users"`},
		{Postgres, `we"ird`, `"we""ird"`},
		{SQLite, "users", `"users"`},
		{SQLServer, "users", "[users]"},
		{SQLServer, "a]b", "[a]]b]"},
	}
	for _, tt := range tests {
		t.Run(string(tt.name)+"/"+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MustNew(tt.name, "").QuoteIdentifier(tt.in))
		})
	}
}

func TestQuoteValue(t *testing.T) {
	my := MustNew(MySQL, "")
	assert.Equal(t, "NULL", my.QuoteValue(nil))
	assert.Equal(t, "42", my.QuoteValue(42))
	assert.Equal(t, "1.5", my.QuoteValue(1.5))
	assert.Equal(t, "1", my.QuoteValue(true))
	assert.Equal(t, `'it''s \\ ok'`, my.QuoteValue(`it's \ ok`))
	assert.Equal(t, "X'0102'", my.QuoteValue([]byte{1, 2}))

	pg := MustNew(Postgres, "")
	assert.Equal(t, "TRUE", pg.QuoteValue(true))
	assert.Equal(t, "'it''s'", pg.QuoteValue("it's"))
	assert.Equal(t, `'\x0a'::bytea`, pg.QuoteValue([]byte{10}))

	ms := MustNew(SQLServer, "")
	assert.Equal(t, "N'x'", ms.QuoteValue("x"))
	assert.Equal(t, "0xff", ms.QuoteValue([]byte{255}))
}

func TestRebind(t *testing.T) {
	pg := MustNew(Postgres, "")
	assert.Equal(t,
		`SELECT * FROM "t" WHERE a = $1 AND b = '?' AND c IN ($2, $3)`,
		pg.Rebind(`SELECT * FROM "t" WHERE a = ? AND b = '?' AND c IN (?, ?)`),
	)
	assert.Equal(t, `SELECT "?" FROM t WHERE a = $1`, pg.Rebind(`SELECT "?" FROM t WHERE a = ?`))

	ms := MustNew(SQLServer, "")
	assert.Equal(t, "DELETE FROM [t] WHERE a = @p1 OR b = @p2", ms.Rebind("DELETE FROM [t] WHERE a = ? OR b = ?"))

	my := MustNew(MySQL, "")
	q := "SELECT * FROM t WHERE a = ?"
	assert.Equal(t, q, my.Rebind(q))
}

func TestSkipQuoted(t *testing.T) {
	my := MustNew(MySQL, "")
	s := `'it''s' rest`
	end, ok := my.SkipQuoted(s, 0)
	require.True(t, ok)
	assert.Equal(t, " rest", s[end:])

	s = `'a\'b' x`
	end, ok = my.SkipQuoted(s, 0)
	require.True(t, ok)
	assert.Equal(t, " x", s[end:])

	_, ok = my.SkipQuoted("abc", 0)
	assert.False(t, ok)

	end, ok = my.SkipQuoted("'open", 0)
	require.True(t, ok)
	assert.Equal(t, 5, end)

	_, ok = my.SkipQuoted("[a]", 0)
	assert.False(t, ok)
}

func TestSkipQuotedBackslash(t *testing.T) {
	s := `'\' AND id = ?`
	for _, name := range []Name{Postgres, SQLite, SQLServer} {
		end, ok := MustNew(name, "").SkipQuoted(s, 0)
		require.True(t, ok, name)
		assert.Equal(t, " AND id = ?", s[end:], name)
	}

	end, ok := MustNew(MySQL, "").SkipQuoted(s, 0)
	require.True(t, ok)
	assert.Equal(t, len(s), end)
}

func TestSkipQuotedBrackets(t *testing.T) {
	ms := MustNew(SQLServer, "")
	s := "[it's]] ?] WHERE id = ?"
	end, ok := ms.SkipQuoted(s, 0)
	require.True(t, ok)
	assert.Equal(t, " WHERE id = ?", s[end:])

	assert.Equal(t,
		"SELECT * FROM [it's] WHERE id = @p1 AND [a?] = @p2",
		ms.Rebind("SELECT * FROM [it's] WHERE id = ? AND [a?] = ?"),
	)
}
