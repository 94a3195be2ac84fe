package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/dbcmd/dialect"
	"github.com/satishbabariya/dbcmd/runtime/client"
)

func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	old := AppFs
	AppFs = afero.NewMemMapFs()
	t.Cleanup(func() { AppFs = old })
	return AppFs
}

func TestLoadFile(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/etc/dbcmd.yaml", []byte(`
dialect: Postgres
dsn: postgres://localhost/shop
master_dsn: postgres://master/shop
slow_threshold: 250ms
large_results: true
`), 0o644))

	cfg, err := Load(New(), "/etc/dbcmd.yaml")
	require.NoError(t, err)
	assert.Equal(t, dialect.Postgres, cfg.Dialect)
	assert.Equal(t, "postgres://localhost/shop", cfg.DSN)
	assert.Equal(t, "postgres://master/shop", cfg.MasterDSN)
	assert.Equal(t, 250*time.Millisecond, cfg.SlowThreshold)
	assert.True(t, cfg.LargeResults)
	assert.Equal(t, client.DefaultStmtCacheSize, cfg.StmtCacheSize)
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.ClientOptions(), 4)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	useMemFs(t)
	_, err := Load(New(), "/nope.yaml")
	assert.Error(t, err)
}

func TestEnvironment(t *testing.T) {
	fs := useMemFs(t)
	t.Setenv("DBCMD_DIALECT", "sqlite")
	t.Cleanup(func() {
		os.Unsetenv("DBCMD_DATABASE")
		os.Unsetenv("DBCMD_DSN")
	})
	require.NoError(t, afero.WriteFile(fs, ".env", []byte("DBCMD_DSN=file.db\nDBCMD_DATABASE=main\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, ".env.local", []byte("DBCMD_DSN=local.db\n"), 0o644))

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLite, cfg.Dialect)
	assert.Equal(t, "local.db", cfg.DSN)
	assert.Equal(t, "main", cfg.Database)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Dialect: "oracle", DSN: "x"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Dialect: dialect.MySQL}
	assert.Error(t, cfg.Validate())
}
