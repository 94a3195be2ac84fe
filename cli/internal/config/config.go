// Package config loads the dbcmd connection settings.
//
// Settings come from, lowest priority first: defaults, .dbcmd.yaml (current
// directory, home directory, ~/.config/dbcmd), .env and .env.local files,
// DBCMD_* environment variables, and command line flags bound by the caller.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/dbcmd/dialect"
	"github.com/satishbabariya/dbcmd/runtime/client"
)

// AppFs is the filesystem configuration and command files are read from.
var AppFs = afero.NewOsFs()

// Keys
const (
	KeyDialect       = "dialect"
	KeyDSN           = "dsn"
	KeyMasterDSN     = "master_dsn"
	KeyDatabase      = "database"
	KeyServerVersion = "server_version"
	KeyLargeResults  = "large_results"
	KeySlowThreshold = "slow_threshold"
	KeyStmtCacheSize = "stmt_cache_size"
	KeyDebug         = "debug"
)

// Config holds the application configuration
type Config struct {
	Dialect       dialect.Name
	DSN           string
	MasterDSN     string
	Database      string
	ServerVersion string
	LargeResults  bool
	SlowThreshold time.Duration
	StmtCacheSize int
	Debug         bool
}

// New returns a viper instance with the dbcmd search paths, environment binding
// and defaults. Flags can be bound to it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetFs(AppFs)
	v.SetConfigName(".dbcmd")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "dbcmd"))
	}

	v.SetEnvPrefix("DBCMD")
	v.AutomaticEnv()

	v.SetDefault(KeyDialect, string(dialect.MySQL))
	v.SetDefault(KeyLargeResults, false)
	v.SetDefault(KeySlowThreshold, "0s")
	v.SetDefault(KeyStmtCacheSize, client.DefaultStmtCacheSize)
	v.SetDefault(KeyDebug, false)
	return v
}

// Load reads the configuration. An explicit file, when given, must exist;
// otherwise a missing config file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	// .env.local takes priority over .env; neither overrides the real environment.
	for _, name := range []string{".env.local", ".env"} {
		if err := loadEnv(name); err != nil {
			return nil, err
		}
	}

	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing || file != "" {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	cfg := &Config{
		Dialect:       dialect.Name(strings.ToLower(v.GetString(KeyDialect))),
		DSN:           v.GetString(KeyDSN),
		MasterDSN:     v.GetString(KeyMasterDSN),
		Database:      v.GetString(KeyDatabase),
		ServerVersion: v.GetString(KeyServerVersion),
		LargeResults:  v.GetBool(KeyLargeResults),
		SlowThreshold: v.GetDuration(KeySlowThreshold),
		StmtCacheSize: v.GetInt(KeyStmtCacheSize),
		Debug:         v.GetBool(KeyDebug),
	}
	if cfg.DSN == "" {
		cfg.DSN = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

// loadEnv sets the variables of an env file that are not set yet.
func loadEnv(name string) error {
	data, err := afero.ReadFile(AppFs, name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", name, err)
	}
	vars, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", name, err)
	}
	for k, val := range vars {
		if _, set := os.LookupEnv(k); !set {
			os.Setenv(k, val)
		}
	}
	return nil
}

// Validate checks that a connection can be attempted.
func (c *Config) Validate() error {
	if _, err := dialect.New(c.Dialect, ""); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.DSN == "" {
		return fmt.Errorf("config: no dsn configured (set %s, DBCMD_DSN or DATABASE_URL)", KeyDSN)
	}
	return nil
}

// ClientOptions returns the client options the configuration describes.
func (c *Config) ClientOptions() []client.Option {
	opts := []client.Option{
		client.WithLargeResults(c.LargeResults),
		client.WithStmtCacheSize(c.StmtCacheSize),
		client.WithSlowThreshold(c.SlowThreshold),
	}
	if c.MasterDSN != "" {
		opts = append(opts, client.WithMasterDSN(c.MasterDSN))
	}
	if c.Database != "" {
		opts = append(opts, client.WithDatabase(c.Database))
	}
	if c.ServerVersion != "" {
		opts = append(opts, client.WithServerVersion(c.ServerVersion))
	}
	return opts
}
