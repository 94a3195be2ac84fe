// Package commands implements the dbcmd CLI.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/satishbabariya/dbcmd/cli/internal/config"
	"github.com/satishbabariya/dbcmd/cli/internal/ui"
	"github.com/satishbabariya/dbcmd/dialect"
	"github.com/satishbabariya/dbcmd/internal/debug"
	"github.com/satishbabariya/dbcmd/runtime/client"
)

// app is the state shared by all commands.
type app struct {
	v          *viper.Viper
	configFile string
	echo       bool
	cfg        *config.Config
}

// Execute is the main entry point for the CLI
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		ui.PrintError("%v", err)
		return err
	}
	return nil
}

// NewRootCommand creates the dbcmd command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "dbcmd",
		Short: "Run portable database commands",
		Long: `dbcmd executes database commands written as JSON lines against MySQL,
PostgreSQL, SQLite and SQL Server. Each command is translated to the dialect
of the connected server.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v, a.configFile)
			if err != nil {
				return err
			}
			debug.Init(cfg.Debug)
			a.cfg = cfg
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default .dbcmd.yaml)")
	flags.String("dialect", "", "mysql, postgres, sqlite or sqlserver")
	flags.String("dsn", "", "data source name of the server")
	flags.String("master-dsn", "", "data source name of the replication master")
	flags.String("database", "", "database to select after connecting")
	flags.String("server-version", "", "assume this server version instead of detecting it")
	flags.Bool("large-results", false, "stream result rows instead of buffering them")
	flags.Bool("debug", false, "log every statement")
	flags.BoolVar(&a.echo, "echo", false, "print statements as they run")
	bindFlags(a.v, flags, map[string]string{
		config.KeyDialect:       "dialect",
		config.KeyDSN:           "dsn",
		config.KeyMasterDSN:     "master-dsn",
		config.KeyDatabase:      "database",
		config.KeyServerVersion: "server-version",
		config.KeyLargeResults:  "large-results",
		config.KeyDebug:         "debug",
	})

	root.AddCommand(
		newExecCommand(a),
		newPlanCommand(a),
		newDumpCommand(a),
		newRestoreCommand(a),
		newVersionCommand(a),
	)
	return root
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

// connect opens a session with the loaded configuration.
func (a *app) connect(ctx context.Context) (*client.Client, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	opts := a.cfg.ClientOptions()
	if a.echo {
		opts = append(opts, client.WithMiddleware(echo))
	}
	return client.Open(ctx, a.cfg.Dialect, a.cfg.DSN, opts...)
}

// dialect returns the configured dialect without connecting.
func (a *app) dialect() (dialect.Dialect, error) {
	return dialect.New(a.cfg.Dialect, a.cfg.ServerVersion)
}

func echo(ctx context.Context, event *client.StatementEvent, next func() error) error {
	err := next()
	ui.Echo(string(event.Slot), event.SQL, event.Duration, err)
	return err
}

// disconnect closes c, reporting failures without masking err.
func disconnect(ctx context.Context, c *client.Client, err *error) {
	if cerr := c.Disconnect(ctx); cerr != nil {
		if *err == nil {
			*err = cerr
			return
		}
		ui.PrintWarning("disconnect: %v", cerr)
	}
}
