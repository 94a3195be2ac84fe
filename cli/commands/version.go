package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func newVersionCommand(a *app) *cobra.Command {
	var server bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print the dbcmd version and, with --server, the version of the configured server.",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "dbcmd version %s\n", Version)
			fmt.Fprintf(out, "  Git Commit: %s\n", GitCommit)
			fmt.Fprintf(out, "  Build Time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Go Version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			if !server {
				return nil
			}

			ctx := cmd.Context()
			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer disconnect(ctx, c, &err)

			d := c.Dialect()
			v := "unknown"
			if d.Version() != nil {
				v = d.Version().String()
			}
			fmt.Fprintf(out, "  Server: %s %s\n", d.Name(), v)
			return nil
		},
	}

	cmd.Flags().BoolVar(&server, "server", false, "also connect and report the server version")
	return cmd
}
