package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/dbcmd/cli/internal/config"
	"github.com/satishbabariya/dbcmd/cli/internal/ui"
	"github.com/satishbabariya/dbcmd/cli/internal/watch"
	"github.com/satishbabariya/dbcmd/query/command"
	"github.com/satishbabariya/dbcmd/runtime/client"
)

// confirmFunc decides whether a destructive command runs.
type confirmFunc func(cmd command.Command, line int) (bool, error)

func newExecCommand(a *app) *cobra.Command {
	var (
		watchFile bool
		yes       bool
	)

	cmd := &cobra.Command{
		Use:   "exec [file]",
		Short: "Execute commands from a JSON lines file or stdin",
		Long: `Execute commands, one JSON object per line:

  {"cmd": "SELECT", "opts": {"FROM": "users", "WHERE": "id = ?"}, "args": [1]}

Commands that drop or delete data ask for confirmation unless --yes is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if watchFile && len(args) == 0 {
				return errors.New("--watch needs a file")
			}
			ctx := cmd.Context()
			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer disconnect(ctx, c, &err)

			confirm := promptDestructive
			if yes {
				confirm = nil
			}

			if len(args) == 0 {
				_, err = runCommands(ctx, c, cmd.InOrStdin(), confirm)
				return err
			}

			file := args[0]
			if !watchFile {
				return execFile(ctx, c, file, confirm)
			}
			w, err := watch.NewWatcher(file, func(ctx context.Context) error {
				ui.PrintInfo("running %s", file)
				return execFile(ctx, c, file, confirm)
			})
			if err != nil {
				return err
			}
			ui.PrintSuccess("Watching %s for changes... (Press Ctrl+C to stop)", file)
			return w.Run(ctx)
		},
	}

	cmd.Flags().BoolVarP(&watchFile, "watch", "w", false, "re-run the file whenever it changes")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "run destructive commands without asking")
	return cmd
}

func execFile(ctx context.Context, c *client.Client, file string, confirm confirmFunc) error {
	f, err := config.AppFs.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	n, err := runCommands(ctx, c, f, confirm)
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	snap := c.Stats()
	ui.PrintSuccess("%d commands, %d statements in %v", n, snap.Queries, snap.Elapsed)
	return nil
}

// runCommands executes every command read from r and prints the results. It stops
// at the first failure.
func runCommands(ctx context.Context, c *client.Client, r io.Reader, confirm confirmFunc) (int, error) {
	dec := command.NewDecoder(r)
	n := 0
	for {
		cmd, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}

		if confirm != nil && cmd.Tag().Destructive() {
			ok, err := confirm(cmd, dec.Line())
			if err != nil {
				return n, err
			}
			if !ok {
				ui.PrintWarning("line %d: %s skipped", dec.Line(), cmd.Tag())
				continue
			}
		}

		cur, err := c.Execute(ctx, cmd)
		if err != nil {
			return n, fmt.Errorf("line %d: %w", dec.Line(), err)
		}
		n++
		if err := printResult(cmd.Tag(), cur); err != nil {
			return n, fmt.Errorf("line %d: %w", dec.Line(), err)
		}
	}
}

func printResult(tag command.Tag, cur *client.Cursor) error {
	if len(cur.Columns()) == 0 {
		ui.PrintSuccess("%s: %d rows affected", tag, cur.RowsAffected())
		return nil
	}
	rows, err := cur.All()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		ui.PrintInfo("%s: no rows", tag)
		return nil
	}
	return ui.PrintRows(cur.Columns(), rows)
}

func promptDestructive(cmd command.Command, line int) (bool, error) {
	return ui.Confirm(fmt.Sprintf("line %d: run %s?", line, cmd.Tag()))
}
