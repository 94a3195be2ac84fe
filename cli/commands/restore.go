package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/dbcmd/cli/internal/config"
	"github.com/satishbabariya/dbcmd/cli/internal/ui"
	"github.com/satishbabariya/dbcmd/query/command"
	"github.com/satishbabariya/dbcmd/runtime/client"
)

func newRestoreCommand(a *app) *cobra.Command {
	var tx bool

	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Replay a dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			f, err := config.AppFs.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			cmds, err := readCommands(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			ctx := cmd.Context()
			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer disconnect(ctx, c, &err)

			bar, err := ui.PrintProgressBar("Restoring", len(cmds)).Start()
			if err != nil {
				return err
			}
			err = restore(ctx, c, cmds, tx, func() { bar.Increment() })
			bar.Stop()
			if err != nil {
				return err
			}
			ui.PrintSuccess("Restored %d commands from %s", len(cmds), args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&tx, "tx", false, "restore inside a single transaction")
	return cmd
}

func readCommands(r io.Reader) ([]command.Command, error) {
	dec := command.NewDecoder(r)
	var cmds []command.Command
	for {
		cmd, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return cmds, nil
		}
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
}

// restore executes cmds in order, calling done after each one.
func restore(ctx context.Context, c *client.Client, cmds []command.Command, tx bool, done func()) error {
	run := func(c *client.Client) error {
		for i, cmd := range cmds {
			cur, err := c.Execute(ctx, cmd)
			if err != nil {
				return fmt.Errorf("command %d: %w", i+1, err)
			}
			cur.Close()
			if done != nil {
				done()
			}
		}
		return nil
	}
	if !tx {
		return run(c)
	}
	return c.Transaction(ctx, run)
}
