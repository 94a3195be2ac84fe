package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/dbcmd/cli/internal/config"
	"github.com/satishbabariya/dbcmd/cli/internal/ui"
	"github.com/satishbabariya/dbcmd/dialect"
	"github.com/satishbabariya/dbcmd/query/command"
	"github.com/satishbabariya/dbcmd/query/sqlgen"
)

func newPlanCommand(a *app) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "plan [file]",
		Short: "Show the SQL commands compile to, without connecting",
		Long: `Compile commands for the configured dialect and print the statements they
would run. Use --server-version to see the plan for an older server.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.dialect()
			if err != nil {
				return err
			}

			r := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := config.AppFs.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()
				r = f
			}

			md, err := planMarkdown(d, r)
			if err != nil {
				return err
			}
			if raw {
				_, err = io.WriteString(ui.Out, md)
				return err
			}
			return ui.PrintMarkdown(md)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without rendering it")
	return cmd
}

// planMarkdown compiles every command of r and describes the plans as markdown.
func planMarkdown(d dialect.Dialect, r io.Reader) (string, error) {
	var b strings.Builder
	version := "unknown version"
	if v := d.Version(); v != nil {
		version = v.String()
	}
	fmt.Fprintf(&b, "# %s (%s)\n\n", d.Name(), version)

	dec := command.NewDecoder(r)
	for i := 1; ; i++ {
		cmd, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "## %d. %s\n\n", i, cmd.Tag())

		plan, err := sqlgen.Compile(d, cmd)
		switch {
		case errors.Is(err, sqlgen.ErrColumnsRequired):
			b.WriteString("_The table is recreated without the columns; the column list is read from the server._\n\n")
			continue
		case err != nil:
			return "", fmt.Errorf("line %d: %w", dec.Line(), err)
		}

		if len(plan.Statements) == 0 {
			b.WriteString("_Nothing to run on this dialect._\n\n")
			continue
		}
		b.WriteString("```sql\n")
		for _, s := range plan.Statements {
			b.WriteString(s.SQL)
			b.WriteString(";\n")
		}
		b.WriteString("```\n\n")

		for j, s := range plan.Statements {
			if len(s.Args) > 0 {
				fmt.Fprintf(&b, "- statement %d arguments: `%v`\n", j+1, s.Values())
			}
		}
		if f := plan.RowFilter; f != nil {
			fmt.Fprintf(&b, "- rows filtered client side: skip %d, take %d\n", f.Skip, f.Take)
		}
		if plan.AutoIncrement != nil {
			fmt.Fprintf(&b, "- insert id read from `%s.%s`\n", plan.AutoIncrement.Table, plan.AutoIncrement.Column)
		}
		b.WriteString("\n")
	}
}
