package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/dbcmd/cli/internal/config"
	"github.com/satishbabariya/dbcmd/cli/internal/ui"
	"github.com/satishbabariya/dbcmd/query/command"
	"github.com/satishbabariya/dbcmd/query/sqlgen"
	"github.com/satishbabariya/dbcmd/runtime/client"
)

type dumpOptions struct {
	drop      bool
	bulk      bool
	batchSize int
}

func newDumpCommand(a *app) *cobra.Command {
	var (
		output string
		opts   dumpOptions
	)

	cmd := &cobra.Command{
		Use:   "dump [table...]",
		Short: "Write tables as replayable JSON lines commands",
		Long: `Dump the schema and rows of tables (all base tables by default) as CREATE TABLE
and INSERT commands. Restore the output with "dbcmd restore" or "dbcmd exec".`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer disconnect(ctx, c, &err)

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := config.AppFs.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			n, err := dump(ctx, c, command.NewEncoder(w), args, opts)
			if err != nil {
				return err
			}
			if output != "" {
				ui.PrintSuccess("Dumped %d tables to %s", n, output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.drop, "drop", false, "drop each table before creating it")
	cmd.Flags().BoolVar(&opts.bulk, "bulk", true, "wrap the dump in bulk import mode")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 100, "rows per INSERT command")
	return cmd
}

// dump encodes the schema and rows of tables; it returns the number of tables
// written. Without tables, every base table of the current database is dumped.
func dump(ctx context.Context, c *client.Client, enc *command.Encoder, tables []string, opts dumpOptions) (int, error) {
	if len(tables) == 0 {
		var err error
		if tables, err = baseTables(ctx, c); err != nil {
			return 0, err
		}
	}
	if opts.batchSize <= 0 {
		opts.batchSize = 100
	}

	if opts.bulk {
		if err := enc.Encode(&command.BulkImportMode{Enable: true}); err != nil {
			return 0, err
		}
	}
	for i, table := range tables {
		if err := dumpTable(ctx, c, enc, table, opts); err != nil {
			return i, fmt.Errorf("dump %s: %w", table, err)
		}
	}
	if opts.bulk {
		if err := enc.Encode(&command.BulkImportMode{Enable: false}); err != nil {
			return len(tables), err
		}
	}
	return len(tables), nil
}

func baseTables(ctx context.Context, c *client.Client) ([]string, error) {
	rows, err := all(ctx, c, &command.ShowTables{Full: true})
	if err != nil {
		return nil, err
	}
	var tables []string
	for _, row := range rows {
		if fmt.Sprint(row["Table_type"]) == "BASE TABLE" {
			tables = append(tables, fmt.Sprint(row["Table"]))
		}
	}
	return tables, nil
}

func dumpTable(ctx context.Context, c *client.Client, enc *command.Encoder, table string, opts dumpOptions) error {
	if opts.drop {
		if err := enc.Encode(&command.DropTable{Tables: []string{table}}); err != nil {
			return err
		}
	}

	rows, err := all(ctx, c, &command.ShowCreateTable{Table: table, ExportHints: true})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("table not found")
	}
	create, _ := rows[0]["Create Table"].(string)
	if err := enc.Encode(&command.CreateTable{Table: table, Native: create}); err != nil {
		return err
	}

	cur, err := c.Execute(ctx, &command.Select{From: "?", Args: []any{table}, ExportRows: true})
	if err != nil {
		return err
	}
	defer cur.Close()

	batch := make([]map[string]any, 0, opts.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := enc.Encode(&command.Insert{Table: table, Rows: batch})
		batch = make([]map[string]any, 0, opts.batchSize)
		return err
	}
	for cur.Next() {
		batch = append(batch, cur.Row())
		if len(batch) == opts.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	return flush()
}

func all(ctx context.Context, c *client.Client, cmd command.Command) ([]sqlgen.Row, error) {
	cur, err := c.Execute(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return cur.All()
}
