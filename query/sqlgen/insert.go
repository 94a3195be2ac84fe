package sqlgen

import (
	"maps"
	"slices"
	"strings"

	"github.com/satishbabariya/dbcmd/dialect"
	"github.com/satishbabariya/dbcmd/query/command"
)

func compileInsert(d dialect.Dialect, ins *command.Insert, plan *Plan) error {
	g := newGenerator(d, command.TagInsert, nil, nil, false)
	table := g.quote(ins.Table)
	if ins.AutoIncrement != "" {
		plan.AutoIncrement = &InsertTarget{Table: ins.Table, Column: ins.AutoIncrement}
	}

	if ins.Select != nil {
		sg := newGenerator(d, command.TagSelect, ins.Select.Args, ins.Select.Subqueries, true)
		sql, _, err := sg.selectSQL(ins.Select)
		if err != nil {
			return err
		}
		if err := sg.finish(); err != nil {
			return err
		}
		parts := []string{"INSERT INTO", table}
		if len(ins.Columns) > 0 {
			parts = append(parts, "("+g.quoteAll(ins.Columns)+")")
		}
		parts = append(parts, sql)
		plan.add(strings.Join(parts, " "), sg.args...)
		return nil
	}

	rows := ins.Rows
	if len(rows) == 0 {
		rows = []map[string]any{ins.Values}
	}
	columns := slices.Sorted(maps.Keys(rows[0]))
	inline := slices.Sorted(maps.Keys(ins.Inline))
	names := append(slices.Clone(columns), inline...)
	head := "INSERT INTO " + table + " (" + g.quoteAll(names) + ") VALUES "

	chunk := max(g.caps.MaxInsertRows, 1)
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		tuples := make([]string, 0, end-start)
		var args []Arg
		for _, row := range rows[start:end] {
			values := make([]string, 0, len(names))
			for _, c := range columns {
				values = append(values, "?")
				args = append(args, bind(row[c]))
			}
			for _, c := range inline {
				values = append(values, ins.Inline[c])
			}
			tuples = append(tuples, "("+strings.Join(values, ", ")+")")
		}
		plan.add(head+strings.Join(tuples, ", "), args...)
	}

	if g.caps.IdentityInsert && ins.AutoIncrement != "" && slices.Contains(names, ins.AutoIncrement) {
		on := Statement{SQL: "SET IDENTITY_INSERT " + table + " ON"}
		plan.Statements = append([]Statement{on}, plan.Statements...)
		plan.add("SET IDENTITY_INSERT " + table + " OFF")
	}
	return nil
}
