package sqlgen

import (
	"strings"

	"github.com/satishbabariya/dbcmd/dialect"
	"github.com/satishbabariya/dbcmd/internal/debug"
	"github.com/satishbabariya/dbcmd/query/command"
)

func compileSelect(d dialect.Dialect, s *command.Select, plan *Plan) error {
	g := newGenerator(d, command.TagSelect, s.Args, s.Subqueries, false)
	sql, filter, err := g.selectSQL(s)
	if err != nil {
		return err
	}
	if err := g.finish(); err != nil {
		return err
	}
	plan.add(sql, g.args...)
	plan.Query = true
	plan.RowFilter = filter
	plan.ExportRows = s.ExportRows
	return nil
}

// selectSQL assembles
//
//	SELECT [DISTINCT] <columns> FROM <from> [WHERE] [GROUP BY] [HAVING] [ORDER BY] [LIMIT]
//
// consuming arguments clause by clause in that order. On dialects without LIMIT
// it returns a row filter instead, except inside subqueries where the limit is
// dropped.
func (g *generator) selectSQL(s *command.Select) (string, *RowFilter, error) {
	parts := []string{"SELECT"}
	if s.Distinct {
		parts = append(parts, "DISTINCT")
	}
	columns := strings.TrimSpace(s.Columns)
	if columns == "" {
		columns = "*"
	}
	cols, err := g.clause("COLUMNS", columns, false)
	if err != nil {
		return "", nil, err
	}
	parts = append(parts, cols)

	from, err := g.clause("FROM", s.From, true)
	if err != nil {
		return "", nil, err
	}
	parts = append(parts, "FROM", from)

	for _, c := range []struct {
		keyword, text string
	}{
		{"WHERE", s.Where},
		{"GROUP BY", s.GroupBy},
		{"HAVING", s.Having},
		{"ORDER BY", s.OrderBy},
	} {
		if strings.TrimSpace(c.text) == "" {
			continue
		}
		sql, err := g.clause(c.keyword, c.text, false)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, c.keyword, sql)
	}

	var filter *RowFilter
	if strings.TrimSpace(s.Limit) != "" {
		offset, count, err := g.limit("LIMIT", s.Limit)
		if err != nil {
			return "", nil, err
		}
		switch {
		case g.caps.Limit != dialect.LimitNone:
			parts = append(parts, g.limitSQL(offset, count))
		case g.subquery:
			debug.Warn("LIMIT inside a subquery is not supported by dialect, omitted", "dialect", g.d.Name())
		default:
			filter = &RowFilter{Skip: offset, Take: count}
		}
	}
	return strings.Join(parts, " "), filter, nil
}
