package sqlgen

import (
	"maps"
	"slices"
	"strings"

	"github.com/satishbabariya/dbcmd/dialect"
	"github.com/satishbabariya/dbcmd/query/command"
)

func compileUpdate(d dialect.Dialect, u *command.Update, plan *Plan) error {
	g := newGenerator(d, command.TagUpdate, u.Args, nil, false)

	var sets []string
	for _, col := range slices.Sorted(maps.Keys(u.Values)) {
		expr := "NULL"
		switch v := u.Values[col].(type) {
		case bool:
			if v {
				expr = "DEFAULT"
			}
		default:
			expr = g.bindValue(v)
		}
		sets = append(sets, g.quote(col)+" = "+expr)
	}
	for _, col := range slices.Sorted(maps.Keys(u.Inline)) {
		sets = append(sets, g.quote(col)+" = "+u.Inline[col])
	}

	parts := []string{"UPDATE", g.quote(u.Table), "SET", strings.Join(sets, ", ")}
	parts, err := g.restrict(parts, u.Where, u.OrderBy, u.Limit)
	if err != nil {
		return err
	}
	if err := g.finish(); err != nil {
		return err
	}
	plan.add(strings.Join(parts, " "), g.args...)
	return nil
}

func compileDelete(d dialect.Dialect, del *command.Delete, plan *Plan) error {
	g := newGenerator(d, command.TagDelete, del.Args, nil, false)
	parts := []string{"DELETE FROM", g.quote(del.Table)}
	parts, err := g.restrict(parts, del.Where, del.OrderBy, del.Limit)
	if err != nil {
		return err
	}
	if err := g.finish(); err != nil {
		return err
	}
	plan.add(strings.Join(parts, " "), g.args...)
	return nil
}

// restrict appends WHERE, ORDER BY and LIMIT to an UPDATE or DELETE. ORDER BY and
// LIMIT are only rendered where the dialect supports them; they are never emulated
// because neither statement returns rows to filter.
func (g *generator) restrict(parts []string, where, orderBy, limit string) ([]string, error) {
	if strings.TrimSpace(where) != "" {
		sql, err := g.clause("WHERE", where, false)
		if err != nil {
			return nil, err
		}
		parts = append(parts, "WHERE", sql)
	}
	if !g.caps.UpdateLimit {
		if strings.TrimSpace(orderBy) != "" {
			if err := g.discard("ORDER BY", orderBy); err != nil {
				return nil, err
			}
		}
		if strings.TrimSpace(limit) != "" {
			if err := g.discard("LIMIT", limit); err != nil {
				return nil, err
			}
		}
		return parts, nil
	}
	if strings.TrimSpace(orderBy) != "" {
		sql, err := g.clause("ORDER BY", orderBy, false)
		if err != nil {
			return nil, err
		}
		parts = append(parts, "ORDER BY", sql)
	}
	if strings.TrimSpace(limit) != "" {
		offset, count, err := g.limit("LIMIT", limit)
		if err != nil {
			return nil, err
		}
		if offset != 0 {
			return nil, command.Invalid(g.tag, "LIMIT", "%s takes a row count, not an offset", g.tag)
		}
		parts = append(parts, g.limitSQL(0, count))
	}
	return parts, nil
}
