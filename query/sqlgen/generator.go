package sqlgen

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/satishbabariya/dbcmd/dialect"
	"github.com/satishbabariya/dbcmd/internal/debug"
	"github.com/satishbabariya/dbcmd/query/command"
)

// generator is the skeleton shared by all statement generators: it walks clause
// strings, binds one argument per ? placeholder, quotes identifier arguments
// inline and splices compiled subqueries into {N} tokens.
type generator struct {
	d        dialect.Dialect
	caps     *dialect.Capabilities
	tag      command.Tag
	in       []any
	next     int
	subs     []*command.Select
	subquery bool
	args     []Arg
}

func newGenerator(d dialect.Dialect, tag command.Tag, in []any, subs []*command.Select, subquery bool) *generator {
	return &generator{
		d:        d,
		caps:     d.Capabilities(),
		tag:      tag,
		in:       in,
		subs:     subs,
		subquery: subquery,
	}
}

func (g *generator) quote(name string) string {
	return g.d.QuoteIdentifier(name)
}

func (g *generator) quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = g.quote(n)
	}
	return strings.Join(quoted, ", ")
}

func (g *generator) bindValue(v any) string {
	g.args = append(g.args, bind(v))
	return "?"
}

func (g *generator) consume(field string) (any, error) {
	if g.next >= len(g.in) {
		return nil, command.Invalid(g.tag, field, "placeholder %d has no argument", g.next+1)
	}
	v := g.in[g.next]
	g.next++
	return v, nil
}

// finish fails when arguments were left unconsumed.
func (g *generator) finish() error {
	if g.next < len(g.in) {
		return command.Invalid(g.tag, "args", "%d arguments for %d placeholders", len(g.in), g.next)
	}
	return nil
}

// clause substitutes the placeholders and subquery tokens of one clause string.
// With ident set every argument is quoted as an identifier.
func (g *generator) clause(field, text string, ident bool) (string, error) {
	var sb strings.Builder
	sb.Grow(len(text) + 8)
	for i := 0; i < len(text); {
		if end, ok := g.d.SkipQuoted(text, i); ok {
			sb.WriteString(text[i:end])
			i = end
			continue
		}
		switch c := text[i]; c {
		case '?':
			v, err := g.consume(field)
			if err != nil {
				return "", err
			}
			id, isIdent := v.(command.Ident)
			switch {
			case isIdent:
				if id == "" {
					return "", command.Invalid(g.tag, field, "empty identifier argument %d", g.next)
				}
				sb.WriteString(g.quote(string(id)))
			case ident:
				name, ok := v.(string)
				if !ok || name == "" {
					return "", command.Invalid(g.tag, field, "argument %d is not an identifier", g.next)
				}
				sb.WriteString(g.quote(name))
			default:
				sb.WriteString(g.bindValue(v))
			}
			i++
		case '{':
			n, end, ok := subqueryToken(text, i)
			if !ok {
				sb.WriteByte(c)
				i++
				continue
			}
			sql, err := g.subqueryAt(field, n)
			if err != nil {
				return "", err
			}
			sb.WriteString("(" + sql + ")")
			i = end
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), nil
}

// subqueryToken parses a {N} token starting at text[i].
func subqueryToken(text string, i int) (n, end int, ok bool) {
	j := i + 1
	for j < len(text) && text[j] >= '0' && text[j] <= '9' {
		j++
	}
	if j == i+1 || j >= len(text) || text[j] != '}' {
		return 0, 0, false
	}
	n, err := strconv.Atoi(text[i+1 : j])
	if err != nil {
		return 0, 0, false
	}
	return n, j + 1, true
}

// subqueryAt compiles the n-th subquery and appends its parameters in place.
func (g *generator) subqueryAt(field string, n int) (string, error) {
	if n >= len(g.subs) {
		return "", command.Invalid(g.tag, field, "{%d} has no matching subquery", n)
	}
	sub := g.subs[n]
	sg := newGenerator(g.d, command.TagSelect, sub.Args, sub.Subqueries, true)
	sql, _, err := sg.selectSQL(sub)
	if err != nil {
		return "", err
	}
	if err := sg.finish(); err != nil {
		return "", err
	}
	g.args = append(g.args, sg.args...)
	return sql, nil
}

// limit parses "n" or "offset, n"; either part may be a placeholder.
func (g *generator) limit(field, text string) (offset, count int, err error) {
	parts := strings.Split(text, ",")
	if len(parts) > 2 {
		return 0, 0, command.Invalid(g.tag, field, "expected \"n\" or \"offset, n\", got %q", text)
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		var v any = p
		if p == "?" {
			if v, err = g.consume(field); err != nil {
				return 0, 0, err
			}
		}
		if nums[i], err = toCount(v); err != nil {
			return 0, 0, command.Invalid(g.tag, field, "%v", err)
		}
	}
	if len(nums) == 1 {
		return 0, nums[0], nil
	}
	return nums[0], nums[1], nil
}

func toCount(v any) (int, error) {
	var n int64
	switch v := v.(type) {
	case int:
		n = int64(v)
	case int8:
		n = int64(v)
	case int16:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case uint:
		n = int64(v)
	case uint8:
		n = int64(v)
	case uint16:
		n = int64(v)
	case uint32:
		n = int64(v)
	case uint64:
		if v > math.MaxInt32 {
			return 0, fmt.Errorf("row count %d out of range", v)
		}
		n = int64(v)
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("row count %v is not an integer", v)
		}
		n = int64(v)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("row count %q is not an integer", v)
		}
		n = parsed
	default:
		return 0, fmt.Errorf("row count of type %T", v)
	}
	if n < 0 || n > math.MaxInt32 {
		return 0, fmt.Errorf("row count %d out of range", n)
	}
	return int(n), nil
}

// limitSQL renders a native LIMIT clause. It returns "" on dialects without one.
func (g *generator) limitSQL(offset, count int) string {
	switch g.caps.Limit {
	case dialect.LimitComma:
		if offset > 0 {
			return fmt.Sprintf("LIMIT %d, %d", offset, count)
		}
		return fmt.Sprintf("LIMIT %d", count)
	case dialect.LimitOffset:
		if offset > 0 {
			return fmt.Sprintf("LIMIT %d OFFSET %d", count, offset)
		}
		return fmt.Sprintf("LIMIT %d", count)
	}
	return ""
}

// discard consumes the placeholders of a clause the dialect cannot express, so
// argument positions stay aligned, and drops whatever it bound.
func (g *generator) discard(field, text string) error {
	mark := len(g.args)
	if field == "LIMIT" {
		if _, _, err := g.limit(field, text); err != nil {
			return err
		}
	} else if _, err := g.clause(field, text, false); err != nil {
		return err
	}
	g.args = g.args[:mark]
	debug.Warn("clause not supported by dialect, omitted",
		"dialect", g.d.Name(), "command", g.tag, "clause", field)
	return nil
}
