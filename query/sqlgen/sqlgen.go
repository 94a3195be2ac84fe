// Package sqlgen compiles commands into dialect specific, parameterized SQL.
//
// Compile turns one command into a Plan: an ordered list of statements plus the
// post-execution directives the client applies to the result (row filtering on
// dialects without LIMIT, SHOW normalization, export normalization, the AUTO
// INCREMENT column to read the insert id from). Values are always bound; the only
// literals ever rendered are DDL defaults, through Dialect.QuoteValue.
package sqlgen

import (
	"errors"
	"fmt"

	"github.com/satishbabariya/dbcmd/dialect"
	"github.com/satishbabariya/dbcmd/query/command"
)

// ErrColumnsRequired is returned for DROP COLUMN on dialects that recreate the
// table; compile with RecreateWithout and the live column list instead.
var ErrColumnsRequired = errors.New("sqlgen: drop column needs the current column list")

// Kind is the value kind a bound argument is sent with.
type Kind int

const (
	KindString Kind = iota
	KindBinary
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindBinary:
		return "binary"
	case KindNull:
		return "null"
	default:
		return "string"
	}
}

// Arg is one bound parameter.
type Arg struct {
	Kind  Kind
	Value any
}

func bind(v any) Arg {
	switch v := v.(type) {
	case nil:
		return Arg{Kind: KindNull}
	case command.Binary:
		return Arg{Kind: KindBinary, Value: []byte(v)}
	case []byte:
		return Arg{Kind: KindBinary, Value: v}
	case command.Ident:
		return Arg{Kind: KindString, Value: string(v)}
	default:
		return Arg{Kind: KindString, Value: v}
	}
}

// Statement is one SQL statement and its bound parameters.
type Statement struct {
	SQL  string
	Args []Arg
}

// Values returns the arguments as database/sql driver arguments.
func (s Statement) Values() []any {
	if len(s.Args) == 0 {
		return nil
	}
	out := make([]any, len(s.Args))
	for i, a := range s.Args {
		if a.Kind == KindNull {
			continue
		}
		out[i] = a.Value
	}
	return out
}

func (s Statement) String() string {
	if len(s.Args) == 0 {
		return s.SQL
	}
	return fmt.Sprintf("%s %v", s.SQL, s.Values())
}

// RowFilter skips and limits rows client side. Take < 0 keeps every row after Skip.
type RowFilter struct {
	Skip int
	Take int
}

// Row is one result row keyed by column name.
type Row = map[string]any

// Reshape rewrites a complete result set into the normalized shape of a command.
type Reshape func(rows []Row) ([]Row, error)

// InsertTarget is the table and AUTO INCREMENT column of an INSERT.
type InsertTarget struct {
	Table  string
	Column string
}

// Plan is a compiled command.
type Plan struct {
	Tag        command.Tag
	Statements []Statement
	// Query is set when the last statement returns rows.
	Query bool
	// Columns names the result columns of a query that might return no rows.
	Columns []string
	// RowFilter emulates LIMIT on dialects without it.
	RowFilter *RowFilter
	// ExportRows marks rows for replay as INSERT values.
	ExportRows bool
	// Reshape normalizes SHOW results.
	Reshape Reshape
	// AutoIncrement is retained after an INSERT naming its AUTO INCREMENT column.
	AutoIncrement *InsertTarget
}

func (p *Plan) add(sql string, args ...Arg) {
	p.Statements = append(p.Statements, Statement{SQL: sql, Args: args})
}

// Compile validates cmd and compiles it for d.
func Compile(d dialect.Dialect, cmd command.Command) (*Plan, error) {
	if cmd == nil {
		return nil, command.Invalid("", "", "nil command")
	}
	if !cmd.Tag().Known() {
		return nil, &command.UnsupportedCommandError{Tag: cmd.Tag(), Dialect: string(d.Name())}
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	plan := &Plan{Tag: cmd.Tag()}
	var err error
	switch c := cmd.(type) {
	case *command.Select:
		err = compileSelect(d, c, plan)
	case *command.Insert:
		err = compileInsert(d, c, plan)
	case *command.Update:
		err = compileUpdate(d, c, plan)
	case *command.Delete:
		err = compileDelete(d, c, plan)
	case *command.TruncateTable:
		compileTruncate(d, c, plan)
	case *command.Set:
		err = compileSet(d, c, plan)
	case *command.Use:
		compileUse(d, c, plan)
	case *command.CreateDatabase:
		err = compileCreateDatabase(d, c, plan)
	case *command.DropDatabase:
		err = compileDropDatabase(d, c, plan)
	case *command.CreateTable:
		err = compileCreateTable(d, c, plan)
	case *command.DropTable:
		compileDropTable(d, c, plan)
	case *command.AddColumn:
		err = compileAddColumn(d, c, plan)
	case *command.DropColumn:
		err = compileDropColumn(d, c, plan)
	case *command.AddIndex:
		err = compileAddIndex(d, c, plan)
	case *command.DropIndex:
		compileDropIndex(d, c, plan)
	case *command.ShowDatabases:
		compileShowDatabases(d, plan)
	case *command.ShowTables:
		compileShowTables(d, c, plan)
	case *command.ShowCreateDatabase:
		err = compileShowCreateDatabase(d, c, plan)
	case *command.ShowCreateTable:
		compileShowCreateTable(d, c, plan)
	case *command.BulkImportMode:
		compileBulkImportMode(d, c, plan)
	default:
		return nil, &command.UnsupportedCommandError{Tag: cmd.Tag(), Dialect: string(d.Name())}
	}
	if err != nil {
		return nil, err
	}
	for i := range plan.Statements {
		plan.Statements[i].SQL = d.Rebind(plan.Statements[i].SQL)
	}
	return plan, nil
}
