package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// columnLexer tokenizes the column shorthand, e.g.
//
//	STRING(1, 255) NOT NULL DEFAULT 'x' COMMENT 'display name'
var columnLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[(),.]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type rawColumn struct {
	Pos     lexer.Position
	Type    string       `@Ident`
	Params  []int        `( "(" @Number ( "," @Number )* ")" )?`
	Options []*rawOption `@@*`
}

type rawOption struct {
	NotNull    bool          `  @( "NOT" "NULL" )`
	Null       bool          `| @"NULL"`
	Default    *rawValue     `| "DEFAULT" @@`
	PrimaryKey bool          `| @( "PRIMARY" "KEY" )`
	UniqueKey  bool          `| @( "UNIQUE" "KEY"? )`
	AutoInc    bool          `| @( "AUTO" "INCREMENT" | "AUTO_INCREMENT" )`
	Unsigned   bool          `| @"UNSIGNED"`
	Fixed      bool          `| @"FIXED"`
	Comment    *string       `| "COMMENT" @String`
	References *rawReference `| "REFERENCES" @@`
}

type rawValue struct {
	Null   bool    `  @"NULL"`
	True   bool    `| @"TRUE"`
	False  bool    `| @"FALSE"`
	Number *string `| @Number`
	String *string `| @String`
}

type rawReference struct {
	Table   string       `@Ident ( @"." @Ident )?`
	Columns []string     `"(" @Ident ( "," @Ident )* ")"`
	Actions []*rawAction `@@*`
}

type rawAction struct {
	Event  string   `"ON" @( "DELETE" | "UPDATE" )`
	Action []string `@( "CASCADE" | "RESTRICT" | "SET" | "NO" | "NULL" | "DEFAULT" | "ACTION" )+`
}

var columnParser = participle.MustBuild[rawColumn](
	participle.Lexer(columnLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Ident"),
	participle.UseLookahead(2),
)

// ParseColumn parses the column shorthand into a validated definition named name.
func ParseColumn(name, shorthand string) (ColumnDefinition, error) {
	raw, err := columnParser.ParseString(name, shorthand)
	if err != nil {
		return ColumnDefinition{}, Invalid("", "COLUMN "+name, "%v", err)
	}
	def := ColumnDefinition{
		Name: name,
		Type: ColumnType(strings.ToUpper(raw.Type)),
	}
	if err := def.applyParams(raw.Params); err != nil {
		return ColumnDefinition{}, err
	}
	for _, opt := range raw.Options {
		switch {
		case opt.NotNull:
			def.NotNull = true
		case opt.Null:
			def.NotNull = false
		case opt.Default != nil:
			def.HasDefault = true
			def.Default = opt.Default.value()
		case opt.PrimaryKey:
			def.PrimaryKey = true
		case opt.UniqueKey:
			def.UniqueKey = true
		case opt.AutoInc:
			def.AutoIncrement = true
		case opt.Unsigned:
			def.Unsigned = true
		case opt.Fixed:
			def.Fixed = true
		case opt.Comment != nil:
			def.Comment = unquoteShorthand(*opt.Comment)
		case opt.References != nil:
			ref := &Reference{Table: opt.References.Table, Columns: opt.References.Columns}
			for _, a := range opt.References.Actions {
				action := strings.ToUpper(strings.Join(a.Action, " "))
				if strings.EqualFold(a.Event, "DELETE") {
					ref.OnDelete = action
				} else {
					ref.OnUpdate = action
				}
			}
			def.References = ref
		}
	}
	if err := def.Validate(); err != nil {
		return ColumnDefinition{}, err
	}
	return def, nil
}

func (c *ColumnDefinition) applyParams(params []int) error {
	limit := 0
	switch c.Type {
	case TypeInteger, TypeFloat:
		limit = 1
	case TypeDecimal, TypeString, TypeBinary:
		limit = 2
	}
	if len(params) > limit {
		return Invalid("", "COLUMN "+c.Name, "%s takes at most %d parameters, got %d", c.Type, limit, len(params))
	}
	if len(params) > 0 {
		c.Size = params[0]
	}
	if len(params) > 1 {
		if c.Type == TypeDecimal {
			c.Scale = params[1]
		} else {
			c.Length = params[1]
		}
	}
	return nil
}

func (v *rawValue) value() any {
	switch {
	case v.True:
		return true
	case v.False:
		return false
	case v.Number != nil:
		if n, err := strconv.ParseInt(*v.Number, 10, 64); err == nil {
			return n
		}
		f, _ := strconv.ParseFloat(*v.Number, 64)
		return f
	case v.String != nil:
		return unquoteShorthand(*v.String)
	}
	return nil
}

func unquoteShorthand(s string) string {
	return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
}

func shorthandLiteral(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(v)
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(v), "'", "''") + "'"
	}
}
