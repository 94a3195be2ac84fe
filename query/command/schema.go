package command

import (
	"fmt"
	"strings"
)

// ColumnType is a portable column type.
type ColumnType string

const (
	TypeInteger  ColumnType = "INTEGER"
	TypeFloat    ColumnType = "FLOAT"
	TypeDecimal  ColumnType = "DECIMAL"
	TypeString   ColumnType = "STRING"
	TypeBinary   ColumnType = "BINARY"
	TypeDate     ColumnType = "DATE"
	TypeTime     ColumnType = "TIME"
	TypeDateTime ColumnType = "DATETIME"
	TypeBoolean  ColumnType = "BOOLEAN"
)

// Known reports whether t is a portable column type.
func (t ColumnType) Known() bool {
	switch t {
	case TypeInteger, TypeFloat, TypeDecimal, TypeString, TypeBinary,
		TypeDate, TypeTime, TypeDateTime, TypeBoolean:
		return true
	}
	return false
}

// Numeric reports whether t holds numbers.
func (t ColumnType) Numeric() bool {
	return t == TypeInteger || t == TypeFloat || t == TypeDecimal
}

// MaxClassOneLength is the longest value a width class 1 STRING or BINARY column holds.
const MaxClassOneLength = 255

// ColumnDefinition describes a column independently of any dialect.
//
// Size is the byte width for INTEGER (1, 2, 3, 4, 8) and FLOAT (4, 8), the
// precision for DECIMAL, and the width class for STRING and BINARY: 1 holds up to
// 255 bytes and needs Length, 2 up to 64 KiB, 3 up to 16 MiB, 4 up to 4 GiB.
// A zero Size selects the type's default.
type ColumnDefinition struct {
	Name          string
	Type          ColumnType
	Size          int
	Scale         int
	Length        int
	NotNull       bool
	Default       any
	HasDefault    bool
	PrimaryKey    bool
	UniqueKey     bool
	AutoIncrement bool
	Unsigned      bool
	Fixed         bool
	Comment       string
	References    *Reference
}

// Reference is the target of a foreign key.
type Reference struct {
	Table    string
	Columns  []string
	OnDelete string
	OnUpdate string
}

func (r *Reference) validate(tag Tag, field string, columns int) error {
	if blank(r.Table) {
		return Invalid(tag, field, "referenced table is required")
	}
	if len(r.Columns) != columns {
		return Invalid(tag, field, "%d referenced columns for %d columns", len(r.Columns), columns)
	}
	for _, action := range []string{r.OnDelete, r.OnUpdate} {
		switch strings.ToUpper(action) {
		case "", "CASCADE", "RESTRICT", "SET NULL", "SET DEFAULT", "NO ACTION":
		default:
			return Invalid(tag, field, "unknown referential action %q", action)
		}
	}
	return nil
}

// Validate checks the definition's structure.
func (c *ColumnDefinition) Validate() error {
	field := "COLUMN " + c.Name
	if blank(c.Name) {
		return Invalid("", "COLUMN", "column name is required")
	}
	if !c.Type.Known() {
		return Invalid("", field, "unknown type %q", c.Type)
	}
	switch c.Type {
	case TypeInteger:
		if c.Size < 0 || c.Size > 8 {
			return Invalid("", field, "integer width %d out of range 1..8", c.Size)
		}
	case TypeFloat:
		if c.Size < 0 || c.Size > 8 {
			return Invalid("", field, "float width %d out of range 1..8", c.Size)
		}
	case TypeDecimal:
		if c.Size < 0 || c.Scale < 0 || (c.Size > 0 && c.Scale > c.Size) {
			return Invalid("", field, "invalid precision %d and scale %d", c.Size, c.Scale)
		}
	case TypeString, TypeBinary:
		if c.Size < 1 || c.Size > 4 {
			return Invalid("", field, "width class %d out of range 1..4", c.Size)
		}
		if c.Size == 1 && (c.Length < 1 || c.Length > MaxClassOneLength) {
			return Invalid("", field, "width class 1 needs a length in 1..%d", MaxClassOneLength)
		}
	}
	if c.AutoIncrement && c.Type != TypeInteger {
		return Invalid("", field, "AUTO INCREMENT needs an INTEGER column")
	}
	if c.Unsigned && !c.Type.Numeric() {
		return Invalid("", field, "UNSIGNED needs a numeric column")
	}
	if c.References != nil {
		if err := c.References.validate("", field, 1); err != nil {
			return err
		}
	}
	return nil
}

// DefaultSet reports whether the column declares a DEFAULT, including DEFAULT NULL.
func (c *ColumnDefinition) DefaultSet() bool {
	return c.HasDefault || c.Default != nil
}

// String renders the definition in the shorthand accepted by ParseColumn,
// without the column name.
func (c *ColumnDefinition) String() string {
	var b strings.Builder
	b.WriteString(string(c.Type))
	switch c.Type {
	case TypeString, TypeBinary:
		if c.Size == 1 {
			fmt.Fprintf(&b, "(1, %d)", c.Length)
		} else {
			fmt.Fprintf(&b, "(%d)", c.Size)
		}
	case TypeDecimal:
		if c.Size > 0 {
			fmt.Fprintf(&b, "(%d, %d)", c.Size, c.Scale)
		}
	default:
		if c.Size > 0 {
			fmt.Fprintf(&b, "(%d)", c.Size)
		}
	}
	flag := func(on bool, s string) {
		if on {
			b.WriteString(" " + s)
		}
	}
	flag(c.Unsigned, "UNSIGNED")
	flag(c.Fixed, "FIXED")
	flag(c.NotNull, "NOT NULL")
	if c.DefaultSet() {
		b.WriteString(" DEFAULT " + shorthandLiteral(c.Default))
	}
	flag(c.AutoIncrement, "AUTO INCREMENT")
	flag(c.PrimaryKey, "PRIMARY KEY")
	flag(c.UniqueKey, "UNIQUE KEY")
	if c.Comment != "" {
		b.WriteString(" COMMENT " + shorthandLiteral(c.Comment))
	}
	if r := c.References; r != nil {
		fmt.Fprintf(&b, " REFERENCES %s(%s)", r.Table, strings.Join(r.Columns, ", "))
		if r.OnDelete != "" {
			b.WriteString(" ON DELETE " + strings.ToUpper(r.OnDelete))
		}
		if r.OnUpdate != "" {
			b.WriteString(" ON UPDATE " + strings.ToUpper(r.OnUpdate))
		}
	}
	return b.String()
}

// KeyType is a portable key type.
type KeyType string

const (
	KeyPrimary  KeyType = "PRIMARY"
	KeyIndex    KeyType = "KEY"
	KeyUnique   KeyType = "UNIQUE"
	KeyFulltext KeyType = "FULLTEXT"
	KeyForeign  KeyType = "FOREIGN"
)

// KeyDefinition describes an index or constraint independently of any dialect.
// Name is recommended; dialects that need one get <table>_<columns>_idx.
type KeyDefinition struct {
	Type       KeyType
	Columns    []string
	Name       string
	References *Reference
}

// Validate checks the definition's structure.
func (k *KeyDefinition) Validate() error {
	switch k.Type {
	case KeyPrimary, KeyIndex, KeyUnique, KeyFulltext, KeyForeign:
	default:
		return Invalid("", "KEY", "unknown key type %q", k.Type)
	}
	field := "KEY " + string(k.Type)
	if len(k.Columns) == 0 {
		return Invalid("", field, "at least one column is required")
	}
	for _, c := range k.Columns {
		if blank(c) {
			return Invalid("", field, "empty column name")
		}
	}
	if k.Type == KeyForeign {
		if k.References == nil {
			return Invalid("", field, "REFERENCES is required")
		}
		return k.References.validate("", field, len(k.Columns))
	}
	if k.References != nil {
		return Invalid("", field, "REFERENCES is only valid for FOREIGN keys")
	}
	return nil
}
