package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/dbcmd/dialect"
	"github.com/satishbabariya/dbcmd/query/command"
)

// TranslateColumn renders a column definition for d, e.g.
//
//	`id` INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY
//
// Integer and float widths map to the smallest native type covering the requested
// range; unsigned integers on dialects without UNSIGNED widen one step, falling
// back to DECIMAL(20, 0). AUTO INCREMENT columns have no DECIMAL fallback, so a
// request no native serial type covers is rejected. Foreign key references are not part of the fragment;
// CREATE TABLE and ADD COLUMN turn them into FOREIGN keys.
func TranslateColumn(d dialect.Dialect, def command.ColumnDefinition) (string, error) {
	if err := def.Validate(); err != nil {
		return "", err
	}
	t := &d.Capabilities().Types
	typ, err := nativeType(t, &def)
	if err != nil {
		return "", err
	}
	parts := []string{d.QuoteIdentifier(def.Name), typ}
	if def.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if def.DefaultSet() && !def.AutoIncrement {
		parts = append(parts, "DEFAULT "+d.QuoteValue(def.Default))
	}
	if def.AutoIncrement && t.AutoIncrement != "" {
		parts = append(parts, t.AutoIncrement)
	}
	if def.PrimaryKey && !(def.AutoIncrement && t.AutoIncrementIsKey) {
		parts = append(parts, "PRIMARY KEY")
	}
	if def.UniqueKey {
		parts = append(parts, "UNIQUE")
	}
	if def.Comment != "" && t.InlineComment {
		parts = append(parts, "COMMENT "+d.QuoteValue(def.Comment))
	}
	return strings.Join(parts, " "), nil
}

func nativeType(t *dialect.TypeTable, def *command.ColumnDefinition) (string, error) {
	switch def.Type {
	case command.TypeInteger:
		size := def.Size
		if size == 0 {
			size = 4
		}
		need := size
		if def.Unsigned && !t.Unsigned {
			need = size + 1
		}
		types := t.Integers
		if def.AutoIncrement && len(t.Serials) > 0 {
			types = t.Serials
		}
		st, ok := smallest(types, need)
		switch {
		case ok:
		case def.AutoIncrement:
			return "", command.Invalid("", "COLUMN "+def.Name, "no AUTO INCREMENT type holds %d-byte unsigned integers", size)
		default:
			return decimal(t, 20, 0), nil
		}
		if def.Unsigned && t.Unsigned {
			return st.Name + " UNSIGNED", nil
		}
		return st.Name, nil
	case command.TypeFloat:
		size := def.Size
		if size == 0 {
			size = 8
		}
		st, ok := smallest(t.Floats, size)
		if !ok {
			st = t.Floats[len(t.Floats)-1]
		}
		if def.Unsigned && t.Unsigned {
			return st.Name + " UNSIGNED", nil
		}
		return st.Name, nil
	case command.TypeDecimal:
		if def.Size == 0 {
			return t.Decimal, nil
		}
		typ := decimal(t, def.Size, def.Scale)
		if def.Unsigned && t.Unsigned {
			typ += " UNSIGNED"
		}
		return typ, nil
	case command.TypeString:
		if def.Size > 1 {
			return t.Text[def.Size-2], nil
		}
		if def.Fixed && t.FixedString != "" {
			return sized(t.FixedString, def.Length), nil
		}
		return sized(t.VarString, def.Length), nil
	case command.TypeBinary:
		if def.Size > 1 {
			return t.Blob[def.Size-2], nil
		}
		if def.Fixed && t.FixedBinary != "" {
			return sized(t.FixedBinary, def.Length), nil
		}
		return sized(t.VarBinary, def.Length), nil
	case command.TypeDate:
		return t.Date, nil
	case command.TypeTime:
		return t.Time, nil
	case command.TypeDateTime:
		return t.DateTime, nil
	default:
		return t.Boolean, nil
	}
}

// smallest returns the narrowest type holding at least bytes bytes.
func smallest(types []dialect.SizedType, bytes int) (dialect.SizedType, bool) {
	for _, st := range types {
		if st.Bytes >= bytes {
			return st, true
		}
	}
	return dialect.SizedType{}, false
}

// decimal clamps precision and scale to what the dialect supports.
func decimal(t *dialect.TypeTable, precision, scale int) string {
	precision = min(precision, t.MaxPrecision)
	scale = min(scale, t.MaxScale, precision)
	return fmt.Sprintf("%s(%d, %d)", t.Decimal, precision, scale)
}

// sized formats a length into a type format; plain type names are returned as is.
func sized(format string, n int) string {
	if strings.Contains(format, "%d") {
		return fmt.Sprintf(format, n)
	}
	return format
}
