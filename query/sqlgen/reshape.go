package sqlgen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/satishbabariya/dbcmd/dialect"
)

// renameTablesIn renames MySQL's "Tables_in_<db>" column to "Table".
func renameTablesIn(rows []Row) ([]Row, error) {
	for _, row := range rows {
		for k, v := range row {
			if strings.HasPrefix(k, "Tables_in_") {
				delete(row, k)
				row["Table"] = v
			}
		}
	}
	return rows, nil
}

var createTablePrefix = regexp.MustCompile(`(?i)^\s*CREATE\s+TABLE\s+(IF\s+NOT\s+EXISTS\s+)?`)

// ifNotExists makes the "Create Table" statements of rows replayable.
func ifNotExists(rows []Row) ([]Row, error) {
	for _, row := range rows {
		sql := text(row["Create Table"])
		if sql == "" {
			continue
		}
		row["Create Table"] = createTablePrefix.ReplaceAllString(sql, "CREATE TABLE IF NOT EXISTS ")
	}
	return rows, nil
}

// synthesizeCreate folds information_schema column rows into a single
// Table / Create Table row. Only columns, defaults and the primary key are
// reconstructed.
func synthesizeCreate(d dialect.Dialect, table string, hints bool) Reshape {
	return func(rows []Row) ([]Row, error) {
		if len(rows) == 0 {
			return nil, fmt.Errorf("sqlgen: table %q does not exist", table)
		}
		var (
			defs []string
			keys []string
		)
		for _, row := range rows {
			name := text(row["column_name"])
			def := d.QuoteIdentifier(name) + " " + columnType(d.Name(), row)
			if strings.EqualFold(text(row["nullable"]), "NO") {
				def += " NOT NULL"
			}
			identity := flag(row["is_identity"])
			if dflt := text(row["column_default"]); dflt != "" && !identity {
				def += " DEFAULT " + dflt
			}
			defs = append(defs, def)
			if flag(row["is_key"]) {
				keys = append(keys, d.QuoteIdentifier(name))
			}
		}
		if len(keys) > 0 {
			defs = append(defs, "PRIMARY KEY ("+strings.Join(keys, ", ")+")")
		}

		head := "CREATE TABLE "
		if hints {
			if d.Name() == dialect.SQLServer {
				head = "IF OBJECT_ID(" + d.QuoteValue(table) + ", N'U') IS NULL CREATE TABLE "
			} else {
				head = "CREATE TABLE IF NOT EXISTS "
			}
		}
		create := head + d.QuoteIdentifier(table) + " (\n  " + strings.Join(defs, ",\n  ") + "\n)"
		return []Row{{"Table": table, "Create Table": create}}, nil
	}
}

// columnType renders the native type of an information_schema column row.
func columnType(name dialect.Name, row Row) string {
	typ := strings.ToUpper(text(row["data_type"]))
	length, hasLength := number(row["max_length"])
	precision, hasPrecision := number(row["num_precision"])
	scale, _ := number(row["num_scale"])
	identity := flag(row["is_identity"])

	if name == dialect.Postgres {
		switch typ {
		case "CHARACTER VARYING":
			typ = "VARCHAR"
		case "CHARACTER":
			typ = "CHAR"
		case "TIMESTAMP WITHOUT TIME ZONE":
			typ = "TIMESTAMP"
		case "TIME WITHOUT TIME ZONE":
			typ = "TIME"
		}
		if identity {
			switch typ {
			case "SMALLINT":
				return "SMALLSERIAL"
			case "BIGINT":
				return "BIGSERIAL"
			default:
				return "SERIAL"
			}
		}
	}

	switch {
	case hasLength && length < 0:
		typ += "(MAX)"
	case hasLength:
		typ += "(" + strconv.FormatInt(length, 10) + ")"
	case (typ == "NUMERIC" || typ == "DECIMAL") && hasPrecision:
		typ += "(" + strconv.FormatInt(precision, 10) + ", " + strconv.FormatInt(scale, 10) + ")"
	}
	if identity && name == dialect.SQLServer {
		typ += " IDENTITY(1,1)"
	}
	return typ
}

// text converts a driver value to a string; NULL becomes "".
func text(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func number(v any) (int64, bool) {
	switch v := v.(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case nil:
		return 0, false
	default:
		n, err := strconv.ParseInt(text(v), 10, 64)
		return n, err == nil
	}
}

func flag(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	default:
		n, ok := number(v)
		return ok && n != 0
	}
}
