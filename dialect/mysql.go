package dialect

import (
	"strings"

	"github.com/hashicorp/go-version"
)

func newMySQL(v *version.Version) Dialect {
	return &base{
		name:    MySQL,
		version: v,
		quoteIdent: func(s string) string {
			return "`" + strings.ReplaceAll(s, "`", "``") + "`"
		},
		quoteString: mysqlString,
		quoteBytes:  hexLiteral("X'", "'"),
		caps: Capabilities{
			Limit:               LimitComma,
			MaxInsertRows:       1000,
			CreateTableAsSelect: true,
			AddColumn:           true,
			AddColumnPosition:   true,
			DropColumn:          DropColumnNative,
			UpdateLimit:         true,
			Truncate:            true,
			Databases:           true,
			CharacterSets:       true,
			TemporaryTables:     true,
			DropTemporary:       true,
			AddColumnKeyword:    "ADD COLUMN",
			AlterConstraints:    true,
			IfExists:            true,
			DropIndexOnTable:    true,
			BackslashEscapes:    true,
			Begin:               "BEGIN",
			Commit:              "COMMIT",
			Rollback:            "ROLLBACK",
			Keys: KeyTable{
				Primary:  KeyInline,
				Key:      KeyInline,
				Unique:   KeyInline,
				Fulltext: KeyInline,
				Foreign:  KeyInline,
			},
			Types: TypeTable{
				Integers: []SizedType{
					{1, "TINYINT"}, {2, "SMALLINT"}, {3, "MEDIUMINT"}, {4, "INT"}, {8, "BIGINT"},
				},
				Unsigned:      true,
				AutoIncrement: "AUTO_INCREMENT",
				Floats:        []SizedType{{4, "FLOAT"}, {8, "DOUBLE"}},
				Decimal:       "DECIMAL",
				MaxPrecision:  65,
				MaxScale:      30,
				VarString:     "VARCHAR(%d)",
				FixedString:   "CHAR(%d)",
				Text:          [3]string{"TEXT", "MEDIUMTEXT", "LONGTEXT"},
				VarBinary:     "VARBINARY(%d)",
				FixedBinary:   "BINARY(%d)",
				Blob:          [3]string{"BLOB", "MEDIUMBLOB", "LONGBLOB"},
				Date:          "DATE",
				Time:          "TIME",
				DateTime:      "DATETIME",
				Boolean:       "TINYINT(1)",
				InlineComment: true,
			},
		},
	}
}

// mysqlString escapes backslashes as well as quotes, as MySQL treats the
// backslash as an escape character in string literals by default.
func mysqlString(s string) string {
	if !strings.ContainsAny(s, `'\`) {
		return "'" + s + "'"
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", "''")
	return "'" + s + "'"
}
