package dialect

import (
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"
)

func newSQLServer(v *version.Version) Dialect {
	return &base{
		name:    SQLServer,
		version: v,
		quoteIdent: func(s string) string {
			return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
		},
		quoteString: func(s string) string {
			return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
		},
		quoteBytes:  hexLiteral("0x", ""),
		placeholder: func(n int) string { return "@p" + strconv.Itoa(n) },
		caps: Capabilities{
			Limit:              LimitNone,
			MaxInsertRows:      1000,
			AddColumn:          true,
			DropColumn:         DropColumnNative,
			Truncate:           true,
			Databases:          true,
			TemporaryPrefix:    "#",
			AddColumnKeyword:   "ADD",
			AlterConstraints:   true,
			IdentityInsert:     true,
			IfExists:           atLeast(v, "13.0"),
			DropIndexOnTable:   true,
			BracketIdentifiers: true,
			Begin:              "BEGIN TRANSACTION",
			Commit:             "COMMIT TRANSACTION",
			Rollback:           "ROLLBACK TRANSACTION",
			Keys: KeyTable{
				Primary:  KeyInline,
				Key:      KeySeparate,
				Unique:   KeyInline,
				Fulltext: KeyUnsupported,
				Foreign:  KeyInline,
			},
			Types: TypeTable{
				Integers:      []SizedType{{2, "SMALLINT"}, {4, "INT"}, {8, "BIGINT"}},
				AutoIncrement: "IDENTITY(1,1)",
				Floats:        []SizedType{{4, "REAL"}, {8, "FLOAT"}},
				Decimal:       "DECIMAL",
				MaxPrecision:  38,
				MaxScale:      38,
				VarString:     "NVARCHAR(%d)",
				FixedString:   "NCHAR(%d)",
				Text:          [3]string{"NVARCHAR(MAX)", "NVARCHAR(MAX)", "NVARCHAR(MAX)"},
				VarBinary:     "VARBINARY(%d)",
				FixedBinary:   "BINARY(%d)",
				Blob:          [3]string{"VARBINARY(MAX)", "VARBINARY(MAX)", "VARBINARY(MAX)"},
				Date:          "DATE",
				Time:          "TIME",
				DateTime:      "DATETIME2",
				Boolean:       "BIT",
			},
		},
	}
}
