package dialect

import (
	"github.com/hashicorp/go-version"
)

func newSQLite(v *version.Version) Dialect {
	caps := Capabilities{
		Limit:               LimitOffset,
		MaxInsertRows:       500,
		CreateTableAsSelect: true,
		AddColumn:           true,
		DropColumn:          DropColumnNative,
		TemporaryTables:     true,
		AddColumnKeyword:    "ADD COLUMN",
		IfExists:            true,
		Begin:               "BEGIN",
		Commit:              "COMMIT",
		Rollback:            "ROLLBACK",
		Keys: KeyTable{
			Primary:  KeyInline,
			Key:      KeySeparate,
			Unique:   KeyInline,
			Fulltext: KeyUnsupported,
			Foreign:  KeyInline,
		},
		Types: TypeTable{
			Integers:           []SizedType{{8, "INTEGER"}},
			AutoIncrement:      "PRIMARY KEY AUTOINCREMENT",
			AutoIncrementIsKey: true,
			Floats:             []SizedType{{8, "REAL"}},
			Decimal:            "NUMERIC",
			MaxPrecision:       1000,
			MaxScale:           1000,
			VarString:          "VARCHAR(%d)",
			FixedString:        "CHAR(%d)",
			Text:               [3]string{"TEXT", "TEXT", "TEXT"},
			VarBinary:          "BLOB",
			Blob:               [3]string{"BLOB", "BLOB", "BLOB"},
			// SQLite has no temporal storage classes.
			Date:     "TEXT",
			Time:     "TEXT",
			DateTime: "TEXT",
			Boolean:  "INTEGER",
		},
	}
	if !atLeast(v, "3.35.0") {
		caps.DropColumn = DropColumnRecreate
	}
	if !atLeast(v, "3.7.11") {
		caps.MaxInsertRows = 1
	}
	return &base{
		name:        SQLite,
		version:     v,
		quoteIdent:  doubleQuotes(`"`),
		quoteString: doubleQuotes("'"),
		quoteBytes:  hexLiteral("X'", "'"),
		caps:        caps,
	}
}
