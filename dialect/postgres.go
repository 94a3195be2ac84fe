package dialect

import (
	"strconv"

	"github.com/hashicorp/go-version"
	"github.com/lib/pq"
)

func newPostgres(v *version.Version) Dialect {
	return &base{
		name:        Postgres,
		version:     v,
		quoteIdent:  pq.QuoteIdentifier,
		quoteString: pq.QuoteLiteral,
		quoteBytes:  hexLiteral(`'\x`, "'::bytea"),
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		caps: Capabilities{
			Limit:               LimitOffset,
			MaxInsertRows:       1000,
			CreateTableAsSelect: true,
			AddColumn:           true,
			DropColumn:          DropColumnNative,
			Truncate:            true,
			Databases:           true,
			TemporaryTables:     true,
			AddColumnKeyword:    "ADD COLUMN",
			AlterConstraints:    true,
			CommentOn:           true,
			InsertIDNeedsColumn: true,
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
				Integers:     []SizedType{{2, "SMALLINT"}, {4, "INTEGER"}, {8, "BIGINT"}},
				Serials:      []SizedType{{2, "SMALLSERIAL"}, {4, "SERIAL"}, {8, "BIGSERIAL"}},
				Floats:       []SizedType{{4, "REAL"}, {8, "DOUBLE PRECISION"}},
				Decimal:      "NUMERIC",
				MaxPrecision: 1000,
				MaxScale:     1000,
				VarString:    "VARCHAR(%d)",
				FixedString:  "CHAR(%d)",
				Text:         [3]string{"TEXT", "TEXT", "TEXT"},
				VarBinary:    "BYTEA",
				Blob:         [3]string{"BYTEA", "BYTEA", "BYTEA"},
				Date:         "DATE",
				Time:         "TIME",
				DateTime:     "TIMESTAMP",
				Boolean:      "BOOLEAN",
			},
		},
	}
}
