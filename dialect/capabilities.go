package dialect

// LimitSyntax is the row-limiting syntax a dialect understands.
type LimitSyntax int

const (
	// LimitNone means the dialect has no LIMIT clause; rows are filtered client side.
	LimitNone LimitSyntax = iota
	// LimitOffset renders "LIMIT n OFFSET m".
	LimitOffset
	// LimitComma renders "LIMIT m, n".
	LimitComma
)

// DropColumnMode describes how a dialect removes columns.
type DropColumnMode int

const (
	// DropColumnNone means columns cannot be dropped.
	DropColumnNone DropColumnMode = iota
	// DropColumnNative renders ALTER TABLE ... DROP COLUMN.
	DropColumnNative
	// DropColumnRecreate copies the remaining columns into a new table.
	DropColumnRecreate
)

// KeySupport describes how a dialect expresses one key type.
type KeySupport int

const (
	// KeyUnsupported keys are dropped from the plan.
	KeyUnsupported KeySupport = iota
	// KeyInline keys are part of the CREATE TABLE statement.
	KeyInline
	// KeySeparate keys need their own CREATE INDEX statement.
	KeySeparate
)

func (s KeySupport) String() string {
	switch s {
	case KeyInline:
		return "inline"
	case KeySeparate:
		return "separate"
	default:
		return "unsupported"
	}
}

// KeyTable holds the key support per portable key type.
type KeyTable struct {
	Primary  KeySupport
	Key      KeySupport
	Unique   KeySupport
	Fulltext KeySupport
	Foreign  KeySupport
}

// SizedType is a native type covering values of up to Bytes bytes.
type SizedType struct {
	Bytes int
	Name  string
}

// TypeTable maps portable column types to native type names.
type TypeTable struct {
	// Integers are ordered by ascending width.
	Integers []SizedType
	// Unsigned is set when the UNSIGNED modifier exists.
	Unsigned bool
	// Serials replace the integer type of AUTO INCREMENT columns.
	Serials []SizedType
	// AutoIncrement is the modifier appended to AUTO INCREMENT columns.
	AutoIncrement string
	// AutoIncrementIsKey is set when the AutoIncrement modifier already
	// declares the primary key.
	AutoIncrementIsKey bool

	// Floats are ordered by ascending width.
	Floats []SizedType

	Decimal      string
	MaxPrecision int
	MaxScale     int

	// VarString and FixedString are format strings taking the length.
	// An empty FixedString emulates FIXED with VarString.
	VarString   string
	FixedString string
	// Text holds the types for width classes 2, 3 and 4.
	Text [3]string

	VarBinary   string
	FixedBinary string
	Blob        [3]string

	Date     string
	Time     string
	DateTime string
	Boolean  string

	// InlineComment is set when COMMENT '...' is valid in a column definition.
	InlineComment bool
}

// Capabilities is the static description of what a dialect supports.
type Capabilities struct {
	Limit LimitSyntax
	// MaxInsertRows is the largest number of rows a single INSERT may carry.
	MaxInsertRows int
	// CreateTableAsSelect is set for native CREATE TABLE ... AS SELECT.
	CreateTableAsSelect bool
	AddColumn           bool
	// AddColumnPosition is set when ADD COLUMN accepts FIRST / AFTER.
	AddColumnPosition bool
	DropColumn        DropColumnMode
	// UpdateLimit is set when UPDATE and DELETE accept ORDER BY and LIMIT.
	UpdateLimit bool
	// Truncate is set when TRUNCATE TABLE exists.
	Truncate bool
	// Databases is set when databases can be created, dropped and selected.
	Databases bool
	// CharacterSets is set when tables and databases take CHARACTER SET / COLLATE.
	CharacterSets bool
	// TemporaryTables is set for CREATE TEMPORARY TABLE.
	TemporaryTables bool
	// TemporaryPrefix marks a table name as temporary where there is no
	// TEMPORARY keyword.
	TemporaryPrefix string
	// DropTemporary is set for DROP TEMPORARY TABLE.
	DropTemporary bool
	// AddColumnKeyword introduces a column in ALTER TABLE.
	AddColumnKeyword string
	// AlterConstraints is set when ALTER TABLE can add primary and foreign keys.
	AlterConstraints bool
	// CommentOn is set when column comments need COMMENT ON COLUMN.
	CommentOn bool
	// IdentityInsert is set when explicit values for an AUTO INCREMENT column
	// must be enabled with SET IDENTITY_INSERT.
	IdentityInsert bool
	// InsertIDNeedsColumn is set when the last insert id can only be read
	// through the auto increment column's sequence.
	InsertIDNeedsColumn bool
	// IfExists is set when DROP TABLE / DROP INDEX accept IF EXISTS.
	IfExists bool
	// DropIndexOnTable is set when DROP INDEX needs the owning table.
	DropIndexOnTable bool
	// BackslashEscapes is set when a backslash escapes the next character of
	// a string literal.
	BackslashEscapes bool
	// BracketIdentifiers is set when [name] quotes an identifier.
	BracketIdentifiers bool

	Begin    string
	Commit   string
	Rollback string

	Keys  KeyTable
	Types TypeTable
}
