package command

import (
	"maps"
	"slices"
	"strings"
)

// Select reads rows. Clause strings may contain ? placeholders and {N} subquery
// tokens; Args are consumed left to right across Columns, From, Where, GroupBy,
// Having, OrderBy and Limit. Arguments consumed in From are quoted as identifiers.
type Select struct {
	Distinct bool
	// Columns defaults to "*".
	Columns string
	From    string
	Where   string
	GroupBy string
	Having  string
	OrderBy string
	// Limit is "n" or "offset, n"; either part may be ?.
	Limit      string
	Subqueries []*Select
	// ExportRows normalizes rows so they can be replayed as Insert values.
	ExportRows bool
	Args       []any
}

func (*Select) Tag() Tag { return TagSelect }

func (s *Select) Validate() error {
	if blank(s.From) {
		return Invalid(TagSelect, "FROM", "table expression is required")
	}
	for i, sub := range s.Subqueries {
		if sub == nil {
			return Invalid(TagSelect, "SUBQUERIES", "subquery %d is nil", i)
		}
		if err := sub.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Insert adds rows. The two shapes are exclusive: Values (or Rows, for a multi-row
// insert) with optional Inline expressions, or Columns with an embedded Select.
type Insert struct {
	Table  string
	Values map[string]any
	Rows   []map[string]any
	// Inline maps columns to raw SQL expressions, e.g. "CURRENT_TIMESTAMP".
	Inline map[string]string
	// AutoIncrement names the column whose generated value InsertID reports.
	AutoIncrement string
	Columns       []string
	Select        *Select
}

func (*Insert) Tag() Tag { return TagInsert }

func (i *Insert) Validate() error {
	if blank(i.Table) {
		return Invalid(TagInsert, "TABLE", "table name is required")
	}
	valued := len(i.Values) > 0 || len(i.Inline) > 0
	switch {
	case i.Select != nil:
		if valued || len(i.Rows) > 0 {
			return Invalid(TagInsert, "SELECT", "cannot be combined with VALUES, ROWS or INLINE")
		}
		return i.Select.Validate()
	case len(i.Columns) > 0:
		return Invalid(TagInsert, "COLUMNS", "only valid with SELECT")
	case len(i.Rows) > 0:
		if len(i.Values) > 0 {
			return Invalid(TagInsert, "ROWS", "cannot be combined with VALUES")
		}
		first := slices.Sorted(maps.Keys(i.Rows[0]))
		if len(first) == 0 && len(i.Inline) == 0 {
			return Invalid(TagInsert, "ROWS", "row 0 has no columns")
		}
		for n, row := range i.Rows[1:] {
			if !slices.Equal(first, slices.Sorted(maps.Keys(row))) {
				return Invalid(TagInsert, "ROWS", "row %d has different columns than row 0", n+1)
			}
		}
	case !valued:
		return Invalid(TagInsert, "VALUES", "at least one value is required")
	}
	for col := range i.Inline {
		if _, ok := i.Values[col]; ok {
			return Invalid(TagInsert, "INLINE", "column %q is also in VALUES", col)
		}
		if len(i.Rows) > 0 {
			if _, ok := i.Rows[0][col]; ok {
				return Invalid(TagInsert, "INLINE", "column %q is also in ROWS", col)
			}
		}
	}
	return nil
}

// Update changes rows. In Values, true compiles to DEFAULT and false to NULL; every
// other value is bound. Without a Where clause the update must be explicitly
// marked All.
type Update struct {
	Table   string
	Values  map[string]any
	Inline  map[string]string
	Where   string
	OrderBy string
	Limit   string
	All     bool
	// Args bind the placeholders of Where, OrderBy and Limit.
	Args []any
}

func (*Update) Tag() Tag { return TagUpdate }

func (u *Update) Validate() error {
	if blank(u.Table) {
		return Invalid(TagUpdate, "TABLE", "table name is required")
	}
	if len(u.Values) == 0 && len(u.Inline) == 0 {
		return Invalid(TagUpdate, "VALUES", "at least one value is required")
	}
	for col := range u.Inline {
		if _, ok := u.Values[col]; ok {
			return Invalid(TagUpdate, "INLINE", "column %q is also in VALUES", col)
		}
	}
	if blank(u.Where) && !u.All {
		return Invalid(TagUpdate, "WHERE", "missing WHERE; set ALL to update every row")
	}
	return nil
}

// Delete removes rows. Without a Where clause the delete must be explicitly marked All.
type Delete struct {
	Table   string
	Where   string
	OrderBy string
	Limit   string
	All     bool
	Args    []any
}

func (*Delete) Tag() Tag { return TagDelete }

func (d *Delete) Validate() error {
	if blank(d.Table) {
		return Invalid(TagDelete, "TABLE", "table name is required")
	}
	if blank(d.Where) && !d.All {
		return Invalid(TagDelete, "WHERE", "missing WHERE; set ALL to delete every row")
	}
	return nil
}

// TruncateTable empties tables.
type TruncateTable struct {
	Tables []string
}

func (*TruncateTable) Tag() Tag { return TagTruncateTable }

func (t *TruncateTable) Validate() error {
	return tableList(TagTruncateTable, t.Tables)
}

// Set passes a session statement through verbatim, e.g. "NAMES utf8mb4".
type Set struct {
	Statement string
	Args      []any
}

func (*Set) Tag() Tag { return TagSet }

func (s *Set) Validate() error {
	if blank(s.Statement) {
		return Invalid(TagSet, "", "statement is required")
	}
	return nil
}

// Use selects the current database.
type Use struct {
	Database string
}

func (*Use) Tag() Tag { return TagUse }

func (u *Use) Validate() error {
	if blank(u.Database) {
		return Invalid(TagUse, "", "database name is required")
	}
	return nil
}

// CreateDatabase creates a database.
type CreateDatabase struct {
	Name         string
	CharacterSet string
	Collate      string
}

func (*CreateDatabase) Tag() Tag { return TagCreateDatabase }

func (c *CreateDatabase) Validate() error {
	if blank(c.Name) {
		return Invalid(TagCreateDatabase, "NAME", "database name is required")
	}
	return nil
}

// DropDatabase drops a database.
type DropDatabase struct {
	Name string
}

func (*DropDatabase) Tag() Tag { return TagDropDatabase }

func (d *DropDatabase) Validate() error {
	if blank(d.Name) {
		return Invalid(TagDropDatabase, "NAME", "database name is required")
	}
	return nil
}

// CreateTable creates a table from column and key definitions, from a Select
// (CREATE TABLE AS SELECT), or from a native definition previously exported by
// ShowCreateTable with ExportHints.
type CreateTable struct {
	Table        string
	Columns      []ColumnDefinition
	Keys         []KeyDefinition
	Temporary    bool
	CharacterSet string
	Collate      string
	Select       *Select
	// Native is replayed verbatim. It is only portable to the dialect it came from.
	Native string
}

func (*CreateTable) Tag() Tag { return TagCreateTable }

func (c *CreateTable) Validate() error {
	if blank(c.Table) {
		return Invalid(TagCreateTable, "TABLE", "table name is required")
	}
	shapes := 0
	if len(c.Columns) > 0 {
		shapes++
	}
	if c.Select != nil {
		shapes++
	}
	if !blank(c.Native) {
		shapes++
	}
	switch {
	case shapes == 0:
		return Invalid(TagCreateTable, "COLUMNS", "columns, SELECT or NATIVE is required")
	case shapes > 1:
		return Invalid(TagCreateTable, "COLUMNS", "columns, SELECT and NATIVE are exclusive")
	case c.Select != nil:
		if len(c.Keys) > 0 {
			return Invalid(TagCreateTable, "KEYS", "not valid with SELECT")
		}
		return c.Select.Validate()
	case !blank(c.Native):
		return nil
	}
	seen := make(map[string]bool, len(c.Columns))
	for i := range c.Columns {
		col := &c.Columns[i]
		if err := col.Validate(); err != nil {
			return err
		}
		name := strings.ToLower(col.Name)
		if seen[name] {
			return Invalid(TagCreateTable, "COLUMNS", "duplicate column %q", col.Name)
		}
		seen[name] = true
	}
	for i := range c.Keys {
		key := &c.Keys[i]
		if err := key.Validate(); err != nil {
			return err
		}
		for _, col := range key.Columns {
			if !seen[strings.ToLower(col)] {
				return Invalid(TagCreateTable, "KEYS", "key references unknown column %q", col)
			}
		}
	}
	return nil
}

// DropTable drops tables.
type DropTable struct {
	Tables    []string
	Temporary bool
}

func (*DropTable) Tag() Tag { return TagDropTable }

func (d *DropTable) Validate() error {
	return tableList(TagDropTable, d.Tables)
}

// AddColumn adds a column to an existing table, optionally positioned First or
// After another column where the dialect supports it.
type AddColumn struct {
	Table  string
	Column ColumnDefinition
	First  bool
	After  string
}

func (*AddColumn) Tag() Tag { return TagAddColumn }

func (a *AddColumn) Validate() error {
	if blank(a.Table) {
		return Invalid(TagAddColumn, "TABLE", "table name is required")
	}
	if a.First && !blank(a.After) {
		return Invalid(TagAddColumn, "FIRST", "FIRST and AFTER are exclusive")
	}
	return a.Column.Validate()
}

// DropColumn removes columns from a table.
type DropColumn struct {
	Table   string
	Columns []string
}

func (*DropColumn) Tag() Tag { return TagDropColumn }

func (d *DropColumn) Validate() error {
	if blank(d.Table) {
		return Invalid(TagDropColumn, "TABLE", "table name is required")
	}
	if len(d.Columns) == 0 {
		return Invalid(TagDropColumn, "COLUMNS", "at least one column is required")
	}
	for _, c := range d.Columns {
		if blank(c) {
			return Invalid(TagDropColumn, "COLUMNS", "empty column name")
		}
	}
	return nil
}

// AddIndex adds a key to an existing table.
type AddIndex struct {
	Table string
	Key   KeyDefinition
}

func (*AddIndex) Tag() Tag { return TagAddIndex }

func (a *AddIndex) Validate() error {
	if blank(a.Table) {
		return Invalid(TagAddIndex, "TABLE", "table name is required")
	}
	return a.Key.Validate()
}

// DropIndex drops a named index. Table is required because some dialects scope
// index names to their table.
type DropIndex struct {
	Table string
	Name  string
}

func (*DropIndex) Tag() Tag { return TagDropIndex }

func (d *DropIndex) Validate() error {
	if blank(d.Table) {
		return Invalid(TagDropIndex, "TABLE", "table name is required")
	}
	if blank(d.Name) {
		return Invalid(TagDropIndex, "NAME", "index name is required")
	}
	return nil
}

// ShowDatabases lists databases in a single "Database" column.
type ShowDatabases struct{}

func (*ShowDatabases) Tag() Tag        { return TagShowDatabases }
func (*ShowDatabases) Validate() error { return nil }

// ShowTables lists the tables of the current database in a single "Table" column,
// plus "Table_type" when Full is set.
type ShowTables struct {
	Full bool
}

func (*ShowTables) Tag() Tag        { return TagShowTables }
func (*ShowTables) Validate() error { return nil }

// ShowCreateDatabase returns the statement that creates a database.
type ShowCreateDatabase struct {
	Name string
}

func (*ShowCreateDatabase) Tag() Tag { return TagShowCreateDatabase }

func (s *ShowCreateDatabase) Validate() error {
	if blank(s.Name) {
		return Invalid(TagShowCreateDatabase, "NAME", "database name is required")
	}
	return nil
}

// ShowCreateTable returns the statement that creates a table in the columns
// "Table" and "Create Table". ExportHints rewrites it into a replayable form.
type ShowCreateTable struct {
	Table       string
	ExportHints bool
}

func (*ShowCreateTable) Tag() Tag { return TagShowCreateTable }

func (s *ShowCreateTable) Validate() error {
	if blank(s.Table) {
		return Invalid(TagShowCreateTable, "TABLE", "table name is required")
	}
	return nil
}

// BulkImportMode toggles integrity checks off (Enable) or back on for the session.
// It is never disabled automatically.
type BulkImportMode struct {
	Enable bool
}

func (*BulkImportMode) Tag() Tag        { return TagBulkImportMode }
func (*BulkImportMode) Validate() error { return nil }

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func tableList(tag Tag, tables []string) error {
	if len(tables) == 0 {
		return Invalid(tag, "TABLES", "at least one table is required")
	}
	for _, t := range tables {
		if blank(t) {
			return Invalid(tag, "TABLES", "empty table name")
		}
	}
	return nil
}

var (
	_ Command = (*Select)(nil)
	_ Command = (*Insert)(nil)
	_ Command = (*Update)(nil)
	_ Command = (*Delete)(nil)
	_ Command = (*TruncateTable)(nil)
	_ Command = (*Set)(nil)
	_ Command = (*Use)(nil)
	_ Command = (*CreateDatabase)(nil)
	_ Command = (*DropDatabase)(nil)
	_ Command = (*CreateTable)(nil)
	_ Command = (*DropTable)(nil)
	_ Command = (*AddColumn)(nil)
	_ Command = (*DropColumn)(nil)
	_ Command = (*AddIndex)(nil)
	_ Command = (*DropIndex)(nil)
	_ Command = (*ShowDatabases)(nil)
	_ Command = (*ShowTables)(nil)
	_ Command = (*ShowCreateDatabase)(nil)
	_ Command = (*ShowCreateTable)(nil)
	_ Command = (*BulkImportMode)(nil)
)
