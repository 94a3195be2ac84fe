package sqlgen

import (
	"regexp"
	"slices"
	"strings"

	"github.com/satishbabariya/dbcmd/dialect"
	"github.com/satishbabariya/dbcmd/internal/debug"
	"github.com/satishbabariya/dbcmd/query/command"
)

var charsetName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// tableName applies the dialect's temporary table prefix.
func tableName(caps *dialect.Capabilities, table string, temporary bool) string {
	if temporary && !caps.TemporaryTables && caps.TemporaryPrefix != "" {
		return caps.TemporaryPrefix + table
	}
	return table
}

func createHead(d dialect.Dialect, temporary bool) string {
	caps := d.Capabilities()
	switch {
	case !temporary:
	case caps.TemporaryTables:
		return "CREATE TEMPORARY TABLE"
	case caps.TemporaryPrefix == "":
		debug.Warn("temporary tables not supported by dialect, creating a regular table", "dialect", d.Name())
	}
	return "CREATE TABLE"
}

func compileCreateTable(d dialect.Dialect, c *command.CreateTable, plan *Plan) error {
	caps := d.Capabilities()
	name := tableName(caps, c.Table, c.Temporary)
	head := createHead(d, c.Temporary) + " " + d.QuoteIdentifier(name)

	if c.Native != "" {
		plan.add(c.Native)
		return nil
	}
	if c.Select != nil {
		sql, args, err := embeddedSelect(d, c.Select)
		if err != nil {
			return err
		}
		if caps.CreateTableAsSelect {
			plan.add(head+" AS "+sql, args...)
		} else {
			plan.add("SELECT * INTO "+d.QuoteIdentifier(name)+" FROM ("+sql+") AS ctas_src", args...)
		}
		return nil
	}

	var (
		defs     []string
		follow   []string
		keys     = slices.Clone(c.Keys)
		implicit bool
	)
	for _, col := range c.Columns {
		def, err := TranslateColumn(d, col)
		if err != nil {
			return err
		}
		defs = append(defs, def)
		if col.AutoIncrement && caps.Types.AutoIncrementIsKey {
			implicit = true
		}
		if col.References != nil {
			keys = append(keys, command.KeyDefinition{
				Type:       command.KeyForeign,
				Columns:    []string{col.Name},
				References: col.References,
			})
		}
		if col.Comment != "" && caps.CommentOn {
			follow = append(follow, commentOn(d, name, col))
		}
	}

	var indexes []string
	for _, key := range keys {
		if key.Type == command.KeyPrimary && implicit {
			// The AUTO INCREMENT column already is the primary key.
			continue
		}
		kt, err := TranslateKey(d, name, key)
		if err != nil {
			return err
		}
		switch kt.Mode {
		case KeyInline:
			defs = append(defs, kt.SQL)
		case KeyEmulate:
			indexes = append(indexes, kt.SQL)
		default:
			debug.Debug("key type not supported by dialect, dropped",
				"dialect", d.Name(), "table", c.Table, "key", key.Type)
		}
	}

	sql := head + " (" + strings.Join(defs, ", ") + ")"
	if caps.CharacterSets {
		opts, err := charsetOptions(command.TagCreateTable, c.CharacterSet, c.Collate)
		if err != nil {
			return err
		}
		sql += opts
	}
	plan.add(sql)
	for _, s := range indexes {
		plan.add(s)
	}
	for _, s := range follow {
		plan.add(s)
	}
	return nil
}

func charsetOptions(tag command.Tag, charset, collate string) (string, error) {
	var out string
	if charset != "" {
		if !charsetName.MatchString(charset) {
			return "", command.Invalid(tag, "CHARACTER SET", "invalid character set %q", charset)
		}
		out += " DEFAULT CHARACTER SET " + charset
	}
	if collate != "" {
		if !charsetName.MatchString(collate) {
			return "", command.Invalid(tag, "COLLATE", "invalid collation %q", collate)
		}
		out += " COLLATE " + collate
	}
	return out, nil
}

// embeddedSelect compiles a SELECT nested in another statement.
func embeddedSelect(d dialect.Dialect, s *command.Select) (string, []Arg, error) {
	g := newGenerator(d, command.TagSelect, s.Args, s.Subqueries, true)
	sql, _, err := g.selectSQL(s)
	if err != nil {
		return "", nil, err
	}
	if err := g.finish(); err != nil {
		return "", nil, err
	}
	return sql, g.args, nil
}

func commentOn(d dialect.Dialect, table string, col command.ColumnDefinition) string {
	return "COMMENT ON COLUMN " + d.QuoteIdentifier(table) + "." + d.QuoteIdentifier(col.Name) +
		" IS " + d.QuoteValue(col.Comment)
}

func compileDropTable(d dialect.Dialect, c *command.DropTable, plan *Plan) {
	caps := d.Capabilities()
	head := "DROP TABLE "
	if c.Temporary && caps.DropTemporary {
		head = "DROP TEMPORARY TABLE "
	}
	if caps.IfExists {
		head += "IF EXISTS "
	}
	for _, t := range c.Tables {
		plan.add(head + d.QuoteIdentifier(tableName(caps, t, c.Temporary)))
	}
}

func compileTruncate(d dialect.Dialect, c *command.TruncateTable, plan *Plan) {
	head := "TRUNCATE TABLE "
	if !d.Capabilities().Truncate {
		head = "DELETE FROM "
	}
	for _, t := range c.Tables {
		plan.add(head + d.QuoteIdentifier(t))
	}
}

func compileAddColumn(d dialect.Dialect, c *command.AddColumn, plan *Plan) error {
	caps := d.Capabilities()
	if !caps.AddColumn {
		return &command.UnsupportedCommandError{Tag: command.TagAddColumn, Dialect: string(d.Name())}
	}
	def, err := TranslateColumn(d, c.Column)
	if err != nil {
		return err
	}
	sql := "ALTER TABLE " + d.QuoteIdentifier(c.Table) + " " + caps.AddColumnKeyword + " " + def
	switch {
	case !c.First && c.After == "":
	case !caps.AddColumnPosition:
		debug.Warn("column position not supported by dialect, omitted", "dialect", d.Name(), "table", c.Table)
	case c.First:
		sql += " FIRST"
	default:
		sql += " AFTER " + d.QuoteIdentifier(c.After)
	}
	plan.add(sql)

	if ref := c.Column.References; ref != nil {
		key := command.KeyDefinition{Type: command.KeyForeign, Columns: []string{c.Column.Name}, References: ref}
		if fk, ok := addKeySQL(d, c.Table, key); ok {
			plan.add(fk)
		} else {
			debug.Warn("foreign key on a new column not supported by dialect, dropped", "dialect", d.Name(), "table", c.Table)
		}
	}
	if c.Column.Comment != "" && caps.CommentOn {
		plan.add(commentOn(d, c.Table, c.Column))
	}
	return nil
}

func compileDropColumn(d dialect.Dialect, c *command.DropColumn, plan *Plan) error {
	switch d.Capabilities().DropColumn {
	case dialect.DropColumnNative:
		t := d.QuoteIdentifier(c.Table)
		for _, col := range c.Columns {
			plan.add("ALTER TABLE " + t + " DROP COLUMN " + d.QuoteIdentifier(col))
		}
		return nil
	case dialect.DropColumnRecreate:
		return ErrColumnsRequired
	default:
		return &command.UnsupportedCommandError{Tag: command.TagDropColumn, Dialect: string(d.Name())}
	}
}

// RecreateWithout compiles DROP COLUMN for dialects that cannot drop columns in
// place: the kept columns of existing are copied into a new table which then
// replaces the original. Constraints and indexes of the original are not carried
// over.
func RecreateWithout(d dialect.Dialect, c *command.DropColumn, existing []string) (*Plan, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	drop := make(map[string]bool, len(c.Columns))
	for _, col := range c.Columns {
		drop[strings.ToLower(col)] = true
	}
	var keep []string
	for _, col := range existing {
		if drop[strings.ToLower(col)] {
			delete(drop, strings.ToLower(col))
			continue
		}
		keep = append(keep, col)
	}
	for col := range drop {
		return nil, command.Invalid(command.TagDropColumn, "COLUMNS", "table %s has no column %q", c.Table, col)
	}
	if len(keep) == 0 {
		return nil, command.Invalid(command.TagDropColumn, "COLUMNS", "cannot drop every column of %s", c.Table)
	}

	caps := d.Capabilities()
	table := d.QuoteIdentifier(c.Table)
	tmp := d.QuoteIdentifier(c.Table + "_dbcmd_recreate")
	cols := make([]string, len(keep))
	for i, col := range keep {
		cols[i] = d.QuoteIdentifier(col)
	}
	sel := "SELECT " + strings.Join(cols, ", ") + " FROM " + table

	plan := &Plan{Tag: command.TagDropColumn}
	if caps.CreateTableAsSelect {
		plan.add("CREATE TABLE " + tmp + " AS " + sel)
	} else {
		plan.add("SELECT " + strings.Join(cols, ", ") + " INTO " + tmp + " FROM " + table)
	}
	plan.add("DROP TABLE " + table)
	plan.add("ALTER TABLE " + tmp + " RENAME TO " + table)
	return plan, nil
}

func compileAddIndex(d dialect.Dialect, c *command.AddIndex, plan *Plan) error {
	sql, ok := addKeySQL(d, c.Table, c.Key)
	if !ok {
		debug.Warn("key type not supported by dialect, dropped", "dialect", d.Name(), "table", c.Table, "key", c.Key.Type)
		return nil
	}
	plan.add(sql)
	return nil
}

func compileDropIndex(d dialect.Dialect, c *command.DropIndex, plan *Plan) {
	sql := "DROP INDEX " + d.QuoteIdentifier(c.Name)
	if d.Capabilities().DropIndexOnTable {
		sql += " ON " + d.QuoteIdentifier(c.Table)
	}
	plan.add(sql)
}
