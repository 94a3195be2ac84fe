package sqlgen

import (
	"errors"
	"regexp"
	"strings"

	"github.com/satishbabariya/dbcmd/dialect"
	"github.com/satishbabariya/dbcmd/internal/debug"
	"github.com/satishbabariya/dbcmd/query/command"
)

// ErrNoInsertTarget is returned by InsertIDQuery on dialects that read the insert
// id through the AUTO INCREMENT column when no INSERT named one.
var ErrNoInsertTarget = errors.New("sqlgen: no INSERT with an AUTO INCREMENT column in this session")

var setPrefix = regexp.MustCompile(`(?i)^SET\s+`)

func unsupported(d dialect.Dialect, tag command.Tag) error {
	return &command.UnsupportedCommandError{Tag: tag, Dialect: string(d.Name())}
}

func compileSet(d dialect.Dialect, c *command.Set, plan *Plan) error {
	stmt := setPrefix.ReplaceAllString(strings.TrimSpace(c.Statement), "")
	g := newGenerator(d, command.TagSet, c.Args, nil, false)
	sql, err := g.clause("STATEMENT", stmt, false)
	if err != nil {
		return err
	}
	if err := g.finish(); err != nil {
		return err
	}
	plan.add("SET "+sql, g.args...)
	return nil
}

func compileUse(d dialect.Dialect, c *command.Use, plan *Plan) {
	switch d.Name() {
	case dialect.Postgres:
		plan.add("SET search_path TO " + d.QuoteIdentifier(c.Database))
	case dialect.SQLite:
		debug.Debug("USE is a no-op on sqlite", "database", c.Database)
	default:
		plan.add("USE " + d.QuoteIdentifier(c.Database))
	}
}

func compileCreateDatabase(d dialect.Dialect, c *command.CreateDatabase, plan *Plan) error {
	caps := d.Capabilities()
	if !caps.Databases {
		return unsupported(d, command.TagCreateDatabase)
	}
	sql := "CREATE DATABASE " + d.QuoteIdentifier(c.Name)
	switch {
	case caps.CharacterSets:
		opts, err := charsetOptions(command.TagCreateDatabase, c.CharacterSet, c.Collate)
		if err != nil {
			return err
		}
		sql += opts
	case c.CharacterSet != "" || c.Collate != "":
		debug.Warn("character sets not supported by dialect, omitted", "dialect", d.Name(), "database", c.Name)
	}
	plan.add(sql)
	return nil
}

func compileDropDatabase(d dialect.Dialect, c *command.DropDatabase, plan *Plan) error {
	caps := d.Capabilities()
	if !caps.Databases {
		return unsupported(d, command.TagDropDatabase)
	}
	sql := "DROP DATABASE "
	if caps.IfExists {
		sql += "IF EXISTS "
	}
	plan.add(sql + d.QuoteIdentifier(c.Name))
	return nil
}

func compileShowDatabases(d dialect.Dialect, plan *Plan) {
	plan.Query = true
	plan.Columns = []string{"Database"}
	alias := d.QuoteIdentifier("Database")
	switch d.Name() {
	case dialect.MySQL:
		plan.add("SHOW DATABASES")
	case dialect.Postgres:
		plan.add("SELECT datname AS " + alias + " FROM pg_database WHERE NOT datistemplate ORDER BY datname")
	case dialect.SQLite:
		plan.add("SELECT name AS " + alias + " FROM pragma_database_list ORDER BY seq")
	default:
		plan.add("SELECT name AS " + alias + " FROM sys.databases ORDER BY name")
	}
}

func compileShowTables(d dialect.Dialect, c *command.ShowTables, plan *Plan) {
	plan.Query = true
	plan.Columns = []string{"Table"}
	if c.Full {
		plan.Columns = append(plan.Columns, "Table_type")
	}
	table := d.QuoteIdentifier("Table")
	tableType := d.QuoteIdentifier("Table_type")

	switch d.Name() {
	case dialect.MySQL:
		if c.Full {
			plan.add("SHOW FULL TABLES")
		} else {
			plan.add("SHOW TABLES")
		}
		plan.Reshape = renameTablesIn
	case dialect.SQLite:
		cols := "name AS " + table
		if c.Full {
			cols += ", CASE type WHEN 'view' THEN 'VIEW' ELSE 'BASE TABLE' END AS " + tableType
		}
		plan.add("SELECT " + cols + " FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' ORDER BY name")
	default:
		schema := "current_schema()"
		if d.Name() == dialect.SQLServer {
			schema = "SCHEMA_NAME()"
		}
		cols := "table_name AS " + table
		if c.Full {
			cols += ", table_type AS " + tableType
		}
		plan.add("SELECT " + cols + " FROM information_schema.tables WHERE table_schema = " + schema + " ORDER BY table_name")
	}
}

func compileShowCreateDatabase(d dialect.Dialect, c *command.ShowCreateDatabase, plan *Plan) error {
	plan.Query = true
	plan.Columns = []string{"Database", "Create Database"}
	db, create := d.QuoteIdentifier("Database"), d.QuoteIdentifier("Create Database")
	name := bind(c.Name)

	switch d.Name() {
	case dialect.MySQL:
		plan.add("SHOW CREATE DATABASE " + d.QuoteIdentifier(c.Name))
	case dialect.Postgres:
		plan.add("SELECT datname AS "+db+", 'CREATE DATABASE ' || quote_ident(datname) || "+
			"' ENCODING ' || quote_literal(pg_encoding_to_char(encoding)) AS "+create+
			" FROM pg_database WHERE datname = ?", name)
	case dialect.SQLServer:
		plan.add("SELECT name AS "+db+", 'CREATE DATABASE ' + QUOTENAME(name) + "+
			"' COLLATE ' + collation_name AS "+create+" FROM sys.databases WHERE name = ?", name)
	default:
		return unsupported(d, command.TagShowCreateDatabase)
	}
	return nil
}

func compileShowCreateTable(d dialect.Dialect, c *command.ShowCreateTable, plan *Plan) {
	plan.Query = true
	plan.Columns = []string{"Table", "Create Table"}
	name := bind(c.Table)

	switch d.Name() {
	case dialect.MySQL:
		plan.add("SHOW CREATE TABLE " + d.QuoteIdentifier(c.Table))
		if c.ExportHints {
			plan.Reshape = ifNotExists
		}
	case dialect.SQLite:
		plan.add("SELECT name AS "+d.QuoteIdentifier("Table")+", sql AS "+d.QuoteIdentifier("Create Table")+
			" FROM sqlite_master WHERE type = 'table' AND name = ?", name)
		if c.ExportHints {
			plan.Reshape = ifNotExists
		}
	case dialect.Postgres:
		plan.add(`SELECT c.column_name, c.data_type, c.character_maximum_length AS max_length, `+
			`c.numeric_precision AS num_precision, c.numeric_scale AS num_scale, c.is_nullable AS nullable, `+
			`c.column_default, `+pgPrimaryKey+` AS is_key, `+
			`CASE WHEN c.is_identity = 'YES' OR c.column_default LIKE 'nextval(%' THEN 1 ELSE 0 END AS is_identity `+
			`FROM information_schema.columns c WHERE c.table_schema = current_schema() AND c.table_name = ? `+
			`ORDER BY c.ordinal_position`, name)
		plan.Reshape = synthesizeCreate(d, c.Table, c.ExportHints)
	default:
		plan.add(`SELECT c.COLUMN_NAME AS column_name, c.DATA_TYPE AS data_type, c.CHARACTER_MAXIMUM_LENGTH AS max_length, `+
			`c.NUMERIC_PRECISION AS num_precision, c.NUMERIC_SCALE AS num_scale, c.IS_NULLABLE AS nullable, `+
			`c.COLUMN_DEFAULT AS column_default, `+msPrimaryKey+` AS is_key, `+
			`COLUMNPROPERTY(OBJECT_ID(c.TABLE_SCHEMA + '.' + c.TABLE_NAME), c.COLUMN_NAME, 'IsIdentity') AS is_identity `+
			`FROM INFORMATION_SCHEMA.COLUMNS c WHERE c.TABLE_SCHEMA = SCHEMA_NAME() AND c.TABLE_NAME = ? `+
			`ORDER BY c.ORDINAL_POSITION`, name)
		plan.Reshape = synthesizeCreate(d, c.Table, c.ExportHints)
	}
}

const pgPrimaryKey = `CASE WHEN EXISTS (SELECT 1 FROM information_schema.table_constraints tc ` +
	`JOIN information_schema.key_column_usage k ON k.constraint_name = tc.constraint_name ` +
	`AND k.table_schema = tc.table_schema AND k.table_name = tc.table_name ` +
	`WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = c.table_schema ` +
	`AND tc.table_name = c.table_name AND k.column_name = c.column_name) THEN 1 ELSE 0 END`

const msPrimaryKey = `CASE WHEN EXISTS (SELECT 1 FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc ` +
	`JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE k ON k.CONSTRAINT_NAME = tc.CONSTRAINT_NAME ` +
	`AND k.TABLE_SCHEMA = tc.TABLE_SCHEMA AND k.TABLE_NAME = tc.TABLE_NAME ` +
	`WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY' AND tc.TABLE_SCHEMA = c.TABLE_SCHEMA ` +
	`AND tc.TABLE_NAME = c.TABLE_NAME AND k.COLUMN_NAME = c.COLUMN_NAME) THEN 1 ELSE 0 END`

func compileBulkImportMode(d dialect.Dialect, c *command.BulkImportMode, plan *Plan) {
	switch d.Name() {
	case dialect.MySQL:
		v := "1"
		if c.Enable {
			v = "0"
		}
		plan.add("SET FOREIGN_KEY_CHECKS = " + v)
		plan.add("SET UNIQUE_CHECKS = " + v)
	case dialect.Postgres:
		if c.Enable {
			plan.add("SET session_replication_role = replica")
		} else {
			plan.add("SET session_replication_role = DEFAULT")
		}
	case dialect.SQLite:
		if c.Enable {
			plan.add("PRAGMA foreign_keys = OFF")
		} else {
			plan.add("PRAGMA foreign_keys = ON")
		}
	default:
		debug.Warn("bulk import mode not supported by dialect, ignored", "dialect", d.Name())
	}
}

// InsertIDQuery returns the statement reading the id generated by the last INSERT.
// It reports false when the driver result's LastInsertId is authoritative.
func InsertIDQuery(d dialect.Dialect, target *InsertTarget) (Statement, bool, error) {
	switch {
	case d.Capabilities().InsertIDNeedsColumn:
		if target == nil {
			return Statement{}, false, ErrNoInsertTarget
		}
		return Statement{
			SQL:  d.Rebind("SELECT currval(pg_get_serial_sequence(?, ?))"),
			Args: []Arg{bind(d.QuoteIdentifier(target.Table)), bind(target.Column)},
		}, true, nil
	case d.Name() == dialect.SQLServer:
		// Parameterized INSERTs run inside sp_executesql, whose scope has ended by
		// the time this runs, so SCOPE_IDENTITY() would read NULL. @@IDENTITY is
		// session wide and also sees ids generated by triggers.
		return Statement{SQL: "SELECT CAST(@@IDENTITY AS BIGINT)"}, true, nil
	default:
		return Statement{}, false, nil
	}
}

// ColumnsQuery returns a query listing the column names of table in declaration
// order, as a single column named "name".
func ColumnsQuery(d dialect.Dialect, table string) Statement {
	var sql string
	switch d.Name() {
	case dialect.SQLite:
		sql = "SELECT name FROM pragma_table_info(?) ORDER BY cid"
	case dialect.MySQL:
		sql = "SELECT column_name AS name FROM information_schema.columns " +
			"WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position"
	case dialect.Postgres:
		sql = "SELECT column_name AS name FROM information_schema.columns " +
			"WHERE table_schema = current_schema() AND table_name = ? ORDER BY ordinal_position"
	default:
		sql = "SELECT COLUMN_NAME AS name FROM INFORMATION_SCHEMA.COLUMNS " +
			"WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION"
	}
	return Statement{SQL: d.Rebind(sql), Args: []Arg{bind(table)}}
}
