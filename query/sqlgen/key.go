package sqlgen

import (
	"strings"

	"github.com/satishbabariya/dbcmd/dialect"
	"github.com/satishbabariya/dbcmd/query/command"
)

// KeyMode is how a key definition ends up in a CREATE TABLE plan.
type KeyMode int

const (
	// KeyInline keys are a fragment of the CREATE TABLE statement.
	KeyInline KeyMode = iota
	// KeyEmulate keys are a follow-up statement run after CREATE TABLE.
	KeyEmulate
	// KeyUnsupported keys are dropped from the plan.
	KeyUnsupported
)

func (m KeyMode) String() string {
	switch m {
	case KeyInline:
		return "inline"
	case KeyEmulate:
		return "emulate"
	default:
		return "unsupported"
	}
}

// KeyTranslation is a translated key: an inline fragment, a complete follow-up
// statement, or nothing.
type KeyTranslation struct {
	Mode KeyMode
	SQL  string
}

// TranslateKey translates a key of table for use in CREATE TABLE.
func TranslateKey(d dialect.Dialect, table string, key command.KeyDefinition) (KeyTranslation, error) {
	if err := key.Validate(); err != nil {
		return KeyTranslation{}, err
	}
	switch keySupport(d.Capabilities().Keys, key.Type) {
	case dialect.KeyInline:
		return KeyTranslation{Mode: KeyInline, SQL: inlineKey(d, key)}, nil
	case dialect.KeySeparate:
		if sql, ok := addKeySQL(d, table, key); ok {
			return KeyTranslation{Mode: KeyEmulate, SQL: sql}, nil
		}
	}
	return KeyTranslation{Mode: KeyUnsupported}, nil
}

func keySupport(k dialect.KeyTable, t command.KeyType) dialect.KeySupport {
	switch t {
	case command.KeyPrimary:
		return k.Primary
	case command.KeyIndex:
		return k.Key
	case command.KeyUnique:
		return k.Unique
	case command.KeyFulltext:
		return k.Fulltext
	case command.KeyForeign:
		return k.Foreign
	}
	return dialect.KeyUnsupported
}

func quoteColumns(d dialect.Dialect, cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.QuoteIdentifier(c)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

func inlineKey(d dialect.Dialect, key command.KeyDefinition) string {
	cols := quoteColumns(d, key.Columns)
	named := func(prefix string) string {
		if key.Name == "" {
			return prefix
		}
		return prefix + " " + d.QuoteIdentifier(key.Name)
	}
	switch key.Type {
	case command.KeyPrimary:
		return "PRIMARY KEY " + cols
	case command.KeyIndex:
		return named("KEY") + " " + cols
	case command.KeyFulltext:
		return named("FULLTEXT KEY") + " " + cols
	case command.KeyUnique:
		if key.Name == "" {
			return "UNIQUE " + cols
		}
		return "CONSTRAINT " + d.QuoteIdentifier(key.Name) + " UNIQUE " + cols
	default:
		fk := "FOREIGN KEY " + cols + " " + references(d, key.References)
		if key.Name == "" {
			return fk
		}
		return "CONSTRAINT " + d.QuoteIdentifier(key.Name) + " " + fk
	}
}

func references(d dialect.Dialect, r *command.Reference) string {
	parts := []string{"REFERENCES", d.QuoteIdentifier(r.Table), quoteColumns(d, r.Columns)}
	if r.OnDelete != "" {
		parts = append(parts, "ON DELETE", strings.ToUpper(r.OnDelete))
	}
	if r.OnUpdate != "" {
		parts = append(parts, "ON UPDATE", strings.ToUpper(r.OnUpdate))
	}
	return strings.Join(parts, " ")
}

// keyName returns the key's name, or <table>_<columns>_idx.
func keyName(table string, key command.KeyDefinition) string {
	if key.Name != "" {
		return key.Name
	}
	parts := append([]string{strings.ReplaceAll(table, ".", "_")}, key.Columns...)
	return strings.Join(parts, "_") + "_idx"
}

// addKeySQL renders a stand-alone statement adding key to an existing table.
func addKeySQL(d dialect.Dialect, table string, key command.KeyDefinition) (string, bool) {
	caps := d.Capabilities()
	t := d.QuoteIdentifier(table)
	name := d.QuoteIdentifier(keyName(table, key))
	cols := quoteColumns(d, key.Columns)
	switch key.Type {
	case command.KeyPrimary:
		if !caps.AlterConstraints {
			return "", false
		}
		return "ALTER TABLE " + t + " ADD PRIMARY KEY " + cols, true
	case command.KeyIndex:
		return "CREATE INDEX " + name + " ON " + t + " " + cols, true
	case command.KeyUnique:
		return "CREATE UNIQUE INDEX " + name + " ON " + t + " " + cols, true
	case command.KeyFulltext:
		if caps.Keys.Fulltext == dialect.KeyUnsupported {
			return "", false
		}
		return "CREATE FULLTEXT INDEX " + name + " ON " + t + " " + cols, true
	case command.KeyForeign:
		if !caps.AlterConstraints {
			return "", false
		}
		return "ALTER TABLE " + t + " ADD CONSTRAINT " + name + " FOREIGN KEY " + cols + " " + references(d, key.References), true
	}
	return "", false
}
