// Package command defines the portable command vocabulary.
//
// A command is a tagged, structured request such as Select or CreateTable. Commands
// never carry raw SQL for values: positional arguments are bound to ? placeholders in
// clause strings and compiled per dialect by package sqlgen.
package command

import (
	"slices"
	"strings"
)

// Tag names a command in the vocabulary.
type Tag string

const (
	TagSelect             Tag = "SELECT"
	TagInsert             Tag = "INSERT"
	TagUpdate             Tag = "UPDATE"
	TagDelete             Tag = "DELETE"
	TagTruncateTable      Tag = "TRUNCATE TABLE"
	TagSet                Tag = "SET"
	TagUse                Tag = "USE"
	TagCreateDatabase     Tag = "CREATE DATABASE"
	TagDropDatabase       Tag = "DROP DATABASE"
	TagCreateTable        Tag = "CREATE TABLE"
	TagDropTable          Tag = "DROP TABLE"
	TagAddColumn          Tag = "ADD COLUMN"
	TagDropColumn         Tag = "DROP COLUMN"
	TagAddIndex           Tag = "ADD INDEX"
	TagDropIndex          Tag = "DROP INDEX"
	TagShowDatabases      Tag = "SHOW DATABASES"
	TagShowTables         Tag = "SHOW TABLES"
	TagShowCreateDatabase Tag = "SHOW CREATE DATABASE"
	TagShowCreateTable    Tag = "SHOW CREATE TABLE"
	TagBulkImportMode     Tag = "BULK IMPORT MODE"
)

// Tags returns the full vocabulary.
func Tags() []Tag {
	return []Tag{
		TagSelect, TagInsert, TagUpdate, TagDelete, TagTruncateTable, TagSet, TagUse,
		TagCreateDatabase, TagDropDatabase, TagCreateTable, TagDropTable,
		TagAddColumn, TagDropColumn, TagAddIndex, TagDropIndex,
		TagShowDatabases, TagShowTables, TagShowCreateDatabase, TagShowCreateTable,
		TagBulkImportMode,
	}
}

// Known reports whether t is part of the vocabulary.
func (t Tag) Known() bool {
	return slices.Contains(Tags(), t)
}

// Write reports whether commands with this tag modify data or schema and must
// therefore run on the replication master.
func (t Tag) Write() bool {
	switch t {
	case TagInsert, TagUpdate, TagDelete, TagTruncateTable:
		return true
	}
	s := string(t)
	return strings.HasPrefix(s, "CREATE ") || strings.HasPrefix(s, "DROP ") || strings.HasPrefix(s, "ADD ")
}

// Destructive reports whether commands with this tag remove data or schema.
func (t Tag) Destructive() bool {
	switch t {
	case TagDelete, TagTruncateTable, TagDropDatabase, TagDropTable, TagDropColumn, TagDropIndex:
		return true
	}
	return false
}

// Command is a validated, dialect independent request.
type Command interface {
	// Tag returns the command's vocabulary tag.
	Tag() Tag

	// Validate checks the payload structure. It never consults a dialect.
	Validate() error
}

// Ident is an argument that is always quoted as an identifier.
type Ident string

// Binary is an argument bound with the binary value kind.
type Binary []byte

// New validates cmd and returns it.
func New[C Command](cmd C) (C, error) {
	if err := cmd.Validate(); err != nil {
		var zero C
		return zero, err
	}
	return cmd, nil
}
