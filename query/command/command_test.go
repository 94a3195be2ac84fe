package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagClassification(t *testing.T) {
	writes := []Tag{
		TagInsert, TagUpdate, TagDelete, TagTruncateTable, TagCreateDatabase, TagDropDatabase,
		TagCreateTable, TagDropTable, TagAddColumn, TagDropColumn, TagAddIndex, TagDropIndex,
	}
	for _, tag := range writes {
		assert.True(t, tag.Write(), tag)
	}
	reads := []Tag{
		TagSelect, TagSet, TagUse, TagShowDatabases, TagShowTables,
		TagShowCreateDatabase, TagShowCreateTable, TagBulkImportMode,
	}
	for _, tag := range reads {
		assert.False(t, tag.Write(), tag)
	}
	assert.Len(t, Tags(), len(writes)+len(reads))
	assert.False(t, Tag("INSERT INTO").Known())
	assert.True(t, TagDropTable.Destructive())
	assert.False(t, TagInsert.Destructive())
}

func TestUnrestrictedUpdateNeedsAll(t *testing.T) {
	u := &Update{Table: "users", Values: map[string]any{"active": false}}
	err := u.Validate()
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, TagUpdate, verr.Tag)
	assert.Equal(t, "WHERE", verr.Field)

	u.All = true
	assert.NoError(t, u.Validate())

	u.All = false
	u.Where = "id = ?"
	assert.NoError(t, u.Validate())
}

func TestUnrestrictedDeleteNeedsAll(t *testing.T) {
	d := &Delete{Table: "users", Where: "   "}
	assert.True(t, IsValidation(d.Validate()))
	d.All = true
	assert.NoError(t, d.Validate())
}

func TestInsertShapes(t *testing.T) {
	sel := &Select{From: "old_users"}
	tests := []struct {
		name  string
		cmd   *Insert
		valid bool
	}{
		{"values", &Insert{Table: "t", Values: map[string]any{"a": 1}}, true},
		{"inline only", &Insert{Table: "t", Inline: map[string]string{"at": "CURRENT_TIMESTAMP"}}, true},
		{"rows", &Insert{Table: "t", Rows: []map[string]any{{"a": 1, "b": 2}, {"b": 3, "a": 4}}}, true},
		{"select", &Insert{Table: "t", Columns: []string{"a"}, Select: sel}, true},
		{"no table", &Insert{Values: map[string]any{"a": 1}}, false},
		{"nothing", &Insert{Table: "t"}, false},
		{"values and select", &Insert{Table: "t", Values: map[string]any{"a": 1}, Select: sel}, false},
		{"columns without select", &Insert{Table: "t", Values: map[string]any{"a": 1}, Columns: []string{"a"}}, false},
		{"ragged rows", &Insert{Table: "t", Rows: []map[string]any{{"a": 1}, {"b": 2}}}, false},
		{"values and rows", &Insert{Table: "t", Values: map[string]any{"a": 1}, Rows: []map[string]any{{"a": 1}}}, false},
		{"inline overlaps values", &Insert{Table: "t", Values: map[string]any{"a": 1}, Inline: map[string]string{"a": "1"}}, false},
		{"rows with inline", &Insert{Table: "t", Rows: []map[string]any{{"a": 1}, {"a": 2}}, Inline: map[string]string{"at": "NOW()"}}, true},
		{"inline overlaps rows", &Insert{Table: "t", Rows: []map[string]any{{"a": 1}, {"a": 2}}, Inline: map[string]string{"a": "1"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, IsValidation(err), "got %v", err)
			}
		})
	}
}

func TestColumnDefinitionValidate(t *testing.T) {
	tests := []struct {
		name  string
		def   ColumnDefinition
		valid bool
	}{
		{"integer", ColumnDefinition{Name: "id", Type: TypeInteger, Size: 4, AutoIncrement: true}, true},
		{"class one string", ColumnDefinition{Name: "s", Type: TypeString, Size: 1, Length: 255}, true},
		{"class one without length", ColumnDefinition{Name: "s", Type: TypeString, Size: 1}, false},
		{"class one too long", ColumnDefinition{Name: "s", Type: TypeBinary, Size: 1, Length: 256}, false},
		{"class three", ColumnDefinition{Name: "body", Type: TypeString, Size: 3}, true},
		{"class five", ColumnDefinition{Name: "body", Type: TypeString, Size: 5}, false},
		{"unknown type", ColumnDefinition{Name: "x", Type: "JSON"}, false},
		{"unnamed", ColumnDefinition{Type: TypeBoolean}, false},
		{"auto increment string", ColumnDefinition{Name: "x", Type: TypeString, Size: 2, AutoIncrement: true}, false},
		{"unsigned date", ColumnDefinition{Name: "x", Type: TypeDate, Unsigned: true}, false},
		{"scale above precision", ColumnDefinition{Name: "x", Type: TypeDecimal, Size: 4, Scale: 6}, false},
		{"reference", ColumnDefinition{Name: "uid", Type: TypeInteger, References: &Reference{Table: "users", Columns: []string{"id"}, OnDelete: "cascade"}}, true},
		{"bad action", ColumnDefinition{Name: "uid", Type: TypeInteger, References: &Reference{Table: "users", Columns: []string{"id"}, OnDelete: "explode"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, IsValidation(err), "got %v", err)
			}
		})
	}
}

func TestKeyDefinitionValidate(t *testing.T) {
	assert.NoError(t, (&KeyDefinition{Type: KeyUnique, Columns: []string{"email"}}).Validate())
	assert.Error(t, (&KeyDefinition{Type: KeyUnique}).Validate())
	assert.Error(t, (&KeyDefinition{Type: "SPATIAL", Columns: []string{"a"}}).Validate())
	assert.Error(t, (&KeyDefinition{Type: KeyForeign, Columns: []string{"uid"}}).Validate())
	assert.Error(t, (&KeyDefinition{
		Type:       KeyForeign,
		Columns:    []string{"a", "b"},
		References: &Reference{Table: "p", Columns: []string{"id"}},
	}).Validate())
	assert.Error(t, (&KeyDefinition{
		Type:       KeyIndex,
		Columns:    []string{"a"},
		References: &Reference{Table: "p", Columns: []string{"id"}},
	}).Validate())
}

func TestCreateTableValidate(t *testing.T) {
	ct := &CreateTable{
		Table: "users",
		Columns: []ColumnDefinition{
			{Name: "id", Type: TypeInteger, AutoIncrement: true, PrimaryKey: true},
			{Name: "email", Type: TypeString, Size: 1, Length: 190},
		},
		Keys: []KeyDefinition{{Type: KeyUnique, Columns: []string{"email"}}},
	}
	require.NoError(t, ct.Validate())

	ct.Keys = append(ct.Keys, KeyDefinition{Type: KeyIndex, Columns: []string{"missing"}})
	assert.True(t, IsValidation(ct.Validate()))

	dup := &CreateTable{Table: "t", Columns: []ColumnDefinition{
		{Name: "a", Type: TypeBoolean}, {Name: "A", Type: TypeBoolean},
	}}
	assert.True(t, IsValidation(dup.Validate()))

	both := &CreateTable{Table: "t", Columns: ct.Columns, Select: &Select{From: "x"}}
	assert.True(t, IsValidation(both.Validate()))

	ctas := &CreateTable{Table: "t", Select: &Select{From: "x"}}
	assert.NoError(t, ctas.Validate())

	native := &CreateTable{Table: "t", Native: "CREATE TABLE t (a INT)"}
	assert.NoError(t, native.Validate())
}

func TestSelectValidatesSubqueries(t *testing.T) {
	s := &Select{From: "t", Where: "id IN {0}", Subqueries: []*Select{{Columns: "id"}}}
	assert.True(t, IsValidation(s.Validate()))
	s.Subqueries[0].From = "u"
	assert.NoError(t, s.Validate())
}

func TestNew(t *testing.T) {
	_, err := New(&DropTable{})
	assert.True(t, IsValidation(err))

	d, err := New(&DropTable{Tables: []string{"t"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"t"}, d.Tables)
}

func TestErrorMessages(t *testing.T) {
	err := Invalid(TagSelect, "FROM", "table expression is required")
	assert.Equal(t, "invalid SELECT command: FROM: table expression is required", err.Error())

	unsupported := &UnsupportedCommandError{Tag: "MERGE"}
	assert.True(t, IsUnsupported(unsupported))
	assert.False(t, IsValidation(unsupported))
	assert.Equal(t, `unsupported command "MERGE"`, unsupported.Error())
}
