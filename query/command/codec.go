package command

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// Line-format option keys.
const (
	optDistinct      = "DISTINCT"
	optColumns       = "COLUMNS"
	optFrom          = "FROM"
	optWhere         = "WHERE"
	optGroupBy       = "GROUP BY"
	optHaving        = "HAVING"
	optOrderBy       = "ORDER BY"
	optLimit         = "LIMIT"
	optSubqueries    = "SUBQUERIES"
	optExportRows    = "EXPORT ROWS"
	optCharacterSet  = "CHARACTER SET"
	optCollate       = "COLLATE"
	optTemporary     = "TEMPORARY"
	optName          = "NAME"
	optFirst         = "FIRST"
	optAfter         = "AFTER"
	optFull          = "FULL"
	optExportHints   = "EXPORT HINTS"
	optTable         = "TABLE"
	optTables        = "TABLES"
	optValues        = "VALUES"
	optRows          = "ROWS"
	optInline        = "INLINE"
	optAutoIncrement = "AUTO INCREMENT"
	optKeys          = "KEYS"
	optSelect        = "SELECT"
	optAll           = "ALL"
	optEnable        = "ENABLE"
	optNative        = "NATIVE"
	optType          = "TYPE"
	optReferences    = "REFERENCES"
)

var clauseKeys = []string{
	optDistinct, optColumns, optFrom, optWhere, optGroupBy, optHaving, optOrderBy,
	optLimit, optSubqueries, optExportRows, optCharacterSet, optCollate, optTemporary,
	optName, optFirst, optAfter, optFull, optExportHints, optTable, optTables,
	optValues, optRows, optInline, optAutoIncrement, optKeys, optSelect, optAll,
	optEnable, optNative, optType, optReferences,
}

var allowedKeys = map[Tag][]string{
	TagSelect:             {optDistinct, optColumns, optFrom, optWhere, optGroupBy, optHaving, optOrderBy, optLimit, optSubqueries, optExportRows},
	TagInsert:             {optTable, optValues, optRows, optInline, optAutoIncrement, optColumns, optSelect},
	TagUpdate:             {optTable, optValues, optInline, optWhere, optOrderBy, optLimit, optAll},
	TagDelete:             {optTable, optWhere, optOrderBy, optLimit, optAll},
	TagTruncateTable:      {optTables},
	TagCreateDatabase:     {optName, optCharacterSet, optCollate},
	TagDropDatabase:       {optName},
	TagCreateTable:        {optTable, optColumns, optKeys, optTemporary, optCharacterSet, optCollate, optSelect, optNative},
	TagDropTable:          {optTables, optTemporary},
	TagAddColumn:          {optTable, optColumns, optFirst, optAfter},
	TagDropColumn:         {optTable, optColumns},
	TagAddIndex:           {optTable, optType, optColumns, optName, optReferences},
	TagDropIndex:          {optTable, optName},
	TagShowTables:         {optFull},
	TagShowCreateDatabase: {optName},
	TagShowCreateTable:    {optTable, optExportHints},
	TagBulkImportMode:     {optEnable},
}

type wireLine struct {
	Cmd  string          `json:"cmd,omitempty"`
	Opts json.RawMessage `json:"opts,omitempty"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Unmarshal decodes one line of the form {"cmd": "<TAG>", "opts": ..., "args": [...]}
// into a validated command.
//
// Command names must match the vocabulary exactly; "INSERT INTO" is rejected with a
// ValidationError and unknown names with an UnsupportedCommandError. Option keys
// that fuse a clause keyword with its value, like "WHERE id = 1", are rejected so a
// malformed UPDATE or DELETE can never lose its condition.
func Unmarshal(data []byte) (Command, error) {
	var wl wireLine
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wl); err != nil {
		return nil, Invalid("", "", "malformed line: %v", err)
	}
	tag, err := parseTag(wl.Cmd)
	if err != nil {
		return nil, err
	}
	args, err := decodeArgs(tag, wl.Args)
	if err != nil {
		return nil, err
	}
	cmd, err := decodeCommand(tag, wl.Opts, args)
	if err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func parseTag(name string) (Tag, error) {
	t := Tag(name)
	if t.Known() {
		return t, nil
	}
	norm := strings.ToUpper(strings.Join(strings.Fields(name), " "))
	for _, known := range Tags() {
		if norm == string(known) || strings.HasPrefix(norm, string(known)+" ") {
			return "", Invalid("", "cmd", "command name must be exactly %q, got %q", known, name)
		}
	}
	return "", &UnsupportedCommandError{Tag: t}
}

func decodeArgs(tag Tag, raw json.RawMessage) ([]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, Invalid(tag, "args", "expected an array")
	}
	args := make([]any, len(items))
	for i, item := range items {
		v, err := decodeValue(item)
		if err != nil {
			return nil, Invalid(tag, "args", "argument %d: %v", i, err)
		}
		args[i] = v
	}
	return args, nil
}

// decodeValue decodes a scalar. Integers become int64, or uint64 above the int64
// range; wider integers stay exact as their decimal text. Other numbers become
// float64, {"$binary": "<base64>"} becomes Binary and {"$ident": "name"} becomes
// Ident.
func decodeValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		if u, err := strconv.ParseUint(v.String(), 10, 64); err == nil {
			return u, nil
		}
		if !strings.ContainsAny(v.String(), ".eE") {
			return v.String(), nil
		}
		return v.Float64()
	case map[string]any:
		if len(v) == 1 {
			if s, ok := v["$binary"].(string); ok {
				b, err := base64.StdEncoding.DecodeString(s)
				if err != nil {
					return nil, fmt.Errorf("$binary: %w", err)
				}
				return Binary(b), nil
			}
			if s, ok := v["$ident"].(string); ok {
				return Ident(s), nil
			}
		}
		return nil, errors.New("objects are not values")
	case []any:
		return nil, errors.New("arrays are not values")
	}
	return v, nil
}

// options is a decoded opts object, keys kept in document order.
type options struct {
	tag  Tag
	keys []string
	vals map[string]json.RawMessage
}

func decodeObject(tag Tag, field string, raw json.RawMessage) (*options, error) {
	o := &options{tag: tag, vals: map[string]json.RawMessage{}}
	if len(raw) == 0 || string(raw) == "null" {
		return o, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, Invalid(tag, field, "%v", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, Invalid(tag, field, "expected an object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, Invalid(tag, field, "%v", err)
		}
		key, _ := tok.(string)
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, Invalid(tag, field, "%s: %v", key, err)
		}
		if _, dup := o.vals[key]; dup {
			return nil, Invalid(tag, field, "duplicate key %q", key)
		}
		o.keys = append(o.keys, key)
		o.vals[key] = v
	}
	return o, nil
}

// decodeOptions decodes the opts object of tag and rejects unknown and collapsed keys.
func decodeOptions(tag Tag, raw json.RawMessage) (*options, error) {
	o, err := decodeObject(tag, "opts", raw)
	if err != nil {
		return nil, err
	}
	allowed := allowedKeys[tag]
	for _, key := range o.keys {
		if slices.Contains(allowed, key) {
			continue
		}
		if slices.Contains(allowed, strings.ToUpper(strings.TrimSpace(key))) {
			return nil, Invalid(tag, key, "option keys are upper case without padding")
		}
		if clause := collapsedClause(key); clause != "" {
			return nil, Invalid(tag, clause, "clause keyword and value collapsed into the key %q", key)
		}
		return nil, Invalid(tag, key, "unknown option")
	}
	return o, nil
}

// collapsedClause returns the clause keyword key starts with when the keyword is
// followed by more text, e.g. "WHERE" for "WHERE id = 1".
func collapsedClause(key string) string {
	upper := strings.ToUpper(strings.TrimSpace(key))
	for _, clause := range clauseKeys {
		if len(upper) <= len(clause) || !strings.HasPrefix(upper, clause) {
			continue
		}
		next := upper[len(clause)]
		if next != '_' && (next < 'A' || next > 'Z') && (next < '0' || next > '9') {
			return clause
		}
	}
	return ""
}

func (o *options) has(key string) bool {
	_, ok := o.vals[key]
	return ok
}

func (o *options) str(key string) (string, error) {
	raw, ok := o.vals[key]
	if !ok || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", Invalid(o.tag, key, "expected a string")
}

func (o *options) boolean(key string) (bool, error) {
	raw, ok := o.vals[key]
	if !ok || string(raw) == "null" {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, Invalid(o.tag, key, "expected a boolean")
	}
	return b, nil
}

// list accepts a string or an array of strings.
func (o *options) list(key string) ([]string, error) {
	raw, ok := o.vals[key]
	if !ok || string(raw) == "null" {
		return nil, nil
	}
	return stringList(o.tag, key, raw)
}

func stringList(tag Tag, field string, raw json.RawMessage) ([]string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []string{s}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, Invalid(tag, field, "expected a string or an array of strings")
	}
	return list, nil
}

func (o *options) values(key string) (map[string]any, error) {
	raw, ok := o.vals[key]
	if !ok || string(raw) == "null" {
		return nil, nil
	}
	return valueMap(o.tag, key, raw)
}

func valueMap(tag Tag, field string, raw json.RawMessage) (map[string]any, error) {
	var items map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, Invalid(tag, field, "expected an object")
	}
	out := make(map[string]any, len(items))
	for col, item := range items {
		v, err := decodeValue(item)
		if err != nil {
			return nil, Invalid(tag, field, "%s: %v", col, err)
		}
		out[col] = v
	}
	return out, nil
}

func (o *options) inline(key string) (map[string]string, error) {
	raw, ok := o.vals[key]
	if !ok || string(raw) == "null" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, Invalid(o.tag, key, "expected an object of SQL expressions")
	}
	return m, nil
}

// bare decodes opts given as a bare string, array or boolean instead of an object.
func bare[T any](raw json.RawMessage) (T, bool) {
	var v T
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] == '{' {
		return v, false
	}
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return v, false
	}
	return v, true
}

func decodeSelect(raw json.RawMessage) (*Select, error) {
	var wl wireLine
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wl); err != nil {
		return nil, Invalid(TagSelect, "", "malformed select: %v", err)
	}
	args, err := decodeArgs(TagSelect, wl.Args)
	if err != nil {
		return nil, err
	}
	cmd, err := decodeCommand(TagSelect, wl.Opts, args)
	if err != nil {
		return nil, err
	}
	return cmd.(*Select), nil
}

type errCollector struct {
	err error
}

func (c *errCollector) str(o *options, key string) string {
	s, err := o.str(key)
	c.keep(err)
	return s
}

func (c *errCollector) boolean(o *options, key string) bool {
	b, err := o.boolean(key)
	c.keep(err)
	return b
}

func (c *errCollector) list(o *options, key string) []string {
	l, err := o.list(key)
	c.keep(err)
	return l
}

func (c *errCollector) keep(err error) {
	if c.err == nil {
		c.err = err
	}
}

func decodeCommand(tag Tag, raw json.RawMessage, args []any) (Command, error) {
	switch tag {
	case TagSet:
		s, ok := bare[string](raw)
		if !ok {
			return nil, Invalid(tag, "opts", "expected the statement as a string")
		}
		return &Set{Statement: s, Args: args}, nil
	case TagUse:
		s, ok := bare[string](raw)
		if !ok {
			return nil, Invalid(tag, "opts", "expected the database name as a string")
		}
		return &Use{Database: s}, nil
	case TagShowDatabases:
		return &ShowDatabases{}, nil
	}

	if len(args) > 0 && tag != TagSelect && tag != TagUpdate && tag != TagDelete {
		return nil, Invalid(tag, "args", "%s takes no arguments", tag)
	}

	switch tag {
	case TagTruncateTable, TagDropTable:
		if tables, ok := bare[[]string](raw); ok {
			return tableCommand(tag, tables, false), nil
		}
		if table, ok := bare[string](raw); ok {
			return tableCommand(tag, []string{table}, false), nil
		}
	case TagDropDatabase:
		if name, ok := bare[string](raw); ok {
			return &DropDatabase{Name: name}, nil
		}
	case TagCreateDatabase:
		if name, ok := bare[string](raw); ok {
			return &CreateDatabase{Name: name}, nil
		}
	case TagShowCreateDatabase:
		if name, ok := bare[string](raw); ok {
			return &ShowCreateDatabase{Name: name}, nil
		}
	case TagShowCreateTable:
		if table, ok := bare[string](raw); ok {
			return &ShowCreateTable{Table: table}, nil
		}
	case TagBulkImportMode:
		if enable, ok := bare[bool](raw); ok {
			return &BulkImportMode{Enable: enable}, nil
		}
	}

	o, err := decodeOptions(tag, raw)
	if err != nil {
		return nil, err
	}
	var c errCollector
	var cmd Command
	switch tag {
	case TagSelect:
		s := &Select{
			Distinct:   c.boolean(o, optDistinct),
			Columns:    c.str(o, optColumns),
			From:       c.str(o, optFrom),
			Where:      c.str(o, optWhere),
			GroupBy:    c.str(o, optGroupBy),
			Having:     c.str(o, optHaving),
			OrderBy:    c.str(o, optOrderBy),
			Limit:      c.str(o, optLimit),
			ExportRows: c.boolean(o, optExportRows),
			Args:       args,
		}
		if raw := o.vals[optSubqueries]; len(raw) > 0 {
			var subs []json.RawMessage
			if err := json.Unmarshal(raw, &subs); err != nil {
				return nil, Invalid(tag, optSubqueries, "expected an array")
			}
			for _, sub := range subs {
				sel, err := decodeSelect(sub)
				if err != nil {
					return nil, err
				}
				s.Subqueries = append(s.Subqueries, sel)
			}
		}
		cmd = s
	case TagInsert:
		ins := &Insert{
			Table:         c.str(o, optTable),
			AutoIncrement: c.str(o, optAutoIncrement),
			Columns:       c.list(o, optColumns),
		}
		ins.Values, err = o.values(optValues)
		c.keep(err)
		ins.Inline, err = o.inline(optInline)
		c.keep(err)
		if raw := o.vals[optRows]; len(raw) > 0 {
			var rows []json.RawMessage
			if err := json.Unmarshal(raw, &rows); err != nil {
				return nil, Invalid(tag, optRows, "expected an array")
			}
			for _, row := range rows {
				m, err := valueMap(tag, optRows, row)
				if err != nil {
					return nil, err
				}
				ins.Rows = append(ins.Rows, m)
			}
		}
		if o.has(optSelect) {
			ins.Select, err = decodeSelect(o.vals[optSelect])
			c.keep(err)
		}
		cmd = ins
	case TagUpdate:
		u := &Update{
			Table:   c.str(o, optTable),
			Where:   c.str(o, optWhere),
			OrderBy: c.str(o, optOrderBy),
			Limit:   c.str(o, optLimit),
			All:     c.boolean(o, optAll),
			Args:    args,
		}
		u.Values, err = o.values(optValues)
		c.keep(err)
		u.Inline, err = o.inline(optInline)
		c.keep(err)
		cmd = u
	case TagDelete:
		cmd = &Delete{
			Table:   c.str(o, optTable),
			Where:   c.str(o, optWhere),
			OrderBy: c.str(o, optOrderBy),
			Limit:   c.str(o, optLimit),
			All:     c.boolean(o, optAll),
			Args:    args,
		}
	case TagTruncateTable, TagDropTable:
		cmd = tableCommand(tag, c.list(o, optTables), c.boolean(o, optTemporary))
	case TagCreateDatabase:
		cmd = &CreateDatabase{
			Name:         c.str(o, optName),
			CharacterSet: c.str(o, optCharacterSet),
			Collate:      c.str(o, optCollate),
		}
	case TagDropDatabase:
		cmd = &DropDatabase{Name: c.str(o, optName)}
	case TagCreateTable:
		ct := &CreateTable{
			Table:        c.str(o, optTable),
			Temporary:    c.boolean(o, optTemporary),
			CharacterSet: c.str(o, optCharacterSet),
			Collate:      c.str(o, optCollate),
			Native:       c.str(o, optNative),
		}
		if o.has(optColumns) {
			ct.Columns, err = decodeColumns(tag, o.vals[optColumns])
			c.keep(err)
		}
		if raw := o.vals[optKeys]; len(raw) > 0 {
			var keys []json.RawMessage
			if err := json.Unmarshal(raw, &keys); err != nil {
				return nil, Invalid(tag, optKeys, "expected an array")
			}
			for _, k := range keys {
				key, err := decodeKey(tag, k)
				if err != nil {
					return nil, err
				}
				ct.Keys = append(ct.Keys, key)
			}
		}
		if o.has(optSelect) {
			ct.Select, err = decodeSelect(o.vals[optSelect])
			c.keep(err)
		}
		cmd = ct
	case TagAddColumn:
		ac := &AddColumn{
			Table: c.str(o, optTable),
			First: c.boolean(o, optFirst),
			After: c.str(o, optAfter),
		}
		cols, err := decodeColumns(tag, o.vals[optColumns])
		if err != nil {
			return nil, err
		}
		if len(cols) != 1 {
			return nil, Invalid(tag, optColumns, "exactly one column is required")
		}
		ac.Column = cols[0]
		cmd = ac
	case TagDropColumn:
		cmd = &DropColumn{Table: c.str(o, optTable), Columns: c.list(o, optColumns)}
	case TagAddIndex:
		key := KeyDefinition{
			Type:    KeyType(strings.ToUpper(c.str(o, optType))),
			Columns: c.list(o, optColumns),
			Name:    c.str(o, optName),
		}
		if raw := o.vals[optReferences]; len(raw) > 0 {
			key.References, err = decodeReference(tag, raw)
			c.keep(err)
		}
		cmd = &AddIndex{Table: c.str(o, optTable), Key: key}
	case TagDropIndex:
		cmd = &DropIndex{Table: c.str(o, optTable), Name: c.str(o, optName)}
	case TagShowTables:
		cmd = &ShowTables{Full: c.boolean(o, optFull)}
	case TagShowCreateDatabase:
		cmd = &ShowCreateDatabase{Name: c.str(o, optName)}
	case TagShowCreateTable:
		cmd = &ShowCreateTable{Table: c.str(o, optTable), ExportHints: c.boolean(o, optExportHints)}
	case TagBulkImportMode:
		cmd = &BulkImportMode{Enable: c.boolean(o, optEnable)}
	default:
		return nil, &UnsupportedCommandError{Tag: tag}
	}
	if c.err != nil {
		return nil, c.err
	}
	return cmd, nil
}

func tableCommand(tag Tag, tables []string, temporary bool) Command {
	if tag == TagTruncateTable {
		return &TruncateTable{Tables: tables}
	}
	return &DropTable{Tables: tables, Temporary: temporary}
}

type referenceObject struct {
	Table    string   `json:"TABLE"`
	Columns  []string `json:"COLUMNS"`
	OnDelete string   `json:"ON DELETE,omitempty"`
	OnUpdate string   `json:"ON UPDATE,omitempty"`
}

type columnObject struct {
	Type          string           `json:"TYPE"`
	Size          int              `json:"SIZE,omitempty"`
	Scale         int              `json:"SCALE,omitempty"`
	Length        int              `json:"LENGTH,omitempty"`
	NotNull       bool             `json:"NOT NULL,omitempty"`
	Default       json.RawMessage  `json:"DEFAULT,omitempty"`
	PrimaryKey    bool             `json:"PRIMARY KEY,omitempty"`
	UniqueKey     bool             `json:"UNIQUE KEY,omitempty"`
	AutoIncrement bool             `json:"AUTO INCREMENT,omitempty"`
	Unsigned      bool             `json:"UNSIGNED,omitempty"`
	Fixed         bool             `json:"FIXED,omitempty"`
	Comment       string           `json:"COMMENT,omitempty"`
	References    *referenceObject `json:"REFERENCES,omitempty"`
}

type keyObject struct {
	Type       string           `json:"TYPE"`
	Columns    []string         `json:"COLUMNS"`
	Name       string           `json:"NAME,omitempty"`
	References *referenceObject `json:"REFERENCES,omitempty"`
}

func strictUnmarshal(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// decodeColumns decodes an ordered {"name": definition} object. A definition is
// either the shorthand string or an object with upper-case option keys.
func decodeColumns(tag Tag, raw json.RawMessage) ([]ColumnDefinition, error) {
	o, err := decodeObject(tag, optColumns, raw)
	if err != nil {
		return nil, err
	}
	cols := make([]ColumnDefinition, 0, len(o.keys))
	for _, name := range o.keys {
		var shorthand string
		if err := json.Unmarshal(o.vals[name], &shorthand); err == nil {
			def, err := ParseColumn(name, shorthand)
			if err != nil {
				return nil, err
			}
			cols = append(cols, def)
			continue
		}
		var obj columnObject
		if err := strictUnmarshal(o.vals[name], &obj); err != nil {
			return nil, Invalid(tag, "COLUMN "+name, "%v", err)
		}
		def := ColumnDefinition{
			Name:          name,
			Type:          ColumnType(strings.ToUpper(obj.Type)),
			Size:          obj.Size,
			Scale:         obj.Scale,
			Length:        obj.Length,
			NotNull:       obj.NotNull,
			PrimaryKey:    obj.PrimaryKey,
			UniqueKey:     obj.UniqueKey,
			AutoIncrement: obj.AutoIncrement,
			Unsigned:      obj.Unsigned,
			Fixed:         obj.Fixed,
			Comment:       obj.Comment,
		}
		if len(obj.Default) > 0 {
			def.HasDefault = true
			if def.Default, err = decodeValue(obj.Default); err != nil {
				return nil, Invalid(tag, "COLUMN "+name, "DEFAULT: %v", err)
			}
		}
		if obj.References != nil {
			def.References = obj.References.reference()
		}
		cols = append(cols, def)
	}
	return cols, nil
}

func decodeKey(tag Tag, raw json.RawMessage) (KeyDefinition, error) {
	var obj keyObject
	if err := strictUnmarshal(raw, &obj); err != nil {
		return KeyDefinition{}, Invalid(tag, optKeys, "%v", err)
	}
	key := KeyDefinition{
		Type:    KeyType(strings.ToUpper(obj.Type)),
		Columns: obj.Columns,
		Name:    obj.Name,
	}
	if obj.References != nil {
		key.References = obj.References.reference()
	}
	return key, nil
}

func decodeReference(tag Tag, raw json.RawMessage) (*Reference, error) {
	var obj referenceObject
	if err := strictUnmarshal(raw, &obj); err != nil {
		return nil, Invalid(tag, optReferences, "%v", err)
	}
	return obj.reference(), nil
}

func (r *referenceObject) reference() *Reference {
	return &Reference{Table: r.Table, Columns: r.Columns, OnDelete: r.OnDelete, OnUpdate: r.OnUpdate}
}

// Decoder reads commands from a stream of JSON lines. Blank lines and lines
// starting with # are skipped.
type Decoder struct {
	sc   *bufio.Scanner
	line int
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	return &Decoder{sc: sc}
}

// Decode returns the next command, or io.EOF when the stream is exhausted.
func (d *Decoder) Decode() (Command, error) {
	for d.sc.Scan() {
		d.line++
		text := bytes.TrimSpace(d.sc.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}
		cmd, err := Unmarshal(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", d.line, err)
		}
		return cmd, nil
	}
	if err := d.sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", d.line+1, err)
	}
	return nil, io.EOF
}

// Line returns the number of the line last read.
func (d *Decoder) Line() int {
	return d.line
}
