package command

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Marshal encodes cmd as one line of the format read by Unmarshal, without the
// trailing newline.
func Marshal(cmd Command) ([]byte, error) {
	opts, args, err := encodeCommand(cmd)
	if err != nil {
		return nil, err
	}
	out := struct {
		Cmd  Tag   `json:"cmd"`
		Opts any   `json:"opts,omitempty"`
		Args []any `json:"args,omitempty"`
	}{cmd.Tag(), opts, args}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encode %s: %w", cmd.Tag(), err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Encoder writes commands as JSON lines.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes cmd followed by a newline.
func (e *Encoder) Encode(cmd Command) error {
	line, err := Marshal(cmd)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	_, err = e.w.Write(line)
	return err
}

// encodeValue maps a value to its line representation.
func encodeValue(v any) any {
	switch v := v.(type) {
	case Binary:
		return map[string]string{"$binary": base64.StdEncoding.EncodeToString(v)}
	case []byte:
		return map[string]string{"$binary": base64.StdEncoding.EncodeToString(v)}
	case Ident:
		return map[string]string{"$ident": string(v)}
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	}
	return v
}

func encodeValues(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = encodeValue(v)
	}
	return out
}

func encodeArgs(args []any) []any {
	if len(args) == 0 {
		return nil
	}
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = encodeValue(a)
	}
	return out
}

// object collects options, skipping zero values.
type object map[string]any

func (o object) set(key string, v any) {
	switch v := v.(type) {
	case string:
		if v == "" {
			return
		}
	case bool:
		if !v {
			return
		}
	case []string:
		if len(v) == 0 {
			return
		}
	case map[string]any:
		if len(v) == 0 {
			return
		}
	case map[string]string:
		if len(v) == 0 {
			return
		}
	}
	o[key] = v
}

// orderedColumns encodes definitions as an object in declaration order.
type orderedColumns []ColumnDefinition

func (cols orderedColumns) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := range cols {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(cols[i].Name)
		if err != nil {
			return nil, err
		}
		def, err := json.Marshal(cols[i].String())
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(def)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type wireSelect struct {
	Opts object `json:"opts"`
	Args []any  `json:"args,omitempty"`
}

func selectObject(s *Select) object {
	o := object{}
	o.set(optDistinct, s.Distinct)
	o.set(optColumns, s.Columns)
	o.set(optFrom, s.From)
	o.set(optWhere, s.Where)
	o.set(optGroupBy, s.GroupBy)
	o.set(optHaving, s.Having)
	o.set(optOrderBy, s.OrderBy)
	o.set(optLimit, s.Limit)
	o.set(optExportRows, s.ExportRows)
	if len(s.Subqueries) > 0 {
		subs := make([]wireSelect, len(s.Subqueries))
		for i, sub := range s.Subqueries {
			subs[i] = wireSelect{Opts: selectObject(sub), Args: encodeArgs(sub.Args)}
		}
		o[optSubqueries] = subs
	}
	return o
}

func referenceJSON(r *Reference) *referenceObject {
	if r == nil {
		return nil
	}
	return &referenceObject{Table: r.Table, Columns: r.Columns, OnDelete: r.OnDelete, OnUpdate: r.OnUpdate}
}

func encodeCommand(cmd Command) (any, []any, error) {
	o := object{}
	switch c := cmd.(type) {
	case *Select:
		return selectObject(c), encodeArgs(c.Args), nil
	case *Insert:
		o.set(optTable, c.Table)
		o.set(optValues, encodeValues(c.Values))
		if len(c.Rows) > 0 {
			rows := make([]map[string]any, len(c.Rows))
			for i, r := range c.Rows {
				rows[i] = encodeValues(r)
			}
			o[optRows] = rows
		}
		o.set(optInline, c.Inline)
		o.set(optAutoIncrement, c.AutoIncrement)
		o.set(optColumns, c.Columns)
		if c.Select != nil {
			o[optSelect] = wireSelect{Opts: selectObject(c.Select), Args: encodeArgs(c.Select.Args)}
		}
	case *Update:
		o.set(optTable, c.Table)
		o.set(optValues, encodeValues(c.Values))
		o.set(optInline, c.Inline)
		o.set(optWhere, c.Where)
		o.set(optOrderBy, c.OrderBy)
		o.set(optLimit, c.Limit)
		o.set(optAll, c.All)
		return o, encodeArgs(c.Args), nil
	case *Delete:
		o.set(optTable, c.Table)
		o.set(optWhere, c.Where)
		o.set(optOrderBy, c.OrderBy)
		o.set(optLimit, c.Limit)
		o.set(optAll, c.All)
		return o, encodeArgs(c.Args), nil
	case *TruncateTable:
		return c.Tables, nil, nil
	case *Set:
		return c.Statement, encodeArgs(c.Args), nil
	case *Use:
		return c.Database, nil, nil
	case *CreateDatabase:
		o.set(optName, c.Name)
		o.set(optCharacterSet, c.CharacterSet)
		o.set(optCollate, c.Collate)
	case *DropDatabase:
		return c.Name, nil, nil
	case *CreateTable:
		o.set(optTable, c.Table)
		if len(c.Columns) > 0 {
			o[optColumns] = orderedColumns(c.Columns)
		}
		if len(c.Keys) > 0 {
			keys := make([]keyObject, len(c.Keys))
			for i, k := range c.Keys {
				keys[i] = keyObject{Type: string(k.Type), Columns: k.Columns, Name: k.Name, References: referenceJSON(k.References)}
			}
			o[optKeys] = keys
		}
		o.set(optTemporary, c.Temporary)
		o.set(optCharacterSet, c.CharacterSet)
		o.set(optCollate, c.Collate)
		o.set(optNative, c.Native)
		if c.Select != nil {
			o[optSelect] = wireSelect{Opts: selectObject(c.Select), Args: encodeArgs(c.Select.Args)}
		}
	case *DropTable:
		if !c.Temporary {
			return c.Tables, nil, nil
		}
		o.set(optTables, c.Tables)
		o.set(optTemporary, c.Temporary)
	case *AddColumn:
		o.set(optTable, c.Table)
		o[optColumns] = orderedColumns{c.Column}
		o.set(optFirst, c.First)
		o.set(optAfter, c.After)
	case *DropColumn:
		o.set(optTable, c.Table)
		o.set(optColumns, c.Columns)
	case *AddIndex:
		o.set(optTable, c.Table)
		o.set(optType, string(c.Key.Type))
		o.set(optColumns, c.Key.Columns)
		o.set(optName, c.Key.Name)
		if c.Key.References != nil {
			o[optReferences] = referenceJSON(c.Key.References)
		}
	case *DropIndex:
		o.set(optTable, c.Table)
		o.set(optName, c.Name)
	case *ShowDatabases:
		return nil, nil, nil
	case *ShowTables:
		o.set(optFull, c.Full)
	case *ShowCreateDatabase:
		return c.Name, nil, nil
	case *ShowCreateTable:
		o.set(optTable, c.Table)
		o.set(optExportHints, c.ExportHints)
	case *BulkImportMode:
		return c.Enable, nil, nil
	default:
		return nil, nil, &UnsupportedCommandError{Tag: cmd.Tag()}
	}
	if len(o) == 0 {
		return nil, nil, nil
	}
	return o, nil, nil
}
