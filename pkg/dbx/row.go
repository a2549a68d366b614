package dbx

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Kind is the type tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a tagged scalar holding one column value.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	raw  []byte
	t    time.Time
}

// Null is the NULL value.
var Null = Value{}

func BoolValue(v bool) Value { return Value{kind: KindBool, b: v} }
func IntValue(v int64) Value { return Value{kind: KindInt, i: v} }
func FloatValue(v float64) Value { return Value{kind: KindFloat, f: v} }
func StringValue(v string) Value { return Value{kind: KindString, s: v} }
func BytesValue(v []byte) Value { return Value{kind: KindBytes, raw: v} }
func TimeValue(v time.Time) Value { return Value{kind: KindTime, t: v} }

// NewValue converts a value returned by a driver into a Value.
// Types without a dedicated kind are stored as their string representation.
func NewValue(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null
	case Value:
		return x
	case bool:
		return BoolValue(x)
	case int:
		return IntValue(int64(x))
	case int8:
		return IntValue(int64(x))
	case int16:
		return IntValue(int64(x))
	case int32:
		return IntValue(int64(x))
	case int64:
		return IntValue(x)
	case uint8:
		return IntValue(int64(x))
	case uint16:
		return IntValue(int64(x))
	case uint32:
		return IntValue(int64(x))
	case uint64:
		if x > 1<<63-1 {
			return StringValue(fmt.Sprint(x))
		}
		return IntValue(int64(x))
	case float32:
		return FloatValue(float64(x))
	case float64:
		return FloatValue(x)
	case string:
		return StringValue(x)
	case []byte:
		return BytesValue(bytes.Clone(x))
	case time.Time:
		return TimeValue(x)
	case fmt.Stringer:
		return StringValue(x.String())
	default:
		return StringValue(fmt.Sprint(x))
	}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the value if it holds a bool.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Int returns the value if it holds an integer.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

// Float returns the value as float64 if it holds a float or an integer.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// String returns a printable form of any value; NULL prints as "NULL".
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindBool:
		return fmt.Sprint(v.b)
	case KindInt:
		return fmt.Sprint(v.i)
	case KindFloat:
		return fmt.Sprint(v.f)
	case KindString:
		return v.s
	case KindBytes:
		return string(v.raw)
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// Bytes returns the value if it holds bytes or a string.
func (v Value) Bytes() ([]byte, bool) {
	switch v.kind {
	case KindBytes:
		return v.raw, true
	case KindString:
		return []byte(v.s), true
	default:
		return nil, false
	}
}

// Time returns the value if it holds a timestamp.
func (v Value) Time() (time.Time, bool) { return v.t, v.kind == KindTime }

// Interface returns the held value as a plain Go value (nil for NULL).
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBytes:
		return v.raw
	case KindTime:
		return v.t
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// Row is one result row: an ordered mapping from column name to Value.
type Row struct {
	columns []string
	values  []Value
}

// NewRow builds a Row from driver values. columns and values must have the same length.
func NewRow(columns []string, values []any) Row {
	row := Row{columns: columns, values: make([]Value, len(values))}
	for i, v := range values {
		row.values[i] = NewValue(v)
	}

	return row
}

func (r Row) Len() int { return len(r.columns) }
func (r Row) Columns() []string { return r.columns }
func (r Row) Values() []Value { return r.values }
func (r Row) At(idx int) Value { return r.values[idx] }

// Get returns the value of the first column named name.
func (r Row) Get(name string) (Value, bool) {
	for i, col := range r.columns {
		if col == name {
			return r.values[i], true
		}
	}

	return Null, false
}

// Map returns the row as a plain map. Duplicate column names keep the first value.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i := len(r.columns) - 1; i >= 0; i-- {
		m[r.columns[i]] = r.values[i].Interface()
	}

	return m
}

// MarshalJSON encodes the row as a JSON object preserving column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}
