package dbc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// Record is one decoded row. Values are held in schema order.
type Record struct {
	schema *Schema
	key    uint32
	values []Value
}

// Key returns the record key, the first field reinterpreted as uint32.
func (r *Record) Key() uint32 { return r.key }

// Schema returns the schema the record was decoded with.
func (r *Record) Schema() *Schema { return r.schema }

// Len returns the number of values.
func (r *Record) Len() int { return len(r.values) }

// Value returns the i-th value.
func (r *Record) Value(i int) Value { return r.values[i] }

// Lookup returns the value of the named field.
func (r *Record) Lookup(name string) (Value, bool) {
	i, ok := r.schema.FieldIndex(name)
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// Uint32 returns the named field as a uint32. Byte and Int32 fields are
// converted; any other kind yields 0.
func (r *Record) Uint32(name string) uint32 {
	v, _ := r.Lookup(name)
	k, _ := keyOf(v)
	return k
}

// Int32 returns the named Int32 field, or 0.
func (r *Record) Int32(name string) int32 {
	v, _ := r.Lookup(name)
	if i, ok := v.(Int32); ok {
		return int32(i)
	}
	return 0
}

// Float32 returns the named Float32 field, or 0.
func (r *Record) Float32(name string) float32 {
	v, _ := r.Lookup(name)
	if f, ok := v.(Float32); ok {
		return float32(f)
	}
	return 0
}

// Text returns the named string or localized string field, or "".
func (r *Record) Text(name string) string {
	v, _ := r.Lookup(name)
	switch s := v.(type) {
	case String:
		return string(s)
	case LocalizedString:
		return s.Text
	}
	return ""
}

// MarshalJSON encodes the record as an object whose members follow schema order.
// Non-finite float values are encoded as strings.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range r.values {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(r.schema.fields[i].Name)
		if err != nil {
			return nil, err
		}
		val, err := marshalValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", r.schema.fields[i].Name, err)
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalValue encodes v, writing non-finite floats as the strings "NaN",
// "+Inf" and "-Inf" since JSON numbers cannot hold them.
func marshalValue(v Value) ([]byte, error) {
	switch f := v.(type) {
	case Float32:
		return appendFloat(nil, float32(f)), nil
	case Float32Array:
		out := []byte{'['}
		for i, x := range f {
			if i > 0 {
				out = append(out, ',')
			}
			out = appendFloat(out, x)
		}
		return append(out, ']'), nil
	}
	return json.Marshal(v)
}

func appendFloat(dst []byte, f float32) []byte {
	switch x := float64(f); {
	case math.IsNaN(x):
		return append(dst, `"NaN"`...)
	case math.IsInf(x, 1):
		return append(dst, `"+Inf"`...)
	case math.IsInf(x, -1):
		return append(dst, `"-Inf"`...)
	default:
		b, _ := json.Marshal(f)
		return append(dst, b...)
	}
}

// recordBuilder accumulates decoded values in schema order.
type recordBuilder struct {
	schema *Schema
	values []Value
}

func (b *recordBuilder) add(v Value) {
	b.values = append(b.values, v)
}

func (b *recordBuilder) build() (*Record, error) {
	if len(b.values) != len(b.schema.fields) {
		return nil, schemaError(ErrInvalidSchema, b.schema.name, "",
			fmt.Sprintf("record has %d values, schema has %d fields", len(b.values), len(b.schema.fields)))
	}
	key, ok := keyOf(b.values[0])
	if !ok {
		return nil, schemaError(ErrInvalidKeyField, b.schema.name, b.schema.fields[0].Name,
			fmt.Sprintf("%s cannot be used as a key", b.values[0].Kind()))
	}
	return &Record{schema: b.schema, key: key, values: b.values}, nil
}

// Table maps record keys to records.
type Table struct {
	schema     *Schema
	records    map[uint32]*Record
	duplicates int
}

func newTable(s *Schema, capacity int) *Table {
	return &Table{schema: s, records: make(map[uint32]*Record, capacity)}
}

// put stores rec, replacing any record already stored under its key.
func (t *Table) put(rec *Record) {
	if _, exists := t.records[rec.key]; exists {
		t.duplicates++
	}
	t.records[rec.key] = rec
}

// Schema returns the table schema.
func (t *Table) Schema() *Schema { return t.schema }

// Get returns the record stored under key.
func (t *Table) Get(key uint32) (*Record, bool) {
	rec, ok := t.records[key]
	return rec, ok
}

// Len returns the number of distinct keys.
func (t *Table) Len() int { return len(t.records) }

// Duplicates returns how many records were replaced by a later record
// with the same key.
func (t *Table) Duplicates() int { return t.duplicates }

// Keys returns all keys in ascending order.
func (t *Table) Keys() []uint32 {
	keys := make([]uint32, 0, len(t.records))
	for k := range t.records {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Range calls fn for every record in ascending key order until fn returns false.
func (t *Table) Range(fn func(key uint32, rec *Record) bool) {
	for _, k := range t.Keys() {
		if !fn(k, t.records[k]) {
			return
		}
	}
}
