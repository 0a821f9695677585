package dbc

import (
	"fmt"
	"strings"
)

// FieldKind identifies how a column is laid out on disk.
type FieldKind int

const (
	KindByte FieldKind = iota + 1
	KindInt32
	KindUInt32
	KindFloat32
	KindString          // 4-byte offset into the string block
	KindLocalizedString // LocaleSlots offsets followed by a flags word
	KindInt32Array
	KindUInt32Array
	KindFloat32Array
)

const (
	// LocalizedStringWords is the number of 4-byte words a localized string
	// occupies: LocaleSlots offsets plus one flags word.
	LocalizedStringWords = 8
	// LocaleSlots is the number of locale offsets in a localized string.
	LocaleSlots = LocalizedStringWords - 1
)

var kindNames = map[FieldKind]string{
	KindByte:            "byte",
	KindInt32:           "int32",
	KindUInt32:          "uint32",
	KindFloat32:         "float32",
	KindString:          "string",
	KindLocalizedString: "locstring",
	KindInt32Array:      "int32[]",
	KindUInt32Array:     "uint32[]",
	KindFloat32Array:    "float32[]",
}

func (k FieldKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("FieldKind(%d)", int(k))
}

// IsArray reports whether the kind is a fixed-size array.
func (k FieldKind) IsArray() bool {
	return k == KindInt32Array || k == KindUInt32Array || k == KindFloat32Array
}

func (k FieldKind) valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseFieldKind maps a kind name such as "uint32" or "float32[]" to its
// FieldKind. Names are case insensitive.
func ParseFieldKind(name string) (FieldKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, n := range kindNames {
		if n == name {
			return kind, nil
		}
	}
	return 0, schemaError(ErrUnsupportedFieldKind, "", "", fmt.Sprintf("unknown kind %q", name))
}

// Field describes one schema column. Count is the element count for array
// kinds and is ignored otherwise.
type Field struct {
	Name  string
	Kind  FieldKind
	Count int
}

// columns is the number of 4-byte columns (or byte columns) the field spans.
func (f Field) columns() int {
	switch {
	case f.Kind.IsArray():
		return f.Count
	case f.Kind == KindLocalizedString:
		return LocalizedStringWords
	default:
		return 1
	}
}

// width is the on-disk byte width of the field.
func (f Field) width() int {
	if f.Kind == KindByte {
		return 1
	}
	return f.columns() * 4
}

// Schema is an ordered, validated list of fields. Field order is on-disk order.
type Schema struct {
	name   string
	fields []Field
	index  map[string]int
	width  int
	cols   int
}

// NewSchema validates fields and returns an immutable schema. The first
// field is the record key and must be a Byte, Int32 or UInt32 column.
func NewSchema(name string, fields ...Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, schemaError(ErrInvalidSchema, name, "", "no fields")
	}

	s := &Schema{
		name:   name,
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	copy(s.fields, fields)

	for i, f := range s.fields {
		if f.Name == "" {
			f.Name = fmt.Sprintf("field%d", i)
			s.fields[i].Name = f.Name
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, schemaError(ErrInvalidSchema, name, f.Name, "duplicate field name")
		}
		if !f.Kind.valid() {
			return nil, schemaError(ErrUnsupportedFieldKind, name, f.Name, f.Kind.String())
		}
		if f.Kind.IsArray() && f.Count < 1 {
			return nil, schemaError(ErrInvalidSchema, name, f.Name,
				fmt.Sprintf("array element count %d", f.Count))
		}
		s.index[f.Name] = i
		s.width += f.width()
		s.cols += f.columns()
	}

	switch s.fields[0].Kind {
	case KindByte, KindInt32, KindUInt32:
	default:
		return nil, schemaError(ErrInvalidKeyField, name, s.fields[0].Name,
			fmt.Sprintf("%s cannot be used as a key", s.fields[0].Kind))
	}

	return s, nil
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Len returns the number of schema fields.
func (s *Schema) Len() int { return len(s.fields) }

// Field returns the i-th field.
func (s *Schema) Field(i int) Field { return s.fields[i] }

// Fields returns a copy of the schema fields in order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// FieldIndex returns the position of the named field.
func (s *Schema) FieldIndex(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// FieldCount returns the number of on-disk columns the schema declares, the
// figure stored in the header's FieldCount. Arrays count one column per
// element and localized strings count LocalizedStringWords columns.
func (s *Schema) FieldCount() int { return s.cols }

// RecordWidth returns the number of bytes one record occupies.
func (s *Schema) RecordWidth() int { return s.width }

// newBuilder returns an empty record shell for the schema.
func (s *Schema) newBuilder() *recordBuilder {
	return &recordBuilder{schema: s, values: make([]Value, 0, len(s.fields))}
}
