package dbc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// maxPrealloc bounds map preallocation so a corrupt record count cannot
// force a huge allocation before the stream runs dry.
const maxPrealloc = 1 << 16

// File is a fully decoded DBC file.
type File struct {
	Header  Header
	Strings StringTable
	Table   *Table
}

// Decode reads a complete DBC file starting at the current position of r.
// The string block is read first, then r is rewound to the record block.
// On success r is left at the end of the file.
func Decode(r io.ReadSeeker, s *Schema) (*File, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream position: %w", err)
	}

	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	if err := checkSchema(h, s); err != nil {
		return nil, err
	}

	recordStart := start + HeaderSize
	if _, err := r.Seek(recordStart+h.RecordBlockSize(), io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to string block: %w", err)
	}

	block, err := io.ReadAll(io.LimitReader(r, int64(h.StringBlockSize)))
	if err != nil {
		return nil, fmt.Errorf("failed to read string block: %w", err)
	}
	if len(block) < int(h.StringBlockSize) {
		return nil, truncated(-1, "string block", io.ErrUnexpectedEOF)
	}

	strs, err := DecodeStringBlock(block, h.StringBlockSize)
	if err != nil {
		return nil, err
	}

	if _, err := r.Seek(recordStart, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to record block: %w", err)
	}

	table, err := DecodeRecords(r, h, s, strs)
	if err != nil {
		return nil, err
	}

	if _, err := r.Seek(int64(h.StringBlockSize), io.SeekCurrent); err != nil {
		return nil, fmt.Errorf("failed to seek past string block: %w", err)
	}

	return &File{Header: h, Strings: strs, Table: table}, nil
}

// DecodeBytes decodes a DBC file held in memory.
func DecodeBytes(data []byte, s *Schema) (*File, error) {
	return Decode(bytes.NewReader(data), s)
}

// DecodeRecords reads h.RecordCount records from r, which must be positioned
// at the start of the record block, resolving string fields through strs.
// It consumes exactly h.RecordBlockSize bytes on success. Record bytes past
// the schema's width are treated as padding and skipped.
func DecodeRecords(r io.Reader, h Header, s *Schema, strs StringTable) (*Table, error) {
	if err := checkSchema(h, s); err != nil {
		return nil, err
	}

	table := newTable(s, int(min(h.RecordCount, maxPrealloc)))
	buf := make([]byte, s.width)
	padding := int64(h.RecordSize) - int64(s.width)

	for i := 0; i < int(h.RecordCount); i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			e := truncated(i, "record", err)
			e.Schema = s.name
			return nil, e
		}
		if padding > 0 {
			if _, err := io.CopyN(io.Discard, r, padding); err != nil {
				e := truncated(i, "record padding", err)
				e.Schema = s.name
				return nil, e
			}
		}

		rec, err := decodeRecord(buf, s, strs)
		if err != nil {
			if de, ok := err.(*DecodeError); ok {
				de.Record = i
			}
			return nil, err
		}
		table.put(rec)
	}

	return table, nil
}

func checkSchema(h Header, s *Schema) error {
	if s == nil {
		return schemaError(ErrInvalidSchema, "", "", "nil schema")
	}
	if uint32(s.cols) != h.FieldCount {
		return schemaError(ErrInvalidSchema, s.name, "",
			fmt.Sprintf("schema declares %d fields, header declares %d", s.cols, h.FieldCount))
	}
	if int64(s.width) > int64(h.RecordSize) {
		return schemaError(ErrInvalidSchema, s.name, "",
			fmt.Sprintf("schema record width %d exceeds header record size %d", s.width, h.RecordSize))
	}
	return nil
}

// cursor reads little-endian values from one record's bytes. The buffer is
// always exactly the schema width, so reads never run past its end.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) readByte() byte {
	b := c.buf[c.pos]
	c.pos++
	return b
}

func (c *cursor) readUint32() uint32 {
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v
}

func (c *cursor) readInt32() int32 { return int32(c.readUint32()) }

func (c *cursor) readFloat32() float32 { return math.Float32frombits(c.readUint32()) }

func decodeRecord(buf []byte, s *Schema, strs StringTable) (*Record, error) {
	c := &cursor{buf: buf}
	b := s.newBuilder()
	for _, f := range s.fields {
		v, err := decodeField(c, f, strs)
		if err != nil {
			if de, ok := err.(*DecodeError); ok {
				de.Schema = s.name
				de.Field = f.Name
			}
			return nil, err
		}
		b.add(v)
	}
	return b.build()
}

func decodeField(c *cursor, f Field, strs StringTable) (Value, error) {
	switch f.Kind {
	case KindByte:
		return Byte(c.readByte()), nil
	case KindInt32:
		return Int32(c.readInt32()), nil
	case KindUInt32:
		return UInt32(c.readUint32()), nil
	case KindFloat32:
		return Float32(c.readFloat32()), nil
	case KindString:
		off := c.readUint32()
		s, ok := strs.Lookup(off)
		if !ok {
			return nil, &DecodeError{Kind: ErrUnresolvedStringOffset, Offset: off}
		}
		return String(s), nil
	case KindLocalizedString:
		return decodeLocalized(c, strs), nil
	case KindInt32Array:
		arr := make(Int32Array, f.Count)
		for i := range arr {
			arr[i] = c.readInt32()
		}
		return arr, nil
	case KindUInt32Array:
		arr := make(UInt32Array, f.Count)
		for i := range arr {
			arr[i] = c.readUint32()
		}
		return arr, nil
	case KindFloat32Array:
		arr := make(Float32Array, f.Count)
		for i := range arr {
			arr[i] = c.readFloat32()
		}
		return arr, nil
	default:
		return nil, &DecodeError{Kind: ErrUnsupportedFieldKind, Detail: f.Kind.String()}
	}
}

// decodeLocalized reads LocaleSlots offsets and the flags word. The text is
// taken from the lowest slot whose offset is non-zero and resolves to a
// non-empty string. Unresolvable slots are not an error.
func decodeLocalized(c *cursor, strs StringTable) LocalizedString {
	ls := LocalizedString{Slot: -1}
	for i := range ls.Offsets {
		ls.Offsets[i] = c.readUint32()
	}
	ls.Flags = c.readUint32()

	for i, off := range ls.Offsets {
		if off == 0 {
			continue
		}
		if s, ok := strs.Lookup(off); ok && s != "" {
			ls.Text = s
			ls.Slot = i
			break
		}
	}
	return ls
}
