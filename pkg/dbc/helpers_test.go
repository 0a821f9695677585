package dbc

import (
	"bytes"
	"encoding/binary"
	"math"
)

// stringBlock builds a string block the way DBC writers do: a leading NUL
// so offset 0 is the empty string, then each string NUL-terminated.
type stringBlock struct {
	buf bytes.Buffer
}

func newStringBlock() *stringBlock {
	sb := &stringBlock{}
	sb.buf.WriteByte(0)
	return sb
}

func (sb *stringBlock) add(s string) uint32 {
	off := uint32(sb.buf.Len())
	sb.buf.WriteString(s)
	sb.buf.WriteByte(0)
	return off
}

func (sb *stringBlock) bytes() []byte { return sb.buf.Bytes() }

// recordWriter appends little-endian values to a record block.
type recordWriter struct {
	buf bytes.Buffer
}

func (w *recordWriter) u8(v uint8) *recordWriter {
	w.buf.WriteByte(v)
	return w
}

func (w *recordWriter) u32(vs ...uint32) *recordWriter {
	for _, v := range vs {
		_ = binary.Write(&w.buf, binary.LittleEndian, v)
	}
	return w
}

func (w *recordWriter) i32(vs ...int32) *recordWriter {
	for _, v := range vs {
		_ = binary.Write(&w.buf, binary.LittleEndian, v)
	}
	return w
}

func (w *recordWriter) f32(vs ...float32) *recordWriter {
	for _, v := range vs {
		w.u32(math.Float32bits(v))
	}
	return w
}

func (w *recordWriter) pad(n int) *recordWriter {
	w.buf.Write(make([]byte, n))
	return w
}

func (w *recordWriter) bytes() []byte { return w.buf.Bytes() }

// buildFile lays out header, records and strings as a DBC file.
func buildFile(h Header, records, strs []byte) []byte {
	out := make([]byte, HeaderSize, HeaderSize+len(records)+len(strs))
	h.Encode(out)
	out = append(out, records...)
	return append(out, strs...)
}

func mustSchema(name string, fields ...Field) *Schema {
	s, err := NewSchema(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}
