package dbc

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// HeaderSize is the size of the file header in bytes:
	// Signature(4) + RecordCount(4) + FieldCount(4) + RecordSize(4) + StringBlockSize(4)
	HeaderSize = 20
)

// Signature is the magic number every DBC file starts with.
var Signature = [4]byte{'W', 'D', 'B', 'C'}

// Header holds the counts and sizes from a DBC file header.
type Header struct {
	RecordCount     uint32 `json:"record_count"`
	FieldCount      uint32 `json:"field_count"`
	RecordSize      uint32 `json:"record_size"`
	StringBlockSize uint32 `json:"string_block_size"`
}

// RecordBlockSize returns the byte size of the record block.
func (h Header) RecordBlockSize() int64 {
	return int64(h.RecordCount) * int64(h.RecordSize)
}

// FileSize returns the total size of a file with this header.
func (h Header) FileSize() int64 {
	return HeaderSize + h.RecordBlockSize() + int64(h.StringBlockSize)
}

// Encode writes the header, signature included, into dst.
func (h Header) Encode(dst []byte) {
	copy(dst[0:4], Signature[:])
	binary.LittleEndian.PutUint32(dst[4:], h.RecordCount)
	binary.LittleEndian.PutUint32(dst[8:], h.FieldCount)
	binary.LittleEndian.PutUint32(dst[12:], h.RecordSize)
	binary.LittleEndian.PutUint32(dst[16:], h.StringBlockSize)
}

// ReadHeader reads and validates the 20-byte header, leaving r positioned at
// the start of the record block.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, truncated(-1, "header", err)
	}
	if [4]byte(buf[0:4]) != Signature {
		return Header{}, &DecodeError{
			Kind:   ErrInvalidSignature,
			Record: -1,
			Detail: fmt.Sprintf("got %q, want %q", buf[0:4], Signature[:]),
		}
	}
	return Header{
		RecordCount:     binary.LittleEndian.Uint32(buf[4:]),
		FieldCount:      binary.LittleEndian.Uint32(buf[8:]),
		RecordSize:      binary.LittleEndian.Uint32(buf[12:]),
		StringBlockSize: binary.LittleEndian.Uint32(buf[16:]),
	}, nil
}

func truncated(record int, what string, err error) *DecodeError {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return &DecodeError{Kind: ErrTruncatedStream, Record: record, Detail: "reading " + what, Err: err}
}
