package dbc

import (
	"bytes"
	"unicode/utf8"
)

// StringTable maps byte offsets within a string block to the string that
// starts there.
type StringTable map[uint32]string

// Lookup returns the string starting at offset.
func (st StringTable) Lookup(offset uint32) (string, bool) {
	s, ok := st[offset]
	return s, ok
}

// DecodeStringBlock splits a string block on NUL bytes and keys every piece,
// empty ones included, by its starting offset. Only the first size bytes of
// b are used. A block that starts with NUL, as well-formed files do, maps
// offset 0 to the empty string; an empty block does too.
func DecodeStringBlock(b []byte, size uint32) (StringTable, error) {
	if uint64(size) < uint64(len(b)) {
		b = b[:size]
	}
	if !utf8.Valid(b) {
		return nil, &DecodeError{Kind: ErrMalformedStringBlock, Record: -1, Detail: "block is not valid UTF-8"}
	}

	st := make(StringTable, bytes.Count(b, []byte{0})+1)
	var offset uint32
	for {
		end := bytes.IndexByte(b, 0)
		if end < 0 {
			st[offset] = string(b)
			return st, nil
		}
		st[offset] = string(b[:end])
		offset += uint32(end) + 1
		b = b[end+1:]
	}
}
