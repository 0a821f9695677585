package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ssargent/dbcdb/pkg/dbc"
	"github.com/ssargent/dbcdb/pkg/schema"
)

// LoadFile decodes a single table file with the given definition.
func LoadFile(path string, def *schema.Definition) (*Snapshot, error) {
	s, err := def.Schema()
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	start := time.Now()
	decoded, err := dbc.Decode(newBufferedFile(file), s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Snapshot{
		Name:     def.Name,
		Path:     path,
		Header:   decoded.Header,
		Table:    decoded.Table,
		LoadedAt: time.Now(),
		Duration: time.Since(start),
	}, nil
}

// ReadHeader reads just the header of a table file.
func ReadHeader(path string) (dbc.Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return dbc.Header{}, err
	}
	defer file.Close()

	return dbc.ReadHeader(file)
}

// bufferedFile adds read buffering to a file while keeping it seekable.
// Seeking discards the buffer.
type bufferedFile struct {
	file   *os.File
	reader *bufio.Reader
	offset int64
}

func newBufferedFile(f *os.File) *bufferedFile {
	return &bufferedFile{file: f, reader: bufio.NewReaderSize(f, 64*1024)}
}

func (b *bufferedFile) Read(p []byte) (int, error) {
	n, err := b.reader.Read(p)
	b.offset += int64(n)
	return n, err
}

func (b *bufferedFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekCurrent:
		offset += b.offset
	case io.SeekStart:
	default:
		pos, err := b.file.Seek(offset, whence)
		if err != nil {
			return 0, err
		}
		b.reader.Reset(b.file)
		b.offset = pos
		return pos, nil
	}
	if offset == b.offset {
		return offset, nil
	}
	if _, err := b.file.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}
	b.reader.Reset(b.file) // Recreate reader to clear buffer
	b.offset = offset
	return offset, nil
}
