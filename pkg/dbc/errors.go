package dbc

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every *DecodeError matches exactly one of them with errors.Is.
var (
	ErrInvalidSchema          = errors.New("invalid schema")
	ErrMalformedStringBlock   = errors.New("malformed string block")
	ErrUnresolvedStringOffset = errors.New("unresolved string offset")
	ErrUnsupportedFieldKind   = errors.New("unsupported field kind")
	ErrInvalidKeyField        = errors.New("invalid key field")
	ErrTruncatedStream        = errors.New("truncated stream")
	ErrInvalidSignature       = errors.New("invalid signature")
)

// DecodeError describes a failure while building a schema or decoding a file.
type DecodeError struct {
	Kind   error  // One of the Err* sentinels
	Schema string // Schema name, if known
	Record int    // Record index, -1 when not decoding a record
	Field  string // Field name, if the error is field level
	Offset uint32 // String offset for ErrUnresolvedStringOffset
	Detail string
	Err    error // Underlying error, typically from the reader
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Schema != "" {
		fmt.Fprintf(&b, ": schema %s", e.Schema)
	}
	if e.Record >= 0 {
		fmt.Fprintf(&b, ": record %d", e.Record)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %s", e.Field)
	}
	if errors.Is(e.Kind, ErrUnresolvedStringOffset) {
		fmt.Fprintf(&b, ": offset %d", e.Offset)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports whether target is the error's kind.
func (e *DecodeError) Is(target error) bool {
	return e.Kind == target
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func schemaError(kind error, schema, field, detail string) *DecodeError {
	return &DecodeError{Kind: kind, Schema: schema, Record: -1, Field: field, Detail: detail}
}
