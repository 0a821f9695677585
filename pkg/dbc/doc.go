// Package dbc decodes DBC files, the fixed-schema binary tables game clients
// use for reference data, into typed in-memory records.
//
// Nothing about a particular table is hard-coded: the caller describes the
// columns with a Schema and the decoder dispatches on each field's kind.
//
// # File Format
//
// A DBC file has three sections laid out back to back:
//
//	[Header(20)][Records: RecordCount * RecordSize][StringBlock: StringBlockSize]
//
// Header fields (all little-endian):
//   - Signature: the four bytes "WDBC"
//   - RecordCount: number of records in the record block
//   - FieldCount: number of 4-byte columns per record
//   - RecordSize: byte size of one record
//   - StringBlockSize: byte size of the trailing string block
//
// The string block is a run of NUL-terminated UTF-8 strings. String and
// localized string fields hold byte offsets into it rather than inline text.
//
// # Decode Phases
//
// The string block physically follows the records but is decoded first,
// since every string field needs it:
//
//	header -> string block -> records -> done
//
// Decode performs all three phases over an io.ReadSeeker. DecodeStringBlock
// and DecodeRecords are exposed for callers that already parsed the header
// or hold the sections separately.
//
// # Usage
//
//	schema, err := dbc.NewSchema("Map",
//	    dbc.Field{Name: "id", Kind: dbc.KindUInt32},
//	    dbc.Field{Name: "directory", Kind: dbc.KindString},
//	    dbc.Field{Name: "name", Kind: dbc.KindLocalizedString},
//	)
//	if err != nil {
//	    return err
//	}
//
//	f, err := os.Open("Map.dbc")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	file, err := dbc.Decode(f, schema)
//	if err != nil {
//	    return err
//	}
//
//	if rec, ok := file.Table.Get(571); ok {
//	    fmt.Println(rec.Text("name"))
//	}
//
// # Error Handling
//
// Every failure aborts the decode of the whole file and no partial table is
// returned. Errors are *DecodeError values that match one of the sentinel
// kinds (ErrInvalidSchema, ErrTruncatedStream, ...) with errors.Is.
//
// # Keys
//
// The first schema field is the record key and must be a Byte, Int32 or
// UInt32 column. When two records share a key the later one replaces the
// earlier one; Table.Duplicates reports how often that happened.
//
// # Thread Safety
//
// Schemas, records and tables are immutable once built and safe to share
// between goroutines. A single decode is sequential; separate files may be
// decoded in parallel.
package dbc
