package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ssargent/dbcdb/pkg/dbc"
)

const (
	formatTable = "table"
	formatJSON  = "json"

	maxCellWidth = 50
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want table or json)", format)
	}
}

// outputJSON writes v as indented JSON
func outputJSON(out io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// outputRecord displays a single record as name/value pairs
func outputRecord(out io.Writer, rec *dbc.Record) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	s := rec.Schema()
	for i := 0; i < rec.Len(); i++ {
		fmt.Fprintf(w, "%s:\t%s\n", s.Field(i).Name, formatValue(rec.Value(i)))
	}
	return w.Flush()
}

// outputRecordsTable displays records one per row
func outputRecordsTable(out io.Writer, s *dbc.Schema, records []*dbc.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "No records found")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	names := make([]string, s.Len())
	for i, f := range s.Fields() {
		names[i] = strings.ToUpper(f.Name)
	}
	fmt.Fprintln(w, strings.Join(names, "\t"))

	cells := make([]string, s.Len())
	for _, rec := range records {
		for i := range cells {
			cells[i] = truncate(formatValue(rec.Value(i)))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return w.Flush()
}

func formatValue(v dbc.Value) string {
	switch v := v.(type) {
	case dbc.Byte:
		return strconv.FormatUint(uint64(v), 10)
	case dbc.Int32:
		return strconv.FormatInt(int64(v), 10)
	case dbc.UInt32:
		return strconv.FormatUint(uint64(v), 10)
	case dbc.Float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case dbc.String:
		return string(v)
	case dbc.LocalizedString:
		return v.Text
	default:
		return fmt.Sprint(v)
	}
}

func truncate(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > maxCellWidth {
		return string(r[:maxCellWidth-3]) + "..."
	}
	return s
}
