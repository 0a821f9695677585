package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/dbcdb/pkg/dbc"
)

func newDumpCmd() *cobra.Command {
	dumpCmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print every record of a DBC file",
		Long: `Decode a DBC file with a schema and print its records in key order.

Examples:
  dbc dump AreaTable.dbc --schema schemas/AreaTable.yaml
  dbc dump AreaTable.dbc --schema schemas/AreaTable.yaml --format json --limit 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			limit, _ := cmd.Flags().GetInt("limit")
			if err := checkFormat(format); err != nil {
				return err
			}
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}

			snap, err := loadTable(cmd, args[0])
			if err != nil {
				return err
			}

			keys := snap.Table.Keys()
			if limit > 0 && limit < len(keys) {
				keys = keys[:limit]
			}
			records := make([]*dbc.Record, 0, len(keys))
			for _, k := range keys {
				rec, _ := snap.Table.Get(k)
				records = append(records, rec)
			}

			out := cmd.OutOrStdout()
			if format == formatJSON {
				return outputJSON(out, records)
			}
			return outputRecordsTable(out, snap.Table.Schema(), records)
		},
	}

	dumpCmd.Flags().StringP("schema", "s", "", "Schema file describing the table (required)")
	dumpCmd.Flags().StringP("format", "f", formatTable, "Output format (table, json)")
	dumpCmd.Flags().IntP("limit", "n", 0, "Print at most n records (0 prints all)")
	return dumpCmd
}
