package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newGetCmd() *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get <file> <id>",
		Short: "Print the record stored under an ID",
		Long: `Decode a DBC file and print the record whose key is id.

Example:
  dbc get AreaTable.dbc 12 --schema schemas/AreaTable.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if err := checkFormat(format); err != nil {
				return err
			}
			id, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid id %q: must be an unsigned 32-bit integer", args[1])
			}

			snap, err := loadTable(cmd, args[0])
			if err != nil {
				return err
			}

			rec, ok := snap.Table.Get(uint32(id))
			if !ok {
				return fmt.Errorf("record %d not found in %s", id, snap.Name)
			}

			out := cmd.OutOrStdout()
			if format == formatJSON {
				return outputJSON(out, rec)
			}
			return outputRecord(out, rec)
		},
	}

	getCmd.Flags().StringP("schema", "s", "", "Schema file describing the table (required)")
	getCmd.Flags().StringP("format", "f", formatTable, "Output format (table, json)")
	return getCmd
}
