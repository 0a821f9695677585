package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssargent/dbcdb/pkg/schema"
	"github.com/ssargent/dbcdb/pkg/store"
)

func newInspectCmd() *cobra.Command {
	inspectCmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show a DBC file header",
		Long: `Show the header of a DBC file and check its size against the header.

With --schema the header is also checked against the schema's column count
and record width.

Examples:
  dbc inspect AreaTable.dbc
  dbc inspect AreaTable.dbc --schema schemas/AreaTable.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			header, err := store.ReadHeader(path)
			if err != nil {
				return fmt.Errorf("failed to read header: %w", err)
			}
			info, err := os.Stat(path)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "File:\t%s\n", path)
			fmt.Fprintf(w, "Records:\t%d\n", header.RecordCount)
			fmt.Fprintf(w, "Fields:\t%d\n", header.FieldCount)
			fmt.Fprintf(w, "Record size:\t%d\n", header.RecordSize)
			fmt.Fprintf(w, "String block:\t%d\n", header.StringBlockSize)
			fmt.Fprintf(w, "File size:\t%d (header says %d)\n", info.Size(), header.FileSize())

			schemaPath, _ := cmd.Flags().GetString("schema")
			if schemaPath != "" {
				def, err := schema.LoadFile(schemaPath)
				if err != nil {
					return err
				}
				s, err := def.Schema()
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Schema:\t%s\n", s.Name())
				fmt.Fprintf(w, "Schema fields:\t%d\t%s\n", s.FieldCount(), matchLabel(uint32(s.FieldCount()) == header.FieldCount))
				fmt.Fprintf(w, "Schema width:\t%d\t%s\n", s.RecordWidth(), matchLabel(uint32(s.RecordWidth()) <= header.RecordSize))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if info.Size() < header.FileSize() {
				return fmt.Errorf("file is %d bytes shorter than its header declares", header.FileSize()-info.Size())
			}
			return nil
		},
	}

	inspectCmd.Flags().StringP("schema", "s", "", "Schema file to check the header against")
	return inspectCmd
}

func matchLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "MISMATCH"
}
