package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/dbcdb/pkg/schema"
	"github.com/ssargent/dbcdb/pkg/store"
)

// loadTable decodes file with the definition named by the --schema flag
func loadTable(cmd *cobra.Command, file string) (*store.Snapshot, error) {
	schemaPath, _ := cmd.Flags().GetString("schema")
	if schemaPath == "" {
		return nil, fmt.Errorf("--schema is required")
	}

	def, err := schema.LoadFile(schemaPath)
	if err != nil {
		return nil, err
	}

	snap, err := store.LoadFile(file, def)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", file, err)
	}
	return snap, nil
}
