/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the dbc command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dbc",
		Short: "dbcdb - DBC client database tools",
		Long: `dbcdb decodes WDBC client database files into keyed tables.

Table layouts are described by YAML schema files. The tools inspect and
dump single files, and serve a directory of tables over a read-only REST API.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newInspectCmd(),
		newDumpCmd(),
		newGetCmd(),
		newInitCmd(),
		newServeCmd(),
	)
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
