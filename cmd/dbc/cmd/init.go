/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/dbcdb/pkg/config"
)

func newInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a default dbcdb configuration with a generated API key.

This command will:
- Create the data and schema directories
- Generate an API key for the REST API
- Write the configuration file with owner-only permissions

Examples:
  dbc init
  dbc init --config ./dbcdb.yaml --data-dir ./dbc --schema-dir ./schemas`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			dataDir, _ := cmd.Flags().GetString("data-dir")
			schemaDir, _ := cmd.Flags().GetString("schema-dir")
			force, _ := cmd.Flags().GetBool("force")

			if config.ConfigExists(configPath) && !force {
				cmd.Printf("Configuration already exists at %s. Use --force to overwrite.\n", configPath)
				return nil
			}

			cfg, err := config.BootstrapConfig(configPath, dataDir, schemaDir)
			if err != nil {
				return err
			}
			for _, dir := range []string{cfg.DataDir, cfg.SchemaDir} {
				if err := os.MkdirAll(dir, 0750); err != nil {
					return fmt.Errorf("failed to create directory %s: %w", dir, err)
				}
			}

			cmd.Printf("Configuration written to %s\n", configPath)
			cmd.Printf("Data directory: %s\n", cfg.DataDir)
			cmd.Printf("Schema directory: %s\n", cfg.SchemaDir)
			cmd.Printf("API key: %s\n", cfg.Security.APIKey)
			cmd.Printf("\nYou can now start the server with:\n")
			cmd.Printf("  dbc serve --config %s\n", configPath)
			return nil
		},
	}

	initCmd.Flags().StringP("config", "c", config.GetDefaultConfigPath(), "Configuration file to write")
	initCmd.Flags().String("data-dir", "", "Directory holding the .dbc files (default ./data)")
	initCmd.Flags().String("schema-dir", "", "Directory holding the schema files (default ./schemas)")
	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration")
	return initCmd
}
