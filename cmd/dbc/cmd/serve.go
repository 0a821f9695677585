/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/dbcdb/pkg/api"
	"github.com/ssargent/dbcdb/pkg/config"
	"github.com/ssargent/dbcdb/pkg/schema"
	"github.com/ssargent/dbcdb/pkg/store"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Load every table described in the schema directory and serve them over
a read-only REST API. Tables can be reloaded with POST /api/v1/reload.

Examples:
  dbc serve
  dbc serve --config ./dbcdb.yaml --port 9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			port, _ := cmd.Flags().GetInt("port")

			cfg, err := loadServeConfig(configPath, port)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}

	serveCmd.Flags().StringP("config", "c", config.GetDefaultConfigPath(), "Configuration file (run 'dbc init' to create one)")
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides the configuration)")
	return serveCmd
}

func loadServeConfig(configPath string, port int) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w (run 'dbc init' first)", err)
	}
	if port != 0 {
		cfg.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openStore builds a table store for cfg and performs the initial load
func openStore(ctx context.Context, cfg *config.Config, observer store.DecodeObserver) (*store.TableStore, *store.LoadResult, error) {
	defs, err := schema.LoadDir(cfg.SchemaDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load schemas: %w", err)
	}
	if len(defs) == 0 {
		log.Printf("Warning: no schema files found in %s", cfg.SchemaDir)
	}

	tables, err := store.NewTableStore(store.TableStoreConfig{
		DataDir:     cfg.DataDir,
		Definitions: defs,
		Workers:     cfg.Decode.Workers,
		Logger:      log.Default(),
		Debug:       cfg.Debug(),
		Observer:    observer,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create store: %w", err)
	}

	result, err := tables.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return tables, result, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	registry := api.NewRegistry()
	metrics := api.NewMetrics(registry)

	tables, result, err := openStore(ctx, cfg, metrics)
	if err != nil {
		return err
	}
	for _, name := range result.Missing {
		log.Printf("Table %s has a schema but no file in %s", name, cfg.DataDir)
	}

	if cfg.Security.APIKey == "" {
		log.Printf("Warning: no API key configured, /api/v1 is unauthenticated")
	}

	return api.StartServer(ctx, tables, api.ServerConfig{
		Bind:   cfg.Bind,
		Port:   cfg.Port,
		APIKey: cfg.Security.APIKey,
	}, metrics, registry)
}
