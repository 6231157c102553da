package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/site-cloner/internal/config"
	"github.com/jonathan/site-cloner/internal/db"
)

// loadConfig reads the optional config file, validates it, and returns it
// with env values and defaults filled in. apply copies explicitly set flags
// over the file values before defaults are merged.
func loadConfig(path string, verbose bool, apply func(cfg *config.Config)) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return config.Config{}, err
		}
		cfg = *loaded
		if verbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", path)
		}
	}

	if apply != nil {
		apply(&cfg)
	}
	cfg.ApplyEnv()
	cfg = cfg.MergeWithDefaults(config.Defaults())

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// changed reports whether the named flag was set on the command line.
func changed(cmd *cobra.Command, name string) bool {
	return cmd.Flags().Changed(name)
}

// openStore connects to the run database. A failure is reported and the
// command continues without persistence.
func openStore(ctx context.Context, databaseURL string, verbose bool) *db.DB {
	if databaseURL == "" {
		return nil
	}
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		fmt.Printf("Warning: %v\n", err)
		fmt.Printf("Continuing without database persistence...\n")
		return nil
	}
	if err := database.EnsureSchema(ctx); err != nil {
		fmt.Printf("Warning: %v\n", err)
		fmt.Printf("Continuing without database persistence...\n")
		database.Close()
		return nil
	}
	if verbose {
		fmt.Printf("[VERBOSE] Connected to run database\n")
	}
	return database
}
