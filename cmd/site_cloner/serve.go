package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/site-cloner/internal/clone"
	"github.com/jonathan/site-cloner/internal/config"
	"github.com/jonathan/site-cloner/internal/server"
)

var (
	servePort       int
	serveOutDir     string
	serveConfigPath string
	serveDatabase   string
	serveAPIKey     string
	serveAllowClone bool
	serveVerbose    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve cloned sites and the run API",
	Long: `Start an HTTP server that serves every cloned site under /{slug}, the run registry,
and the REST endpoints for stored runs. With --allow-clone, POST /api/clone starts new runs.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", server.DefaultPort, "Port to listen on")
	serveCmd.Flags().StringVarP(&serveOutDir, "out", "o", "", "Root directory holding cloned sites (default sites)")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file")
	serveCmd.Flags().StringVar(&serveDatabase, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "API key required for mutating endpoints (defaults to SITE_CLONER_API_KEY env var)")
	serveCmd.Flags().BoolVar(&serveAllowClone, "allow-clone", false, "Enable POST /api/clone")
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "Log every request")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(serveConfigPath, serveVerbose, func(cfg *config.Config) {
		if changed(cmd, "out") {
			cfg.OutDir = serveOutDir
		}
		if changed(cmd, "db-url") {
			cfg.DatabaseURL = serveDatabase
		}
		if changed(cmd, "verbose") {
			cfg.Verbose = serveVerbose
		}
	})
	if err != nil {
		return err
	}

	apiKey := serveAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("SITE_CLONER_API_KEY")
	}

	srvCfg := server.Config{
		Port:        servePort,
		OutDir:      cfg.OutDir,
		DatabaseURL: cfg.DatabaseURL,
		APIKey:      apiKey,
		Verbose:     cfg.Verbose,
	}

	if serveAllowClone {
		if apiKey == "" {
			fmt.Printf("Warning: clone endpoint enabled without an API key\n")
		}
		store := openStore(context.Background(), cfg.DatabaseURL, cfg.Verbose)
		if store != nil {
			defer store.Close()
		}
		srvCfg.Clone = func(ctx context.Context, rawURL string, onProgress clone.ProgressCallback) (*clone.Result, error) {
			opts := cloneOptions(cfg, rawURL, false, false)
			opts.OnProgress = onProgress
			if store != nil {
				opts.Store = store
			}
			return runClone(ctx, cfg, opts)
		}
	}

	srv, err := server.New(srvCfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
