package main

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/site-cloner/internal/clone"
	"github.com/jonathan/site-cloner/internal/config"
	"github.com/jonathan/site-cloner/internal/fetch"
	"github.com/jonathan/site-cloner/internal/observability"
	"github.com/jonathan/site-cloner/internal/server"
	"github.com/jonathan/site-cloner/internal/urls"
)

var cloneCmd = &cobra.Command{
	Use:   "clone <url>",
	Short: "Capture a page into <out>/<slug>/ and optionally compare it with the local reproduction",
	Long: `Navigates to the URL in a headless browser and writes its markup, stylesheets, same-origin
assets, screenshot and structural fingerprint under <out>/<slug>/.

With --also-local, the reproduction served at <local-base>/<slug> is fingerprinted as well and
compare/compare.json lists the structural differences. --serve starts the preview server for
the duration of the run so the reproduction has somewhere to be served from.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	Args: cobra.ExactArgs(1),
	RunE: runCloneCmd,
}

var (
	cloneConfigPath     string
	cloneOutDir         string
	cloneLocalBase      string
	cloneAlsoLocal      bool
	cloneBlockAnalytics bool
	cloneServe          bool
	cloneTimeout        time.Duration
	cloneConcurrency    int
	cloneVerbose        bool
	cloneDatabaseURL    string
)

func init() {
	cloneCmd.Flags().StringVar(&cloneConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	cloneCmd.Flags().StringVarP(&cloneOutDir, "out", "o", "", "Output root directory (default \"sites\", or SITE_CLONER_OUT)")
	cloneCmd.Flags().StringVar(&cloneLocalBase, "local-base", "", "Base URL of the local reproduction (default "+config.DefaultLocalBaseURL+")")
	cloneCmd.Flags().BoolVar(&cloneAlsoLocal, "also-local", false, "Fingerprint the local reproduction and write compare/compare.json")
	cloneCmd.Flags().BoolVar(&cloneBlockAnalytics, "block-analytics", false, "Block analytics and tracking domains while capturing")
	cloneCmd.Flags().BoolVar(&cloneServe, "serve", false, "Run the preview server on the local base port during the clone")
	cloneCmd.Flags().DurationVar(&cloneTimeout, "timeout", 0, "Navigation timeout (default 60s)")
	cloneCmd.Flags().IntVar(&cloneConcurrency, "concurrency", 0, "Parallel asset downloads (default 4)")
	cloneCmd.Flags().BoolVarP(&cloneVerbose, "verbose", "v", false, "Print detailed debug information")
	cloneCmd.Flags().StringVar(&cloneDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(cloneCmd)
}

func runCloneCmd(cmd *cobra.Command, args []string) error {
	sourceURL := args[0]
	if !urls.HasWebScheme(sourceURL) {
		return fmt.Errorf("%w: %s", clone.ErrUnsupportedScheme, sourceURL)
	}

	cfg, err := resolveCloneConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cloneServe {
		port, err := localPort(cfg.LocalBaseURL)
		if err != nil {
			return err
		}
		srv, err := server.New(server.Config{Port: port, OutDir: cfg.OutDir, Verbose: cfg.Verbose})
		if err != nil {
			return fmt.Errorf("failed to create preview server: %w", err)
		}
		addr, err := srv.StartBackground()
		if err != nil {
			return err
		}
		defer srv.Shutdown(context.Background()) //nolint:errcheck
		fmt.Printf("Preview server listening on %s\n", addr)
	}

	store := openStore(ctx, cfg.DatabaseURL, cfg.Verbose)
	if store != nil {
		defer store.Close()
	}

	opts := cloneOptions(cfg, sourceURL, cloneAlsoLocal, cloneBlockAnalytics)
	if store != nil {
		opts.Store = store
	}

	res, err := runClone(ctx, cfg, opts)
	if err != nil {
		return err
	}

	if cfg.Verbose {
		observability.NewPrinter(os.Stdout).PrintRunSummary(&res.Summary)
	}
	return nil
}

// resolveCloneConfig merges the config file, explicit flags, env and defaults.
func resolveCloneConfig(cmd *cobra.Command) (config.Config, error) {
	return loadConfig(cloneConfigPath, cloneVerbose, func(cfg *config.Config) {
		if changed(cmd, "out") {
			cfg.OutDir = cloneOutDir
		}
		if changed(cmd, "local-base") {
			cfg.LocalBaseURL = cloneLocalBase
		}
		if changed(cmd, "timeout") {
			cfg.NavigationTimeoutSeconds = int(cloneTimeout.Round(time.Second) / time.Second)
		}
		if changed(cmd, "concurrency") {
			cfg.Concurrency = cloneConcurrency
		}
		if changed(cmd, "verbose") {
			cfg.Verbose = cloneVerbose
		}
		if changed(cmd, "db-url") {
			cfg.DatabaseURL = cloneDatabaseURL
		}
	})
}

// cloneOptions builds the run options for one source URL.
func cloneOptions(cfg config.Config, sourceURL string, alsoLocal, blockAnalytics bool) clone.Options {
	return clone.Options{
		URL:            sourceURL,
		OutDir:         cfg.OutDir,
		LocalBaseURL:   cfg.LocalBaseURL,
		AlsoLocal:      alsoLocal,
		BlockAnalytics: blockAnalytics,
		Concurrency:    cfg.Concurrency,
		Policy:         cfg.Policy(),
		Verbose:        cfg.Verbose,
	}
}

// runClone starts a browser session configured from cfg and runs one clone.
func runClone(ctx context.Context, cfg config.Config, opts clone.Options) (*clone.Result, error) {
	browserOpts := cfg.BrowserOptions()
	if !opts.BlockAnalytics {
		browserOpts.BlockedDomains = nil
	}

	browser, err := fetch.NewBrowser(ctx, browserOpts)
	if err != nil {
		return nil, err
	}
	defer browser.Close()

	return clone.Run(ctx, browser, opts)
}

// localPort returns the port the local base URL is served on.
func localPort(localBaseURL string) (int, error) {
	u, err := url.Parse(localBaseURL)
	if err != nil || u.Host == "" {
		return 0, fmt.Errorf("invalid local base URL: %s", localBaseURL)
	}
	p := u.Port()
	if p == "" {
		if u.Scheme == "https" {
			return 0, fmt.Errorf("--serve needs an http local base URL, got %s", localBaseURL)
		}
		return 80, nil
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return 0, fmt.Errorf("invalid local base port %q: %w", p, err)
	}
	if host := u.Hostname(); host != "localhost" && net.ParseIP(host) == nil {
		fmt.Printf("Warning: --serve listens locally but the local base host is %s\n", host)
	}
	return port, nil
}
