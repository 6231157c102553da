// Package main provides the entry point for the site_cloner CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "site_cloner",
	Short: "Clone a live web page into an offline copy and compare it with its reproduction",
	Long: `site_cloner captures a rendered page with a headless browser: its markup, rewritten
stylesheets, same-origin assets, screenshots and a structural fingerprint. With --also-local it
fingerprints the locally served reproduction and writes a structured diff report.`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
