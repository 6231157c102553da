package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/site-cloner/internal/clone"
	"github.com/jonathan/site-cloner/internal/fetch"
	"github.com/jonathan/site-cloner/internal/fingerprint"
	"github.com/jonathan/site-cloner/internal/observability"
	"github.com/jonathan/site-cloner/internal/urls"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Compute a structural fingerprint without a browser",
	Long: `Parses an HTML document and computes its structural fingerprint without a browser.
The markup comes from --html, or is fetched from --url when --html is omitted.
Bounding boxes need layout and are reported as zero.`,
	RunE: runFingerprintCmd,
}

var (
	fingerprintHTML    string
	fingerprintURL     string
	fingerprintOutput  string
	fingerprintVerbose bool
)

func init() {
	fingerprintCmd.Flags().StringVar(&fingerprintHTML, "html", "", "Path to a saved HTML file (default: fetch --url)")
	fingerprintCmd.Flags().StringVar(&fingerprintURL, "url", "", "URL the HTML was served from (required)")
	fingerprintCmd.Flags().StringVarP(&fingerprintOutput, "out", "o", "", "Path to write the fingerprint JSON (default stdout)")
	fingerprintCmd.Flags().BoolVarP(&fingerprintVerbose, "verbose", "v", false, "Print a fingerprint summary")

	if err := fingerprintCmd.MarkFlagRequired("url"); err != nil {
		panic(fmt.Sprintf("failed to mark url flag as required: %v", err))
	}

	rootCmd.AddCommand(fingerprintCmd)
}

func runFingerprintCmd(cmd *cobra.Command, _ []string) error {
	if !urls.HasWebScheme(fingerprintURL) {
		return fmt.Errorf("%w: %s", clone.ErrUnsupportedScheme, fingerprintURL)
	}

	html, err := loadHTML(cmd.Context(), fingerprintHTML, fingerprintURL)
	if err != nil {
		return err
	}

	fp, err := fingerprint.FromHTML(html, fingerprintURL)
	if err != nil {
		return err
	}

	if fingerprintVerbose {
		observability.NewPrinter(os.Stderr).PrintFingerprint("Static", fp)
	}

	if fingerprintOutput == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(fp)
	}
	if err := clone.WriteJSON(fingerprintOutput, fp); err != nil {
		return err
	}
	fmt.Printf("Wrote fingerprint to %s\n", fingerprintOutput)
	return nil
}

// loadHTML reads htmlPath, or fetches pageURL when no path is given.
func loadHTML(ctx context.Context, htmlPath, pageURL string) (string, error) {
	if htmlPath != "" {
		data, err := os.ReadFile(htmlPath)
		if err != nil {
			return "", fmt.Errorf("failed to read HTML file: %w", err)
		}
		return string(data), nil
	}

	result, err := fetch.URL(ctx, pageURL, nil)
	if err != nil {
		return "", err
	}
	return string(result.Body), nil
}
