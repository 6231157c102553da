package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/site-cloner/internal/clone"
	"github.com/jonathan/site-cloner/internal/diff"
	"github.com/jonathan/site-cloner/internal/fingerprint"
	"github.com/jonathan/site-cloner/internal/types"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Diff two saved structural fingerprints",
	Long:  "Compares two structural fingerprint JSON files offline and writes the diff report.",
	RunE:  runCompareCmd,
}

var (
	compareOriginal   string
	compareLocal      string
	compareOutput     string
	compareConfigPath string
)

func init() {
	compareCmd.Flags().StringVar(&compareOriginal, "original", "", "Path to the original fingerprint JSON (required)")
	compareCmd.Flags().StringVar(&compareLocal, "local", "", "Path to the local fingerprint JSON (required)")
	compareCmd.Flags().StringVarP(&compareOutput, "out", "o", "", "Path to write the diff report (default stdout)")
	compareCmd.Flags().StringVar(&compareConfigPath, "config", "", "Path to config.json file with diff thresholds")

	if err := compareCmd.MarkFlagRequired("original"); err != nil {
		panic(fmt.Sprintf("failed to mark original flag as required: %v", err))
	}
	if err := compareCmd.MarkFlagRequired("local"); err != nil {
		panic(fmt.Sprintf("failed to mark local flag as required: %v", err))
	}

	rootCmd.AddCommand(compareCmd)
}

func runCompareCmd(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(compareConfigPath, false, nil)
	if err != nil {
		return err
	}

	report, err := compareFiles(compareOriginal, compareLocal, cfg.Policy())
	if err != nil {
		return err
	}

	if compareOutput == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	if err := clone.WriteJSON(compareOutput, report); err != nil {
		return err
	}

	if len(report.Notes) == 0 {
		fmt.Println("No structural mismatches")
	}
	for _, note := range report.Notes {
		fmt.Printf("- %s\n", note)
	}
	fmt.Printf("Wrote diff report to %s\n", compareOutput)
	return nil
}

// compareFiles decodes both fingerprints through the boundary checks and diffs them.
func compareFiles(originalPath, localPath string, policy diff.Policy) (*types.DiffReport, error) {
	original, err := readFingerprint(originalPath)
	if err != nil {
		return nil, err
	}
	local, err := readFingerprint(localPath)
	if err != nil {
		return nil, err
	}
	return diff.Diff(original, local, policy), nil
}

func readFingerprint(path string) (*types.StructuralFingerprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fingerprint %s: %w", path, err)
	}
	fp, err := fingerprint.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fp, nil
}

