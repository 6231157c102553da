// Package schemas holds the JSON Schemas for every artifact a clone run writes.
package schemas

import "embed"

// Schema file names.
const (
	StructuralFingerprint = "structural_fingerprint.schema.json"
	DiffReport            = "diff_report.schema.json"
	CaptureReport         = "capture_report.schema.json"
	AssetMap              = "asset_map.schema.json"
	RunSummary            = "run_summary.schema.json"
)

//go:embed *.schema.json
var files embed.FS

// Read returns the raw schema document with the given file name.
func Read(name string) ([]byte, error) {
	return files.ReadFile(name)
}

// Names lists the embedded schema file names.
func Names() []string {
	return []string{StructuralFingerprint, DiffReport, CaptureReport, AssetMap, RunSummary}
}
