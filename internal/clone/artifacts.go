package clone

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/site-cloner/internal/types"
)

// Artifact file names, relative to the site directory.
const (
	CompareDir            = "compare"
	OriginalHTMLFile      = "compare/original.html"
	OriginalStylesFile    = "compare/original.styles.css"
	StructureOriginalFile = "compare/structure-original.json"
	StructureLocalFile    = "compare/structure-local.json"
	CompareFile           = "compare/compare.json"
	ReportFile            = "compare/report.json"
	OriginalShotFile      = "compare/original.png"
	LocalShotFile         = "compare/local.png"
	StylesFile            = "styles.css"
	ManifestFile          = "manifest.json"
	RunSummaryFile        = "clone-run.json"
)

// RegistryFile lists every cloned site and lives in the output root.
const RegistryFile = "registry.json"

// SampleAssetLimit caps the asset sample in the capture report.
const SampleAssetLimit = 50

// WriteJSON writes v as indented JSON. Map keys are emitted in sorted order.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// BuildManifest lists the landing route followed by discovered, not yet cloned pages.
func BuildManifest(site types.Site, anchors []string) types.Manifest {
	pages := []types.PageEntry{{Path: "/" + site.Slug, Cloned: true}}
	for _, p := range anchors {
		if p == "/" {
			continue
		}
		pages = append(pages, types.PageEntry{Path: p, Cloned: false})
	}
	return types.Manifest{BaseURL: site.Origin, LandingPath: "/", Pages: pages}
}

// BuildCaptureReport summarizes what was captured from the original page.
func BuildCaptureReport(snap *types.PageSnapshot, origin, when string) types.CaptureReport {
	sample := snap.Assets
	if len(sample) > SampleAssetLimit {
		sample = sample[:SampleAssetLimit]
	}
	return types.CaptureReport{
		Title:                 snap.Title,
		BaseURL:               origin,
		When:                  when,
		Anchors:               snap.Anchors,
		SameOriginAssetsCount: len(snap.Assets),
		SampleAssets:          sample,
	}
}

// ReadRegistry loads the registry in outDir. A missing file is an empty registry.
func ReadRegistry(outDir string) ([]types.RegistryEntry, error) {
	data, err := os.ReadFile(filepath.Join(outDir, RegistryFile))
	if errors.Is(err, os.ErrNotExist) {
		return []types.RegistryEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}
	var entries []types.RegistryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	return entries, nil
}

// UpdateRegistry upserts entry into the registry in outDir. An unreadable
// registry is replaced rather than blocking the run.
func UpdateRegistry(outDir string, entry types.RegistryEntry) error {
	entries, err := ReadRegistry(outDir)
	if err != nil {
		fmt.Printf("Warning: %v, starting a new registry\n", err)
		entries = []types.RegistryEntry{}
	}
	return WriteJSON(filepath.Join(outDir, RegistryFile), types.Upsert(entries, entry))
}
