// Package assets materializes same-origin page assets for offline copies.
package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/site-cloner/internal/types"
	"github.com/jonathan/site-cloner/internal/urls"
)

// DirName is the directory, relative to the site directory, that holds downloaded assets.
const DirName = "assets"

// MapFileName is the asset mapping artifact written next to the assets directory.
const MapFileName = "assets-map.json"

// DefaultConcurrency is the default number of in-flight downloads.
const DefaultConcurrency = 4

// Fetcher retrieves the bytes of a resource. A non-success response is an error.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Collector downloads same-origin assets into a site directory.
type Collector struct {
	fetcher     Fetcher
	siteDir     string
	concurrency int
	verbose     bool
}

// Options configures a Collector.
type Options struct {
	Concurrency int
	Verbose     bool
}

// NewCollector creates a Collector writing under siteDir.
func NewCollector(fetcher Fetcher, siteDir string, opts Options) *Collector {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Collector{
		fetcher:     fetcher,
		siteDir:     siteDir,
		concurrency: opts.Concurrency,
		verbose:     opts.Verbose,
	}
}

// Result holds downloaded records in sorted URL order and the assets that were skipped.
type Result struct {
	Records []types.AssetRecord
	Skipped []types.AssetSkip
}

// Plan filters pageAssetURLs to the origin, de-duplicates and sorts them, and assigns
// each a local path and a unique identifier. Assignment depends only on the URL set.
func Plan(pageAssetURLs []string, origin string) ([]types.AssetRecord, []types.AssetSkip) {
	seen := make(map[string]bool, len(pageAssetURLs))
	var candidates []string
	var skipped []types.AssetSkip

	for _, raw := range pageAssetURLs {
		if seen[raw] {
			continue
		}
		seen[raw] = true
		if !urls.IsSameOrigin(raw, origin) {
			skipped = append(skipped, types.AssetSkip{URL: raw, Reason: "cross-origin"})
			continue
		}
		candidates = append(candidates, raw)
	}
	sort.Strings(candidates)

	usedIDs := IdentifierSet{}
	usedPaths := IdentifierSet{}
	records := make([]types.AssetRecord, 0, len(candidates))

	for _, raw := range candidates {
		decoded, err := DecodedPath(raw)
		if err != nil {
			skipped = append(skipped, types.AssetSkip{URL: raw, Reason: err.Error()})
			continue
		}

		var id, local string
		id, usedIDs = NextIdentifier(BaseIdentifier(decoded), usedIDs)
		local, usedPaths = nextLocalPath(path.Join(DirName, decoded), usedPaths)

		records = append(records, types.AssetRecord{
			OriginalURL: raw,
			LocalPath:   local,
			Identifier:  id,
		})
	}

	return records, skipped
}

// DecodedPath returns the percent-decoded URL path without leading slashes.
// Paths that are empty or escape the asset directory are rejected.
func DecodedPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid asset URL: %w", err)
	}
	decoded, err := url.PathUnescape(u.EscapedPath())
	if err != nil {
		decoded = u.EscapedPath()
	}
	decoded = strings.TrimLeft(decoded, "/")
	if decoded == "" {
		return "", fmt.Errorf("asset URL has no path")
	}
	clean := path.Clean(decoded)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("asset path escapes asset directory")
	}
	return decoded, nil
}

// Collect plans the assets and downloads them on a bounded worker pool.
// Failed downloads are skipped; only a cancelled context aborts the collection.
func (c *Collector) Collect(ctx context.Context, pageAssetURLs []string, origin string) (*Result, error) {
	records, skipped := Plan(pageAssetURLs, origin)
	if c.verbose {
		log.Printf("[ASSETS] %d same-origin assets planned, %d skipped", len(records), len(skipped))
	}

	downloaded := make([]bool, len(records))
	reasons := make([]string, len(records))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i := range records {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			if err := c.download(gCtx, records[i]); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				reasons[i] = err.Error()
				if c.verbose {
					log.Printf("[ASSETS] Skipping %s: %v", records[i].OriginalURL, err)
				}
				return nil
			}
			downloaded[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Records: make([]types.AssetRecord, 0, len(records)), Skipped: skipped}
	for i, rec := range records {
		if downloaded[i] {
			result.Records = append(result.Records, rec)
			continue
		}
		result.Skipped = append(result.Skipped, types.AssetSkip{URL: rec.OriginalURL, Reason: reasons[i]})
	}
	return result, nil
}

func (c *Collector) download(ctx context.Context, rec types.AssetRecord) error {
	body, err := c.fetcher.Fetch(ctx, rec.OriginalURL)
	if err != nil {
		return err
	}

	target := filepath.Join(c.siteDir, filepath.FromSlash(rec.LocalPath))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create asset directory: %w", err)
	}
	if err := os.WriteFile(target, body, 0644); err != nil {
		return fmt.Errorf("failed to write asset %s: %w", target, err)
	}
	return nil
}

// WriteMap persists the URL -> identifier mapping for the rendering layer.
func WriteMap(siteDir, baseURL string, records []types.AssetRecord) error {
	if records == nil {
		records = []types.AssetRecord{}
	}
	data, err := json.MarshalIndent(types.AssetMap{BaseURL: baseURL, Assets: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal asset map: %w", err)
	}
	mapPath := filepath.Join(siteDir, MapFileName)
	if err := os.WriteFile(mapPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write asset map %s: %w", mapPath, err)
	}
	return nil
}

// ReadMap loads a previously written asset map.
func ReadMap(siteDir string) (*types.AssetMap, error) {
	data, err := os.ReadFile(filepath.Join(siteDir, MapFileName))
	if err != nil {
		return nil, err
	}
	var m types.AssetMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse asset map: %w", err)
	}
	return &m, nil
}

// nextLocalPath keeps local paths unique by inserting _1, _2, ... before the extension.
func nextLocalPath(p string, used IdentifierSet) (string, IdentifierSet) {
	ext := path.Ext(p)
	stem := strings.TrimSuffix(p, ext)
	candidate := p
	for i := 1; used.Has(candidate); i++ {
		candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
	return candidate, used.With(candidate)
}
