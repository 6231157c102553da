// Package clone captures a live page into an offline copy and compares it with its reproduction.
package clone

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/site-cloner/internal/assets"
	"github.com/jonathan/site-cloner/internal/db"
	"github.com/jonathan/site-cloner/internal/diff"
	"github.com/jonathan/site-cloner/internal/fingerprint"
	"github.com/jonathan/site-cloner/internal/observability"
	"github.com/jonathan/site-cloner/internal/styles"
	"github.com/jonathan/site-cloner/internal/types"
	"github.com/jonathan/site-cloner/internal/urls"
)

// PageDriver is the browser session a run is driven through.
type PageDriver interface {
	Navigate(ctx context.Context, rawURL string) error
	Title(ctx context.Context) (string, error)
	Location(ctx context.Context) (string, error)
	DocumentHTML(ctx context.Context) (string, error)
	Evaluate(ctx context.Context, expression string) (string, error)
	Screenshot(ctx context.Context, path string) error
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// ArtifactStore persists a run and its artifacts outside the output directory.
type ArtifactStore interface {
	CreateRun(ctx context.Context, url, slug string) (uuid.UUID, error)
	SaveArtifact(ctx context.Context, runID uuid.UUID, step, category string, content any) error
	SaveTextArtifact(ctx context.Context, runID uuid.UUID, step, category, text string) error
	SaveBlobArtifact(ctx context.Context, runID uuid.UUID, step, category string, data []byte) error
	CompleteRun(ctx context.Context, runID uuid.UUID, status string, cloneMs int64) error
}

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step    int    `json:"step"`
	Name    string `json:"name"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
}

// ProgressCallback is called when run progress occurs
type ProgressCallback func(event ProgressEvent)

// TotalSteps is the number of numbered steps in a run.
const TotalSteps = 7

// Options holds configuration for a clone run
type Options struct {
	URL            string
	OutDir         string
	LocalBaseURL   string
	AlsoLocal      bool
	BlockAnalytics bool
	Concurrency    int
	Policy         diff.Policy
	Verbose        bool
	Store          ArtifactStore
	OnProgress     ProgressCallback
	// Now defaults to time.Now.
	Now func() time.Time
}

// Result holds everything a run produced.
type Result struct {
	Site     types.Site
	SiteDir  string
	RunID    uuid.UUID
	Snapshot *types.PageSnapshot
	Styles   *styles.Result
	Assets   *assets.Result
	Original *types.StructuralFingerprint
	Local    *types.StructuralFingerprint
	Diff     *types.DiffReport
	Summary  types.RunSummary
}

type runner struct {
	driver  PageDriver
	opts    Options
	site    types.Site
	siteDir string
	runID   uuid.UUID
	printer *observability.Printer
}

// Run captures opts.URL into <OutDir>/<slug>/ and, when AlsoLocal is set, compares
// it with the reproduction served under LocalBaseURL. Only a failed navigation to
// the source page, an unusable original fingerprint or an unwritable output
// directory abort the run.
func Run(ctx context.Context, driver PageDriver, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, ErrMissingURL
	}
	if !urls.HasWebScheme(opts.URL) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, opts.URL)
	}
	site, err := urls.NewSite(opts.URL)
	if err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Policy == (diff.Policy{}) {
		opts.Policy = diff.DefaultPolicy()
	}

	r := &runner{
		driver:  driver,
		opts:    opts,
		site:    site,
		siteDir: filepath.Join(opts.OutDir, site.Slug),
		printer: observability.NewPrinter(os.Stdout),
	}
	start := opts.Now()
	r.startStoreRun(ctx)

	res, err := r.run(ctx, start)
	if err != nil {
		r.completeStoreRun(ctx, db.StatusFailed, opts.Now().Sub(start).Milliseconds())
		return nil, err
	}
	r.completeStoreRun(ctx, db.StatusCompleted, res.Summary.CloneMs)
	return res, nil
}

func (r *runner) run(ctx context.Context, start time.Time) (*Result, error) {
	res := &Result{Site: r.site, SiteDir: r.siteDir, RunID: r.runID}

	// Step 1: navigate
	r.step(1, "navigate", fmt.Sprintf("Navigating to %s...", r.opts.URL))
	if err := r.driver.Navigate(ctx, r.opts.URL); err != nil {
		return nil, &NavigationError{URL: r.opts.URL, Cause: err}
	}

	// Step 2: extract
	r.step(2, "extract", "Extracting markup, stylesheets, anchors and assets...")
	snap, err := r.extract(ctx)
	if err != nil {
		return nil, err
	}
	res.Snapshot = snap
	if err := r.writeText(OriginalHTMLFile, db.StepOriginalHTML, snap.BodyMarkup); err != nil {
		return nil, err
	}
	if r.opts.Verbose {
		fmt.Printf("[VERBOSE] %d stylesheets, %d inline styles, %d anchors, %d same-origin assets\n",
			len(snap.Stylesheets), len(snap.InlineStyles), len(snap.Anchors), len(snap.Assets))
	}

	// Step 3: styles
	r.step(3, "styles", fmt.Sprintf("Rewriting %d stylesheets...", len(snap.Stylesheets)+len(snap.InlineStyles)))
	css, err := styles.Collect(ctx, r.driver, snap.Stylesheets, snap.InlineStyles, r.opts.Verbose)
	if err != nil {
		return nil, &StepError{Step: "styles", Message: "stylesheet collection interrupted", Cause: err}
	}
	res.Styles = css
	for _, skipped := range css.Skipped {
		fmt.Printf("Warning: Skipped stylesheet %s\n", skipped)
	}
	if err := r.writeText(OriginalStylesFile, db.StepOriginalStyles, css.CSS); err != nil {
		return nil, err
	}
	if err := writeFile(filepath.Join(r.siteDir, StylesFile), []byte(css.CSS)); err != nil {
		return nil, err
	}

	// Step 4: assets
	r.step(4, "assets", fmt.Sprintf("Downloading %d same-origin assets...", len(snap.Assets)))
	collector := assets.NewCollector(r.driver, r.siteDir, assets.Options{Concurrency: r.opts.Concurrency, Verbose: r.opts.Verbose})
	collected, err := collector.Collect(ctx, snap.Assets, r.site.Origin)
	if err != nil {
		return nil, &StepError{Step: "assets", Message: "asset collection interrupted", Cause: err}
	}
	res.Assets = collected
	if err := assets.WriteMap(r.siteDir, r.site.Origin, collected.Records); err != nil {
		return nil, err
	}
	r.save(ctx, db.StepAssetMap, db.CategoryCapture, types.AssetMap{BaseURL: r.site.Origin, Assets: collected.Records})

	// Step 5: original screenshot and fingerprint
	r.step(5, "fingerprint", "Capturing screenshot and structural fingerprint of the original...")
	r.screenshot(ctx, OriginalShotFile, db.StepScreenshotOriginal)
	original, err := fingerprint.Fingerprint(ctx, r.driver)
	if err != nil {
		return nil, &StepError{Step: "fingerprint", Message: "original page fingerprint failed", Cause: err}
	}
	res.Original = original
	if err := r.writeJSON(StructureOriginalFile, db.StepStructureOriginal, db.CategoryFingerprint, original); err != nil {
		return nil, err
	}
	if r.opts.Verbose {
		r.printer.PrintFingerprint("Original", original)
	}

	// Step 6: local verification
	if r.opts.AlsoLocal {
		r.step(6, "compare", fmt.Sprintf("Comparing with local reproduction at %s...", r.localURL()))
		res.Local, res.Diff = r.compareLocal(ctx, original)
	} else {
		r.step(6, "compare", "Skipping local comparison")
	}

	// Step 7: reports
	r.step(7, "report", "Writing report, manifest and registry...")
	finished := r.opts.Now()
	when := formatWhen(finished)
	report := BuildCaptureReport(snap, r.site.Origin, when)
	if err := r.writeJSON(ReportFile, db.StepCaptureReport, db.CategoryReport, report); err != nil {
		return nil, err
	}
	if err := r.writeJSON(ManifestFile, db.StepManifest, db.CategoryReport, BuildManifest(r.site, snap.Anchors)); err != nil {
		return nil, err
	}
	title := snap.Title
	if title == "" {
		title = r.site.Slug
	}
	if err := UpdateRegistry(r.opts.OutDir, types.RegistryEntry{Slug: r.site.Slug, BaseURL: r.site.Origin, Title: title}); err != nil {
		return nil, err
	}

	elapsed := finished.Sub(start).Milliseconds()
	res.Summary = types.RunSummary{
		URL:                r.opts.URL,
		Slug:               r.site.Slug,
		When:               when,
		CloneMs:            elapsed,
		CloneSeconds:       math.Round(float64(elapsed)/100) / 10,
		Compared:           res.Diff != nil,
		AlsoLocal:          r.opts.AlsoLocal,
		BlockAnalytics:     r.opts.BlockAnalytics,
		AssetsDownloaded:   len(collected.Records),
		AssetsSkipped:      len(collected.Skipped),
		StylesheetsSkipped: len(css.Skipped),
	}
	if r.runID != uuid.Nil {
		res.Summary.RunID = r.runID.String()
	}
	if err := r.writeJSON(RunSummaryFile, db.StepRunSummary, db.CategoryReport, res.Summary); err != nil {
		return nil, err
	}

	fmt.Printf("Cloned %s -> /%s in %.1fs\n", title, r.site.Slug, res.Summary.CloneSeconds)
	return res, nil
}

func (r *runner) extract(ctx context.Context) (*types.PageSnapshot, error) {
	html, err := r.driver.DocumentHTML(ctx)
	if err != nil {
		return nil, &StepError{Step: "extract", Message: "failed to read document", Cause: err}
	}

	pageURL := r.opts.URL
	if loc, err := r.driver.Location(ctx); err == nil && loc != "" {
		pageURL = loc
	}

	snap, err := Extract(html, pageURL, r.site.Origin)
	if err != nil {
		return nil, &StepError{Step: "extract", Message: "failed to parse document", Cause: err}
	}
	if title, err := r.driver.Title(ctx); err == nil && title != "" {
		snap.Title = title
	}
	return snap, nil
}

// compareLocal fingerprints the local reproduction and diffs it against original.
// Every failure here is logged and leaves the comparison out.
func (r *runner) compareLocal(ctx context.Context, original *types.StructuralFingerprint) (*types.StructuralFingerprint, *types.DiffReport) {
	if err := r.driver.Navigate(ctx, r.localURL()); err != nil {
		fmt.Printf("Warning: Local reproduction unavailable, skipping comparison: %v\n", err)
		return nil, nil
	}
	r.screenshot(ctx, LocalShotFile, db.StepScreenshotLocal)

	local, err := fingerprint.Fingerprint(ctx, r.driver)
	if err != nil {
		fmt.Printf("Warning: Local fingerprint failed, skipping comparison: %v\n", err)
		return nil, nil
	}
	if err := r.writeJSON(StructureLocalFile, db.StepStructureLocal, db.CategoryFingerprint, local); err != nil {
		fmt.Printf("Warning: %v\n", err)
	}

	report := diff.Diff(original, local, r.opts.Policy)
	if err := r.writeJSON(CompareFile, db.StepCompare, db.CategoryDiff, report); err != nil {
		fmt.Printf("Warning: %v\n", err)
		return local, nil
	}
	if r.opts.Verbose {
		r.printer.PrintDiffReport(report)
	}
	return local, report
}

func (r *runner) localURL() string {
	return strings.TrimRight(r.opts.LocalBaseURL, "/") + "/" + r.site.Slug
}

// screenshot is best-effort: a failure is reported and the run continues.
func (r *runner) screenshot(ctx context.Context, rel, step string) {
	path := filepath.Join(r.siteDir, rel)
	if err := r.driver.Screenshot(ctx, path); err != nil {
		fmt.Printf("Warning: Screenshot %s failed: %v\n", rel, err)
		return
	}
	if r.opts.Store == nil || r.runID == uuid.Nil {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if err := r.opts.Store.SaveBlobArtifact(ctx, r.runID, step, db.CategoryScreenshot, data); err != nil {
		fmt.Printf("Warning: Failed to store %s: %v\n", step, err)
	}
}

func (r *runner) writeJSON(rel, step, category string, v any) error {
	if err := WriteJSON(filepath.Join(r.siteDir, rel), v); err != nil {
		return err
	}
	r.save(context.Background(), step, category, v)
	return nil
}

func (r *runner) writeText(rel, step, text string) error {
	if err := writeFile(filepath.Join(r.siteDir, rel), []byte(text)); err != nil {
		return err
	}
	if r.opts.Store != nil && r.runID != uuid.Nil {
		if err := r.opts.Store.SaveTextArtifact(context.Background(), r.runID, step, db.CategoryCapture, text); err != nil {
			fmt.Printf("Warning: Failed to store %s: %v\n", step, err)
		}
	}
	return nil
}

func (r *runner) save(ctx context.Context, step, category string, v any) {
	if r.opts.Store == nil || r.runID == uuid.Nil {
		return
	}
	if err := r.opts.Store.SaveArtifact(ctx, r.runID, step, category, v); err != nil {
		fmt.Printf("Warning: Failed to store %s: %v\n", step, err)
	}
}

func (r *runner) startStoreRun(ctx context.Context) {
	if r.opts.Store == nil {
		return
	}
	id, err := r.opts.Store.CreateRun(ctx, r.opts.URL, r.site.Slug)
	if err != nil {
		fmt.Printf("Warning: Failed to create database run: %v\n", err)
		fmt.Printf("Continuing without database persistence...\n")
		return
	}
	r.runID = id
	if r.opts.Verbose {
		fmt.Printf("[VERBOSE] Created database run: %s\n", id)
	}
}

func (r *runner) completeStoreRun(ctx context.Context, status string, cloneMs int64) {
	if r.opts.Store == nil || r.runID == uuid.Nil {
		return
	}
	if err := r.opts.Store.CompleteRun(context.WithoutCancel(ctx), r.runID, status, cloneMs); err != nil {
		fmt.Printf("Warning: Failed to complete database run: %v\n", err)
	}
}

// step prints the numbered progress line and notifies the progress callback.
func (r *runner) step(n int, name, message string) {
	fmt.Printf("Step %d/%d: %s\n", n, TotalSteps, message)
	if r.opts.OnProgress != nil {
		ev := ProgressEvent{Step: n, Name: name, Message: message}
		if r.runID != uuid.Nil {
			ev.RunID = r.runID.String()
		}
		r.opts.OnProgress(ev)
	}
}

// formatWhen renders t as an ISO-8601 UTC timestamp with millisecond precision.
func formatWhen(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
