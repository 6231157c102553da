package clone

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/site-cloner/internal/db"
	"github.com/jonathan/site-cloner/internal/diff"
	"github.com/jonathan/site-cloner/internal/fingerprint"
	"github.com/jonathan/site-cloner/internal/types"
)

// fakeDriver serves fixed documents per URL and fingerprints them statically.
type fakeDriver struct {
	mu        sync.Mutex
	pages     map[string]string
	resources map[string]string
	failNav   map[string]bool
	current   string
	visited   []string
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		pages: map[string]string{"https://ex.com/": landingHTML},
		resources: map[string]string{
			"https://ex.com/css/site.css":     `.a{background:url(../img/bg.png)}`,
			"https://ex.com/img/logo.png":     "PNG",
			"https://ex.com/media/intro.mp4":  "MP4",
			"https://ex.com/media/poster.jpg": "JPG",
		},
		failNav: map[string]bool{},
	}
}

func (d *fakeDriver) Navigate(_ context.Context, rawURL string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.visited = append(d.visited, rawURL)
	if d.failNav[rawURL] {
		return errors.New("net::ERR_CONNECTION_REFUSED")
	}
	if _, ok := d.pages[rawURL]; !ok {
		return errors.New("HTTP status 404")
	}
	d.current = rawURL
	return nil
}

func (d *fakeDriver) Title(context.Context) (string, error) { return "Example Landing", nil }

func (d *fakeDriver) Location(context.Context) (string, error) { return d.current, nil }

func (d *fakeDriver) DocumentHTML(context.Context) (string, error) { return d.pages[d.current], nil }

func (d *fakeDriver) Evaluate(_ context.Context, _ string) (string, error) {
	fp, err := fingerprint.FromHTML(d.pages[d.current], d.current)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(fp)
	return string(data), err
}

func (d *fakeDriver) Screenshot(_ context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("PNG"), 0644)
}

func (d *fakeDriver) Fetch(_ context.Context, rawURL string) ([]byte, error) {
	body, ok := d.resources[rawURL]
	if !ok {
		return nil, errors.New("HTTP status 404")
	}
	return []byte(body), nil
}

type memoryStore struct {
	mu        sync.Mutex
	steps     []string
	status    string
	failStart bool
}

func (s *memoryStore) CreateRun(context.Context, string, string) (uuid.UUID, error) {
	if s.failStart {
		return uuid.Nil, errors.New("connection refused")
	}
	return uuid.New(), nil
}

func (s *memoryStore) record(step string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, step)
	return nil
}

func (s *memoryStore) SaveArtifact(_ context.Context, _ uuid.UUID, step, _ string, _ any) error {
	return s.record(step)
}

func (s *memoryStore) SaveTextArtifact(_ context.Context, _ uuid.UUID, step, _, _ string) error {
	return s.record(step)
}

func (s *memoryStore) SaveBlobArtifact(_ context.Context, _ uuid.UUID, step, _ string, _ []byte) error {
	return s.record(step)
}

func (s *memoryStore) CompleteRun(_ context.Context, _ uuid.UUID, status string, _ int64) error {
	s.status = status
	return nil
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time {
		t = t.Add(1250 * time.Millisecond)
		return t
	}
}

func TestRun_WritesArtifacts(t *testing.T) {
	out := t.TempDir()
	driver := newFakeDriver()

	res, err := Run(context.Background(), driver, Options{URL: "https://ex.com/", OutDir: out, Now: fixedClock()})
	require.NoError(t, err)

	siteDir := filepath.Join(out, "ex-com")
	assert.Equal(t, siteDir, res.SiteDir)
	for _, rel := range []string{
		OriginalHTMLFile, OriginalStylesFile, StructureOriginalFile, ReportFile,
		OriginalShotFile, StylesFile, ManifestFile, RunSummaryFile, "assets-map.json",
		"assets/img/logo.png", "assets/media/intro.mp4",
	} {
		assert.FileExists(t, filepath.Join(siteDir, rel))
	}
	assert.NoFileExists(t, filepath.Join(siteDir, CompareFile))
	assert.NoFileExists(t, filepath.Join(siteDir, StructureLocalFile))

	css, err := os.ReadFile(filepath.Join(siteDir, StylesFile))
	require.NoError(t, err)
	assert.Contains(t, string(css), "url(https://ex.com/img/bg.png)")
	assert.Contains(t, string(css), ".hero{color:red}")

	assert.Len(t, res.Assets.Records, 3)
	assert.Nil(t, res.Diff)
	assert.Equal(t, "Welcome", *res.Original.KeyText(types.KeyTextH1))

	assert.False(t, res.Summary.Compared)
	assert.Equal(t, 3, res.Summary.AssetsDownloaded)
	assert.Equal(t, 1, res.Summary.AssetsSkipped)
	assert.Equal(t, 1, res.Summary.StylesheetsSkipped)
	assert.Equal(t, int64(1250), res.Summary.CloneMs)
	assert.InDelta(t, 1.3, res.Summary.CloneSeconds, 1e-9)

	entries, err := ReadRegistry(out)
	require.NoError(t, err)
	assert.Equal(t, []types.RegistryEntry{{Slug: "ex-com", BaseURL: "https://ex.com", Title: "Example Landing"}}, entries)
}

func TestRun_ComparesLocal(t *testing.T) {
	out := t.TempDir()
	driver := newFakeDriver()
	driver.pages["http://localhost:5173/ex-com"] = `<html><body><header></header><h1>Welcome</h1></body></html>`

	res, err := Run(context.Background(), driver, Options{
		URL:          "https://ex.com/",
		OutDir:       out,
		LocalBaseURL: "http://localhost:5173/",
		AlsoLocal:    true,
		Now:          fixedClock(),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://ex.com/", "http://localhost:5173/ex-com"}, driver.visited)
	require.NotNil(t, res.Diff)
	assert.True(t, res.Summary.Compared)
	assert.Equal(t, "http://localhost:5173/ex-com", res.Diff.URLLocal)
	assert.FileExists(t, filepath.Join(res.SiteDir, CompareFile))
	assert.FileExists(t, filepath.Join(res.SiteDir, LocalShotFile))

	// Same heading and header on both sides; the link delta of 4 is within the default threshold.
	var report types.DiffReport
	data, err := os.ReadFile(filepath.Join(res.SiteDir, CompareFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, res.Diff.Notes, report.Notes)
	assert.Equal(t, 4, report.Counts[types.CountLinks].Original)
	assert.Equal(t, 0, report.Counts[types.CountLinks].Local)
	assert.Empty(t, report.Mismatches)
}

func TestRun_LocalUnavailableDegrades(t *testing.T) {
	driver := newFakeDriver()
	driver.failNav["http://localhost:5173/ex-com"] = true

	res, err := Run(context.Background(), driver, Options{
		URL:          "https://ex.com/",
		OutDir:       t.TempDir(),
		LocalBaseURL: "http://localhost:5173",
		AlsoLocal:    true,
	})
	require.NoError(t, err)

	assert.Nil(t, res.Diff)
	assert.False(t, res.Summary.Compared)
	assert.True(t, res.Summary.AlsoLocal)
	assert.NoFileExists(t, filepath.Join(res.SiteDir, CompareFile))
}

func TestRun_NavigationFailureIsFatal(t *testing.T) {
	driver := newFakeDriver()
	driver.failNav["https://ex.com/"] = true
	store := &memoryStore{}

	_, err := Run(context.Background(), driver, Options{URL: "https://ex.com/", OutDir: t.TempDir(), Store: store})

	var navErr *NavigationError
	require.ErrorAs(t, err, &navErr)
	assert.Equal(t, "https://ex.com/", navErr.URL)
	assert.Equal(t, db.StatusFailed, store.status)
}

func TestRun_RejectsBadURL(t *testing.T) {
	driver := newFakeDriver()

	_, err := Run(context.Background(), driver, Options{OutDir: t.TempDir()})
	assert.ErrorIs(t, err, ErrMissingURL)

	_, err = Run(context.Background(), driver, Options{URL: "ftp://ex.com/", OutDir: t.TempDir()})
	assert.ErrorIs(t, err, ErrUnsupportedScheme)

	assert.Empty(t, driver.visited)
}

func TestRun_PersistsToStore(t *testing.T) {
	store := &memoryStore{}

	res, err := Run(context.Background(), newFakeDriver(), Options{URL: "https://ex.com/", OutDir: t.TempDir(), Store: store})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, res.RunID)
	assert.Equal(t, res.RunID.String(), res.Summary.RunID)
	assert.Equal(t, db.StatusCompleted, store.status)
	assert.Contains(t, store.steps, db.StepOriginalHTML)
	assert.Contains(t, store.steps, db.StepStructureOriginal)
	assert.Contains(t, store.steps, db.StepScreenshotOriginal)
	assert.Contains(t, store.steps, db.StepRunSummary)
}

func TestRun_StoreUnavailableContinues(t *testing.T) {
	store := &memoryStore{failStart: true}

	res, err := Run(context.Background(), newFakeDriver(), Options{URL: "https://ex.com/", OutDir: t.TempDir(), Store: store})
	require.NoError(t, err)

	assert.Equal(t, uuid.Nil, res.RunID)
	assert.Empty(t, store.steps)
	assert.Empty(t, store.status)
}

func TestRun_ReportsProgress(t *testing.T) {
	var steps []int
	_, err := Run(context.Background(), newFakeDriver(), Options{
		URL:        "https://ex.com/",
		OutDir:     t.TempDir(),
		OnProgress: func(ev ProgressEvent) { steps = append(steps, ev.Step) },
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, steps)
}

func TestRun_CustomPolicy(t *testing.T) {
	driver := newFakeDriver()
	driver.pages["http://localhost:5173/ex-com"] = `<html><body><header></header><h1>Welcome</h1></body></html>`

	res, err := Run(context.Background(), driver, Options{
		URL:          "https://ex.com/",
		OutDir:       t.TempDir(),
		LocalBaseURL: "http://localhost:5173",
		AlsoLocal:    true,
		Policy:       diff.Policy{LinkDeltaThreshold: 1, PositionTolerance: 20, SizeTolerance: 40, MaxKeys: 50},
	})
	require.NoError(t, err)

	require.NotNil(t, res.Diff)
	require.Len(t, res.Diff.Mismatches, 1)
	assert.Equal(t, types.MismatchLinkCount, res.Diff.Mismatches[0].Kind)
	assert.Equal(t, -4, res.Diff.Mismatches[0].Delta)
}
