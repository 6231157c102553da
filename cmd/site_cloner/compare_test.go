package main

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/site-cloner/internal/diff"
	"github.com/jonathan/site-cloner/internal/fingerprint"
	"github.com/jonathan/site-cloner/internal/types"
)

const originalPage = `<html><head><title>Acme</title></head><body>
<header><nav><a href="/">Home</a><a href="/pricing">Pricing</a></nav></header>
<section class="hero"><h1>Build faster</h1><a href="/demo" class="button">Get a demo</a></section>
<footer>Acme Inc</footer>
</body></html>`

const localPage = `<html><head><title>Acme</title></head><body>
<header><nav><a href="/">Home</a></nav></header>
<section class="hero"><h1>Build  faster</h1></section>
</body></html>`

func writeFingerprint(t *testing.T, dir, name, html, pageURL string) string {
	t.Helper()
	fp, err := fingerprint.FromHTML(html, pageURL)
	require.NoError(t, err)
	data, err := json.Marshal(fp)
	require.NoError(t, err)
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0644))
	return p
}

func TestCompareFiles_ReportsMismatches(t *testing.T) {
	dir := t.TempDir()
	original := writeFingerprint(t, dir, "structure-original.json", originalPage, "https://acme.test/")
	local := writeFingerprint(t, dir, "structure-local.json", localPage, "http://localhost:5173/acme-test")

	report, err := compareFiles(original, local, diff.DefaultPolicy())
	require.NoError(t, err)

	var kinds []types.MismatchKind
	for _, m := range report.Mismatches {
		kinds = append(kinds, m.Kind)
	}
	assert.Equal(t, []types.MismatchKind{types.MismatchFooterLandmark}, kinds)
	assert.Len(t, report.Notes, 1)
	assert.Equal(t, -2, report.Counts[types.CountLinks].Delta)
}

func TestCompareFiles_IdenticalHasNoMismatches(t *testing.T) {
	dir := t.TempDir()
	a := writeFingerprint(t, dir, "a.json", originalPage, "https://acme.test/")
	b := writeFingerprint(t, dir, "b.json", originalPage, "https://acme.test/")

	report, err := compareFiles(a, b, diff.DefaultPolicy())
	require.NoError(t, err)
	assert.Empty(t, report.Mismatches)
}

func TestCompareFiles_RejectsMalformedFingerprint(t *testing.T) {
	dir := t.TempDir()
	good := writeFingerprint(t, dir, "a.json", originalPage, "https://acme.test/")
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"title": 3}`), 0644))

	_, err := compareFiles(good, bad, diff.DefaultPolicy())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.json")

	_, err = compareFiles(good, filepath.Join(dir, "missing.json"), diff.DefaultPolicy())
	assert.Error(t, err)
}

func TestCompareCommand_WritesReport(t *testing.T) {
	binaryPath := getBinaryPath(t)

	dir := t.TempDir()
	original := writeFingerprint(t, dir, "structure-original.json", originalPage, "https://acme.test/")
	local := writeFingerprint(t, dir, "structure-local.json", localPage, "http://localhost:5173/acme-test")
	out := filepath.Join(dir, "compare.json")

	cmd := exec.Command(binaryPath, "compare", "--original", original, "--local", local, "--out", out)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, string(output))
	assert.Contains(t, string(output), "Wrote diff report")

	cmd = exec.Command(binaryPath, "validate", "--json", out)
	output, err = cmd.CombinedOutput()
	require.NoError(t, err, string(output))
	assert.Contains(t, string(output), "Validation passed")
}

func TestCompareCommand_MissingFlags(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "compare", "--original", "a.json")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err, "command should fail")
	assert.Contains(t, string(output), "required")
}
