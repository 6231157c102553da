package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(originalPage))
	}))
	defer srv.Close()

	fetched, err := loadHTML(context.Background(), "", srv.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, originalPage, fetched)

	_, err = loadHTML(context.Background(), "", srv.URL+"/missing")
	assert.Error(t, err)

	saved, err := loadHTML(context.Background(), writeFile(t, t.TempDir(), "page.html", "<p>saved</p>"), "https://unused.test/")
	require.NoError(t, err)
	assert.Equal(t, "<p>saved</p>", saved)
}

func TestFingerprintCommand_WritesValidFingerprint(t *testing.T) {
	binaryPath := getBinaryPath(t)

	dir := t.TempDir()
	htmlPath := writeFile(t, dir, "page.html", originalPage)
	out := filepath.Join(dir, "structure-original.json")

	cmd := exec.Command(binaryPath, "fingerprint", "--html", htmlPath, "--url", "https://acme.test/", "--out", out)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, string(output))

	cmd = exec.Command(binaryPath, "validate", "--json", out)
	output, err = cmd.CombinedOutput()
	require.NoError(t, err, string(output))
	assert.Contains(t, string(output), "Validation passed")
}

func TestFingerprintCommand_RejectsNonWebURL(t *testing.T) {
	binaryPath := getBinaryPath(t)

	htmlPath := writeFile(t, t.TempDir(), "page.html", originalPage)

	cmd := exec.Command(binaryPath, "fingerprint", "--html", htmlPath, "--url", "file:///tmp/page.html")
	output, err := cmd.CombinedOutput()
	assert.Error(t, err)
	assert.Contains(t, string(output), "must start with http")
}

func TestCloneCommand_RequiresURL(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "clone")
	output, err := cmd.CombinedOutput()
	assert.Error(t, err)
	assert.Contains(t, string(output), "accepts 1 arg")
}
