package observability

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/jonathan/site-cloner/internal/types"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestPrintFingerprint(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	fp := &types.StructuralFingerprint{
		URL:       "https://ex.com/",
		Title:     "Example",
		Landmarks: map[string]bool{types.LandmarkHeader: true, types.LandmarkFooter: false},
		Counts:    map[string]int{types.CountH1: 1, types.CountLinks: 10},
		KeyTexts:  map[string]*string{types.KeyTextH1: strPtr("Welcome")},
	}

	p.PrintFingerprint("Original", fp)
	output := buf.String()

	assert.Contains(t, output, "ORIGINAL FINGERPRINT")
	assert.Contains(t, output, "https://ex.com/")
	assert.Contains(t, output, "links 10")
	assert.Contains(t, output, "✓header")
	assert.Contains(t, output, "✗footer")
	assert.Contains(t, output, "Welcome")
	assert.NotContains(t, output, "CTA:")
}

func TestPrintFingerprint_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintFingerprint("Original", nil)

	assert.Empty(t, buf.String())
}

func TestPrintDiffReport_NoMismatches(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintDiffReport(&types.DiffReport{Notes: []string{}})

	assert.Contains(t, buf.String(), "NO STRUCTURAL MISMATCHES")
}

func TestPrintDiffReport_TruncatesList(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	var notes []string
	for i := 0; i < 8; i++ {
		notes = append(notes, fmt.Sprintf("note %d", i))
	}
	p.PrintDiffReport(&types.DiffReport{Notes: notes})
	output := buf.String()

	assert.Contains(t, output, "STRUCTURAL DIFF")
	assert.Contains(t, output, "Found 8 mismatches")
	assert.Contains(t, output, "note 4")
	assert.NotContains(t, output, "note 5")
	assert.Contains(t, output, "... and 3 more")
}

func TestPrintRunSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRunSummary(&types.RunSummary{
		URL:              "https://ex.com/",
		Slug:             "ex-com",
		CloneSeconds:     2.5,
		AssetsDownloaded: 3,
		AssetsSkipped:    1,
		AlsoLocal:        true,
	})
	output := buf.String()

	assert.Contains(t, output, "CLONE RUN")
	assert.Contains(t, output, "/ex-com")
	assert.Contains(t, output, "2.5s")
	assert.Contains(t, output, "3 downloaded, 1 skipped")
	assert.Contains(t, output, "local reproduction unavailable")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("x", 100))

	assert.Contains(t, buf.String(), "...")
	assert.NotContains(t, buf.String(), strings.Repeat("x", 60))
}
