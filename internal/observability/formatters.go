// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/site-cloner/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintFingerprint outputs the headline counts, landmarks and key texts of a fingerprint.
func (p *Printer) PrintFingerprint(label string, fp *types.StructuralFingerprint) {
	if fp == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("URL:    %s\n", fp.URL))
	sb.WriteString(fmt.Sprintf("Title:  %s\n", fp.Title))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("h1 %d · h2 %d · h3 %d · links %d · images %d\n",
		fp.Counts[types.CountH1], fp.Counts[types.CountH2], fp.Counts[types.CountH3],
		fp.Counts[types.CountLinks], fp.Counts[types.CountImages]))
	sb.WriteString(fmt.Sprintf("sections %d · buttons %d · nav links %d\n",
		fp.Counts[types.CountSections], fp.Counts[types.CountButtons], fp.Counts[types.CountNavLinks]))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Landmarks: %s %s %s\n",
		flag("header", fp.Landmarks[types.LandmarkHeader]),
		flag("footer", fp.Landmarks[types.LandmarkFooter]),
		flag("hero", fp.Landmarks[types.LandmarkHeroLikely])))

	if h1 := fp.KeyText(types.KeyTextH1); h1 != nil {
		sb.WriteString(fmt.Sprintf("H1:        %s\n", *h1))
	}
	if cta := fp.KeyText(types.KeyTextPrimaryCTA); cta != nil {
		sb.WriteString(fmt.Sprintf("CTA:       %s\n", *cta))
	}

	p.printBox(strings.ToUpper(label)+" FINGERPRINT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDiffReport outputs the notes of a diff report.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintDiffReport(report *types.DiffReport) {
	if report == nil {
		return
	}
	if len(report.Notes) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ NO STRUCTURAL MISMATCHES")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d mismatches:\n\n", len(report.Notes)))

	count := min(len(report.Notes), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("⚠ %s\n", report.Notes[i]))
	}
	if len(report.Notes) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(report.Notes)-maxItemsToShow))
	}

	p.printBox("STRUCTURAL DIFF", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunSummary outputs the outcome of a clone run.
func (p *Printer) PrintRunSummary(summary *types.RunSummary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("URL:       %s\n", summary.URL))
	sb.WriteString(fmt.Sprintf("Route:     /%s\n", summary.Slug))
	sb.WriteString(fmt.Sprintf("Duration:  %.1fs\n", summary.CloneSeconds))
	sb.WriteString(fmt.Sprintf("Assets:    %d downloaded, %d skipped\n", summary.AssetsDownloaded, summary.AssetsSkipped))
	if summary.StylesheetsSkipped > 0 {
		sb.WriteString(fmt.Sprintf("Styles:    %d stylesheets skipped\n", summary.StylesheetsSkipped))
	}
	switch {
	case summary.Compared:
		sb.WriteString("Compare:   local reproduction compared")
	case summary.AlsoLocal:
		sb.WriteString("Compare:   local reproduction unavailable")
	default:
		sb.WriteString("Compare:   skipped")
	}

	p.printBox("CLONE RUN", sb.String())
}

func flag(name string, on bool) string {
	if on {
		return "✓" + name
	}
	return "✗" + name
}
