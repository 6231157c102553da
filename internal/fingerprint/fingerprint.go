// Package fingerprint extracts the structural fingerprint of a rendered page.
package fingerprint

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jonathan/site-cloner/internal/schemas"
	"github.com/jonathan/site-cloner/internal/types"
	rootschemas "github.com/jonathan/site-cloner/schemas"
)

// Evaluator runs a script in a loaded page and returns its string result.
type Evaluator interface {
	Evaluate(ctx context.Context, expression string) (string, error)
}

// Fingerprint evaluates the fingerprint script in the page behind ev.
// The page must already be loaded and idle. Nothing on the page is modified.
func Fingerprint(ctx context.Context, ev Evaluator) (*types.StructuralFingerprint, error) {
	raw, err := ev.Evaluate(ctx, Script)
	if err != nil {
		return nil, &EvaluationError{Cause: err}
	}
	if strings.TrimSpace(raw) == "" {
		return nil, &EvaluationError{Cause: ErrEmptyResult}
	}
	return Decode([]byte(raw))
}

// Decode validates raw fingerprint JSON at the boundary, then normalizes it.
func Decode(raw []byte) (*types.StructuralFingerprint, error) {
	if err := schemas.ValidateBytes(rootschemas.StructuralFingerprint, raw); err != nil {
		return nil, &ShapeError{Message: "schema check failed", Cause: err}
	}

	var fp types.StructuralFingerprint
	if err := json.Unmarshal(raw, &fp); err != nil {
		return nil, &ShapeError{Message: "decode failed", Cause: err}
	}

	Normalize(&fp)
	if err := fp.Validate(); err != nil {
		return nil, &ShapeError{Message: "constraint check failed", Cause: err}
	}
	return &fp, nil
}

// Normalize fills every tracked key, collapses whitespace in texts and applies the capture limits.
func Normalize(fp *types.StructuralFingerprint) {
	if fp.Landmarks == nil {
		fp.Landmarks = map[string]bool{}
	}
	for _, k := range []string{types.LandmarkHeader, types.LandmarkFooter, types.LandmarkHeroLikely} {
		fp.Landmarks[k] = fp.Landmarks[k]
	}

	if fp.Counts == nil {
		fp.Counts = map[string]int{}
	}
	for _, k := range countNames {
		fp.Counts[k] = fp.Counts[k]
	}

	if fp.KeyTexts == nil {
		fp.KeyTexts = map[string]*string{}
	}
	for _, k := range []string{types.KeyTextH1, types.KeyTextPrimaryCTA, types.KeyTextNavFirst} {
		if v := fp.KeyTexts[k]; v != nil {
			s := clip(*v, types.MaxTextLength)
			fp.KeyTexts[k] = &s
			continue
		}
		fp.KeyTexts[k] = nil
	}

	if fp.Components == nil {
		fp.Components = map[string]bool{}
	}
	for _, k := range []string{types.ComponentWNav, types.ComponentNavbarLinkClass, types.ComponentWebflowScripts} {
		fp.Components[k] = fp.Components[k]
	}

	if fp.Boxes == nil {
		fp.Boxes = map[string]*types.BBox{}
	}
	for _, k := range []string{types.BoxHeader, types.BoxHero, types.BoxFooter} {
		fp.Boxes[k] = fp.Boxes[k]
	}

	if len(fp.Interactive) > types.MaxInteractive {
		fp.Interactive = fp.Interactive[:types.MaxInteractive]
	}
	if fp.Interactive == nil {
		fp.Interactive = []types.InteractiveElement{}
	}
	for i := range fp.Interactive {
		fp.Interactive[i].Text = clip(fp.Interactive[i].Text, types.MaxTextLength)
	}

	if len(fp.SectionBoxes) > types.MaxSectionBoxes {
		fp.SectionBoxes = fp.SectionBoxes[:types.MaxSectionBoxes]
	}
	if fp.SectionBoxes == nil {
		fp.SectionBoxes = []types.SectionBox{}
	}
	for i := range fp.SectionBoxes {
		fp.SectionBoxes[i].ClassName = truncate(fp.SectionBoxes[i].ClassName, types.MaxClassLength)
	}

	if len(fp.Sections) > types.MaxSections {
		fp.Sections = fp.Sections[:types.MaxSections]
	}
	if fp.Sections == nil {
		fp.Sections = []types.Section{}
	}
	for i := range fp.Sections {
		fp.Sections[i].ClassName = truncate(fp.Sections[i].ClassName, types.MaxSectionClass)
	}
}

var countNames = []string{
	types.CountH1, types.CountH2, types.CountH3,
	types.CountLinks, types.CountImages, types.CountVideos,
	types.CountSections, types.CountButtons, types.CountNavLinks,
	types.CountNavbars, types.CountDropdowns,
}

// normText collapses whitespace runs to single spaces and trims the ends.
func normText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func clip(s string, n int) string {
	return truncate(normText(s), n)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
