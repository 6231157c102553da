// Package diff compares an original page fingerprint with its reproduction.
package diff

import (
	"math"
	"sort"
	"strings"

	"github.com/jonathan/site-cloner/internal/types"
)

// Policy holds the comparison thresholds.
type Policy struct {
	// LinkDeltaThreshold is the largest tolerated absolute link count difference.
	LinkDeltaThreshold int `json:"link_delta_threshold" validate:"gte=0"`
	// PositionTolerance is the largest tolerated dx or dy, in pixels.
	PositionTolerance float64 `json:"position_tolerance" validate:"gte=0"`
	// SizeTolerance is the largest tolerated dw or dh, in pixels.
	SizeTolerance float64 `json:"size_tolerance" validate:"gte=0"`
	// MaxKeys caps how many of the original's interactive keys, in insertion order, are
	// considered. Keys absent locally still count toward the cap.
	MaxKeys int `json:"max_keys" validate:"gte=1"`
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{
		LinkDeltaThreshold: 5,
		PositionTolerance:  20,
		SizeTolerance:      40,
		MaxKeys:            50,
	}
}

// Diff compares original against local. The result depends only on its inputs.
func Diff(original, local *types.StructuralFingerprint, policy Policy) *types.DiffReport {
	report := &types.DiffReport{
		URLOriginal: original.URL,
		URLLocal:    local.URL,
		Counts:      make(map[string]types.CountDelta, len(original.Counts)),
		Landmarks:   make(map[string]types.FlagMatch, len(original.Landmarks)),
		Components:  make(map[string]types.FlagMatch, len(trackedComponents)),
		Notes:       []string{},
		Mismatches:  []types.Mismatch{},
		BBoxSamples: []types.BBoxSample{},
	}

	for k, o := range original.Counts {
		l := local.Counts[k]
		report.Counts[k] = types.CountDelta{Original: o, Local: l, Delta: l - o}
	}
	for k, o := range original.Landmarks {
		l := local.Landmarks[k]
		report.Landmarks[k] = types.FlagMatch{Original: o, Local: l, Match: o == l}
	}
	for _, k := range trackedComponents {
		o, l := original.Components[k], local.Components[k]
		report.Components[k] = types.FlagMatch{Original: o, Local: l, Match: o == l}
	}

	add := func(m types.Mismatch) {
		report.Mismatches = append(report.Mismatches, m)
		report.Notes = append(report.Notes, Message(m))
	}

	oh1, lh1 := original.KeyText(types.KeyTextH1), local.KeyText(types.KeyTextH1)
	if oh1 != nil && lh1 != nil && *oh1 != *lh1 {
		add(types.Mismatch{Kind: types.MismatchH1Text, Key: types.KeyTextH1})
	}
	if d := local.Counts[types.CountLinks] - original.Counts[types.CountLinks]; abs(d) > policy.LinkDeltaThreshold {
		add(types.Mismatch{Kind: types.MismatchLinkCount, Key: types.CountLinks, Delta: d})
	}
	if original.Landmarks[types.LandmarkHeader] != local.Landmarks[types.LandmarkHeader] {
		add(types.Mismatch{Kind: types.MismatchHeaderLandmark, Key: types.LandmarkHeader})
	}
	if original.Landmarks[types.LandmarkFooter] != local.Landmarks[types.LandmarkFooter] {
		add(types.Mismatch{Kind: types.MismatchFooterLandmark, Key: types.LandmarkFooter})
	}
	if original.Components[types.ComponentWNav] != local.Components[types.ComponentWNav] {
		add(types.Mismatch{Kind: types.MismatchNavComponent, Key: types.ComponentWNav})
	}

	for _, sample := range bboxSamples(original.Interactive, local.Interactive, policy.MaxKeys) {
		report.BBoxSamples = append(report.BBoxSamples, sample)
		d := sample.Deltas
		if d.DX > policy.PositionTolerance || d.DY > policy.PositionTolerance ||
			d.DW > policy.SizeTolerance || d.DH > policy.SizeTolerance {
			add(types.Mismatch{Kind: types.MismatchBBox, Key: sample.Key, Deltas: &d})
		}
	}

	return report
}

var trackedComponents = []string{types.ComponentWNav, types.ComponentNavbarLinkClass}

// InteractiveKey identifies an interactive element across two fingerprints.
func InteractiveKey(el types.InteractiveElement) string {
	if el.Href != nil && *el.Href != "" {
		return "href:" + *el.Href
	}
	return "text:" + strings.ToLower(strings.TrimSpace(el.Text))
}

// keyed indexes elements by key, first occurrence wins, and returns the keys in
// insertion order.
func keyed(elements []types.InteractiveElement) ([]string, map[string]types.InteractiveElement) {
	order := make([]string, 0, len(elements))
	byKey := make(map[string]types.InteractiveElement, len(elements))
	for _, el := range elements {
		k := InteractiveKey(el)
		if _, seen := byKey[k]; seen {
			continue
		}
		byKey[k] = el
		order = append(order, k)
	}
	return order, byKey
}

func bboxSamples(original, local []types.InteractiveElement, maxKeys int) []types.BBoxSample {
	origKeys, origByKey := keyed(original)
	_, localByKey := keyed(local)

	if len(origKeys) > maxKeys {
		origKeys = origKeys[:maxKeys]
	}

	var samples []types.BBoxSample
	for _, k := range origKeys {
		l, ok := localByKey[k]
		if !ok {
			continue
		}
		o := origByKey[k]
		samples = append(samples, types.BBoxSample{
			Key:      k,
			Original: o.BBox,
			Local:    l.BBox,
			Deltas: types.BBoxDeltas{
				DX: math.Abs(o.BBox.X - l.BBox.X),
				DY: math.Abs(o.BBox.Y - l.BBox.Y),
				DW: math.Abs(o.BBox.W - l.BBox.W),
				DH: math.Abs(o.BBox.H - l.BBox.H),
			},
		})
	}
	return samples
}

// SortedKeys returns the keys of a count map in lexical order.
func SortedKeys(m map[string]types.CountDelta) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
