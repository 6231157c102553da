package types

// MismatchKind classifies a difference found between two fingerprints.
type MismatchKind string

const (
	MismatchH1Text         MismatchKind = "h1_text"
	MismatchLinkCount      MismatchKind = "link_count"
	MismatchHeaderLandmark MismatchKind = "header_landmark"
	MismatchFooterLandmark MismatchKind = "footer_landmark"
	MismatchNavComponent   MismatchKind = "nav_component"
	MismatchBBox           MismatchKind = "bbox"
)

// CountDelta compares one count between original and local.
type CountDelta struct {
	Original int `json:"original"`
	Local    int `json:"local"`
	Delta    int `json:"delta"`
}

// FlagMatch compares one boolean flag between original and local.
type FlagMatch struct {
	Original bool `json:"original"`
	Local    bool `json:"local"`
	Match    bool `json:"match"`
}

// BBoxDeltas holds absolute pixel differences between two boxes.
type BBoxDeltas struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
	DW float64 `json:"dw"`
	DH float64 `json:"dh"`
}

// BBoxSample records a keyed bounding-box comparison.
type BBoxSample struct {
	Key      string     `json:"key"`
	Original BBox       `json:"original"`
	Local    BBox       `json:"local"`
	Deltas   BBoxDeltas `json:"deltas"`
}

// Mismatch is a classified difference. The human-readable note is derived from it.
type Mismatch struct {
	Kind   MismatchKind `json:"kind"`
	Key    string       `json:"key,omitempty"`
	Delta  int          `json:"delta,omitempty"`
	Deltas *BBoxDeltas  `json:"deltas,omitempty"`
}

// DiffReport is the structured comparison of an original and a reproduced fingerprint.
// It is never mutated after synthesis.
type DiffReport struct {
	URLOriginal string                `json:"urlOriginal"`
	URLLocal    string                `json:"urlLocal"`
	Counts      map[string]CountDelta `json:"counts"`
	Landmarks   map[string]FlagMatch  `json:"landmarks"`
	Components  map[string]FlagMatch  `json:"components"`
	Notes       []string              `json:"notes"`
	Mismatches  []Mismatch            `json:"mismatches"`
	BBoxSamples []BBoxSample          `json:"bboxSamples"`
}
