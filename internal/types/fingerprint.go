// Package types provides type definitions for structured data used throughout the site-cloner system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "github.com/go-playground/validator/v10"

// Capture limits applied to a structural fingerprint to bound report size.
const (
	MaxInteractive  = 100
	MaxSectionBoxes = 20
	MaxSections     = 20
	MaxTextLength   = 120
	MaxClassLength  = 120
	MaxSectionClass = 200
)

// Landmark names tracked in StructuralFingerprint.Landmarks.
const (
	LandmarkHeader     = "header"
	LandmarkFooter     = "footer"
	LandmarkHeroLikely = "heroLikely"
)

// Count names tracked in StructuralFingerprint.Counts.
const (
	CountH1        = "h1"
	CountH2        = "h2"
	CountH3        = "h3"
	CountLinks     = "links"
	CountImages    = "images"
	CountVideos    = "videos"
	CountSections  = "sections"
	CountButtons   = "buttons"
	CountNavLinks  = "navLinks"
	CountNavbars   = "navbars"
	CountDropdowns = "dropdowns"
)

// Key text names tracked in StructuralFingerprint.KeyTexts.
const (
	KeyTextH1         = "h1"
	KeyTextPrimaryCTA = "primaryCta"
	KeyTextNavFirst   = "navFirst"
)

// Component flags tracked in StructuralFingerprint.Components.
const (
	ComponentWNav            = "hasWNav"
	ComponentNavbarLinkClass = "hasNavbarLinkClass"
	ComponentWebflowScripts  = "webflowScripts"
)

// Box names tracked in StructuralFingerprint.Boxes.
const (
	BoxHeader = "header"
	BoxHero   = "hero"
	BoxFooter = "footer"
)

// BBox is an axis-aligned bounding box in viewport pixels, captured post-layout.
type BBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w" validate:"gte=0"`
	H float64 `json:"h" validate:"gte=0"`
}

// InteractiveElement is a visible link or button on the page.
type InteractiveElement struct {
	Tag  string  `json:"tag" validate:"required"`
	Text string  `json:"text" validate:"max=120"`
	Href *string `json:"href"`
	BBox BBox    `json:"bbox"`
}

// SectionBox is the geometry of one <section> element.
type SectionBox struct {
	Index     int    `json:"index" validate:"gte=0"`
	ClassName string `json:"className" validate:"max=120"`
	BBox      BBox   `json:"bbox"`
}

// Section is a top-level structural element (header, main, section, footer).
type Section struct {
	Tag       string `json:"tag" validate:"required"`
	ClassName string `json:"className" validate:"max=200"`
}

// StructuralFingerprint is the normalized structural summary of a rendered page.
// Fingerprints are immutable once produced.
type StructuralFingerprint struct {
	URL          string               `json:"url" validate:"required"`
	Title        string               `json:"title"`
	Landmarks    map[string]bool      `json:"landmarks"`
	Counts       map[string]int       `json:"counts" validate:"dive,gte=0"`
	KeyTexts     map[string]*string   `json:"keyTexts"`
	Components   map[string]bool      `json:"components"`
	Boxes        map[string]*BBox     `json:"boxes"`
	Interactive  []InteractiveElement `json:"interactive" validate:"max=100,dive"`
	SectionBoxes []SectionBox         `json:"sectionBoxes" validate:"max=20,dive"`
	Sections     []Section            `json:"sections" validate:"max=20,dive"`
}

// KeyText returns the named key text, or nil when absent.
func (f *StructuralFingerprint) KeyText(name string) *string {
	if f == nil || f.KeyTexts == nil {
		return nil
	}
	return f.KeyTexts[name]
}

// Validate checks the fingerprint's field constraints using the validator.
func (f *StructuralFingerprint) Validate() error {
	validate := validator.New()
	return validate.Struct(f)
}
