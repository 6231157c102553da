package db

import (
	"time"

	"github.com/google/uuid"
)

// Run represents a clone run record
type Run struct {
	ID          uuid.UUID  `json:"id"`
	URL         string     `json:"url"`
	Slug        string     `json:"slug"`
	Status      string     `json:"status"`
	CloneMs     *int64     `json:"clone_ms,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Run status values
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ArtifactStep constants for known artifact types
const (
	StepOriginalHTML       = "original_html"
	StepOriginalStyles     = "original_styles"
	StepAssetMap           = "asset_map"
	StepStructureOriginal  = "structure_original"
	StepStructureLocal     = "structure_local"
	StepCompare            = "compare"
	StepCaptureReport      = "capture_report"
	StepManifest           = "manifest"
	StepRunSummary         = "run_summary"
	StepScreenshotOriginal = "screenshot_original"
	StepScreenshotLocal    = "screenshot_local"
)

// Artifact categories
const (
	CategoryCapture     = "capture"
	CategoryFingerprint = "fingerprint"
	CategoryDiff        = "diff"
	CategoryReport      = "report"
	CategoryScreenshot  = "screenshot"
)
