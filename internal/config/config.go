// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/site-cloner/internal/diff"
	"github.com/jonathan/site-cloner/internal/fetch"
)

// DefaultLocalBaseURL is where the preview server serves reproductions.
const DefaultLocalBaseURL = "http://localhost:5173"

// DefaultOutDir is the root directory for per-site output.
const DefaultOutDir = "sites"

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Output
	OutDir       string `json:"out_dir,omitempty"`        // Root directory for per-site output
	LocalBaseURL string `json:"local_base_url,omitempty"` // Base URL of the locally served reproduction

	// Browser
	NavigationTimeoutSeconds int      `json:"navigation_timeout_seconds,omitempty" validate:"gte=0"`
	IdleTimeoutSeconds       int      `json:"idle_timeout_seconds,omitempty" validate:"gte=0"`
	ViewportWidth            int64    `json:"viewport_width,omitempty" validate:"gte=0"`
	ViewportHeight           int64    `json:"viewport_height,omitempty" validate:"gte=0"`
	DeviceScale              float64  `json:"device_scale,omitempty" validate:"gte=0,lte=4"`
	BlockedDomains           []string `json:"blocked_domains,omitempty" validate:"dive,hostname_rfc1123"`
	UserAgent                string   `json:"user_agent,omitempty"`

	// Assets
	Concurrency int `json:"concurrency,omitempty" validate:"gte=0,lte=64"` // Parallel asset downloads

	// Diff policy
	LinkDeltaThreshold int     `json:"link_delta_threshold,omitempty" validate:"gte=0"`
	PositionTolerance  float64 `json:"position_tolerance,omitempty" validate:"gte=0"`
	SizeTolerance      float64 `json:"size_tolerance,omitempty" validate:"gte=0"`
	MaxKeys            int     `json:"max_keys,omitempty" validate:"gte=0"`

	// Behavior
	Verbose     bool   `json:"verbose,omitempty"`      // Print detailed debug information
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	policy := diff.DefaultPolicy()
	browser := fetch.DefaultBrowserOptions()
	return Config{
		OutDir:                   DefaultOutDir,
		LocalBaseURL:             DefaultLocalBaseURL,
		NavigationTimeoutSeconds: int(browser.NavigationTimeout / time.Second),
		IdleTimeoutSeconds:       int(browser.IdleTimeout / time.Second),
		ViewportWidth:            browser.ViewportWidth,
		ViewportHeight:           browser.ViewportHeight,
		DeviceScale:              browser.DeviceScale,
		BlockedDomains:           fetch.DefaultBlockedDomains,
		UserAgent:                fetch.DefaultUserAgent,
		Concurrency:              4,
		LinkDeltaThreshold:       policy.LinkDeltaThreshold,
		PositionTolerance:        policy.PositionTolerance,
		SizeTolerance:            policy.SizeTolerance,
		MaxKeys:                  policy.MaxKeys,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.LocalBaseURL != "" {
		u, err := url.Parse(c.LocalBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config error: 'local_base_url' must be an absolute http(s) URL: %s", c.LocalBaseURL)
		}
	}

	if c.OutDir != "" {
		if info, err := os.Stat(c.OutDir); err == nil && !info.IsDir() {
			return fmt.Errorf("config error: 'out_dir' is not a directory: %s", c.OutDir)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.OutDir == "" {
		result.OutDir = defaults.OutDir
	}
	if result.LocalBaseURL == "" {
		result.LocalBaseURL = defaults.LocalBaseURL
	}
	if result.UserAgent == "" {
		result.UserAgent = defaults.UserAgent
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.BlockedDomains == nil {
		result.BlockedDomains = defaults.BlockedDomains
	}

	// Numeric fields: use default if zero
	if result.NavigationTimeoutSeconds == 0 {
		result.NavigationTimeoutSeconds = defaults.NavigationTimeoutSeconds
	}
	if result.IdleTimeoutSeconds == 0 {
		result.IdleTimeoutSeconds = defaults.IdleTimeoutSeconds
	}
	if result.ViewportWidth == 0 {
		result.ViewportWidth = defaults.ViewportWidth
	}
	if result.ViewportHeight == 0 {
		result.ViewportHeight = defaults.ViewportHeight
	}
	if result.DeviceScale == 0 {
		result.DeviceScale = defaults.DeviceScale
	}
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}
	if result.LinkDeltaThreshold == 0 {
		result.LinkDeltaThreshold = defaults.LinkDeltaThreshold
	}
	if result.PositionTolerance == 0 {
		result.PositionTolerance = defaults.PositionTolerance
	}
	if result.SizeTolerance == 0 {
		result.SizeTolerance = defaults.SizeTolerance
	}
	if result.MaxKeys == 0 {
		result.MaxKeys = defaults.MaxKeys
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ApplyEnv fills the database URL and output directory from DATABASE_URL and
// SITE_CLONER_OUT when they are not already set.
func (c *Config) ApplyEnv() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.OutDir == "" {
		c.OutDir = os.Getenv("SITE_CLONER_OUT")
	}
}

// Policy returns the diff thresholds.
func (c *Config) Policy() diff.Policy {
	return diff.Policy{
		LinkDeltaThreshold: c.LinkDeltaThreshold,
		PositionTolerance:  c.PositionTolerance,
		SizeTolerance:      c.SizeTolerance,
		MaxKeys:            c.MaxKeys,
	}
}

// BrowserOptions returns the page driver settings.
func (c *Config) BrowserOptions() *fetch.BrowserOptions {
	opts := fetch.DefaultBrowserOptions()
	opts.NavigationTimeout = time.Duration(c.NavigationTimeoutSeconds) * time.Second
	opts.IdleTimeout = time.Duration(c.IdleTimeoutSeconds) * time.Second
	opts.ViewportWidth = c.ViewportWidth
	opts.ViewportHeight = c.ViewportHeight
	opts.DeviceScale = c.DeviceScale
	opts.BlockedDomains = c.BlockedDomains
	opts.Verbose = c.Verbose
	opts.HTTP.UserAgent = c.UserAgent
	return opts
}
