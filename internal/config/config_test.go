package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))
	return tmpFile
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeConfig(t, `{
		"out_dir": "out",
		"local_base_url": "http://localhost:4000",
		"concurrency": 8,
		"size_tolerance": 60,
		"blocked_domains": ["hotjar.com"],
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "out", cfg.OutDir)
	assert.Equal(t, "http://localhost:4000", cfg.LocalBaseURL)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 60.0, cfg.SizeTolerance)
	assert.Equal(t, []string{"hotjar.com"}, cfg.BlockedDomains)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{ invalid json }`))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestValidate(t *testing.T) {
	notADir := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(notADir, []byte("x"), 0644))

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "empty config", cfg: Config{}},
		{name: "defaults", cfg: Defaults()},
		{name: "negative concurrency", cfg: Config{Concurrency: -1}, wantErr: "Concurrency"},
		{name: "negative tolerance", cfg: Config{PositionTolerance: -3}, wantErr: "PositionTolerance"},
		{name: "bad blocked domain", cfg: Config{BlockedDomains: []string{"not a host"}}, wantErr: "BlockedDomains"},
		{name: "relative local base", cfg: Config{LocalBaseURL: "localhost:5173"}, wantErr: "local_base_url"},
		{name: "out dir is a file", cfg: Config{OutDir: notADir}, wantErr: "out_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{OutDir: "custom", SizeTolerance: 80}

	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, "custom", merged.OutDir)
	assert.Equal(t, 80.0, merged.SizeTolerance)
	assert.Equal(t, DefaultLocalBaseURL, merged.LocalBaseURL)
	assert.Equal(t, 5, merged.LinkDeltaThreshold)
	assert.Equal(t, 20.0, merged.PositionTolerance)
	assert.Equal(t, 50, merged.MaxKeys)
	assert.Equal(t, int64(1920), merged.ViewportWidth)
	assert.NotEmpty(t, merged.BlockedDomains)

	// Original is untouched
	assert.Empty(t, cfg.LocalBaseURL)
}

func TestMergeWithDefaults_EmptyBlockListIsKept(t *testing.T) {
	cfg := Config{BlockedDomains: []string{}}
	merged := cfg.MergeWithDefaults(Defaults())
	assert.Empty(t, merged.BlockedDomains)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/cloner")
	t.Setenv("SITE_CLONER_OUT", "/tmp/sites")

	cfg := Config{}
	cfg.ApplyEnv()
	assert.Equal(t, "postgres://localhost/cloner", cfg.DatabaseURL)
	assert.Equal(t, "/tmp/sites", cfg.OutDir)

	explicit := Config{OutDir: "mine"}
	explicit.ApplyEnv()
	assert.Equal(t, "mine", explicit.OutDir)
}

func TestPolicyAndBrowserOptions(t *testing.T) {
	cfg := Defaults()
	cfg.IdleTimeoutSeconds = 3
	cfg.UserAgent = "ua"

	policy := cfg.Policy()
	assert.Equal(t, 5, policy.LinkDeltaThreshold)
	assert.Equal(t, 40.0, policy.SizeTolerance)

	opts := cfg.BrowserOptions()
	assert.Equal(t, 3*time.Second, opts.IdleTimeout)
	assert.Equal(t, "ua", opts.HTTP.UserAgent)
	assert.Equal(t, cfg.BlockedDomains, opts.BlockedDomains)
}
