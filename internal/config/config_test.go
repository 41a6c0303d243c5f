package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	p := cfg.Pipeline
	assert.Equal(t, "55", p.DDIDefault)
	assert.True(t, p.AssumeDDI)
	assert.Equal(t, 3000, p.BatchSize)
	assert.Equal(t, "CRM_2025", p.Label)
	assert.False(t, p.PhonePrefixPlus)
	assert.Equal(t, 12, p.MinPhoneLen)
	assert.Equal(t, 13, p.MaxPhoneLen)
	assert.Equal(t, " ::: ", p.GroupSeparator)
	assert.Equal(t, 25000, p.ContactLimitWarn)
	assert.True(t, p.DedupeEnabled)
	assert.True(t, p.TreatDotAsEmpty)
	assert.True(t, p.ProtectGoodName)
	assert.True(t, p.RenamePhoneLikeNames)
	assert.True(t, p.ExplodePhones)
	assert.Equal(t, "Cliente", p.FallbackPrefix)
	assert.Equal(t, 200, p.ProgressEvery)
	assert.Zero(t, p.ProgressInterval)
	assert.Equal(t, DefaultPipeline(), p)

	assert.Equal(t, 50, cfg.Validate.PreviewLimit)
	assert.Equal(t, int64(20*1024*1024), cfg.Validate.FastScanLimitBytes)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "contacts.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Columns.Phone)
	assert.Empty(t, cfg.Columns.Profile)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
pipeline:
  ddi_default: "351"
  batch_size: 500
  explode_phones: false
  progress_interval: 250ms
columns:
  phone: Celular
  profile: crm.yaml
store:
  driver: postgres
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "351", cfg.Pipeline.DDIDefault)
	assert.Equal(t, 500, cfg.Pipeline.BatchSize)
	assert.False(t, cfg.Pipeline.ExplodePhones)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.ProgressInterval)
	assert.Equal(t, "Celular", cfg.Columns.Phone)
	assert.Equal(t, "crm.yaml", cfg.Columns.Profile)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, 13, cfg.Pipeline.MaxPhoneLen)
	assert.True(t, cfg.Pipeline.DedupeEnabled)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("CONTACTS_STORE_DRIVER", "sqlite")
	t.Setenv("CONTACTS_LOG_LEVEL", "warn")
	t.Setenv("CONTACTS_PIPELINE_LABEL", "CRM_2026")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "CRM_2026", cfg.Pipeline.Label)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("CONTACTS_SERVER_PORT", "3000")
	t.Setenv("CONTACTS_PIPELINE_DEDUPE_ENABLED", "false")
	t.Setenv("CONTACTS_COLUMNS_NAME", "Cliente")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.False(t, cfg.Pipeline.DedupeEnabled)
	assert.Equal(t, "Cliente", cfg.Columns.Name)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("pipeline: [\n"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestPipelineValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PipelineConfig)
		wantErr string
	}{
		{"defaults", func(*PipelineConfig) {}, ""},
		{"zero batch", func(c *PipelineConfig) { c.BatchSize = 0 }, "batch_size"},
		{"min above max", func(c *PipelineConfig) { c.MinPhoneLen = 14 }, "min_phone_len"},
		{"min equals max", func(c *PipelineConfig) { c.MinPhoneLen = 13 }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultPipeline()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
