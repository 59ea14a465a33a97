package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	// Change to temp dir so no stray config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "statutes.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "https://laws.boe.gov.sa", cfg.Fetch.BaseURL)
	assert.Equal(t, 30, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.InDelta(t, 2.0, cfg.Fetch.RatePerSec, 0.001)
	assert.Equal(t, 4, cfg.Parse.Workers)
	assert.Equal(t, 2, cfg.Parse.MinWords)
	assert.InDelta(t, 0.5, cfg.Parse.DOMFallbackRatio, 0.001)
	assert.Equal(t, 500, cfg.Parse.MaxNewTextRunes)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrentLaws)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "pdftotext", cfg.OCR.PdfToTextPath)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/statutes
log:
  level: debug
  format: console
parse:
  workers: 8
  corrections_file: corrections.yaml
batch:
  max_concurrent_laws: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/statutes", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 8, cfg.Parse.Workers)
	assert.Equal(t, "corrections.yaml", cfg.Parse.CorrectionsFile)
	assert.Equal(t, 10, cfg.Batch.MaxConcurrentLaws)
	// Defaults still apply for unset values
	assert.Equal(t, 500, cfg.Parse.MaxNewTextRunes)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("STATUTE_STORE_DRIVER", "postgres")
	t.Setenv("STATUTE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("STATUTE_SERVER_PORT", "3000")
	t.Setenv("STATUTE_FETCH_RATE_PER_SEC", "0.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.InDelta(t, 0.5, cfg.Fetch.RatePerSec, 0.001)
}

func TestLoadBadYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
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

// validDefaults returns a Config with the loaded defaults for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "statutes.db"
	cfg.Fetch.BaseURL = "https://laws.boe.gov.sa"
	cfg.Fetch.RatePerSec = 2
	cfg.Fetch.MaxRetries = 3
	cfg.Parse.Workers = 4
	cfg.Parse.DOMFallbackRatio = 0.5
	cfg.Batch.MaxConcurrentLaws = 4
	cfg.Server.Port = 8080
	return cfg
}

func TestValidate_AllModes(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"parse", "fetch", "sync", "serve"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidate_Fetch(t *testing.T) {
	cfg := validDefaults()
	cfg.Fetch.BaseURL = ""
	cfg.Fetch.RatePerSec = 0

	err := cfg.Validate("fetch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch.base_url is required")
	assert.Contains(t, err.Error(), "fetch.rate_per_sec must be > 0")

	// Parsing local files does not touch the network settings.
	assert.NoError(t, cfg.Validate("parse"))
}

func TestValidate_ServeInvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidate_Store(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("parse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `store.driver "mysql" must be sqlite or postgres`)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidate_Bounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Batch.MaxConcurrentLaws = 0
	err := cfg.Validate("sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent_laws must be between 1 and 50")

	cfg.Batch.MaxConcurrentLaws = 50
	cfg.Parse.DOMFallbackRatio = 1.5
	err = cfg.Validate("sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dom_fallback_ratio")

	cfg.Parse.DOMFallbackRatio = 0.5
	cfg.Parse.Workers = 0
	err = cfg.Validate("sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse.workers")
}

func TestValidate_UnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
