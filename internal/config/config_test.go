package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/speechmark/internal/classifications"
	"github.com/JaimeStill/speechmark/internal/config"
)

const baseConfig = `
shutdown_timeout = "20s"
version = "1.2.3"

[server]
port = 9000

[api]
base_path = "/v1"
max_body_size = "1MB"
fetch_timeout = "5s"

[api.pagination]
default_page_size = 10
max_page_size = 50

[documents]
workers = 2

[classifier]
provider = "remote"
base_url = "http://tagger.local/tag"
threshold = 0.5

[labels]
file = "labels.yaml"
watch = true

[logging]
level = "debug"
format = "json"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:7420", cfg.Server.Addr())
	assert.Equal(t, "/api", cfg.API.BasePath)
	assert.Equal(t, int64(4<<20), cfg.API.MaxBodySizeBytes())
	assert.Equal(t, 30*time.Second, cfg.API.FetchTimeoutDuration())
	assert.Equal(t, 20, cfg.API.Pagination.DefaultPageSize)
	assert.Equal(t, classifications.ProviderLexicon, cfg.Classifier.Provider)
	assert.InDelta(t, classifications.DefaultThreshold, cfg.Classifier.ThresholdValue(), 1e-9)
	assert.Positive(t, cfg.Documents.Workers)
	assert.Equal(t, 256, cfg.Documents.MailboxSize)
	assert.Empty(t, cfg.Labels.File)
	assert.Equal(t, 250*time.Millisecond, cfg.Labels.DebounceDuration())
	assert.Equal(t, slog.LevelInfo, cfg.Logging.SlogLevel())
	assert.Equal(t, config.LogFormatText, cfg.Logging.Format)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeoutDuration())
	assert.Equal(t, "local", cfg.Env())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "speechmark.toml", baseConfig)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/v1", cfg.API.BasePath)
	assert.Equal(t, int64(1<<20), cfg.API.MaxBodySizeBytes())
	assert.Equal(t, 5*time.Second, cfg.API.FetchTimeoutDuration())
	assert.Equal(t, 10, cfg.API.Pagination.DefaultPageSize)
	assert.Equal(t, 2, cfg.Documents.Workers)
	assert.Equal(t, classifications.ProviderRemote, cfg.Classifier.Provider)
	assert.InDelta(t, 0.5, cfg.Classifier.ThresholdValue(), 1e-9)
	assert.Equal(t, "labels.yaml", cfg.Labels.File)
	assert.True(t, cfg.Labels.Watch)
	assert.Equal(t, slog.LevelDebug, cfg.Logging.SlogLevel())
	assert.Equal(t, config.LogFormatJSON, cfg.Logging.Format)
	assert.Equal(t, "1.2.3", cfg.Version)
	assert.Equal(t, 20*time.Second, cfg.ShutdownTimeoutDuration())
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", baseConfig)
	writeFile(t, dir, "config.test.toml", `
[server]
port = 9100

[classifier]
model = "gpt-4.1-mini"
`)
	t.Setenv(config.EnvSpeechmarkEnv, "test")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env())
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "gpt-4.1-mini", cfg.Classifier.Model)
	assert.Equal(t, "/v1", cfg.API.BasePath, "base value kept")
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", baseConfig)

	t.Setenv(config.EnvServerPort, "9200")
	t.Setenv(config.EnvAPIFetchTimeout, "1s")
	t.Setenv("SPEECHMARK_DOCUMENTS_WORKERS", "8")
	t.Setenv("SPEECHMARK_CLASSIFIER_PROVIDER", "lexicon")
	t.Setenv(config.EnvLabelsWatch, "false")
	t.Setenv(config.EnvLoggingLevel, "warn")
	t.Setenv("SPEECHMARK_PAGINATION_MAX_PAGE_SIZE", "75")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, time.Second, cfg.API.FetchTimeoutDuration())
	assert.Equal(t, 8, cfg.Documents.Workers)
	assert.Equal(t, classifications.ProviderLexicon, cfg.Classifier.Provider)
	assert.False(t, cfg.Labels.Watch)
	assert.Equal(t, slog.LevelWarn, cfg.Logging.SlogLevel())
	assert.Equal(t, 75, cfg.API.Pagination.MaxPageSize)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed toml", "[server\nport = 1"},
		{"bad port", "[server]\nport = 70000"},
		{"bad fetch timeout", "[api]\nfetch_timeout = \"soon\""},
		{"bad body size", "[api]\nmax_body_size = \"lots\""},
		{"unknown provider", "[classifier]\nprovider = \"oracle\""},
		{"remote without url", "[classifier]\nprovider = \"remote\""},
		{"watch without file", "[labels]\nwatch = true"},
		{"label file extension", "[labels]\nfile = \"labels.txt\""},
		{"log format", "[logging]\nformat = \"xml\""},
		{"log level", "[logging]\nlevel = \"chatty\""},
		{"shutdown timeout", "shutdown_timeout = \"later\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.toml", tt.content)
			_, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
