package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
corpus:
  paths: [docs, "notes/*.md"]
  extensions: [.md]
search:
  min_results: 4
  max_candidates: 50
snippet:
  ellipsis: "…"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs", "notes/*.md"}, cfg.Corpus.Paths)
	assert.Equal(t, []string{".md"}, cfg.Corpus.Extensions)
	assert.Equal(t, 4, cfg.Search.MinResults)
	assert.Equal(t, 50, cfg.Search.MaxCandidates)
	assert.Equal(t, 2, cfg.Search.MaxFuzzyDepth)
	assert.Equal(t, 0.01, cfg.Search.MinSimilarity)
	assert.Equal(t, 0.5, cfg.Search.ProximityBoost)
	assert.Equal(t, 0, cfg.Search.Workers)
	assert.Equal(t, 256, cfg.Snippet.Budget)
	assert.Equal(t, "…", cfg.Snippet.Ellipsis)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DOCSEARCH_CORPUS_PATHS", "a,b")
	t.Setenv("DOCSEARCH_SEARCH_MIN_RESULTS", "3")
	t.Setenv("DOCSEARCH_SEARCH_MIN_SIMILARITY", "0.2")
	t.Setenv("DOCSEARCH_SEARCH_WORKERS", "not-a-number")
	t.Setenv("DOCSEARCH_LOGGING_LEVEL", "debug")
	t.Setenv("DOCSEARCH_METRICS_ENABLED", "true")
	t.Setenv("DOCSEARCH_METRICS_ADDR", "127.0.0.1:9100")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cfg.Corpus.Paths)
	assert.Equal(t, 3, cfg.Search.MinResults)
	assert.Equal(t, 0.2, cfg.Search.MinSimilarity)
	assert.Equal(t, 0, cfg.Search.Workers, "unparsable values are ignored")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Addr)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")
	cfg := defaultConfig()
	cfg.Search.MinResults = 7
	cfg.Logging.File = "/tmp/docsearch.log"
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadDefaultWritesUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "docsearch", "config.yaml"), path)
	assert.Equal(t, defaultConfig(), cfg)
	assert.FileExists(t, path)

	require.NoError(t, os.WriteFile("config.yaml", []byte("search:\n  min_results: 2\n"), 0o644))
	cfg, path, err = LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", path)
	assert.Equal(t, 2, cfg.Search.MinResults)
}
