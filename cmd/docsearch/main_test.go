package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"docsearch/internal/corpus"
)

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc1.txt"), []byte("the cat sat"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc2.txt"), []byte("the dog ran"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("cat notes"), 0o644))
	return dir
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"docsearch"}, args...))
	return out.String(), err
}

const quietConfig = `
search:
  min_results: 1
logging:
  level: error
`

func TestQueryCommand(t *testing.T) {
	dir := writeCorpus(t)
	cfg := writeConfig(t, quietConfig)

	out, err := run(t, "--config", cfg, "query", "--path", dir, "cat")
	require.NoError(t, err)
	assert.Equal(t, "1. doc1.txt  (0.7071)\n   the cat sat\n", out)
}

func TestQueryCommandSuggestion(t *testing.T) {
	dir := writeCorpus(t)
	cfg := writeConfig(t, quietConfig)

	out, err := run(t, "--config", cfg, "query", "--path", dir, "xat")
	require.NoError(t, err)
	assert.Contains(t, out, "1. doc1.txt")
	assert.Contains(t, out, "Did you mean: cat\n")
}

func TestQueryCommandExtensions(t *testing.T) {
	dir := writeCorpus(t)
	cfg := writeConfig(t, quietConfig)

	out, err := run(t, "--config", cfg, "--ext", ".md", "--ext", "txt", "query", "--path", dir, "notes")
	require.NoError(t, err)
	assert.Contains(t, out, "notes.md")
}

func TestQueryCommandLimit(t *testing.T) {
	dir := writeCorpus(t)
	cfg := writeConfig(t, "logging:\n  level: error\n")

	out, err := run(t, "--config", cfg, "query", "--path", dir, "--limit", "1", "xat")
	require.NoError(t, err)
	assert.Contains(t, out, "1. ")
	assert.NotContains(t, out, "2. ")
}

func TestQueryCommandErrors(t *testing.T) {
	cfg := writeConfig(t, quietConfig)

	_, err := run(t, "--config", cfg, "query", "--path", t.TempDir())
	assert.EqualError(t, err, "query text is required")

	_, err = run(t, "--config", cfg, "query", "--path", t.TempDir(), "cat")
	assert.ErrorIs(t, err, corpus.ErrNoDocuments)
}

func TestLoadConfigOverrides(t *testing.T) {
	cfgPath := writeConfig(t, quietConfig)
	app := newApp()
	app.Action = func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, []string{".md"}, cfg.Corpus.Extensions)
		assert.Equal(t, 1, cfg.Search.MinResults)
		return nil
	}
	require.NoError(t, app.Run([]string{"docsearch", "--config", cfgPath, "-l", "debug", "--ext", ".md"}))
}
