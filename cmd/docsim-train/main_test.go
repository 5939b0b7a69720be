package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/docsim/internal/cli"
	"github.com/cognicore/docsim/pkg/docsim/analyzer"
	"github.com/cognicore/docsim/pkg/docsim/internalerr"
)

type spaceAnalyzer struct{}

func (spaceAnalyzer) Analyze(text string) []analyzer.Morpheme {
	var out []analyzer.Morpheme
	for _, f := range strings.Fields(text) {
		out = append(out, analyzer.Morpheme{Surface: f, POS: "名詞"})
	}
	return out
}

func spaceFactory() (analyzer.Analyzer, error) { return spaceAnalyzer{}, nil }

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-config", "docsim.yaml", "-corpus", "texts", "-model", "m.db", "-probe", "a.txt"})
	require.NoError(t, err)
	assert.Equal(t, options{configPath: "docsim.yaml", corpusDir: "texts", modelPath: "m.db", probe: "a.txt"}, opts)
}

func TestParseFlagsConfigFromEnv(t *testing.T) {
	t.Setenv(cli.EnvConfig, "from-env.yaml")

	opts, err := parseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env.yaml", opts.configPath)
}

func TestParseFlagsRejectsExtraArgs(t *testing.T) {
	_, err := parseFlags([]string{"stray"})
	assert.Error(t, err)
}

func TestParseFlagsHelp(t *testing.T) {
	_, err := parseFlags([]string{"-h"})
	assert.True(t, errors.Is(err, flag.ErrHelp))
}

func writeCorpus(t *testing.T, dir string) {
	t.Helper()
	docs := map[string]string{
		"baseball-1.txt": "pitcher batter inning umpire pitcher batter",
		"baseball-2.txt": "batter inning umpire glove pitcher",
		"cooking-1.txt":  "recipe broth miso knife recipe",
		"notes.md":       "ignored by the pattern",
	}
	for name, text := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644))
	}
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "docsim.yaml")
	cfg := `
model:
  vector_size: 8
  min_count: 1
  epochs: 20
log:
  level: error
`
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func TestRunTrainsAndProbes(t *testing.T) {
	dir := t.TempDir()
	corpusDir := filepath.Join(dir, "corpus")
	require.NoError(t, os.Mkdir(corpusDir, 0o755))
	writeCorpus(t, corpusDir)

	var out bytes.Buffer
	err := run(context.Background(), options{
		configPath: writeConfig(t, dir),
		corpusDir:  corpusDir,
		modelPath:  filepath.Join(dir, "models", "docsim.db"),
		probe:      "baseball-1.txt",
	}, spaceFactory, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "3 documents")
	assert.Contains(t, out.String(), "Most similar to baseball-1.txt:")
	assert.Contains(t, out.String(), "baseball-2.txt")
	assert.Contains(t, out.String(), "cooking-1.txt")
	assert.NotContains(t, out.String(), "notes.md")
}

func TestRunUnknownProbe(t *testing.T) {
	dir := t.TempDir()
	writeCorpus(t, dir)

	err := run(context.Background(), options{
		configPath: writeConfig(t, dir),
		corpusDir:  dir,
		modelPath:  filepath.Join(dir, "docsim.db"),
		probe:      "missing.txt",
	}, spaceFactory, &bytes.Buffer{})
	assert.True(t, errors.Is(err, internalerr.ErrUnknownLabel))
}

func TestRunMissingCorpus(t *testing.T) {
	dir := t.TempDir()

	err := run(context.Background(), options{
		configPath: writeConfig(t, dir),
		corpusDir:  filepath.Join(dir, "missing"),
		modelPath:  filepath.Join(dir, "docsim.db"),
	}, spaceFactory, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRunEmptyCorpus(t *testing.T) {
	dir := t.TempDir()

	err := run(context.Background(), options{
		configPath: writeConfig(t, dir),
		corpusDir:  dir,
		modelPath:  filepath.Join(dir, "docsim.db"),
	}, spaceFactory, &bytes.Buffer{})
	assert.True(t, errors.Is(err, internalerr.ErrEmptyCorpus))
}

func TestRunFromStore(t *testing.T) {
	dir := t.TempDir()
	writeCorpus(t, dir)
	opts := options{
		configPath: writeConfig(t, dir),
		corpusDir:  dir,
		modelPath:  filepath.Join(dir, "docsim.db"),
	}
	require.NoError(t, run(context.Background(), opts, spaceFactory, &bytes.Buffer{}))

	require.NoError(t, os.Remove(filepath.Join(dir, "cooking-1.txt")))
	opts.fromStore = true
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), opts, spaceFactory, &out))
	assert.Contains(t, out.String(), "3 documents", "stored sequences survive the source file")
}

func TestParseFlagsFromStore(t *testing.T) {
	opts, err := parseFlags([]string{"-from-store"})
	require.NoError(t, err)
	assert.True(t, opts.fromStore)
}
