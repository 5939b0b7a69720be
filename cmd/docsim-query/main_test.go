package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/docsim/internal/cli"
	"github.com/cognicore/docsim/pkg/docsim/analyzer"
	"github.com/cognicore/docsim/pkg/docsim/ingest"
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
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr bool
	}{
		{
			name: "label",
			args: []string{"-config", "c.yaml", "-label", "a.txt", "-topn", "3"},
			want: options{configPath: "c.yaml", label: "a.txt", topN: 3},
		},
		{
			name: "text with model id",
			args: []string{"-text", "野球の試合", "-model-id", "01HX"},
			want: options{text: "野球の試合", modelID: "01HX"},
		},
		{name: "neither", args: []string{"-topn", "2"}, wantErr: true},
		{name: "both", args: []string{"-label", "a", "-text", "b"}, wantErr: true},
		{name: "negative topn", args: []string{"-label", "a", "-topn", "-1"}, wantErr: true},
		{name: "unknown flag", args: []string{"-label", "a", "-bogus"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(cli.EnvConfig, "")
			got, err := parseFlags(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// seedModel trains a model into the store named by the config at cfgPath.
func seedModel(t *testing.T, cfgPath string) string {
	t.Helper()
	ctx := context.Background()
	cfg, err := cli.LoadConfig(cfgPath)
	require.NoError(t, err)

	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	engine, cleanup, err := cli.BuildEngine(ctx, cfg, logrus.NewEntry(l), spaceFactory)
	require.NoError(t, err)
	defer cleanup()

	info, err := engine.Train(ctx, []ingest.Doc{
		{Label: "baseball-1.txt", Text: "pitcher batter inning umpire pitcher batter"},
		{Label: "baseball-2.txt", Text: "batter inning umpire glove pitcher"},
		{Label: "cooking-1.txt", Text: "recipe broth miso knife recipe"},
	})
	require.NoError(t, err)
	return info.ID
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "docsim.yaml")
	cfg := "model:\n  path: " + filepath.Join(dir, "docsim.db") + "\n  vector_size: 8\n  min_count: 1\n  epochs: 20\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func TestRunByLabel(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir())
	id := seedModel(t, cfgPath)

	var out bytes.Buffer
	err := run(context.Background(), options{configPath: cfgPath, label: "baseball-1.txt", topN: 1}, spaceFactory, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], id)
	assert.Contains(t, lines[1], "1. ")
	assert.NotContains(t, lines[1], "baseball-1.txt")
}

func TestRunByText(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir())
	id := seedModel(t, cfgPath)

	var out bytes.Buffer
	err := run(context.Background(), options{configPath: cfgPath, text: "recipe miso broth", modelID: id}, spaceFactory, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "cooking-1.txt")
}

func TestRunUnknownLabel(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir())
	seedModel(t, cfgPath)

	err := run(context.Background(), options{configPath: cfgPath, label: "missing.txt"}, spaceFactory, &bytes.Buffer{})
	assert.True(t, errors.Is(err, internalerr.ErrUnknownLabel))
}

func TestRunWithoutModel(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir())

	err := run(context.Background(), options{configPath: cfgPath, label: "a.txt"}, spaceFactory, &bytes.Buffer{})
	assert.True(t, errors.Is(err, internalerr.ErrNoModel))
}
