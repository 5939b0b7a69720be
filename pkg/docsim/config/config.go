package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/docsim/pkg/docsim/embed"
	"github.com/cognicore/docsim/pkg/docsim/internalerr"
	"github.com/cognicore/docsim/pkg/docsim/stoplist"
)

// Config is the on-disk configuration of a docsim run.
type Config struct {
	Corpus   Corpus   `yaml:"corpus"`
	Analyzer Analyzer `yaml:"analyzer"`
	Stoplist Stop     `yaml:"stoplist"`
	Model    Model    `yaml:"model"`
	Query    Query    `yaml:"query"`
	Workers  int      `yaml:"workers"`
	Log      Log      `yaml:"log"`
}

// Corpus locates the source documents.
type Corpus struct {
	Dir     string `yaml:"dir"`
	Pattern string `yaml:"pattern"`
}

// Analyzer selects the morphological dictionary.
type Analyzer struct {
	Dict     string `yaml:"dict"`
	UserDict string `yaml:"user_dict"`
	PoolSize int    `yaml:"pool_size"`
}

// Stop configures the stop-word filter. Terms from Path and Terms are merged.
type Stop struct {
	Path           string   `yaml:"path"`
	Terms          []string `yaml:"terms"`
	SingleHiragana *bool    `yaml:"single_hiragana"`
}

// DropSingleHiragana reports whether one-character hiragana tokens are removed.
func (s Stop) DropSingleHiragana() bool {
	return s.SingleHiragana == nil || *s.SingleHiragana
}

// Model configures training and where the model is stored.
type Model struct {
	Path          string `yaml:"path"`
	embed.Options `yaml:",inline"`
}

// Query configures similarity lookups.
type Query struct {
	TopN int `yaml:"top_n"`
}

// Log configures logging output.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Corpus:   Corpus{Dir: "./corpus", Pattern: "*.txt"},
		Analyzer: Analyzer{PoolSize: 2},
		Stoplist: Stop{Terms: append([]string(nil), stoplist.DefaultTerms...)},
		Model:    Model{Path: "models/docsim.db", Options: embed.DefaultOptions()},
		Query:    Query{TopN: embed.DefaultTopN},
		Workers:  4,
		Log:      Log{Level: "info", Format: "text"},
	}
}

// Load reads a YAML configuration file on top of Default. Relative stoplist
// and dictionary paths are taken relative to the file's directory; corpus
// and model paths stay relative to the working directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	dir := filepath.Dir(path)
	cfg.Stoplist.Path = resolve(dir, cfg.Stoplist.Path)
	cfg.Analyzer.Dict = resolve(dir, cfg.Analyzer.Dict)
	cfg.Analyzer.UserDict = resolve(dir, cfg.Analyzer.UserDict)
	cfg.Model.Options = cfg.Model.Options.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Validate checks the configuration for values no run can use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Corpus.Dir) == "" {
		return fmt.Errorf("%w: corpus.dir is required", internalerr.ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Corpus.Pattern) == "" {
		return fmt.Errorf("%w: corpus.pattern is required", internalerr.ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Model.Path) == "" {
		return fmt.Errorf("%w: model.path is required", internalerr.ErrInvalidConfig)
	}
	if c.Analyzer.PoolSize < 0 {
		return fmt.Errorf("%w: analyzer.pool_size must not be negative", internalerr.ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", internalerr.ErrInvalidConfig)
	}
	if c.Query.TopN < 0 {
		return fmt.Errorf("%w: query.top_n must not be negative", internalerr.ErrInvalidConfig)
	}
	return c.Model.Options.Validate()
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}
