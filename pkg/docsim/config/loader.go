package config

import (
	"fmt"

	"github.com/cognicore/docsim/pkg/docsim/analyzer"
	"github.com/cognicore/docsim/pkg/docsim/embed"
	"github.com/cognicore/docsim/pkg/docsim/ingest"
	"github.com/cognicore/docsim/pkg/docsim/stoplist"
)

// Loader builds pipeline components from a configuration.
type Loader struct {
	Config *Config

	// Factory overrides analyzer construction; nil uses kagome with the
	// configured dictionaries.
	Factory analyzer.Factory
}

// Components holds all loaded configuration components
type Components struct {
	Pipeline *ingest.Pipeline
	Pool     *analyzer.Pool
	Stoplist *stoplist.Manager
	Training embed.Options
}

// Close releases the analyzer pool.
func (c *Components) Close() error {
	if c == nil || c.Pool == nil {
		return nil
	}
	return c.Pool.Close()
}

// Load reads the referenced files and returns initialized components. Any
// analyzer failure is returned before a document could be processed.
func (l *Loader) Load() (*Components, error) {
	cfg := l.Config
	if cfg == nil {
		cfg = Default()
	}

	// Load stoplist
	terms := append([]string(nil), cfg.Stoplist.Terms...)
	if cfg.Stoplist.Path != "" {
		sl, err := LoadStoplist(cfg.Stoplist.Path)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		terms = append(terms, sl.Terms...)
	}
	stops := stoplist.NewManager(terms)

	// Build analyzers
	factory := l.Factory
	if factory == nil {
		res, err := analyzer.LoadResources(analyzer.Options{
			DictPath:     cfg.Analyzer.Dict,
			UserDictPath: cfg.Analyzer.UserDict,
		})
		if err != nil {
			return nil, err
		}
		factory = analyzer.KagomeFactory(res)
	}
	pool, err := analyzer.NewPool(cfg.Analyzer.PoolSize, factory)
	if err != nil {
		return nil, fmt.Errorf("build analyzer pool: %w", err)
	}

	pipeline := ingest.NewPipeline(
		ingest.NewTokenizer(pool),
		ingest.NewStopFilter(stops, cfg.Stoplist.DropSingleHiragana()),
	)

	return &Components{
		Pipeline: pipeline,
		Pool:     pool,
		Stoplist: stops,
		Training: cfg.Model.Options.WithDefaults(),
	}, nil
}
