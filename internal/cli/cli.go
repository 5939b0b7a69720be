// Package cli holds the wiring shared by the docsim binaries.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/cognicore/docsim/internal/logging"
	"github.com/cognicore/docsim/pkg/docsim"
	"github.com/cognicore/docsim/pkg/docsim/analyzer"
	"github.com/cognicore/docsim/pkg/docsim/config"
	"github.com/cognicore/docsim/pkg/docsim/store/sqlite"
)

// Environment variables read by the binaries. A .env file in the working
// directory may set them.
const (
	EnvConfig   = "DOCSIM_CONFIG"
	EnvLogLevel = "DOCSIM_LOG_LEVEL"
)

// DefaultConfigPath returns $DOCSIM_CONFIG, or "" for the built-in defaults.
func DefaultConfigPath() string {
	return os.Getenv(EnvConfig)
}

// LoadConfig reads the configuration at path. An empty path yields the
// defaults.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Logger builds the service's log entry from cfg. $DOCSIM_LOG_LEVEL overrides
// the configured level.
func Logger(service string, cfg *config.Config) (*logrus.Entry, error) {
	level := cfg.Log.Level
	if v := os.Getenv(EnvLogLevel); v != "" {
		level = v
	}
	return logging.New(service, level, cfg.Log.Format)
}

// BuildEngine loads the analyzer and stop words, opens the model store and
// returns a ready engine. Analyzer failures are reported before the store is
// touched. factory overrides analyzer construction; nil uses kagome.
func BuildEngine(ctx context.Context, cfg *config.Config, log *logrus.Entry, factory analyzer.Factory) (*docsim.Engine, func(), error) {
	loader := config.Loader{Config: cfg, Factory: factory}
	components, err := loader.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load components: %w", err)
	}

	if dir := filepath.Dir(cfg.Model.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			components.Close()
			return nil, nil, fmt.Errorf("create model dir: %w", err)
		}
	}
	store, err := sqlite.OpenSQLite(ctx, cfg.Model.Path)
	if err != nil {
		components.Close()
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	engine := docsim.New(docsim.Options{
		Store:    store,
		Pipeline: components.Pipeline,
		Training: components.Training,
		Workers:  cfg.Workers,
		Logger:   log,
	})

	cleanup := func() {
		if err := engine.Close(); err != nil {
			log.WithError(err).Warn("close store")
		}
		components.Close()
	}

	return engine, cleanup, nil
}
