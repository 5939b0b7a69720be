package embed

import (
	"fmt"

	"github.com/cognicore/docsim/pkg/docsim/internalerr"
)

// Options configures PV-DBOW training.
type Options struct {
	VectorSize int     `yaml:"vector_size"`
	MinCount   int     `yaml:"min_count"`
	Epochs     int     `yaml:"epochs"`
	Negative   int     `yaml:"negative"`
	Alpha      float64 `yaml:"alpha"`
	MinAlpha   float64 `yaml:"min_alpha"`
	Seed       uint64  `yaml:"seed"`
}

// DefaultOptions mirrors the usual doc2vec defaults with 100 dimensions.
func DefaultOptions() Options {
	return Options{
		VectorSize: 100,
		MinCount:   5,
		Epochs:     10,
		Negative:   5,
		Alpha:      0.025,
		MinAlpha:   0.0001,
		Seed:       1,
	}
}

// WithDefaults fills zero fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	def := DefaultOptions()
	if o.VectorSize == 0 {
		o.VectorSize = def.VectorSize
	}
	if o.MinCount == 0 {
		o.MinCount = def.MinCount
	}
	if o.Epochs == 0 {
		o.Epochs = def.Epochs
	}
	if o.Negative == 0 {
		o.Negative = def.Negative
	}
	if o.Alpha == 0 {
		o.Alpha = def.Alpha
	}
	if o.MinAlpha == 0 {
		o.MinAlpha = def.MinAlpha
	}
	if o.Seed == 0 {
		o.Seed = def.Seed
	}
	return o
}

// Validate rejects options training cannot run with.
func (o Options) Validate() error {
	switch {
	case o.VectorSize <= 0:
		return fmt.Errorf("%w: vector_size must be positive", internalerr.ErrInvalidConfig)
	case o.MinCount < 1:
		return fmt.Errorf("%w: min_count must be at least 1", internalerr.ErrInvalidConfig)
	case o.Epochs <= 0:
		return fmt.Errorf("%w: epochs must be positive", internalerr.ErrInvalidConfig)
	case o.Negative <= 0:
		return fmt.Errorf("%w: negative must be positive", internalerr.ErrInvalidConfig)
	case o.Alpha <= 0 || o.MinAlpha < 0 || o.MinAlpha > o.Alpha:
		return fmt.Errorf("%w: need 0 <= min_alpha <= alpha and alpha > 0", internalerr.ErrInvalidConfig)
	}
	return nil
}
