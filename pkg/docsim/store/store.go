package store

import (
	"context"
	"time"
)

// Store persists the labeled corpus and trained models.
type Store interface {
	Close() error

	// Docs
	UpsertDoc(ctx context.Context, d Doc) error
	GetDoc(ctx context.Context, label string) (Doc, bool, error)
	ListDocs(ctx context.Context) ([]Doc, error)

	// Models
	SaveModel(ctx context.Context, m Model) error
	LoadModel(ctx context.Context, id string) (Model, error)
	LatestModel(ctx context.Context) (Model, bool, error)
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// Doc is a labeled token sequence as fed to training.
type Doc struct {
	Label     string
	Tokens    []string
	UpdatedAt time.Time
}

// ModelInfo describes a stored model without its weights.
type ModelInfo struct {
	ID         string
	CreatedAt  time.Time
	VectorSize int
	MinCount   int
	Epochs     int
	Negative   int
	Alpha      float64
	MinAlpha   float64
	Seed       uint64
	Docs       int
	Words      int
}

// Model is a complete stored model. Labels and DocVectors are parallel, as
// are Words, Counts and Output.
type Model struct {
	Info       ModelInfo
	Labels     []string
	DocVectors [][]float32
	Words      []string
	Counts     []int64
	Output     [][]float32
}
