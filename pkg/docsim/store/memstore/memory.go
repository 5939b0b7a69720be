package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/docsim/pkg/docsim/internalerr"
	"github.com/cognicore/docsim/pkg/docsim/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu     sync.RWMutex
	docs   map[string]store.Doc
	models map[string]store.Model
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		docs:   make(map[string]store.Doc),
		models: make(map[string]store.Model),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// UpsertDoc inserts or replaces a document, keyed by label.
func (s *Store) UpsertDoc(ctx context.Context, d store.Doc) error {
	if d.Label == "" {
		return fmt.Errorf("%w: doc label is required", internalerr.ErrInvalidInput)
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[d.Label] = copyDoc(d)
	return nil
}

// GetDoc implements store.Store.
func (s *Store) GetDoc(ctx context.Context, label string) (store.Doc, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[label]
	if !ok {
		return store.Doc{}, false, nil
	}
	return copyDoc(d), true, nil
}

// ListDocs returns all documents ordered by label.
func (s *Store) ListDocs(ctx context.Context) ([]store.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]store.Doc, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, copyDoc(d))
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Label < docs[j].Label })
	return docs, nil
}

// SaveModel implements store.Store.
func (s *Store) SaveModel(ctx context.Context, m store.Model) error {
	if m.Info.ID == "" {
		return fmt.Errorf("%w: model id is required", internalerr.ErrInvalidInput)
	}
	if len(m.Labels) != len(m.DocVectors) || len(m.Words) != len(m.Counts) || len(m.Words) != len(m.Output) {
		return fmt.Errorf("%w: model %s has mismatched parts", internalerr.ErrInvalidInput, m.Info.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.models[m.Info.ID]; exists {
		return fmt.Errorf("%w: model %s", internalerr.ErrInvalidInput, m.Info.ID)
	}
	m = copyModel(m)
	if m.Info.CreatedAt.IsZero() {
		m.Info.CreatedAt = time.Now()
	}
	m.Info.Docs = len(m.Labels)
	m.Info.Words = len(m.Words)
	s.models[m.Info.ID] = m
	return nil
}

// LoadModel implements store.Store.
func (s *Store) LoadModel(ctx context.Context, id string) (store.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[id]
	if !ok {
		return store.Model{}, fmt.Errorf("model %s: %w", id, internalerr.ErrNotFound)
	}
	return copyModel(m), nil
}

// LatestModel returns the model with the greatest id.
func (s *Store) LatestModel(ctx context.Context) (store.Model, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest string
	for id := range s.models {
		if id > latest {
			latest = id
		}
	}
	if latest == "" {
		return store.Model{}, false, nil
	}
	return copyModel(s.models[latest]), true, nil
}

// ListModels returns model descriptions, newest first.
func (s *Store) ListModels(ctx context.Context) ([]store.ModelInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]store.ModelInfo, 0, len(s.models))
	for _, m := range s.models {
		infos = append(infos, m.Info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID > infos[j].ID })
	return infos, nil
}

func copyDoc(d store.Doc) store.Doc {
	d.Tokens = append([]string(nil), d.Tokens...)
	return d
}

func copyModel(m store.Model) store.Model {
	m.Labels = append([]string(nil), m.Labels...)
	m.Words = append([]string(nil), m.Words...)
	m.Counts = append([]int64(nil), m.Counts...)
	m.DocVectors = copyVectors(m.DocVectors)
	m.Output = copyVectors(m.Output)
	return m
}

func copyVectors(in [][]float32) [][]float32 {
	if in == nil {
		return nil
	}
	out := make([][]float32, len(in))
	for i, v := range in {
		out[i] = append([]float32(nil), v...)
	}
	return out
}
