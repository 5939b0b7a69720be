package stopwords

import (
	"context"
	"errors"
	"fmt"

	"github.com/cognicore/docsim/pkg/docsim/stoplist"
	"github.com/cognicore/docsim/pkg/docsim/store"
)

// StatsProvider exposes the document frequencies required for stopword tuning.
type StatsProvider interface {
	StopwordStats(ctx context.Context) ([]stoplist.Stats, error)
}

// StoreStats computes document frequencies over every labeled token sequence
// in a store.
type StoreStats struct {
	Store store.Store
}

// StopwordStats implements StatsProvider.
func (s StoreStats) StopwordStats(ctx context.Context) ([]stoplist.Stats, error) {
	docs, err := s.Store.ListDocs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list docs: %w", err)
	}
	tokens := make([][]string, len(docs))
	for i, d := range docs {
		tokens[i] = d.Tokens
	}
	return stoplist.CorpusStats(tokens), nil
}

// AutoTuner produces ranked stopword suggestions from corpus statistics.
type AutoTuner struct {
	Provider   StatsProvider
	Manager    *stoplist.Manager
	Thresholds stoplist.Thresholds
}

// Run collects stats and returns the tokens that look like stop words but
// are not on the list yet, most frequent first.
func (t *AutoTuner) Run(ctx context.Context) ([]stoplist.Candidate, error) {
	if t.Provider == nil {
		return nil, errors.New("stopwords autotune: nil stats provider")
	}
	if t.Manager == nil {
		return nil, errors.New("stopwords autotune: nil manager")
	}

	stats, err := t.Provider.StopwordStats(ctx)
	if err != nil {
		return nil, err
	}
	return t.Manager.SuggestCandidates(stats, t.thresholdsOrDefault()), nil
}

func (t *AutoTuner) thresholdsOrDefault() stoplist.Thresholds {
	if t.Thresholds == (stoplist.Thresholds{}) {
		return stoplist.DefaultThresholds()
	}
	return t.Thresholds
}
