package ingest

import (
	"github.com/cognicore/docsim/pkg/docsim/stoplist"
)

// StopFilter removes stop words from token sequences.
type StopFilter struct {
	stops              *stoplist.Manager
	dropSingleHiragana bool
}

// NewStopFilter creates a filter over the given stop list. A nil list filters
// nothing by membership.
func NewStopFilter(stops *stoplist.Manager, dropSingleHiragana bool) *StopFilter {
	if stops == nil {
		stops = stoplist.NewManager(nil)
	}
	return &StopFilter{stops: stops, dropSingleHiragana: dropSingleHiragana}
}

// Filter returns the surviving tokens in their original order.
func (f *StopFilter) Filter(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if f.dropSingleHiragana && stoplist.IsSingleHiragana(tok) {
			continue
		}
		if f.stops.IsStop(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Stoplist exposes the underlying manager.
func (f *StopFilter) Stoplist() *stoplist.Manager {
	return f.stops
}
