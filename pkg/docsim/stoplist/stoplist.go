package stoplist

import (
	"sort"
	"sync"
	"unicode/utf8"
)

// DefaultTerms is the exclusion list used when no stoplist is configured.
var DefaultTerms = []string{"sports", "watch"}

// Manager holds the exclusion list and why each entry is on it. It is safe
// for concurrent use.
type Manager struct {
	mu    sync.RWMutex
	stops map[string]Reason
}

// Reason explains why a token is a stopword
type Reason struct {
	Configured bool    // came from configuration
	HighDF     bool    // high document frequency
	DFPercent  float64 // share of documents containing the token
}

// NewManager creates a new stoplist manager
func NewManager(initialStops []string) *Manager {
	stops := make(map[string]Reason, len(initialStops))
	for _, s := range initialStops {
		if s == "" {
			continue
		}
		stops[s] = Reason{Configured: true}
	}
	return &Manager{stops: stops}
}

// IsStop checks if a token is a stopword
func (m *Manager) IsStop(token string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.stops[token]
	return ok
}

// Add adds a token to the stoplist with a reason
func (m *Manager) Add(token string, reason Reason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops[token] = reason
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stops, token)
}

// All returns all stopwords, sorted.
func (m *Manager) All() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// IsSingleHiragana reports whether token is exactly one character from the
// hiragana block (U+3041–U+309F).
func IsSingleHiragana(token string) bool {
	r, size := utf8.DecodeRuneInString(token)
	if size == 0 || size != len(token) {
		return false
	}
	return r >= 0x3041 && r <= 0x309F
}

// Stats holds statistics for candidate evaluation
type Stats struct {
	Token     string
	DF        int64
	DFPercent float64
}

// CorpusStats computes document frequencies over filtered token sequences.
// The result is sorted by descending DF, then token.
func CorpusStats(docs [][]string) []Stats {
	if len(docs) == 0 {
		return nil
	}
	df := make(map[string]int64)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, tok := range doc {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	stats := make([]Stats, 0, len(df))
	total := float64(len(docs))
	for tok, n := range df {
		stats = append(stats, Stats{
			Token:     tok,
			DF:        n,
			DFPercent: float64(n) / total * 100,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].DF != stats[j].DF {
			return stats[i].DF > stats[j].DF
		}
		return stats[i].Token < stats[j].Token
	})
	return stats
}

// Candidate represents a candidate stopword
type Candidate struct {
	Token  string
	Reason Reason
	Score  float64 // confidence score
}

// Thresholds defines criteria for stopword identification
type Thresholds struct {
	DFPercent float64 // e.g., 80% - appears in 80% of documents
	MinDocs   int64   // ignore corpora smaller than this
}

// DefaultThresholds returns sensible default thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DFPercent: 80.0,
		MinDocs:   10,
	}
}

// SuggestCandidates suggests tokens that should be stopwords
func (m *Manager) SuggestCandidates(stats []Stats, thresholds Thresholds) []Candidate {
	var candidates []Candidate
	if thresholds.DFPercent <= 0 {
		thresholds.DFPercent = DefaultThresholds().DFPercent
	}

	for _, s := range stats {
		if m.IsStop(s.Token) {
			continue // already a stopword
		}
		if s.DF < thresholds.MinDocs {
			continue
		}
		if s.DFPercent <= thresholds.DFPercent {
			continue
		}
		candidates = append(candidates, Candidate{
			Token: s.Token,
			Reason: Reason{
				HighDF:    true,
				DFPercent: s.DFPercent,
			},
			Score: s.DFPercent / 100.0,
		})
	}

	return candidates
}
