package ingest

import (
	"context"
	"strings"

	"github.com/cognicore/docsim/pkg/docsim/analyzer"
)

// Tokenizer turns normalized text into content-word tokens using a pooled
// morphological analyzer.
type Tokenizer struct {
	pool *analyzer.Pool
}

// NewTokenizer creates a tokenizer drawing analyzers from pool.
func NewTokenizer(pool *analyzer.Pool) *Tokenizer {
	return &Tokenizer{pool: pool}
}

// Tokenize analyzes text and returns the selected tokens in text order.
// The analyzer is held only for the duration of the call.
func (t *Tokenizer) Tokenize(ctx context.Context, text string) ([]string, error) {
	a, err := t.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer t.pool.Release(a)

	return SelectTokens(a.Analyze(text)), nil
}

// SelectTokens applies the token selection policy to analyzed morphemes:
// whitespace units, particles and auxiliary verbs are dropped, words without
// a base form keep their surface, everything else is reduced to its base form.
func SelectTokens(morphemes []analyzer.Morpheme) []string {
	tokens := make([]string, 0, len(morphemes))
	for _, m := range morphemes {
		if word, ok := selectToken(m); ok {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

func selectToken(m analyzer.Morpheme) (string, bool) {
	// kagome emits spaces between Latin words as their own units.
	if strings.TrimSpace(m.Surface) == "" || m.IsFunctionWord() {
		return "", false
	}
	if !m.HasBase {
		return m.Surface, true
	}
	return m.BaseForm, true
}
