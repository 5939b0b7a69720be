package ingest

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/cognicore/docsim/pkg/docsim/internalerr"
)

// Pipeline orchestrates the full ingestion flow:
// clean → normalize → tokenize → stop-word filter
type Pipeline struct {
	tokenizer *Tokenizer
	filter    *StopFilter
}

// NewPipeline creates an ingestion pipeline with the given components
func NewPipeline(tokenizer *Tokenizer, filter *StopFilter) *Pipeline {
	if filter == nil {
		filter = NewStopFilter(nil, true)
	}
	return &Pipeline{
		tokenizer: tokenizer,
		filter:    filter,
	}
}

// ProcessedDoc holds the output of every stage for one document.
type ProcessedDoc struct {
	Label      string
	Cleaned    string
	Normalized string
	Tokens     []string
	Filtered   []string
}

// Process runs a document through the full ingestion pipeline
func (p *Pipeline) Process(ctx context.Context, d Doc) (ProcessedDoc, error) {
	if err := d.Validate(); err != nil {
		return ProcessedDoc{}, fmt.Errorf("%w: %v", internalerr.ErrInvalidInput, err)
	}
	if !utf8.ValidString(d.Text) {
		return ProcessedDoc{}, fmt.Errorf("%w: %s is not valid UTF-8", internalerr.ErrMalformedText, d.Label)
	}

	out := ProcessedDoc{Label: d.Label}

	// 1. Strip symbols, URLs and emoji
	out.Cleaned = Clean(d.Text)

	// 2. Width, case and numeral normalization
	out.Normalized = Normalize(out.Cleaned)

	// 3. Morphological analysis
	tokens, err := p.tokenizer.Tokenize(ctx, out.Normalized)
	if err != nil {
		return ProcessedDoc{}, fmt.Errorf("tokenize %s: %w", d.Label, err)
	}
	out.Tokens = tokens

	// 4. Stop words
	out.Filtered = p.filter.Filter(tokens)

	return out, nil
}

// Filter exposes the pipeline's stop-word filter.
func (p *Pipeline) Filter() *StopFilter {
	return p.filter
}
