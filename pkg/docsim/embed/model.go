package embed

import (
	"fmt"
	"math"
	"sort"

	"github.com/cognicore/docsim/pkg/docsim/internalerr"
)

// DefaultTopN is the neighbor count used when a query asks for zero or less.
const DefaultTopN = 10

// TaggedDocument is a labeled token sequence, the unit of training.
type TaggedDocument struct {
	Label string
	Words []string
}

// Similarity is one nearest-neighbor result.
type Similarity struct {
	Label string
	Score float64
}

// Model is a trained PV-DBOW document embedding.
type Model struct {
	opts       Options
	labels     []string
	labelIndex map[string]int
	docVecs    [][]float32
	vocab      *Vocabulary
	output     [][]float32
}

// Restore rebuilds a model from persisted parts. Slices are copied.
func Restore(opts Options, labels []string, docVecs [][]float32, vocab *Vocabulary, output [][]float32) (*Model, error) {
	if len(labels) != len(docVecs) {
		return nil, fmt.Errorf("%w: %d labels but %d document vectors", internalerr.ErrInvalidInput, len(labels), len(docVecs))
	}
	if vocab == nil || vocab.Len() != len(output) {
		return nil, fmt.Errorf("%w: vocabulary and output weights disagree", internalerr.ErrInvalidInput)
	}

	m := &Model{
		opts:       opts,
		labels:     append([]string(nil), labels...),
		labelIndex: make(map[string]int, len(labels)),
		docVecs:    make([][]float32, len(docVecs)),
		vocab:      vocab,
		output:     make([][]float32, len(output)),
	}
	for i, l := range m.labels {
		if _, dup := m.labelIndex[l]; dup {
			return nil, fmt.Errorf("%w: duplicate label %q", internalerr.ErrInvalidInput, l)
		}
		m.labelIndex[l] = i
	}
	for i, v := range docVecs {
		if len(v) != opts.VectorSize {
			return nil, fmt.Errorf("%w: vector %q has %d dimensions, want %d", internalerr.ErrInvalidInput, labels[i], len(v), opts.VectorSize)
		}
		m.docVecs[i] = append([]float32(nil), v...)
	}
	for i, v := range output {
		if len(v) != opts.VectorSize {
			return nil, fmt.Errorf("%w: output row %d has %d dimensions, want %d", internalerr.ErrInvalidInput, i, len(v), opts.VectorSize)
		}
		m.output[i] = append([]float32(nil), v...)
	}
	return m, nil
}

// Options returns the options the model was trained with.
func (m *Model) Options() Options { return m.opts }

// Labels returns the document labels in training order.
func (m *Model) Labels() []string { return append([]string(nil), m.labels...) }

// Vocabulary returns the training vocabulary.
func (m *Model) Vocabulary() *Vocabulary { return m.vocab }

// DocVectors returns the document vectors in label order. Callers must not
// modify them.
func (m *Model) DocVectors() [][]float32 { return m.docVecs }

// OutputWeights returns the word output weights in vocabulary order. Callers
// must not modify them.
func (m *Model) OutputWeights() [][]float32 { return m.output }

// Vector returns a copy of the vector trained for label.
func (m *Model) Vector(label string) ([]float32, bool) {
	i, ok := m.labelIndex[label]
	if !ok {
		return nil, false
	}
	return append([]float32(nil), m.docVecs[i]...), true
}

// MostSimilar returns the topN documents closest to label by cosine
// similarity, best first. The document itself is excluded.
func (m *Model) MostSimilar(label string, topN int) ([]Similarity, error) {
	i, ok := m.labelIndex[label]
	if !ok {
		return nil, fmt.Errorf("%w: %q", internalerr.ErrUnknownLabel, label)
	}
	return m.SimilarToVector(m.docVecs[i], topN, label), nil
}

// SimilarToVector ranks all documents against vec, skipping exclude.
func (m *Model) SimilarToVector(vec []float32, topN int, exclude string) []Similarity {
	if topN <= 0 {
		topN = DefaultTopN
	}
	results := make([]Similarity, 0, len(m.labels))
	for i, l := range m.labels {
		if l == exclude {
			continue
		}
		results = append(results, Similarity{Label: l, Score: Cosine(vec, m.docVecs[i])})
	}
	SortSimilarities(results)
	if len(results) > topN {
		results = results[:topN]
	}
	return results
}

// SortSimilarities orders results by descending score, then label.
func SortSimilarities(results []Similarity) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Label < results[j].Label
	})
}

// Cosine calculates the cosine similarity between two vectors
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
