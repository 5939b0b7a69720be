package index

import (
	"fmt"

	"github.com/coder/hnsw"

	"github.com/cognicore/docsim/pkg/docsim/embed"
	"github.com/cognicore/docsim/pkg/docsim/internalerr"
)

// Neighbor is a search hit.
type Neighbor = embed.Similarity

// Index answers approximate nearest-neighbor queries over document vectors.
type Index struct {
	graph   *hnsw.Graph[string]
	vectors map[string][]float32
	dim     int
}

// New builds an HNSW graph over the given vectors, keyed by label.
func New(labels []string, vectors [][]float32) (*Index, error) {
	if len(labels) != len(vectors) {
		return nil, fmt.Errorf("%w: %d labels but %d vectors", internalerr.ErrInvalidInput, len(labels), len(vectors))
	}

	g := hnsw.NewGraph[string]()
	g.Distance = hnsw.CosineDistance

	ix := &Index{graph: g, vectors: make(map[string][]float32, len(labels))}
	nodes := make([]hnsw.Node[string], 0, len(labels))
	for i, label := range labels {
		if ix.dim == 0 {
			ix.dim = len(vectors[i])
		}
		if len(vectors[i]) != ix.dim {
			return nil, fmt.Errorf("%w: vector %q has %d dimensions, want %d", internalerr.ErrInvalidInput, label, len(vectors[i]), ix.dim)
		}
		vec := append([]float32(nil), vectors[i]...)
		ix.vectors[label] = vec
		nodes = append(nodes, hnsw.MakeNode(label, vec))
	}
	if len(nodes) > 0 {
		g.Add(nodes...)
	}
	return ix, nil
}

// FromModel indexes every document vector of a trained model.
func FromModel(m *embed.Model) (*Index, error) {
	return New(m.Labels(), m.DocVectors())
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	return len(ix.vectors)
}

// Search returns up to k neighbors of vec, best first, scored by cosine
// similarity.
func (ix *Index) Search(vec []float32, k int) ([]Neighbor, error) {
	if k <= 0 {
		k = embed.DefaultTopN
	}
	if len(ix.vectors) == 0 {
		return nil, nil
	}
	if len(vec) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, want %d", internalerr.ErrInvalidInput, len(vec), ix.dim)
	}

	nodes := ix.graph.Search(vec, k)
	out := make([]Neighbor, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Neighbor{Label: n.Key, Score: embed.Cosine(vec, ix.vectors[n.Key])})
	}
	embed.SortSimilarities(out)
	return out, nil
}
