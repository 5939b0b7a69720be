package embed

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/cognicore/docsim/pkg/docsim/internalerr"
)

// Train learns one vector per document with the distributed bag of words
// variant of paragraph vectors: each document vector is trained to predict
// the words of its document, using negative sampling.
func Train(docs []TaggedDocument, opts Options) (*Model, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, internalerr.ErrEmptyCorpus
	}

	labels := make([]string, len(docs))
	labelIndex := make(map[string]int, len(docs))
	for i, d := range docs {
		if d.Label == "" {
			return nil, fmt.Errorf("%w: document %d has no label", internalerr.ErrInvalidInput, i)
		}
		if _, dup := labelIndex[d.Label]; dup {
			return nil, fmt.Errorf("%w: duplicate label %q", internalerr.ErrInvalidInput, d.Label)
		}
		labels[i] = d.Label
		labelIndex[d.Label] = i
	}

	vocab := buildVocabulary(docs, opts.MinCount)
	if vocab.Len() == 0 {
		return nil, fmt.Errorf("%w: no word occurs %d times", internalerr.ErrEmptyCorpus, opts.MinCount)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	m := &Model{
		opts:       opts,
		labels:     labels,
		labelIndex: labelIndex,
		docVecs:    make([][]float32, len(docs)),
		vocab:      vocab,
		output:     make([][]float32, vocab.Len()),
	}
	for i := range m.docVecs {
		m.docVecs[i] = randomVector(rng, opts.VectorSize)
	}
	for i := range m.output {
		m.output[i] = make([]float32, opts.VectorSize)
	}

	encoded := make([][]int, len(docs))
	var words int
	for i, d := range docs {
		encoded[i] = vocab.encode(d.Words)
		words += len(encoded[i])
	}

	s := newSGD(m, rng)
	total := float64(opts.Epochs * words)
	var done int
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		for i, doc := range encoded {
			for _, w := range doc {
				alpha := opts.Alpha - (opts.Alpha-opts.MinAlpha)*float64(done)/total
				s.step(m.docVecs[i], w, float32(alpha), true)
				done++
			}
		}
	}
	return m, nil
}

// Infer trains a fresh vector for words against the frozen model. Words
// outside the vocabulary are ignored; epochs <= 0 uses the training epochs.
// The result depends only on the model and words.
func (m *Model) Infer(words []string, epochs int) ([]float32, error) {
	encoded := m.vocab.encode(words)
	if len(encoded) == 0 {
		return nil, fmt.Errorf("%w: no known words to infer from", internalerr.ErrInvalidInput)
	}
	if epochs <= 0 {
		epochs = m.opts.Epochs
	}

	h := fnv.New64a()
	for _, w := range words {
		h.Write([]byte(w))
		h.Write([]byte{0})
	}
	seed := h.Sum64() ^ m.opts.Seed
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	vec := randomVector(rng, m.opts.VectorSize)
	s := newSGD(m, rng)
	total := float64(epochs * len(encoded))
	var done int
	for epoch := 0; epoch < epochs; epoch++ {
		for _, w := range encoded {
			alpha := m.opts.Alpha - (m.opts.Alpha-m.opts.MinAlpha)*float64(done)/total
			s.step(vec, w, float32(alpha), false)
			done++
		}
	}
	return vec, nil
}

// sgd holds the scratch state of one training or inference run.
type sgd struct {
	m     *Model
	rng   *rand.Rand
	neu1e []float32
}

func newSGD(m *Model, rng *rand.Rand) *sgd {
	return &sgd{m: m, rng: rng, neu1e: make([]float32, m.opts.VectorSize)}
}

// step trains vec to predict word against Negative sampled noise words.
func (s *sgd) step(vec []float32, word int, alpha float32, updateOutput bool) {
	clear(s.neu1e)
	for d := 0; d <= s.m.opts.Negative; d++ {
		target, label := word, float32(1)
		if d > 0 {
			target = s.m.vocab.sample(s.rng)
			if target == word {
				continue
			}
			label = 0
		}
		out := s.m.output[target]
		g := (label - sigmoid(dot(vec, out))) * alpha
		axpy(s.neu1e, g, out)
		if updateOutput {
			axpy(out, g, vec)
		}
	}
	axpy(vec, 1, s.neu1e)
}

func randomVector(rng *rand.Rand, size int) []float32 {
	v := make([]float32, size)
	for i := range v {
		v[i] = (rng.Float32() - 0.5) / float32(size)
	}
	return v
}

func sigmoid(x float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(x))))
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// axpy computes y += a*x.
func axpy(y []float32, a float32, x []float32) {
	for i := range y {
		y[i] += a * x[i]
	}
}
