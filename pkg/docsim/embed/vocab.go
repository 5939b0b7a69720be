package embed

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/cognicore/docsim/pkg/docsim/internalerr"
)

// negativeExponent flattens the unigram distribution used for negative samples.
const negativeExponent = 0.75

// Vocabulary is the set of words kept for training, with their corpus counts.
type Vocabulary struct {
	words  []string
	counts []int64
	index  map[string]int
	cum    []float64
}

// NewVocabulary rebuilds a vocabulary from parallel word and count slices.
func NewVocabulary(words []string, counts []int64) (*Vocabulary, error) {
	if len(words) != len(counts) {
		return nil, fmt.Errorf("%w: %d words but %d counts", internalerr.ErrInvalidInput, len(words), len(counts))
	}
	v := &Vocabulary{
		words:  append([]string(nil), words...),
		counts: append([]int64(nil), counts...),
		index:  make(map[string]int, len(words)),
	}
	for i, w := range v.words {
		if _, dup := v.index[w]; dup {
			return nil, fmt.Errorf("%w: duplicate word %q", internalerr.ErrInvalidInput, w)
		}
		v.index[w] = i
	}
	v.buildTable()
	return v, nil
}

// buildVocabulary counts words and keeps those reaching minCount, most
// frequent first.
func buildVocabulary(docs []TaggedDocument, minCount int) *Vocabulary {
	counts := make(map[string]int64)
	for _, d := range docs {
		for _, w := range d.Words {
			counts[w]++
		}
	}

	type entry struct {
		word  string
		count int64
	}
	entries := make([]entry, 0, len(counts))
	for w, c := range counts {
		if c >= int64(minCount) {
			entries = append(entries, entry{w, c})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].word < entries[j].word
	})

	v := &Vocabulary{
		words:  make([]string, len(entries)),
		counts: make([]int64, len(entries)),
		index:  make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		v.words[i] = e.word
		v.counts[i] = e.count
		v.index[e.word] = i
	}
	v.buildTable()
	return v
}

func (v *Vocabulary) buildTable() {
	v.cum = make([]float64, len(v.counts))
	var total float64
	for i, c := range v.counts {
		total += math.Pow(float64(c), negativeExponent)
		v.cum[i] = total
	}
}

// sample draws a word index from the smoothed unigram distribution.
func (v *Vocabulary) sample(rng *rand.Rand) int {
	total := v.cum[len(v.cum)-1]
	i := sort.SearchFloat64s(v.cum, rng.Float64()*total)
	if i >= len(v.cum) {
		i = len(v.cum) - 1
	}
	return i
}

// Len returns the number of words.
func (v *Vocabulary) Len() int { return len(v.words) }

// Words returns the words in index order.
func (v *Vocabulary) Words() []string { return append([]string(nil), v.words...) }

// Counts returns the corpus counts in index order.
func (v *Vocabulary) Counts() []int64 { return append([]int64(nil), v.counts...) }

// Index returns the index of w.
func (v *Vocabulary) Index(w string) (int, bool) {
	i, ok := v.index[w]
	return i, ok
}

func (v *Vocabulary) encode(words []string) []int {
	out := make([]int, 0, len(words))
	for _, w := range words {
		if i, ok := v.index[w]; ok {
			out = append(out, i)
		}
	}
	return out
}
