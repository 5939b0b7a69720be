package docsim

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/docsim/pkg/docsim/analyzer"
	"github.com/cognicore/docsim/pkg/docsim/embed"
	"github.com/cognicore/docsim/pkg/docsim/ingest"
	"github.com/cognicore/docsim/pkg/docsim/internalerr"
	"github.com/cognicore/docsim/pkg/docsim/stoplist"
	"github.com/cognicore/docsim/pkg/docsim/store/memstore"
)

// spaceAnalyzer treats every space-separated word as a noun.
type spaceAnalyzer struct{}

func (spaceAnalyzer) Analyze(text string) []analyzer.Morpheme {
	fields := strings.Fields(text)
	out := make([]analyzer.Morpheme, len(fields))
	for i, f := range fields {
		out[i] = analyzer.Morpheme{Surface: f, POS: "名詞"}
	}
	return out
}

func newPipeline(t *testing.T) *ingest.Pipeline {
	t.Helper()
	pool, err := analyzer.NewPool(2, func() (analyzer.Analyzer, error) { return spaceAnalyzer{}, nil })
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })
	return ingest.NewPipeline(
		ingest.NewTokenizer(pool),
		ingest.NewStopFilter(stoplist.NewManager(stoplist.DefaultTerms), true),
	)
}

func trainingOptions() embed.Options {
	return embed.Options{
		VectorSize: 16,
		MinCount:   1,
		Epochs:     100,
		Negative:   5,
		Alpha:      0.025,
		MinAlpha:   0.0001,
		Seed:       42,
	}
}

var (
	baseballWords = []string{"pitcher", "batter", "homerun", "stadium", "manager", "inning", "umpire", "glove"}
	cookingWords  = []string{"recipe", "kitchen", "vegetable", "knife", "miso", "broth", "pot", "sugar"}
)

// topicText cycles through words starting at shift.
func topicText(words []string, shift, length int, extra ...string) string {
	out := make([]string, 0, length+len(extra))
	for i := 0; i < length; i++ {
		out = append(out, words[(i+shift)%len(words)])
	}
	return strings.Join(append(out, extra...), " ")
}

func topicCorpus(extra ...string) []ingest.Doc {
	return []ingest.Doc{
		{Label: "baseball-1.txt", Text: topicText(baseballWords, 0, 40, extra...)},
		{Label: "cooking-1.txt", Text: topicText(cookingWords, 0, 40, extra...)},
		{Label: "baseball-2.txt", Text: topicText(baseballWords, 3, 40, extra...)},
		{Label: "cooking-2.txt", Text: topicText(cookingWords, 5, 40, extra...)},
	}
}

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	if opts.Store == nil {
		opts.Store = memstore.New()
	}
	if opts.Pipeline == nil {
		opts.Pipeline = newPipeline(t)
	}
	if opts.Training == (embed.Options{}) {
		opts.Training = trainingOptions()
	}
	if opts.Workers == 0 {
		opts.Workers = 3
	}
	e := New(opts)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestTrainAndSimilar(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	e := newEngine(t, Options{Store: st})

	docs := append(topicCorpus("sports"),
		ingest.Doc{Label: "empty.txt", Text: "！？ http://example.com"},
		ingest.Doc{Label: "broken.txt", Text: "bad\xffbytes"},
	)
	info, err := e.Train(ctx, docs)
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, 4, info.Docs)
	assert.Equal(t, 16, info.VectorSize)
	assert.Equal(t, 16, info.Words)

	stored, err := st.ListDocs(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 4)
	for _, d := range stored {
		assert.NotContains(t, d.Tokens, "sports")
		assert.Len(t, d.Tokens, 40)
	}

	current, ok := e.Model()
	require.True(t, ok)
	assert.Equal(t, info.ID, current.ID)

	cases := map[string]string{
		"baseball-1.txt": "baseball-2.txt",
		"cooking-2.txt":  "cooking-1.txt",
	}
	for label, want := range cases {
		sims, err := e.Similar(ctx, label, 3)
		require.NoError(t, err)
		require.Len(t, sims, 3)
		assert.Equal(t, want, sims[0].Label, "top neighbor of %s", label)
		for i := 1; i < len(sims); i++ {
			assert.GreaterOrEqual(t, sims[i-1].Score, sims[i].Score)
		}
	}

	_, err = e.Similar(ctx, "missing.txt", 3)
	assert.True(t, errors.Is(err, internalerr.ErrUnknownLabel))
}

func TestSimilarWithoutModel(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, Options{})

	_, err := e.Similar(ctx, "a.txt", 1)
	assert.True(t, errors.Is(err, internalerr.ErrNoModel))

	_, err = e.SimilarText(ctx, "recipe", 1)
	assert.True(t, errors.Is(err, internalerr.ErrNoModel))

	_, err = e.Load(ctx, "")
	assert.True(t, errors.Is(err, internalerr.ErrNoModel))

	_, ok := e.Model()
	assert.False(t, ok)
}

func TestLoadRestoresModel(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	trainer := New(Options{Store: st, Pipeline: newPipeline(t), Training: trainingOptions(), Workers: 2})
	info, err := trainer.Train(ctx, topicCorpus())
	require.NoError(t, err)
	want, err := trainer.Similar(ctx, "cooking-1.txt", 3)
	require.NoError(t, err)

	reader := newEngine(t, Options{Store: st})
	loaded, err := reader.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, info.ID, loaded.ID)

	got, err := reader.Similar(ctx, "cooking-1.txt", 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	byID, err := reader.Load(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, info.ID, byID.ID)
}

func TestLoadUnknownID(t *testing.T) {
	e := newEngine(t, Options{})

	_, err := e.Load(context.Background(), "01HZZZZZZZZZZZZZZZZZZZZZZZ")
	assert.True(t, errors.Is(err, internalerr.ErrNotFound))
}

func TestTrainTwiceLatestWins(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	e := newEngine(t, Options{Store: st})

	first, err := e.Train(ctx, topicCorpus())
	require.NoError(t, err)
	second, err := e.Train(ctx, topicCorpus()[:2])
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	models, err := st.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, models, 2)

	reader := newEngine(t, Options{Store: st})
	loaded, err := reader.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, second.ID, loaded.ID)
	assert.Equal(t, 2, loaded.Docs)
}

func TestTrainEmptyCorpus(t *testing.T) {
	e := newEngine(t, Options{})

	_, err := e.Train(context.Background(), []ingest.Doc{
		{Label: "a.txt", Text: "！！！"},
		{Label: "b.txt", Text: "sports watch"},
	})
	assert.True(t, errors.Is(err, internalerr.ErrEmptyCorpus))

	_, err = e.Train(context.Background(), nil)
	assert.True(t, errors.Is(err, internalerr.ErrEmptyCorpus))
}

func TestTrainMinCountLeavesNoWords(t *testing.T) {
	opts := trainingOptions()
	opts.MinCount = 100
	e := newEngine(t, Options{Training: opts})

	_, err := e.Train(context.Background(), topicCorpus())
	assert.True(t, errors.Is(err, internalerr.ErrEmptyCorpus))
}

func TestFailedTrainKeepsSequencesForRetrain(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	strict := trainingOptions()
	strict.MinCount = 100
	first := newEngine(t, Options{Store: st, Training: strict})
	_, err := first.Train(ctx, topicCorpus())
	require.True(t, errors.Is(err, internalerr.ErrEmptyCorpus))
	_, ok := first.Model()
	assert.False(t, ok)

	docs, err := st.ListDocs(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 4)

	second := newEngine(t, Options{Store: st})
	info, err := second.Retrain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, info.Docs)
}

func TestPrepareKeepsInputOrder(t *testing.T) {
	e := newEngine(t, Options{Workers: 4})

	var docs []ingest.Doc
	for i := 0; i < 20; i++ {
		label := string(rune('a'+i)) + ".txt"
		docs = append(docs, ingest.Doc{Label: label, Text: topicText(cookingWords, i, 5)})
	}
	tagged, err := e.Prepare(context.Background(), docs)
	require.NoError(t, err)
	require.Len(t, tagged, 20)
	for i, td := range tagged {
		assert.Equal(t, docs[i].Label, td.Label)
		assert.Equal(t, strings.Fields(docs[i].Text), td.Words)
	}
}

func TestPrepareSkipsAndWarns(t *testing.T) {
	logger, hook := test.NewNullLogger()
	e := newEngine(t, Options{Logger: logrus.NewEntry(logger)})

	tagged, err := e.Prepare(context.Background(), []ingest.Doc{
		{Label: "good.txt", Text: "recipe kitchen"},
		{Label: "broken.txt", Text: "bad\xffbytes"},
		{Label: "", Text: "no label"},
		{Label: "empty.txt", Text: "watch sports"},
		{Label: "good.txt", Text: "miso broth"},
	})
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, embed.TaggedDocument{Label: "good.txt", Words: []string{"recipe", "kitchen"}}, tagged[0])

	var warned []string
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warned = append(warned, entry.Data["label"].(string))
		}
	}
	assert.ElementsMatch(t, []string{"broken.txt", "", "empty.txt", "good.txt"}, warned)
}

func TestPrepareCancelled(t *testing.T) {
	e := newEngine(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Prepare(ctx, topicCorpus())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSimilarText(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, Options{})
	_, err := e.Train(ctx, topicCorpus())
	require.NoError(t, err)

	sims, err := e.SimilarText(ctx, topicText(cookingWords, 1, 24), 2)
	require.NoError(t, err)
	require.NotEmpty(t, sims)
	assert.Contains(t, []string{"cooking-1.txt", "cooking-2.txt"}, sims[0].Label)

	_, err = e.SimilarText(ctx, "spaceship planet", 2)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
}

func TestTrainLogsStopwordCandidates(t *testing.T) {
	logger, hook := test.NewNullLogger()
	e := newEngine(t, Options{
		Logger:     logrus.NewEntry(logger),
		Thresholds: stoplist.Thresholds{DFPercent: 50, MinDocs: 1},
	})

	_, err := e.Train(context.Background(), topicCorpus("news"))
	require.NoError(t, err)

	var candidates []string
	for _, entry := range hook.AllEntries() {
		if entry.Message == "stop word candidate" {
			candidates = append(candidates, entry.Data["token"].(string))
		}
	}
	assert.Equal(t, []string{"news"}, candidates)
}

func TestRetrainAppliesNewStopwords(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	first := newEngine(t, Options{Store: st})
	_, err := first.Train(ctx, topicCorpus("news"))
	require.NoError(t, err)

	stops := stoplist.NewManager(append([]string{"news"}, stoplist.DefaultTerms...))
	pool, err := analyzer.NewPool(1, func() (analyzer.Analyzer, error) { return spaceAnalyzer{}, nil })
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })
	second := newEngine(t, Options{
		Store:    st,
		Pipeline: ingest.NewPipeline(ingest.NewTokenizer(pool), ingest.NewStopFilter(stops, true)),
	})

	info, err := second.Retrain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, info.Docs)
	assert.Equal(t, 16, info.Words, "news is gone from the vocabulary")

	doc, ok, err := st.GetDoc(ctx, "cooking-1.txt")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, doc.Tokens, "news")

	sims, err := second.Similar(ctx, "cooking-1.txt", 1)
	require.NoError(t, err)
	require.Len(t, sims, 1)
}

func TestRetrainEmptyStore(t *testing.T) {
	e := newEngine(t, Options{})

	_, err := e.Retrain(context.Background())
	assert.True(t, errors.Is(err, internalerr.ErrEmptyCorpus))
}
