package docsim

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/docsim/pkg/docsim/autotune/stopwords"
	"github.com/cognicore/docsim/pkg/docsim/embed"
	"github.com/cognicore/docsim/pkg/docsim/index"
	"github.com/cognicore/docsim/pkg/docsim/ingest"
	"github.com/cognicore/docsim/pkg/docsim/internalerr"
	"github.com/cognicore/docsim/pkg/docsim/maintenance"
	"github.com/cognicore/docsim/pkg/docsim/stoplist"
	"github.com/cognicore/docsim/pkg/docsim/store"
)

// Engine is the main document similarity facade: it turns raw documents into
// labeled token sequences, trains and persists models, and answers
// neighbor queries against the current model.
type Engine struct {
	store      store.Store
	pipeline   *ingest.Pipeline
	training   embed.Options
	workers    int
	log        *logrus.Entry
	thresholds stoplist.Thresholds

	entropyMu sync.Mutex
	entropy   io.Reader

	mu    sync.RWMutex
	model *embed.Model
	index *index.Index
	info  store.ModelInfo
}

// Options configures an Engine instance
type Options struct {
	Store    store.Store
	Pipeline *ingest.Pipeline
	Training embed.Options
	// Workers bounds concurrent pipeline runs in Prepare. Zero means one.
	Workers int
	Logger  *logrus.Entry
	// Thresholds controls the stop word suggestions logged after training.
	// The zero value uses stoplist.DefaultThresholds.
	Thresholds stoplist.Thresholds
}

// New creates an Engine with the given dependencies
func New(opts Options) *Engine {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = logrus.NewEntry(l)
	}
	return &Engine{
		store:      opts.Store,
		pipeline:   opts.Pipeline,
		training:   opts.Training.WithDefaults(),
		workers:    workers,
		log:        log,
		thresholds: opts.Thresholds,
		entropy:    ulid.Monotonic(rand.Reader, 0),
	}
}

// Close cleanly shuts down the engine and its store
func (e *Engine) Close() error {
	return e.store.Close()
}

// Prepare runs every document through the pipeline and returns the labeled
// token sequences in input order. Documents that fail to process or end up
// with no tokens are logged and skipped; only cancellation aborts the run.
func (e *Engine) Prepare(ctx context.Context, docs []ingest.Doc) ([]embed.TaggedDocument, error) {
	results := make([]*embed.TaggedDocument, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, d := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := e.pipeline.Process(gctx, d)
			if err != nil {
				if isCancellation(err) {
					return err
				}
				e.log.WithError(err).WithField("label", d.Label).Warn("skipping document")
				return nil
			}
			if len(out.Filtered) == 0 {
				e.log.WithField("label", d.Label).Warn("skipping document with no tokens")
				return nil
			}
			results[i] = &embed.TaggedDocument{Label: out.Label, Words: out.Filtered}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tagged := make([]embed.TaggedDocument, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		if _, dup := seen[r.Label]; dup {
			e.log.WithField("label", r.Label).Warn("skipping duplicate label")
			continue
		}
		seen[r.Label] = struct{}{}
		tagged = append(tagged, *r)
	}
	return tagged, nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Train prepares docs, persists the labeled sequences, trains a model and
// saves it as the current model. The sequences are stored before training
// and stay stored when training fails, so Retrain can fit them later with
// other options.
func (e *Engine) Train(ctx context.Context, docs []ingest.Doc) (store.ModelInfo, error) {
	tagged, err := e.Prepare(ctx, docs)
	if err != nil {
		return store.ModelInfo{}, err
	}
	if len(tagged) == 0 {
		return store.ModelInfo{}, fmt.Errorf("%w: none of %d documents produced tokens", internalerr.ErrEmptyCorpus, len(docs))
	}

	now := time.Now().UTC()
	for _, td := range tagged {
		if err := e.store.UpsertDoc(ctx, store.Doc{Label: td.Label, Tokens: td.Words, UpdatedAt: now}); err != nil {
			return store.ModelInfo{}, fmt.Errorf("store doc %s: %w", td.Label, err)
		}
	}
	return e.fit(ctx, tagged, now)
}

// Retrain re-filters the stored token sequences with the current stop word
// list and trains a new model from them, without reading any source files.
func (e *Engine) Retrain(ctx context.Context) (store.ModelInfo, error) {
	cleaner := maintenance.Cleaner{Store: e.store, Filter: e.pipeline.Filter()}
	res, err := cleaner.Clean(ctx)
	if err != nil {
		return store.ModelInfo{}, err
	}
	e.log.WithFields(logrus.Fields{
		"processed": res.Processed,
		"updated":   res.Updated,
		"errors":    res.Errors,
	}).Info("stored documents re-filtered")

	docs, err := e.store.ListDocs(ctx)
	if err != nil {
		return store.ModelInfo{}, fmt.Errorf("list docs: %w", err)
	}
	tagged := make([]embed.TaggedDocument, 0, len(docs))
	for _, d := range docs {
		if len(d.Tokens) == 0 {
			e.log.WithField("label", d.Label).Warn("skipping document with no tokens")
			continue
		}
		tagged = append(tagged, embed.TaggedDocument{Label: d.Label, Words: d.Tokens})
	}
	if len(tagged) == 0 {
		return store.ModelInfo{}, fmt.Errorf("%w: no stored documents with tokens", internalerr.ErrEmptyCorpus)
	}
	return e.fit(ctx, tagged, time.Now().UTC())
}

// fit trains on tagged, saves the model and makes it current.
func (e *Engine) fit(ctx context.Context, tagged []embed.TaggedDocument, now time.Time) (store.ModelInfo, error) {
	e.logStopwordCandidates(ctx)

	start := time.Now()
	model, err := embed.Train(tagged, e.training)
	if err != nil {
		return store.ModelInfo{}, fmt.Errorf("train: %w", err)
	}

	id, err := e.newModelID(now)
	if err != nil {
		return store.ModelInfo{}, err
	}
	sm := toStoreModel(id, now, model)
	if err := e.store.SaveModel(ctx, sm); err != nil {
		return store.ModelInfo{}, fmt.Errorf("save model %s: %w", id, err)
	}
	if err := e.setModel(model, sm.Info); err != nil {
		return store.ModelInfo{}, err
	}

	e.log.WithFields(logrus.Fields{
		"model_id": id,
		"docs":     sm.Info.Docs,
		"words":    sm.Info.Words,
		"elapsed":  time.Since(start).Round(time.Millisecond),
	}).Info("model trained")
	return sm.Info, nil
}

func (e *Engine) newModelID(t time.Time) (string, error) {
	e.entropyMu.Lock()
	defer e.entropyMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(t), e.entropy)
	if err != nil {
		return "", fmt.Errorf("model id: %w", err)
	}
	return id.String(), nil
}

func (e *Engine) logStopwordCandidates(ctx context.Context) {
	tuner := stopwords.AutoTuner{
		Provider:   stopwords.StoreStats{Store: e.store},
		Manager:    e.pipeline.Filter().Stoplist(),
		Thresholds: e.thresholds,
	}
	cands, err := tuner.Run(ctx)
	if err != nil {
		e.log.WithError(err).Warn("stop word suggestions")
		return
	}
	for _, c := range cands {
		e.log.WithFields(logrus.Fields{
			"token":      c.Token,
			"df_percent": c.Reason.DFPercent,
		}).Info("stop word candidate")
	}
}

// Load makes a stored model current. An empty id selects the latest model.
func (e *Engine) Load(ctx context.Context, id string) (store.ModelInfo, error) {
	var (
		sm  store.Model
		err error
	)
	if id == "" {
		var ok bool
		sm, ok, err = e.store.LatestModel(ctx)
		if err != nil {
			return store.ModelInfo{}, fmt.Errorf("latest model: %w", err)
		}
		if !ok {
			return store.ModelInfo{}, internalerr.ErrNoModel
		}
	} else {
		sm, err = e.store.LoadModel(ctx, id)
		if err != nil {
			return store.ModelInfo{}, err
		}
	}

	model, err := fromStoreModel(sm)
	if err != nil {
		return store.ModelInfo{}, fmt.Errorf("restore model %s: %w", sm.Info.ID, err)
	}
	if err := e.setModel(model, sm.Info); err != nil {
		return store.ModelInfo{}, err
	}
	e.log.WithFields(logrus.Fields{"model_id": sm.Info.ID, "docs": sm.Info.Docs}).Debug("model loaded")
	return sm.Info, nil
}

func (e *Engine) setModel(m *embed.Model, info store.ModelInfo) error {
	ix, err := index.FromModel(m)
	if err != nil {
		return fmt.Errorf("index model %s: %w", info.ID, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.model, e.index, e.info = m, ix, info
	return nil
}

func (e *Engine) current() (*embed.Model, *index.Index, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.model == nil {
		return nil, nil, internalerr.ErrNoModel
	}
	return e.model, e.index, nil
}

// Model returns the description of the current model.
func (e *Engine) Model() (store.ModelInfo, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.info, e.model != nil
}

// Similar returns the topN trained documents closest to label, best first.
func (e *Engine) Similar(ctx context.Context, label string, topN int) ([]embed.Similarity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, _, err := e.current()
	if err != nil {
		return nil, err
	}
	return m.MostSimilar(label, topN)
}

// SimilarText runs free text through the pipeline, infers its vector and
// returns the topN closest trained documents.
func (e *Engine) SimilarText(ctx context.Context, text string, topN int) ([]embed.Similarity, error) {
	m, ix, err := e.current()
	if err != nil {
		return nil, err
	}
	out, err := e.pipeline.Process(ctx, ingest.Doc{Label: "query", Text: text})
	if err != nil {
		return nil, err
	}
	vec, err := m.Infer(out.Filtered, 0)
	if err != nil {
		return nil, err
	}
	return ix.Search(vec, topN)
}

func toStoreModel(id string, created time.Time, m *embed.Model) store.Model {
	opts := m.Options()
	vocab := m.Vocabulary()
	return store.Model{
		Info: store.ModelInfo{
			ID:         id,
			CreatedAt:  created,
			VectorSize: opts.VectorSize,
			MinCount:   opts.MinCount,
			Epochs:     opts.Epochs,
			Negative:   opts.Negative,
			Alpha:      opts.Alpha,
			MinAlpha:   opts.MinAlpha,
			Seed:       opts.Seed,
			Docs:       len(m.Labels()),
			Words:      vocab.Len(),
		},
		Labels:     m.Labels(),
		DocVectors: m.DocVectors(),
		Words:      vocab.Words(),
		Counts:     vocab.Counts(),
		Output:     m.OutputWeights(),
	}
}

func fromStoreModel(sm store.Model) (*embed.Model, error) {
	vocab, err := embed.NewVocabulary(sm.Words, sm.Counts)
	if err != nil {
		return nil, err
	}
	opts := embed.Options{
		VectorSize: sm.Info.VectorSize,
		MinCount:   sm.Info.MinCount,
		Epochs:     sm.Info.Epochs,
		Negative:   sm.Info.Negative,
		Alpha:      sm.Info.Alpha,
		MinAlpha:   sm.Info.MinAlpha,
		Seed:       sm.Info.Seed,
	}
	return embed.Restore(opts, sm.Labels, sm.DocVectors, vocab, sm.Output)
}
