package analyzer

import (
	"fmt"

	"github.com/ikawaha/kagome-dict/dict"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/cognicore/docsim/pkg/docsim/internalerr"
)

// Analyzer segments Japanese text into morphemes.
type Analyzer interface {
	Analyze(text string) []Morpheme
}

// Options selects the dictionary resources for a Kagome analyzer.
type Options struct {
	// DictPath points at a kagome dictionary archive. Empty selects the
	// bundled IPA dictionary.
	DictPath string
	// UserDictPath is an optional user dictionary in kagome's CSV format.
	UserDictPath string
}

// Resources holds loaded dictionaries. They are read-only once loaded and can
// back any number of analyzers.
type Resources struct {
	dict     *dict.Dict
	userDict *dict.UserDict
}

// LoadResources reads the dictionaries named in opts.
func LoadResources(opts Options) (*Resources, error) {
	res := &Resources{}
	if opts.DictPath == "" {
		res.dict = ipa.Dict()
	} else {
		d, err := dict.LoadDictFile(opts.DictPath)
		if err != nil {
			return nil, fmt.Errorf("%w: load dictionary %s: %v", internalerr.ErrAnalyzerInit, opts.DictPath, err)
		}
		res.dict = d
	}

	if opts.UserDictPath != "" {
		u, err := dict.NewUserDict(opts.UserDictPath)
		if err != nil {
			return nil, fmt.Errorf("%w: load user dictionary %s: %v", internalerr.ErrAnalyzerInit, opts.UserDictPath, err)
		}
		res.userDict = u
	}
	return res, nil
}

// Kagome is an Analyzer backed by the kagome tokenizer.
type Kagome struct {
	t *tokenizer.Tokenizer
}

// NewKagome builds an analyzer over loaded resources.
func NewKagome(res *Resources) (*Kagome, error) {
	if res == nil || res.dict == nil {
		return nil, fmt.Errorf("%w: no dictionary loaded", internalerr.ErrAnalyzerInit)
	}
	opts := []tokenizer.Option{tokenizer.OmitBosEos()}
	if res.userDict != nil {
		opts = append(opts, tokenizer.UserDict(res.userDict))
	}
	t, err := tokenizer.New(res.dict, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrAnalyzerInit, err)
	}
	return &Kagome{t: t}, nil
}

// Analyze runs a fresh analysis over text, left to right.
func (k *Kagome) Analyze(text string) []Morpheme {
	tokens := k.t.Tokenize(text)
	out := make([]Morpheme, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Class == tokenizer.DUMMY {
			continue
		}
		out = append(out, FromFeatures(tok.Surface, tok.Features()))
	}
	return out
}

// KagomeFactory returns a pool factory producing analyzers over res.
func KagomeFactory(res *Resources) Factory {
	return func() (Analyzer, error) {
		return NewKagome(res)
	}
}
