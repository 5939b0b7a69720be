package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrAnalyzerInit means the morphological analyzer could not be built.
	// It is fatal for a run: no document can be tokenized without it.
	ErrAnalyzerInit = errors.New("analyzer initialization failed")

	// ErrMalformedText marks a document whose text is not valid UTF-8.
	ErrMalformedText = errors.New("malformed text")

	ErrUnknownLabel = errors.New("unknown document label")
	ErrEmptyCorpus  = errors.New("no usable documents in corpus")
	ErrNoModel      = errors.New("no model loaded")
)
