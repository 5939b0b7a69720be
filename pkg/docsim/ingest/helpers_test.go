package ingest

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cognicore/docsim/pkg/docsim/analyzer"
)

var (
	ipaOnce sync.Once
	ipaRes  *analyzer.Resources
	ipaErr  error
)

// kagomePool builds a pool over the bundled IPA dictionary. The dictionary is
// loaded once per test binary.
func kagomePool(t *testing.T, size int) *analyzer.Pool {
	t.Helper()
	ipaOnce.Do(func() {
		ipaRes, ipaErr = analyzer.LoadResources(analyzer.Options{})
	})
	require.NoError(t, ipaErr)

	pool, err := analyzer.NewPool(size, analyzer.KagomeFactory(ipaRes))
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

// staticAnalyzer replays a fixed analysis regardless of input.
type staticAnalyzer []analyzer.Morpheme

func (s staticAnalyzer) Analyze(string) []analyzer.Morpheme { return s }

func staticPool(t *testing.T, ms ...analyzer.Morpheme) *analyzer.Pool {
	t.Helper()
	pool, err := analyzer.NewPool(1, func() (analyzer.Analyzer, error) {
		return staticAnalyzer(ms), nil
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}
