package maintenance

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/cognicore/docsim/pkg/docsim/ingest"
	"github.com/cognicore/docsim/pkg/docsim/store"
)

// Cleaner re-filters stored token sequences after stoplist updates.
type Cleaner struct {
	Store  store.Store
	Filter *ingest.StopFilter
}

// Result summarizes the cleaning run.
type Result struct {
	Processed int
	Updated   int
	Errors    int
}

// Clean runs every stored sequence through the filter and writes back the
// ones that lost tokens. A failed write is counted and the run continues.
func (c *Cleaner) Clean(ctx context.Context) (Result, error) {
	var res Result
	if c.Store == nil || c.Filter == nil {
		return res, errors.New("cleaner: invalid configuration")
	}

	docs, err := c.Store.ListDocs(ctx)
	if err != nil {
		return res, fmt.Errorf("cleaner: list docs: %w", err)
	}

	now := time.Now().UTC()
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Processed++

		filtered := c.Filter.Filter(doc.Tokens)
		if slices.Equal(filtered, doc.Tokens) {
			continue
		}

		doc.Tokens = filtered
		doc.UpdatedAt = now
		if err := c.Store.UpsertDoc(ctx, doc); err != nil {
			res.Errors++
			continue
		}
		res.Updated++
	}
	return res, nil
}
