// Package aggregate collects every occurrence record of a search by paging
// through the occurrence search service. Pages are grouped into batches
// that are moved to scratch storage as soon as they are complete, so only
// one batch is kept in memory during fetching.
package aggregate

import (
	"context"
	"time"

	"github.com/gnames/gnflore/pkg/ent/occ"
	"github.com/gnames/gnflore/pkg/retry"
)

// Searcher requests one page of occurrence records.
type Searcher interface {
	Search(
		ctx context.Context,
		q occ.SearchQuery,
		limit, offset int,
	) (occ.Page, error)
}

// Aggregator returns all records of a search.
type Aggregator interface {
	Aggregate(ctx context.Context, q occ.SearchQuery) ([]occ.Record, error)
}

// Progress is called after each fetched page with the number of pages
// done and the number of pages expected.
type Progress func(done, total int)

// Config contains paging parameters.
type Config struct {
	// PageSize is the number of records per page request.
	PageSize int

	// BatchSize is the number of pages per scratch batch.
	BatchSize int

	// KingdomKey is used for queries without taxon keys.
	KingdomKey int

	// Retry applies to the count probe and to every page.
	Retry retry.Policy
}

// DefaultConfig returns 300 records per page, 20 pages per batch and
// three attempts per request one second apart.
func DefaultConfig() Config {
	return Config{
		PageSize:   300,
		BatchSize:  20,
		KingdomKey: occ.PlantaeKey,
		Retry:      retry.Policy{MaxAttempts: 3, Delay: time.Second},
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.PageSize <= 0 {
		c.PageSize = def.PageSize
	}
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = def.Retry.MaxAttempts
	}
	return c
}
