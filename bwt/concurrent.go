package bwt

import (
	"context"

	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency bounds how many record extractions SearchConcurrent
// runs at once.
const DefaultConcurrency = 128

// SearchConcurrent is Search with per-match record extraction dispatched
// across a bounded worker pool, deduplicated and sorted by identifier the
// same way Search is. workers <= 0 selects DefaultConcurrency.
func SearchConcurrent(ctx context.Context, c *Context, pattern []byte, workers int) (matches []Record, err error) {
	defer recoverAsError("SearchConcurrent", &err)
	if workers <= 0 {
		workers = DefaultConcurrency
	}

	lo, hi, err := SearchPattern(c, pattern)
	if err != nil {
		return nil, err
	}
	if hi <= lo {
		return nil, nil
	}

	rows := make([]int, hi-lo)
	for i := range rows {
		rows[i] = lo + i
	}

	results := make([]Record, len(rows))
	sem := semaphore.NewWeighted(int64(workers))
	g, gctx := errgroup.WithContext(ctx)

	for i, row := range rows {
		i, row := i, row
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			id, text, err := c.ExtractAt(row)
			if err != nil {
				return err
			}
			results[i] = Record{ID: id, Text: text}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	slices.SortFunc(results, func(a, b Record) int { return a.ID - b.ID })
	results = slices.CompactFunc(results, func(a, b Record) bool { return a.ID == b.ID })
	return results, nil
}
