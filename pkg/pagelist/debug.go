package pagelist

import (
	"fmt"
	"io"
)

// PoolStats summarizes a PageList's current storage footprint: how many
// pages are live, how many standard-capacity pages sit recycled in the
// pool, and the approximate bytes in use against the soft budget.
type PoolStats struct {
	LivePages   int
	PooledPages int
	BytesInUse  int
	BudgetBytes int
}

// PoolStats reports the page list's current pool/budget state, the
// counterpart to the byte-budget heuristic consulted by Grow.
func (pl *PageList) PoolStats() PoolStats {
	return PoolStats{
		LivePages:   pl.pageCount,
		PooledPages: len(pl.pool.free),
		BytesInUse:  pl.totalBytes(),
		BudgetBytes: pl.maxSize(),
	}
}

// Dump writes a human-readable page-by-page summary to w: per-page row
// and column counts, capacity, approximate byte size, and the total
// number of tracked pins. Intended for test failures and the demo
// CLI's dump subcommand, not for machine parsing.
func (pl *PageList) Dump(w io.Writer) error {
	stats := pl.PoolStats()
	if _, err := fmt.Fprintf(w, "pagelist: cols=%d rows=%d pages=%d pooled=%d bytes=%d/%d pins=%d\n",
		pl.cols, pl.rows, stats.LivePages, stats.PooledPages, stats.BytesInUse, stats.BudgetBytes, len(pl.pins.pins)); err != nil {
		return err
	}

	i := 0
	for n := pl.first; n != nil; n = n.next {
		marker := ""
		if pl.viewportPin != nil && n == pl.viewportPin.node {
			marker = " <viewport>"
		}
		if _, err := fmt.Fprintf(w, "  page[%d]: size=%dx%d cap=%dx%d bytes=%d%s\n",
			i, n.page.Size.Rows, n.page.Size.Cols, n.page.Capacity.Rows, n.page.Capacity.Cols,
			pageByteSize(n.page.Capacity), marker); err != nil {
			return err
		}
		i++
	}
	return nil
}
