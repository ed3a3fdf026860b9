package pagelist

// buildChain allocates a run of pages from pool sized to hold exactly
// totalRows rows at the given column width, linked as a standalone
// doubly-linked chain (not yet attached to any PageList). Used by
// reflow and column-width resize, which both need to build a whole new
// chain before atomically swapping it in for the old one.
func buildChain(pool *pagePool, cols, totalRows int) (first, last *node, count int, err error) {
	remaining := totalRows
	for remaining > 0 {
		p, aerr := pool.acquire()
		if aerr != nil {
			return nil, nil, 0, aerr
		}
		p.SetSizeCols(cols)
		take := p.Capacity.Rows
		if take > remaining {
			take = remaining
		}
		p.SetSizeRows(take)

		n := &node{page: p}
		if last == nil {
			first = n
		} else {
			n.prev = last
			last.next = n
		}
		last = n
		remaining -= take
	}
	return first, last, pageCountOf(first), nil
}

func pageCountOf(n *node) int {
	c := 0
	for ; n != nil; n = n.next {
		c++
	}
	return c
}

// ensureMinimumTotalRows pads the tail with blank rows until the list
// holds at least pl.rows rows, growing (and pruning scrollback if
// needed) exactly as an ordinary write past the last row would.
func (pl *PageList) ensureMinimumTotalRows() error {
	for pl.TotalRows() < pl.rows {
		if _, _, err := pl.EnsureActiveRow(); err != nil {
			return err
		}
	}
	return nil
}
