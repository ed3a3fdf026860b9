package pagelist

import "errors"

// ErrPointOutOfRange is returned when a tagged point passed to an erase
// or scroll operation does not resolve to a live row.
var ErrPointOutOfRange = errors.New("pagelist: point out of range")

// EraseRow removes a single row (spec.md 4.4's erase_row): every row
// below it, across however many subsequent pages exist, cascades up by
// one to fill the gap, and a fresh blank row is exposed at the very
// bottom of the list. Every page keeps its original live row count --
// unlike EraseRows, no page shrinks or gets destroyed.
func (pl *PageList) EraseRow(tag Tag, pt Point) error {
	n, y, ok := pl.resolve(tag, pt)
	if !ok {
		return ErrPointOutOfRange
	}
	pl.eraseRowCascade(n, y, -1)
	return nil
}

// EraseRowBounded behaves like EraseRow but caps how many pages the
// cascade crosses: once limit pages have been pulled forward, the
// exposed row is cleared in place instead of reaching into the next
// page -- the capped variant spec.md 4.4 calls erase_row_bounded.
func (pl *PageList) EraseRowBounded(tag Tag, pt Point, limit int) error {
	n, y, ok := pl.resolve(tag, pt)
	if !ok {
		return ErrPointOutOfRange
	}
	pl.eraseRowCascade(n, y, limit)
	return nil
}

// eraseRowCascade implements the rotate-and-shift at the core of
// erase_row/erase_row_bounded. Rows below y in n shift up one slot by
// rotating cell.Row records (a small-struct swap, not a cell-data copy
// -- CellOffset is itself part of the record being moved, so a row's
// association with its underlying cell storage simply follows it). The
// vacated last slot is then either handed off to the next page's first
// row (cloning its content across the page boundary and recursing) or,
// once there is no next page or the cascade limit is reached, cleared
// in place. maxCascade < 0 means unbounded.
func (pl *PageList) eraseRowCascade(n *node, y int, maxCascade int) {
	crossed := 0
	for {
		p := n.page
		last := p.Size.Rows - 1

		pl.rewritePinsRowDelta(n, y+1, -1)

		removed := p.Rows[y]
		copy(p.Rows[y:last], p.Rows[y+1:last+1])
		p.Rows[last] = removed

		next := n.next
		if next == nil || (maxCascade >= 0 && crossed >= maxCascade) {
			p.ClearCells(last, 0, p.Size.Cols)
			blank := p.Row(last)
			blank.Wrap = false
			blank.WrapContinuation = false
			return
		}

		pl.rewritePinsCrossPageMove(next, 0, n, last)
		if err := p.ClonePartialRowFrom(next.page, 0, last, 0, p.Size.Cols); err != nil {
			p.ClearCells(last, 0, p.Size.Cols)
			return
		}

		n, y = next, 0
		crossed++
	}
}

// EraseRows erases every row from "from" to "to" inclusive (spec.md
// 4.4's erase_rows), walking the pages the range touches top to bottom:
// a page entirely covered by the range is destroyed (or, if it is the
// only page left, reinitialized in place at zero size); a page only
// partly covered has its surviving rows slid up to close the gap.
// Unlike EraseRow, this shrinks the list by the erased row count -- if
// the erased range overlapped the active area, Grow is called that many
// times afterward to restore it.
func (pl *PageList) EraseRows(tag Tag, from, to Point) error {
	topN, topY, ok := pl.resolve(tag, from)
	if !ok {
		return ErrPointOutOfRange
	}
	botN, botY, ok := pl.resolve(tag, to)
	if !ok {
		return ErrPointOutOfRange
	}
	if rowCompare(topN, topY, botN, botY) > 0 {
		topN, topY, botN, botY = botN, botY, topN, topY
	}

	activeN, activeY := pl.activeAreaTop()
	touchedActive := rowCompare(botN, botY, activeN, activeY) >= 0

	totalErased := 0
	n, startRow := topN, topY
	for n != nil {
		size := n.page.Size.Rows
		endRow := size
		last := n == botN
		if last {
			endRow = botY + 1
		}
		count := endRow - startRow
		if count <= 0 {
			if last {
				break
			}
			n, startRow = n.next, 0
			continue
		}
		totalErased += count

		if startRow == 0 && endRow == size {
			if n.prev == nil && n.next == nil {
				pl.pins.each(func(p *Pin) {
					if p.node == n {
						p.Y, p.X = 0, 0
					}
				})
				n.page.Reinit()
				n.page.SetSizeCols(pl.cols)
			} else {
				replacement := n.next
				if replacement == nil {
					replacement = n.prev
				}
				pl.rewritePinsOnPageRemoved(n, replacement)
				following := n.next
				pl.detach(n)
				pl.pool.release(n.page)
				if last {
					break
				}
				n, startRow = following, 0
				continue
			}
		} else {
			pl.rewritePinsErasePartial(n, startRow, endRow, count)
			tailLen := size - endRow
			copy(n.page.Rows[startRow:startRow+tailLen], n.page.Rows[endRow:size])
			for i := startRow + tailLen; i < size; i++ {
				n.page.ClearCells(i, 0, n.page.Size.Cols)
				blank := n.page.Row(i)
				blank.Wrap = false
				blank.WrapContinuation = false
			}
			n.page.SetSizeRows(size - count)
		}

		if last {
			break
		}
		n, startRow = n.next, 0
	}

	if touchedActive {
		for i := 0; i < totalErased; i++ {
			if err := pl.Grow(); err != nil {
				return err
			}
		}
	}

	pl.settleViewportAfterErase()
	return nil
}

// settleViewportAfterErase re-anchors a pinned or top-anchored viewport
// back to active once the content it was tracking has been folded into
// the active area by an erase, per spec.md 4.4's viewport-adjustment
// rule.
func (pl *PageList) settleViewportAfterErase() {
	activeN, activeY := pl.activeAreaTop()
	switch pl.viewportTag {
	case ViewportPinned:
		if pl.viewportPin != nil && rowCompare(pl.viewportPin.node, pl.viewportPin.Y, activeN, activeY) >= 0 {
			pl.setViewport(ViewportActive, nil)
		}
	case ViewportTop:
		if rowCompare(pl.first, 0, activeN, activeY) >= 0 {
			pl.setViewport(ViewportActive, nil)
		}
	}
}
