package pagelist

import (
	"github.com/vibetunnel/screenengine/pkg/cell"
	"github.com/vibetunnel/screenengine/pkg/page"
)

// pinKey identifies a source cell a tracked pin currently sits on, so
// reflow can carry it forward without building a full coordinate map
// for every cell in the list -- only the (typically few) tracked pins
// need one.
type pinKey struct {
	n    *node
	y, x int
}

// srcCell is one cell of a logical line being re-wrapped, tagged with
// its origin so pins and style/grapheme data can be looked up and
// carried forward.
type srcCell struct {
	n    *node
	y, x int
	c    cell.Cell
}

// reflowResize rebuilds the entire list at newCols, re-wrapping every
// logical line (a run of rows joined by Wrap/WrapContinuation) instead
// of truncating each row independently. This is spec.md 4.5: content
// that fit on one row at the old width may now spill across several,
// and content that needed several rows at the old width may now fit on
// one.
func (pl *PageList) reflowResize(newCols, newRows int) error {
	oldFirst := pl.first

	pinsByKey := make(map[pinKey][]*Pin)
	pl.pins.each(func(p *Pin) {
		k := pinKey{p.node, p.Y, p.X}
		pinsByKey[k] = append(pinsByKey[k], p)
	})

	newCap := page.Standard
	if newCols > newCap.Cols {
		var err error
		newCap, err = newCap.Adjust(newCols)
		if err != nil {
			return err
		}
	}
	newPool := newPagePool(newCap)

	var newFirst, newLast *node
	appendDestRow := func() (*node, int, error) {
		if newLast == nil || newLast.page.Size.Rows >= newLast.page.Capacity.Rows {
			p, err := newPool.acquire()
			if err != nil {
				return nil, 0, err
			}
			p.SetSizeCols(newCols)
			n := &node{page: p}
			if newFirst == nil {
				newFirst = n
			} else {
				n.prev = newLast
				newLast.next = n
			}
			newLast = n
		}
		y := newLast.page.Size.Rows
		newLast.page.SetSizeRows(y + 1)
		return newLast, y, nil
	}

	n, y := oldFirst, 0
	for n != nil {
		row := n.page.Row(y)
		if row.WrapContinuation {
			nn, ny, ok := nodeAtOffset(n, y, 1)
			if !ok {
				break
			}
			n, y = nn, ny
			continue
		}

		line, nextN, nextY := collectLogicalLine(n, y)
		if err := pl.writeLogicalLine(line, row.SemanticPrompt, newCols, pinsByKey, appendDestRow); err != nil {
			return err
		}
		n, y = nextN, nextY
	}

	if newFirst == nil {
		var err error
		newFirst, newLast, _, err = buildChain(newPool, newCols, newRows)
		if err != nil {
			return err
		}
	}

	pl.first, pl.last = newFirst, newLast
	pl.pageCount = pageCountOf(newFirst)
	pl.cols = newCols
	pl.rows = newRows
	pl.pool = newPool

	return pl.ensureMinimumTotalRows()
}

// collectLogicalLine gathers every cell of the logical line starting at
// (n, y): that row plus every following row marked WrapContinuation. It
// returns the cells in reading order along with the position
// immediately after the line, for the caller to resume its scan.
func collectLogicalLine(n *node, y int) (line []srcCell, nextN *node, nextY int) {
	cn, cy := n, y
	for {
		cells := cn.page.RowCells(cy)
		for x, c := range cells {
			line = append(line, srcCell{cn, cy, x, c})
		}
		nn, ny, ok := nodeAtOffset(cn, cy, 1)
		if !ok || !nn.page.Row(ny).WrapContinuation {
			return line, nn, ny
		}
		cn, cy = nn, ny
	}
}

// writeLogicalLine re-wraps one logical line's cells into newCols-wide
// destination rows, carrying styles, graphemes, and tracked pins
// forward. Trailing blank cells are trimmed from the output; a pin that
// sat in the trimmed region is remapped to the line's last live column
// (or column 0, if the whole line was blank).
func (pl *PageList) writeLogicalLine(
	line []srcCell,
	semPrompt cell.SemanticPrompt,
	newCols int,
	pinsByKey map[pinKey][]*Pin,
	appendDestRow func() (*node, int, error),
) error {
	lastLive := -1
	for i := len(line) - 1; i >= 0; i-- {
		if !line[i].c.Empty() {
			lastLive = i
			break
		}
	}
	writeLen := lastLive + 1

	remapPin := func(sc srcCell, dn *node, dy, dx int) {
		if pins, ok := pinsByKey[pinKey{sc.n, sc.y, sc.x}]; ok {
			for _, p := range pins {
				p.node, p.Y, p.X = dn, dy, dx
			}
		}
	}

	if writeLen == 0 {
		dn, dy, err := appendDestRow()
		if err != nil {
			return err
		}
		dn.page.Row(dy).SemanticPrompt = semPrompt
		for _, sc := range line {
			remapPin(sc, dn, dy, 0)
		}
		return nil
	}

	var dn *node
	var dy, destX int
	first := true

	for i := 0; i < writeLen; i++ {
		if first || destX >= newCols {
			var err error
			prevN, prevY := dn, dy
			hadPrev := !first
			dn, dy, err = appendDestRow()
			if err != nil {
				return err
			}
			if first {
				dn.page.Row(dy).SemanticPrompt = semPrompt
				first = false
			} else {
				dn.page.Row(dy).WrapContinuation = true
				if hadPrev {
					prevN.page.Row(prevY).Wrap = true
				}
			}
			destX = 0
		}

		sc := line[i]
		cAt := sc.c

		if cAt.Wide == cell.WideChar && destX == newCols-1 {
			if newCols == 1 {
				cAt.Wide = cell.Narrow
			} else {
				_, c := dn.page.GetRowAndCell(destX, dy)
				dn.page.Row(dy).Wrap = true
				c.Wide = cell.SpacerHead
				remapPin(sc, dn, dy, destX)
				i--
				destX = newCols
				continue
			}
		}

		dstRow, dstCell := dn.page.GetRowAndCell(destX, dy)
		if cAt.StyleID != cell.DefaultStyleID {
			st, ok := sc.n.page.Styles.Lookup(cAt.StyleID)
			if ok {
				id, err := dn.page.Styles.Upsert(st)
				if err != nil {
					return err
				}
				cAt.StyleID = id
				dstRow.Styled = true
			} else {
				cAt.StyleID = cell.DefaultStyleID
			}
		}
		if cAt.ContentTag == cell.ContentCodepointGrapheme {
			extra := sc.n.page.LookupGrapheme(sc.x, sc.y)
			cAt.ContentTag = cell.ContentCodepoint
			*dstCell = cAt
			for _, cp := range extra {
				if err := dn.page.AppendGrapheme(destX, dy, cp); err != nil {
					return err
				}
			}
		} else {
			*dstCell = cAt
		}

		remapPin(sc, dn, dy, destX)
		destX++
	}

	for i := writeLen; i < len(line); i++ {
		remapPin(line[i], dn, dy, destX-1)
	}
	return nil
}
