package pagelist

import (
	"errors"

	"github.com/vibetunnel/screenengine/pkg/page"
)

// Resize changes the page list's live column and row count, either
// reflowing content to the new width (spec.md 4.5) or leaving every
// row's content exactly where it is and just truncating/padding columns
// (spec.md 4.6). Row count changes are never reflowed -- they only ever
// change which rows fall in the active-area window -- so reflow is
// skipped automatically whenever cols is unchanged.
func (pl *PageList) Resize(newCols, newRows int, reflow bool) error {
	if newCols <= 0 || newRows <= 0 {
		return errors.New("pagelist: cols and rows must be positive")
	}
	if !reflow || newCols == pl.cols {
		return pl.ResizeWithoutReflow(newCols, newRows)
	}
	return pl.reflowResize(newCols, newRows)
}

// ResizeWithoutReflow rebuilds the list at newCols (if it changed),
// copying each row's content independently -- truncating columns beyond
// the new width, leaving newly exposed columns blank -- with no
// re-wrapping across row boundaries. Every tracked pin is carried to the
// same (row, clamped-col) position in the rebuilt list.
func (pl *PageList) ResizeWithoutReflow(newCols, newRows int) error {
	if newCols == pl.cols {
		pl.rows = newRows
		return pl.ensureMinimumTotalRows()
	}

	oldFirst := pl.first
	totalRows := pl.TotalRows()

	newCap := page.Standard
	if newCols > newCap.Cols {
		var err error
		newCap, err = newCap.Adjust(newCols)
		if err != nil {
			return err
		}
	}
	newPool := newPagePool(newCap)

	newFirst, newLast, count, err := buildChain(newPool, newCols, totalRows)
	if err != nil {
		return err
	}

	minCols := newCols
	if pl.cols < minCols {
		minCols = pl.cols
	}

	srcN, srcY := oldFirst, 0
	dstN, dstY := newFirst, 0
	for i := 0; i < count; i++ {
		if err := dstN.page.ClonePartialRowFrom(srcN.page, srcY, dstY, 0, minCols); err != nil {
			return err
		}
		if i+1 < count {
			if sn, sy, ok := nodeAtOffset(srcN, srcY, 1); ok {
				srcN, srcY = sn, sy
			}
			if dn, dy, ok := nodeAtOffset(newFirst, 0, i+1); ok {
				dstN, dstY = dn, dy
			}
		}
	}

	pl.pins.each(func(p *Pin) {
		off, ok := rowsBetween(oldFirst, 0, p.node, p.Y)
		if !ok {
			off = 0
		}
		if off >= count {
			off = count - 1
		}
		if nn, ny, ok := nodeAtOffset(newFirst, 0, off); ok {
			p.node, p.Y = nn, ny
		}
		if p.X >= newCols {
			p.X = newCols - 1
		}
	})

	pl.first, pl.last = newFirst, newLast
	pl.pageCount = pageCountOf(newFirst)
	pl.cols = newCols
	pl.rows = newRows
	pl.pool = newPool

	return pl.ensureMinimumTotalRows()
}

// ResizeCursor behaves like Resize but additionally restores the number
// of rows below the cursor in the active area when a reflow shrinks it
// (spec.md 4.5's last bullet and 6's resize({cols?, rows?, reflow,
// cursor?})): the cursor is tracked across the call, and Grow is called
// enough times afterward to make up any shortfall, capped by however
// far the cursor itself moved down as a result of rewrapping. Returns
// the cursor's new position.
func (pl *PageList) ResizeCursor(newCols, newRows int, reflow bool, cursor Point) (Point, error) {
	pin := pl.TrackPin(TagActive, cursor)
	if pin == nil {
		return cursor, pl.Resize(newCols, newRows, reflow)
	}
	defer pl.UntrackPin(pin)

	activeN, activeY := pl.activeAreaTop()
	beforeOffset, _ := rowsBetween(activeN, activeY, pin.node, pin.Y)
	beforeBelow, _ := rowsBetween(pin.node, pin.Y, pl.last, pl.last.page.Size.Rows-1)

	if err := pl.Resize(newCols, newRows, reflow); err != nil {
		return cursor, err
	}

	pt, ok := pl.PointFromPin(TagActive, pin)
	if !ok {
		pt = Point{X: 0, Y: pl.rows - 1}
	}

	activeN, activeY = pl.activeAreaTop()
	afterOffset, _ := rowsBetween(activeN, activeY, pin.node, pin.Y)
	afterBelow, _ := rowsBetween(pin.node, pin.Y, pl.last, pl.last.page.Size.Rows-1)

	if shortfall := beforeBelow - afterBelow; shortfall > 0 {
		growBy := shortfall
		if wrapped := afterOffset - beforeOffset; wrapped > 0 && wrapped < growBy {
			growBy = wrapped
		}
		for i := 0; i < growBy; i++ {
			if err := pl.Grow(); err != nil {
				return pt, err
			}
		}
	}

	return pt, nil
}
