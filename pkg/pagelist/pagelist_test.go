package pagelist

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vibetunnel/screenengine/pkg/cell"
	"github.com/vibetunnel/screenengine/pkg/style"
)

func writeChar(t *testing.T, pl *PageList, tag Tag, pt Point, r rune) {
	t.Helper()
	c := pl.GetCell(tag, pt)
	require.NotNil(t, c)
	c.ContentTag = cell.ContentCodepoint
	c.CodePoint = r
}

func TestNewActiveAreaTopLeft(t *testing.T) {
	pl, err := New(10, 5, 0)
	require.NoError(t, err)
	require.Equal(t, 5, pl.TotalRows())
	top := pl.GetTopLeft(TagActive)
	require.NotNil(t, top)
	require.Equal(t, 0, top.Y)
}

func TestGrowBeyondBudgetPrunesScrollback(t *testing.T) {
	// S1: with a tight byte budget, repeated Grow() calls prune the
	// oldest scrollback page instead of growing without bound.
	pl, err := New(4, 2, 0)
	require.NoError(t, err)
	pl.SetMaxSize(pl.minMaxSize) // keep the tight default budget

	// 1000 rows at 4 columns spans several 215-row pages, so the budget
	// is exceeded and pruning has to happen for the bound below to hold.
	for i := 0; i < 1000; i++ {
		require.NoError(t, pl.Grow())
	}
	require.LessOrEqual(t, pl.totalBytes(), pl.maxSize()+pageByteSize(pl.pool.capacity))
}

func TestReflowMoreColsUnwraps(t *testing.T) {
	// S2: a logical line wrapped across two rows at width 2 joins back
	// into a single row once the width grows to fit it.
	pl, err := New(2, 2, 0)
	require.NoError(t, err)

	writeChar(t, pl, TagActive, Point{X: 0, Y: 0}, 'a')
	writeChar(t, pl, TagActive, Point{X: 1, Y: 0}, 'b')
	pl.GetCell(TagActive, Point{X: 0, Y: 0}) // ensure resolved before mutating row flags
	n, y, ok := pl.resolve(TagActive, Point{Y: 0})
	require.True(t, ok)
	n.page.Row(y).Wrap = true
	n2, y2, ok := pl.resolve(TagActive, Point{Y: 1})
	require.True(t, ok)
	n2.page.Row(y2).WrapContinuation = true
	writeChar(t, pl, TagActive, Point{X: 0, Y: 1}, 'c')

	require.NoError(t, pl.Resize(4, 2, true))

	got := pl.GetCell(TagActive, Point{X: 0, Y: pl.rows - 1})
	require.NotNil(t, got)
	joined := pl.GetCell(TagActive, Point{X: 2, Y: 0})
	require.NotNil(t, joined)
	require.Equal(t, rune('c'), joined.CodePoint)
}

func TestReflowFewerColsWrapsPreservesCursor(t *testing.T) {
	// S3: narrowing forces a wrap; a pin tracking the last character
	// written follows its cell to the new row/col.
	pl, err := New(4, 3, 0)
	require.NoError(t, err)
	for i, r := range []rune{'a', 'b', 'c', 'd'} {
		writeChar(t, pl, TagActive, Point{X: i, Y: 0}, r)
	}
	cursor := pl.TrackPin(TagActive, Point{X: 3, Y: 0})
	require.NotNil(t, cursor)

	require.NoError(t, pl.Resize(2, 3, true))

	pt, ok := pl.PointFromPin(TagScreen, cursor)
	require.True(t, ok)
	c := pl.GetCell(TagScreen, pt)
	require.NotNil(t, c)
	require.Equal(t, rune('d'), c.CodePoint)
}

func TestEraseRowCascadeAcrossPageBoundary(t *testing.T) {
	// S4: EraseRow on the first page's only row rotates the second
	// page's row 0 down into it -- a pin tracking that row's content
	// follows the cascade onto the first page's last row, and the
	// second page's own last row is the one left blank afterward.
	// A wide enough column count drives the standard cell budget down to
	// exactly one row of capacity per page, so Grow is guaranteed to
	// allocate a fresh page rather than just extending the first one.
	pl, err := New(30000, 1, 0)
	require.NoError(t, err)
	require.NoError(t, pl.Grow())

	firstN, _, ok := pl.resolve(TagScreen, Point{Y: 0})
	require.True(t, ok)
	secondN, secondY, ok := pl.resolve(TagScreen, Point{Y: 1})
	require.True(t, ok)
	require.NotEqual(t, firstN, secondN)

	writeChar(t, pl, TagScreen, Point{Y: 1}, 'x')
	tracked := pl.TrackPin(TagScreen, Point{Y: 1})
	require.NotNil(t, tracked)

	require.NoError(t, pl.EraseRow(TagScreen, Point{Y: 0}))

	require.Equal(t, firstN, tracked.node)
	require.Equal(t, 0, tracked.Y)
	_, c := firstN.page.GetRowAndCell(0, 0)
	require.Equal(t, rune('x'), c.CodePoint)

	_, blanked := secondN.page.GetRowAndCell(0, secondY)
	require.True(t, blanked.Empty())
}

func TestEraseRowBoundedStopsCascadeAtLimit(t *testing.T) {
	// erase_row_bounded caps how many pages the cascade reaches into:
	// with limit 0 the vacated row is cleared in place on the same
	// page instead of pulling content across the boundary.
	pl, err := New(30000, 1, 0)
	require.NoError(t, err)
	require.NoError(t, pl.Grow())

	firstN, _, ok := pl.resolve(TagScreen, Point{Y: 0})
	require.True(t, ok)
	writeChar(t, pl, TagScreen, Point{Y: 0}, 'x')

	_, secondY, ok := pl.resolve(TagScreen, Point{Y: 1})
	require.True(t, ok)
	writeChar(t, pl, TagScreen, Point{Y: 1}, 'y')

	require.NoError(t, pl.EraseRowBounded(TagScreen, Point{Y: 0}, 0))

	_, c := firstN.page.GetRowAndCell(0, 0)
	require.True(t, c.Empty())

	secondN, _, ok := pl.resolve(TagScreen, Point{Y: 1})
	require.True(t, ok)
	_, c2 := secondN.page.GetRowAndCell(0, secondY)
	require.Equal(t, rune('y'), c2.CodePoint)
}

func TestEraseRowsShrinksListAndRegrowsActive(t *testing.T) {
	// EraseRows over every row of the list's only page reinitializes that
	// page in place and, since the erased range overlapped the active
	// area, Grow restores the total
	// row count afterward instead of leaving the list permanently
	// shorter.
	pl, err := New(4, 2, 0)
	require.NoError(t, err)
	require.NoError(t, pl.Grow())
	writeChar(t, pl, TagScreen, Point{X: 0, Y: 0}, 'x')

	before := pl.TotalRows()
	require.NoError(t, pl.EraseRows(TagScreen, Point{Y: 0}, Point{Y: pl.TotalRows() - 1}))
	require.Equal(t, before, pl.TotalRows())

	n, y, ok := pl.resolve(TagScreen, Point{Y: 0})
	require.True(t, ok)
	_, c := n.page.GetRowAndCell(0, y)
	require.True(t, c.Empty())
}

func TestScrollClearPushesNonEmptyPrefix(t *testing.T) {
	// S5: ScrollClear moves existing content into scrollback and
	// presents a blank active area.
	pl, err := New(4, 3, 0)
	require.NoError(t, err)
	writeChar(t, pl, TagActive, Point{X: 0, Y: 0}, 'x')

	before := pl.TotalRows()
	require.NoError(t, pl.ScrollClear())
	require.Greater(t, pl.TotalRows(), before-1)

	top := pl.GetTopLeft(TagActive)
	_, c := top.node.page.GetRowAndCell(0, top.Y)
	require.True(t, c.Empty())
}

func TestAdjustCapacityGrowStylesPreservesContent(t *testing.T) {
	// S6: growing a page's style capacity keeps existing styled cells
	// intact.
	pl, err := New(4, 2, 0)
	require.NoError(t, err)
	n, y, ok := pl.resolve(TagActive, Point{Y: 0})
	require.True(t, ok)
	require.NoError(t, n.page.SetCellStyle(0, y, style.Style{Bold: true}))

	require.NoError(t, n.page.AdjustStyleCapacity(n.page.Capacity.StyleCount*2))

	_, c := n.page.GetRowAndCell(0, y)
	st, ok := n.page.Styles.Lookup(c.StyleID)
	require.True(t, ok)
	require.True(t, st.Bold)
}

func TestSetCellStyleRetriesAfterCapacityExhausted(t *testing.T) {
	// SetCellStyle must recover from a full style set by growing capacity
	// and retrying once, the same allocation-failure policy
	// AppendGrapheme already follows. Every write targets a distinct cell
	// so each style stays live, actually exhausting the set rather than
	// freeing the previous slot on every call.
	cols := 140
	pl, err := New(cols, 1, 0)
	require.NoError(t, err)
	n, _, ok := pl.resolve(TagActive, Point{Y: 0})
	require.True(t, ok)
	startCapacity := n.page.Capacity.StyleCount

	for i := 0; i < startCapacity+4; i++ {
		st := style.Style{HasFg: true, FgRGB: uint32(i + 1)}
		require.NoError(t, pl.SetCellStyle(TagActive, Point{X: i % cols, Y: 0}, st))
	}
	require.Greater(t, n.page.Capacity.StyleCount, startCapacity)
}

func TestAdjustCapacityThenCompactShrinksBack(t *testing.T) {
	// PageList.AdjustCapacity grows a page's style capacity through the
	// public surface, and Compact shrinks it back to what the live
	// content actually needs while preserving that content.
	pl, err := New(4, 2, 0)
	require.NoError(t, err)
	n, y, ok := pl.resolve(TagActive, Point{Y: 0})
	require.True(t, ok)
	require.NoError(t, n.page.SetCellStyle(0, y, style.Style{Bold: true}))
	startCapacity := n.page.Capacity.StyleCount

	require.NoError(t, pl.AdjustCapacity(TagActive, Point{Y: 0}, startCapacity*4, 0))
	require.Greater(t, n.page.Capacity.StyleCount, startCapacity)

	require.NoError(t, pl.Compact(TagActive, Point{Y: 0}))
	require.Less(t, n.page.Capacity.StyleCount, startCapacity*4)

	_, c := n.page.GetRowAndCell(0, y)
	st, ok := n.page.Styles.Lookup(c.StyleID)
	require.True(t, ok)
	require.True(t, st.Bold)
}

func TestResizeCursorRestoresRowsBelowCursor(t *testing.T) {
	// Narrowing a line the cursor sits at the end of wraps it onto a
	// later row; ResizeCursor follows the cursor to its new cell the way
	// Resize's plain pin-tracking already does, and grows the active area
	// to make up any rows a forward wrap pushed below the old bottom, so
	// rows that were visible below the cursor stay reachable.
	pl, err := New(4, 3, 0)
	require.NoError(t, err)
	for i, r := range []rune{'a', 'b', 'c', 'd'} {
		writeChar(t, pl, TagActive, Point{X: i, Y: 0}, r)
	}
	writeChar(t, pl, TagActive, Point{X: 0, Y: 1}, 'e')
	writeChar(t, pl, TagActive, Point{X: 0, Y: 2}, 'f')

	beforeTotal := pl.TotalRows()
	pt, err := pl.ResizeCursor(2, 3, true, Point{X: 3, Y: 0})
	require.NoError(t, err)
	require.GreaterOrEqual(t, pl.TotalRows(), beforeTotal)

	c := pl.GetCell(TagActive, pt)
	require.NotNil(t, c)
	require.Equal(t, rune('d'), c.CodePoint)
}

func TestScrollDeltaRowClampsToTop(t *testing.T) {
	pl, err := New(4, 2, 0)
	require.NoError(t, err)
	require.NoError(t, pl.Scroll(ScrollBehavior{Kind: ScrollDeltaRow, DeltaRows: -1000}))
	require.Equal(t, ViewportTop, pl.viewportTag)
}

func TestRowIteratorCoversEveryActiveRow(t *testing.T) {
	pl, err := New(4, 3, 0)
	require.NoError(t, err)
	it := pl.NewRowIterator(TagActive, RightDown)
	count := 0
	for {
		_, _, _, ok := it.Next()
		if !ok {
			break
		}
		count++
	}
	require.Equal(t, 3, count)
}

func TestCloneProducesIndependentCopy(t *testing.T) {
	pl, err := New(4, 2, 0)
	require.NoError(t, err)
	writeChar(t, pl, TagActive, Point{X: 0, Y: 0}, 'q')

	clone, _, err := pl.Clone(CloneRange{TopTag: TagActive, Top: Point{Y: 0}}, 0, nil)
	require.NoError(t, err)

	got := clone.GetCell(TagActive, Point{X: 0, Y: 0})
	require.Equal(t, rune('q'), got.CodePoint)

	got.CodePoint = 'z'
	orig := pl.GetCell(TagActive, Point{X: 0, Y: 0})
	require.Equal(t, rune('q'), orig.CodePoint)
}
