package page

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vibetunnel/screenengine/pkg/cell"
	"github.com/vibetunnel/screenengine/pkg/style"
)

func smallCapacity() Capacity {
	return Capacity{Rows: 4, Cols: 4, StyleCount: 4, GraphemeBytes: 256}
}

func TestInitZeroSize(t *testing.T) {
	p, err := Init(smallCapacity())
	require.NoError(t, err)
	require.Equal(t, Size{}, p.Size)
	require.Equal(t, smallCapacity(), p.Capacity)
}

func TestSetCellAndGet(t *testing.T) {
	p, _ := Init(smallCapacity())
	p.SetSizeRows(2)
	p.SetSizeCols(4)

	_, c := p.GetRowAndCell(1, 0)
	c.ContentTag = cell.ContentCodepoint
	c.CodePoint = 'A'

	_, c2 := p.GetRowAndCell(1, 0)
	require.Equal(t, 'A', c2.CodePoint)
}

func TestAppendGraphemeRoundTrip(t *testing.T) {
	p, _ := Init(smallCapacity())
	p.SetSizeRows(1)
	p.SetSizeCols(4)

	_, c := p.GetRowAndCell(0, 0)
	c.ContentTag = cell.ContentCodepoint
	c.CodePoint = 'e'

	require.NoError(t, p.AppendGrapheme(0, 0, 0x0301)) // combining acute
	require.NoError(t, p.AppendGrapheme(0, 0, 0x0302))
	require.NoError(t, p.AppendGrapheme(0, 0, 0x0303))
	require.NoError(t, p.AppendGrapheme(0, 0, 0x0304))
	require.NoError(t, p.AppendGrapheme(0, 0, 0x0305)) // forces slow-path growth

	extra := p.LookupGrapheme(0, 0)
	require.Equal(t, []rune{0x0301, 0x0302, 0x0303, 0x0304, 0x0305}, extra)
	require.True(t, p.Rows[0].Grapheme)
}

func TestClearCellsReleasesStyleAndGrapheme(t *testing.T) {
	p, _ := Init(smallCapacity())
	p.SetSizeRows(1)
	p.SetSizeCols(4)

	require.NoError(t, p.SetCellStyle(0, 0, style.Style{Bold: true}))
	_, c := p.GetRowAndCell(0, 0)
	c.ContentTag = cell.ContentCodepoint
	c.CodePoint = 'x'
	require.NoError(t, p.AppendGrapheme(0, 0, 0x0301))

	id := c.StyleID
	require.Equal(t, 1, p.Styles.RefCount(id))

	p.ClearCells(0, 0, 4)
	require.Equal(t, 0, p.Styles.RefCount(id))
	require.Nil(t, p.LookupGrapheme(0, 0))
	require.False(t, p.Rows[0].Grapheme)
	require.False(t, p.Rows[0].Styled)
}

func TestMoveCellsPreservesGrapheme(t *testing.T) {
	p, _ := Init(smallCapacity())
	p.SetSizeRows(1)
	p.SetSizeCols(4)

	_, c := p.GetRowAndCell(0, 0)
	c.ContentTag = cell.ContentCodepoint
	c.CodePoint = 'e'
	require.NoError(t, p.AppendGrapheme(0, 0, 0x0301))

	p.MoveCells(0, 0, 2, 0, 1)

	_, moved := p.GetRowAndCell(2, 0)
	require.Equal(t, cell.ContentCodepointGrapheme, moved.ContentTag)
	require.Equal(t, []rune{0x0301}, p.LookupGrapheme(2, 0))

	_, orig := p.GetRowAndCell(0, 0)
	require.Equal(t, cell.Cell{}, *orig)
}

func TestSwapCellsSwapsGraphemeKeys(t *testing.T) {
	p, _ := Init(smallCapacity())
	p.SetSizeRows(1)
	p.SetSizeCols(4)

	_, a := p.GetRowAndCell(0, 0)
	a.ContentTag, a.CodePoint = cell.ContentCodepoint, 'a'
	require.NoError(t, p.AppendGrapheme(0, 0, 0x0301))

	_, b := p.GetRowAndCell(1, 0)
	b.ContentTag, b.CodePoint = cell.ContentCodepoint, 'b'

	p.SwapCells(0, 0, 1)

	_, c0 := p.GetRowAndCell(0, 0)
	_, c1 := p.GetRowAndCell(1, 0)
	require.Equal(t, rune('b'), c0.CodePoint)
	require.Equal(t, rune('a'), c1.CodePoint)
	require.Nil(t, p.LookupGrapheme(0, 0))
	require.Equal(t, []rune{0x0301}, p.LookupGrapheme(1, 0))
}

func TestCloneIsIndependent(t *testing.T) {
	p, _ := Init(smallCapacity())
	p.SetSizeRows(2)
	p.SetSizeCols(4)
	_, c := p.GetRowAndCell(0, 0)
	c.ContentTag, c.CodePoint = cell.ContentCodepoint, 'z'

	clone, err := p.Clone()
	require.NoError(t, err)
	require.NoError(t, clone.VerifyIntegrity())

	_, cc := clone.GetRowAndCell(0, 0)
	cc.CodePoint = 'y'

	_, orig := p.GetRowAndCell(0, 0)
	require.Equal(t, rune('z'), orig.CodePoint)
}

func TestVerifyIntegritySpacerTailMustFollowWide(t *testing.T) {
	p, _ := Init(smallCapacity())
	p.SetSizeRows(1)
	p.SetSizeCols(4)
	_, c := p.GetRowAndCell(1, 0)
	c.Wide = cell.SpacerTail

	err := p.VerifyIntegrity()
	require.Error(t, err)
	ie, ok := AsIntegrityError(err)
	require.True(t, ok)
	require.Equal(t, InvalidSpacerTailLocation, ie.Kind)
}

func TestVerifyIntegritySpacerHeadMustBeLastAndWrapped(t *testing.T) {
	p, _ := Init(smallCapacity())
	p.SetSizeRows(1)
	p.SetSizeCols(4)
	_, c := p.GetRowAndCell(3, 0)
	c.Wide = cell.SpacerHead

	err := p.VerifyIntegrity()
	require.Error(t, err)
	ie, _ := AsIntegrityError(err)
	require.Equal(t, UnwrappedSpacerHead, ie.Kind)

	p.Rows[0].Wrap = true
	require.NoError(t, p.VerifyIntegrity())
}

func TestAdjustCapacityReduceCols(t *testing.T) {
	c := Capacity{Rows: 10, Cols: 10, StyleCount: 4, GraphemeBytes: 64}
	adj, err := c.Adjust(5)
	require.NoError(t, err)
	require.Equal(t, 20, adj.Rows)
	require.Equal(t, 5, adj.Cols)
}

func TestAdjustCapacityTooWideFails(t *testing.T) {
	c := Capacity{Rows: 1, Cols: 1, StyleCount: 4, GraphemeBytes: 64}
	_, err := c.Adjust(100)
	require.ErrorIs(t, err, ErrOutOfMemory)
}
