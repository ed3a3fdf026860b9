package vtfeed

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vibetunnel/screenengine/pkg/cell"
	"github.com/vibetunnel/screenengine/pkg/pagelist"
)

func newTestList(t *testing.T, cols, rows int) *pagelist.PageList {
	t.Helper()
	pl, err := pagelist.New(cols, rows, 0)
	require.NoError(t, err)
	return pl
}

func TestPrintAdvancesCursorAndWrapsAtEndOfRow(t *testing.T) {
	pl := newTestList(t, 4, 3)
	in := New(pl)

	_, err := in.Write([]byte("abcd"))
	require.NoError(t, err)
	require.Equal(t, 0, in.cursorX)
	require.Equal(t, 1, in.cursorY)

	got := pl.GetCell(pagelist.TagActive, pagelist.Point{X: 3, Y: 0})
	require.Equal(t, rune('d'), got.CodePoint)
}

func TestLineFeedAtBottomGrowsActiveAreaIntoScrollback(t *testing.T) {
	pl := newTestList(t, 4, 2)
	in := New(pl)

	_, err := in.Write([]byte("aa\r\nbb\r\ncc"))
	require.NoError(t, err)

	got := pl.GetCell(pagelist.TagActive, pagelist.Point{X: 0, Y: in.cursorY})
	require.Equal(t, rune('c'), got.CodePoint)
	require.Greater(t, pl.TotalRows(), 2)
}

func TestCursorPositioningCSI(t *testing.T) {
	pl := newTestList(t, 10, 5)
	in := New(pl)

	_, err := in.Write([]byte("\x1b[3;4Hx"))
	require.NoError(t, err)

	got := pl.GetCell(pagelist.TagActive, pagelist.Point{X: 3, Y: 2})
	require.Equal(t, rune('x'), got.CodePoint)
}

func TestSGRBoldAppliesStyle(t *testing.T) {
	pl := newTestList(t, 10, 5)
	in := New(pl)

	_, err := in.Write([]byte("\x1b[1mx\x1b[0my"))
	require.NoError(t, err)

	bold := pl.GetCell(pagelist.TagActive, pagelist.Point{X: 0, Y: 0})
	require.NotEqual(t, cell.DefaultStyleID, bold.StyleID)

	plain := pl.GetCell(pagelist.TagActive, pagelist.Point{X: 1, Y: 0})
	require.Equal(t, cell.DefaultStyleID, plain.StyleID)
}

func TestEraseDisplayModeTwoClearsActiveArea(t *testing.T) {
	pl := newTestList(t, 4, 2)
	in := New(pl)

	_, err := in.Write([]byte("abcd\x1b[2J"))
	require.NoError(t, err)

	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			c := pl.GetCell(pagelist.TagActive, pagelist.Point{X: x, Y: y})
			require.True(t, c.Empty())
		}
	}
}

func TestOSC133MarksSemanticPrompt(t *testing.T) {
	pl := newTestList(t, 10, 3)
	in := New(pl)

	_, err := in.Write([]byte("\x1b]133;A\x07$ "))
	require.NoError(t, err)

	sp, ok := pl.SemanticPromptAt(pagelist.TagActive, pagelist.Point{X: 0, Y: 0})
	require.True(t, ok)
	require.Equal(t, cell.SemanticPromptPrompt, sp)
}

func TestResizeCarriesCursorThroughReflow(t *testing.T) {
	pl := newTestList(t, 4, 3)
	in := New(pl)

	_, err := in.Write([]byte("abcd"))
	require.NoError(t, err)

	require.NoError(t, in.Resize(2, 3, true))

	pt := in.CursorPosition()
	require.GreaterOrEqual(t, pt.Y, 0)
}
