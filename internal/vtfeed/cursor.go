package vtfeed

import (
	"github.com/vibetunnel/screenengine/pkg/cell"
	"github.com/vibetunnel/screenengine/pkg/pagelist"
	"github.com/vibetunnel/screenengine/pkg/style"
)

// print writes r at the cursor and advances it, wrapping to the start of
// the next row as soon as the row's last column has been written, so the
// cursor always addresses a cell of the active area. Wrapping off the
// bottom row scrolls through PageList.EnsureActiveRow, which lets the
// row that falls off the top of the active area live on in scrollback
// instead of being discarded.
func (in *Interpreter) print(r rune) {
	wide := cell.Narrow
	if runeWidth(r) == 2 {
		wide = cell.WideChar
	}

	if in.cursorX >= in.pl.Cols() {
		in.cursorX = 0
		in.advanceLine()
	}

	pt := pagelist.Point{X: in.cursorX, Y: in.cursorY}
	_ = in.pl.SetCellContent(pagelist.TagActive, pt, r, wide)
	in.applyCurrentStyle(pt)

	if wide == cell.WideChar && in.cursorX+1 < in.pl.Cols() {
		tailPt := pagelist.Point{X: in.cursorX + 1, Y: in.cursorY}
		_ = in.pl.SetCellContent(pagelist.TagActive, tailPt, 0, cell.SpacerTail)
	}

	in.cursorX++
	if wide == cell.WideChar {
		in.cursorX++
	}
	if in.cursorX >= in.pl.Cols() {
		in.cursorX = 0
		in.advanceLine()
	}
}

func (in *Interpreter) applyCurrentStyle(pt pagelist.Point) {
	if in.style == (style.Style{}) {
		_ = in.pl.ClearCellStyle(pagelist.TagActive, pt)
		return
	}
	_ = in.pl.SetCellStyle(pagelist.TagActive, pt, in.style)
}

// advanceLine moves the cursor to the next row, growing the active area
// by one row (and thereby pushing its current top row into scrollback)
// once the cursor is already on the last row.
func (in *Interpreter) advanceLine() {
	if in.cursorY < in.pl.Rows()-1 {
		in.cursorY++
		return
	}
	if _, _, err := in.pl.EnsureActiveRow(); err == nil {
		in.cursorY = in.pl.Rows() - 1
	}
}

func (in *Interpreter) reverseLineFeed() {
	if in.cursorY > 0 {
		in.cursorY--
	}
}

func (in *Interpreter) lineFeed() {
	in.advanceLine()
}

func (in *Interpreter) carriageReturn() {
	in.cursorX = 0
}

func (in *Interpreter) backspace() {
	if in.cursorX > 0 {
		in.cursorX--
	}
}

func (in *Interpreter) tab() {
	next := ((in.cursorX / 8) + 1) * 8
	in.cursorX = clamp(next, 0, in.pl.Cols()-1)
}

// clearRange blanks columns [from, to) of the active row y, releasing
// any style reference each cell held -- the per-cell loop the teacher's
// clearLine/clearFromCursor/clearToCursor also used against its flat
// buffer.
func (in *Interpreter) clearRange(y, from, to int) {
	for x := from; x < to; x++ {
		pt := pagelist.Point{X: x, Y: y}
		_ = in.pl.SetCellContent(pagelist.TagActive, pt, ' ', cell.Narrow)
		_ = in.pl.ClearCellStyle(pagelist.TagActive, pt)
	}
}

// runeWidth is a minimal East-Asian-width classifier: wide for CJK
// ideographs and common fullwidth ranges, narrow otherwise. It does not
// attempt full Unicode width-property coverage.
func runeWidth(r rune) int {
	switch {
	case r >= 0x1100 && r <= 0x115F,
		r >= 0x2E80 && r <= 0xA4CF,
		r >= 0xAC00 && r <= 0xD7A3,
		r >= 0xF900 && r <= 0xFAFF,
		r >= 0xFF00 && r <= 0xFF60,
		r >= 0xFFE0 && r <= 0xFFE6,
		r >= 0x20000 && r <= 0x3FFFD:
		return 2
	default:
		return 1
	}
}
