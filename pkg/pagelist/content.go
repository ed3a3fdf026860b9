package pagelist

import (
	"github.com/vibetunnel/screenengine/pkg/cell"
	"github.com/vibetunnel/screenengine/pkg/style"
)

// SetCellContent overwrites the glyph at a tagged point, leaving its
// style untouched. Returns ErrPointOutOfRange if the point does not
// resolve.
func (pl *PageList) SetCellContent(tag Tag, pt Point, r rune, wide cell.Wide) error {
	n, y, ok := pl.resolve(tag, pt)
	if !ok {
		return ErrPointOutOfRange
	}
	n.page.SetCellContent(pt.X, y, r, wide)
	return nil
}

// SetCellStyle interns st and assigns it to the cell at a tagged point,
// growing the page's style capacity and retrying once if the style set
// is full (spec.md 7's allocation-failure recovery path).
func (pl *PageList) SetCellStyle(tag Tag, pt Point, st style.Style) error {
	n, y, ok := pl.resolve(tag, pt)
	if !ok {
		return ErrPointOutOfRange
	}
	if err := n.page.SetCellStyle(pt.X, y, st); err == nil {
		return nil
	}
	newCapacity := n.page.Capacity.StyleCount * 2
	if newCapacity == 0 {
		newCapacity = 64
	}
	if err := n.page.AdjustStyleCapacity(newCapacity); err != nil {
		return err
	}
	return n.page.SetCellStyle(pt.X, y, st)
}

// ClearCellStyle resets the cell at a tagged point to DefaultStyleID.
func (pl *PageList) ClearCellStyle(tag Tag, pt Point) error {
	n, y, ok := pl.resolve(tag, pt)
	if !ok {
		return ErrPointOutOfRange
	}
	n.page.ClearCellStyle(pt.X, y)
	return nil
}

// SetSemanticPrompt annotates the row at a tagged point with shell
// prompt/command intent (typically driven by OSC 133).
func (pl *PageList) SetSemanticPrompt(tag Tag, pt Point, sp cell.SemanticPrompt) error {
	n, y, ok := pl.resolve(tag, pt)
	if !ok {
		return ErrPointOutOfRange
	}
	n.page.Row(y).SemanticPrompt = sp
	return nil
}

// LookupStyle resolves the style.Style interned for the cell at a
// tagged point, or the zero Style if the cell has DefaultStyleID.
func (pl *PageList) LookupStyle(tag Tag, pt Point) (style.Style, bool) {
	n, y, ok := pl.resolve(tag, pt)
	if !ok {
		return style.Style{}, false
	}
	_, c := n.page.GetRowAndCell(pt.X, y)
	if c.StyleID == cell.DefaultStyleID {
		return style.Style{}, true
	}
	return n.page.Styles.Lookup(c.StyleID)
}

// SemanticPromptAt returns the SemanticPrompt annotation of the row at
// a tagged point.
func (pl *PageList) SemanticPromptAt(tag Tag, pt Point) (cell.SemanticPrompt, bool) {
	n, y, ok := pl.resolve(tag, pt)
	if !ok {
		return cell.SemanticPromptUnknown, false
	}
	return n.page.Row(y).SemanticPrompt, true
}

// AppendGrapheme appends a combining codepoint to the cell at a tagged
// point, growing the page's grapheme arena on demand.
func (pl *PageList) AppendGrapheme(tag Tag, pt Point, cp rune) error {
	n, y, ok := pl.resolve(tag, pt)
	if !ok {
		return ErrPointOutOfRange
	}
	if err := n.page.AppendGrapheme(pt.X, y, cp); err == nil {
		return nil
	}
	newBytes := n.page.Capacity.GraphemeBytes * 2
	if newBytes == 0 {
		newBytes = 4096
	}
	if err := n.page.AdjustGraphemeCapacity(newBytes); err != nil {
		return err
	}
	return n.page.AppendGrapheme(pt.X, y, cp)
}
