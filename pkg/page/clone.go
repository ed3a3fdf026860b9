package page

import (
	"github.com/vibetunnel/screenengine/pkg/cell"
)

// Clone allocates a new page at the same capacity and copies this page's
// entire live content into it. Because every substructure (cells,
// styles, grapheme arena/map) is a plain value or a self-contained
// struct-of-slices, cloning is a handful of slice copies rather than a
// deep object graph walk -- the Go analogue of spec.md's "a single
// memcpy suffices".
func (p *Page) Clone() (*Page, error) {
	np, err := Init(p.Capacity)
	if err != nil {
		return nil, err
	}
	p.CloneInto(np)
	return np, nil
}

// CloneInto overwrites dst with a full copy of p's content. dst must
// have the same Capacity as p.
func (p *Page) CloneInto(dst *Page) {
	copy(dst.Rows, p.Rows)
	copy(dst.Cells, p.Cells)
	dst.Styles = p.Styles.Clone()
	dst.graphemeArena = make([]rune, len(p.graphemeArena))
	copy(dst.graphemeArena, p.graphemeArena)
	dst.graphemeAlloc = p.graphemeAlloc.Clone()
	dst.GraphemeMap = p.GraphemeMap.Clone()
	dst.Size = p.Size
}

// CloneFrom copies rows [yStart, yEnd) from src into this page starting
// at row 0, intersected with min(src.Size.Cols, p.Size.Cols). If this
// page is wider than src, any spacer_head sitting in the last copied
// column of a row is demoted to narrow, since the column it was
// compensating for no longer sits at the row's edge.
func (p *Page) CloneFrom(src *Page, yStart, yEnd int) error {
	cols := src.Size.Cols
	if p.Size.Cols < cols {
		cols = p.Size.Cols
	}
	for i, y := 0, yStart; y < yEnd; i, y = i+1, y+1 {
		if err := p.clonePartialRow(src, y, i, 0, cols); err != nil {
			return err
		}
	}
	return nil
}

// ClonePartialRowFrom copies columns [colStart, colEnd) of src row srcY
// into this page's row dstY at the same column offsets.
func (p *Page) ClonePartialRowFrom(src *Page, srcY, dstY, colStart, colEnd int) error {
	return p.clonePartialRow(src, srcY, dstY, colStart, colEnd)
}

func (p *Page) clonePartialRow(src *Page, srcY, dstY, colStart, colEnd int) error {
	srcRow := src.Rows[srcY]
	dstRow := &p.Rows[dstY]
	dstRow.Wrap = srcRow.Wrap
	dstRow.WrapContinuation = srcRow.WrapContinuation
	dstRow.SemanticPrompt = srcRow.SemanticPrompt

	srcBase := srcRow.CellOffset
	dstBase := dstRow.CellOffset

	for x := colStart; x < colEnd; x++ {
		c := src.Cells[srcBase+x]
		if c.StyleID != cell.DefaultStyleID {
			st, ok := src.Styles.Lookup(c.StyleID)
			if ok {
				id, err := p.Styles.Upsert(st)
				if err != nil {
					return err
				}
				c.StyleID = id
				dstRow.Styled = true
			} else {
				c.StyleID = cell.DefaultStyleID
			}
		}
		if c.ContentTag == cell.ContentCodepointGrapheme {
			extra := src.LookupGrapheme(x, srcY)
			c.ContentTag = cell.ContentCodepoint
			p.Cells[dstBase+x] = c
			for _, cp := range extra {
				if err := p.AppendGrapheme(x, dstY, cp); err != nil {
					return err
				}
			}
			continue
		}
		p.Cells[dstBase+x] = c
	}

	// If the destination is wider than what we copied, the trailing
	// spacer_head (if any) no longer sits at the row's edge and the wrap
	// it was compensating for no longer applies here.
	if colEnd > colStart && colEnd < p.Size.Cols {
		lastIdx := dstBase + colEnd - 1
		if p.Cells[lastIdx].Wide == cell.SpacerHead {
			p.Cells[lastIdx].Wide = cell.Narrow
		}
	}
	return nil
}
