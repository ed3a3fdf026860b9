package page

import (
	"github.com/vibetunnel/screenengine/pkg/cell"
	"github.com/vibetunnel/screenengine/pkg/offsetmap"
)

// MoveCells moves length cells starting at (srcX, srcY) to (dstX, dstY)
// within the same page. Grapheme map entries move with their cells (the
// underlying arena chunk is not reallocated); moved-from cells are
// zeroed. Callers are expected to have already cleared or accounted for
// whatever previously lived in the destination range -- MoveCells itself
// never fails and never touches style reference counts, since it treats
// content as transferred rather than duplicated or discarded.
func (p *Page) MoveCells(srcX, srcY, dstX, dstY, length int) {
	if length <= 0 {
		return
	}
	srcBase := p.cellIndex(srcX, srcY)
	dstBase := p.cellIndex(dstX, dstY)
	if srcBase == dstBase {
		return
	}

	if dstBase < srcBase {
		for i := 0; i < length; i++ {
			p.moveOneCell(srcBase+i, dstBase+i)
		}
	} else {
		for i := length - 1; i >= 0; i-- {
			p.moveOneCell(srcBase+i, dstBase+i)
		}
	}

	dstRow := &p.Rows[dstY]
	for i := 0; i < length; i++ {
		c := p.Cells[dstBase+i]
		if c.StyleID != cell.DefaultStyleID {
			dstRow.Styled = true
		}
		if c.ContentTag == cell.ContentCodepointGrapheme {
			dstRow.Grapheme = true
		}
	}
}

func (p *Page) moveOneCell(srcIdx, dstIdx int) {
	c := p.Cells[srcIdx]
	if c.ContentTag == cell.ContentCodepointGrapheme {
		p.GraphemeMap.RekeyKey(srcIdx, dstIdx)
	}
	p.Cells[dstIdx] = c
	p.Cells[srcIdx] = cell.Cell{}
}

// SwapCells exchanges two cells within the same row, swapping their
// grapheme map entries (by key) rather than their arena contents.
func (p *Page) SwapCells(y, a, b int) {
	if a == b {
		return
	}
	base := p.Rows[y].CellOffset
	ia, ib := base+a, base+b

	va, aok := p.GraphemeMap.Get(ia)
	vb, bok := p.GraphemeMap.Get(ib)

	p.Cells[ia], p.Cells[ib] = p.Cells[ib], p.Cells[ia]

	switch {
	case aok && bok:
		p.GraphemeMap.Set(ia, vb)
		p.GraphemeMap.Set(ib, va)
	case aok && !bok:
		p.GraphemeMap.Delete(ia)
		p.GraphemeMap.Set(ib, va)
	case !aok && bok:
		p.GraphemeMap.Delete(ib)
		p.GraphemeMap.Set(ia, vb)
	}
}

// ClearCells zeroes cells [left, end) of row y, releasing any style
// reference and freeing any grapheme arena chunk they held. When the
// cleared range spans the whole row, the row's Grapheme and Styled flags
// are also reset -- the one exception to their one-way-conservative rule
// (spec.md DATA MODEL, Row).
func (p *Page) ClearCells(y, left, end int) {
	row := &p.Rows[y]
	base := row.CellOffset
	for x := left; x < end; x++ {
		idx := base + x
		c := &p.Cells[idx]
		if c.StyleID != cell.DefaultStyleID {
			p.Styles.Release(c.StyleID)
		}
		if c.ContentTag == cell.ContentCodepointGrapheme {
			p.freeGrapheme(idx)
		}
		*c = cell.Cell{}
	}
	if left == 0 && end >= p.Size.Cols {
		row.Grapheme = false
		row.Styled = false
	}
}

func (p *Page) freeGrapheme(idx int) {
	val, ok := p.GraphemeMap.Get(idx)
	if !ok {
		return
	}
	chunks := (val.Len + graphemeChunkCells - 1) / graphemeChunkCells
	p.graphemeAlloc.Free(val.ArenaOffset, chunks)
	p.GraphemeMap.Delete(idx)
}

// SetCellContent overwrites cell (x, y)'s glyph, releasing any grapheme
// chunk it previously held. Style and protection bits are left alone --
// callers that also need to change style go through SetCellStyle, the
// same split the teacher's handlePrint/handleSGR keep as two separate
// concerns.
func (p *Page) SetCellContent(x, y int, r rune, wide cell.Wide) {
	idx := p.cellIndex(x, y)
	c := &p.Cells[idx]
	if c.ContentTag == cell.ContentCodepointGrapheme {
		p.freeGrapheme(idx)
	}
	c.ContentTag = cell.ContentCodepoint
	c.CodePoint = r
	c.Wide = wide
}

// AppendGrapheme grows the extra-codepoints slice for cell (x, y) by one
// codepoint. The fast path writes into the spare slot of the cell's
// current arena chunk when its length is not yet a chunk-size multiple;
// otherwise it allocates a larger chunk run, copies the old codepoints,
// and frees the old run (the "slow path" of spec.md 4.2).
func (p *Page) AppendGrapheme(x, y int, cp rune) error {
	idx := p.cellIndex(x, y)
	c := &p.Cells[idx]
	row := &p.Rows[y]

	if c.ContentTag != cell.ContentCodepointGrapheme {
		off, err := p.graphemeAlloc.Alloc(1)
		if err != nil {
			return ErrOutOfMemory
		}
		c.ContentTag = cell.ContentCodepointGrapheme
		p.graphemeArena[off/4] = cp
		p.GraphemeMap.Set(idx, offsetmap.Value{ArenaOffset: off, Len: 1})
		row.Grapheme = true
		return nil
	}

	val, _ := p.GraphemeMap.Get(idx)
	if val.Len%graphemeChunkCells != 0 {
		ri := val.ArenaOffset/4 + val.Len
		p.graphemeArena[ri] = cp
		val.Len++
		p.GraphemeMap.Set(idx, val)
		return nil
	}

	newLen := val.Len + 1
	chunksNeeded := (newLen + graphemeChunkCells - 1) / graphemeChunkCells
	newOff, err := p.graphemeAlloc.Alloc(chunksNeeded)
	if err != nil {
		return ErrOutOfMemory
	}
	newRi := newOff / 4
	if val.Len > 0 {
		oldRi := val.ArenaOffset / 4
		copy(p.graphemeArena[newRi:newRi+val.Len], p.graphemeArena[oldRi:oldRi+val.Len])
		oldChunks := val.Len / graphemeChunkCells
		p.graphemeAlloc.Free(val.ArenaOffset, oldChunks)
	}
	p.graphemeArena[newRi+val.Len] = cp
	p.GraphemeMap.Set(idx, offsetmap.Value{ArenaOffset: newOff, Len: newLen})
	return nil
}

// LookupGrapheme returns the extra codepoints appended to cell (x, y),
// in append order. The base codepoint (stored in Cell.CodePoint) is not
// included. Returns nil if the cell has no grapheme map entry.
func (p *Page) LookupGrapheme(x, y int) []rune {
	idx := p.cellIndex(x, y)
	val, ok := p.GraphemeMap.Get(idx)
	if !ok {
		return nil
	}
	ri := val.ArenaOffset / 4
	out := make([]rune, val.Len)
	copy(out, p.graphemeArena[ri:ri+val.Len])
	return out
}

