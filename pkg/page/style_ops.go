package page

import (
	"github.com/vibetunnel/screenengine/pkg/bitmap"
	"github.com/vibetunnel/screenengine/pkg/cell"
	"github.com/vibetunnel/screenengine/pkg/offsetmap"
	"github.com/vibetunnel/screenengine/pkg/style"
)

// SetCellStyle interns st into the page's style set and assigns the
// resulting id to cell (x, y), releasing whatever style the cell
// previously referenced and marking the row styled. Returns
// ErrOutOfMemory if the style set has no free slot for a new style.
func (p *Page) SetCellStyle(x, y int, st style.Style) error {
	id, err := p.Styles.Upsert(st)
	if err != nil {
		return ErrOutOfMemory
	}
	row, c := p.GetRowAndCell(x, y)
	if c.StyleID != cell.DefaultStyleID {
		p.Styles.Release(c.StyleID)
	}
	c.StyleID = id
	row.Styled = true
	return nil
}

// ClearCellStyle releases cell (x, y)'s style reference, if any, and
// resets it to DefaultStyleID without interning a new style. Used when
// incoming content carries no attributes at all, so a plain Style{}
// value is never uselessly upserted into the style set.
func (p *Page) ClearCellStyle(x, y int) {
	_, c := p.GetRowAndCell(x, y)
	if c.StyleID == cell.DefaultStyleID {
		return
	}
	p.Styles.Release(c.StyleID)
	c.StyleID = cell.DefaultStyleID
}

// AdjustStyleCapacity grows the page's style set to newCapacity,
// preserving every live style id and reference count. Used when a style
// Upsert fails with ErrOutOfMemory and the page-list layer decides to
// retry after doubling the budget (spec.md 4.2, 4.3, 7).
func (p *Page) AdjustStyleCapacity(newCapacity int) error {
	grown, err := p.Styles.Grow(newCapacity)
	if err != nil {
		return err
	}
	p.Styles = grown
	p.Capacity.StyleCount = newCapacity
	return nil
}

// AdjustGraphemeCapacity grows the page's grapheme arena to newBytes,
// copying every live chunk to fresh offsets in the larger arena. Used
// analogously to AdjustStyleCapacity when AppendGrapheme returns
// ErrOutOfMemory.
func (p *Page) AdjustGraphemeCapacity(newBytes int) error {
	if newBytes <= p.Capacity.GraphemeBytes {
		return nil
	}
	newArena := make([]rune, newBytes/4)
	newAlloc := bitmap.New(newBytes, graphemeChunkCells*4)
	newMap := offsetmap.New(p.GraphemeMap.Len())

	p.GraphemeMap.Each(func(idx int, val offsetmap.Value) {
		chunks := (val.Len + graphemeChunkCells - 1) / graphemeChunkCells
		newOff, err := newAlloc.Alloc(chunks)
		if err != nil {
			// Arena sized to at least hold existing content; should not happen.
			return
		}
		oldRi := val.ArenaOffset / 4
		newRi := newOff / 4
		copy(newArena[newRi:newRi+val.Len], p.graphemeArena[oldRi:oldRi+val.Len])
		newMap.Set(idx, offsetmap.Value{ArenaOffset: newOff, Len: val.Len})
	})

	p.graphemeArena = newArena
	p.graphemeAlloc = newAlloc
	p.GraphemeMap = newMap
	p.Capacity.GraphemeBytes = newBytes
	return nil
}

// Compact shrinks the page's style set and grapheme arena back down to
// the smallest capacity its current content needs, undoing whatever
// slack AdjustStyleCapacity/AdjustGraphemeCapacity left behind once a
// content burst has passed (spec.md 6's compact(page), the inverse of
// adjust_capacity).
func (p *Page) Compact() error {
	if err := p.compactStyles(); err != nil {
		return err
	}
	return p.compactGraphemes()
}

func (p *Page) compactStyles() error {
	newCapacity := p.Styles.Count()
	if newCapacity < 1 {
		newCapacity = 1
	}
	if newCapacity >= p.Capacity.StyleCount {
		return nil
	}

	compacted := style.New(newCapacity)
	remap := make(map[uint16]uint16, newCapacity)
	for y := 0; y < p.Size.Rows; y++ {
		for x := 0; x < p.Size.Cols; x++ {
			_, c := p.GetRowAndCell(x, y)
			if c.StyleID == cell.DefaultStyleID {
				continue
			}
			if id, ok := remap[c.StyleID]; ok {
				compacted.Use(id)
				c.StyleID = id
				continue
			}
			st, ok := p.Styles.Lookup(c.StyleID)
			if !ok {
				c.StyleID = cell.DefaultStyleID
				continue
			}
			id, err := compacted.Upsert(st)
			if err != nil {
				return err
			}
			remap[c.StyleID] = id
			c.StyleID = id
		}
	}

	p.Styles = compacted
	p.Capacity.StyleCount = newCapacity
	return nil
}

func (p *Page) compactGraphemes() error {
	chunkBytes := graphemeChunkCells * 4
	newBytes := p.graphemeAlloc.InUse() * p.graphemeAlloc.ChunkSize()
	if newBytes < chunkBytes {
		newBytes = chunkBytes
	}
	if newBytes >= p.Capacity.GraphemeBytes {
		return nil
	}

	newArena := make([]rune, newBytes/4)
	newAlloc := bitmap.New(newBytes, chunkBytes)
	newMap := offsetmap.New(p.GraphemeMap.Len())

	var allocErr error
	p.GraphemeMap.Each(func(idx int, val offsetmap.Value) {
		if allocErr != nil {
			return
		}
		chunks := (val.Len + graphemeChunkCells - 1) / graphemeChunkCells
		newOff, err := newAlloc.Alloc(chunks)
		if err != nil {
			allocErr = err
			return
		}
		oldRi := val.ArenaOffset / 4
		newRi := newOff / 4
		copy(newArena[newRi:newRi+val.Len], p.graphemeArena[oldRi:oldRi+val.Len])
		newMap.Set(idx, offsetmap.Value{ArenaOffset: newOff, Len: val.Len})
	})
	if allocErr != nil {
		return allocErr
	}

	p.graphemeArena = newArena
	p.graphemeAlloc = newAlloc
	p.GraphemeMap = newMap
	p.Capacity.GraphemeBytes = newBytes
	return nil
}
