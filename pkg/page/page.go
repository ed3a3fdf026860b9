// Package page implements a single page of terminal screen storage: a
// fixed-capacity block of rows and cells plus the per-page style set and
// grapheme arena those cells reference. A PageList (see pkg/pagelist)
// links many Pages together to form the full screen and scrollback.
//
// The teacher's pkg/terminal.TerminalBuffer holds one flat [][]BufferCell
// for the whole screen and re-allocates it wholesale on every resize.
// Page generalizes that into one fixed-capacity, relocatable unit so the
// page list can grow, prune, and reflow without ever copying the entire
// screen.
package page

import (
	"github.com/vibetunnel/screenengine/pkg/bitmap"
	"github.com/vibetunnel/screenengine/pkg/cell"
	"github.com/vibetunnel/screenengine/pkg/offsetmap"
	"github.com/vibetunnel/screenengine/pkg/style"
)

// Page is one contiguous unit of screen storage: a slice of row headers,
// a flat slice of cells they index into, a style set, and a grapheme
// arena + map for cells whose content needs more than one codepoint.
//
// spec.md's data model describes this as a single byte buffer whose
// internal references are byte offsets so a clone is one memcpy. This Go
// port keeps the same shape -- fixed capacity, relocate-by-bulk-copy,
// offset-addressed substructures -- using typed slices instead of a raw
// byte blob (see DESIGN.md for why: Go code in this corpus never reaches
// for unsafe pointer arithmetic the way a systems port would, and a
// struct-of-slices clones just as cheaply via copy()).
type Page struct {
	Capacity Capacity
	Size     Size

	Rows  []cell.Row
	Cells []cell.Cell

	Styles *style.Set

	graphemeArena []rune
	graphemeAlloc *bitmap.Allocator
	GraphemeMap   *offsetmap.Map
}

// Init allocates a new, zeroed page at the given capacity with zero live
// size. Standard-capacity pages are expected to come from a PageList's
// pool (see pkg/pagelist); Init itself always allocates fresh, the same
// way the pool's underlying supplier does.
func Init(capacity Capacity) (*Page, error) {
	if capacity.Rows <= 0 || capacity.Cols <= 0 {
		return nil, ErrOutOfMemory
	}
	chunkBytes := graphemeChunkCells * 4 // 4 bytes per rune
	p := &Page{
		Capacity:      capacity,
		Rows:          make([]cell.Row, capacity.Rows),
		Cells:         make([]cell.Cell, capacity.Rows*capacity.Cols),
		Styles:        style.New(capacity.StyleCount),
		graphemeArena: make([]rune, capacity.GraphemeBytes/4),
		graphemeAlloc: bitmap.New(capacity.GraphemeBytes, chunkBytes),
		GraphemeMap:   offsetmap.New(16),
	}
	for i := range p.Rows {
		p.Rows[i] = cell.BlankRow(i * capacity.Cols)
	}
	return p, nil
}

// Deinit releases a page's resources back to the runtime. Go's GC makes
// this a formality (nil out the big slices so they aren't pinned by a
// lingering reference) rather than an OS-level unmap, but it is kept as
// an explicit call so PageList's lifecycle mirrors spec.md's (pages are
// "destroyed" by erase/prune/teardown, not merely dropped).
func (p *Page) Deinit() {
	p.Rows = nil
	p.Cells = nil
	p.Styles = nil
	p.graphemeArena = nil
	p.graphemeAlloc = nil
	p.GraphemeMap = nil
	p.Size = Size{}
}

// Reinit resets a page in place to zero live size without reallocating
// its backing storage, used by PageList's prune-on-grow path (spec.md
// 4.3) to recycle the oldest scrollback page instead of freeing and
// re-allocating.
func (p *Page) Reinit() {
	for i := range p.Cells {
		p.Cells[i] = cell.Cell{}
	}
	for i := range p.Rows {
		p.Rows[i] = cell.BlankRow(i * p.Capacity.Cols)
	}
	p.Styles = style.New(p.Capacity.StyleCount)
	p.graphemeAlloc.Reset()
	p.GraphemeMap = offsetmap.New(16)
	p.Size = Size{}
}

// cellIndex returns the flat index of cell (x, y) within p.Cells.
func (p *Page) cellIndex(x, y int) int {
	return p.Rows[y].CellOffset + x
}

// GetRowAndCell returns pointers to the row header and cell at (x, y),
// asserting both are within the page's live size.
func (p *Page) GetRowAndCell(x, y int) (*cell.Row, *cell.Cell) {
	if y < 0 || y >= p.Size.Rows || x < 0 || x >= p.Size.Cols {
		panic("page: row/cell access out of bounds")
	}
	idx := p.cellIndex(x, y)
	return &p.Rows[y], &p.Cells[idx]
}

// Row returns a pointer to row y's header, asserting it is within live
// size.
func (p *Page) Row(y int) *cell.Row {
	if y < 0 || y >= p.Size.Rows {
		panic("page: row access out of bounds")
	}
	return &p.Rows[y]
}

// RowCells returns the live cell slice for row y (length Size.Cols).
func (p *Page) RowCells(y int) []cell.Cell {
	if y < 0 || y >= p.Size.Rows {
		panic("page: row access out of bounds")
	}
	off := p.Rows[y].CellOffset
	return p.Cells[off : off+p.Size.Cols]
}

// SetSizeRows extends or shrinks the page's live row count without
// touching cell content; callers are responsible for clearing any newly
// exposed rows. rows must be <= Capacity.Rows.
func (p *Page) SetSizeRows(rows int) {
	if rows < 0 || rows > p.Capacity.Rows {
		panic("page: row count exceeds capacity")
	}
	p.Size.Rows = rows
}

// SetSizeCols sets the page's live column count; cols must be <=
// Capacity.Cols. Callers must have already cleared any cells beyond the
// new width if shrinking.
func (p *Page) SetSizeCols(cols int) {
	if cols < 0 || cols > p.Capacity.Cols {
		panic("page: col count exceeds capacity")
	}
	p.Size.Cols = cols
}
