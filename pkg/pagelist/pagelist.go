// Package pagelist implements the screen itself: a doubly-linked list of
// pkg/page.Page nodes covering the active area and scrollback, plus the
// pin registry, viewport, and the grow/erase/scroll/clone/resize
// orchestration spec.md calls out as the page list's job.
//
// The teacher's pkg/terminal.TerminalBuffer is the single-page version of
// this: one [][]BufferCell, a cursor, and a Resize that reallocates
// everything. PageList keeps the same public shape (NewX constructor,
// Write-adjacent mutators, a Resize that never loses tracked positions)
// but spreads storage across many fixed-capacity pages so scrollback
// growth and resize never require copying the whole screen at once.
package pagelist

import (
	"errors"

	"github.com/vibetunnel/screenengine/pkg/page"
)

// ErrOutOfMemory is returned when a mutation cannot allocate the storage
// it needs and no amount of pruning or capacity adjustment can recover.
var ErrOutOfMemory = page.ErrOutOfMemory

// node is one element of the page list's doubly-linked list.
type node struct {
	page       *page.Page
	prev, next *node
}

// ViewportTag is the tagged union from spec.md 3: what the viewport is
// currently anchored to.
type ViewportTag int

const (
	ViewportActive ViewportTag = iota
	ViewportTop
	ViewportPinned
)

func (t ViewportTag) String() string {
	switch t {
	case ViewportActive:
		return "active"
	case ViewportTop:
		return "top"
	case ViewportPinned:
		return "pinned"
	default:
		return "unknown"
	}
}

// PageList is the screen: active area plus scrollback, as a chain of
// pages, with pins and a viewport layered on top.
type PageList struct {
	cols, rows int

	explicitMax int // 0 means "unset, use minMaxSize"
	minMaxSize  int

	first, last *node
	pageCount   int

	pool *pagePool

	pins        *pinRegistry
	viewportTag ViewportTag
	viewportPin *Pin
}

// New allocates a page list sized to show cols x rows, spanning as many
// pages as the standard page capacity requires, and installs the
// viewport pin at the top-left of the active area.
//
// maxBytes is a soft byte budget (spec.md 3, 9): 0 means "use the
// minimum needed to keep the active area plus one spare page"
// (minMaxSize). The budget is never allowed to shrink the active area
// below its required row count.
func New(cols, rows, maxBytes int) (*PageList, error) {
	if cols <= 0 || rows <= 0 {
		return nil, errors.New("pagelist: cols and rows must be positive")
	}

	cap0 := page.Standard
	if cols > cap0.Cols {
		var err error
		cap0, err = cap0.Adjust(cols)
		if err != nil {
			return nil, err
		}
	}

	pl := &PageList{
		cols: cols,
		rows: rows,
		pool: newPagePool(cap0),
		pins: newPinRegistry(),
	}
	pl.minMaxSize = pageByteSize(cap0) * (ceilDiv(rows, cap0.Rows) + 1)
	pl.explicitMax = maxBytes

	needed := rows
	for needed > 0 {
		p, err := pl.pool.acquire()
		if err != nil {
			return nil, err
		}
		take := p.Capacity.Rows
		if take > needed {
			take = needed
		}
		p.SetSizeCols(cols)
		p.SetSizeRows(take)
		pl.append(p)
		needed -= take
	}

	pl.viewportTag = ViewportActive
	first := pl.first
	vp := &Pin{node: first, Y: 0, X: 0}
	pl.viewportPin = pl.pins.track(vp)
	return pl, nil
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}

// pageByteSize is a deliberately approximate byte-size accounting for a
// page at the given capacity: fixed per-row and per-cell sizes (matching
// the 64-bit packed records spec.md's data model specifies) plus the
// style set and grapheme arena budgets. It exists so the max-bytes
// heuristic in spec.md 3/4.3/9 operates on numbers with the right order
// of magnitude; a page's real Go heap footprint differs in the details
// (see DESIGN.md) but not by enough to change any budget decision this
// engine makes.
func pageByteSize(c page.Capacity) int {
	const rowBytes = 8
	const cellBytes = 8
	const styleRecordBytes = 32
	return c.Rows*rowBytes + c.Rows*c.Cols*cellBytes + c.StyleCount*styleRecordBytes + c.GraphemeBytes
}

// maxSize returns the currently effective byte budget: the explicit
// value if set, else minMaxSize.
func (pl *PageList) maxSize() int {
	if pl.explicitMax > 0 {
		if pl.explicitMax > pl.minMaxSize {
			return pl.explicitMax
		}
		return pl.minMaxSize
	}
	return pl.minMaxSize
}

// SetMaxSize updates the soft byte budget (e.g. from a live-reloaded
// config, see SPEC_FULL.md's config hot-reload). It takes effect on the
// next mutation that consults the budget (grow's prune decision); it
// never itself triggers a prune synchronously, matching the "settled
// call" wording of spec.md 9.
func (pl *PageList) SetMaxSize(maxBytes int) {
	pl.explicitMax = maxBytes
}

// totalBytes returns the current approximate total storage in use.
func (pl *PageList) totalBytes() int {
	total := 0
	for n := pl.first; n != nil; n = n.next {
		total += pageByteSize(n.page.Capacity)
	}
	return total
}

// Cols returns the page list's uniform live column count.
func (pl *PageList) Cols() int { return pl.cols }

// Rows returns the configured active-area row count.
func (pl *PageList) Rows() int { return pl.rows }

// PageCount returns the number of pages currently in the list.
func (pl *PageList) PageCount() int { return pl.pageCount }

// TotalRows returns the sum of every page's live row count.
func (pl *PageList) TotalRows() int {
	total := 0
	for n := pl.first; n != nil; n = n.next {
		total += n.page.Size.Rows
	}
	return total
}

func (pl *PageList) append(p *page.Page) *node {
	n := &node{page: p}
	if pl.last == nil {
		pl.first, pl.last = n, n
	} else {
		n.prev = pl.last
		pl.last.next = n
		pl.last = n
	}
	pl.pageCount++
	return n
}

func (pl *PageList) prepend(p *page.Page) *node {
	n := &node{page: p}
	if pl.first == nil {
		pl.first, pl.last = n, n
	} else {
		n.next = pl.first
		pl.first.prev = n
		pl.first = n
	}
	pl.pageCount++
	return n
}

// detach removes n from the list. n.prev/n.next are left untouched so
// callers that still need to know neighbors during a migration can read
// them after detaching; detach only rewires first/last/pageCount and the
// surviving neighbors' links.
func (pl *PageList) detach(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		pl.first = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		pl.last = n.prev
	}
	pl.pageCount--
}

// insertAfter splices n2 into the list immediately after n1.
func (pl *PageList) insertAfter(n1, n2 *node) {
	n2.prev = n1
	n2.next = n1.next
	if n1.next != nil {
		n1.next.prev = n2
	} else {
		pl.last = n2
	}
	n1.next = n2
	pl.pageCount++
}

// activeAreaTop returns the node and row within it where the active area
// (the bottom pl.rows rows) begins.
func (pl *PageList) activeAreaTop() (*node, int) {
	remaining := pl.rows
	for n := pl.last; n != nil; n = n.prev {
		if n.page.Size.Rows >= remaining {
			return n, n.page.Size.Rows - remaining
		}
		remaining -= n.page.Size.Rows
	}
	return pl.first, 0
}

// growRequiredForActive reports whether the active area does not yet
// have its full row count -- spec.md 4.3's grow() consults this before
// pruning scrollback to make room for a new page.
func (pl *PageList) growRequiredForActive() bool {
	return pl.TotalRows() < pl.rows
}
