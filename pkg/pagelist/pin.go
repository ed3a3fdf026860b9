package pagelist

import "github.com/vibetunnel/screenengine/pkg/cell"

// Pin is a tracked coordinate: a (page, row, col) triple that PageList
// keeps pointing at the same logical cell across grow, prune, erase, and
// reflow. Callers get one back from TrackPin and must hand it back to
// UntrackPin when done, the same handle-lifecycle shape as the teacher's
// websocket connection registration in pkg/termsocket.
type Pin struct {
	node *node
	Y, X int
}

// pinRegistry is the set of every Pin currently tracked, including the
// PageList's own viewport pin. Every mutation that moves, deletes, or
// re-homes rows must walk this set and rewrite affected pins so no
// tracked coordinate silently drifts (spec.md 3, 4.3, 4.4, 4.5).
type pinRegistry struct {
	pins map[*Pin]struct{}
}

func newPinRegistry() *pinRegistry {
	return &pinRegistry{pins: make(map[*Pin]struct{})}
}

func (r *pinRegistry) track(p *Pin) *Pin {
	r.pins[p] = struct{}{}
	return p
}

func (r *pinRegistry) untrack(p *Pin) {
	delete(r.pins, p)
}

func (r *pinRegistry) each(fn func(*Pin)) {
	for p := range r.pins {
		fn(p)
	}
}

// TrackPin resolves a tagged point to a concrete cell and returns a
// handle that PageList will keep pointing at that cell through future
// mutations. Returns nil if the point does not resolve.
func (pl *PageList) TrackPin(tag Tag, pt Point) *Pin {
	n, y, ok := pl.resolve(tag, pt)
	if !ok {
		return nil
	}
	p := &Pin{node: n, Y: y, X: pt.X}
	return pl.pins.track(p)
}

// UntrackPin releases a pin previously returned by TrackPin. Untracking
// the current viewport pin is a caller error and is ignored.
func (pl *PageList) UntrackPin(p *Pin) {
	if p == nil || p == pl.viewportPin {
		return
	}
	pl.pins.untrack(p)
}

// PointFromPin converts a tracked pin back into a tagged point, or
// returns ok=false if the pin's row no longer falls within that tag's
// range (e.g. a History-tagged query after the pin has scrolled into the
// active area).
func (pl *PageList) PointFromPin(tag Tag, p *Pin) (Point, bool) {
	if p == nil {
		return Point{}, false
	}
	var origin *node
	var originY int
	switch tag {
	case TagScreen:
		origin, originY = pl.first, 0
	case TagActive:
		origin, originY = pl.activeAreaTop()
	case TagViewport:
		origin, originY = pl.viewportOrigin()
	case TagHistory:
		origin, originY = pl.first, 0
		activeN, activeY := pl.activeAreaTop()
		if rowCompare(p.node, p.Y, activeN, activeY) >= 0 {
			return Point{}, false
		}
	default:
		return Point{}, false
	}

	row := 0
	for n := origin; n != nil; n = n.next {
		startY := 0
		if n == origin {
			startY = originY
		}
		if n == p.node {
			if p.Y < startY {
				return Point{}, false
			}
			return Point{X: p.X, Y: row + (p.Y - startY)}, true
		}
		row += n.page.Size.Rows - startY
	}
	return Point{}, false
}

// GetCell returns the cell a tagged point addresses, or nil if the point
// does not resolve.
func (pl *PageList) GetCell(tag Tag, pt Point) *cell.Cell {
	n, y, ok := pl.resolve(tag, pt)
	if !ok {
		return nil
	}
	_, c := n.page.GetRowAndCell(pt.X, y)
	return c
}

// GetTopLeft returns a pin at (0, 0) of the given tag's origin.
func (pl *PageList) GetTopLeft(tag Tag) *Pin {
	var n *node
	var y int
	switch tag {
	case TagScreen, TagHistory:
		n, y = pl.first, 0
	case TagActive:
		n, y = pl.activeAreaTop()
	case TagViewport:
		n, y = pl.viewportOrigin()
	}
	if n == nil {
		return nil
	}
	return &Pin{node: n, Y: y, X: 0}
}

// GetBottomRight returns a pin at the last row/col visible under the
// given tag.
func (pl *PageList) GetBottomRight(tag Tag) *Pin {
	switch tag {
	case TagScreen, TagActive, TagViewport:
		return &Pin{node: pl.last, Y: pl.last.page.Size.Rows - 1, X: pl.cols - 1}
	case TagHistory:
		activeN, activeY := pl.activeAreaTop()
		n, y, ok := nodeAtOffset(activeN, activeY, -1)
		if !ok {
			return nil
		}
		return &Pin{node: n, Y: y, X: pl.cols - 1}
	}
	return nil
}

// rewritePinsOnPageRemoved re-homes every pin sitting on a page that is
// about to be detached (pruned, compacted away) onto replacement's first
// row, clamping X to the replacement's width. Used by grow's prune path
// and by erase's whole-page removal path.
func (pl *PageList) rewritePinsOnPageRemoved(removed *node, replacement *node) {
	pl.pins.each(func(p *Pin) {
		if p.node == removed {
			p.node = replacement
			p.Y = 0
			if p.X >= pl.cols {
				p.X = pl.cols - 1
			}
		}
	})
}

// rewritePinsRowDelta shifts every pin on the given node whose row is >=
// fromRow by delta rows, clamping into [0, page live rows). Used when
// rows within a page are rotated or removed (spec.md 4.4's cross-page
// erase cascade).
func (pl *PageList) rewritePinsRowDelta(n *node, fromRow, delta int) {
	pl.pins.each(func(p *Pin) {
		if p.node != n || p.Y < fromRow {
			return
		}
		ny := p.Y + delta
		if ny < 0 {
			ny = 0
		}
		if max := n.page.Size.Rows - 1; ny > max {
			ny = max
		}
		p.Y = ny
	})
}

// rewritePinsCrossPageMove re-homes any pin sitting at exactly (from,
// fromY) onto (to, toY). Used by erase_row's cross-page cascade: when a
// row's content physically migrates into the previous page, any pin
// tracking it has to follow.
func (pl *PageList) rewritePinsCrossPageMove(from *node, fromY int, to *node, toY int) {
	pl.pins.each(func(p *Pin) {
		if p.node == from && p.Y == fromY {
			p.node, p.Y = to, toY
		}
	})
}

// rewritePinsErasePartial re-homes pins after a partial-page erase of
// rows [eraseStart, eraseEnd) within n: pins inside the erased span
// clamp to the span's start (the chunk's new origin), others shift up
// by the erased count -- spec.md 4.4's erase_rows pin rules generalized
// to a span that need not start at row 0.
func (pl *PageList) rewritePinsErasePartial(n *node, eraseStart, eraseEnd, count int) {
	pl.pins.each(func(p *Pin) {
		if p.node != n {
			return
		}
		switch {
		case p.Y >= eraseStart && p.Y < eraseEnd:
			p.Y, p.X = eraseStart, 0
		case p.Y >= eraseEnd:
			p.Y -= count
		}
	})
}
