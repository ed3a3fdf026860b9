package pagelist

// Tag selects which origin a Point's Y coordinate is measured from, per
// spec.md 3's "tagged point" concept.
type Tag int

const (
	// TagScreen addresses every row in the list, oldest scrollback row
	// at Y=0.
	TagScreen Tag = iota
	// TagActive addresses only the active area, its top row at Y=0
	// regardless of where the viewport currently sits.
	TagActive
	// TagViewport addresses rows relative to wherever the viewport is
	// currently anchored (active, top-of-scrollback, or a pin).
	TagViewport
	// TagHistory addresses scrollback rows only, oldest at Y=0; a point
	// at or past the active area is out of range for this tag.
	TagHistory
)

// Point is a row/column coordinate relative to a Tag's origin.
type Point struct {
	X, Y int
}

// nodeAtOffset walks delta rows forward or backward from (n, y) across
// page boundaries, returning ok=false if the walk runs off either end of
// the list. It is the shared primitive behind tagged-point resolution
// and the row iterator.
func nodeAtOffset(n *node, y, delta int) (*node, int, bool) {
	if n == nil {
		return nil, 0, false
	}
	y += delta
	for y < 0 {
		n = n.prev
		if n == nil {
			return nil, 0, false
		}
		y += n.page.Size.Rows
	}
	for n != nil && y >= n.page.Size.Rows {
		y -= n.page.Size.Rows
		n = n.next
	}
	if n == nil {
		return nil, 0, false
	}
	return n, y, true
}

// viewportOrigin returns the node/row the viewport is currently anchored
// to, per pl.viewportTag.
func (pl *PageList) viewportOrigin() (*node, int) {
	switch pl.viewportTag {
	case ViewportTop:
		return pl.first, 0
	case ViewportPinned:
		if pl.viewportPin != nil {
			return pl.viewportPin.node, pl.viewportPin.Y
		}
		fallthrough
	default:
		return pl.activeAreaTop()
	}
}

// resolve finds the (node, row) a tagged point refers to.
func (pl *PageList) resolve(tag Tag, pt Point) (*node, int, bool) {
	switch tag {
	case TagScreen:
		return nodeAtOffset(pl.first, 0, pt.Y)
	case TagActive:
		n, y := pl.activeAreaTop()
		return nodeAtOffset(n, y, pt.Y)
	case TagViewport:
		n, y := pl.viewportOrigin()
		return nodeAtOffset(n, y, pt.Y)
	case TagHistory:
		n, y, ok := nodeAtOffset(pl.first, 0, pt.Y)
		if !ok {
			return nil, 0, false
		}
		activeN, activeY := pl.activeAreaTop()
		if rowCompare(n, y, activeN, activeY) >= 0 {
			return nil, 0, false
		}
		return n, y, true
	default:
		return nil, 0, false
	}
}

// rowCompare orders two (node, row) positions by list order: negative if
// a precedes b, 0 if equal, positive if a follows b.
func rowCompare(a *node, ay int, b *node, by int) int {
	if a == b {
		return ay - by
	}
	for n := a; n != nil; n = n.next {
		if n == b {
			return -1
		}
	}
	return 1
}
