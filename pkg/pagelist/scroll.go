package pagelist

// ScrollKind selects which of spec.md 4.8's scroll behaviors to apply.
type ScrollKind int

const (
	// ScrollActive anchors the viewport back to the active area.
	ScrollActive ScrollKind = iota
	// ScrollTop anchors the viewport to the very oldest scrollback row.
	ScrollTop
	// ScrollDeltaRow moves the viewport by a relative row count, clamped
	// between the screen's top and the active area.
	ScrollDeltaRow
	// ScrollDeltaPrompt moves the viewport to the next/previous row
	// whose SemanticPrompt is prompt-like, repeated |DeltaRows| times.
	ScrollDeltaPrompt
	// ScrollPin anchors the viewport to an explicit, caller-supplied pin.
	ScrollPin
)

// ScrollBehavior describes one Scroll call.
type ScrollBehavior struct {
	Kind      ScrollKind
	DeltaRows int
	Pin       *Pin
}

// Scroll changes where the viewport is anchored. It never mutates
// content; GetTopLeft(TagViewport) and GetCell(TagViewport, ...) reflect
// the new anchor immediately afterward.
func (pl *PageList) Scroll(b ScrollBehavior) error {
	switch b.Kind {
	case ScrollActive:
		pl.setViewport(ViewportActive, nil)
		return nil

	case ScrollTop:
		pl.setViewport(ViewportTop, nil)
		return nil

	case ScrollPin:
		if b.Pin == nil {
			return ErrPointOutOfRange
		}
		pl.setViewport(ViewportPinned, b.Pin)
		return nil

	case ScrollDeltaRow:
		n, y := pl.viewportOrigin()
		tn, ty, ok := nodeAtOffset(n, y, b.DeltaRows)
		if !ok {
			if b.DeltaRows < 0 {
				tn, ty = pl.first, 0
			} else {
				tn, ty = pl.activeAreaTop()
			}
		}
		pl.settleViewport(tn, ty)
		return nil

	case ScrollDeltaPrompt:
		n, y := pl.viewportOrigin()
		dir, steps := 1, b.DeltaRows
		if steps < 0 {
			dir, steps = -1, -steps
		}
		for i := 0; i < steps; i++ {
			nn, ny, ok := pl.findPrompt(n, y, dir)
			if !ok {
				break
			}
			n, y = nn, ny
		}
		pl.settleViewport(n, y)
		return nil
	}
	return nil
}

func (pl *PageList) setViewport(tag ViewportTag, p *Pin) {
	if pl.viewportPin != nil {
		pl.pins.untrack(pl.viewportPin)
		pl.viewportPin = nil
	}
	pl.viewportTag = tag
	if tag == ViewportPinned && p != nil {
		pl.viewportPin = pl.pins.track(&Pin{node: p.node, Y: p.Y, X: p.X})
	}
}

// settleViewport clamps (n, y) into [screen top, active top] and installs
// it as the viewport anchor, snapping to ViewportTop/ViewportActive at
// the boundaries instead of keeping a redundant pin there.
func (pl *PageList) settleViewport(n *node, y int) {
	top := pl.first
	activeN, activeY := pl.activeAreaTop()

	if rowCompare(n, y, top, 0) <= 0 {
		pl.setViewport(ViewportTop, nil)
		return
	}
	if rowCompare(n, y, activeN, activeY) >= 0 {
		pl.setViewport(ViewportActive, nil)
		return
	}
	pl.setViewport(ViewportPinned, &Pin{node: n, Y: y, X: 0})
}

// findPrompt walks from (n, y), excluding it, in the given direction
// (+1/-1) until it finds a prompt-like row, returning ok=false if it
// reaches the screen top (searching backward) or the active area's
// bottom (searching forward) first.
func (pl *PageList) findPrompt(n *node, y, dir int) (*node, int, bool) {
	activeN, activeY := pl.activeAreaTop()
	for {
		nn, ny, ok := nodeAtOffset(n, y, dir)
		if !ok {
			return nil, 0, false
		}
		if dir > 0 && rowCompare(nn, ny, activeN, activeY) > 0 {
			return nil, 0, false
		}
		n, y = nn, ny
		if n.page.Row(y).SemanticPrompt.IsPromptLike() {
			return n, y, true
		}
		if dir < 0 && n == pl.first && y == 0 {
			return nil, 0, false
		}
	}
}

// ScrollClear pushes every non-blank row of the current active area into
// scrollback and presents a fresh blank active area, the way a shell's
// "clear and scroll" (as opposed to plain erase) behaves: content is
// preserved in history, trailing blank rows are not bothered with.
// Because the active area is always "whichever rows.Rows rows are at the
// tail" rather than a separately tracked boundary, this is just growing
// the tail by the number of active rows up to and including the last
// row that holds real content -- the S5 scenario
// from spec.md 8.
func (pl *PageList) ScrollClear() error {
	n, y := pl.activeAreaTop()
	contentRows := 0
	idx := 0
	cur, cy := n, y
	for {
		if !rowIsBlank(cur, cy) {
			contentRows = idx + 1
		}
		idx++
		nn, ny, ok := nodeAtOffset(cur, cy, 1)
		if !ok {
			break
		}
		cur, cy = nn, ny
	}

	for i := 0; i < contentRows; i++ {
		if _, _, err := pl.EnsureActiveRow(); err != nil {
			return err
		}
	}
	return nil
}

func rowIsBlank(n *node, y int) bool {
	p := n.page
	for x := 0; x < p.Size.Cols; x++ {
		_, c := p.GetRowAndCell(x, y)
		if !c.Empty() {
			return false
		}
	}
	return true
}
