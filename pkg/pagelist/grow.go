package pagelist

import "github.com/vibetunnel/screenengine/pkg/page"

// Grow appends exactly one row (spec.md 4.3's grow()):
//  1. If the last page has spare rows, just increment its size.
//  2. Else, if appending another full page would push total storage over
//     the byte budget (explicit max or minMaxSize, see maxSize) and the
//     active area doesn't itself need the room (growRequiredForActive),
//     prune the oldest scrollback page first -- repeatedly, if one
//     prune still isn't enough -- stopping as soon as either the budget
//     is satisfied or there is no more prunable scrollback (the active
//     area is never pruned).
//  3. Allocate a new standard-capacity page sized to exactly one row and
//     append it.
func (pl *PageList) Grow() error {
	if pl.last.page.Size.Rows < pl.last.page.Capacity.Rows {
		pl.last.page.SetSizeRows(pl.last.page.Size.Rows + 1)
		return nil
	}

	needed := pageByteSize(pl.pool.capacity)
	budget := pl.maxSize()
	for pl.totalBytes()+needed > budget && !pl.growRequiredForActive() {
		if !pl.pruneOldest() {
			break
		}
	}

	p, err := pl.pool.acquire()
	if err != nil {
		return ErrOutOfMemory
	}
	p.SetSizeCols(pl.cols)
	p.SetSizeRows(1)
	pl.append(p)
	return nil
}

// pruneOldest detaches the list's first page back to the pool, provided
// it sits entirely in scrollback (not the active area) and is not the
// only page left. Every pin that was anchored to the pruned page is
// re-homed onto the new first page's row 0 (spec.md 4.3: "pins in
// pruned pages clamp to the new oldest row").
func (pl *PageList) pruneOldest() bool {
	if pl.first == nil || pl.first == pl.last {
		return false
	}
	activeN, _ := pl.activeAreaTop()
	if pl.first == activeN {
		return false
	}

	old := pl.first
	pl.detach(old)
	pl.rewritePinsOnPageRemoved(old, pl.first)
	pl.pool.release(old.page)
	return true
}

// EnsureActiveRow returns a page and row index ready to receive the next
// row written to the bottom of the active area, growing (and, if
// necessary, pruning scrollback) when the current last page is full.
func (pl *PageList) EnsureActiveRow() (*page.Page, int, error) {
	if err := pl.Grow(); err != nil {
		return nil, 0, err
	}
	last := pl.last
	return last.page, last.page.Size.Rows - 1, nil
}
