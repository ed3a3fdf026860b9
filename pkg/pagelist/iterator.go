package pagelist

import (
	"github.com/vibetunnel/screenengine/pkg/cell"
	"github.com/vibetunnel/screenengine/pkg/page"
)

// Direction selects which way a RowIterator walks.
type Direction int

const (
	RightDown Direction = iota
	LeftUp
)

// RowIterator walks rows of a tagged range one at a time, in either
// direction, without restarting (spec.md 4.7): once exhausted it always
// returns ok=false. Each call yields the row header, its live cell
// slice, and a throwaway Pin marking its position (callers that want it
// tracked must pass it to TrackPin themselves).
type RowIterator struct {
	pl                 *PageList
	dir                Direction
	n                  *node
	y                  int
	lowN, highN        *node
	lowY, highY        int
	exhausted          bool
}

// NewRowIterator returns an iterator over every row addressable under
// tag, starting from the top (RightDown) or the bottom (LeftUp).
func (pl *PageList) NewRowIterator(tag Tag, dir Direction) *RowIterator {
	top, bot := pl.GetTopLeft(tag), pl.GetBottomRight(tag)
	if top == nil || bot == nil {
		return &RowIterator{exhausted: true}
	}
	return pl.boundedIteratorFrom(top.node, top.Y, bot.node, bot.Y, dir)
}

// NewBoundedRowIterator returns an iterator restricted to [from, to]
// (inclusive), both resolved under tag.
func (pl *PageList) NewBoundedRowIterator(tag Tag, from, to Point, dir Direction) *RowIterator {
	fn, fy, ok := pl.resolve(tag, from)
	if !ok {
		return &RowIterator{exhausted: true}
	}
	tn, ty, ok := pl.resolve(tag, to)
	if !ok {
		return &RowIterator{exhausted: true}
	}
	return pl.boundedIteratorFrom(fn, fy, tn, ty, dir)
}

func (pl *PageList) boundedIteratorFrom(lowN *node, lowY int, highN *node, highY int, dir Direction) *RowIterator {
	ri := &RowIterator{pl: pl, dir: dir, lowN: lowN, lowY: lowY, highN: highN, highY: highY}
	if dir == RightDown {
		ri.n, ri.y = lowN, lowY
	} else {
		ri.n, ri.y = highN, highY
	}
	return ri
}

// Next returns the next row in the iteration order, or ok=false once
// the range is exhausted.
func (ri *RowIterator) Next() (row *cell.Row, cells []cell.Cell, pin *Pin, ok bool) {
	if ri.exhausted || ri.n == nil {
		return nil, nil, nil, false
	}

	row = ri.n.page.Row(ri.y)
	cells = ri.n.page.RowCells(ri.y)
	pin = &Pin{node: ri.n, Y: ri.y, X: 0}

	atFarEnd := (ri.dir == RightDown && ri.n == ri.highN && ri.y == ri.highY) ||
		(ri.dir == LeftUp && ri.n == ri.lowN && ri.y == ri.lowY)
	if atFarEnd {
		ri.exhausted = true
		return row, cells, pin, true
	}

	step := 1
	if ri.dir == LeftUp {
		step = -1
	}
	nn, ny, advanced := nodeAtOffset(ri.n, ri.y, step)
	if !advanced {
		ri.exhausted = true
	} else {
		ri.n, ri.y = nn, ny
	}
	return row, cells, pin, true
}

// Pages returns every page spanning tag's range, in list order, for
// callers that want to walk the list page-by-page (e.g. a bulk
// serializer) rather than row-by-row.
func (pl *PageList) Pages(tag Tag) []*page.Page {
	top, bot := pl.GetTopLeft(tag), pl.GetBottomRight(tag)
	if top == nil || bot == nil {
		return nil
	}
	var out []*page.Page
	for n := top.node; n != nil; n = n.next {
		out = append(out, n.page)
		if n == bot.node {
			break
		}
	}
	return out
}
