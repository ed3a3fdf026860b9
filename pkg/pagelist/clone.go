package pagelist

// CloneRange describes the span to copy in a Clone call: every row from
// (TopTag, Top) to (BotTag, Bot) inclusive. Bot == nil means "through
// the last row reachable under BotTag" (i.e. the bottom of the screen).
type CloneRange struct {
	TopTag Tag
	Top    Point
	BotTag Tag
	Bot    *Point
}

// Clone copies the rows addressed by r into a brand new, independent
// PageList whose entire copied span becomes its active area -- a
// snapshot independent of later writes to pl (spec.md 4.2's per-page
// Clone generalized across the whole list).
//
// remapPins, if non-nil, is a set of pins in the source list whose
// equivalent position in the clone the caller wants back; the returned
// map holds an entry for each one that fell within the copied range.
func (pl *PageList) Clone(r CloneRange, maxBytes int, remapPins []*Pin) (*PageList, map[*Pin]*Pin, error) {
	topN, topY, ok := pl.resolve(r.TopTag, r.Top)
	if !ok {
		return nil, nil, ErrPointOutOfRange
	}
	var botN *node
	var botY int
	if r.Bot != nil {
		botN, botY, ok = pl.resolve(r.BotTag, *r.Bot)
		if !ok {
			return nil, nil, ErrPointOutOfRange
		}
	} else {
		switch r.BotTag {
		case TagHistory:
			botN, botY = pl.activeAreaTop()
			botN, botY, ok = nodeAtOffset(botN, botY, -1)
			if !ok {
				botN, botY = topN, topY
			}
		default:
			botN, botY = pl.last, pl.last.page.Size.Rows-1
		}
	}

	total, ok := rowsBetween(topN, topY, botN, botY)
	if !ok {
		return nil, nil, ErrPointOutOfRange
	}
	total++ // inclusive

	dst, err := New(pl.cols, total, maxBytes)
	if err != nil {
		return nil, nil, err
	}

	srcN, srcY := topN, topY
	dstN, dstY := dst.first, 0
	for i := 0; i < total; i++ {
		if err := dstN.page.ClonePartialRowFrom(srcN.page, srcY, dstY, 0, pl.cols); err != nil {
			return nil, nil, err
		}
		if i+1 < total {
			nn, ny, ok := nodeAtOffset(srcN, srcY, 1)
			if !ok {
				break
			}
			srcN, srcY = nn, ny
			dn, dy, ok := nodeAtOffset(dst.first, 0, i+1)
			if !ok {
				break
			}
			dstN, dstY = dn, dy
		}
	}

	var out map[*Pin]*Pin
	if len(remapPins) > 0 {
		out = make(map[*Pin]*Pin, len(remapPins))
		for _, p := range remapPins {
			off, ok := rowsBetween(topN, topY, p.node, p.Y)
			if !ok || off >= total {
				continue
			}
			out[p] = dst.TrackPin(TagScreen, Point{X: p.X, Y: off})
		}
	}

	return dst, out, nil
}

// rowsBetween counts the rows from (fromN, fromY) forward to (toN, toY)
// inclusive of the start but not the end, returning ok=false if toN is
// never reached walking forward.
func rowsBetween(fromN *node, fromY int, toN *node, toY int) (int, bool) {
	if fromN == toN {
		if toY < fromY {
			return 0, false
		}
		return toY - fromY, true
	}
	count := fromN.page.Size.Rows - fromY
	for n := fromN.next; n != nil; n = n.next {
		if n == toN {
			return count + toY, true
		}
		count += n.page.Size.Rows
	}
	return 0, false
}
