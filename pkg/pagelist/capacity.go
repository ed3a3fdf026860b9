package pagelist

// AdjustCapacity grows the style set and/or grapheme arena of the page
// addressed by a tagged point (spec.md 6's adjust_capacity(page,
// {styles?, grapheme_bytes?})). Either argument may be left at 0 to
// leave that capacity untouched.
func (pl *PageList) AdjustCapacity(tag Tag, pt Point, styles, graphemeBytes int) error {
	n, _, ok := pl.resolve(tag, pt)
	if !ok {
		return ErrPointOutOfRange
	}
	if styles > 0 {
		if err := n.page.AdjustStyleCapacity(styles); err != nil {
			return err
		}
	}
	if graphemeBytes > 0 {
		if err := n.page.AdjustGraphemeCapacity(graphemeBytes); err != nil {
			return err
		}
	}
	return nil
}

// Compact shrinks the page addressed by a tagged point back down to the
// smallest style/grapheme capacity its current content needs (spec.md
// 6's compact(page)), the natural complement to AdjustCapacity once a
// content burst has passed.
func (pl *PageList) Compact(tag Tag, pt Point) error {
	n, _, ok := pl.resolve(tag, pt)
	if !ok {
		return ErrPointOutOfRange
	}
	return n.page.Compact()
}
