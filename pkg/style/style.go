// Package style implements a ref-counted interning table for cell
// styles. Cells carry a small dense 16-bit id (cell.DefaultStyleID for
// "no style") instead of a full style record, the same tradeoff the
// teacher's BufferCell makes by packing Fg/Bg/Flags directly -- except
// here the indirection lets thousands of cells share one style record
// and lets a page's total style footprint be bounded independently of
// its cell count.
package style

import (
	"errors"
	"hash/fnv"
)

// ErrFull is returned by Upsert when the set has no free slot and the
// style being inserted is not already present.
var ErrFull = errors.New("style: set full")

// Style is the content of an interned style: everything about a cell's
// rendering that is not its glyph.
type Style struct {
	FgRGB         uint32
	BgRGB         uint32
	FgPalette     uint8
	BgPalette     uint8
	HasFg         bool
	HasBg         bool
	FgIsPalette   bool
	BgIsPalette   bool
	Bold          bool
	Italic        bool
	Faint         bool
	Underline     uint8 // 0=none, 1=single, 2=double, 3=curly, 4=dotted, 5=dashed
	UnderlineRGB  uint32
	HasUnderlineC bool
	Strikethrough bool
	Blink         bool
	Invisible     bool
	Inverse       bool
}

func (s Style) hashKey() uint64 {
	h := fnv.New64a()
	var b [32]byte
	put32 := func(off int, v uint32) {
		b[off] = byte(v)
		b[off+1] = byte(v >> 8)
		b[off+2] = byte(v >> 16)
		b[off+3] = byte(v >> 24)
	}
	put32(0, s.FgRGB)
	put32(4, s.BgRGB)
	put32(8, s.UnderlineRGB)
	flags := uint32(0)
	setBit := func(i int, v bool) {
		if v {
			flags |= 1 << uint(i)
		}
	}
	setBit(0, s.HasFg)
	setBit(1, s.HasBg)
	setBit(2, s.FgIsPalette)
	setBit(3, s.BgIsPalette)
	setBit(4, s.Bold)
	setBit(5, s.Italic)
	setBit(6, s.Faint)
	setBit(7, s.HasUnderlineC)
	setBit(8, s.Strikethrough)
	setBit(9, s.Blink)
	setBit(10, s.Invisible)
	setBit(11, s.Inverse)
	put32(12, flags)
	b[16] = s.FgPalette
	b[17] = s.BgPalette
	b[18] = s.Underline
	_, _ = h.Write(b[:19])
	return h.Sum64()
}

type slot struct {
	style    Style
	refCount int
	occupied bool
}

// Set is a fixed-capacity, ref-counted style interning table. Id 0 is
// never issued by Upsert; it is reserved as cell.DefaultStyleID and
// always means "no style, skip the lookup".
type Set struct {
	slots    []slot
	byHash   map[uint64][]uint16
	capacity int
}

// New creates a style set with room for capacity distinct styles
// (ids 1..capacity; id 0 is reserved).
func New(capacity int) *Set {
	return &Set{
		slots:    make([]slot, capacity+1),
		byHash:   make(map[uint64][]uint16),
		capacity: capacity,
	}
}

// Capacity returns the number of non-default style slots available.
func (s *Set) Capacity() int { return s.capacity }

// Count returns the number of distinct styles currently interned.
func (s *Set) Count() int {
	n := 0
	for i := 1; i < len(s.slots); i++ {
		if s.slots[i].occupied {
			n++
		}
	}
	return n
}

// Lookup returns the style for an id, or false if the id is not
// currently live (or is DefaultStyleID, which has no backing record).
func (s *Set) Lookup(id uint16) (Style, bool) {
	if id == 0 || int(id) >= len(s.slots) || !s.slots[id].occupied {
		return Style{}, false
	}
	return s.slots[id].style, true
}

// RefCount returns the reference count for id, or 0 if not live.
func (s *Set) RefCount(id uint16) int {
	if id == 0 || int(id) >= len(s.slots) || !s.slots[id].occupied {
		return 0
	}
	return s.slots[id].refCount
}

// Upsert interns st if not already present and returns its id with an
// incremented reference count. Returns ErrFull if st is new and no slot
// is free.
func (s *Set) Upsert(st Style) (uint16, error) {
	h := st.hashKey()
	for _, id := range s.byHash[h] {
		if s.slots[id].occupied && s.slots[id].style == st {
			s.slots[id].refCount++
			return id, nil
		}
	}
	for i := 1; i < len(s.slots); i++ {
		if !s.slots[i].occupied {
			s.slots[i] = slot{style: st, refCount: 1, occupied: true}
			s.byHash[h] = append(s.byHash[h], uint16(i))
			return uint16(i), nil
		}
	}
	return 0, ErrFull
}

// Use increments the reference count of an already-interned id, for
// reflow/clone paths that copy a cell (and therefore its style
// reference) without looking the style content back up.
func (s *Set) Use(id uint16) {
	if id == 0 || int(id) >= len(s.slots) || !s.slots[id].occupied {
		return
	}
	s.slots[id].refCount++
}

// Release decrements id's reference count and frees the slot when it
// reaches zero. Releasing DefaultStyleID or an unknown id is a no-op.
func (s *Set) Release(id uint16) {
	if id == 0 || int(id) >= len(s.slots) || !s.slots[id].occupied {
		return
	}
	s.slots[id].refCount--
	if s.slots[id].refCount <= 0 {
		h := s.slots[id].style.hashKey()
		s.slots[id] = slot{}
		ids := s.byHash[h]
		for i, v := range ids {
			if v == id {
				s.byHash[h] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
	}
}

// Grow returns a new Set with newCapacity slots, containing every
// currently-live style at the same id with the same reference count.
// Used by Page.AdjustCapacity when a page's style set is full.
func (s *Set) Grow(newCapacity int) (*Set, error) {
	if newCapacity < s.capacity {
		return nil, errors.New("style: cannot shrink capacity")
	}
	ns := New(newCapacity)
	for i := 1; i < len(s.slots); i++ {
		if s.slots[i].occupied {
			ns.slots[i] = s.slots[i]
			h := s.slots[i].style.hashKey()
			ns.byHash[h] = append(ns.byHash[h], uint16(i))
		}
	}
	return ns, nil
}

// Clone returns a deep, independent copy of the set.
func (s *Set) Clone() *Set {
	c := &Set{
		slots:    make([]slot, len(s.slots)),
		byHash:   make(map[uint64][]uint16, len(s.byHash)),
		capacity: s.capacity,
	}
	copy(c.slots, s.slots)
	for h, ids := range s.byHash {
		cp := make([]uint16, len(ids))
		copy(cp, ids)
		c.byHash[h] = cp
	}
	return c
}
