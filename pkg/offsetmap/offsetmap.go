// Package offsetmap implements a small open-addressing hash map whose
// keys and values are plain integers ("offsets" into some other backing
// buffer) rather than pointers. Storing everything as parallel slices of
// integers means the whole map survives a bulk copy of the page it lives
// in: there is nothing for a memcpy to invalidate.
package offsetmap

// emptySlot marks an unused bucket. Valid keys are non-negative cell
// indices, so -1 is safe as a sentinel.
const emptySlot = -1

// Value is what the grapheme map stores for a cell: the chunk offset and
// codepoint count of that cell's extra-codepoints slice in the page's
// grapheme arena.
type Value struct {
	ArenaOffset int
	Len         int
}

// Map is an open-addressing hash map from int key to Value, sized as a
// power of two and grown by doubling, in the style of a simple intrusive
// hash table rather than Go's built-in map -- needed here because the
// built-in map cannot be bulk-copied by value the way a page's other
// regions are.
type Map struct {
	keys   []int
	vals   []Value
	count  int
}

// New creates a map with room for at least capacity entries before its
// first growth.
func New(capacity int) *Map {
	size := 8
	for size < capacity*2 {
		size *= 2
	}
	m := &Map{keys: make([]int, size), vals: make([]Value, size)}
	for i := range m.keys {
		m.keys[i] = emptySlot
	}
	return m
}

func (m *Map) hash(key int) int {
	h := uint64(key) * 2654435761
	return int(h % uint64(len(m.keys)))
}

func (m *Map) find(key int) (idx int, found bool) {
	if len(m.keys) == 0 {
		return -1, false
	}
	i := m.hash(key)
	for probes := 0; probes < len(m.keys); probes++ {
		k := m.keys[i]
		if k == emptySlot {
			return i, false
		}
		if k == key {
			return i, true
		}
		i = (i + 1) % len(m.keys)
	}
	return -1, false
}

// Get returns the value for key, if present.
func (m *Map) Get(key int) (Value, bool) {
	i, found := m.find(key)
	if !found {
		return Value{}, false
	}
	return m.vals[i], true
}

// Set inserts or overwrites the value for key, growing the table if it is
// more than half full.
func (m *Map) Set(key int, val Value) {
	if len(m.keys) == 0 || m.count*2 >= len(m.keys) {
		m.grow()
	}
	i, found := m.find(key)
	if !found {
		m.count++
	}
	m.keys[i] = key
	m.vals[i] = val
}

// Delete removes key if present, re-inserting any entries in its probe
// chain that might otherwise become unreachable.
func (m *Map) Delete(key int) {
	i, found := m.find(key)
	if !found {
		return
	}
	m.keys[i] = emptySlot
	m.count--

	// Standard open-addressing deletion: re-insert the tail of the probe
	// chain so later lookups don't stop early at the hole we just made.
	j := (i + 1) % len(m.keys)
	for m.keys[j] != emptySlot {
		k, v := m.keys[j], m.vals[j]
		m.keys[j] = emptySlot
		m.count--
		m.Set(k, v)
		j = (j + 1) % len(m.keys)
	}
}

// RekeyKey moves the entry at oldKey (if any) to newKey, used when cells
// move within a page and their grapheme map entries must move with them.
func (m *Map) RekeyKey(oldKey, newKey int) {
	v, ok := m.Get(oldKey)
	if !ok {
		return
	}
	m.Delete(oldKey)
	m.Set(newKey, v)
}

// Len returns the number of entries stored.
func (m *Map) Len() int { return m.count }

func (m *Map) grow() {
	newSize := len(m.keys) * 2
	if newSize == 0 {
		newSize = 8
	}
	old := m
	nm := &Map{keys: make([]int, newSize), vals: make([]Value, newSize)}
	for i := range nm.keys {
		nm.keys[i] = emptySlot
	}
	*m = *nm
	for i, k := range old.keys {
		if k != emptySlot {
			m.Set(k, old.vals[i])
		}
	}
}

// Each calls fn for every stored key/value pair in unspecified order.
func (m *Map) Each(fn func(key int, val Value)) {
	for i, k := range m.keys {
		if k != emptySlot {
			fn(k, m.vals[i])
		}
	}
}

// Clone returns a deep, independent copy.
func (m *Map) Clone() *Map {
	c := &Map{
		keys:  make([]int, len(m.keys)),
		vals:  make([]Value, len(m.vals)),
		count: m.count,
	}
	copy(c.keys, m.keys)
	copy(c.vals, m.vals)
	return c
}
