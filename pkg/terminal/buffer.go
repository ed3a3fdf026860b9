// Package terminal wraps a pagelist.PageList with the vt10x-style
// snapshot/dedup bookkeeping and binary wire format the teacher's
// TerminalBuffer exposed to pkg/termsocket and pkg/api, but backs it
// with the paged, scrollback-aware storage engine instead of a flat
// [][]BufferCell.
package terminal

import (
	"encoding/binary"
	"sync"
	"unicode/utf8"

	"github.com/vibetunnel/screenengine/pkg/pagelist"
	"github.com/vibetunnel/screenengine/pkg/style"

	"github.com/vibetunnel/screenengine/internal/vtfeed"
)

// BufferCell represents a single cell in the terminal buffer
type BufferCell struct {
	Char  rune
	Fg    uint32 // Foreground color (RGB + flags)
	Bg    uint32 // Background color (RGB + flags)
	Flags uint8  // Bold, Italic, Underline, etc.
}

// BufferSnapshot represents the current state of the terminal buffer
type BufferSnapshot struct {
	Cols      int
	Rows      int
	ViewportY int
	CursorX   int
	CursorY   int
	Cells     [][]BufferCell
	// Performance optimization: track what changed
	ChangedLines  map[int]bool `json:",omitempty"`
	IsIncremental bool         `json:",omitempty"`
	// State change tracking like vt10x
	ChangeFlags uint32 `json:",omitempty"` // Bitmask of changes
	SequenceID  uint64 `json:",omitempty"` // Monotonic sequence for deduplication
}

// Change flags like vt10x
const (
	ChangedScreen uint32 = 1 << iota
	ChangedCursor
	ChangedTitle
	ChangedSize
)

// TerminalBuffer manages a virtual terminal screen backed by a
// pagelist.PageList. Callers write raw PTY output through Write and
// read the presentable screen back through GetSnapshot.
type TerminalBuffer struct {
	mu   sync.RWMutex
	pl   *pagelist.PageList
	feed *vtfeed.Interpreter

	cols, rows int

	// vt10x-style state tracking for deduplication
	anydirty     bool            // Any changes at all
	changeFlags  uint32          // Bitmask of change types
	sequenceID   uint64          // Monotonic counter for deduplication
	lastSnapshot *BufferSnapshot // Cache for comparison

	lastCursorX, lastCursorY int
}

// NewTerminalBuffer creates a terminal buffer with its own page list,
// sized with the same default budget pagelist.New applies when given a
// zero byte limit.
func NewTerminalBuffer(cols, rows int) (*TerminalBuffer, error) {
	pl, err := pagelist.New(cols, rows, 0)
	if err != nil {
		return nil, err
	}
	return &TerminalBuffer{
		pl:   pl,
		feed: vtfeed.New(pl),
		cols: cols,
		rows: rows,
	}, nil
}

// PageList exposes the underlying storage engine for callers that need
// scrollback access (clone, pin tracking, viewport scroll) beyond the
// flat BufferSnapshot view.
func (tb *TerminalBuffer) PageList() *pagelist.PageList {
	return tb.pl
}

// Write processes terminal output and updates the buffer
func (tb *TerminalBuffer) Write(data []byte) (int, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	n, err := tb.feed.Write(data)

	tb.anydirty = true
	tb.changeFlags |= ChangedScreen

	cur := tb.feed.CursorPosition()
	if cur.X != tb.lastCursorX || cur.Y != tb.lastCursorY {
		tb.lastCursorX, tb.lastCursorY = cur.X, cur.Y
		tb.markCursorChanged()
	}

	return n, err
}

// GetSnapshot returns the current buffer state with vt10x-style deduplication
func (tb *TerminalBuffer) GetSnapshot() *BufferSnapshot {
	tb.mu.RLock()
	defer tb.mu.RUnlock()

	// vt10x-style: Check if anything actually changed
	if !tb.anydirty && tb.changeFlags == 0 {
		if tb.lastSnapshot != nil {
			return tb.lastSnapshot
		}
	}

	tb.sequenceID++

	cells := make([][]BufferCell, tb.rows)
	changedLines := make(map[int]bool, tb.rows)
	for y := 0; y < tb.rows; y++ {
		row := make([]BufferCell, tb.cols)
		for x := 0; x < tb.cols; x++ {
			row[x] = tb.snapshotCell(x, y)
		}
		cells[y] = row
		changedLines[y] = true
	}

	cur := tb.feed.CursorPosition()
	snapshot := &BufferSnapshot{
		Cols:      tb.cols,
		Rows:      tb.rows,
		ViewportY: 0,
		CursorX:   cur.X,
		CursorY:   cur.Y,
		Cells:     cells,
		// The page list does not expose a cheap per-row dirty set the
		// way a flat buffer's dirty []bool did, so every snapshot after
		// a change is a full repaint rather than an incremental one.
		// Sequence-based dedup (the anydirty/changeFlags check above)
		// still skips work entirely when nothing changed, which is the
		// bulk of the win vt10x-style tracking bought the teacher.
		ChangedLines:  changedLines,
		IsIncremental: false,
		ChangeFlags:   tb.changeFlags,
		SequenceID:    tb.sequenceID,
	}

	tb.lastSnapshot = snapshot
	tb.resetChanges()

	return snapshot
}

// snapshotCell converts one active-area cell into the wire-format's
// flat BufferCell shape.
func (tb *TerminalBuffer) snapshotCell(x, y int) BufferCell {
	pt := pagelist.Point{X: x, Y: y}
	c := tb.pl.GetCell(pagelist.TagActive, pt)
	if c == nil {
		return BufferCell{Char: ' '}
	}

	ch := rune(' ')
	if c.HasText() && c.CodePoint != 0 {
		ch = c.CodePoint
	}

	st, _ := tb.pl.LookupStyle(pagelist.TagActive, pt)
	return BufferCell{
		Char:  ch,
		Fg:    packColor(st.HasFg, st.FgIsPalette, st.FgPalette, st.FgRGB),
		Bg:    packColor(st.HasBg, st.BgIsPalette, st.BgPalette, st.BgRGB),
		Flags: packFlags(st),
	}
}

func packColor(has, isPalette bool, palette uint8, rgb uint32) uint32 {
	if !has {
		return 0
	}
	if isPalette {
		return uint32(palette)
	}
	return rgb
}

func packFlags(st style.Style) uint8 {
	var flags uint8
	if st.Bold {
		flags |= 0x01
	}
	if st.Italic {
		flags |= 0x02
	}
	if st.Underline != 0 {
		flags |= 0x04
	}
	if st.Inverse {
		flags |= 0x08
	}
	return flags
}

// resetChanges clears dirty flags like vt10x
func (tb *TerminalBuffer) resetChanges() {
	tb.anydirty = false
	tb.changeFlags = 0
}

// markCursorChanged marks cursor as changed
func (tb *TerminalBuffer) markCursorChanged() {
	tb.changeFlags |= ChangedCursor
	tb.anydirty = true
}

// Resize adjusts the buffer size, reflowing existing content to the new
// column width.
func (tb *TerminalBuffer) Resize(cols, rows int) error {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if cols == tb.cols && rows == tb.rows {
		return nil
	}

	if err := tb.feed.Resize(cols, rows, true); err != nil {
		return err
	}

	tb.cols, tb.rows = cols, rows
	tb.changeFlags |= ChangedSize
	tb.anydirty = true
	return nil
}

// SerializeToBinary converts the buffer snapshot to the binary format expected by the web client
func (snapshot *BufferSnapshot) SerializeToBinary() []byte {
	// Pre-calculate actual data size for efficiency
	dataSize := 28 // Header size (2 magic + 1 version + 1 flags + 4*6 for dimensions/cursor/reserved)

	// First pass: calculate exact size needed
	for row := 0; row < snapshot.Rows; row++ {
		var rowCells []BufferCell
		if row < len(snapshot.Cells) && snapshot.Cells[row] != nil {
			rowCells = snapshot.Cells[row]
		}
		if isEmptyRow(rowCells) {
			// Empty row marker: 2 bytes
			dataSize += 2
		} else {
			// Row header: 3 bytes (marker + length)
			dataSize += 3
			// Trim trailing blank cells
			trimmedCells := trimRowCells(rowCells)
			for _, cell := range trimmedCells {
				dataSize += calculateCellSize(cell)
			}
		}
	}

	buffer := make([]byte, dataSize)
	offset := 0

	// Write header (28 bytes)
	binary.LittleEndian.PutUint16(buffer[offset:], 0x5654) // Magic "VT"
	offset += 2
	buffer[offset] = 0x01 // Version 1
	offset++
	buffer[offset] = 0x00 // Flags
	offset++
	binary.LittleEndian.PutUint32(buffer[offset:], uint32(snapshot.Cols))
	offset += 4
	binary.LittleEndian.PutUint32(buffer[offset:], uint32(snapshot.Rows))
	offset += 4
	binary.LittleEndian.PutUint32(buffer[offset:], uint32(snapshot.ViewportY))
	offset += 4
	binary.LittleEndian.PutUint32(buffer[offset:], uint32(snapshot.CursorX))
	offset += 4
	binary.LittleEndian.PutUint32(buffer[offset:], uint32(snapshot.CursorY))
	offset += 4
	binary.LittleEndian.PutUint32(buffer[offset:], 0) // Reserved
	offset += 4

	// Write cells with optimized format
	for row := 0; row < snapshot.Rows; row++ {
		var rowCells []BufferCell
		if row < len(snapshot.Cells) && snapshot.Cells[row] != nil {
			rowCells = snapshot.Cells[row]
		}

		if isEmptyRow(rowCells) {
			// Empty row marker
			buffer[offset] = 0xfe // Empty row marker
			offset++
			buffer[offset] = 1 // Count of empty rows (for now just 1)
			offset++
		} else {
			// Row with content
			buffer[offset] = 0xfd // Row marker
			offset++
			trimmedCells := trimRowCells(rowCells)
			binary.LittleEndian.PutUint16(buffer[offset:], uint16(len(trimmedCells)))
			offset += 2

			// Write each cell
			for _, cell := range trimmedCells {
				offset = encodeCell(buffer, offset, cell)
			}
		}
	}

	// Return exact size buffer
	return buffer[:offset]
}

// Helper functions for binary serialization

// isEmptyRow checks if a row contains only empty cells
func isEmptyRow(cells []BufferCell) bool {
	if len(cells) == 0 {
		return true
	}
	if len(cells) == 1 && cells[0].Char == ' ' && cells[0].Fg == 0 && cells[0].Bg == 0 && cells[0].Flags == 0 {
		return true
	}
	for _, cell := range cells {
		if cell.Char != ' ' || cell.Fg != 0 || cell.Bg != 0 || cell.Flags != 0 {
			return false
		}
	}
	return true
}

// trimRowCells removes trailing blank cells from a row
func trimRowCells(cells []BufferCell) []BufferCell {
	lastNonBlank := len(cells) - 1
	for lastNonBlank >= 0 {
		cell := cells[lastNonBlank]
		if cell.Char != ' ' || cell.Fg != 0 || cell.Bg != 0 || cell.Flags != 0 {
			break
		}
		lastNonBlank--
	}
	// Keep at least one cell
	if lastNonBlank < 0 {
		return cells[:1]
	}
	return cells[:lastNonBlank+1]
}

// calculateCellSize calculates the size needed to encode a cell
func calculateCellSize(cell BufferCell) int {
	isSpace := cell.Char == ' '
	hasAttrs := cell.Flags != 0
	hasFg := cell.Fg != 0
	hasBg := cell.Bg != 0
	isAscii := cell.Char <= 127

	if isSpace && !hasAttrs && !hasFg && !hasBg {
		return 1 // Just a space marker
	}

	size := 1 // Type byte

	if isAscii {
		size++ // ASCII character
	} else {
		charBytes := utf8.RuneLen(cell.Char)
		size += 1 + charBytes // Length byte + UTF-8 bytes
	}

	// Attributes/colors byte
	if hasAttrs || hasFg || hasBg {
		size++ // Flags byte for attributes

		if hasFg {
			if cell.Fg > 255 {
				size += 3 // RGB
			} else {
				size++ // Palette
			}
		}

		if hasBg {
			if cell.Bg > 255 {
				size += 3 // RGB
			} else {
				size++ // Palette
			}
		}
	}

	return size
}

// encodeCell encodes a single cell into the buffer
func encodeCell(buffer []byte, offset int, cell BufferCell) int {
	isSpace := cell.Char == ' '
	hasAttrs := cell.Flags != 0
	hasFg := cell.Fg != 0
	hasBg := cell.Bg != 0
	isAscii := cell.Char <= 127

	// Type byte format:
	// Bit 7: Has extended data (attrs/colors)
	// Bit 6: Is Unicode (vs ASCII)
	// Bit 5: Has foreground color
	// Bit 4: Has background color
	// Bit 3: Is RGB foreground (vs palette)
	// Bit 2: Is RGB background (vs palette)
	// Bits 1-0: Character type (00=space, 01=ASCII, 10=Unicode)

	if isSpace && !hasAttrs && !hasFg && !hasBg {
		// Simple space - 1 byte
		buffer[offset] = 0x00 // Type: space, no extended data
		return offset + 1
	}

	var typeByte byte = 0

	if hasAttrs || hasFg || hasBg {
		typeByte |= 0x80 // Has extended data
	}

	if !isAscii {
		typeByte |= 0x40 // Is Unicode
		typeByte |= 0x02 // Character type: Unicode
	} else if !isSpace {
		typeByte |= 0x01 // Character type: ASCII
	}

	if hasFg {
		typeByte |= 0x20 // Has foreground
		if cell.Fg > 255 {
			typeByte |= 0x08 // Is RGB
		}
	}

	if hasBg {
		typeByte |= 0x10 // Has background
		if cell.Bg > 255 {
			typeByte |= 0x04 // Is RGB
		}
	}

	buffer[offset] = typeByte
	offset++

	// Write character
	if !isAscii {
		charBytes := make([]byte, 4)
		n := utf8.EncodeRune(charBytes, cell.Char)
		buffer[offset] = byte(n)
		offset++
		copy(buffer[offset:], charBytes[:n])
		offset += n
	} else if !isSpace {
		buffer[offset] = byte(cell.Char)
		offset++
	}

	// Write extended data if present
	if typeByte&0x80 != 0 {
		var attrs byte = cell.Flags

		if hasAttrs || hasFg || hasBg {
			buffer[offset] = attrs
			offset++
		}

		// Foreground color
		if hasFg {
			if cell.Fg > 255 {
				// RGB
				buffer[offset] = byte((cell.Fg >> 16) & 0xff)
				offset++
				buffer[offset] = byte((cell.Fg >> 8) & 0xff)
				offset++
				buffer[offset] = byte(cell.Fg & 0xff)
				offset++
			} else {
				// Palette
				buffer[offset] = byte(cell.Fg)
				offset++
			}
		}

		// Background color
		if hasBg {
			if cell.Bg > 255 {
				// RGB
				buffer[offset] = byte((cell.Bg >> 16) & 0xff)
				offset++
				buffer[offset] = byte((cell.Bg >> 8) & 0xff)
				offset++
				buffer[offset] = byte(cell.Bg & 0xff)
				offset++
			} else {
				// Palette
				buffer[offset] = byte(cell.Bg)
				offset++
			}
		}
	}

	return offset
}
