package vtfeed

import (
	"bytes"

	"github.com/vibetunnel/screenengine/pkg/cell"
	"github.com/vibetunnel/screenengine/pkg/pagelist"
	"github.com/vibetunnel/screenengine/pkg/style"
)

// handleCSI dispatches a complete CSI sequence, grounded on the
// teacher's handleCsi switch over the final byte (A/B/C/D cursor
// moves, H/f cursor-position, J/K erase, m SGR).
func (in *Interpreter) handleCSI(params []int, intermediate []byte, final byte) {
	switch final {
	case 'A':
		in.cursorY = clamp(in.cursorY-param(params, 0, 1), 0, in.pl.Rows()-1)
	case 'B':
		in.cursorY = clamp(in.cursorY+param(params, 0, 1), 0, in.pl.Rows()-1)
	case 'C':
		in.cursorX = clamp(in.cursorX+param(params, 0, 1), 0, in.pl.Cols()-1)
	case 'D':
		in.cursorX = clamp(in.cursorX-param(params, 0, 1), 0, in.pl.Cols()-1)
	case 'E':
		in.cursorY = clamp(in.cursorY+param(params, 0, 1), 0, in.pl.Rows()-1)
		in.cursorX = 0
	case 'F':
		in.cursorY = clamp(in.cursorY-param(params, 0, 1), 0, in.pl.Rows()-1)
		in.cursorX = 0
	case 'G':
		in.cursorX = clamp(param(params, 0, 1)-1, 0, in.pl.Cols()-1)
	case 'H', 'f':
		row := param(params, 0, 1)
		col := param(params, 1, 1)
		in.cursorY = clamp(row-1, 0, in.pl.Rows()-1)
		in.cursorX = clamp(col-1, 0, in.pl.Cols()-1)
	case 'J':
		in.eraseDisplay(param(params, 0, 0))
	case 'K':
		in.eraseLine(param(params, 0, 0))
	case 'd':
		in.cursorY = clamp(param(params, 0, 1)-1, 0, in.pl.Rows()-1)
	case 'm':
		in.handleSGR(params)
	case 's':
		in.savedX, in.savedY = in.cursorX, in.cursorY
	case 'u':
		in.cursorX, in.cursorY = in.savedX, in.savedY
	case 'h', 'l':
		// Private/ANSI mode sets (cursor visibility, alt screen, etc.) are
		// not modeled; the engine has no notion of cursor visibility or a
		// secondary screen buffer.
	case 'r':
		// DECSTBM scroll-region: this engine's active area is the whole
		// scroll region, so the sequence is accepted and ignored.
	default:
	}
	_ = intermediate
}

func (in *Interpreter) eraseDisplay(mode int) {
	switch mode {
	case 0:
		in.clearRange(in.cursorY, in.cursorX, in.pl.Cols())
		for y := in.cursorY + 1; y < in.pl.Rows(); y++ {
			in.clearRange(y, 0, in.pl.Cols())
		}
	case 1:
		for y := 0; y < in.cursorY; y++ {
			in.clearRange(y, 0, in.pl.Cols())
		}
		in.clearRange(in.cursorY, 0, in.cursorX+1)
	case 2, 3:
		for y := 0; y < in.pl.Rows(); y++ {
			in.clearRange(y, 0, in.pl.Cols())
		}
	}
}

func (in *Interpreter) eraseLine(mode int) {
	switch mode {
	case 0:
		in.clearRange(in.cursorY, in.cursorX, in.pl.Cols())
	case 1:
		in.clearRange(in.cursorY, 0, in.cursorX+1)
	case 2:
		in.clearRange(in.cursorY, 0, in.pl.Cols())
	}
}

// handleSGR applies Select Graphic Rendition parameters to the current
// style, following the same numbering the teacher's handleSGR used,
// extended with 38;2/48;2 truecolor since style.Style already carries
// RGB fields for it.
func (in *Interpreter) handleSGR(params []int) {
	if len(params) == 0 {
		params = []int{0}
	}
	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == 0:
			in.style = style.Style{}
		case p == 1:
			in.style.Bold = true
		case p == 2:
			in.style.Faint = true
		case p == 3:
			in.style.Italic = true
		case p == 4:
			in.style.Underline = 1
		case p == 5, p == 6:
			in.style.Blink = true
		case p == 7:
			in.style.Inverse = true
		case p == 8:
			in.style.Invisible = true
		case p == 9:
			in.style.Strikethrough = true
		case p == 21:
			in.style.Underline = 2
		case p == 22:
			in.style.Bold = false
			in.style.Faint = false
		case p == 23:
			in.style.Italic = false
		case p == 24:
			in.style.Underline = 0
			in.style.HasUnderlineC = false
		case p == 25:
			in.style.Blink = false
		case p == 27:
			in.style.Inverse = false
		case p == 28:
			in.style.Invisible = false
		case p == 29:
			in.style.Strikethrough = false
		case p >= 30 && p <= 37:
			in.style.HasFg, in.style.FgIsPalette, in.style.FgPalette = true, true, uint8(p-30)
		case p == 38:
			i = in.extendedColor(params, i, true)
		case p == 39:
			in.style.HasFg = false
		case p >= 40 && p <= 47:
			in.style.HasBg, in.style.BgIsPalette, in.style.BgPalette = true, true, uint8(p-40)
		case p == 48:
			i = in.extendedColor(params, i, false)
		case p == 49:
			in.style.HasBg = false
		case p >= 90 && p <= 97:
			in.style.HasFg, in.style.FgIsPalette, in.style.FgPalette = true, true, uint8(p-90+8)
		case p >= 100 && p <= 107:
			in.style.HasBg, in.style.BgIsPalette, in.style.BgPalette = true, true, uint8(p-100+8)
		}
	}
}

// extendedColor parses the 38;5;n / 38;2;r;g;b (and 48;...) forms
// starting at params[i] (which holds 38 or 48), returning the index of
// the last parameter it consumed.
func (in *Interpreter) extendedColor(params []int, i int, fg bool) int {
	if i+1 >= len(params) {
		return i
	}
	switch params[i+1] {
	case 5:
		if i+2 >= len(params) {
			return i + 1
		}
		if fg {
			in.style.HasFg, in.style.FgIsPalette, in.style.FgPalette = true, true, uint8(params[i+2])
		} else {
			in.style.HasBg, in.style.BgIsPalette, in.style.BgPalette = true, true, uint8(params[i+2])
		}
		return i + 2
	case 2:
		if i+4 >= len(params) {
			return i + 1
		}
		rgb := uint32(params[i+2])<<16 | uint32(params[i+3])<<8 | uint32(params[i+4])
		if fg {
			in.style.HasFg, in.style.FgIsPalette, in.style.FgRGB = true, false, rgb
		} else {
			in.style.HasBg, in.style.BgIsPalette, in.style.BgRGB = true, false, rgb
		}
		return i + 4
	default:
		return i + 1
	}
}

// handleOSC dispatches an Operating System Command body. Only OSC 133
// (shell prompt marks) is interpreted, annotating the current row's
// SemanticPrompt so PageList.Scroll's delta_prompt behavior works;
// everything else (window title, hyperlinks, clipboard) is accepted
// and ignored, same as the teacher's handleOsc placeholder.
func (in *Interpreter) handleOSC(body []byte) {
	parts := bytes.SplitN(body, []byte(";"), 2)
	if len(parts) < 2 || string(parts[0]) != "133" {
		return
	}
	pt := pagelist.Point{X: 0, Y: in.cursorY}
	switch {
	case bytes.HasPrefix(parts[1], []byte("A")):
		_ = in.pl.SetSemanticPrompt(pagelist.TagActive, pt, cell.SemanticPromptPrompt)
	case bytes.HasPrefix(parts[1], []byte("B")):
		_ = in.pl.SetSemanticPrompt(pagelist.TagActive, pt, cell.SemanticPromptInput)
	case bytes.HasPrefix(parts[1], []byte("C")):
		_ = in.pl.SetSemanticPrompt(pagelist.TagActive, pt, cell.SemanticPromptCommand)
	}
}
