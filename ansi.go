// Package duskline: the Presenter. Turns a grid + diff into the minimum
// escape-sequence byte stream needed to bring a conforming terminal from
// the previous frame to the next one.
package duskline

import (
	"bufio"
	"io"
	"strconv"
)

const (
	esc = "\x1b"
	csi = esc + "["
	osc = esc + "]"
	st  = esc + "\\"

	sgrReset     = csi + "0m"
	syncBegin    = csi + "?2026h"
	syncEnd      = csi + "?2026l"
	hyperlinkEnd = osc + "8;;" + st
	cursorHide   = csi + "?25l"
	cursorShow   = csi + "?25h"
)

// MoveCursor returns the CUP sequence (1-based) to place the cursor at
// column x, row y (both 0-based inputs).
func MoveCursor(x, y int) string {
	return csi + strconv.Itoa(y+1) + ";" + strconv.Itoa(x+1) + "H"
}

// HideCursor returns the DECTCEM sequence to hide the cursor.
func HideCursor() string { return cursorHide }

// ShowCursor returns the DECTCEM sequence to show the cursor.
func ShowCursor() string { return cursorShow }

// ClearScreen returns ED(2) followed by a cursor-home CUP.
func ClearScreen() string { return csi + "2J" + csi + "H" }

// HyperlinkStart returns the OSC 8 sequence that opens url.
func HyperlinkStart(url string) string { return osc + "8;;" + url + st }

// HyperlinkEnd returns the OSC 8 sequence that closes the open hyperlink.
func HyperlinkEnd() string { return hyperlinkEnd }

var basic16 = [16][3]int{
	{0, 0, 0}, {128, 0, 0}, {0, 128, 0}, {128, 128, 0},
	{0, 0, 128}, {128, 0, 128}, {0, 128, 128}, {192, 192, 192},
	{128, 128, 128}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
	{0, 0, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
}

// nearestBasic16 maps an RGB color to the closest of the 16 ANSI palette
// entries by squared Euclidean distance, for terminals that do not
// advertise true color. colorSGR has no 256-color path, so a terminal
// with 256-color but not true-color support also gets this mapping.
func nearestBasic16(c RGBA) int {
	best, bestDist := 0, -1
	for i, p := range basic16 {
		dr := int(c.R) - p[0]
		dg := int(c.G) - p[1]
		db := int(c.B) - p[2]
		dist := dr*dr + dg*dg + db*db
		if bestDist == -1 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

func colorSGR(c RGBA, caps Capabilities, isFg bool) string {
	if !c.IsSet() {
		return ""
	}
	base38 := "38;"
	base48 := "48;"
	if caps.TrueColor {
		code := "2;" + strconv.Itoa(int(c.R)) + ";" + strconv.Itoa(int(c.G)) + ";" + strconv.Itoa(int(c.B))
		if isFg {
			return csi + base38 + code + "m"
		}
		return csi + base48 + code + "m"
	}
	idx := nearestBasic16(c)
	var code int
	if idx < 8 {
		if isFg {
			code = 30 + idx
		} else {
			code = 40 + idx
		}
	} else {
		if isFg {
			code = 90 + (idx - 8)
		} else {
			code = 100 + (idx - 8)
		}
	}
	return csi + strconv.Itoa(code) + "m"
}

// attrSGR appends one SGR sequence per set attribute flag.
func attrSGR(attrs Attrs) string {
	out := ""
	if attrs.Has(AttrBold) {
		out += csi + "1m"
	}
	if attrs.Has(AttrDim) {
		out += csi + "2m"
	}
	if attrs.Has(AttrItalic) {
		out += csi + "3m"
	}
	if attrs.Has(AttrUnderline) {
		out += csi + "4m"
	}
	if attrs.Has(AttrBlink) {
		out += csi + "5m"
	}
	if attrs.Has(AttrReverse) {
		out += csi + "7m"
	}
	if attrs.Has(AttrHidden) {
		out += csi + "8m"
	}
	if attrs.Has(AttrStrikethrough) {
		out += csi + "9m"
	}
	return out
}

// styleSGR builds the full SGR sequence for a cell's style: attribute
// flags first, then foreground, then background.
func styleSGR(fg, bg RGBA, attrs Attrs, caps Capabilities) string {
	return attrSGR(attrs) + colorSGR(fg, caps, true) + colorSGR(bg, caps, false)
}

// PresenterStats is the per-call result returned by Present.
type PresenterStats struct {
	CellsChanged int
	RunCount     int
	BytesEmitted int
}

type presentedStyle struct {
	fg, bg RGBA
	attrs  Attrs
}

// Presenter emits the byte stream that transforms a conforming
// terminal's visible state from one frame to the next, tracking cached
// cursor position, style, and open hyperlink to avoid redundant output.
type Presenter struct {
	w    *bufio.Writer
	caps Capabilities

	cursorValid bool
	cursorX     int
	cursorY     int

	styleValid bool
	style      presentedStyle

	openLink LinkID // LinkNone means no link currently open
}

// NewPresenter creates a Presenter writing to w with the given terminal
// capabilities. Cached cursor position starts "unknown", so the first
// frame always emits a cursor move; cached style starts at the zero
// presentedStyle (a freshly attached terminal is already in default SGR
// state), so a first cell with no style overrides emits no redundant
// reset+apply pair.
func NewPresenter(w io.Writer, caps Capabilities) *Presenter {
	return &Presenter{w: bufio.NewWriter(w), caps: caps, styleValid: true}
}

// Reset clears the cached cursor/style/link state. Call it after any
// external action that could have moved the cursor or altered SGR state
// outside the Presenter's knowledge (terminal resize, mode switch).
func (p *Presenter) Reset() {
	p.cursorValid = false
	p.styleValid = false
	p.openLink = LinkNone
}

// Present writes the escape sequences needed to repaint diff against
// grid, using pool and links to resolve grapheme and hyperlink
// references. It returns the cells/runs covered and total bytes written,
// and flushes the underlying sink before returning.
func (p *Presenter) Present(grid *Grid, diff []ChangeRun, pool *Pool, links *LinkRegistry) (PresenterStats, error) {
	counter := &countingWriter{w: p.w}

	if p.caps.SyncOutput {
		counter.WriteString(syncBegin)
	}

	cellsChanged := 0
	for _, run := range diff {
		if !p.cursorValid || p.cursorX != run.X0 || p.cursorY != run.Y {
			counter.WriteString(MoveCursor(run.X0, run.Y))
			p.cursorValid = true
		}
		x := run.X0
		for x <= run.X1 {
			cell := grid.Get(x, run.Y)
			if cell.IsContinuation() {
				x++
				continue
			}
			p.presentCell(counter, cell, pool, links)
			w := cell.DisplayWidth()
			if w == 0 {
				w = 1
			}
			x += w
			p.cursorX = x
			p.cursorY = run.Y
			cellsChanged++
		}
	}

	if len(diff) > 0 {
		counter.WriteString(sgrReset)
		p.styleValid = false
		if p.openLink != LinkNone {
			counter.WriteString(hyperlinkEnd)
			p.openLink = LinkNone
		}
	}

	if p.caps.SyncOutput {
		counter.WriteString(syncEnd)
	}

	if err := p.w.Flush(); err != nil {
		return PresenterStats{}, err
	}

	return PresenterStats{
		CellsChanged: cellsChanged,
		RunCount:     len(diff),
		BytesEmitted: counter.n,
	}, nil
}

func (p *Presenter) presentCell(out *countingWriter, cell Cell, pool *Pool, links *LinkRegistry) {
	newStyle := presentedStyle{fg: cell.Fg, bg: cell.Bg, attrs: cell.Attrs}
	if !p.styleValid || p.style != newStyle {
		if p.openLink != LinkNone {
			out.WriteString(hyperlinkEnd)
			p.openLink = LinkNone
		}
		out.WriteString(sgrReset)
		out.WriteString(styleSGR(newStyle.fg, newStyle.bg, newStyle.attrs, p.caps))
		p.style = newStyle
		p.styleValid = true
	}

	if cell.Link != p.openLink {
		if p.openLink != LinkNone {
			out.WriteString(hyperlinkEnd)
			p.openLink = LinkNone
		}
		if cell.Link != LinkNone && p.caps.OSC8Hyperlinks {
			if url, ok := links.Resolve(cell.Link); ok {
				out.WriteString(HyperlinkStart(url))
				p.openLink = cell.Link
			}
		}
	}

	p.writeContent(out, cell, pool)
}

func (p *Presenter) writeContent(out *countingWriter, cell Cell, pool *Pool) {
	switch cell.Kind() {
	case ContentEmpty:
		out.WriteString(" ")
	case ContentCodepoint:
		ch, _ := cell.Rune()
		out.WriteRune(ch)
	case ContentGrapheme:
		id, _ := cell.Grapheme()
		if text, ok := pool.Get(id); ok {
			out.WriteString(text)
			return
		}
		// unresolved_grapheme: emit replacement characters whose total
		// display width equals the cell's advertised width, preserving
		// cursor alignment for every subsequent cell in the run.
		w := cell.DisplayWidth()
		if w <= 0 {
			w = 1
		}
		for i := 0; i < w; i++ {
			out.WriteRune('�')
		}
	}
}

// countingWriter wraps a *bufio.Writer and counts bytes written, so
// Present can report bytes_emitted without a second pass.
type countingWriter struct {
	w *bufio.Writer
	n int
}

func (c *countingWriter) WriteString(s string) {
	n, _ := c.w.WriteString(s)
	c.n += n
}

func (c *countingWriter) WriteRune(r rune) {
	n, _ := c.w.WriteRune(r)
	c.n += n
}
