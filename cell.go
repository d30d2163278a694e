// Package duskline implements a packed terminal cell-grid pipeline: the
// cell/grid model, the diff engine, the escape-sequence presenter, the
// flow-control policy, and the render-trace recorder that sit beneath a
// higher-level terminal UI.
package duskline

import "github.com/mattn/go-runewidth"

// ContentKind distinguishes the four shapes a Cell's content can take.
type ContentKind uint8

const (
	// ContentEmpty is an unpainted cell; it is emitted as a space.
	ContentEmpty ContentKind = iota
	// ContentContinuation is the second column of a width-2 cell. It
	// carries no content of its own and is never emitted directly.
	ContentContinuation
	// ContentCodepoint holds a single rune.
	ContentCodepoint
	// ContentGrapheme holds a GraphemeID into a Pool.
	ContentGrapheme
)

// GraphemeID identifies an interned multi-codepoint grapheme cluster.
type GraphemeID uint32

// LinkID identifies an interned hyperlink URL. LinkNone means "no link".
type LinkID uint32

// LinkNone is the reserved id meaning a cell carries no hyperlink.
const LinkNone LinkID = 0

// RGBA is a 32-bit color. Alpha 0 means "default/transparent": the
// Presenter leaves the corresponding SGR component at the terminal's
// default rather than emitting an explicit color.
type RGBA struct {
	R, G, B, A uint8
}

// Transparent is the default/unset color.
var Transparent = RGBA{}

// IsSet reports whether the color should be emitted (alpha != 0).
func (c RGBA) IsSet() bool { return c.A != 0 }

// RGB constructs an opaque 24-bit color.
func RGB(r, g, b uint8) RGBA { return RGBA{R: r, G: g, B: b, A: 0xff} }

// Attrs is a bitset of SGR style flags.
type Attrs uint16

const (
	AttrBold Attrs = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrReverse
	AttrHidden
	AttrStrikethrough
)

// Has reports whether all bits in mask are set.
func (a Attrs) Has(mask Attrs) bool { return a&mask == mask }

// Cell is a single fixed-size terminal grid slot: content, colors,
// attribute flags, and an optional hyperlink id.
type Cell struct {
	kind     ContentKind
	ch       rune
	grapheme GraphemeID
	width    uint8
	Fg       RGBA
	Bg       RGBA
	Attrs    Attrs
	Link     LinkID
}

// EmptyCell is the zero-value cell: empty content, default style, no link.
var EmptyCell = Cell{kind: ContentEmpty}

// ContinuationCell marks the second column of a wide glyph.
var ContinuationCell = Cell{kind: ContentContinuation}

// NewCodepointCell builds a cell from a single rune. Display width is
// computed from Unicode width tables: 0 for zero-width marks, 2 for East
// Asian wide codepoints, 1 otherwise. Unknown codepoints default to 1.
func NewCodepointCell(ch rune) Cell {
	return Cell{kind: ContentCodepoint, ch: ch, width: codepointWidth(ch)}
}

// NewGraphemeCell builds a cell referencing a pool-interned grapheme
// cluster. The caller supplies the display width explicitly: the core
// never guesses the on-screen width of a multi-codepoint cluster from
// Unicode tables, since terminals disagree on them; the pool owner (the
// upstream renderer) sets it.
func NewGraphemeCell(id GraphemeID, width int) Cell {
	if width < 0 {
		width = 0
	}
	if width > 2 {
		width = 2
	}
	return Cell{kind: ContentGrapheme, grapheme: id, width: uint8(width)}
}

func codepointWidth(ch rune) uint8 {
	w := runewidth.RuneWidth(ch)
	switch {
	case w <= 0:
		return 0
	case w >= 2:
		return 2
	default:
		return 1
	}
}

// WithFg returns a copy of the cell with the foreground color set.
func (c Cell) WithFg(fg RGBA) Cell { c.Fg = fg; return c }

// WithBg returns a copy of the cell with the background color set.
func (c Cell) WithBg(bg RGBA) Cell { c.Bg = bg; return c }

// WithAttrs returns a copy of the cell with the attribute flags set.
func (c Cell) WithAttrs(attrs Attrs) Cell { c.Attrs = attrs; return c }

// WithLink returns a copy of the cell with the hyperlink id set.
func (c Cell) WithLink(id LinkID) Cell { c.Link = id; return c }

// IsEmpty reports whether the cell carries no content.
func (c Cell) IsEmpty() bool { return c.kind == ContentEmpty }

// IsContinuation reports whether the cell is the second column of a wide
// glyph.
func (c Cell) IsContinuation() bool { return c.kind == ContentContinuation }

// Kind returns the cell's content kind.
func (c Cell) Kind() ContentKind { return c.kind }

// Rune returns the codepoint content and true, or (0, false) if the cell
// is not ContentCodepoint.
func (c Cell) Rune() (rune, bool) {
	if c.kind != ContentCodepoint {
		return 0, false
	}
	return c.ch, true
}

// Grapheme returns the grapheme id and true, or (0, false) if the cell is
// not ContentGrapheme.
func (c Cell) Grapheme() (GraphemeID, bool) {
	if c.kind != ContentGrapheme {
		return 0, false
	}
	return c.grapheme, true
}

// DisplayWidth reports the number of columns this cell occupies: always 1
// for empty (it renders as a space) and 0 for a continuation cell
// regardless of the stored width field.
func (c Cell) DisplayWidth() int {
	switch c.kind {
	case ContentEmpty:
		return 1
	case ContentContinuation:
		return 0
	default:
		return int(c.width)
	}
}

// Equal reports whether two cells are byte-equal: same content, colors,
// attributes, and link id. Two continuation cells are always equal to
// each other regardless of any other field.
func (a Cell) Equal(b Cell) bool {
	if a.kind != b.kind {
		return false
	}
	if a.kind == ContentContinuation {
		return true
	}
	if a.kind == ContentCodepoint && a.ch != b.ch {
		return false
	}
	if a.kind == ContentGrapheme && a.grapheme != b.grapheme {
		return false
	}
	if a.width != b.width {
		return false
	}
	return a.Fg == b.Fg && a.Bg == b.Bg && a.Attrs == b.Attrs && a.Link == b.Link
}
