// Package duskline: the Grid Buffer — a width x height array of cells
// with safe, Unicode-aware set/get.
package duskline

import "strings"

// Grid is a fixed-size width x height array of Cells, row-major.
type Grid struct {
	width, height int
	cells         []Cell
}

// NewGrid creates a width x height grid filled with empty cells.
func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	cells := make([]Cell, width*height)
	return &Grid{width: width, height: height, cells: cells}
}

func (g *Grid) index(x, y int) int { return y*g.width + x }

func (g *Grid) inBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// Width returns the grid width.
func (g *Grid) Width() int { return g.width }

// Height returns the grid height.
func (g *Grid) Height() int { return g.height }

// Get returns the cell at (x, y), or EmptyCell if out of range.
func (g *Grid) Get(x, y int) Cell {
	if !g.inBounds(x, y) {
		return EmptyCell
	}
	return g.cells[g.index(x, y)]
}

// SetRaw writes cell directly with no wide/continuation repair. The
// caller is responsible for maintaining the pairing invariant.
func (g *Grid) SetRaw(x, y int, c Cell) {
	if !g.inBounds(x, y) {
		return
	}
	g.cells[g.index(x, y)] = c
}

// Set writes cell at (x, y), preserving the wide-glyph/continuation
// invariant.
//
// If cell.DisplayWidth() == 2, it writes cell at (x,y) and a
// ContinuationCell at (x+1,y). If x is the last column, the wide glyph
// would not fit, so an empty cell is written instead.
//
// If either slot being overwritten was the anchor or continuation half of
// an existing wide glyph, its other half is reset to empty so no orphan
// continuation cell is left behind.
func (g *Grid) Set(x, y int, c Cell) {
	if !g.inBounds(x, y) {
		return
	}
	g.clearWideNeighbor(x, y)

	if c.DisplayWidth() == 2 {
		if x == g.width-1 {
			g.cells[g.index(x, y)] = EmptyCell
			return
		}
		g.clearWideNeighbor(x+1, y)
		g.cells[g.index(x, y)] = c
		g.cells[g.index(x+1, y)] = ContinuationCell
		return
	}

	g.cells[g.index(x, y)] = c
}

// clearWideNeighbor ensures overwriting the cell at (x,y) does not leave
// an orphan continuation or an orphan wide anchor behind.
func (g *Grid) clearWideNeighbor(x, y int) {
	cur := g.cells[g.index(x, y)]
	if cur.IsContinuation() {
		// (x,y) is the tail of a wide glyph anchored at x-1; clear the anchor.
		if x-1 >= 0 {
			g.cells[g.index(x-1, y)] = EmptyCell
		}
		return
	}
	if cur.DisplayWidth() == 2 && x+1 < g.width {
		// (x,y) is itself a wide anchor; clear its tail.
		g.cells[g.index(x+1, y)] = EmptyCell
	}
}

// Clear overwrites every cell with EmptyCell.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = EmptyCell
	}
}

// Resize changes the grid's dimensions, discarding all content.
//
// Open question from the spec: whether resize should preserve the
// top-left intersection or clear. This implementation clears — a resize
// almost always follows a terminal SIGWINCH, after which the upstream
// renderer repaints unconditionally on the next frame, so preserving
// stale content would only be read back for a single frame at best and
// risks resurrecting an orphaned continuation cell at the new boundary.
func (g *Grid) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	g.width = width
	g.height = height
	g.cells = make([]Cell, width*height)
}

// DebugString renders the grid's textual content only (no style), one
// line per row, for use in tests and debugging.
func (g *Grid) DebugString() string {
	var sb strings.Builder
	for y := 0; y < g.height; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < g.width; x++ {
			c := g.Get(x, y)
			switch {
			case c.IsContinuation():
				// skip: already accounted for by the preceding wide glyph
			case c.IsEmpty():
				sb.WriteByte(' ')
			default:
				if ch, ok := c.Rune(); ok {
					sb.WriteRune(ch)
				} else {
					sb.WriteByte('?')
				}
			}
		}
	}
	return sb.String()
}
