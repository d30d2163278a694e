package duskline

import "testing"

func TestGridSetGetRoundTrip(t *testing.T) {
	g := NewGrid(10, 5)
	c := NewCodepointCell('Z').WithFg(RGB(9, 9, 9))
	g.Set(3, 2, c)
	got := g.Get(3, 2)
	if !got.Equal(c) {
		t.Errorf("Get(3,2) = %+v, want %+v", got, c)
	}
}

func TestGridOutOfBoundsGetReturnsEmpty(t *testing.T) {
	g := NewGrid(4, 4)
	if !g.Get(-1, 0).IsEmpty() {
		t.Errorf("Get(-1,0) should return EmptyCell")
	}
	if !g.Get(4, 0).IsEmpty() {
		t.Errorf("Get(4,0) should return EmptyCell (width is 4, valid cols 0-3)")
	}
}

func TestGridSetOutOfBoundsIsNoop(t *testing.T) {
	g := NewGrid(4, 4)
	g.Set(-1, 0, NewCodepointCell('x')) // must not panic
	g.Set(4, 4, NewCodepointCell('x'))
}

func TestGridSetWideGlyphWritesContinuation(t *testing.T) {
	g := NewGrid(10, 1)
	g.Set(2, 0, NewCodepointCell('あ'))
	if !g.Get(3, 0).IsContinuation() {
		t.Errorf("expected continuation cell at (3,0) after wide glyph at (2,0)")
	}
}

func TestGridSetWideGlyphAtLastColumnBecomesEmpty(t *testing.T) {
	g := NewGrid(3, 1)
	g.Set(2, 0, NewCodepointCell('あ'))
	if !g.Get(2, 0).IsEmpty() {
		t.Errorf("wide glyph that doesn't fit should be written as empty")
	}
}

func TestGridSetOverwritingWideAnchorClearsTail(t *testing.T) {
	g := NewGrid(10, 1)
	g.Set(2, 0, NewCodepointCell('あ'))
	g.Set(2, 0, NewCodepointCell('x'))
	if !g.Get(3, 0).IsEmpty() {
		t.Errorf("expected orphaned continuation cell at (3,0) to be cleared")
	}
}

func TestGridSetOverwritingContinuationClearsAnchor(t *testing.T) {
	g := NewGrid(10, 1)
	g.Set(2, 0, NewCodepointCell('あ'))
	g.Set(3, 0, NewCodepointCell('y'))
	if !g.Get(2, 0).IsEmpty() {
		t.Errorf("expected orphaned wide anchor at (2,0) to be cleared")
	}
	if got, _ := g.Get(3, 0).Rune(); got != 'y' {
		t.Errorf("Get(3,0) = %q, want 'y'", got)
	}
}

func TestGridClear(t *testing.T) {
	g := NewGrid(4, 4)
	g.Set(1, 1, NewCodepointCell('q'))
	g.Clear()
	if !g.Get(1, 1).IsEmpty() {
		t.Errorf("expected all cells empty after Clear")
	}
}

func TestGridResizeClears(t *testing.T) {
	g := NewGrid(4, 4)
	g.Set(1, 1, NewCodepointCell('q'))
	g.Resize(8, 8)
	if g.Width() != 8 || g.Height() != 8 {
		t.Errorf("Resize did not update dimensions")
	}
	if !g.Get(1, 1).IsEmpty() {
		t.Errorf("expected resize to clear content")
	}
}

func TestGridDebugString(t *testing.T) {
	g := NewGrid(3, 2)
	g.Set(0, 0, NewCodepointCell('a'))
	g.Set(1, 0, NewCodepointCell('b'))
	want := "ab \n   "
	if got := g.DebugString(); got != want {
		t.Errorf("DebugString() = %q, want %q", got, want)
	}
}
