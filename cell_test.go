package duskline

import "testing"

func TestNewCodepointCellWidth(t *testing.T) {
	tests := []struct {
		ch    rune
		width int
	}{
		{'a', 1},
		{'0', 1},
		{'あ', 2}, // hiragana A, East Asian wide
		{'́', 0}, // combining acute accent
	}
	for _, tt := range tests {
		c := NewCodepointCell(tt.ch)
		if c.DisplayWidth() != tt.width {
			t.Errorf("NewCodepointCell(%q).DisplayWidth() = %d, want %d", tt.ch, c.DisplayWidth(), tt.width)
		}
	}
}

func TestCellEqual(t *testing.T) {
	a := NewCodepointCell('x').WithFg(RGB(1, 2, 3))
	b := NewCodepointCell('x').WithFg(RGB(1, 2, 3))
	if !a.Equal(b) {
		t.Errorf("expected equal cells")
	}
	c := NewCodepointCell('x').WithFg(RGB(1, 2, 4))
	if a.Equal(c) {
		t.Errorf("expected unequal cells (different fg)")
	}
}

func TestContinuationCellsAlwaysEqual(t *testing.T) {
	if !ContinuationCell.Equal(ContinuationCell) {
		t.Errorf("two continuation cells must always be equal")
	}
}

func TestEmptyCellDisplayWidth(t *testing.T) {
	if EmptyCell.DisplayWidth() != 1 {
		t.Errorf("EmptyCell.DisplayWidth() = %d, want 1", EmptyCell.DisplayWidth())
	}
	if ContinuationCell.DisplayWidth() != 0 {
		t.Errorf("ContinuationCell.DisplayWidth() = %d, want 0", ContinuationCell.DisplayWidth())
	}
}

func TestGraphemeCellWidthClamped(t *testing.T) {
	if w := NewGraphemeCell(1, 5).DisplayWidth(); w != 2 {
		t.Errorf("width clamp: got %d, want 2", w)
	}
	if w := NewGraphemeCell(1, -5).DisplayWidth(); w != 0 {
		t.Errorf("width clamp: got %d, want 0", w)
	}
}

func TestRGBAIsSet(t *testing.T) {
	if Transparent.IsSet() {
		t.Errorf("Transparent.IsSet() = true, want false")
	}
	if !RGB(0, 0, 0).IsSet() {
		t.Errorf("RGB(0,0,0).IsSet() = false, want true (black is opaque, not unset)")
	}
}
