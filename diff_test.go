package duskline

import "testing"

func TestDiffMismatchedDimensionsReturnsNil(t *testing.T) {
	a := NewGrid(4, 4)
	b := NewGrid(5, 4)
	if runs := Diff(a, b, DiffConfig{}); runs != nil {
		t.Errorf("Diff with mismatched dimensions = %v, want nil", runs)
	}
}

func TestDiffNoChanges(t *testing.T) {
	a := NewGrid(5, 3)
	b := NewGrid(5, 3)
	if runs := Diff(a, b, DiffConfig{}); len(runs) != 0 {
		t.Errorf("Diff of identical grids = %v, want empty", runs)
	}
}

func TestDiffSingleRun(t *testing.T) {
	a := NewGrid(10, 1)
	b := NewGrid(10, 1)
	b.Set(3, 0, NewCodepointCell('x'))
	b.Set(4, 0, NewCodepointCell('y'))
	b.Set(5, 0, NewCodepointCell('z'))

	runs := Diff(a, b, DiffConfig{})
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0] != (ChangeRun{Y: 0, X0: 3, X1: 5}) {
		t.Errorf("run = %+v, want {0 3 5}", runs[0])
	}
}

func TestDiffTwoSeparateRuns(t *testing.T) {
	a := NewGrid(20, 1)
	b := NewGrid(20, 1)
	b.Set(1, 0, NewCodepointCell('a'))
	b.Set(15, 0, NewCodepointCell('b'))

	runs := Diff(a, b, DiffConfig{})
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
}

func TestDiffDirtyRowsMarksWholeRow(t *testing.T) {
	a := NewGrid(10, 2)
	b := NewGrid(10, 2)
	b.Set(0, 1, NewCodepointCell('x'))

	runs := Diff(a, b, DiffConfig{DirtyRows: true})
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0] != (ChangeRun{Y: 1, X0: 0, X1: 9}) {
		t.Errorf("run = %+v, want whole-row run", runs[0])
	}
}

func TestDiffMergeGapMergesCloseRuns(t *testing.T) {
	a := NewGrid(20, 1)
	b := NewGrid(20, 1)
	b.Set(2, 0, NewCodepointCell('a'))
	b.Set(5, 0, NewCodepointCell('b')) // gap of 2 unchanged cells (3,4), fewer than MergeGap 3

	runs := Diff(a, b, DiffConfig{MergeGap: 3})
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1 (merged)", len(runs))
	}
	if runs[0] != (ChangeRun{Y: 0, X0: 2, X1: 5}) {
		t.Errorf("merged run = %+v, want {0 2 5}", runs[0])
	}
}

func TestDiffGuardBandExpandsAndClamps(t *testing.T) {
	a := NewGrid(10, 1)
	b := NewGrid(10, 1)
	b.Set(0, 0, NewCodepointCell('a'))

	runs := Diff(a, b, DiffConfig{GuardBand: 2})
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].X0 != 0 {
		t.Errorf("guard band should clamp X0 to 0, got %d", runs[0].X0)
	}
	if runs[0].X1 != 2 {
		t.Errorf("guard band X1 = %d, want 2", runs[0].X1)
	}
}

func TestCellCount(t *testing.T) {
	runs := []ChangeRun{{Y: 0, X0: 0, X1: 2}, {Y: 1, X0: 5, X1: 5}}
	if n := CellCount(runs); n != 4 {
		t.Errorf("CellCount = %d, want 4", n)
	}
}

func TestSortRuns(t *testing.T) {
	runs := []ChangeRun{{Y: 1, X0: 0, X1: 1}, {Y: 0, X0: 5, X1: 5}, {Y: 0, X0: 1, X1: 1}}
	SortRuns(runs)
	want := []ChangeRun{{Y: 0, X0: 1, X1: 1}, {Y: 0, X0: 5, X1: 5}, {Y: 1, X0: 0, X1: 1}}
	for i := range want {
		if runs[i] != want[i] {
			t.Errorf("SortRuns()[%d] = %+v, want %+v", i, runs[i], want[i])
		}
	}
}
