package render

import "testing"

func TestLayoutGrid(t *testing.T) {
	tests := []struct {
		n        int
		wantCols int
		wantRows int
	}{
		{1, 1, 1},
		{2, 2, 1},
		{3, 2, 2},
		{4, 2, 2},
		{5, 3, 2},
		{6, 3, 2},
		{7, 3, 3},
		{9, 3, 3},
		{10, 4, 3},
		{16, 4, 4},
		{0, 1, 1},
	}

	for _, tt := range tests {
		g := LayoutGrid(tt.n)
		if g.Cols != tt.wantCols || g.Rows != tt.wantRows {
			t.Errorf("LayoutGrid(%d) = %dx%d, want %dx%d", tt.n, g.Cols, g.Rows, tt.wantCols, tt.wantRows)
		}
	}
}

func TestLayoutGridInvariants(t *testing.T) {
	for n := 1; n <= 64; n++ {
		g := LayoutGrid(n)
		if g.Cols*g.Rows < n {
			t.Errorf("n=%d: %d cols × %d rows < n", n, g.Cols, g.Rows)
		}
		if g.Cols < g.Rows {
			t.Errorf("n=%d: cols %d < rows %d, layout must prefer wide", n, g.Cols, g.Rows)
		}
		if g.Cols-g.Rows > 1 {
			t.Errorf("n=%d: cols %d exceeds rows %d by more than one", n, g.Cols, g.Rows)
		}
	}
}

func TestCellPlacement(t *testing.T) {
	// 5 streams: 3x2 grid on a 1280x720 surface. Cell 426x360 with
	// 2px horizontal margin from integer division.
	g := LayoutGrid(5)

	// Slot 0: top-left. Row 0 is the top, viewport origin bottom-left.
	vp := g.Cell(0, 1280, 720)
	want := Viewport{X: 0, Y: 360, Width: 426, Height: 360}
	if vp != want {
		t.Errorf("Cell(0) = %+v, want %+v", vp, want)
	}

	// Slot 4: row 1, column 1.
	vp = g.Cell(4, 1280, 720)
	want = Viewport{X: 426, Y: 0, Width: 426, Height: 360}
	if vp != want {
		t.Errorf("Cell(4) = %+v, want %+v", vp, want)
	}
}

func TestCellStableAcrossCalls(t *testing.T) {
	g := LayoutGrid(4)
	first := g.Cell(3, 800, 600)
	for i := 0; i < 10; i++ {
		if got := g.Cell(3, 800, 600); got != first {
			t.Fatalf("Cell(3) changed between calls: %+v vs %+v", got, first)
		}
	}
}
