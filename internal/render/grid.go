package render

import "math"

// Grid is a fixed rows×cols layout for n cells, preferring wider than
// tall: cols = ceil(sqrt(n)), rows = ceil(n/cols). Computed once at
// compositor construction and never recomputed.
type Grid struct {
	Cols int
	Rows int
}

// LayoutGrid computes the grid for n slots. n < 1 yields a 1×1 grid.
func LayoutGrid(n int) Grid {
	if n < 1 {
		return Grid{Cols: 1, Rows: 1}
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols
	return Grid{Cols: cols, Rows: rows}
}

// Cell returns the viewport for slot i on a surface of the given size.
// Cells use integer division; remainder pixels stay as unused margin.
// Row 0 maps to the top of the surface; the viewport origin is
// bottom-left, so the Y coordinate flips.
func (g Grid) Cell(i, surfaceW, surfaceH int) Viewport {
	cellW := surfaceW / g.Cols
	cellH := surfaceH / g.Rows
	col := i % g.Cols
	row := i / g.Cols
	return Viewport{
		X:      col * cellW,
		Y:      (g.Rows - 1 - row) * cellH,
		Width:  cellW,
		Height: cellH,
	}
}
