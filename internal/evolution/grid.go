package evolution

// Edge joins two horizontally or vertically neighbouring locations.
type Edge struct {
	A string
	B string
}

// Locations lists the distinct non-empty grid cells in reading order.
func Locations(grid [][]string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, row := range grid {
		for _, cell := range row {
			if cell == "" {
				continue
			}
			if _, ok := seen[cell]; ok {
				continue
			}
			seen[cell] = struct{}{}
			out = append(out, cell)
		}
	}
	return out
}

// Adjacencies lists, in reading order, each non-empty cell paired with its
// right neighbour and then its lower neighbour when those are non-empty.
// Rows may be ragged; a cell with no counterpart below has no lower edge.
func Adjacencies(grid [][]string) []Edge {
	var out []Edge
	add := func(a, b string) {
		if b != "" && a != b {
			out = append(out, Edge{A: a, B: b})
		}
	}
	for r, row := range grid {
		for c, cell := range row {
			if cell == "" {
				continue
			}
			if c+1 < len(row) {
				add(cell, row[c+1])
			}
			if r+1 < len(grid) && c < len(grid[r+1]) {
				add(cell, grid[r+1][c])
			}
		}
	}
	return out
}
