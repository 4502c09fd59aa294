package phonetics

import "github.com/yuuri3/TokiPonaLanguages/internal/random"

// Table is a phoneme table: rows are manners, columns are places. Rows may
// have different lengths. An empty cell is not a phoneme.
type Table [][]string

// direction is one step of a directed walk.
type direction struct {
	manner int
	place  int
}

// walkDirections are up, down, left and right.
var walkDirections = [4]direction{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Empty reports whether the table holds no phoneme at all.
func (t Table) Empty() bool {
	for _, row := range t {
		for _, cell := range row {
			if cell != "" {
				return false
			}
		}
	}
	return true
}

func (t Table) inBounds(c Coordinate) bool {
	return c.Manner >= 0 && c.Manner < len(t) && c.Place >= 0 && c.Place < len(t[c.Manner])
}

// Valid reports whether c addresses a non-empty cell.
func (t Table) Valid(c Coordinate) bool {
	return t.inBounds(c) && t[c.Manner][c.Place] != ""
}

// Cell returns the token at c and whether c is valid.
func (t Table) Cell(c Coordinate) (string, bool) {
	if !t.Valid(c) {
		return "", false
	}
	return t[c.Manner][c.Place], true
}

// Phonemes lists every valid coordinate in reading order.
func (t Table) Phonemes() []Coordinate {
	var out []Coordinate
	for m, row := range t {
		for p, cell := range row {
			if cell != "" {
				out = append(out, Coordinate{Manner: m, Place: p})
			}
		}
	}
	return out
}

// RandomPhoneme picks a valid coordinate uniformly. ok is false when the
// table holds no phoneme.
func (t Table) RandomPhoneme(src random.Source) (c Coordinate, ok bool) {
	pool := t.Phonemes()
	if len(pool) == 0 {
		return Coordinate{}, false
	}
	return pool[src.Int(0, len(pool)-1)], true
}

// Walk moves from c in a randomly ordered sequence of the four directions.
// In each direction it steps over empty cells until it lands on a phoneme or
// leaves the table; the first phoneme found is returned. When no direction
// reaches a phoneme, c itself is returned.
func (t Table) Walk(c Coordinate, src random.Source) Coordinate {
	if len(t) == 0 {
		return c
	}
	dirs := walkDirections
	src.Shuffle(len(dirs), func(i, j int) { dirs[i], dirs[j] = dirs[j], dirs[i] })

	for _, d := range dirs {
		next := Coordinate{Manner: c.Manner + d.manner, Place: c.Place + d.place}
		for t.inBounds(next) {
			if t[next.Manner][next.Place] != "" {
				return next
			}
			next.Manner += d.manner
			next.Place += d.place
		}
	}
	return c
}
