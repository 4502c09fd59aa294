// Package phonetics maps written word forms onto phoneme table coordinates
// and back, and holds the sound-law and phonotactic helpers built on them.
package phonetics

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Codec converts between text and forms for one table.
type Codec struct {
	table  Table
	tokens map[string]Coordinate
	maxLen int
}

// NewCodec indexes every non-empty cell of table. When a token appears in
// more than one cell the first in reading order wins.
func NewCodec(table Table) *Codec {
	c := &Codec{table: table, tokens: make(map[string]Coordinate)}
	for m, row := range table {
		for p, cell := range row {
			if cell == "" {
				continue
			}
			token := norm.NFC.String(cell)
			if _, ok := c.tokens[token]; ok {
				continue
			}
			c.tokens[token] = Coordinate{Manner: m, Place: p}
			if len(token) > c.maxLen {
				c.maxLen = len(token)
			}
		}
	}
	return c
}

// Table returns the table the codec was built from.
func (c *Codec) Table() Table {
	return c.table
}

// Encode tokenises text with a greedy longest match. Characters that start
// no token are skipped.
func (c *Codec) Encode(text string) Form {
	s := norm.NFC.String(text)
	out := Form{}
	for i := 0; i < len(s); {
		size := 0
		for l := min(c.maxLen, len(s)-i); l > 0; l-- {
			if coord, ok := c.tokens[s[i:i+l]]; ok {
				out = append(out, coord)
				size = l
				break
			}
		}
		if size == 0 {
			_, size = utf8.DecodeRuneInString(s[i:])
		}
		i += size
	}
	return out
}

// Decode concatenates the tokens of f, omitting invalid coordinates.
func (c *Codec) Decode(f Form) string {
	var b strings.Builder
	for _, coord := range f {
		if token, ok := c.table.Cell(coord); ok {
			b.WriteString(token)
		}
	}
	return b.String()
}
