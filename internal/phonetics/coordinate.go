package phonetics

import (
	"strconv"
	"strings"
)

// Coordinate addresses one cell of a phoneme table.
type Coordinate struct {
	Manner int `json:"manner"`
	Place  int `json:"place"`
}

func (c Coordinate) String() string {
	return "(" + strconv.Itoa(c.Manner) + "," + strconv.Itoa(c.Place) + ")"
}

// Form is an ordered sound sequence.
type Form []Coordinate

// Key returns a string usable as a map key; equal forms have equal keys.
func (f Form) Key() string {
	var b strings.Builder
	for i, c := range f {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(strconv.Itoa(c.Manner))
		b.WriteByte('.')
		b.WriteString(strconv.Itoa(c.Place))
	}
	return b.String()
}

// Equal reports whether both forms hold the same coordinates in order.
func (f Form) Equal(other Form) bool {
	if len(f) != len(other) {
		return false
	}
	for i := range f {
		if f[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy. A nil form clones to nil.
func (f Form) Clone() Form {
	if f == nil {
		return nil
	}
	out := make(Form, len(f))
	copy(out, f)
	return out
}

// Concat returns a new form holding f followed by other.
func (f Form) Concat(other Form) Form {
	out := make(Form, 0, len(f)+len(other))
	out = append(out, f...)
	return append(out, other...)
}
