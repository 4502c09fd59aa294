package lexicon

import (
	"math"
	"sort"
)

// Tolerance bounds the norm below which a meaning is treated as zero.
const Tolerance = 1e-6

// Meaning is a sparse semantic vector keyed by feature label.
type Meaning map[string]float64

// Keys returns the labels in sorted order.
func (m Meaning) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy.
func (m Meaning) Clone() Meaning {
	out := make(Meaning, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Add returns m + other.
func (m Meaning) Add(other Meaning) Meaning {
	out := m.Clone()
	for k, v := range other {
		out[k] += v
	}
	return out
}

// Scale returns m * factor.
func (m Meaning) Scale(factor float64) Meaning {
	out := make(Meaning, len(m))
	for k, v := range m {
		out[k] = v * factor
	}
	return out
}

// Dot sums the products of weights over the shared labels. Terms are added in
// label order so a.Dot(b) and b.Dot(a) are bit-identical.
func (m Meaning) Dot(other Meaning) float64 {
	small, large := m, other
	if len(large) < len(small) {
		small, large = large, small
	}
	var sum float64
	for _, k := range small.Keys() {
		if _, ok := large[k]; ok {
			sum += m[k] * other[k]
		}
	}
	return sum
}

// Normalize returns m scaled to unit length. A vector whose squared norm is at
// or below Tolerance² is returned unchanged.
func (m Meaning) Normalize() Meaning {
	squared := m.Dot(m)
	if squared <= Tolerance*Tolerance {
		return m.Clone()
	}
	return m.Scale(1 / math.Sqrt(squared))
}

// Equal reports whether every label differs by at most tol, treating missing
// labels as zero.
func (m Meaning) Equal(other Meaning, tol float64) bool {
	for k, v := range m {
		if math.Abs(v-other[k]) > tol {
			return false
		}
	}
	for k, v := range other {
		if _, ok := m[k]; !ok && math.Abs(v) > tol {
			return false
		}
	}
	return true
}
