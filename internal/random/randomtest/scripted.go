// Package randomtest provides a scripted random.Source for tests.
package randomtest

import "github.com/yuuri3/TokiPonaLanguages/internal/random"

var _ random.Source = (*Scripted)(nil)

// Scripted replays queued draws in order. Exhausted queues fall back to the
// lowest value of the requested range (false for Chance). Shuffle keeps the
// original order unless Perms holds a permutation for the call.
type Scripted struct {
	Ints   []int
	Floats []float64
	Bools  []bool
	Perms  [][]int

	// Calls counts every draw taken, including fallbacks.
	Calls int
}

func (s *Scripted) Int(min, max int) int {
	s.Calls++
	if max <= min {
		return min
	}
	if len(s.Ints) == 0 {
		return min
	}
	v := s.Ints[0]
	s.Ints = s.Ints[1:]
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func (s *Scripted) Float(min, max float64) float64 {
	s.Calls++
	if len(s.Floats) == 0 {
		return min
	}
	v := s.Floats[0]
	s.Floats = s.Floats[1:]
	return v
}

func (s *Scripted) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	s.Calls++
	if len(s.Bools) == 0 {
		return false
	}
	v := s.Bools[0]
	s.Bools = s.Bools[1:]
	return v
}

// Shuffle applies the next queued permutation, where perm[i] names the
// original index that ends up at position i.
func (s *Scripted) Shuffle(n int, swap func(i, j int)) {
	s.Calls++
	if len(s.Perms) == 0 {
		return
	}
	perm := s.Perms[0]
	s.Perms = s.Perms[1:]
	if len(perm) != n {
		return
	}
	// pos[k] tracks where original element k currently sits.
	pos := make([]int, n)
	at := make([]int, n)
	for i := range pos {
		pos[i] = i
		at[i] = i
	}
	for i, want := range perm {
		j := pos[want]
		if i == j {
			continue
		}
		swap(i, j)
		a, b := at[i], at[j]
		at[i], at[j] = b, a
		pos[a], pos[b] = j, i
	}
}
