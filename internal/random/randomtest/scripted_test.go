package randomtest

import "testing"

func TestScriptedReplaysQueues(t *testing.T) {
	s := &Scripted{Ints: []int{2, 9}, Floats: []float64{0.25}, Bools: []bool{true}}
	if got := s.Int(0, 5); got != 2 {
		t.Fatalf("Int = %d, want 2", got)
	}
	if got := s.Int(0, 5); got != 5 {
		t.Fatalf("clamped Int = %d, want 5", got)
	}
	if got := s.Int(1, 5); got != 1 {
		t.Fatalf("exhausted Int = %d, want 1", got)
	}
	if got := s.Float(0, 1); got != 0.25 {
		t.Fatalf("Float = %v, want 0.25", got)
	}
	if !s.Chance(0.5) {
		t.Fatal("Chance = false, want true")
	}
	if s.Chance(0.5) {
		t.Fatal("exhausted Chance = true, want false")
	}
}

func TestScriptedShuffleAppliesPermutation(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	s := &Scripted{Perms: [][]int{{2, 0, 3, 1}}}
	s.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	want := []string{"c", "a", "d", "b"}
	for i := range want {
		if items[i] != want[i] {
			t.Fatalf("items = %v, want %v", items, want)
		}
	}
}
