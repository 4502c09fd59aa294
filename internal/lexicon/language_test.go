package lexicon

import (
	"errors"
	"testing"

	"github.com/yuuri3/TokiPonaLanguages/internal/phonetics"
)

func testCodec() *phonetics.Codec {
	return phonetics.NewCodec(phonetics.Table{
		{"p", "t", "k"},
		{"m", "n", ""},
		{"", "s", ""},
		{"w", "l", "j"},
		{"i", "", "u"},
		{"e", "", "o"},
		{"", "a", ""},
	})
}

func TestNewProto(t *testing.T) {
	codec := testCodec()
	proto := NewProto(codec, []string{"toki", "", "pona", "jan"})
	if proto.Len() != 3 {
		t.Fatalf("len = %d, want 3", proto.Len())
	}
	for i, form := range []string{"toki", "pona", "jan"} {
		w := proto.At(i)
		if w.ID != i {
			t.Fatalf("word %d id = %d", i, w.ID)
		}
		if codec.Decode(w.Sounds) != form {
			t.Fatalf("word %d sounds = %q, want %q", i, codec.Decode(w.Sounds), form)
		}
		if w.Meaning[form] != 1 || len(w.Meaning) != 1 {
			t.Fatalf("word %d meaning = %v", i, w.Meaning)
		}
		if !w.NearestProto.Equal(w.Sounds) {
			t.Fatalf("word %d nearest proto = %v, want own sounds", i, w.NearestProto)
		}
	}
	if proto.NextID() != 3 {
		t.Fatalf("next id = %d, want 3", proto.NextID())
	}
}

func TestAddRejectsDuplicateAndAdvancesNextID(t *testing.T) {
	lang := New()
	if err := lang.Add(Word{ID: 5}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := lang.Add(Word{ID: 5}); !errors.Is(err, ErrDuplicateWord) {
		t.Fatalf("err = %v, want %v", err, ErrDuplicateWord)
	}
	if lang.NextID() != 6 {
		t.Fatalf("next id = %d, want 6", lang.NextID())
	}
	if err := lang.Add(Word{ID: 2}); err != nil {
		t.Fatalf("add lower id: %v", err)
	}
	if lang.NextID() != 6 {
		t.Fatalf("next id = %d, want 6", lang.NextID())
	}
}

func TestZeroLanguageAcceptsWords(t *testing.T) {
	var lang Language
	if err := lang.Add(Word{ID: 0}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, ok := lang.Word(0); !ok {
		t.Fatal("word 0 missing")
	}
}

func TestRemoveKeepsOrderAndNeverReusesIDs(t *testing.T) {
	lang := New()
	for id := 0; id < 4; id++ {
		_ = lang.Add(Word{ID: id})
	}
	if !lang.Remove(3) {
		t.Fatal("expected removal")
	}
	if lang.Remove(3) {
		t.Fatal("second removal should report false")
	}
	if !lang.Remove(1) {
		t.Fatal("expected removal")
	}
	ids := []int{}
	for _, w := range lang.Words() {
		ids = append(ids, w.ID)
	}
	if len(ids) != 2 || ids[0] != 0 || ids[1] != 2 {
		t.Fatalf("ids = %v, want [0 2]", ids)
	}
	if w, ok := lang.Word(2); !ok || w.ID != 2 {
		t.Fatalf("Word(2) = %v, %v", w, ok)
	}
	if lang.NextID() != 4 {
		t.Fatalf("next id = %d, want 4", lang.NextID())
	}
}

func TestSetSoundsAndMeaningUnknownWord(t *testing.T) {
	lang := New()
	if err := lang.SetSounds(1, nil); !errors.Is(err, ErrUnknownWord) {
		t.Fatalf("err = %v, want %v", err, ErrUnknownWord)
	}
	if err := lang.SetMeaning(1, Meaning{}, New()); !errors.Is(err, ErrUnknownWord) {
		t.Fatalf("err = %v, want %v", err, ErrUnknownWord)
	}
}

func TestSetMeaningRefreshesNearestProto(t *testing.T) {
	codec := testCodec()
	proto := NewProto(codec, []string{"toki", "pona"})
	lang := proto.Clone()

	if err := lang.SetMeaning(0, Meaning{"toki": 0.1, "pona": 0.9}, proto); err != nil {
		t.Fatalf("set meaning: %v", err)
	}
	w, _ := lang.Word(0)
	if codec.Decode(w.NearestProto) != "pona" {
		t.Fatalf("nearest proto = %q, want pona", codec.Decode(w.NearestProto))
	}
	if lang.DistinctNearestProto() != 1 {
		t.Fatalf("distinct nearest = %d, want 1", lang.DistinctNearestProto())
	}
}

func TestNearestFirstMaximumWins(t *testing.T) {
	codec := testCodec()
	proto := NewProto(codec, []string{"toki", "pona"})
	got := proto.NearestForm(Meaning{"toki": 0.5, "pona": 0.5})
	if codec.Decode(got) != "toki" {
		t.Fatalf("nearest = %q, want toki", codec.Decode(got))
	}
	if got := proto.NearestForm(Meaning{"other": 1}); codec.Decode(got) != "toki" {
		t.Fatalf("orthogonal nearest = %q, want toki", codec.Decode(got))
	}
	if New().NearestForm(Meaning{"x": 1}) != nil {
		t.Fatal("empty language should have no nearest form")
	}
}

func TestCloneIsDeep(t *testing.T) {
	codec := testCodec()
	proto := NewProto(codec, []string{"toki"})
	proto.Strength = 0.5
	clone := proto.Clone()
	if !clone.Equal(proto) {
		t.Fatal("clone should equal source")
	}
	_ = clone.SetSounds(0, codec.Encode("moku"))
	clone.At(0).Meaning["toki"] = 3
	if w, _ := proto.Word(0); codec.Decode(w.Sounds) != "toki" || w.Meaning["toki"] != 1 {
		t.Fatalf("source changed through clone: %v", w)
	}
	if clone.Equal(proto) {
		t.Fatal("modified clone should differ")
	}
}

func TestHasForm(t *testing.T) {
	codec := testCodec()
	proto := NewProto(codec, []string{"toki", "pona"})
	if !proto.HasForm(codec.Encode("pona")) {
		t.Fatal("expected pona")
	}
	if proto.HasForm(codec.Encode("jan")) {
		t.Fatal("unexpected jan")
	}
}

func TestCompound(t *testing.T) {
	codec := phonetics.NewCodec(phonetics.Table{{"a", "b"}, {"c", "d"}})
	proto := NewProto(codec, []string{"ab", "cd"})
	a, _ := proto.Word(0)
	b, _ := proto.Word(1)

	w := Compound(2, a, b, proto)
	if codec.Decode(w.Sounds) != "abcd" {
		t.Fatalf("sounds = %q, want abcd", codec.Decode(w.Sounds))
	}
	want := a.Meaning.Add(b.Meaning).Normalize()
	if !w.Meaning.Equal(want, Tolerance) {
		t.Fatalf("meaning = %v, want %v", w.Meaning, want)
	}
	if codec.Decode(w.NearestProto) != "ab" {
		t.Fatalf("nearest = %q, want ab", codec.Decode(w.NearestProto))
	}
	if w.ID != 2 {
		t.Fatalf("id = %d, want 2", w.ID)
	}
}
