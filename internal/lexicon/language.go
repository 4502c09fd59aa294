// Package lexicon holds meaning vectors, words and per-location languages.
//
// A Language keeps its words in insertion order with an id index; iteration
// order is part of its contract because random draws pick words by position.
package lexicon

import (
	"errors"
	"fmt"
	"math"

	"github.com/yuuri3/TokiPonaLanguages/internal/phonetics"
)

var (
	// ErrDuplicateWord indicates an id already present in the language.
	ErrDuplicateWord = errors.New("duplicate word id")
	// ErrUnknownWord indicates an id absent from the language.
	ErrUnknownWord = errors.New("unknown word id")
)

// Language is the lexicon spoken at one location.
type Language struct {
	Strength float64

	words  []Word
	index  map[int]int
	nextID int
}

// New returns an empty language.
func New() *Language {
	return &Language{index: make(map[int]int)}
}

// NewProto builds a proto-language from written forms. Word i gets id i and
// the meaning {form: 1}. Blank forms are skipped.
func NewProto(codec *phonetics.Codec, forms []string) *Language {
	lang := New()
	for _, form := range forms {
		if form == "" {
			continue
		}
		id := lang.NextID()
		// Ids are assigned sequentially so Add cannot fail here.
		_ = lang.Add(Word{ID: id, Sounds: codec.Encode(form), Meaning: Meaning{form: 1}})
	}
	for i := range lang.words {
		lang.words[i].NearestProto = lang.NearestForm(lang.words[i].Meaning)
	}
	return lang
}

// Len returns the number of words.
func (l *Language) Len() int {
	if l == nil {
		return 0
	}
	return len(l.words)
}

// Empty reports whether no language has reached the location yet.
func (l *Language) Empty() bool {
	return l.Len() == 0
}

// NextID returns the id the next new word receives.
func (l *Language) NextID() int {
	return l.nextID
}

// Words returns the words in insertion order. The slice is a copy; the words
// share their backing forms and meanings with the language.
func (l *Language) Words() []Word {
	if l == nil {
		return nil
	}
	out := make([]Word, len(l.words))
	copy(out, l.words)
	return out
}

// At returns the word at position i in insertion order.
func (l *Language) At(i int) Word {
	return l.words[i]
}

// Word looks a word up by id.
func (l *Language) Word(id int) (Word, bool) {
	i, ok := l.index[id]
	if !ok {
		return Word{}, false
	}
	return l.words[i], true
}

// Add appends w. Ids are never reused: nextID moves past w.ID.
func (l *Language) Add(w Word) error {
	if l.index == nil {
		l.index = make(map[int]int)
	}
	if _, ok := l.index[w.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateWord, w.ID)
	}
	l.index[w.ID] = len(l.words)
	l.words = append(l.words, w)
	if w.ID >= l.nextID {
		l.nextID = w.ID + 1
	}
	return nil
}

// SetSounds replaces the sound form of word id.
func (l *Language) SetSounds(id int, f phonetics.Form) error {
	i, ok := l.index[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownWord, id)
	}
	l.words[i].Sounds = f
	return nil
}

// SetMeaning replaces the meaning of word id and refreshes its nearest proto.
func (l *Language) SetMeaning(id int, m Meaning, proto *Language) error {
	i, ok := l.index[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownWord, id)
	}
	l.words[i].SetMeaning(m, proto)
	return nil
}

// Remove deletes word id, keeping the order of the others. It reports
// whether the word existed.
func (l *Language) Remove(id int) bool {
	i, ok := l.index[id]
	if !ok {
		return false
	}
	l.words = append(l.words[:i], l.words[i+1:]...)
	delete(l.index, id)
	for j := i; j < len(l.words); j++ {
		l.index[l.words[j].ID] = j
	}
	return true
}

// Clone returns a deep copy.
func (l *Language) Clone() *Language {
	if l == nil {
		return nil
	}
	out := &Language{
		Strength: l.Strength,
		words:    make([]Word, len(l.words)),
		index:    make(map[int]int, len(l.index)),
		nextID:   l.nextID,
	}
	for i, w := range l.words {
		out.words[i] = w.Clone()
		out.index[w.ID] = i
	}
	return out
}

// HasForm reports whether any word sounds exactly like f.
func (l *Language) HasForm(f phonetics.Form) bool {
	for _, w := range l.words {
		if w.Sounds.Equal(f) {
			return true
		}
	}
	return false
}

// Nearest returns the word whose meaning has the largest dot product with m.
// The earliest word wins ties.
func (l *Language) Nearest(m Meaning) (Word, bool) {
	best := -1
	bestDot := math.Inf(-1)
	for i, w := range l.words {
		if d := m.Dot(w.Meaning); d > bestDot {
			best, bestDot = i, d
		}
	}
	if best < 0 {
		return Word{}, false
	}
	return l.words[best], true
}

// NearestForm returns a copy of the sound form of Nearest(m), or nil for an
// empty language.
func (l *Language) NearestForm(m Meaning) phonetics.Form {
	if l == nil {
		return nil
	}
	w, ok := l.Nearest(m)
	if !ok {
		return nil
	}
	return w.Sounds.Clone()
}

// DistinctNearestProto counts the distinct nearest-proto forms.
func (l *Language) DistinctNearestProto() int {
	seen := make(map[string]struct{}, len(l.words))
	for _, w := range l.words {
		seen[w.NearestProto.Key()] = struct{}{}
	}
	return len(seen)
}

// Equal compares strength and words in order. nextID is not compared.
func (l *Language) Equal(other *Language) bool {
	if l.Len() != other.Len() {
		return false
	}
	if l == nil || other == nil {
		return l.Len() == 0 && other.Len() == 0
	}
	if l.Strength != other.Strength {
		return false
	}
	for i := range l.words {
		if !l.words[i].Equal(other.words[i]) {
			return false
		}
	}
	return true
}
