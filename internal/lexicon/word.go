package lexicon

import "github.com/yuuri3/TokiPonaLanguages/internal/phonetics"

// Word is one lexicon entry. NearestProto caches the sound form of the proto
// word closest in meaning and is refreshed by SetMeaning.
type Word struct {
	ID           int            `json:"id"`
	Sounds       phonetics.Form `json:"sounds"`
	Meaning      Meaning        `json:"meaning"`
	NearestProto phonetics.Form `json:"nearest_proto"`
}

// SetMeaning replaces the meaning and recomputes NearestProto against proto.
func (w *Word) SetMeaning(m Meaning, proto *Language) {
	w.Meaning = m
	w.NearestProto = proto.NearestForm(m)
}

// Clone returns a deep copy.
func (w Word) Clone() Word {
	return Word{
		ID:           w.ID,
		Sounds:       w.Sounds.Clone(),
		Meaning:      w.Meaning.Clone(),
		NearestProto: w.NearestProto.Clone(),
	}
}

// Equal compares every field exactly.
func (w Word) Equal(other Word) bool {
	return w.ID == other.ID &&
		w.Sounds.Equal(other.Sounds) &&
		w.Meaning.Equal(other.Meaning, 0) &&
		w.NearestProto.Equal(other.NearestProto)
}

// Compound joins a and b into a new word with the given id: sounds are
// concatenated and meanings summed then normalised.
func Compound(id int, a, b Word, proto *Language) Word {
	w := Word{ID: id, Sounds: a.Sounds.Concat(b.Sounds)}
	w.SetMeaning(a.Meaning.Add(b.Meaning).Normalize(), proto)
	return w
}
