package journal

import (
	"errors"
	"fmt"
	"sort"

	"github.com/yuuri3/TokiPonaLanguages/internal/lexicon"
	apperrors "github.com/yuuri3/TokiPonaLanguages/internal/platform/errors"
)

// Languages maps location names to their lexicons.
type Languages map[string]*lexicon.Language

// NewLanguages returns the empty baseline for the given locations.
func NewLanguages(locations []string) Languages {
	langs := make(Languages, len(locations))
	for _, loc := range locations {
		langs[loc] = lexicon.New()
	}
	return langs
}

// Locations returns the location names in sorted order.
func (l Languages) Locations() []string {
	out := make([]string, 0, len(l))
	for loc := range l {
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy.
func (l Languages) Clone() Languages {
	if l == nil {
		return nil
	}
	out := make(Languages, len(l))
	for loc, lang := range l {
		out[loc] = lang.Clone()
	}
	return out
}

// Equal reports whether both hold the same locations with equal languages.
func (l Languages) Equal(other Languages) bool {
	if len(l) != len(other) {
		return false
	}
	for loc, lang := range l {
		o, ok := other[loc]
		if !ok || !lang.Equal(o) {
			return false
		}
	}
	return true
}

func (l Languages) lookup(loc string) (*lexicon.Language, error) {
	lang, ok := l[loc]
	if !ok || lang == nil {
		return nil, apperrors.WithMetadata(apperrors.CodeReplayUnknownLocation, "unknown location", map[string]string{"location": loc})
	}
	return lang, nil
}

func wordError(err error, loc string, id int) error {
	code := apperrors.CodeReplayUnknownWord
	if errors.Is(err, lexicon.ErrDuplicateWord) {
		code = apperrors.CodeReplayDuplicateWord
	}
	return &apperrors.Error{
		Code:     code,
		Message:  fmt.Sprintf("word %d at %s", id, loc),
		Metadata: map[string]string{"location": loc, "word_id": fmt.Sprint(id)},
		Cause:    err,
	}
}

// Apply applies one difference onto langs. proto resolves nearest-proto
// forms. Uncommitted sound changes, rejected meaning shifts and unadopted
// borrowings leave the state untouched. Removing a missing word is a no-op.
func Apply(langs Languages, proto *lexicon.Language, d Difference) error {
	switch d := d.(type) {
	case AddWord:
		lang, err := langs.lookup(d.Location)
		if err != nil {
			return err
		}
		if err := lang.Add(d.Word.Clone()); err != nil {
			return wordError(err, d.Location, d.Word.ID)
		}
	case ChangeStrength:
		lang, err := langs.lookup(d.Location)
		if err != nil {
			return err
		}
		lang.Strength = d.Strength
	case ChangeSound:
		lang, err := langs.lookup(d.Location)
		if err != nil {
			return err
		}
		if !d.Committed {
			return nil
		}
		w, ok := lang.Word(d.WordID)
		if !ok {
			return wordError(lexicon.ErrUnknownWord, d.Location, d.WordID)
		}
		next, _ := d.Rule.Apply(w.Sounds)
		return lang.SetSounds(d.WordID, next.Clone())
	case ChangeMeaning:
		lang, err := langs.lookup(d.Location)
		if err != nil {
			return err
		}
		if !d.Accepted {
			return nil
		}
		w, ok := lang.Word(d.WordID)
		if !ok {
			return wordError(lexicon.ErrUnknownWord, d.Location, d.WordID)
		}
		return lang.SetMeaning(d.WordID, Shift(w.Meaning, d.Seed, d.Rate), proto)
	case BorrowWord:
		lang, err := langs.lookup(d.Recipient)
		if err != nil {
			return err
		}
		if _, err := langs.lookup(d.Donor); err != nil {
			return err
		}
		if !d.Adopted {
			return nil
		}
		if err := lang.SetSounds(d.RecipientWordID, d.Sounds.Clone()); err != nil {
			return wordError(err, d.Recipient, d.RecipientWordID)
		}
	case AddCompoundWord:
		lang, err := langs.lookup(d.Location)
		if err != nil {
			return err
		}
		a, ok := lang.Word(d.Sources[0])
		if !ok {
			return wordError(lexicon.ErrUnknownWord, d.Location, d.Sources[0])
		}
		b, ok := lang.Word(d.Sources[1])
		if !ok {
			return wordError(lexicon.ErrUnknownWord, d.Location, d.Sources[1])
		}
		if err := lang.Add(lexicon.Compound(d.WordID, a, b, proto)); err != nil {
			return wordError(err, d.Location, d.WordID)
		}
	case RemoveWord:
		lang, err := langs.lookup(d.Location)
		if err != nil {
			return err
		}
		lang.Remove(d.WordID)
	default:
		return apperrors.New(apperrors.CodeReplayUnknownType, fmt.Sprintf("unknown difference %T", d))
	}
	return nil
}

// Shift blends seed into meaning at rate and normalises the result.
func Shift(meaning, seed lexicon.Meaning, rate float64) lexicon.Meaning {
	return meaning.Add(seed.Scale(rate)).Normalize()
}
