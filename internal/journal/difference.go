package journal

import (
	"github.com/yuuri3/TokiPonaLanguages/internal/lexicon"
	"github.com/yuuri3/TokiPonaLanguages/internal/phonetics"
)

// Type names a difference variant on the wire and in dumps.
type Type string

const (
	TypeAddWord         Type = "word.added"
	TypeChangeStrength  Type = "language.strength_changed"
	TypeChangeSound     Type = "word.sound_changed"
	TypeChangeMeaning   Type = "word.meaning_changed"
	TypeBorrowWord      Type = "word.borrowed"
	TypeAddCompoundWord Type = "word.compounded"
	TypeRemoveWord      Type = "word.removed"
)

// Meta carries the fields every difference shares.
type Meta struct {
	Era int `json:"era"`
}

func (m Meta) meta() Meta { return m }

// Difference is one recorded mutation. The set of variants is closed.
type Difference interface {
	Type() Type
	meta() Meta
}

// EraOf returns the era a difference was recorded in.
func EraOf(d Difference) int {
	return d.meta().Era
}

// AddWord places a word into a location's lexicon. Seeding and colonisation
// are recorded with it.
type AddWord struct {
	Meta
	Location string       `json:"location"`
	Word     lexicon.Word `json:"word"`
}

// ChangeStrength sets a location's strength.
type ChangeStrength struct {
	Meta
	Location string  `json:"location"`
	Strength float64 `json:"strength"`
}

// ChangeSound records that Rule matched WordID. Committed is false when the
// word's change was discarded by the phonotactic or minimal-pair filters.
type ChangeSound struct {
	Meta
	Location  string         `json:"location"`
	WordID    int            `json:"word_id"`
	Rule      phonetics.Rule `json:"rule"`
	Committed bool           `json:"committed"`
}

// ChangeMeaning records a semantic shift of WordID toward Seed by Rate.
// Accepted is false when the shift was rolled back.
type ChangeMeaning struct {
	Meta
	Location string          `json:"location"`
	WordID   int             `json:"word_id"`
	Seed     lexicon.Meaning `json:"seed"`
	Rate     float64         `json:"rate"`
	Accepted bool            `json:"accepted"`
}

// BorrowWord records one borrowing attempt. When Adopted, the recipient word
// took Sounds from the donor word.
type BorrowWord struct {
	Meta
	Recipient       string         `json:"recipient"`
	RecipientWordID int            `json:"recipient_word_id"`
	Donor           string         `json:"donor"`
	DonorWordID     int            `json:"donor_word_id"`
	Sounds          phonetics.Form `json:"sounds"`
	Adopted         bool           `json:"adopted"`
}

// AddCompoundWord records a new word WordID built from two source words.
type AddCompoundWord struct {
	Meta
	Location string `json:"location"`
	WordID   int    `json:"word_id"`
	Sources  [2]int `json:"sources"`
}

// RemoveWord records the loss of WordID.
type RemoveWord struct {
	Meta
	Location string `json:"location"`
	WordID   int    `json:"word_id"`
}

func (AddWord) Type() Type         { return TypeAddWord }
func (ChangeStrength) Type() Type  { return TypeChangeStrength }
func (ChangeSound) Type() Type     { return TypeChangeSound }
func (ChangeMeaning) Type() Type   { return TypeChangeMeaning }
func (BorrowWord) Type() Type      { return TypeBorrowWord }
func (AddCompoundWord) Type() Type { return TypeAddCompoundWord }
func (RemoveWord) Type() Type      { return TypeRemoveWord }
