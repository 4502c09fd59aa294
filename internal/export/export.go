// Package export renders the languages of a run as a reflex table: one row
// per proto word, one column per location.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/yuuri3/TokiPonaLanguages/internal/journal"
	"github.com/yuuri3/TokiPonaLanguages/internal/lexicon"
	"github.com/yuuri3/TokiPonaLanguages/internal/phonetics"
)

// DefaultAutonym spells the proto words that name the language.
var DefaultAutonym = []string{"toki", "pona"}

// Input is everything a reflex table is built from.
type Input struct {
	Proto     *lexicon.Language
	Languages journal.Languages
	// Locations fixes the column order. Languages.Locations() is used when
	// empty.
	Locations []string
	Codec     *phonetics.Codec
	// Autonym lists the proto spellings whose reflexes name each daughter
	// language. DefaultAutonym is used when nil.
	Autonym []string
}

// Build returns the table rows: a header, the autonym row, then the reflexes
// of every proto word. A proto word whose reflexes outnumber one in some
// location continues on rows with a blank first cell.
func Build(in Input) [][]string {
	locations := in.Locations
	if len(locations) == 0 {
		locations = in.Languages.Locations()
	}
	autonym := in.Autonym
	if autonym == nil {
		autonym = DefaultAutonym
	}
	title := cases.Title(language.Und)

	spell := func(f phonetics.Form) string {
		if in.Codec == nil {
			return f.Key()
		}
		return in.Codec.Decode(f)
	}

	// reflexes[i][proto form key] lists location i's words in lexicon order.
	reflexes := make([]map[string][]lexicon.Word, len(locations))
	for i, loc := range locations {
		byProto := make(map[string][]lexicon.Word)
		for _, w := range in.Languages[loc].Words() {
			key := w.NearestProto.Key()
			byProto[key] = append(byProto[key], w)
		}
		reflexes[i] = byProto
	}

	rows := make([][]string, 0, in.Proto.Len()+2)
	rows = append(rows, append([]string{""}, locations...))
	rows = append(rows, autonymRow(in.Proto, autonym, locations, reflexes, spell, title))

	for _, pw := range in.Proto.Words() {
		key := pw.Sounds.Key()
		height := 1
		for i := range locations {
			height = max(height, len(reflexes[i][key]))
		}
		for r := 0; r < height; r++ {
			row := make([]string, len(locations)+1)
			if r == 0 {
				row[0] = spell(pw.Sounds)
			}
			for i := range locations {
				if words := reflexes[i][key]; r < len(words) {
					row[i+1] = spell(words[r].Sounds)
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func autonymRow(proto *lexicon.Language, lexemes, locations []string, reflexes []map[string][]lexicon.Word, spell func(phonetics.Form) string, title cases.Caser) []string {
	row := make([]string, len(locations)+1)
	labels := make([]string, len(lexemes))
	for i, lexeme := range lexemes {
		labels[i] = title.String(lexeme)
	}
	row[0] = strings.Join(labels, " ")

	keys := make([]string, 0, len(lexemes))
	for _, lexeme := range lexemes {
		found := false
		for _, pw := range proto.Words() {
			if spell(pw.Sounds) == lexeme {
				keys = append(keys, pw.Sounds.Key())
				found = true
				break
			}
		}
		if !found {
			return row
		}
	}

	for i := range locations {
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			words := reflexes[i][key]
			if len(words) == 0 {
				break
			}
			parts = append(parts, title.String(spell(words[0].Sounds)))
		}
		if len(parts) == len(keys) {
			row[i+1] = strings.Join(parts, " ")
		}
	}
	return row
}

// WriteCSV writes rows as comma-separated records.
func WriteCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write reflex table: %w", err)
	}
	return nil
}

// WriteFile writes rows to path, replacing any existing file.
func WriteFile(path string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return WriteCSV(f, rows)
}
