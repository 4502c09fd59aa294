// Package tableio reads the comma-separated inputs of a run: the phoneme
// table, the proto lexicon, the location grid and key/value parameter files.
package tableio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yuuri3/TokiPonaLanguages/internal/phonetics"
	apperrors "github.com/yuuri3/TokiPonaLanguages/internal/platform/errors"
)

const byteOrderMark = "\ufeff"

// Read parses all records from r. Rows may have different lengths.
func Read(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], byteOrderMark)
	}
	return rows, nil
}

// ReadFile parses the file at path. An empty path yields no rows.
func ReadFile(path string) ([][]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, unreadable(path, err)
	}
	defer f.Close()
	rows, err := Read(f)
	if err != nil {
		return nil, unreadable(path, err)
	}
	return rows, nil
}

func unreadable(path string, err error) error {
	return apperrors.Wrap(apperrors.CodeInputUnreadable, fmt.Sprintf("read %s", path), err)
}

// ReadProto returns the non-blank cells of the file's first row.
func ReadProto(path string) ([]string, error) {
	rows, err := ReadFile(path)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	var forms []string
	for _, cell := range rows[0] {
		if cell = strings.TrimSpace(cell); cell != "" {
			forms = append(forms, cell)
		}
	}
	return forms, nil
}

// ReadTable returns the phoneme table. Cells keep their exact spelling so
// that whitespace-only cells are not mistaken for blanks.
func ReadTable(path string) (phonetics.Table, error) {
	rows, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return phonetics.Table(rows), nil
}

// ReadGrid returns the location grid with cells trimmed. Blank cells are
// holes in the map.
func ReadGrid(path string) ([][]string, error) {
	rows, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
	}
	return rows, nil
}

// legacyKeys maps the key names of older parameter files to the current
// ones.
var legacyKeys = map[string]string{
	"N_BOLLOW":            "N_BORROW",
	"P_REMOVE_SOUND":      "P_SOUND_LOSS",
	"OLD_TOKI_PONA":       "PROTO_PATH",
	"PHONETICS":           "PHONEMES_PATH",
	"MAP":                 "GRID_PATH",
	"TOKI_PONA_LANGUAGES": "OUTPUT_PATH",
}

// ErrMalformedParams reports a parameter row without a value.
var ErrMalformedParams = errors.New("parameter row needs a key and a value")

// ReadParams reads KEY,value rows into a map keyed by prefix+KEY, suitable
// as environment overrides. Keys are upper-cased and legacy names are
// translated. Blank rows and rows starting with # are skipped.
func ReadParams(path, prefix string) (map[string]string, error) {
	rows, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for i, row := range rows {
		key := ""
		if len(row) > 0 {
			key = strings.ToUpper(strings.TrimSpace(row[0]))
		}
		if key == "" || strings.HasPrefix(key, "#") {
			continue
		}
		if len(row) < 2 {
			return nil, apperrors.Wrap(apperrors.CodeParamInvalid,
				fmt.Sprintf("%s row %d (%s)", path, i+1, key), ErrMalformedParams)
		}
		if current, ok := legacyKeys[key]; ok {
			key = current
		}
		out[prefix+key] = strings.TrimSpace(row[1])
	}
	return out, nil
}
