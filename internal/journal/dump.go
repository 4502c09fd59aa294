package journal

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yuuri3/TokiPonaLanguages/internal/lexicon"
	"github.com/yuuri3/TokiPonaLanguages/internal/phonetics"
)

// Dump writes one text block per entry: the header line, then the integer,
// real and string parameters, then any rule, meaning or form payload. Forms
// are spelled with codec when it is non-nil.
func Dump(w io.Writer, entries []Entry, codec *phonetics.Codec) error {
	bw := bufio.NewWriter(w)
	for _, entry := range entries {
		writeBlock(bw, entry, codec)
	}
	return bw.Flush()
}

type params struct {
	ints    []int
	reals   []float64
	strings []string
}

func paramsOf(d Difference) params {
	switch d := d.(type) {
	case AddWord:
		return params{ints: []int{d.Word.ID}, strings: []string{d.Location}}
	case ChangeStrength:
		return params{reals: []float64{d.Strength}, strings: []string{d.Location}}
	case ChangeSound:
		return params{ints: []int{d.WordID, boolInt(d.Committed)}, strings: []string{d.Location}}
	case ChangeMeaning:
		return params{ints: []int{d.WordID, boolInt(d.Accepted)}, reals: []float64{d.Rate}, strings: []string{d.Location}}
	case BorrowWord:
		return params{
			ints:    []int{d.RecipientWordID, d.DonorWordID, boolInt(d.Adopted)},
			strings: []string{d.Recipient, d.Donor},
		}
	case AddCompoundWord:
		return params{ints: []int{d.WordID, d.Sources[0], d.Sources[1]}, strings: []string{d.Location}}
	case RemoveWord:
		return params{ints: []int{d.WordID}, strings: []string{d.Location}}
	}
	return params{}
}

func writeBlock(w *bufio.Writer, entry Entry, codec *phonetics.Codec) {
	d := entry.Difference
	fmt.Fprintf(w, "#%d era=%d type=%s\n", entry.Seq, entry.Era(), d.Type())

	p := paramsOf(d)
	ints := make([]string, len(p.ints))
	for i, v := range p.ints {
		ints[i] = strconv.Itoa(v)
	}
	reals := make([]string, len(p.reals))
	for i, v := range p.reals {
		reals[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	fmt.Fprintf(w, "  int: %s\n", strings.Join(ints, " "))
	fmt.Fprintf(w, "  real: %s\n", strings.Join(reals, " "))
	fmt.Fprintf(w, "  string: %s\n", strings.Join(p.strings, " "))

	switch d := d.(type) {
	case AddWord:
		fmt.Fprintf(w, "  sounds: %s\n", spell(d.Word.Sounds, codec))
		fmt.Fprintf(w, "  meaning: %s\n", formatMeaning(d.Word.Meaning))
	case ChangeSound:
		r := d.Rule
		fmt.Fprintf(w, "  rule: %s %s -> ", r.Condition, spell(phonetics.Form{r.Source}, codec))
		if r.Deleted {
			fmt.Fprintln(w, "(deleted)")
		} else {
			fmt.Fprintln(w, spell(phonetics.Form{r.Target}, codec))
		}
	case ChangeMeaning:
		fmt.Fprintf(w, "  meaning: %s\n", formatMeaning(d.Seed))
	case BorrowWord:
		fmt.Fprintf(w, "  sounds: %s\n", spell(d.Sounds, codec))
	}
	w.WriteByte('\n')
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func spell(f phonetics.Form, codec *phonetics.Codec) string {
	if codec != nil {
		return codec.Decode(f)
	}
	parts := make([]string, len(f))
	for i, c := range f {
		parts[i] = c.String()
	}
	return strings.Join(parts, "")
}

func formatMeaning(m lexicon.Meaning) string {
	parts := make([]string, 0, len(m))
	for _, k := range m.Keys() {
		parts = append(parts, k+"="+strconv.FormatFloat(m[k], 'g', -1, 64))
	}
	return strings.Join(parts, " ")
}
