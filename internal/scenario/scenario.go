// Package scenario loads Lua scripts that describe simulation runs and the
// outcomes expected of them, and executes them against the engine.
//
// A script builds a Scenario and returns it:
//
//	local s = Scenario.new("baseline")
//	s:proto_file("OldTokiPona.csv")
//	s:phonemes_file("Phonetics.csv")
//	s:grid({{"0", "1"}, {"2", "3"}})
//	s:params({n_borrow = 1, p_sound_change = 0.1})
//	s:seed(7)
//	s:expect({converged = true, replay = true})
//	return s
//
// Relative file paths resolve against the script's directory.
package scenario

import (
	"path/filepath"
	"strings"
)

// Scenario is one scripted run.
type Scenario struct {
	Name string
	// Dir anchors relative paths. It is the script's directory when loaded
	// from a file.
	Dir string

	ProtoFile    string
	PhonemesFile string
	GridFile     string
	Proto        []string
	Phonemes     [][]string
	Grid         [][]string
	SeedLocation string

	// Params holds evolution parameter overrides keyed by their environment
	// names, e.g. N_BORROW.
	Params  map[string]string
	Seed    int64
	MaxEras int

	Output string
	Dump   string

	Expect Expectation
}

// Expectation lists the checks made after a run. Nil pointers are not
// checked.
type Expectation struct {
	Started   *bool
	Converged *bool
	// Replay rebuilds the final state from the journal and compares it with
	// the live one.
	Replay     bool
	MaxEra     int
	MinEntries int
}

func (s *Scenario) resolve(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || filepath.IsAbs(path) || s.Dir == "" {
		return path
	}
	return filepath.Join(s.Dir, path)
}
