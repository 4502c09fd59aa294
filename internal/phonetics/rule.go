package phonetics

import (
	"fmt"

	"github.com/yuuri3/TokiPonaLanguages/internal/random"
)

// Condition restricts where in a word a rule fires.
type Condition int

const (
	Initial Condition = iota
	Medial
	Final
)

var conditionNames = [...]string{"initial", "medial", "final"}

func (c Condition) String() string {
	if c < Initial || c > Final {
		return fmt.Sprintf("condition(%d)", int(c))
	}
	return conditionNames[c]
}

// MarshalText encodes the condition by name.
func (c Condition) MarshalText() ([]byte, error) {
	if c < Initial || c > Final {
		return nil, fmt.Errorf("unknown sound change condition %d", int(c))
	}
	return []byte(conditionNames[c]), nil
}

// UnmarshalText decodes a condition name.
func (c *Condition) UnmarshalText(text []byte) error {
	for i, name := range conditionNames {
		if string(text) == name {
			*c = Condition(i)
			return nil
		}
	}
	return fmt.Errorf("unknown sound change condition %q", text)
}

// matches reports whether position i of an n-phoneme word satisfies c.
func (c Condition) matches(i, n int) bool {
	switch c {
	case Initial:
		return i == 0
	case Final:
		return i == n-1
	case Medial:
		return i != 0 && i != n-1
	}
	return false
}

// Rule is one sound law: every occurrence of Source at a position allowed by
// Condition becomes Target, or disappears when Deleted is set.
type Rule struct {
	Source    Coordinate `json:"source"`
	Condition Condition  `json:"condition"`
	Deleted   bool       `json:"deleted"`
	Target    Coordinate `json:"target"`
}

// Apply returns the rewritten form and whether any position matched. The
// input form is never modified.
func (r Rule) Apply(f Form) (Form, bool) {
	n := len(f)
	out := make(Form, 0, n)
	matched := false
	for i, c := range f {
		if c != r.Source || !r.Condition.matches(i, n) {
			out = append(out, c)
			continue
		}
		matched = true
		if !r.Deleted {
			out = append(out, r.Target)
		}
	}
	if !matched {
		return f, false
	}
	return out, true
}

// DrawRule builds a random rule for source. It draws the condition, then the
// deletion flag with probability pLoss, then a walk target; the walk is drawn
// even for deleting rules so the draw sequence does not depend on pLoss.
func DrawRule(t Table, source Coordinate, pLoss float64, src random.Source) Rule {
	rule := Rule{Source: source}
	rule.Condition = Condition(src.Int(0, 2))
	rule.Deleted = src.Chance(pLoss)
	rule.Target = t.Walk(source, src)
	return rule
}
