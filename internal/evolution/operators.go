package evolution

import (
	"github.com/yuuri3/TokiPonaLanguages/internal/journal"
	"github.com/yuuri3/TokiPonaLanguages/internal/lexicon"
	"github.com/yuuri3/TokiPonaLanguages/internal/phonetics"
)

const (
	strengthInertia = 0.9
	strengthNoise   = 0.1
)

// driftStrength moves each location's strength toward a uniform draw in
// [-1, 1).
func (s *System) driftStrength() error {
	for _, loc := range s.locations {
		if !s.rng.Chance(s.params.PStrengthDrift) {
			continue
		}
		lang := s.languages[loc]
		next := strengthInertia*lang.Strength + strengthNoise*s.rng.Float(-1, 1)
		if err := s.record(journal.ChangeStrength{Location: loc, Strength: next}); err != nil {
			return err
		}
	}
	return nil
}

// borrow makes NBorrow attempts, each on a random adjacent pair.
func (s *System) borrow() error {
	if len(s.adjacency) == 0 {
		return nil
	}
	for i := 0; i < s.params.NBorrow; i++ {
		edge := s.adjacency[s.rng.Int(0, len(s.adjacency)-1)]
		if err := s.borrowPair(edge.A, edge.B); err != nil {
			return err
		}
	}
	return nil
}

func (s *System) borrowPair(a, b string) error {
	la, lb := s.languages[a], s.languages[b]
	switch {
	case la.Empty() && lb.Empty():
		return nil
	case la.Empty():
		return s.colonize(a, b)
	case lb.Empty():
		return s.colonize(b, a)
	}

	source, target := a, b
	if !(la.Strength > lb.Strength) {
		source, target = b, a
	}
	donor, recipient := s.languages[source], s.languages[target]
	for i := 0; i < recipient.Len(); i++ {
		if s.rng.Int(0, 1) != 0 {
			continue
		}
		w := recipient.At(i)
		best, ok := donor.Nearest(w.Meaning)
		if !ok {
			continue
		}
		err := s.record(journal.BorrowWord{
			Recipient:       target,
			RecipientWordID: w.ID,
			Donor:           source,
			DonorWordID:     best.ID,
			Sounds:          best.Sounds.Clone(),
			Adopted:         !recipient.HasForm(best.Sounds),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// colonize copies the donor's strength and whole lexicon into an empty
// recipient.
func (s *System) colonize(recipient, donor string) error {
	src := s.languages[donor]
	if err := s.record(journal.ChangeStrength{Location: recipient, Strength: src.Strength}); err != nil {
		return err
	}
	for _, w := range src.Words() {
		if err := s.record(journal.AddWord{Location: recipient, Word: w}); err != nil {
			return err
		}
	}
	return nil
}

// changeSounds draws, per location, one rule from a random phoneme of a
// random word and applies it regularly to the whole lexicon.
func (s *System) changeSounds() error {
	for _, loc := range s.locations {
		if !s.rng.Chance(s.params.PSoundChange) {
			continue
		}
		lang := s.languages[loc]
		var voiced []int
		for i := 0; i < lang.Len(); i++ {
			if len(lang.At(i).Sounds) > 0 {
				voiced = append(voiced, i)
			}
		}
		if len(voiced) == 0 {
			continue
		}
		w := lang.At(voiced[s.rng.Int(0, len(voiced)-1)])
		phoneme := w.Sounds[s.rng.Int(0, len(w.Sounds)-1)]
		rule := phonetics.DrawRule(s.table, phoneme, s.params.PSoundLoss, s.rng)
		if err := s.applySoundLaw(loc, lang, rule); err != nil {
			return err
		}
	}
	return nil
}

type soundCandidate struct {
	id   int
	next phonetics.Form
	keep bool
}

func (s *System) applySoundLaw(loc string, lang *lexicon.Language, rule phonetics.Rule) error {
	words := lang.Words()
	var candidates []soundCandidate
	byIndex := make(map[int]int)
	for i, w := range words {
		next, matched := rule.Apply(w.Sounds)
		if !matched {
			continue
		}
		keep := !s.params.ProhibitDuplication || s.classifier.Legal(next)
		byIndex[i] = len(candidates)
		candidates = append(candidates, soundCandidate{id: w.ID, next: next, keep: keep})
	}
	if len(candidates) == 0 {
		return nil
	}

	if s.params.ProhibitMinimalPair {
		// Reverting one word can collide with another's new form, so repeat
		// until the lexicon is homophone-free.
		for {
			counts := make(map[string]int, len(words))
			for i, w := range words {
				counts[resultingForm(w, i, byIndex, candidates).Key()]++
			}
			reverted := false
			for i := range candidates {
				if candidates[i].keep && counts[candidates[i].next.Key()] > 1 {
					candidates[i].keep = false
					reverted = true
				}
			}
			if !reverted {
				break
			}
		}
	}

	for _, c := range candidates {
		if err := s.record(journal.ChangeSound{Location: loc, WordID: c.id, Rule: rule, Committed: c.keep}); err != nil {
			return err
		}
	}
	return nil
}

func resultingForm(w lexicon.Word, i int, byIndex map[int]int, candidates []soundCandidate) phonetics.Form {
	if ci, ok := byIndex[i]; ok && candidates[ci].keep {
		return candidates[ci].next
	}
	return w.Sounds
}

// loseWords drops one member of a random synonym group per location.
func (s *System) loseWords() error {
	for _, loc := range s.locations {
		if !s.rng.Chance(s.params.PWordLoss) {
			continue
		}
		lang := s.languages[loc]
		if lang.Empty() {
			continue
		}
		groups := synonymGroups(lang)
		if len(groups) == 0 {
			continue
		}
		group := groups[s.rng.Int(0, len(groups)-1)]
		id := group[s.rng.Int(0, len(group)-1)]
		if err := s.record(journal.RemoveWord{Location: loc, WordID: id}); err != nil {
			return err
		}
	}
	return nil
}

// synonymGroups returns the ids of words sharing a nearest proto form, for
// every form held by two or more words. Groups follow the first appearance
// of their form; members keep lexicon order.
func synonymGroups(lang *lexicon.Language) [][]int {
	var order []string
	members := make(map[string][]int)
	for _, w := range lang.Words() {
		key := w.NearestProto.Key()
		if _, ok := members[key]; !ok {
			order = append(order, key)
		}
		members[key] = append(members[key], w.ID)
	}
	var groups [][]int
	for _, key := range order {
		if len(members[key]) >= 2 {
			groups = append(groups, members[key])
		}
	}
	return groups
}

// birthWords compounds two random words per location into a new one.
func (s *System) birthWords() error {
	for _, loc := range s.locations {
		if !s.rng.Chance(s.params.PWordBirth) {
			continue
		}
		lang := s.languages[loc]
		if lang.Empty() {
			continue
		}
		a := lang.At(s.rng.Int(0, lang.Len()-1))
		b := lang.At(s.rng.Int(0, lang.Len()-1))
		err := s.record(journal.AddCompoundWord{Location: loc, WordID: lang.NextID(), Sources: [2]int{a.ID, b.ID}})
		if err != nil {
			return err
		}
	}
	return nil
}

// shiftMeanings pulls one word's meaning toward another's per location. The
// shift is rejected when two words would then share a nearest proto form.
func (s *System) shiftMeanings() error {
	for _, loc := range s.locations {
		if !s.rng.Chance(s.params.PSemanticShift) {
			continue
		}
		lang := s.languages[loc]
		if lang.Empty() {
			continue
		}
		n := lang.Len()
		ti := s.rng.Int(0, n-1)
		si := s.rng.Int(0, n-1)
		rate := s.rng.Float(0, s.params.MaxSemanticShiftRate)

		target := lang.At(ti)
		seed := lang.At(si).Meaning.Clone()
		shifted := s.proto.NearestForm(journal.Shift(target.Meaning, seed, rate))
		distinct := make(map[string]struct{}, n)
		for i := 0; i < n; i++ {
			form := lang.At(i).NearestProto
			if i == ti {
				form = shifted
			}
			distinct[form.Key()] = struct{}{}
		}
		err := s.record(journal.ChangeMeaning{
			Location: loc,
			WordID:   target.ID,
			Seed:     seed,
			Rate:     rate,
			Accepted: len(distinct) == n,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
