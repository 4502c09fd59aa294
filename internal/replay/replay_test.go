package replay_test

import (
	"context"
	"errors"
	"testing"

	"github.com/yuuri3/TokiPonaLanguages/internal/checkpoint"
	"github.com/yuuri3/TokiPonaLanguages/internal/journal"
	"github.com/yuuri3/TokiPonaLanguages/internal/lexicon"
	"github.com/yuuri3/TokiPonaLanguages/internal/phonetics"
	apperrors "github.com/yuuri3/TokiPonaLanguages/internal/platform/errors"
	"github.com/yuuri3/TokiPonaLanguages/internal/replay"
)

type fakeStore struct {
	entries []journal.Entry
	calls   int
}

func (s *fakeStore) ListEntries(_ context.Context, _ string, afterSeq uint64, limit int) ([]journal.Entry, error) {
	s.calls++
	var out []journal.Entry
	for _, e := range s.entries {
		if e.Seq > afterSeq {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func testProto() *lexicon.Language {
	codec := phonetics.NewCodec(phonetics.Table{{"t", "k", "p"}, {"o", "i", "a"}})
	return lexicon.NewProto(codec, []string{"toki", "pona"})
}

func recordedJournal(proto *lexicon.Language) *journal.Journal {
	j := journal.New("run-1")
	j.Append(journal.ChangeStrength{Location: "0", Strength: 0})
	for _, w := range proto.Words() {
		j.Append(journal.AddWord{Location: "0", Word: w.Clone()})
	}
	j.Append(journal.ChangeStrength{Meta: journal.Meta{Era: 1}, Location: "1", Strength: 0})
	for _, w := range proto.Words() {
		j.Append(journal.AddWord{Meta: journal.Meta{Era: 1}, Location: "1", Word: w.Clone()})
	}
	j.Append(journal.RemoveWord{Meta: journal.Meta{Era: 2}, Location: "1", WordID: 0})
	return j
}

func TestReplayAppliesAllEntries(t *testing.T) {
	proto := testProto()
	j := recordedJournal(proto)
	state := journal.NewLanguages([]string{"0", "1"})

	result, err := replay.Replay(context.Background(), j, checkpoint.NewNoop(), replay.LanguageApplier{Proto: proto}, "run-1", state, replay.Options{PageSize: 2})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.Applied != 7 || result.LastSeq != 7 || result.LastEra != 2 {
		t.Fatalf("result = applied %d seq %d era %d", result.Applied, result.LastSeq, result.LastEra)
	}
	if result.State["0"].Len() != 2 || result.State["1"].Len() != 1 {
		t.Fatalf("lens = %d,%d, want 2,1", result.State["0"].Len(), result.State["1"].Len())
	}
}

func TestReplayStopsAtEra(t *testing.T) {
	proto := testProto()
	j := recordedJournal(proto)
	state := journal.NewLanguages([]string{"0", "1"})

	result, err := replay.Replay(context.Background(), j, checkpoint.NewNoop(), replay.LanguageApplier{Proto: proto}, "run-1", state, replay.Options{UntilEra: 0, EraBound: true})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.LastSeq != 3 || !result.State["1"].Empty() {
		t.Fatalf("era 0 replay = seq %d, len(1) %d", result.LastSeq, result.State["1"].Len())
	}
}

func TestReplayStopsAtUntilSeq(t *testing.T) {
	proto := testProto()
	j := recordedJournal(proto)
	result, err := replay.Replay(context.Background(), j, checkpoint.NewNoop(), replay.LanguageApplier{Proto: proto}, "run-1", journal.NewLanguages([]string{"0", "1"}), replay.Options{UntilSeq: 2})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.Applied != 2 || result.State["0"].Len() != 1 {
		t.Fatalf("applied = %d, len = %d", result.Applied, result.State["0"].Len())
	}
}

func TestReplayResumesFromCheckpoint(t *testing.T) {
	proto := testProto()
	j := recordedJournal(proto)
	store := checkpoint.NewMemory()
	applier := replay.LanguageApplier{Proto: proto}

	first, err := replay.Replay(context.Background(), j, store, applier, "run-1", journal.NewLanguages([]string{"0", "1"}), replay.Options{UntilEra: 1, EraBound: true})
	if err != nil {
		t.Fatalf("first replay: %v", err)
	}
	if first.LastSeq != 6 {
		t.Fatalf("first last seq = %d, want 6", first.LastSeq)
	}
	second, err := replay.Replay(context.Background(), j, store, applier, "run-1", first.State, replay.Options{})
	if err != nil {
		t.Fatalf("second replay: %v", err)
	}
	if second.Applied != 1 || second.LastSeq != 7 {
		t.Fatalf("second = applied %d seq %d, want 1 and 7", second.Applied, second.LastSeq)
	}
	if second.State["1"].Len() != 1 {
		t.Fatalf("len(1) = %d, want 1", second.State["1"].Len())
	}
}

func TestReplayRejectsSequenceGap(t *testing.T) {
	store := &fakeStore{entries: []journal.Entry{
		{Seq: 1, Difference: journal.ChangeStrength{Location: "0"}},
		{Seq: 3, Difference: journal.ChangeStrength{Location: "0"}},
	}}
	_, err := replay.Replay(context.Background(), store, checkpoint.NewNoop(), replay.LanguageApplier{Proto: testProto()}, "run-1", journal.NewLanguages([]string{"0"}), replay.Options{})
	if apperrors.CodeOf(err) != apperrors.CodeReplaySequenceGap {
		t.Fatalf("code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeReplaySequenceGap)
	}
}

func TestReplayPropagatesApplyErrors(t *testing.T) {
	store := &fakeStore{entries: []journal.Entry{
		{Seq: 1, Difference: journal.ChangeStrength{Location: "missing"}},
	}}
	_, err := replay.Replay(context.Background(), store, checkpoint.NewNoop(), replay.LanguageApplier{Proto: testProto()}, "run-1", journal.NewLanguages([]string{"0"}), replay.Options{})
	if apperrors.CodeOf(err) != apperrors.CodeReplayUnknownLocation {
		t.Fatalf("code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeReplayUnknownLocation)
	}
}

func TestReplayValidatesInputs(t *testing.T) {
	applier := replay.LanguageApplier{}
	state := journal.Languages{}
	store := &fakeStore{}
	tests := []struct {
		name string
		err  error
		call func() error
	}{
		{"store", replay.ErrEntryStoreRequired, func() error {
			_, err := replay.Replay(context.Background(), nil, checkpoint.NewNoop(), applier, "run-1", state, replay.Options{})
			return err
		}},
		{"checkpoints", replay.ErrCheckpointStoreRequired, func() error {
			_, err := replay.Replay(context.Background(), store, nil, applier, "run-1", state, replay.Options{})
			return err
		}},
		{"applier", replay.ErrApplierRequired, func() error {
			_, err := replay.Replay(context.Background(), store, checkpoint.NewNoop(), nil, "run-1", state, replay.Options{})
			return err
		}},
		{"run id", replay.ErrRunIDRequired, func() error {
			_, err := replay.Replay(context.Background(), store, checkpoint.NewNoop(), applier, " ", state, replay.Options{})
			return err
		}},
	}
	for _, tt := range tests {
		if err := tt.call(); !errors.Is(err, tt.err) {
			t.Fatalf("%s: error = %v, want %v", tt.name, err, tt.err)
		}
	}
}
