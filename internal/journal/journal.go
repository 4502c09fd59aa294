// Package journal records every mutation of a simulation as an ordered list
// of differences and rebuilds language state from them.
package journal

import (
	"context"
	"strings"

	apperrors "github.com/yuuri3/TokiPonaLanguages/internal/platform/errors"
)

// Entry is a difference with its 1-based position in the journal.
type Entry struct {
	Seq        uint64
	Difference Difference
}

// Era returns the era of the entry's difference.
func (e Entry) Era() int {
	return EraOf(e.Difference)
}

// Journal is an append-only in-memory log for one run.
type Journal struct {
	runID   string
	entries []Entry
}

// New returns an empty journal for runID.
func New(runID string) *Journal {
	return &Journal{runID: strings.TrimSpace(runID)}
}

// RunID returns the run the journal belongs to.
func (j *Journal) RunID() string {
	return j.runID
}

// Append records d and returns its entry.
func (j *Journal) Append(d Difference) Entry {
	entry := Entry{Seq: uint64(len(j.entries)) + 1, Difference: d}
	j.entries = append(j.entries, entry)
	return entry
}

// Len returns the number of entries.
func (j *Journal) Len() int {
	return len(j.entries)
}

// Entries returns all entries in order.
func (j *Journal) Entries() []Entry {
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Since returns the entries with Seq greater than afterSeq.
func (j *Journal) Since(afterSeq uint64) []Entry {
	if afterSeq >= uint64(len(j.entries)) {
		return nil
	}
	out := make([]Entry, len(j.entries)-int(afterSeq))
	copy(out, j.entries[afterSeq:])
	return out
}

// ListEntries pages through the journal. It serves replay directly from memory.
func (j *Journal) ListEntries(ctx context.Context, runID string, afterSeq uint64, limit int) ([]Entry, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(runID) != j.runID {
		return nil, apperrors.WithMetadata(apperrors.CodeNotFound, "run not found", map[string]string{"run_id": runID})
	}
	entries := j.Since(afterSeq)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
