// Package replay rebuilds language state by applying journal entries in
// sequence order, optionally stopping at a given sequence or era.
package replay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yuuri3/TokiPonaLanguages/internal/journal"
	"github.com/yuuri3/TokiPonaLanguages/internal/lexicon"
	apperrors "github.com/yuuri3/TokiPonaLanguages/internal/platform/errors"
)

const defaultPageSize = 200

var (
	// ErrEntryStoreRequired indicates a missing entry store.
	ErrEntryStoreRequired = errors.New("entry store is required")
	// ErrCheckpointStoreRequired indicates a missing checkpoint store.
	ErrCheckpointStoreRequired = errors.New("checkpoint store is required")
	// ErrApplierRequired indicates a missing applier.
	ErrApplierRequired = errors.New("applier is required")
	// ErrRunIDRequired indicates a missing run id.
	ErrRunIDRequired = errors.New("run id is required")
	// ErrCheckpointNotFound indicates no checkpoint exists yet.
	ErrCheckpointNotFound = errors.New("checkpoint not found")
)

// EntryStore lists journal entries for replay.
type EntryStore interface {
	ListEntries(ctx context.Context, runID string, afterSeq uint64, limit int) ([]journal.Entry, error)
}

// CheckpointStore manages replay checkpoints.
type CheckpointStore interface {
	Get(ctx context.Context, runID string) (Checkpoint, error)
	Save(ctx context.Context, checkpoint Checkpoint) error
}

// Applier applies one entry to the state and returns the new state.
type Applier interface {
	Apply(state journal.Languages, entry journal.Entry) (journal.Languages, error)
}

// Checkpoint captures the last applied sequence for a run.
type Checkpoint struct {
	RunID     string
	LastSeq   uint64
	Era       int
	UpdatedAt time.Time
}

// Options configures replay behavior.
type Options struct {
	AfterSeq uint64
	UntilSeq uint64
	// When EraBound is set, replay stops before the first entry whose era
	// exceeds UntilEra.
	UntilEra int
	EraBound bool
	PageSize int
}

// Result captures replay outcomes.
type Result struct {
	State   journal.Languages
	LastSeq uint64
	LastEra int
	Applied int
}

// LanguageApplier applies entries with journal.Apply, resolving nearest
// proto forms against Proto. The state is modified in place.
type LanguageApplier struct {
	Proto *lexicon.Language
}

func (a LanguageApplier) Apply(state journal.Languages, entry journal.Entry) (journal.Languages, error) {
	if err := journal.Apply(state, a.Proto, entry.Difference); err != nil {
		return state, fmt.Errorf("apply entry %d: %w", entry.Seq, err)
	}
	return state, nil
}

var tracer = otel.Tracer("github.com/yuuri3/TokiPonaLanguages/internal/replay")

// Replay applies entries in order and saves a checkpoint after each apply.
// It resumes after the stored checkpoint when one is newer than AfterSeq.
func Replay(ctx context.Context, store EntryStore, checkpoints CheckpointStore, applier Applier, runID string, state journal.Languages, options Options) (result Result, err error) {
	if store == nil {
		return Result{}, ErrEntryStoreRequired
	}
	if checkpoints == nil {
		return Result{}, ErrCheckpointStoreRequired
	}
	if applier == nil {
		return Result{}, ErrApplierRequired
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return Result{}, ErrRunIDRequired
	}

	ctx, span := tracer.Start(ctx, "replay.Replay")
	defer func() {
		span.SetAttributes(
			attribute.String("run.id", runID),
			attribute.Int("replay.applied", result.Applied),
			attribute.Int64("replay.last_seq", int64(result.LastSeq)),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "replay failed")
		}
		span.End()
	}()

	checkpointSeq := uint64(0)
	checkpoint, err := checkpoints.Get(ctx, runID)
	if err != nil {
		if !errors.Is(err, ErrCheckpointNotFound) {
			return Result{}, err
		}
	} else {
		checkpointSeq = checkpoint.LastSeq
	}

	lastSeq := options.AfterSeq
	if checkpointSeq > lastSeq {
		lastSeq = checkpointSeq
	}
	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	result = Result{State: state, LastSeq: lastSeq, LastEra: checkpoint.Era}
	for {
		entries, err := store.ListEntries(ctx, runID, result.LastSeq, pageSize)
		if err != nil {
			return result, err
		}
		if len(entries) == 0 {
			return result, nil
		}
		for _, entry := range entries {
			if options.UntilSeq > 0 && entry.Seq > options.UntilSeq {
				return result, nil
			}
			if options.EraBound && entry.Era() > options.UntilEra {
				return result, nil
			}
			expectedSeq := result.LastSeq + 1
			if entry.Seq != expectedSeq {
				return result, apperrors.WithMetadata(
					apperrors.CodeReplaySequenceGap,
					fmt.Sprintf("entry sequence gap: expected %d got %d", expectedSeq, entry.Seq),
					map[string]string{"run_id": runID},
				)
			}
			nextState, err := applier.Apply(result.State, entry)
			if err != nil {
				return result, err
			}
			result.State = nextState
			result.LastSeq = entry.Seq
			result.LastEra = entry.Era()
			result.Applied++
			if err := checkpoints.Save(ctx, Checkpoint{RunID: runID, LastSeq: result.LastSeq, Era: result.LastEra, UpdatedAt: time.Now().UTC()}); err != nil {
				return result, err
			}
		}
	}
}
