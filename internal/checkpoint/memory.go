// Package checkpoint stores replay progress and state snapshots.
package checkpoint

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/yuuri3/TokiPonaLanguages/internal/journal"
	"github.com/yuuri3/TokiPonaLanguages/internal/replay"
)

var (
	// ErrRunIDRequired indicates a missing run id.
	ErrRunIDRequired = errors.New("run id is required")
)

// Memory stores checkpoints in memory.
type Memory struct {
	mu          sync.Mutex
	checkpoints map[string]replay.Checkpoint
	states      map[string]journal.Languages
}

// NewMemory creates a new in-memory checkpoint store.
func NewMemory() *Memory {
	return &Memory{
		checkpoints: make(map[string]replay.Checkpoint),
		states:      make(map[string]journal.Languages),
	}
}

func checkCall(ctx context.Context, m *Memory, runID string) (string, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
	if m == nil {
		return "", replay.ErrCheckpointStoreRequired
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return "", ErrRunIDRequired
	}
	return runID, nil
}

// Get retrieves a checkpoint by run id.
func (m *Memory) Get(ctx context.Context, runID string) (replay.Checkpoint, error) {
	runID, err := checkCall(ctx, m, runID)
	if err != nil {
		return replay.Checkpoint{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	checkpoint, ok := m.checkpoints[runID]
	if !ok {
		return replay.Checkpoint{}, replay.ErrCheckpointNotFound
	}
	return checkpoint, nil
}

// Save persists a checkpoint.
func (m *Memory) Save(ctx context.Context, checkpoint replay.Checkpoint) error {
	runID, err := checkCall(ctx, m, checkpoint.RunID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	checkpoint.RunID = runID
	m.checkpoints[runID] = checkpoint
	return nil
}

// GetState returns a copy of the stored snapshot and the checkpoint it
// belongs to.
func (m *Memory) GetState(ctx context.Context, runID string) (journal.Languages, replay.Checkpoint, error) {
	runID, err := checkCall(ctx, m, runID)
	if err != nil {
		return nil, replay.Checkpoint{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot, ok := m.states[runID]
	if !ok {
		return nil, replay.Checkpoint{}, replay.ErrCheckpointNotFound
	}
	checkpoint, ok := m.checkpoints[runID]
	if !ok {
		return nil, replay.Checkpoint{}, replay.ErrCheckpointNotFound
	}
	return snapshot.Clone(), checkpoint, nil
}

// SaveState stores a copy of state as of lastSeq and era.
func (m *Memory) SaveState(ctx context.Context, runID string, lastSeq uint64, era int, state journal.Languages) error {
	runID, err := checkCall(ctx, m, runID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[runID] = state.Clone()
	m.checkpoints[runID] = replay.Checkpoint{
		RunID:     runID,
		LastSeq:   lastSeq,
		Era:       era,
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}
