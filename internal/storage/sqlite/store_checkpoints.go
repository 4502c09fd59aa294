package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/yuuri3/TokiPonaLanguages/internal/replay"
)

var _ replay.CheckpointStore = (*Store)(nil)

// Get returns the replay checkpoint of a run, or replay.ErrCheckpointNotFound.
func (s *Store) Get(ctx context.Context, runID string) (replay.Checkpoint, error) {
	if err := s.check(ctx); err != nil {
		return replay.Checkpoint{}, err
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return replay.Checkpoint{}, replay.ErrRunIDRequired
	}
	var (
		cp        replay.Checkpoint
		updatedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT run_id, last_seq, era, updated_at FROM replay_checkpoints WHERE run_id = ?`, runID,
	).Scan(&cp.RunID, &cp.LastSeq, &cp.Era, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return replay.Checkpoint{}, replay.ErrCheckpointNotFound
	}
	if err != nil {
		return replay.Checkpoint{}, fmt.Errorf("get checkpoint: %w", err)
	}
	cp.UpdatedAt = fromMillis(updatedAt)
	return cp, nil
}

// Save upserts the replay checkpoint of a run.
func (s *Store) Save(ctx context.Context, cp replay.Checkpoint) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	cp.RunID = strings.TrimSpace(cp.RunID)
	if cp.RunID == "" {
		return replay.ErrRunIDRequired
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = s.now()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO replay_checkpoints (run_id, last_seq, era, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET last_seq = excluded.last_seq, era = excluded.era, updated_at = excluded.updated_at`,
		cp.RunID, cp.LastSeq, cp.Era, toMillis(cp.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// ResetCheckpoint removes a run's checkpoint so the next replay starts from
// the beginning.
func (s *Store) ResetCheckpoint(ctx context.Context, runID string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM replay_checkpoints WHERE run_id = ?`, strings.TrimSpace(runID)); err != nil {
		return fmt.Errorf("reset checkpoint: %w", err)
	}
	return nil
}
