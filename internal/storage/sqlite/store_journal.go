package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuuri3/TokiPonaLanguages/internal/journal"
	"github.com/yuuri3/TokiPonaLanguages/internal/journal/integrity"
	apperrors "github.com/yuuri3/TokiPonaLanguages/internal/platform/errors"
)

const defaultPageSize = 200

// AppendEntries atomically appends entries to a run's journal. Sequence
// numbers must continue the stored journal without gaps. Each entry is hash
// chained to its predecessor and signed when a keyring is configured.
func (s *Store) AppendEntries(ctx context.Context, runID string, entries []journal.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := s.check(ctx); err != nil {
		return err
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return fmt.Errorf("run id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE run_id = ?`, runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.WithMetadata(apperrors.CodeNotFound,
			fmt.Sprintf("run %s not found", runID),
			map[string]string{"run_id": runID})
	}
	if err != nil {
		return fmt.Errorf("load run: %w", err)
	}

	var (
		lastSeq  uint64
		prevHash string
	)
	err = tx.QueryRowContext(ctx,
		`SELECT seq, chain_hash FROM journal_entries WHERE run_id = ? ORDER BY seq DESC LIMIT 1`,
		runID,
	).Scan(&lastSeq, &prevHash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("load previous entry: %w", err)
	}

	recordedAt := toMillis(s.now())
	for _, entry := range entries {
		if entry.Seq != lastSeq+1 {
			return apperrors.WithMetadata(apperrors.CodeReplaySequenceGap,
				fmt.Sprintf("entry sequence gap: expected %d got %d", lastSeq+1, entry.Seq),
				map[string]string{"run_id": runID})
		}
		env, err := journal.Encode(entry)
		if err != nil {
			return fmt.Errorf("encode entry %d: %w", entry.Seq, err)
		}
		entryHash, err := integrity.EntryHash(runID, env)
		if err != nil {
			return fmt.Errorf("entry %d hash: %w", entry.Seq, err)
		}
		chainHash, err := integrity.ChainHash(runID, entry.Seq, entryHash, prevHash)
		if err != nil {
			return fmt.Errorf("entry %d chain hash: %w", entry.Seq, err)
		}
		var signature, keyID string
		if s.keyring != nil {
			signature, keyID, err = s.keyring.Sign(runID, chainHash)
			if err != nil {
				return fmt.Errorf("entry %d sign: %w", entry.Seq, err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO journal_entries (run_id, seq, era, entry_type, payload_json, entry_hash, prev_hash, chain_hash, signature_key_id, signature, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, entry.Seq, env.Era, string(env.Type), string(env.Payload),
			entryHash, prevHash, chainHash, keyID, signature, recordedAt,
		); err != nil {
			return fmt.Errorf("append entry %d: %w", entry.Seq, err)
		}
		prevHash = chainHash
		lastSeq = entry.Seq
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListEntries returns up to limit entries with Seq greater than afterSeq, in
// sequence order.
func (s *Store) ListEntries(ctx context.Context, runID string, afterSeq uint64, limit int) ([]journal.Entry, error) {
	rows, err := s.listRows(ctx, runID, afterSeq, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]journal.Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := journal.Decode(row.envelope())
		if err != nil {
			return nil, fmt.Errorf("decode entry %d: %w", row.seq, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type entryRow struct {
	seq       uint64
	era       int
	entryType string
	payload   string
	entryHash string
	prevHash  string
	chainHash string
	keyID     string
	signature string
}

func (r entryRow) envelope() journal.Envelope {
	return journal.Envelope{Seq: r.seq, Type: journal.Type(r.entryType), Era: r.era, Payload: []byte(r.payload)}
}

func (s *Store) listRows(ctx context.Context, runID string, afterSeq uint64, limit int) ([]entryRow, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT seq, era, entry_type, payload_json, entry_hash, prev_hash, chain_hash, signature_key_id, signature
		 FROM journal_entries WHERE run_id = ? AND seq > ? ORDER BY seq LIMIT ?`,
		strings.TrimSpace(runID), afterSeq, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []entryRow
	for rows.Next() {
		var r entryRow
		if err := rows.Scan(&r.seq, &r.era, &r.entryType, &r.payload, &r.entryHash, &r.prevHash, &r.chainHash, &r.keyID, &r.signature); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

// VerifyRun recomputes the hash chain of a run and checks every signature
// when a keyring is configured.
func (s *Store) VerifyRun(ctx context.Context, runID string) error {
	runID = strings.TrimSpace(runID)
	var lastSeq uint64
	prevHash := ""
	for {
		rows, err := s.listRows(ctx, runID, lastSeq, defaultPageSize)
		if err != nil {
			return fmt.Errorf("list entries run_id=%s: %w", runID, err)
		}
		if len(rows) == 0 {
			return nil
		}
		for _, r := range rows {
			if r.seq != lastSeq+1 {
				return mismatch(runID, r.seq, fmt.Sprintf("entry sequence gap: expected %d", lastSeq+1))
			}
			if r.prevHash != prevHash {
				return mismatch(runID, r.seq, "prev hash mismatch")
			}
			entryHash, err := integrity.EntryHash(runID, r.envelope())
			if err != nil {
				return fmt.Errorf("compute entry hash run_id=%s seq=%d: %w", runID, r.seq, err)
			}
			if entryHash != r.entryHash {
				return mismatch(runID, r.seq, "entry hash mismatch")
			}
			chainHash, err := integrity.ChainHash(runID, r.seq, entryHash, prevHash)
			if err != nil {
				return fmt.Errorf("compute chain hash run_id=%s seq=%d: %w", runID, r.seq, err)
			}
			if chainHash != r.chainHash {
				return mismatch(runID, r.seq, "chain hash mismatch")
			}
			if s.keyring != nil {
				if err := s.keyring.Verify(runID, chainHash, r.signature, r.keyID); err != nil {
					return apperrors.Wrap(apperrors.CodeIntegrityMismatch,
						fmt.Sprintf("signature mismatch run_id=%s seq=%d", runID, r.seq), err)
				}
			}
			prevHash = r.chainHash
			lastSeq = r.seq
		}
	}
}

func mismatch(runID string, seq uint64, message string) error {
	return apperrors.WithMetadata(apperrors.CodeIntegrityMismatch,
		fmt.Sprintf("%s run_id=%s seq=%d", message, runID, seq),
		map[string]string{"run_id": runID, "seq": strconv.FormatUint(seq, 10)})
}
