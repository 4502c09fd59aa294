package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yuuri3/TokiPonaLanguages/internal/phonetics"
	apperrors "github.com/yuuri3/TokiPonaLanguages/internal/platform/errors"
	"github.com/yuuri3/TokiPonaLanguages/internal/storage"
)

const runColumns = `run_id, seed, proto_json, table_json, grid_json, seed_location, params_json, status, era, created_at, updated_at`

// CreateRun inserts a new run record. The status defaults to running.
func (s *Store) CreateRun(ctx context.Context, run storage.RunRecord) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	run.RunID = strings.TrimSpace(run.RunID)
	if run.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if run.Status == "" {
		run.Status = storage.RunStatusRunning
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now()
	}
	if run.UpdatedAt.IsZero() {
		run.UpdatedAt = run.CreatedAt
	}
	params := run.ParamsJSON
	if len(params) == 0 {
		params = []byte("{}")
	}

	protoJSON, err := json.Marshal(nonNil(run.Proto))
	if err != nil {
		return fmt.Errorf("marshal proto: %w", err)
	}
	tableJSON, err := json.Marshal(nonNilRows([][]string(run.Table)))
	if err != nil {
		return fmt.Errorf("marshal table: %w", err)
	}
	gridJSON, err := json.Marshal(nonNilRows(run.Grid))
	if err != nil {
		return fmt.Errorf("marshal grid: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Seed, string(protoJSON), string(tableJSON), string(gridJSON),
		run.SeedLocation, string(params), string(run.Status), run.Era,
		toMillis(run.CreatedAt), toMillis(run.UpdatedAt),
	)
	if err != nil {
		if isConstraintError(err) {
			return apperrors.WithMetadata(apperrors.CodeParamInvalid,
				fmt.Sprintf("run %s already exists", run.RunID),
				map[string]string{"run_id": run.RunID})
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func nonNilRows(rows [][]string) [][]string {
	if rows == nil {
		return [][]string{}
	}
	return rows
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (storage.RunRecord, error) {
	var (
		run                            storage.RunRecord
		protoJSON, tableJSON, gridJSON string
		paramsJSON, status             string
		createdAt, updatedAt           int64
	)
	if err := row.Scan(&run.RunID, &run.Seed, &protoJSON, &tableJSON, &gridJSON,
		&run.SeedLocation, &paramsJSON, &status, &run.Era, &createdAt, &updatedAt); err != nil {
		return storage.RunRecord{}, err
	}
	if err := json.Unmarshal([]byte(protoJSON), &run.Proto); err != nil {
		return storage.RunRecord{}, fmt.Errorf("decode proto of run %s: %w", run.RunID, err)
	}
	var table [][]string
	if err := json.Unmarshal([]byte(tableJSON), &table); err != nil {
		return storage.RunRecord{}, fmt.Errorf("decode table of run %s: %w", run.RunID, err)
	}
	run.Table = phonetics.Table(table)
	if err := json.Unmarshal([]byte(gridJSON), &run.Grid); err != nil {
		return storage.RunRecord{}, fmt.Errorf("decode grid of run %s: %w", run.RunID, err)
	}
	run.ParamsJSON = []byte(paramsJSON)
	run.Status = storage.RunStatus(status)
	run.CreatedAt = fromMillis(createdAt)
	run.UpdatedAt = fromMillis(updatedAt)
	return run, nil
}

// GetRun loads a run record.
func (s *Store) GetRun(ctx context.Context, runID string) (storage.RunRecord, error) {
	if err := s.check(ctx); err != nil {
		return storage.RunRecord{}, err
	}
	runID = strings.TrimSpace(runID)
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.RunRecord{}, apperrors.WithMetadata(apperrors.CodeNotFound,
			fmt.Sprintf("run %s not found", runID),
			map[string]string{"run_id": runID})
	}
	if err != nil {
		return storage.RunRecord{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns every run, oldest first.
func (s *Store) ListRuns(ctx context.Context) ([]storage.RunRecord, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []storage.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// FinishRun records the final status and era of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, status storage.RunStatus, era int) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	runID = strings.TrimSpace(runID)
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE runs SET status = ?, era = ?, updated_at = ? WHERE run_id = ?`,
		string(status), era, toMillis(s.now()), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return apperrors.WithMetadata(apperrors.CodeNotFound,
			fmt.Sprintf("run %s not found", runID),
			map[string]string{"run_id": runID})
	}
	return nil
}
