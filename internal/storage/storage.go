package storage

import (
	"context"
	"time"

	"github.com/yuuri3/TokiPonaLanguages/internal/journal"
	"github.com/yuuri3/TokiPonaLanguages/internal/phonetics"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusConverged RunStatus = "converged"
	RunStatusAborted   RunStatus = "aborted"
)

// RunRecord describes a persisted run.
type RunRecord struct {
	RunID        string
	Seed         int64
	Proto        []string
	Table        phonetics.Table
	Grid         [][]string
	SeedLocation string
	// ParamsJSON is the JSON encoding of the run's evolution parameters.
	ParamsJSON []byte
	Status     RunStatus
	Era        int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RunStore persists run records.
type RunStore interface {
	CreateRun(ctx context.Context, run RunRecord) error
	GetRun(ctx context.Context, runID string) (RunRecord, error)
	ListRuns(ctx context.Context) ([]RunRecord, error)
	FinishRun(ctx context.Context, runID string, status RunStatus, era int) error
}

// JournalStore persists journal entries in sequence order.
type JournalStore interface {
	AppendEntries(ctx context.Context, runID string, entries []journal.Entry) error
	ListEntries(ctx context.Context, runID string, afterSeq uint64, limit int) ([]journal.Entry, error)
	VerifyRun(ctx context.Context, runID string) error
}

// TelemetryEvent is one operational observation about a run.
type TelemetryEvent struct {
	Timestamp      time.Time
	EventName      string
	Severity       string
	RunID          string
	TraceID        string
	SpanID         string
	Attributes     map[string]any
	AttributesJSON []byte
}

// TelemetryStore persists operational telemetry records.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, evt TelemetryEvent) error
}
