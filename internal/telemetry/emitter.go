// Package telemetry records operational events about runs. They are kept
// apart from the journal and never take part in replay.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/yuuri3/TokiPonaLanguages/internal/storage"
)

// Severity describes the telemetry severity level.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

// Event names.
const (
	EventRunStarted   = "run.started"
	EventRunConverged = "run.converged"
	EventRunAborted   = "run.aborted"
	EventRunReplayed  = "run.replayed"
)

// Emitter records operational telemetry events.
type Emitter struct {
	store storage.TelemetryStore
	clock func() time.Time
}

// NewEmitter creates a new telemetry emitter.
func NewEmitter(store storage.TelemetryStore) *Emitter {
	return &Emitter{store: store, clock: time.Now}
}

// Emit records a telemetry event. It is a no-op when the store is nil. Trace
// and span ids are taken from ctx when the event carries none.
func (e *Emitter) Emit(ctx context.Context, evt storage.TelemetryEvent) error {
	if e == nil || e.store == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		if e.clock == nil {
			evt.Timestamp = time.Now().UTC()
		} else {
			evt.Timestamp = e.clock().UTC()
		}
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		if evt.TraceID == "" {
			evt.TraceID = sc.TraceID().String()
		}
		if evt.SpanID == "" {
			evt.SpanID = sc.SpanID().String()
		}
	}
	return e.store.AppendTelemetryEvent(ctx, evt)
}

// RunStarted records the start of a run.
func (e *Emitter) RunStarted(ctx context.Context, runID string, seed int64) error {
	return e.Emit(ctx, storage.TelemetryEvent{
		EventName:  EventRunStarted,
		Severity:   string(SeverityInfo),
		RunID:      runID,
		Attributes: map[string]any{"seed": seed},
	})
}

// RunConverged records that every location was reached.
func (e *Emitter) RunConverged(ctx context.Context, runID string, era, entries int) error {
	return e.Emit(ctx, storage.TelemetryEvent{
		EventName:  EventRunConverged,
		Severity:   string(SeverityInfo),
		RunID:      runID,
		Attributes: map[string]any{"era": era, "entries": entries},
	})
}

// RunAborted records a run that stopped before converging.
func (e *Emitter) RunAborted(ctx context.Context, runID string, era int, cause error) error {
	attrs := map[string]any{"era": era}
	if cause != nil {
		attrs["error"] = cause.Error()
	}
	return e.Emit(ctx, storage.TelemetryEvent{
		EventName:  EventRunAborted,
		Severity:   string(SeverityWarn),
		RunID:      runID,
		Attributes: attrs,
	})
}

// RunReplayed records a replay of a stored run.
func (e *Emitter) RunReplayed(ctx context.Context, runID string, lastSeq uint64, era int) error {
	return e.Emit(ctx, storage.TelemetryEvent{
		EventName:  EventRunReplayed,
		Severity:   string(SeverityInfo),
		RunID:      runID,
		Attributes: map[string]any{"last_seq": lastSeq, "era": era},
	})
}
