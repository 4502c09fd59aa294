package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yuuri3/TokiPonaLanguages/internal/storage"
)

// AppendTelemetryEvent records an operational telemetry event.
func (s *Store) AppendTelemetryEvent(ctx context.Context, evt storage.TelemetryEvent) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(evt.EventName) == "" {
		return fmt.Errorf("event name is required")
	}
	if strings.TrimSpace(evt.Severity) == "" {
		return fmt.Errorf("severity is required")
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = s.now()
	}
	if len(evt.AttributesJSON) == 0 && len(evt.Attributes) > 0 {
		payload, err := json.Marshal(evt.Attributes)
		if err != nil {
			return fmt.Errorf("marshal telemetry attributes: %w", err)
		}
		evt.AttributesJSON = payload
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO telemetry_events (timestamp, event_name, severity, run_id, trace_id, span_id, attributes_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		toMillis(evt.Timestamp), evt.EventName, evt.Severity,
		toNullString(evt.RunID), toNullString(evt.TraceID), toNullString(evt.SpanID), evt.AttributesJSON,
	)
	if err != nil {
		return fmt.Errorf("append telemetry event: %w", err)
	}
	return nil
}

// ListTelemetryEvents returns a run's telemetry events, oldest first.
func (s *Store) ListTelemetryEvents(ctx context.Context, runID string) ([]storage.TelemetryEvent, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT timestamp, event_name, severity, COALESCE(run_id, ''), COALESCE(trace_id, ''), COALESCE(span_id, ''), attributes_json
		 FROM telemetry_events WHERE run_id = ? ORDER BY timestamp, id`,
		strings.TrimSpace(runID),
	)
	if err != nil {
		return nil, fmt.Errorf("list telemetry events: %w", err)
	}
	defer rows.Close()

	var out []storage.TelemetryEvent
	for rows.Next() {
		var (
			evt       storage.TelemetryEvent
			timestamp int64
		)
		if err := rows.Scan(&timestamp, &evt.EventName, &evt.Severity, &evt.RunID, &evt.TraceID, &evt.SpanID, &evt.AttributesJSON); err != nil {
			return nil, fmt.Errorf("scan telemetry event: %w", err)
		}
		evt.Timestamp = fromMillis(timestamp)
		out = append(out, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate telemetry events: %w", err)
	}
	return out, nil
}
