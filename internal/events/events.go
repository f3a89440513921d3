// Package events writes the audit trail of store mutations to event_log
package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lherron/levelsweep/internal/domain"
)

// Event is one row of the audit trail
type Event struct {
	ID           int64
	Timestamp    string
	RunID        string
	ResourceType domain.Entity
	ResourceID   string
	EventType    string
	Payload      string
}

type runIDKey struct{}

// WithRunID tags every event written under ctx with the run id
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run id set by WithRunID, or ""
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// Writer handles writing events to the event log
type Writer struct {
	db    *sql.DB
	runID string
}

// NewWriter creates a new event writer
func NewWriter(db *sql.DB, runID string) *Writer {
	return &Writer{db: db, runID: runID}
}

// LogEvent writes an event to the event log
func (w *Writer) LogEvent(tx *sql.Tx, event *Event) error {
	query := `
		INSERT INTO event_log (run_id, resource_type, resource_id, event_type, payload)
		VALUES (?, ?, ?, ?, ?)
	`

	runID := event.RunID
	if runID == "" {
		runID = w.runID
	}
	_, err := w.getExecutor(tx).Exec(query, nullable(runID), string(event.ResourceType), event.ResourceID, event.EventType, nullable(event.Payload))
	if err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// LogLevelCreated logs a level creation event
func (w *Writer) LogLevelCreated(tx *sql.Tx, level *domain.Level) error {
	payload, err := json.Marshal(map[string]interface{}{
		"title":     level.Title,
		"author_id": level.AuthorID,
		"is_public": level.Public(),
	})
	if err != nil {
		return err
	}
	return w.LogEvent(tx, &Event{
		ResourceType: domain.EntityLevel,
		ResourceID:   level.ID,
		EventType:    "level.created",
		Payload:      string(payload),
	})
}

// LogUpdated logs the changed fields of a record
func (w *Writer) LogUpdated(tx *sql.Tx, entity domain.Entity, id string, changes map[string]interface{}) error {
	if _, ok := changes["data"]; ok {
		// documents can be large; record that it changed, not the content
		changes["data"] = "(changed)"
	}
	payload, err := json.Marshal(changes)
	if err != nil {
		return err
	}
	return w.LogEvent(tx, &Event{
		ResourceType: entity,
		ResourceID:   id,
		EventType:    string(entity) + ".updated",
		Payload:      string(payload),
	})
}

// LogDeleted logs a record deletion
func (w *Writer) LogDeleted(tx *sql.Tx, entity domain.Entity, id string) error {
	return w.LogEvent(tx, &Event{
		ResourceType: entity,
		ResourceID:   id,
		EventType:    string(entity) + ".deleted",
	})
}

// LogSettingsSet logs a settings write
func (w *Writer) LogSettingsSet(tx *sql.Tx, settings *domain.Settings) error {
	return w.LogEvent(tx, &Event{
		ResourceType: domain.EntitySettings,
		ResourceID:   settings.UserID,
		EventType:    "settings.set",
	})
}

// ListForResource returns the events of one record, oldest first
func (w *Writer) ListForResource(entity domain.Entity, id string) ([]Event, error) {
	rows, err := w.db.Query(`
		SELECT id, timestamp, COALESCE(run_id, ''), resource_type, COALESCE(resource_id, ''), event_type, COALESCE(payload, '')
		FROM event_log
		WHERE resource_type = ? AND resource_id = ?
		ORDER BY id
	`, string(entity), id)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var resourceType string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.RunID, &resourceType, &e.ResourceID, &e.EventType, &e.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.ResourceType = domain.Entity(resourceType)
		out = append(out, e)
	}
	return out, rows.Err()
}

// getExecutor returns the appropriate executor (tx or db)
func (w *Writer) getExecutor(tx *sql.Tx) interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
} {
	if tx != nil {
		return tx
	}
	return w.db
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
