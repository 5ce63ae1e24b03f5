// Package audit records what happened to each session's BOM table.
//
// Entries are an event trail for operators; they never restore a table.
// A Recorder failing must not fail the user operation that produced the entry,
// so callers log Record errors and carry on.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action represents the type of action being audited.
type Action string

const (
	ActionUpload     Action = "upload"
	ActionSampleLoad Action = "sample_load"
	ActionRowAdd     Action = "row_add"
	ActionRowEdit    Action = "row_edit"
	ActionCellEdit   Action = "cell_edit"
	ActionRowDelete  Action = "row_delete"
	ActionSearch     Action = "search"
	ActionExport     Action = "export"
	ActionReset      Action = "reset"
)

// Severity represents the severity level of an audit entry.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Entry is a single audit log entry.
type Entry struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"sessionId"`
	Action       Action    `json:"action"`
	Severity     Severity  `json:"severity"`
	RowIndex     *int      `json:"rowIndex,omitempty"`
	Field        string    `json:"field,omitempty"`
	OldValue     string    `json:"oldValue,omitempty"`
	NewValue     string    `json:"newValue,omitempty"`
	RowsAffected int       `json:"rowsAffected,omitempty"`
	FileName     string    `json:"fileName,omitempty"`
	IPAddress    string    `json:"ipAddress,omitempty"`
	UserAgent    string    `json:"userAgent,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Params contains the caller-supplied parts of an entry.
type Params struct {
	SessionID    string
	Action       Action
	RowIndex     *int
	Field        string
	OldValue     string
	NewValue     string
	RowsAffected int
	FileName     string
	IPAddress    string
	UserAgent    string
}

// Recorder stores audit entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Lister is implemented by recorders that can read entries back.
type Lister interface {
	ListSession(ctx context.Context, sessionID string, limit int) ([]Entry, error)
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action Action) Severity {
	switch action {
	case ActionUpload, ActionSampleLoad, ActionRowDelete:
		return SeverityHigh
	case ActionReset:
		return SeverityCritical
	case ActionSearch, ActionExport:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// NewEntry completes p into an Entry with a fresh ID, severity and timestamp.
func NewEntry(p Params) Entry {
	return Entry{
		ID:           uuid.NewString(),
		SessionID:    p.SessionID,
		Action:       p.Action,
		Severity:     determineSeverity(p.Action),
		RowIndex:     p.RowIndex,
		Field:        p.Field,
		OldValue:     p.OldValue,
		NewValue:     p.NewValue,
		RowsAffected: p.RowsAffected,
		FileName:     p.FileName,
		IPAddress:    p.IPAddress,
		UserAgent:    p.UserAgent,
		CreatedAt:    time.Now().UTC(),
	}
}

// Index is a convenience for filling Params.RowIndex.
func Index(i int) *int { return &i }

// Tee fans an entry out to several recorders. Every recorder is tried; the
// first error is returned.
type Tee []Recorder

// Record implements Recorder.
func (t Tee) Record(ctx context.Context, e Entry) error {
	var first error
	for _, r := range t {
		if err := r.Record(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ListSession reads from the first member that can list.
func (t Tee) ListSession(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	for _, r := range t {
		if l, ok := r.(Lister); ok {
			return l.ListSession(ctx, sessionID, limit)
		}
	}
	return nil, nil
}

// PurgeOlderThan purges every member that supports it and returns the
// largest count any member removed.
func (t Tee) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	var (
		most  int64
		first error
	)
	for _, r := range t {
		p, ok := r.(Purger)
		if !ok {
			continue
		}
		n, err := p.PurgeOlderThan(ctx, age)
		if err != nil && first == nil {
			first = err
		}
		most = max(most, n)
	}
	return most, first
}
