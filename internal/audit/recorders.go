package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SlogRecorder writes entries to a structured logger.
type SlogRecorder struct {
	Logger *slog.Logger
}

// Record implements Recorder.
func (r SlogRecorder) Record(ctx context.Context, e Entry) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{
		"audit_id", e.ID,
		"session_id", e.SessionID,
		"action", string(e.Action),
		"severity", string(e.Severity),
	}
	if e.RowIndex != nil {
		attrs = append(attrs, "row", *e.RowIndex)
	}
	if e.Field != "" {
		attrs = append(attrs, "field", e.Field, "old", e.OldValue, "new", e.NewValue)
	}
	if e.RowsAffected > 0 {
		attrs = append(attrs, "rows", e.RowsAffected)
	}
	if e.FileName != "" {
		attrs = append(attrs, "file", e.FileName)
	}

	logger.InfoContext(ctx, "audit", attrs...)
	return nil
}

// MemoryRecorder keeps the most recent entries in memory.
// It backs the session history view when no database is configured.
type MemoryRecorder struct {
	mu      sync.RWMutex
	entries []Entry
	max     int
}

// NewMemoryRecorder keeps at most max entries (1000 if max <= 0).
func NewMemoryRecorder(max int) *MemoryRecorder {
	if max <= 0 {
		max = 1000
	}
	return &MemoryRecorder{max: max}
}

// Record implements Recorder.
func (m *MemoryRecorder) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, e)
	if over := len(m.entries) - m.max; over > 0 {
		m.entries = append(m.entries[:0], m.entries[over:]...)
	}
	return nil
}

// ListSession returns the newest entries for sessionID, newest first.
func (m *MemoryRecorder) ListSession(_ context.Context, sessionID string, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Entry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].SessionID != sessionID {
			continue
		}
		out = append(out, m.entries[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Len returns the number of retained entries.
func (m *MemoryRecorder) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// PurgeOlderThan implements Purger.
func (m *MemoryRecorder) PurgeOlderThan(_ context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age)

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[:0]
	for _, e := range m.entries {
		if !e.CreatedAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	purged := int64(len(m.entries) - len(kept))
	m.entries = kept
	return purged, nil
}
