package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

func TestDetermineSeverity(t *testing.T) {
	tests := []struct {
		action Action
		want   Severity
	}{
		{ActionUpload, SeverityHigh},
		{ActionSampleLoad, SeverityHigh},
		{ActionRowDelete, SeverityHigh},
		{ActionReset, SeverityCritical},
		{ActionSearch, SeverityLow},
		{ActionExport, SeverityLow},
		{ActionRowAdd, SeverityMedium},
		{ActionRowEdit, SeverityMedium},
		{ActionCellEdit, SeverityMedium},
	}

	for _, tt := range tests {
		if got := determineSeverity(tt.action); got != tt.want {
			t.Errorf("determineSeverity(%q) = %q, want %q", tt.action, got, tt.want)
		}
	}
}

func TestNewEntry(t *testing.T) {
	before := time.Now().UTC()
	e := NewEntry(Params{
		SessionID: "s1",
		Action:    ActionCellEdit,
		RowIndex:  Index(0),
		Field:     "quantity",
		OldValue:  "1",
		NewValue:  "2",
	})

	if _, err := uuid.Parse(e.ID); err != nil {
		t.Errorf("ID %q is not a uuid: %v", e.ID, err)
	}
	if e.Severity != SeverityMedium {
		t.Errorf("Severity = %q, want %q", e.Severity, SeverityMedium)
	}
	if e.RowIndex == nil || *e.RowIndex != 0 {
		t.Errorf("RowIndex = %v, want 0", e.RowIndex)
	}
	if e.CreatedAt.Before(before) {
		t.Errorf("CreatedAt %v before %v", e.CreatedAt, before)
	}
	if e.Field != "quantity" || e.OldValue != "1" || e.NewValue != "2" {
		t.Errorf("unexpected change fields: %+v", e)
	}
}

func TestMemoryRecorder_Ring(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRecorder(3)

	for i := 0; i < 5; i++ {
		_ = m.Record(ctx, NewEntry(Params{SessionID: "s1", Action: ActionSearch, NewValue: string(rune('a' + i))}))
	}

	if got := m.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	entries, err := m.ListSession(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("ListSession() error = %v", err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.NewValue)
	}
	if strings.Join(got, "") != "edc" {
		t.Errorf("entries newest first = %q, want %q", strings.Join(got, ""), "edc")
	}
}

func TestMemoryRecorder_ListSession(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRecorder(0)

	_ = m.Record(ctx, NewEntry(Params{SessionID: "a", Action: ActionUpload}))
	_ = m.Record(ctx, NewEntry(Params{SessionID: "b", Action: ActionUpload}))
	_ = m.Record(ctx, NewEntry(Params{SessionID: "a", Action: ActionRowAdd}))
	_ = m.Record(ctx, NewEntry(Params{SessionID: "a", Action: ActionExport}))

	all, _ := m.ListSession(ctx, "a", 0)
	if len(all) != 3 {
		t.Fatalf("got %d entries for a, want 3", len(all))
	}
	if all[0].Action != ActionExport {
		t.Errorf("first entry = %q, want newest %q", all[0].Action, ActionExport)
	}

	limited, _ := m.ListSession(ctx, "a", 2)
	if len(limited) != 2 {
		t.Errorf("got %d entries with limit 2", len(limited))
	}

	none, _ := m.ListSession(ctx, "missing", 0)
	if len(none) != 0 {
		t.Errorf("got %d entries for unknown session", len(none))
	}
}

func TestMemoryRecorder_PurgeOlderThan(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRecorder(10)

	old := NewEntry(Params{SessionID: "s", Action: ActionUpload})
	old.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	_ = m.Record(ctx, old)
	_ = m.Record(ctx, NewEntry(Params{SessionID: "s", Action: ActionExport}))

	purged, err := m.PurgeOlderThan(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("PurgeOlderThan() error = %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestSlogRecorder(t *testing.T) {
	var buf bytes.Buffer
	r := SlogRecorder{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	err := r.Record(context.Background(), NewEntry(Params{
		SessionID:    "s1",
		Action:       ActionRowDelete,
		RowIndex:     Index(4),
		RowsAffected: 1,
	}))
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"action=row_delete", "session_id=s1", "row=4", "severity=high"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

type failingRecorder struct{ err error }

func (f failingRecorder) Record(context.Context, Entry) error { return f.err }

func (f failingRecorder) PurgeOlderThan(context.Context, time.Duration) (int64, error) {
	return 0, f.err
}

func TestTee(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	first := NewMemoryRecorder(10)
	second := NewMemoryRecorder(10)
	tee := Tee{failingRecorder{err: boom}, first, second}

	err := tee.Record(ctx, NewEntry(Params{SessionID: "s", Action: ActionUpload}))
	if !errors.Is(err, boom) {
		t.Errorf("Record() error = %v, want %v", err, boom)
	}
	if first.Len() != 1 || second.Len() != 1 {
		t.Errorf("members not all recorded: %d, %d", first.Len(), second.Len())
	}

	entries, err := tee.ListSession(ctx, "s", 0)
	if err != nil || len(entries) != 1 {
		t.Errorf("ListSession() = %d entries, %v", len(entries), err)
	}
}

func TestTee_PurgeOlderThan(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRecorder(10)
	old := NewEntry(Params{SessionID: "s", Action: ActionUpload})
	old.CreatedAt = time.Now().Add(-time.Hour)
	_ = m.Record(ctx, old)
	_ = m.Record(ctx, old)

	tee := Tee{SlogRecorder{}, m}
	purged, err := tee.PurgeOlderThan(ctx, time.Minute)
	if err != nil {
		t.Fatalf("PurgeOlderThan() error = %v", err)
	}
	if purged != 2 {
		t.Errorf("purged = %d, want 2", purged)
	}

	boom := errors.New("boom")
	if _, err := (Tee{failingRecorder{err: boom}, m}).PurgeOlderThan(ctx, time.Minute); !errors.Is(err, boom) {
		t.Errorf("PurgeOlderThan() error = %v, want %v", err, boom)
	}
}

func TestTee_NoLister(t *testing.T) {
	entries, err := Tee{SlogRecorder{}}.ListSession(context.Background(), "s", 10)
	if err != nil || entries != nil {
		t.Errorf("ListSession() = %v, %v, want nil, nil", entries, err)
	}
}

type execCall struct {
	sql  string
	args []interface{}
}

type fakeDB struct {
	calls []execCall
	tag   pgconn.CommandTag
	err   error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return f.tag, f.err
}

func (f *fakeDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func TestPgRecorder_Record(t *testing.T) {
	db := &fakeDB{}
	r := NewPgRecorder(db)

	e := NewEntry(Params{SessionID: "s1", Action: ActionCellEdit, RowIndex: Index(0), Field: "name"})
	if err := r.Record(context.Background(), e); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if len(db.calls) != 1 {
		t.Fatalf("got %d Exec calls, want 1", len(db.calls))
	}
	args := db.calls[0].args
	if len(args) != 13 {
		t.Fatalf("got %d args, want 13", len(args))
	}
	if idx, ok := args[4].(pgtype.Int4); !ok || !idx.Valid || idx.Int32 != 0 {
		t.Errorf("row_index arg = %#v, want valid 0", args[4])
	}
	if old, ok := args[6].(pgtype.Text); !ok || old.Valid {
		t.Errorf("old_value arg = %#v, want NULL", args[6])
	}
}

func TestPgRecorder_RecordBadID(t *testing.T) {
	r := NewPgRecorder(&fakeDB{})
	if err := r.Record(context.Background(), Entry{ID: "not-a-uuid"}); err == nil {
		t.Error("Record() expected error for malformed id")
	}
}

func TestPgRecorder_PurgeOlderThan(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("DELETE 3")}
	r := NewPgRecorder(db)

	n, err := r.PurgeOlderThan(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("PurgeOlderThan() error = %v", err)
	}
	if n != 3 {
		t.Errorf("purged = %d, want 3", n)
	}
}

func TestPgRecorder_ListSessionError(t *testing.T) {
	r := NewPgRecorder(&fakeDB{})
	if _, err := r.ListSession(context.Background(), "s", 0); err == nil {
		t.Error("ListSession() expected query error")
	}
}

func TestPgConverters(t *testing.T) {
	if toPgText("").Valid {
		t.Error("toPgText(\"\") should be NULL")
	}
	if v := toPgText("x"); !v.Valid || v.String != "x" {
		t.Errorf("toPgText(x) = %#v", v)
	}
	if toPgInt4(0).Valid {
		t.Error("toPgInt4(0) should be NULL")
	}
	if toPgInt4Ptr(nil).Valid {
		t.Error("toPgInt4Ptr(nil) should be NULL")
	}
	if v := toPgInt4Ptr(Index(0)); !v.Valid || v.Int32 != 0 {
		t.Errorf("toPgInt4Ptr(0) = %#v, want valid 0", v)
	}
}
