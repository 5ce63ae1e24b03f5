package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the subset of pgx used by PgRecorder.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS bom_audit_log (
    id            UUID PRIMARY KEY,
    session_id    TEXT NOT NULL,
    action        TEXT NOT NULL,
    severity      TEXT NOT NULL,
    row_index     INTEGER,
    field         TEXT,
    old_value     TEXT,
    new_value     TEXT,
    rows_affected INTEGER,
    file_name     TEXT,
    ip_address    TEXT,
    user_agent    TEXT,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS bom_audit_log_session_idx ON bom_audit_log (session_id, created_at DESC);
`

const insertSQL = `
INSERT INTO bom_audit_log (
    id, session_id, action, severity, row_index, field, old_value, new_value,
    rows_affected, file_name, ip_address, user_agent, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

const listSessionSQL = `
SELECT id, session_id, action, severity, row_index, field, old_value, new_value,
       rows_affected, file_name, ip_address, user_agent, created_at
FROM bom_audit_log
WHERE session_id = $1
ORDER BY created_at DESC
LIMIT $2`

const purgeSQL = `DELETE FROM bom_audit_log WHERE created_at < $1`

// DefaultListLimit caps ListSession when no limit is given.
const DefaultListLimit = 100

// PgRecorder stores entries in the bom_audit_log table.
type PgRecorder struct {
	db DBTX
}

// NewPgRecorder returns a recorder writing through db.
func NewPgRecorder(db DBTX) *PgRecorder {
	return &PgRecorder{db: db}
}

// EnsureSchema creates the audit table if it does not exist.
func (r *PgRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create bom_audit_log: %w", err)
	}
	return nil
}

// Record implements Recorder.
func (r *PgRecorder) Record(ctx context.Context, e Entry) error {
	id, err := uuid.Parse(e.ID)
	if err != nil {
		return fmt.Errorf("audit id %q: %w", e.ID, err)
	}

	_, err = r.db.Exec(ctx, insertSQL,
		pgtype.UUID{Bytes: id, Valid: true},
		e.SessionID,
		string(e.Action),
		string(e.Severity),
		toPgInt4Ptr(e.RowIndex),
		toPgText(e.Field),
		toPgText(e.OldValue),
		toPgText(e.NewValue),
		toPgInt4(e.RowsAffected),
		toPgText(e.FileName),
		toPgText(e.IPAddress),
		toPgText(e.UserAgent),
		pgtype.Timestamptz{Time: e.CreatedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListSession implements Lister.
func (r *PgRecorder) ListSession(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.Query(ctx, listSessionSQL, sessionID, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			id                                                    pgtype.UUID
			e                                                     Entry
			action, severity                                      string
			rowIndex, rowsAffected                                pgtype.Int4
			field, oldValue, newValue, fileName, ipAddr, userAgnt pgtype.Text
			createdAt                                             pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &e.SessionID, &action, &severity, &rowIndex, &field, &oldValue,
			&newValue, &rowsAffected, &fileName, &ipAddr, &userAgnt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		if id.Valid {
			e.ID = uuid.UUID(id.Bytes).String()
		}
		e.Action = Action(action)
		e.Severity = Severity(severity)
		if rowIndex.Valid {
			e.RowIndex = Index(int(rowIndex.Int32))
		}
		e.Field = field.String
		e.OldValue = oldValue.String
		e.NewValue = newValue.String
		e.RowsAffected = int(rowsAffected.Int32)
		e.FileName = fileName.String
		e.IPAddress = ipAddr.String
		e.UserAgent = userAgnt.String
		e.CreatedAt = createdAt.Time
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PurgeOlderThan deletes entries created before now minus age.
func (r *PgRecorder) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)
	tag, err := r.db.Exec(ctx, purgeSQL, pgtype.Timestamptz{Time: cutoff, Valid: true})
	if err != nil {
		return 0, fmt.Errorf("purge audit entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Purger is implemented by recorders with retention support.
type Purger interface {
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// toPgText converts a string to pgtype.Text; empty strings become NULL.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// toPgInt4 converts an int to pgtype.Int4; zero becomes NULL.
func toPgInt4(i int) pgtype.Int4 {
	if i == 0 {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: int32(i), Valid: true}
}

// toPgInt4Ptr converts an optional int, keeping zero as a real value.
func toPgInt4Ptr(i *int) pgtype.Int4 {
	if i == nil {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: int32(*i), Valid: true}
}
