package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/JonMunkholm/bomview/internal/audit"
)

// Config holds the service limits, usually filled from config.Config.
type Config struct {
	MaxFileSize          int64
	MaxConcurrentUploads int
	UploadWaitTime       time.Duration
	SessionIdleTimeout   time.Duration
	MaxSessions          int
}

// Sample is the bundled example table.
type Sample struct {
	Name string
	Raw  []byte
	Rows []Row
}

// Service is the entry point used by the web layer and tests.
type Service struct {
	sessions    *Sessions
	limiter     *UploadLimiter
	recorder    audit.Recorder
	maxFileSize int64

	sampleMu sync.RWMutex
	sample   *Sample
}

// NewService creates a service. A nil recorder logs audit entries with slog.
func NewService(cfg Config, rec audit.Recorder) *Service {
	if rec == nil {
		rec = audit.SlogRecorder{}
	}
	return &Service{
		sessions:    NewSessions(cfg.SessionIdleTimeout, cfg.MaxSessions),
		limiter:     NewUploadLimiter(cfg.MaxConcurrentUploads, cfg.UploadWaitTime),
		recorder:    rec,
		maxFileSize: cfg.MaxFileSize,
	}
}

// LoadSampleFile reads and decodes the sample CSV at path.
func (s *Service) LoadSampleFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read sample: %w", err)
	}
	return s.SetSample(filepath.Base(path), raw)
}

// SetSample decodes raw and installs it as the sample table.
func (s *Service) SetSample(name string, raw []byte) error {
	rows, err := Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decode sample %s: %w", name, err)
	}

	s.sampleMu.Lock()
	defer s.sampleMu.Unlock()
	s.sample = &Sample{Name: name, Raw: raw, Rows: rows}
	return nil
}

// SampleCSV returns the raw sample file.
func (s *Service) SampleCSV() ([]byte, error) {
	s.sampleMu.RLock()
	defer s.sampleMu.RUnlock()
	if s.sample == nil {
		return nil, ErrSampleUnavailable
	}
	return s.sample.Raw, nil
}

// HasSample reports whether a sample table is installed.
func (s *Service) HasSample() bool {
	s.sampleMu.RLock()
	defer s.sampleMu.RUnlock()
	return s.sample != nil
}

// Session returns the session for id, creating one if needed.
func (s *Service) Session(id string) (string, bool) {
	newID, _, created := s.sessions.GetOrCreate(id)
	return newID, created
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	return s.sessions.Len()
}

func (s *Service) store(sessionID string) (*Store, error) {
	st, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return st, nil
}

// Snapshot returns the current state of a session.
func (s *Service) Snapshot(sessionID string) (State, error) {
	st, err := s.store(sessionID)
	if err != nil {
		return State{}, err
	}
	return st.Snapshot(), nil
}

// Upload decodes a CSV and replaces the session's table with it. On a decode
// error the session state is left as it was.
func (s *Service) Upload(ctx context.Context, sessionID, fileName string, r io.Reader) (State, error) {
	st, err := s.store(sessionID)
	if err != nil {
		return State{}, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return State{}, err
	}
	res, err := DecodeLimited(r, s.maxFileSize)
	s.limiter.Release()
	if err != nil {
		return State{}, fmt.Errorf("upload %s: %w", fileName, err)
	}

	if len(res.Dropped) > 0 {
		slog.InfoContext(ctx, "upload columns dropped",
			"session_id", sessionID,
			"file", fileName,
			"dropped", res.Dropped,
		)
	}

	step, err := st.Dispatch(Load{FileName: fileName, Rows: res.Rows})
	if err != nil {
		return State{}, err
	}

	s.record(ctx, audit.Params{
		SessionID:    sessionID,
		Action:       audit.ActionUpload,
		RowsAffected: len(res.Rows),
		FileName:     fileName,
	})
	return step.Next, nil
}

// LoadSample replaces the session's table with the sample table.
func (s *Service) LoadSample(ctx context.Context, sessionID string) (State, error) {
	st, err := s.store(sessionID)
	if err != nil {
		return State{}, err
	}

	s.sampleMu.RLock()
	sample := s.sample
	s.sampleMu.RUnlock()
	if sample == nil {
		return State{}, ErrSampleUnavailable
	}

	step, err := st.Dispatch(Load{FileName: sample.Name, Rows: sample.Rows})
	if err != nil {
		return State{}, err
	}

	s.record(ctx, audit.Params{
		SessionID:    sessionID,
		Action:       audit.ActionSampleLoad,
		RowsAffected: len(sample.Rows),
		FileName:     sample.Name,
	})
	return step.Next, nil
}

// Dispatch applies events to a session as one unit and returns the new state.
// If any event fails, none is applied.
func (s *Service) Dispatch(ctx context.Context, sessionID string, events ...Event) (State, error) {
	st, err := s.store(sessionID)
	if err != nil {
		return State{}, err
	}
	if len(events) == 0 {
		return st.Snapshot(), nil
	}

	steps, err := st.DispatchAll(events...)
	if err != nil {
		return State{}, err
	}

	for _, step := range steps {
		if p, ok := auditParams(step); ok {
			p.SessionID = sessionID
			s.record(ctx, p)
		}
	}
	return steps[len(steps)-1].Next, nil
}

// Export writes the session's whole table (not the filtered view) as CSV
// with the default headers and returns the number of rows written.
func (s *Service) Export(ctx context.Context, sessionID string, w io.Writer) (int, error) {
	st, err := s.store(sessionID)
	if err != nil {
		return 0, err
	}

	state := st.Snapshot()
	if err := Encode(w, state.Table, DefaultHeaders); err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}

	s.record(ctx, audit.Params{
		SessionID:    sessionID,
		Action:       audit.ActionExport,
		RowsAffected: len(state.Table),
		FileName:     ExportFileName,
	})
	return len(state.Table), nil
}

// History returns recent audit entries for a session when the recorder can list them.
func (s *Service) History(ctx context.Context, sessionID string, limit int) ([]audit.Entry, error) {
	l, ok := s.recorder.(audit.Lister)
	if !ok {
		return nil, nil
	}
	return l.ListSession(ctx, sessionID, limit)
}

// UploadLimiterStatus returns the current state of the upload limiter.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until in-flight uploads finish or ctx is done.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// record stores an audit entry. Failures are logged, never returned.
func (s *Service) record(ctx context.Context, p audit.Params) {
	p.IPAddress = ipFromContext(ctx)
	p.UserAgent = userAgentFromContext(ctx)
	if err := s.recorder.Record(ctx, audit.NewEntry(p)); err != nil {
		slog.WarnContext(ctx, "audit record failed",
			"action", string(p.Action),
			"session_id", p.SessionID,
			"error", err,
		)
	}
}

// auditParams describes a reducer step for the audit log. Steps that do not
// change the table (opening a row, typing into the draft) are not recorded.
func auditParams(step Step) (audit.Params, bool) {
	switch ev := step.Event.(type) {
	case ChangeField:
		if !step.Prev.Cursor.Set {
			return audit.Params{}, false
		}
		i := step.Prev.Cursor.Index
		old, _ := step.Prev.Table[i].Get(ev.Key)
		return audit.Params{
			Action:   audit.ActionCellEdit,
			RowIndex: audit.Index(i),
			Field:    string(ev.Key),
			OldValue: old.String(),
			NewValue: ev.Value.String(),
		}, true

	case Save, Add:
		if step.Prev.Cursor.Set {
			return audit.Params{
				Action:   audit.ActionRowEdit,
				RowIndex: audit.Index(step.Prev.Cursor.Index),
			}, true
		}
		return audit.Params{
			Action:       audit.ActionRowAdd,
			RowIndex:     audit.Index(len(step.Prev.Table)),
			NewValue:     step.Prev.Draft.Name.String(),
			RowsAffected: 1,
		}, true

	case Delete:
		return audit.Params{
			Action:       audit.ActionRowDelete,
			RowIndex:     audit.Index(ev.Index),
			OldValue:     step.Prev.Table[ev.Index].Name.String(),
			RowsAffected: 1,
		}, true

	case Search:
		return audit.Params{Action: audit.ActionSearch, NewValue: ev.Term}, true

	case Reset:
		return audit.Params{Action: audit.ActionReset, RowsAffected: len(step.Prev.Table)}, true
	}
	return audit.Params{}, false
}
