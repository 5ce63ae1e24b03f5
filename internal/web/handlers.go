package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/bomview/internal/core"
	"github.com/JonMunkholm/bomview/internal/logging"
	"github.com/JonMunkholm/bomview/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead is allowed on top of the file size limit for the
// multipart envelope and other form fields.
const multipartOverhead = 1 << 20

// handlePage renders the upload view or the table view.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, nil)
}

// renderPage renders the full page for the caller's session.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, alert *templates.Alert) {
	state, err := s.service.Snapshot(sessionID(r))
	if err != nil {
		state = core.NewState()
	}
	// A "q" query narrows this render only; POST /search stores the term.
	if q, ok := r.URL.Query()["q"]; ok && r.Method == http.MethodGet {
		state.SearchTerm = first(q)
	}

	page := templates.Page(templates.PageData{
		State:       state,
		Alert:       alert,
		HasSample:   s.service.HasSample(),
		MaxFileSize: s.cfg.Upload.MaxFileSize,
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}

// handleUpload replaces the session's table with an uploaded CSV.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := s.upload(w, r); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.afterMutation(w, r)
}

// upload reads the "file" part of a multipart form into the session.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			return fmt.Errorf("%w: request exceeds %d bytes", core.ErrFileTooLarge, mbe.Limit)
		case errors.Is(err, http.ErrMissingFile):
			return errNoFile
		}
		return fmt.Errorf("read upload: %w", err)
	}
	defer file.Close()

	ctx := WithRequestMetadata(r.Context(), r)
	logger := logging.WithFields(ctx, "file", header.Filename, "size", header.Size)
	logger.Info("upload started")

	state, err := s.service.Upload(ctx, sessionID(r), header.Filename, file)
	if err != nil {
		return err
	}

	logger.Info("upload completed", "rows", len(state.Table))
	return nil
}

// handleLoadSample loads the bundled sample table into the session.
func (s *Server) handleLoadSample(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	if _, err := s.service.LoadSample(ctx, sessionID(r)); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.afterMutation(w, r)
}

// handleSampleCSV serves the raw sample file.
func (s *Server) handleSampleCSV(w http.ResponseWriter, r *http.Request) {
	raw, err := s.service.SampleCSV()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Write(raw)
}

// handleSearch sets the search term.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, core.Search{Term: r.PostFormValue("q")})
}

// handleBeginEdit opens a row for editing.
func (s *Server) handleBeginEdit(w http.ResponseWriter, r *http.Request) {
	index, err := rowIndex(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.dispatch(w, r, core.BeginEdit{Index: index})
}

// handleSaveRow writes the submitted fields into a row and closes it. The
// row is opened first, so a save for a row other than the one under edit
// still lands on the row named in the URL.
func (s *Server) handleSaveRow(w http.ResponseWriter, r *http.Request) {
	index, err := rowIndex(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %w", core.ErrInvalidEvent, err))
		return
	}

	events := []core.Event{core.BeginEdit{Index: index}}
	events = append(events, formChanges(r)...)
	events = append(events, core.Save{})
	s.dispatch(w, r, events...)
}

// handleDeleteRow removes a row.
func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	index, err := rowIndex(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.dispatch(w, r, core.Delete{Index: index})
}

// handleAddDraft fills the draft from the form and appends it.
func (s *Server) handleAddDraft(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %w", core.ErrInvalidEvent, err))
		return
	}

	events := formChanges(r)
	events = append(events, core.Add{})
	s.dispatch(w, r, events...)
}

// handleReset discards the table and returns to the upload view.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, core.Reset{})
}

// handleExport downloads the whole table as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)

	var buf bytes.Buffer
	n, err := s.service.Export(ctx, sessionID(r), &buf)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", core.ExportFileName))
	w.Header().Set("X-Row-Count", strconv.Itoa(n))
	w.Write(buf.Bytes())
}

// dispatch applies events to the caller's session as one unit.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, events ...core.Event) {
	ctx := WithRequestMetadata(r.Context(), r)
	if _, err := s.service.Dispatch(ctx, sessionID(r), events...); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.afterMutation(w, r)
}

// afterMutation answers a successful form post: JSON clients get the new
// state, HTMX asks the browser to reload, browsers are redirected to the page.
func (s *Server) afterMutation(w http.ResponseWriter, r *http.Request) {
	switch {
	case wantsJSON(r):
		s.writeState(w, r, http.StatusOK)
	case isHTMX(r):
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// formChanges turns submitted row fields into ChangeField events. Text
// inputs stay text. The fulfilled checkbox is a bool and an absent
// checkbox means false.
func formChanges(r *http.Request) []core.Event {
	var events []core.Event
	for _, key := range core.Fields {
		if key == core.FieldFulfilled {
			events = append(events, core.ChangeField{
				Key:   key,
				Value: core.BoolValue(r.PostForm.Get(string(key)) != ""),
			})
			continue
		}
		if vals, ok := r.PostForm[string(key)]; ok {
			events = append(events, core.ChangeField{Key: key, Value: core.TextValue(first(vals))})
		}
	}
	return events
}

// rowIndex parses the {index} URL parameter.
func rowIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("row %q: %w", raw, core.ErrIndexOutOfRange)
	}
	return i, nil
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
