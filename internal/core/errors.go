package core

import "errors"

var (
	// ErrIndexOutOfRange is returned when an edit or delete names a row that
	// does not exist.
	ErrIndexOutOfRange = errors.New("row index out of range")

	// ErrUnknownField is returned for a field key outside the five BOM columns.
	ErrUnknownField = errors.New("unknown field")

	// ErrEditInProgress is returned by Add while a row is open for editing.
	ErrEditInProgress = errors.New("row edit in progress")

	// ErrNotLoaded is returned for table intents before any CSV was loaded.
	ErrNotLoaded = errors.New("no table loaded")

	// ErrSessionNotFound is returned for an unknown or expired session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSampleUnavailable is returned when no sample table could be read at startup.
	ErrSampleUnavailable = errors.New("sample unavailable")

	// ErrEmptyFile is returned when a CSV has no header row.
	ErrEmptyFile = errors.New("empty file: no header row")

	// ErrInvalidCSV wraps csv parse errors from an upload.
	ErrInvalidCSV = errors.New("invalid csv")

	// ErrFileTooLarge is returned when an upload exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnknownEvent is returned when an API event type is not recognised.
	ErrUnknownEvent = errors.New("unknown event type")

	// ErrInvalidEvent is returned for a malformed API event.
	ErrInvalidEvent = errors.New("invalid event")
)
