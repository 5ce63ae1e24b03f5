// Package core provides the business logic for BOM table editing.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// Error codes are grouped by category:
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Patterns: "file too large"
//	FILE002 - Invalid CSV: File is not a valid CSV
//	          Patterns: "invalid csv"
//	FILE003 - Encoding error: File contains invalid characters
//	          Patterns: "encoding error"
//	FILE004 - No file: No file was selected
//	          Patterns: "no file provided"
//	FILE005 - Empty file: The uploaded file has no header row
//	          Patterns: "empty file"
//
// # Row Errors (ROW001-ROW099)
//
//	ROW001 - Row not found: The row no longer exists
//	         Patterns: "index out of range"
//	ROW002 - Unknown column: Column is not one of the BOM columns
//	         Patterns: "unknown field"
//	ROW003 - Edit in progress: Save the open row before adding another
//	         Patterns: "edit in progress"
//	ROW004 - No table: Upload a CSV first
//	         Patterns: "no table loaded"
//	ROW005 - Bad request: The event could not be understood
//	         Patterns: "unknown event", "invalid event"
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session expired: Session not found
//	         Patterns: "session not found"
//	SES002 - Sample unavailable: The sample table could not be loaded
//	         Patterns: "sample unavailable"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many uploads in progress
//	         Patterns: "too many concurrent uploads"
//	UPL004 - Request cancelled: Request was cancelled
//	         Patterns: "context canceled"
//	UPL005 - Request timeout: Request timed out
//	         Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Rate limited: Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Check the application logs for
// the original technical error.
//
// Patterns are matched case-insensitively with strings.Contains; the first
// matching pattern wins.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// The first match wins, so more specific patterns come first.
var errorPatterns = []errorPattern{
	// File
	{"file too large", UserMessage{Message: "File exceeds the maximum upload size", Action: "Split the BOM into smaller files", Code: "FILE001"}},
	{"invalid csv", UserMessage{Message: "File is not a valid CSV", Action: "Check for stray quotes and make sure the file is comma-separated", Code: "FILE002"}},
	{"encoding error", UserMessage{Message: "File contains invalid characters", Action: "Save file as UTF-8 encoding", Code: "FILE003"}},
	{"no file provided", UserMessage{Message: "No file was selected", Action: "Please select a CSV file to upload", Code: "FILE004"}},
	{"empty file", UserMessage{Message: "The uploaded file is empty", Action: "Upload a CSV with a header row", Code: "FILE005"}},

	// Row
	{"index out of range", UserMessage{Message: "That row no longer exists", Action: "Reload the table and try again", Code: "ROW001"}},
	{"unknown field", UserMessage{Message: "Unknown column", Action: "Use one of: name, description, quantity, cost_per_unit, fulfilled", Code: "ROW002"}},
	{"edit in progress", UserMessage{Message: "Another row is open for editing", Action: "Save the open row before adding a new one", Code: "ROW003"}},
	{"no table loaded", UserMessage{Message: "No table is loaded", Action: "Upload a CSV file or load the sample first", Code: "ROW004"}},
	{"unknown event", UserMessage{Message: "The request could not be understood", Action: "Check the event type", Code: "ROW005"}},
	{"invalid event", UserMessage{Message: "The request could not be understood", Action: "Send a JSON object with a type field", Code: "ROW005"}},

	// Session
	{"session not found", UserMessage{Message: "Your session has expired", Action: "Upload the file again", Code: "SES001"}},
	{"sample unavailable", UserMessage{Message: "The sample table is not available", Action: "Upload your own CSV file instead", Code: "SES002"}},

	// Upload
	{"too many concurrent uploads", UserMessage{Message: "System is busy processing other uploads", Action: "Please wait a moment and try again", Code: "UPL002"}},
	{"context canceled", UserMessage{Message: "Request was cancelled", Action: "Please try again", Code: "UPL004"}},
	{"context deadline exceeded", UserMessage{Message: "Request timed out", Action: "Try uploading a smaller file or check your connection", Code: "UPL005"}},

	// Rate limiting
	{"rate limit", UserMessage{Message: "Too many requests", Action: "Please wait a moment before trying again", Code: "RATE001"}},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It returns the first matching pattern, or the ERR000 fallback.
//
// Example:
//
//	msg := MapError(fmt.Errorf("delete 9 of 3 rows: %w", ErrIndexOutOfRange))
//	// msg.Code == "ROW001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
