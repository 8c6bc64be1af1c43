package model

import (
	"fmt"
	"strings"
)

// SaveFormat represents the on-disk encoding of a save file.
// The game writes plain JSON by default and gzip-compressed JSON when
// save compression is enabled in its settings.
type SaveFormat string

const (
	// FormatJSON is an uncompressed UTF-8 JSON save (".json").
	FormatJSON SaveFormat = "json"

	// FormatGzip is a gzip-compressed JSON save (".gz").
	// Detected either by file extension or by the gzip magic bytes.
	FormatGzip SaveFormat = "gzip"
)

// String returns the string representation of SaveFormat.
// This method satisfies the fmt.Stringer interface.
func (f SaveFormat) String() string {
	return string(f)
}

// IsValid checks whether the SaveFormat value is one of the
// predefined formats.
func (f SaveFormat) IsValid() bool {
	switch f {
	case FormatJSON, FormatGzip:
		return true
	default:
		return false
	}
}

// ParseSaveFormat converts a string to a SaveFormat.
// "gz" is accepted as an alias for "gzip".
func ParseSaveFormat(s string) (SaveFormat, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "gz" {
		normalized = string(FormatGzip)
	}
	format := SaveFormat(normalized)
	if !format.IsValid() {
		return "", fmt.Errorf("invalid save format: %q (valid: json, gzip)", s)
	}
	return format, nil
}

// LineEnding represents the newline convention of a save file.
// Saves written on Windows use CRLF; the serializer reproduces whichever
// convention the loaded file used so that diffs stay minimal.
type LineEnding string

const (
	// LineEndingLF is a bare "\n".
	LineEndingLF LineEnding = "lf"

	// LineEndingCRLF is "\r\n".
	LineEndingCRLF LineEnding = "crlf"
)

// String returns the string representation of LineEnding.
func (l LineEnding) String() string {
	return string(l)
}

// IsValid checks whether the LineEnding value is one of the
// predefined conventions.
func (l LineEnding) IsValid() bool {
	switch l {
	case LineEndingLF, LineEndingCRLF:
		return true
	default:
		return false
	}
}

// Sequence returns the byte sequence written between lines.
// Unknown values fall back to LF.
func (l LineEnding) Sequence() string {
	if l == LineEndingCRLF {
		return "\r\n"
	}
	return "\n"
}

// ParseLineEnding converts a string to a LineEnding (case insensitive).
func ParseLineEnding(s string) (LineEnding, error) {
	ending := LineEnding(strings.ToLower(strings.TrimSpace(s)))
	if !ending.IsValid() {
		return "", fmt.Errorf("invalid line ending: %q (valid: lf, crlf)", s)
	}
	return ending, nil
}

// Location identifies where an entity lives inside the document:
// the full (stored) group name and the zero-based position in that
// group's entity list.
type Location struct {
	// Group is the group key exactly as stored in the document,
	// including the namespace prefix when present.
	Group string `json:"group" yaml:"group"`

	// Index is the position of the entity within the group's list.
	Index int `json:"index" yaml:"index"`
}

// String returns "Group[Index]", the form used in error messages.
func (l Location) String() string {
	return fmt.Sprintf("%s[%d]", l.Group, l.Index)
}

// GroupSummary describes one group of the document for listings.
type GroupSummary struct {
	// Name is the stored group key.
	Name string `json:"name"`

	// DisplayName is Name with the namespace prefix stripped.
	DisplayName string `json:"displayName"`

	// Count is the number of entities in the group.
	Count int `json:"count"`
}

// EntitySummary is one row of an entity listing: the entity ID, its
// resolved display name (or the unknown sentinel), and its position.
//
// Group is set only where rows span several groups (search results).
type EntitySummary struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"displayName"`
	Group       string `json:"group,omitempty"`
	Index       int    `json:"index"`
}

// Hit is one property matched by a property search.
type Hit struct {
	// Location is the entity holding the property.
	Location Location `json:"location"`

	// ID is that entity's ID.
	ID int64 `json:"id"`

	// Property is the top-level property name.
	Property string `json:"property"`

	// Preview is a short rendering of the property's value.
	Preview string `json:"preview"`
}

// Issue is a non-fatal finding reported by a document check.
// Dangling references are the only finding today: real saves legitimately
// contain them (e.g. references to removed entities), so they are reported
// rather than rejected.
type Issue struct {
	// Location is the entity holding the offending property.
	Location Location `json:"location"`

	// Property is the top-level property name on that entity.
	Property string `json:"property"`

	// Target is the referenced ID that does not exist.
	Target int64 `json:"target"`

	// Message is a human-readable description.
	Message string `json:"message"`
}

// String returns a one-line rendering of the issue.
func (i Issue) String() string {
	return fmt.Sprintf("%s.%s: %s", i.Location, i.Property, i.Message)
}

// ExitCode defines the CLI exit codes. These codes allow scripts to
// programmatically determine why a command failed.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitMalformedDocument indicates the save file could not be loaded
	// because it violates a structural invariant (duplicate ID, missing
	// Key/Value, type-tag mismatch, wrong root shape, invalid JSON).
	ExitMalformedDocument ExitCode = 2

	// ExitGroupNotFound indicates the requested group does not exist,
	// even after the namespace-prefix fallback.
	ExitGroupNotFound ExitCode = 3

	// ExitEntityNotFound indicates no entity carries the requested ID.
	ExitEntityNotFound ExitCode = 4

	// ExitPropertyNotFound indicates the entity has no such property.
	ExitPropertyNotFound ExitCode = 5

	// ExitValidationFailed indicates user-supplied text was rejected by the
	// property editor before reaching the document.
	ExitValidationFailed ExitCode = 6

	// ExitIOError indicates the save file could not be read or written.
	ExitIOError ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
