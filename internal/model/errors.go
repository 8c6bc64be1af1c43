package model

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Callers match them with errors.Is; every error returned by
// the document layer wraps exactly one of these.
var (
	// ErrMalformedDocument is fatal to a load: wrong root shape, invalid
	// JSON, duplicate entity ID, an entry missing Key or Value, or a
	// type tag that disagrees with the owning group.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrGroupNotFound means neither the exact group name nor its
	// namespace-prefixed variant exists.
	ErrGroupNotFound = errors.New("group not found")

	// ErrUnknownEntity means no entity carries the requested ID.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrUnknownProperty means the entity has no property with that name.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrValidationFailure means user-entered text was rejected by an
	// editor; the document is left unchanged.
	ErrValidationFailure = errors.New("validation failure")
)

// DocumentError attaches location context (group, index, property) to one
// of the error kinds above.
type DocumentError struct {
	// Kind is one of the Err* sentinels.
	Kind error

	// Group is the stored group name, if known.
	Group string

	// Index is the position in the group's list, or -1 when not applicable.
	Index int

	// Property is the property name, if applicable.
	Property string

	// Message describes the violation.
	Message string
}

// Error renders "kind: group[index].property: message", omitting the parts
// that are not set.
func (e *DocumentError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	where := e.where()
	if where != "" {
		b.WriteString(": ")
		b.WriteString(where)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *DocumentError) where() string {
	var b strings.Builder
	if e.Group != "" {
		b.WriteString(e.Group)
		if e.Index >= 0 {
			fmt.Fprintf(&b, "[%d]", e.Index)
		}
	}
	if e.Property != "" {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(e.Property)
	}
	return b.String()
}

// Unwrap returns Kind so errors.Is(err, ErrMalformedDocument) works.
func (e *DocumentError) Unwrap() error {
	return e.Kind
}

// Malformed returns a DocumentError of kind ErrMalformedDocument located at
// group[index]. Pass index -1 for group-level violations.
func Malformed(group string, index int, format string, args ...any) *DocumentError {
	return &DocumentError{
		Kind:    ErrMalformedDocument,
		Group:   group,
		Index:   index,
		Message: fmt.Sprintf(format, args...),
	}
}

// ExitCodeFor maps an error kind to the CLI exit code that reports it.
// Errors outside the taxonomy map to ExitGeneralError.
func ExitCodeFor(err error) ExitCode {
	switch {
	case errors.Is(err, ErrMalformedDocument):
		return ExitMalformedDocument
	case errors.Is(err, ErrGroupNotFound):
		return ExitGroupNotFound
	case errors.Is(err, ErrUnknownEntity):
		return ExitEntityNotFound
	case errors.Is(err, ErrUnknownProperty):
		return ExitPropertyNotFound
	case errors.Is(err, ErrValidationFailure):
		return ExitValidationFailed
	default:
		return ExitGeneralError
	}
}
