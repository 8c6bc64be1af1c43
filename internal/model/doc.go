// Package model defines the domain types and value objects shared by the
// tise packages.
//
// This package contains pure data structures with no external dependencies.
// Summaries (GroupSummary, EntitySummary, Location, Issue) are transient
// views derived from a loaded save document; the document itself is the only
// source of truth and nothing here is persisted.
//
// The package also defines the error taxonomy used across the core
// (ErrMalformedDocument, ErrGroupNotFound, ...), the DocumentError type that
// carries location context, and the exit codes (ExitCode) plus CLIError type
// used by the command-line layer for OS process exit handling.
package model
