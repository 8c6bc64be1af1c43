// Package session ties a save file on disk to its loaded document.
//
// A Session remembers how the file was encoded (plain or gzip, LF or CRLF)
// and the exact bytes it was read from. Writing an unmodified session back
// in its original format returns those bytes unchanged, so opening and
// saving a file never rewrites it. Any edit, format change, or forced line
// ending goes through the serializer instead.
package session

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/mmr-tortoise/tise/internal/config"
	"github.com/mmr-tortoise/tise/internal/document"
	"github.com/mmr-tortoise/tise/internal/model"
	"github.com/mmr-tortoise/tise/internal/savefile"
	"github.com/mmr-tortoise/tise/internal/savefmt"
)

// Session is an open save. It is not safe for concurrent use.
type Session struct {
	file   *savefile.File
	doc    *document.Document
	cfg    config.Config
	logger *log.Logger
}

// Open reads and loads the save at path.
//
// File errors carry ExitIOError; structural errors wrap
// model.ErrMalformedDocument.
func Open(path string, cfg config.Config, logger *log.Logger) (*Session, error) {
	f, err := savefile.Read(path)
	if err != nil {
		return nil, err
	}

	doc, err := document.Load(f.Text, cfg.DocumentOptions(logger)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	if logger != nil {
		logger.Debug("save opened",
			"path", path,
			"format", f.Format,
			"lineEnding", f.LineEnding,
			"entities", doc.Len(),
		)
	}
	return &Session{file: f, doc: doc, cfg: cfg, logger: logger}, nil
}

// Document returns the loaded document.
func (s *Session) Document() *document.Document { return s.doc }

// Path returns the file the session reads from and saves to.
func (s *Session) Path() string { return s.file.Path }

// Format returns the on-disk encoding of the current file.
func (s *Session) Format() model.SaveFormat { return s.file.Format }

// LineEnding returns the line ending used when re-serializing: the
// configured override if any, otherwise the one detected on load.
func (s *Session) LineEnding() model.LineEnding {
	if le, ok := s.cfg.LineEndingOverride(); ok {
		return le
	}
	return s.file.LineEnding
}

// Dirty reports whether the document has unsaved edits.
func (s *Session) Dirty() bool { return s.doc.Dirty() }

// Bytes returns the on-disk bytes for the given format.
//
// When the document is unmodified, the format matches the source and no
// different line ending is forced, the original bytes are returned as-is.
func (s *Session) Bytes(format model.SaveFormat) ([]byte, error) {
	if !s.doc.Dirty() && format == s.file.Format && s.LineEnding() == s.file.LineEnding {
		return s.file.Original, nil
	}
	return s.Generate(format)
}

// Generate serializes the document for the given format regardless of
// whether it was modified.
func (s *Session) Generate(format model.SaveFormat) ([]byte, error) {
	text, err := savefmt.Marshal(s.doc.Root(), savefmt.WithLineEnding(s.LineEnding()))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}
	return savefile.Encode(text, format)
}

// Save writes the session back to the file it was read from.
func (s *Session) Save() error {
	return s.write(s.file.Path, s.file.Format)
}

// SaveAs writes the session to path, choosing the encoding from its
// extension, and makes path the session's file.
func (s *Session) SaveAs(path string) error {
	return s.write(path, savefile.TargetFormat(path))
}

func (s *Session) write(path string, format model.SaveFormat) error {
	data, err := s.Bytes(format)
	if err != nil {
		return err
	}
	if err := savefile.Write(path, data); err != nil {
		return err
	}

	// The written file is now the reference for future passthroughs.
	s.file.Path = path
	s.file.Format = format
	s.file.Original = data
	s.file.LineEnding = s.LineEnding()
	s.doc.MarkClean()

	if s.logger != nil {
		s.logger.Debug("save written", "path", path, "format", format, "bytes", len(data))
	}
	return nil
}
