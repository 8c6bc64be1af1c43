// Package savefile reads and writes save files on disk.
//
// Saves come in two encodings: plain JSON text and gzip-compressed JSON
// (written by the game when save compression is enabled). Read detects the
// encoding and the line-ending convention so a later Write can reproduce
// both; the text itself is handed to the document layer untouched.
//
// Key responsibilities:
//   - Detect gzip by extension or magic bytes, and decompress
//   - Detect the dominant line ending (LF or CRLF)
//   - Write atomically (temp file + rename), recompressing when needed
//   - Locate saves in the game's save directory
package savefile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/mmr-tortoise/tise/internal/model"
)

// gzipMagic is the two-byte header of every gzip stream.
var gzipMagic = []byte{0x1f, 0x8b}

// File is a save read from disk.
type File struct {
	// Path is the path the file was read from.
	Path string

	// Format is the detected on-disk encoding.
	Format model.SaveFormat

	// LineEnding is the dominant newline convention of the decoded text.
	LineEnding model.LineEnding

	// Original holds the bytes exactly as read (compressed for gzip saves).
	// An unmodified save is written back from these bytes.
	Original []byte

	// Text is the decoded JSON text.
	Text []byte
}

// Read loads a save file, decompressing it when necessary.
//
// Returns a CLIError with ExitIOError if the file cannot be read or the
// gzip stream is corrupt.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitIOError,
				fmt.Sprintf("save file not found: %s", path),
				err,
			)
		}
		return nil, model.WrapCLIError(model.ExitIOError, fmt.Sprintf("failed to read save file %s", path), err)
	}

	f := &File{
		Path:     path,
		Format:   DetectFormat(path, data),
		Original: data,
		Text:     data,
	}

	if f.Format == model.FormatGzip {
		text, err := Decompress(data)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitIOError, fmt.Sprintf("failed to decompress %s", path), err)
		}
		f.Text = text
	}

	f.LineEnding = DetectLineEnding(f.Text)
	return f, nil
}

// DetectFormat reports gzip when the path ends in ".gz" or the data starts
// with the gzip magic bytes, and plain JSON otherwise.
func DetectFormat(path string, data []byte) model.SaveFormat {
	if strings.EqualFold(filepath.Ext(path), ".gz") {
		return model.FormatGzip
	}
	if bytes.HasPrefix(data, gzipMagic) {
		return model.FormatGzip
	}
	return model.FormatJSON
}

// TargetFormat picks the encoding for a save-as destination from its
// extension alone: ".gz" is compressed, anything else is plain JSON.
func TargetFormat(path string) model.SaveFormat {
	if strings.EqualFold(filepath.Ext(path), ".gz") {
		return model.FormatGzip
	}
	return model.FormatJSON
}

// DetectLineEnding counts newline terminators and returns CRLF only when
// CRLF-terminated lines outnumber bare LF ones. A stray "\r\n" inside an
// otherwise LF file does not flip the result. Text without newlines is LF.
func DetectLineEnding(text []byte) model.LineEnding {
	var lf, crlf int
	for i, b := range text {
		if b != '\n' {
			continue
		}
		if i > 0 && text[i-1] == '\r' {
			crlf++
		} else {
			lf++
		}
	}
	if crlf > lf {
		return model.LineEndingCRLF
	}
	return model.LineEndingLF
}

// Decompress inflates a gzip stream.
func Decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to inflate gzip stream: %w", err)
	}
	return out, nil
}

// Compress deflates text into a gzip stream with a zero modification time
// and no file name, so identical text always yields identical bytes.
func Compress(text []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(text); err != nil {
		return nil, fmt.Errorf("failed to compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return buf.Bytes(), nil
}

// Encode turns serialized text into on-disk bytes for the given format.
func Encode(text []byte, format model.SaveFormat) ([]byte, error) {
	switch format {
	case model.FormatGzip:
		return Compress(text)
	case model.FormatJSON:
		return text, nil
	default:
		return nil, fmt.Errorf("unsupported save format: %q", format)
	}
}

// Write stores data (already encoded, see Encode) at path.
//
// Parent directories are created as needed. The data is written to a
// temporary file in the same directory and renamed over the target, so a
// crash mid-write never leaves a truncated save behind.
func Write(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return model.WrapCLIError(model.ExitIOError, fmt.Sprintf("failed to create directory %s", dir), err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return model.WrapCLIError(model.ExitIOError, fmt.Sprintf("failed to create temp file in %s", dir), err)
	}
	tmpPath := tmp.Name()
	// Removing after a successful rename is a harmless no-op.
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return model.WrapCLIError(model.ExitIOError, fmt.Sprintf("failed to write %s", path), err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return model.WrapCLIError(model.ExitIOError, fmt.Sprintf("failed to set mode on %s", path), err)
	}
	if err := tmp.Close(); err != nil {
		return model.WrapCLIError(model.ExitIOError, fmt.Sprintf("failed to write %s", path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return model.WrapCLIError(model.ExitIOError, fmt.Sprintf("failed to replace %s", path), err)
	}
	return nil
}
