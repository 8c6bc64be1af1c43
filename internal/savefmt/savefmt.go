// Package savefmt re-encodes a save document in the exact text dialect the
// game writes.
//
// The dialect is 4-space indented JSON with ASCII-only strings and two
// quirks a stock pretty printer does not produce:
//
//   - an empty object is written as its braces around one blank line
//     instead of "{}";
//   - floats in scientific notation carry an upper-case exponent marker
//     (1.5E-05).
//
// Marshal produces it in passes. Empty objects are replaced by a one-entry
// placeholder object while encoding compactly, the compact text is
// pretty-printed with tidwall/pretty, and finally every line that holds
// only the placeholder entry is blanked. The in-memory tree is never
// modified.
package savefmt

import (
	"math"
	"strings"

	"github.com/tidwall/pretty"

	"github.com/mmr-tortoise/tise/internal/model"
)

// Indent is one nesting level of the save dialect.
const Indent = "    "

// placeholderKey and the non-finite markers are written as compact JSON
// text spelled with the "\/" escape. appendString never emits that escape,
// so no string from the document can encode to the same bytes.
const placeholderKey = `"\/tise:empty\/"`

var (
	// placeholderObject is the compact text substituted for "{}".
	placeholderObject = "{" + placeholderKey + ":1}"

	// placeholderLine is how the placeholder entry reads after pretty
	// printing, without indentation.
	placeholderLine = placeholderKey + ": 1"

	// nonFinite maps marker strings back to the bare literals.
	nonFinite = strings.NewReplacer(
		nonFiniteMarker(math.NaN()), "NaN",
		nonFiniteMarker(math.Inf(1)), "Infinity",
		nonFiniteMarker(math.Inf(-1)), "-Infinity",
	)

	prettyOptions = &pretty.Options{
		// Negative width: never collapse arrays onto a single line.
		Width:  -1,
		Indent: Indent,
	}
)

func nonFiniteMarker(f float64) string {
	return `"\/tise:` + FormatFloat(f) + `\/"`
}

type options struct {
	lineEnding model.LineEnding
}

// Option customises Marshal.
type Option func(*options)

// WithLineEnding selects the newline written between lines (default LF).
func WithLineEnding(l model.LineEnding) Option {
	return func(o *options) {
		o.lineEnding = l
	}
}

// Marshal renders root in the save dialect. The result has no trailing
// newline. Marshal performs no validation; it fails only on Go values
// outside the savejson value set.
func Marshal(root any, opts ...Option) ([]byte, error) {
	o := options{lineEnding: model.LineEndingLF}
	for _, opt := range opts {
		opt(&o)
	}

	// Pass 1: compact encoding with empty objects substituted.
	enc := &encoder{emptyObject: placeholderObject, markNonFinite: true}
	if err := enc.value(root); err != nil {
		return nil, err
	}

	// Pass 2: indentation.
	text := string(pretty.PrettyOptions(enc.buf, prettyOptions))
	text = strings.TrimSuffix(text, "\n")
	text = nonFinite.Replace(text)

	// Pass 3: blank the placeholder lines and apply the line ending.
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == placeholderLine {
			lines[i] = ""
		}
	}
	return []byte(strings.Join(lines, o.lineEnding.Sequence())), nil
}
