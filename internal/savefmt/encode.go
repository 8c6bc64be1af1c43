package savefmt

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/mmr-tortoise/tise/internal/savejson"
)

// exponentPattern matches a float rendered in lower-case scientific
// notation. The game writes the exponent marker upper-case.
var exponentPattern = regexp.MustCompile(`\d+\.?\d*e[-+]\d+`)

const hexDigits = "0123456789abcdef"

// encoder writes a compact (single-line) rendering of a savejson tree.
type encoder struct {
	buf []byte

	// emptyObject, when set, is written in place of "{}".
	emptyObject string

	// markNonFinite writes NaN and ±Infinity as marker strings so that a
	// strict JSON pass (the pretty printer) can carry them through.
	markNonFinite bool
}

// MarshalCompact renders v on a single line with the save file's scalar
// conventions (ASCII-only strings, Python-style floats, upper-case exponent).
// It is the form used for raw-JSON editing of nested values.
func MarshalCompact(v any) ([]byte, error) {
	e := &encoder{}
	if err := e.value(v); err != nil {
		return nil, err
	}
	return e.buf, nil
}

func (e *encoder) value(v any) error {
	switch t := v.(type) {
	case nil:
		e.buf = append(e.buf, "null"...)
	case bool:
		e.buf = strconv.AppendBool(e.buf, t)
	case int64:
		e.buf = strconv.AppendInt(e.buf, t, 10)
	case int:
		e.buf = strconv.AppendInt(e.buf, int64(t), 10)
	case uint64:
		e.buf = strconv.AppendUint(e.buf, t, 10)
	case float64:
		if e.markNonFinite && (math.IsNaN(t) || math.IsInf(t, 0)) {
			e.buf = append(e.buf, nonFiniteMarker(t)...)
			return nil
		}
		e.buf = append(e.buf, FormatFloat(t)...)
	case string:
		e.buf = appendString(e.buf, t)
	case []any:
		e.buf = append(e.buf, '[')
		for i, elem := range t {
			if i > 0 {
				e.buf = append(e.buf, ',')
			}
			if err := e.value(elem); err != nil {
				return err
			}
		}
		e.buf = append(e.buf, ']')
	case *savejson.Object:
		if t.Len() == 0 && e.emptyObject != "" {
			e.buf = append(e.buf, e.emptyObject...)
			return nil
		}
		e.buf = append(e.buf, '{')
		for i := 0; i < t.Len(); i++ {
			k, elem := t.At(i)
			if i > 0 {
				e.buf = append(e.buf, ',')
			}
			e.buf = appendString(e.buf, k)
			e.buf = append(e.buf, ':')
			if err := e.value(elem); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
		e.buf = append(e.buf, '}')
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	return nil
}

// FormatFloat renders f the way the save file writes floats: the shortest
// text that round-trips, always with a fractional part or an exponent,
// switching to scientific notation below 1e-4 and from 1e16 upward, with an
// upper-case exponent marker and a two-digit minimum exponent
// (1.5E-05, 1E+16). Non-finite values are NaN, Infinity and -Infinity.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	_, exp, _ := strings.Cut(sci, "e")
	n, _ := strconv.Atoi(exp)
	if n < -4 || n >= 16 {
		return exponentPattern.ReplaceAllStringFunc(sci, strings.ToUpper)
	}

	fixed := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(fixed, ".") {
		fixed += ".0"
	}
	return fixed
}

// appendString writes s as a JSON string with every character outside
// printable ASCII escaped as \uXXXX (surrogate pairs above the BMP).
// Invalid UTF-8 is written as \ufffd.
func appendString(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for _, r := range s {
		switch r {
		case '"':
			buf = append(buf, '\\', '"')
		case '\\':
			buf = append(buf, '\\', '\\')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\t':
			buf = append(buf, '\\', 't')
		case '\b':
			buf = append(buf, '\\', 'b')
		case '\f':
			buf = append(buf, '\\', 'f')
		default:
			switch {
			case r >= 0x20 && r <= 0x7e:
				buf = append(buf, byte(r))
			case r > 0xffff:
				hi, lo := utf16.EncodeRune(r)
				buf = appendEscape(buf, hi)
				buf = appendEscape(buf, lo)
			default:
				buf = appendEscape(buf, r)
			}
		}
	}
	return append(buf, '"')
}

func appendEscape(buf []byte, r rune) []byte {
	return append(buf, '\\', 'u',
		hexDigits[r>>12&0xf], hexDigits[r>>8&0xf], hexDigits[r>>4&0xf], hexDigits[r&0xf])
}
