package property

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mmr-tortoise/tise/internal/savefmt"
	"github.com/mmr-tortoise/tise/internal/savejson"
)

const (
	// maxPreview caps how many list elements a summary shows.
	maxPreview = 5

	// maxPreviewText caps a previewed string, in runes, ellipsis included.
	maxPreviewText = 60
)

// Resolver maps an entity ID to its display name.
type Resolver func(id int64) string

// Summary renders c on one line for listings. References are shown with
// the target's display name when resolve is non-nil.
func Summary(c Classified, resolve Resolver) string {
	switch v := c.(type) {
	case Scalar:
		if v.Value == nil {
			return "null"
		}
		return scalarText(v.Value)
	case Reference:
		return refText(v.ID, resolve)
	case SimpleObject:
		return "{" + fieldsText(v.Fields) + "}"
	case Distribution:
		return "{" + fieldsText(v.Fields) + "}"
	case ComplexObject:
		return fmt.Sprintf("{%d keys}", v.Object.Len())
	case EmptyList:
		return "[]"
	case ReferenceList:
		parts := make([]string, 0, maxPreview)
		for i, id := range v.IDs {
			if i == maxPreview {
				parts = append(parts, fmt.Sprintf("... %d more", len(v.IDs)-maxPreview))
				break
			}
			parts = append(parts, refText(id, resolve))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ScalarList:
		parts := make([]string, 0, maxPreview)
		for i, item := range v.Items {
			if i == maxPreview {
				parts = append(parts, fmt.Sprintf("... %d more", len(v.Items)-maxPreview))
				break
			}
			text, err := savefmt.MarshalCompact(item)
			if err != nil {
				text = []byte("?")
			}
			parts = append(parts, string(text))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KeyValueList:
		parts := make([]string, 0, maxPreview)
		for i, p := range v.Pairs {
			if i == maxPreview {
				parts = append(parts, fmt.Sprintf("... %d more", len(v.Pairs)-maxPreview))
				break
			}
			parts = append(parts, refText(p.Key, resolve)+": "+Preview(p.Value))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case OpaqueList:
		return "[" + countText(len(v.Items), v.Nested.String()) + "]"
	default:
		return fmt.Sprintf("%v", c.Raw())
	}
}

// Preview renders a raw value in a few characters: scalars as text, long
// strings cut short, and containers as their element count ("[3]", "{2}").
func Preview(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		if r := []rune(t); len(r) > maxPreviewText {
			return string(r[:maxPreviewText-3]) + "..."
		}
		return t
	case []any:
		return fmt.Sprintf("[%d]", len(t))
	case *savejson.Object:
		return fmt.Sprintf("{%d}", t.Len())
	default:
		return scalarText(v)
	}
}

func countText(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

func refText(id int64, resolve Resolver) string {
	s := "#" + strconv.FormatInt(id, 10)
	if resolve != nil {
		s += " " + resolve(id)
	}
	return s
}

func fieldsText(fields []Field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Key+": "+scalarText(f.Value))
	}
	return strings.Join(parts, ", ")
}
