package document

import (
	"slices"
	"strconv"
	"strings"

	"github.com/mmr-tortoise/tise/internal/model"
	"github.com/mmr-tortoise/tise/internal/property"
	"github.com/mmr-tortoise/tise/internal/savejson"
)

// FindEntities returns the entities whose decimal ID contains query, or
// whose display name contains it ignoring case, in ascending ID order.
// Entities without a name match by ID only. A blank query matches every
// entity. limit caps the result; zero or less means no cap.
func (d *Document) FindEntities(query string, limit int) []model.EntitySummary {
	query = strings.TrimSpace(query)
	lower := strings.ToLower(query)

	ids := d.IDs()
	slices.Sort(ids)

	out := make([]model.EntitySummary, 0)
	for _, id := range ids {
		props, loc, _ := d.entity(id)
		name := d.nameOf(props)
		if query != "" && !strings.Contains(strconv.FormatInt(id, 10), query) &&
			(name == d.opts.unknown || !strings.Contains(strings.ToLower(name), lower)) {
			continue
		}
		out = append(out, model.EntitySummary{
			ID:          id,
			DisplayName: name,
			Group:       loc.Group,
			Index:       loc.Index,
		})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// FindProperties returns every top-level property whose name or value
// contains query, ignoring case, in document order. Values are searched
// through nested lists and objects, object keys included. A blank query
// finds nothing. limit caps the result; zero or less means no cap.
func (d *Document) FindProperties(query string, limit int) []model.Hit {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var hits []model.Hit
	for _, id := range d.IDs() {
		props, loc, _ := d.entity(id)
		props.Range(func(key string, v any) bool {
			if !strings.Contains(strings.ToLower(key), query) && !valueContains(v, query) {
				return true
			}
			hits = append(hits, model.Hit{
				Location: loc,
				ID:       id,
				Property: key,
				Preview:  property.Preview(v),
			})
			return limit <= 0 || len(hits) < limit
		})
		if limit > 0 && len(hits) >= limit {
			break
		}
	}
	return hits
}

// valueContains reports whether the text of v, or of anything nested in
// it, contains the lower-case query. Numbers match their save-file text.
func valueContains(v any, query string) bool {
	switch t := v.(type) {
	case string:
		return strings.Contains(strings.ToLower(t), query)
	case []any:
		for _, child := range t {
			if valueContains(child, query) {
				return true
			}
		}
		return false
	case *savejson.Object:
		found := false
		t.Range(func(k string, child any) bool {
			found = strings.Contains(strings.ToLower(k), query) || valueContains(child, query)
			return !found
		})
		return found
	default:
		return strings.Contains(strings.ToLower(property.Preview(v)), query)
	}
}
