package document

import (
	"fmt"

	"github.com/mmr-tortoise/tise/internal/model"
	"github.com/mmr-tortoise/tise/internal/reference"
	"github.com/mmr-tortoise/tise/internal/savejson"
)

// Check scans every entity for references whose target ID is not in the
// registry and returns one issue per dangling reference (empty = none).
//
// Dangling references are legal in a save (the game leaves them behind when
// entities are removed), so Check never fails; it only reports. References
// nested at any depth inside a property count and are attributed to the
// top-level property holding them.
func (d *Document) Check() []model.Issue {
	var issues []model.Issue

	for _, id := range d.IDs() {
		props, loc, _ := d.entity(id)
		props.Range(func(key string, v any) bool {
			walkReferences(v, func(target int64) {
				if _, ok := d.registry[target]; ok {
					return
				}
				issues = append(issues, model.Issue{
					Location: loc,
					Property: key,
					Target:   target,
					Message:  fmt.Sprintf("reference to missing entity %d", target),
				})
			})
			return true
		})
	}
	return issues
}

// walkReferences calls fn with the ID of every reference inside v.
func walkReferences(v any, fn func(id int64)) {
	switch t := v.(type) {
	case *savejson.Object:
		if id, ok := reference.Decode(t); ok {
			fn(id)
			return
		}
		t.Range(func(_ string, child any) bool {
			walkReferences(child, fn)
			return true
		})
	case []any:
		for _, child := range t {
			walkReferences(child, fn)
		}
	}
}
