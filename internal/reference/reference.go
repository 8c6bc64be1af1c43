// Package reference encodes and decodes the object shape save files use for
// cross-entity references.
//
// A reference is a JSON object with exactly one key "value" holding a
// non-negative integer ID, or exactly two keys "value" and "$type" where the
// tag is a string. Anything else (three or more keys, a non-integer value,
// a negative value such as the -1 "no reference" marker) is not a reference.
// The check is by key set only, so a reference is indistinguishable from an
// ordinary two-field object until this predicate runs.
//
// Encoding always produces the minimal one-key form. The "$type" tag of a
// reference is therefore lost when the reference is rewritten through Encode;
// the game re-derives it from the target entity, and untouched references
// keep their tag because they are never re-encoded.
package reference

import (
	"github.com/mmr-tortoise/tise/internal/savejson"
)

const (
	// FieldValue holds the referenced entity ID.
	FieldValue = "value"

	// FieldType is the optional type tag naming the target's group.
	FieldType = "$type"

	// None is the ID the game writes for "no reference".
	None int64 = -1
)

// Decode returns the referenced ID if v has the reference shape.
// It never fails: any other value simply yields ok == false.
func Decode(v any) (id int64, ok bool) {
	obj, isObj := v.(*savejson.Object)
	if !isObj {
		return 0, false
	}
	switch obj.Len() {
	case 1:
	case 2:
		tag, hasTag := obj.Get(FieldType)
		if !hasTag {
			return 0, false
		}
		if _, isString := tag.(string); !isString {
			return 0, false
		}
	default:
		return 0, false
	}
	raw, hasValue := obj.Get(FieldValue)
	if !hasValue {
		return 0, false
	}
	id, ok = savejson.AsInt64(raw)
	if !ok || id < 0 {
		return 0, false
	}
	return id, true
}

// Is reports whether v has the reference shape.
func Is(v any) bool {
	_, ok := Decode(v)
	return ok
}

// TypeTag returns the "$type" tag of a two-key reference.
func TypeTag(v any) (string, bool) {
	if !Is(v) {
		return "", false
	}
	tag, ok := v.(*savejson.Object).Get(FieldType)
	if !ok {
		return "", false
	}
	s, ok := tag.(string)
	return s, ok
}

// Encode returns the canonical one-key form {"value": id}.
func Encode(id int64) *savejson.Object {
	obj := savejson.NewObject()
	obj.Set(FieldValue, id)
	return obj
}
