// Package property classifies raw property values of an entity into a small
// closed set of semantic shapes and provides a read/write editor for each.
//
// Classification runs once per value (Classify); everything downstream
// switches over the concrete Classified types instead of inspecting JSON
// types again. Editors (NewEditor) take user text, validate it against the
// shape they were built from, and materialize a new raw value for
// document.SetProperty.
package property

import (
	"github.com/mmr-tortoise/tise/internal/reference"
	"github.com/mmr-tortoise/tise/internal/savejson"
)

// Shape names a classification result.
type Shape int

const (
	ShapeScalar Shape = iota + 1
	ShapeReference
	ShapeSimpleObject
	ShapeComplexObject
	ShapeDistribution
	ShapeEmptyList
	ShapeReferenceList
	ShapeScalarList
	ShapeOpaqueList
	ShapeKeyValueList
)

var shapeNames = map[Shape]string{
	ShapeScalar:        "scalar",
	ShapeReference:     "reference",
	ShapeSimpleObject:  "simple-object",
	ShapeComplexObject: "complex-object",
	ShapeDistribution:  "distribution",
	ShapeEmptyList:     "empty-list",
	ShapeReferenceList: "reference-list",
	ShapeScalarList:    "scalar-list",
	ShapeOpaqueList:    "opaque-list",
	ShapeKeyValueList:  "key-value-list",
}

// String returns the kebab-case shape name used in CLI output.
func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return "unknown"
}

// Classified is the closed set of shapes. The unexported method keeps
// implementations inside this package.
type Classified interface {
	// Shape returns the classification tag.
	Shape() Shape

	// Raw returns the decoded value this classification was built from.
	Raw() any

	classified()
}

// Scalar is a bool, int, float, string or null value.
type Scalar struct {
	Kind  savejson.Kind
	Value any
}

// Reference is an object of the reference shape.
type Reference struct {
	ID      int64
	TypeTag string
	raw     any
}

// Field is one entry of a flat object.
type Field struct {
	Key   string
	Kind  savejson.Kind
	Value any
}

// SimpleObject is an object whose values are all bool/int/float/string.
type SimpleObject struct {
	Fields []Field
	raw    *savejson.Object
}

// ComplexObject is any other object; it is edited as a raw JSON blob.
type ComplexObject struct {
	Object *savejson.Object
}

// Distribution is a normalized probability map: every field is a number
// and Remainder is always 1 minus the sum of the others.
type Distribution struct {
	Fields    []Field
	Remainder string
	raw       *savejson.Object
}

// EmptyList is [].
type EmptyList struct {
	raw []any
}

// ReferenceList is a list whose first element is a reference. IDs holds the
// decoded IDs of every well-formed element; Elements keeps the full original
// list so malformed entries survive write-back.
type ReferenceList struct {
	IDs      []int64
	Elements []any
}

// ScalarList is any other non-empty list.
type ScalarList struct {
	Items []any
}

// OpaqueList is a list of lists or a list of plain objects, edited as a raw
// JSON blob. Nested is savejson.KindArray or savejson.KindObject.
type OpaqueList struct {
	Items  []any
	Nested savejson.Kind
}

// KeyValueList is a list of {"Key": reference, "Value": x} pairs, the form
// the game writes for maps keyed by entity. It is edited as a raw JSON blob.
type KeyValueList struct {
	Pairs []Pair
	Items []any
}

// Pair is one entry of a KeyValueList.
type Pair struct {
	Key   int64
	Value any
}

// Keys of a KeyValueList element.
const (
	PairKey   = "Key"
	PairValue = "Value"
)

func (Scalar) Shape() Shape        { return ShapeScalar }
func (Reference) Shape() Shape     { return ShapeReference }
func (SimpleObject) Shape() Shape  { return ShapeSimpleObject }
func (ComplexObject) Shape() Shape { return ShapeComplexObject }
func (Distribution) Shape() Shape  { return ShapeDistribution }
func (EmptyList) Shape() Shape     { return ShapeEmptyList }
func (ReferenceList) Shape() Shape { return ShapeReferenceList }
func (ScalarList) Shape() Shape    { return ShapeScalarList }
func (OpaqueList) Shape() Shape    { return ShapeOpaqueList }
func (KeyValueList) Shape() Shape  { return ShapeKeyValueList }

func (s Scalar) Raw() any        { return s.Value }
func (r Reference) Raw() any     { return r.raw }
func (o SimpleObject) Raw() any  { return o.raw }
func (o ComplexObject) Raw() any { return o.Object }
func (d Distribution) Raw() any  { return d.raw }
func (l EmptyList) Raw() any {
	if l.raw == nil {
		return []any{}
	}
	return l.raw
}
func (l ReferenceList) Raw() any { return l.Elements }
func (l ScalarList) Raw() any    { return l.Items }
func (l OpaqueList) Raw() any    { return l.Items }
func (l KeyValueList) Raw() any  { return l.Items }

func (Scalar) classified()        {}
func (Reference) classified()     {}
func (SimpleObject) classified()  {}
func (ComplexObject) classified() {}
func (Distribution) classified()  {}
func (EmptyList) classified()     {}
func (ReferenceList) classified() {}
func (ScalarList) classified()    {}
func (OpaqueList) classified()    {}
func (KeyValueList) classified()  {}

// Rules configures the one name-dependent classification: which property
// holds a normalized distribution and which of its keys is derived.
type Rules struct {
	DistributionProperty string
	RemainderKey         string
}

// DefaultRules returns the rules for the game's public opinion map.
func DefaultRules() Rules {
	return Rules{
		DistributionProperty: "publicOpinion",
		RemainderKey:         "Undecided",
	}
}

// Named pairs a property name with its classification.
type Named struct {
	Name  string
	Value Classified
}

// Classify assigns v to a shape. The first matching rule wins:
// scalar, reference, distribution, simple/complex object, empty list,
// reference list, key-value list, opaque list, scalar list.
func Classify(name string, v any, rules Rules) Classified {
	switch t := v.(type) {
	case *savejson.Object:
		return classifyObject(name, t, rules)
	case []any:
		return classifyList(t)
	default:
		return Scalar{Kind: savejson.KindOf(v), Value: v}
	}
}

func classifyObject(name string, obj *savejson.Object, rules Rules) Classified {
	if id, ok := reference.Decode(obj); ok {
		tag, _ := reference.TypeTag(obj)
		return Reference{ID: id, TypeTag: tag, raw: obj}
	}

	fields := make([]Field, 0, obj.Len())
	simple, numeric := true, true
	obj.Range(func(k string, val any) bool {
		kind := savejson.KindOf(val)
		if !kind.IsScalar() {
			simple = false
		}
		if kind != savejson.KindInt && kind != savejson.KindFloat {
			numeric = false
		}
		fields = append(fields, Field{Key: k, Kind: kind, Value: val})
		return true
	})

	if name != "" && name == rules.DistributionProperty && numeric && obj.Has(rules.RemainderKey) {
		return Distribution{Fields: fields, Remainder: rules.RemainderKey, raw: obj}
	}
	if simple {
		return SimpleObject{Fields: fields, raw: obj}
	}
	return ComplexObject{Object: obj}
}

func classifyList(list []any) Classified {
	if len(list) == 0 {
		return EmptyList{raw: list}
	}
	switch first := list[0].(type) {
	case *savejson.Object:
		if reference.Is(first) {
			ids := make([]int64, 0, len(list))
			for _, e := range list {
				if id, ok := reference.Decode(e); ok {
					ids = append(ids, id)
				}
			}
			return ReferenceList{IDs: ids, Elements: list}
		}
		if pairs, ok := keyValuePairs(list); ok {
			return KeyValueList{Pairs: pairs, Items: list}
		}
		return OpaqueList{Items: list, Nested: savejson.KindObject}
	case []any:
		return OpaqueList{Items: list, Nested: savejson.KindArray}
	}
	return ScalarList{Items: list}
}

// keyValuePairs decodes list as Key/Value pairs. Every element must be an
// object with a reference under "Key" and some value under "Value".
func keyValuePairs(list []any) ([]Pair, bool) {
	pairs := make([]Pair, 0, len(list))
	for _, e := range list {
		obj, ok := e.(*savejson.Object)
		if !ok {
			return nil, false
		}
		rawKey, _ := obj.Get(PairKey)
		id, ok := reference.Decode(rawKey)
		if !ok {
			return nil, false
		}
		v, ok := obj.Get(PairValue)
		if !ok {
			return nil, false
		}
		pairs = append(pairs, Pair{Key: id, Value: v})
	}
	return pairs, true
}
