package property

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/tise/internal/model"
	"github.com/mmr-tortoise/tise/internal/savejson"
)

func mustParse(t *testing.T, s string) any {
	t.Helper()
	v, err := savejson.Parse([]byte(s))
	require.NoError(t, err)
	return v
}

// TestClassify walks the classification rules in order.
func TestClassify(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		name     string
		property string
		input    string
		want     Shape
	}{
		{"bool", "x", `true`, ShapeScalar},
		{"int", "x", `3`, ShapeScalar},
		{"float", "x", `0.5`, ShapeScalar},
		{"string", "x", `"s"`, ShapeScalar},
		{"null", "x", `null`, ShapeScalar},
		{"reference", "x", `{"value": 4}`, ShapeReference},
		{"tagged reference", "x", `{"value": 4, "$type": "T"}`, ShapeReference},
		{"no-reference marker is an object", "x", `{"value": -1}`, ShapeSimpleObject},
		{"three keys is an object", "x", `{"value": 4, "$type": "T", "y": 1}`, ShapeSimpleObject},
		{"simple object", "x", `{"a": 1, "b": "two"}`, ShapeSimpleObject},
		{"object with null is complex", "x", `{"a": null}`, ShapeComplexObject},
		{"nested object is complex", "x", `{"a": {"b": 1}}`, ShapeComplexObject},
		{"distribution", "publicOpinion", `{"A": 0.3, "Undecided": 0.7}`, ShapeDistribution},
		{"distribution needs remainder", "publicOpinion", `{"A": 0.3}`, ShapeSimpleObject},
		{"distribution needs numbers", "publicOpinion", `{"A": "x", "Undecided": 1.0}`, ShapeSimpleObject},
		{"distribution name matters", "opinion", `{"A": 0.3, "Undecided": 0.7}`, ShapeSimpleObject},
		{"empty list", "x", `[]`, ShapeEmptyList},
		{"reference list", "x", `[{"value": 1}, {"value": 2}]`, ShapeReferenceList},
		{"list of lists", "x", `[[1], [2]]`, ShapeOpaqueList},
		{"list of objects", "x", `[{"a": 1}]`, ShapeOpaqueList},
		{"key-value list", "x", `[{"Key": {"value": 1}, "Value": 3}, {"Key": {"value": 2}, "Value": {"a": 1}}]`, ShapeKeyValueList},
		{"key-value list needs reference keys", "x", `[{"Key": "a", "Value": 3}]`, ShapeOpaqueList},
		{"key-value list needs every pair", "x", `[{"Key": {"value": 1}, "Value": 3}, {"Key": {"value": 2}}]`, ShapeOpaqueList},
		{"scalar list", "x", `[1, 2, 3]`, ShapeScalarList},
		{"mixed list starting scalar", "x", `[1, {"value": 2}]`, ShapeScalarList},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.property, mustParse(t, tt.input), rules)
			assert.Equal(t, tt.want, got.Shape(), "shape of %s", tt.input)
		})
	}
}

// TestClassify_ReferenceListKeepsMalformed checks that IDs are extracted only
// from well-formed elements while the element list stays intact.
func TestClassify_ReferenceListKeepsMalformed(t *testing.T) {
	raw := mustParse(t, `[{"value": 1}, {"value": -1}, "junk", {"value": 3, "$type": "T"}]`)
	c := Classify("refs", raw, DefaultRules())

	list, ok := c.(ReferenceList)
	require.True(t, ok)
	assert.Equal(t, []int64{1, 3}, list.IDs)
	assert.Len(t, list.Elements, 4)
}

// TestScalarEditor_Validate covers the per-kind validation rules.
func TestScalarEditor_Validate(t *testing.T) {
	tests := []struct {
		name  string
		kind  string
		input string
		want  bool
	}{
		{"int digits", `1`, "42", true},
		{"int negative", `1`, "-7", false},
		{"int plus sign", `1`, "+7", false},
		{"int padded", `1`, " 12 ", true},
		{"int decimal", `1`, "1.5", false},
		{"int text", `1`, "abc", false},
		{"int empty", `1`, "", false},
		{"int bare minus", `1`, "-", false},
		{"float", `1.0`, "0.25", true},
		{"float exponent", `1.0`, "1.5E-05", true},
		{"float int text", `1.0`, "3", true},
		{"float text", `1.0`, "x", false},
		{"string anything", `"s"`, "anything", true},
		{"bool anything", `true`, "maybe", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := NewEditor(Classify("p", mustParse(t, tt.kind), DefaultRules()))
			ed.Set(tt.input)
			assert.Equal(t, tt.want, ed.Validate())
		})
	}
}

// TestScalarEditor_Materialize checks conversions and the null write path.
func TestScalarEditor_Materialize(t *testing.T) {
	ed := NewEditor(Classify("p", int64(5), DefaultRules()))
	assert.Equal(t, "5", ed.Text())

	ed.Set("12")
	v, err := ed.Materialize()
	require.NoError(t, err)
	assert.Equal(t, int64(12), v)

	ed.Set("1.5")
	_, err = ed.Materialize()
	assert.True(t, errors.Is(err, model.ErrValidationFailure))

	ed.Set("-3")
	_, err = ed.Materialize()
	assert.True(t, errors.Is(err, model.ErrValidationFailure), "integers take digits only")

	nuller, ok := ed.(Nuller)
	require.True(t, ok, "scalar editors must support null")
	nuller.SetNull()
	v, err = ed.Materialize()
	require.NoError(t, err)
	assert.Nil(t, v)

	boolEd := NewEditor(Classify("p", false, DefaultRules()))
	boolEd.Set("True")
	v, err = boolEd.Materialize()
	require.NoError(t, err)
	assert.Equal(t, true, v)

	floatEd := NewEditor(Classify("p", 1.5e-05, DefaultRules()))
	assert.Equal(t, "1.5E-05", floatEd.Text())
	floatEd.Set("0.75")
	v, err = floatEd.Materialize()
	require.NoError(t, err)
	assert.Equal(t, 0.75, v)
}

// TestReferenceEditor encodes the one-key form.
func TestReferenceEditor(t *testing.T) {
	ed := NewEditor(Classify("owner", mustParse(t, `{"value": 4, "$type": "T"}`), DefaultRules()))
	assert.Equal(t, ShapeReference, ed.Shape())
	assert.Equal(t, "4", ed.Text())

	ed.Set("-2")
	assert.False(t, ed.Validate(), "negative IDs are not references")

	ed.Set("9")
	v, err := ed.Materialize()
	require.NoError(t, err)
	assert.True(t, savejson.Equal(mustParse(t, `{"value": 9}`), v))
}

// TestDistributionEditor_Remainder verifies the remainder is recomputed from
// the other fields and never taken from user input.
func TestDistributionEditor_Remainder(t *testing.T) {
	raw := mustParse(t, `{"A": 0.3, "B": 0.3, "Undecided": 0.4}`)
	ed := NewEditor(Classify("publicOpinion", raw, DefaultRules()))
	require.Equal(t, ShapeDistribution, ed.Shape())
	assert.Equal(t, "Undecided", ed.(*DistributionEditor).Remainder())

	setter, ok := ed.(FieldSetter)
	require.True(t, ok)
	require.NoError(t, setter.SetField("A", "0.5"))
	assert.ErrorIs(t, setter.SetField("Undecided", "0.9"), model.ErrValidationFailure)

	v, err := ed.Materialize()
	require.NoError(t, err)

	obj := v.(*savejson.Object)
	assert.Equal(t, []string{"A", "B", "Undecided"}, obj.Keys(), "original key order is kept")
	a, _ := obj.Get("A")
	b, _ := obj.Get("B")
	u, _ := obj.Get("Undecided")
	assert.Equal(t, 0.5, a)
	assert.Equal(t, 0.3, b)
	assert.InDelta(t, 0.2, u.(float64), 1e-12)

	ed.Set("Undecided=0.1")
	assert.False(t, ed.Validate(), "assigning the remainder via Set invalidates the editor")
}

// TestDistributionEditor_RemainderInMiddle keeps the remainder at its
// original position.
func TestDistributionEditor_RemainderInMiddle(t *testing.T) {
	raw := mustParse(t, `{"Undecided": 0.5, "A": 0.25, "B": 0.25}`)
	ed := NewEditor(Classify("publicOpinion", raw, DefaultRules()))
	ed.Set("A=0.5, B=0.5")

	v, err := ed.Materialize()
	require.NoError(t, err)
	obj := v.(*savejson.Object)
	assert.Equal(t, []string{"Undecided", "A", "B"}, obj.Keys())
	u, _ := obj.Get("Undecided")
	assert.Equal(t, 0.0, u)
}

// TestObjectEditor sets fields of a simple object by name and by text.
func TestObjectEditor(t *testing.T) {
	ed := NewEditor(Classify("p", mustParse(t, `{"x": 1, "y": "a", "z": true}`), DefaultRules()))
	assert.Equal(t, "x=1, y=a, z=true", ed.Text())

	x, ok := ed.(*ObjectEditor).Field("x")
	require.True(t, ok)
	assert.Equal(t, savejson.KindInt, x.Kind())
	assert.False(t, x.IsNull())

	ed.Set("x=2, z=false")
	v, err := ed.Materialize()
	require.NoError(t, err)
	assert.True(t, savejson.Equal(mustParse(t, `{"x": 2, "y": "a", "z": false}`), v))

	ed.Set("nope=1")
	assert.False(t, ed.Validate())

	ed.Set("x=abc")
	assert.False(t, ed.Validate())
}

// TestReferenceListEditor_PreservesMalformed verifies malformed elements
// keep their position when the IDs are rewritten.
func TestReferenceListEditor_PreservesMalformed(t *testing.T) {
	raw := mustParse(t, `[{"value": 1}, "junk", {"value": 2, "$type": "T"}]`)
	ed := NewEditor(Classify("refs", raw, DefaultRules()))
	assert.Equal(t, "1, 2", ed.Text())

	ed.Set("5, 6, 7")
	v, err := ed.Materialize()
	require.NoError(t, err)
	assert.True(t, savejson.Equal(
		mustParse(t, `[{"value": 5}, "junk", {"value": 6}, {"value": 7}]`), v))

	ed.Set("8")
	v, err = ed.Materialize()
	require.NoError(t, err)
	assert.True(t, savejson.Equal(mustParse(t, `[{"value": 8}, "junk"]`), v))

	ed.Set("1, x")
	assert.False(t, ed.Validate())
}

// TestBlobEditor requires JSON of the original container kind.
func TestBlobEditor(t *testing.T) {
	ed := NewEditor(Classify("p", mustParse(t, `{"a": {"b": [1, 2.5]}}`), DefaultRules()))
	assert.Equal(t, ShapeComplexObject, ed.Shape())
	assert.Equal(t, `{"a":{"b":[1,2.5]}}`, ed.Text())

	ed.Set(`[1, 2]`)
	assert.False(t, ed.Validate(), "an object blob must stay an object")

	ed.Set(`{"a": {}}`)
	v, err := ed.Materialize()
	require.NoError(t, err)
	assert.True(t, savejson.Equal(mustParse(t, `{"a": {}}`), v))

	list := NewEditor(Classify("p", mustParse(t, `[]`), DefaultRules()))
	assert.Equal(t, "[]", list.Text())
	list.Set(`[1, 2`)
	_, err = list.Materialize()
	assert.ErrorIs(t, err, model.ErrValidationFailure)
}

// TestSummary spot-checks the one-line renderings.
func TestSummary(t *testing.T) {
	resolve := func(id int64) string {
		if id == 1 {
			return "Alpha"
		}
		return "<?~?~?>"
	}
	rules := DefaultRules()

	assert.Equal(t, "#1 Alpha", Summary(Classify("r", mustParse(t, `{"value": 1}`), rules), resolve))
	assert.Equal(t, "[#1 Alpha, #2 <?~?~?>]", Summary(Classify("r", mustParse(t, `[{"value": 1}, {"value": 2}]`), rules), resolve))
	assert.Equal(t, "{a: 1, b: x}", Summary(Classify("o", mustParse(t, `{"a": 1, "b": "x"}`), rules), nil))
	assert.Equal(t, "[1, 2, 3, 4, 5, ... 2 more]", Summary(Classify("l", mustParse(t, `[1,2,3,4,5,6,7]`), rules), nil))
	assert.Equal(t, "[2 arrays]", Summary(Classify("l", mustParse(t, `[[1],[2]]`), rules), nil))
	assert.Equal(t, "[1 object]", Summary(Classify("l", mustParse(t, `[{"a": 1}]`), rules), nil))
	assert.Equal(t, "[#1 Alpha: 3, #2 <?~?~?>: {1}]", Summary(Classify("l",
		mustParse(t, `[{"Key": {"value": 1}, "Value": 3}, {"Key": {"value": 2}, "Value": {"a": 1}}]`), rules), resolve))
	assert.Equal(t, "null", Summary(Classify("n", nil, rules), nil))
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("é", 70)
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"null", nil, "null"},
		{"bool", true, "true"},
		{"int", int64(-4), "-4"},
		{"float", 2.5e-07, "2.5E-07"},
		{"short string", "Earth", "Earth"},
		{"long string", long, strings.Repeat("é", 57) + "..."},
		{"list", []any{int64(1), int64(2), int64(3)}, "[3]"},
		{"object", mustParse(t, `{"a": 1, "b": 2}`), "{2}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preview(tt.in))
		})
	}
}

// TestKeyValueListEditor edits the pairs as a JSON blob and keeps the shape.
func TestKeyValueListEditor(t *testing.T) {
	c := Classify("x", mustParse(t, `[{"Key": {"value": 1}, "Value": 3}]`), DefaultRules())
	kv, ok := c.(KeyValueList)
	require.True(t, ok)
	assert.Equal(t, []Pair{{Key: 1, Value: int64(3)}}, kv.Pairs)

	ed := NewEditor(c)
	assert.Equal(t, ShapeKeyValueList, ed.Shape())
	ed.Set(`[{"Key": {"value": 1}, "Value": 4}]`)
	v, err := ed.Materialize()
	require.NoError(t, err)
	assert.True(t, savejson.Equal(mustParse(t, `[{"Key": {"value": 1}, "Value": 4}]`), v))
}
