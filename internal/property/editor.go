package property

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mmr-tortoise/tise/internal/model"
	"github.com/mmr-tortoise/tise/internal/reference"
	"github.com/mmr-tortoise/tise/internal/savefmt"
	"github.com/mmr-tortoise/tise/internal/savejson"
)

// Editor is the write-back adapter for one classified value.
//
// Set replaces the pending user text, Validate checks it against the shape
// the editor was built from, and Materialize converts it into a raw value
// for document.SetProperty. Materialize on invalid text returns an error
// wrapping model.ErrValidationFailure and leaves nothing half-applied.
type Editor interface {
	Shape() Shape
	Text() string
	Set(text string)
	Validate() bool
	Materialize() (any, error)
}

// Nuller is implemented by editors that accept an explicit null/erase.
type Nuller interface {
	SetNull()
}

// FieldSetter is implemented by editors of flat objects.
type FieldSetter interface {
	SetField(key, text string) error
}

// NewEditor returns the editor for c, seeded with its current value.
func NewEditor(c Classified) Editor {
	switch v := c.(type) {
	case Scalar:
		return newScalarEditor(v.Kind, v.Value)
	case Reference:
		return &ReferenceEditor{text: strconv.FormatInt(v.ID, 10)}
	case SimpleObject:
		return newObjectEditor(ShapeSimpleObject, v.Fields)
	case Distribution:
		return newDistributionEditor(v)
	case ReferenceList:
		return newReferenceListEditor(v)
	case ComplexObject:
		return newBlobEditor(ShapeComplexObject, savejson.KindObject, v.Object)
	case EmptyList:
		return newBlobEditor(ShapeEmptyList, savejson.KindArray, v.Raw())
	case ScalarList:
		return newBlobEditor(ShapeScalarList, savejson.KindArray, v.Items)
	case OpaqueList:
		return newBlobEditor(ShapeOpaqueList, savejson.KindArray, v.Items)
	case KeyValueList:
		return newBlobEditor(ShapeKeyValueList, savejson.KindArray, v.Items)
	default:
		panic(fmt.Sprintf("property: no editor for %T", c))
	}
}

func invalid(text string, what string) error {
	return fmt.Errorf("%w: %q is not a valid %s", model.ErrValidationFailure, text, what)
}

// ScalarEditor edits a bool, int, float, string or null value.
type ScalarEditor struct {
	kind savejson.Kind
	text string
	null bool
}

func newScalarEditor(kind savejson.Kind, v any) *ScalarEditor {
	return &ScalarEditor{kind: kind, text: scalarText(v), null: v == nil}
}

func scalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return savefmt.FormatFloat(t)
	default:
		return fmt.Sprint(t)
	}
}

// Kind returns the scalar kind the editor converts to.
func (e *ScalarEditor) Kind() savejson.Kind { return e.kind }

func (e *ScalarEditor) Shape() Shape { return ShapeScalar }

func (e *ScalarEditor) Text() string { return e.text }

// Set replaces the pending text and clears any pending null.
func (e *ScalarEditor) Set(text string) {
	e.text = text
	e.null = false
}

// SetNull erases the value: Materialize will return JSON null.
func (e *ScalarEditor) SetNull() {
	e.null = true
	e.text = ""
}

// IsNull reports whether the pending value is null.
func (e *ScalarEditor) IsNull() bool { return e.null }

// Validate accepts digits only for integers and parseable text for floats.
// Everything else is always valid.
func (e *ScalarEditor) Validate() bool {
	if e.null {
		return true
	}
	switch e.kind {
	case savejson.KindInt:
		return isNumeral(strings.TrimSpace(e.text))
	case savejson.KindFloat:
		_, err := strconv.ParseFloat(strings.TrimSpace(e.text), 64)
		return err == nil
	default:
		return true
	}
}

func (e *ScalarEditor) Materialize() (any, error) {
	if !e.Validate() {
		return nil, invalid(e.text, e.kind.String())
	}
	if e.null {
		return nil, nil
	}
	text := strings.TrimSpace(e.text)
	switch e.kind {
	case savejson.KindInt:
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n, nil
		}
		if n, err := strconv.ParseUint(text, 10, 64); err == nil {
			return n, nil
		}
		return nil, invalid(e.text, "int")
	case savejson.KindFloat:
		f, _ := strconv.ParseFloat(text, 64)
		return f, nil
	case savejson.KindBool:
		return parseBool(text), nil
	default:
		// Strings and former nulls are written back as typed.
		return e.text, nil
	}
}

// isNumeral reports whether s is a non-empty run of ASCII digits. Signs,
// spaces and separators are rejected.
func isNumeral(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// ReferenceEditor edits the target ID of a reference.
type ReferenceEditor struct {
	text string
}

func (e *ReferenceEditor) Shape() Shape    { return ShapeReference }
func (e *ReferenceEditor) Text() string    { return e.text }
func (e *ReferenceEditor) Set(text string) { e.text = text }

// Validate accepts a non-negative integer ID.
func (e *ReferenceEditor) Validate() bool {
	return isNumeral(strings.TrimSpace(e.text))
}

// Materialize returns the one-key reference form; a "$type" tag present on
// the original is not carried over.
func (e *ReferenceEditor) Materialize() (any, error) {
	if !e.Validate() {
		return nil, invalid(e.text, "reference ID")
	}
	id, err := strconv.ParseInt(strings.TrimSpace(e.text), 10, 64)
	if err != nil {
		return nil, invalid(e.text, "reference ID")
	}
	return reference.Encode(id), nil
}

// ObjectEditor edits a flat object field by field.
type ObjectEditor struct {
	shape  Shape
	keys   []string
	fields map[string]*ScalarEditor
	parsed bool
}

func newObjectEditor(shape Shape, fields []Field) *ObjectEditor {
	e := &ObjectEditor{
		shape:  shape,
		keys:   make([]string, 0, len(fields)),
		fields: make(map[string]*ScalarEditor, len(fields)),
		parsed: true,
	}
	for _, f := range fields {
		e.keys = append(e.keys, f.Key)
		e.fields[f.Key] = newScalarEditor(f.Kind, f.Value)
	}
	return e
}

func (e *ObjectEditor) Shape() Shape { return e.shape }

// Keys returns the field names in document order.
func (e *ObjectEditor) Keys() []string {
	out := make([]string, len(e.keys))
	copy(out, e.keys)
	return out
}

// Field returns the editor of one field.
func (e *ObjectEditor) Field(key string) (*ScalarEditor, bool) {
	f, ok := e.fields[key]
	return f, ok
}

// Text renders the fields as "key=value, key=value".
func (e *ObjectEditor) Text() string {
	parts := make([]string, 0, len(e.keys))
	for _, k := range e.keys {
		parts = append(parts, k+"="+e.fields[k].Text())
	}
	return strings.Join(parts, ", ")
}

// Set applies "key=value" assignments separated by commas. An unknown key
// or a malformed assignment makes the editor invalid until the next Set.
func (e *ObjectEditor) Set(text string) {
	e.parsed = true
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok || e.SetField(strings.TrimSpace(k), strings.TrimSpace(v)) != nil {
			e.parsed = false
		}
	}
}

// SetField replaces the text of one field.
func (e *ObjectEditor) SetField(key, text string) error {
	f, ok := e.fields[key]
	if !ok {
		return fmt.Errorf("%w: %q", model.ErrUnknownProperty, key)
	}
	f.Set(text)
	return nil
}

func (e *ObjectEditor) Validate() bool {
	if !e.parsed {
		return false
	}
	for _, k := range e.keys {
		if !e.fields[k].Validate() {
			return false
		}
	}
	return true
}

func (e *ObjectEditor) Materialize() (any, error) {
	if !e.parsed {
		return nil, invalid(e.Text(), "field assignment list")
	}
	out := savejson.NewObject()
	for _, k := range e.keys {
		v, err := e.fields[k].Materialize()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out.Set(k, v)
	}
	return out, nil
}

// DistributionEditor edits a normalized distribution. Every field except the
// remainder is user-editable; the remainder is recomputed as 1 minus the sum
// of the others on every Materialize.
type DistributionEditor struct {
	*ObjectEditor
	remainder string
	order     []string
}

func newDistributionEditor(d Distribution) *DistributionEditor {
	editable := make([]Field, 0, len(d.Fields))
	order := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		order = append(order, f.Key)
		if f.Key == d.Remainder {
			continue
		}
		editable = append(editable, Field{Key: f.Key, Kind: savejson.KindFloat, Value: asFloat(f.Value)})
	}
	return &DistributionEditor{
		ObjectEditor: newObjectEditor(ShapeDistribution, editable),
		remainder:    d.Remainder,
		order:        order,
	}
}

func asFloat(v any) float64 {
	f, _ := savejson.AsFloat64(v)
	return f
}

// Remainder returns the name of the derived field.
func (e *DistributionEditor) Remainder() string { return e.remainder }

// SetField rejects the remainder field, which is never user-set.
func (e *DistributionEditor) SetField(key, text string) error {
	if key == e.remainder {
		return fmt.Errorf("%w: %q is derived from the other fields", model.ErrValidationFailure, key)
	}
	return e.ObjectEditor.SetField(key, text)
}

// Set applies "key=value" assignments; assigning the remainder invalidates
// the editor.
func (e *DistributionEditor) Set(text string) {
	e.parsed = true
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok || e.SetField(strings.TrimSpace(k), strings.TrimSpace(v)) != nil {
			e.parsed = false
		}
	}
}

// Materialize writes the fields in their original order with the remainder
// recomputed, so the distribution sums to 1.
func (e *DistributionEditor) Materialize() (any, error) {
	if !e.Validate() {
		return nil, invalid(e.Text(), "distribution")
	}
	values := make(map[string]float64, len(e.keys))
	rem := 1.0
	for _, k := range e.keys {
		v, err := e.fields[k].Materialize()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		f := asFloat(v)
		values[k] = f
		rem -= f
	}
	out := savejson.NewObject()
	for _, k := range e.order {
		if k == e.remainder {
			out.Set(k, rem)
			continue
		}
		out.Set(k, values[k])
	}
	return out, nil
}

// ReferenceListEditor edits the IDs of a reference list. Malformed elements
// of the original list keep their positions on write-back.
type ReferenceListEditor struct {
	elements []any
	ids      []int64
	text     string
	valid    bool
}

func newReferenceListEditor(l ReferenceList) *ReferenceListEditor {
	ids := make([]int64, len(l.IDs))
	copy(ids, l.IDs)
	e := &ReferenceListEditor{elements: l.Elements, ids: ids, valid: true}
	e.text = formatIDs(ids)
	return e
}

func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

func (e *ReferenceListEditor) Shape() Shape { return ShapeReferenceList }
func (e *ReferenceListEditor) Text() string { return e.text }

// IDs returns the pending IDs.
func (e *ReferenceListEditor) IDs() []int64 {
	out := make([]int64, len(e.ids))
	copy(out, e.ids)
	return out
}

// Set parses a comma or whitespace separated list of IDs.
func (e *ReferenceListEditor) Set(text string) {
	e.text = text
	e.valid = true
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		if !isNumeral(f) {
			e.valid = false
			return
		}
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			e.valid = false
			return
		}
		ids = append(ids, id)
	}
	e.ids = ids
}

func (e *ReferenceListEditor) Validate() bool { return e.valid }

// Materialize walks the original list: every well-formed reference slot
// takes the next pending ID (and is dropped when IDs run out), malformed
// elements are copied verbatim, and leftover IDs are appended.
func (e *ReferenceListEditor) Materialize() (any, error) {
	if !e.valid {
		return nil, invalid(e.text, "reference ID list")
	}
	out := make([]any, 0, len(e.elements)+len(e.ids))
	next := 0
	for _, elem := range e.elements {
		if !reference.Is(elem) {
			out = append(out, savejson.Clone(elem))
			continue
		}
		if next < len(e.ids) {
			out = append(out, reference.Encode(e.ids[next]))
			next++
		}
	}
	for ; next < len(e.ids); next++ {
		out = append(out, reference.Encode(e.ids[next]))
	}
	return out, nil
}

// BlobEditor edits a nested value as raw JSON text.
type BlobEditor struct {
	shape Shape
	want  savejson.Kind
	text  string
}

func newBlobEditor(shape Shape, want savejson.Kind, v any) *BlobEditor {
	text, err := savefmt.MarshalCompact(v)
	if err != nil {
		text = nil
	}
	return &BlobEditor{shape: shape, want: want, text: string(text)}
}

func (e *BlobEditor) Shape() Shape    { return e.shape }
func (e *BlobEditor) Text() string    { return e.text }
func (e *BlobEditor) Set(text string) { e.text = text }

// Validate requires well-formed JSON of the original container kind.
func (e *BlobEditor) Validate() bool {
	_, err := e.parse()
	return err == nil
}

func (e *BlobEditor) parse() (any, error) {
	v, err := savejson.Parse([]byte(e.text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrValidationFailure, err)
	}
	if got := savejson.KindOf(v); got != e.want {
		return nil, fmt.Errorf("%w: expected a JSON %s, got %s", model.ErrValidationFailure, e.want, got)
	}
	return v, nil
}

func (e *BlobEditor) Materialize() (any, error) {
	return e.parse()
}
