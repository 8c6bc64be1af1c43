// Package savejson holds the in-memory tree of a decoded save document.
//
// Save files must survive a load→edit→save cycle with property order intact,
// which rules out Go maps. A decoded value is one of:
//
//	nil                  JSON null
//	bool                 true / false
//	int64                integer literal
//	uint64               integer literal above math.MaxInt64
//	float64              literal with a fraction or exponent, NaN, ±Infinity
//	string               string
//	[]any                array
//	*Object              object, keys in document order
//
// The integer/float split follows the literal text, so "1" and "1.0" stay
// distinct through a round trip.
package savejson

// Object is an insertion-ordered JSON object.
// The zero value is not usable; create objects with NewObject.
type Object struct {
	keys  []string
	vals  []any
	index map[string]int
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{index: make(map[string]int)}
}

// Len returns the number of keys.
func (o *Object) Len() int {
	return len(o.keys)
}

// Keys returns a copy of the keys in order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// At returns the i-th key/value pair.
func (o *Object) At(i int) (string, any) {
	return o.keys[i], o.vals[i]
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	i, ok := o.index[key]
	if !ok {
		return nil, false
	}
	return o.vals[i], true
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.index[key]
	return ok
}

// Set stores v under key. An existing key keeps its position; a new key is
// appended. Repeated keys while decoding therefore behave like Python's
// dict: first position, last value.
func (o *Object) Set(key string, v any) {
	if i, ok := o.index[key]; ok {
		o.vals[i] = v
		return
	}
	o.index[key] = len(o.keys)
	o.keys = append(o.keys, key)
	o.vals = append(o.vals, v)
}

// Delete removes key, preserving the order of the remaining keys.
func (o *Object) Delete(key string) {
	i, ok := o.index[key]
	if !ok {
		return
	}
	o.keys = append(o.keys[:i], o.keys[i+1:]...)
	o.vals = append(o.vals[:i], o.vals[i+1:]...)
	delete(o.index, key)
	for j := i; j < len(o.keys); j++ {
		o.index[o.keys[j]] = j
	}
}

// Range calls fn for each pair in order until fn returns false.
func (o *Object) Range(fn func(key string, v any) bool) {
	for i, k := range o.keys {
		if !fn(k, o.vals[i]) {
			return
		}
	}
}
