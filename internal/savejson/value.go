package savejson

import (
	"math"
)

// Kind is the JSON type of a decoded value.
type Kind int

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

var kindNames = map[Kind]string{
	KindInvalid: "invalid",
	KindNull:    "null",
	KindBool:    "bool",
	KindInt:     "int",
	KindFloat:   "float",
	KindString:  "string",
	KindArray:   "array",
	KindObject:  "object",
}

// String returns the lower-case kind name.
func (k Kind) String() string {
	return kindNames[k]
}

// IsScalar reports whether k is bool, int, float or string.
// Null is deliberately not a scalar here: an object holding a null is not
// eligible for the flat field editor.
func (k Kind) IsScalar() bool {
	switch k {
	case KindBool, KindInt, KindFloat, KindString:
		return true
	default:
		return false
	}
}

// KindOf returns the Kind of a decoded value. Go types outside the
// documented set (see package doc) yield KindInvalid, except that plain int
// is accepted as KindInt for callers building trees by hand.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case int64, uint64, int:
		return KindInt
	case float64:
		return KindFloat
	case string:
		return KindString
	case []any:
		return KindArray
	case *Object:
		return KindObject
	default:
		return KindInvalid
	}
}

// AsInt64 returns v as an int64 if it is an integer that fits.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n), true
		}
	}
	return 0, false
}

// AsFloat64 returns any numeric value as a float64.
func AsFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// Clone returns a deep copy of v.
func Clone(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	case *Object:
		out := &Object{
			keys:  make([]string, len(t.keys)),
			vals:  make([]any, len(t.vals)),
			index: make(map[string]int, len(t.keys)),
		}
		copy(out.keys, t.keys)
		for i, e := range t.vals {
			out.vals[i] = Clone(e)
		}
		for k, i := range t.index {
			out.index[k] = i
		}
		return out
	default:
		return v
	}
}

// Equal reports whether a and b are the same tree, including key order.
// Integers compare by value across int64/uint64; an integer never equals a
// float. NaN equals NaN so that decoded saves compare equal to themselves.
func Equal(a, b any) bool {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return false
	}
	switch ka {
	case KindNull:
		return true
	case KindBool:
		return a.(bool) == b.(bool)
	case KindInt:
		return intEqual(a, b)
	case KindFloat:
		fa, fb := a.(float64), b.(float64)
		if math.IsNaN(fa) && math.IsNaN(fb) {
			return true
		}
		return fa == fb
	case KindString:
		return a.(string) == b.(string)
	case KindArray:
		xa, xb := a.([]any), b.([]any)
		if len(xa) != len(xb) {
			return false
		}
		for i := range xa {
			if !Equal(xa[i], xb[i]) {
				return false
			}
		}
		return true
	case KindObject:
		oa, ob := a.(*Object), b.(*Object)
		if oa.Len() != ob.Len() {
			return false
		}
		for i, k := range oa.keys {
			if ob.keys[i] != k || !Equal(oa.vals[i], ob.vals[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func intEqual(a, b any) bool {
	ia, okA := AsInt64(a)
	ib, okB := AsInt64(b)
	if okA && okB {
		return ia == ib
	}
	if okA || okB {
		return false
	}
	return a.(uint64) == b.(uint64)
}
