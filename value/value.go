// Package value defines the tagged tree of JSON-compatible values stored by
// the database, and the whitelist predicate that decides what may enter it.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// A Value is an arbitrary member of the document tree: Null, Bool, Int,
// Float, Str, Array, or Map. The set is closed; there is no way for a caller
// to define a new kind of Value.
type Value interface {
	// JSON renders the value as JSON source text.
	JSON() string

	// String renders the value for diagnostic display. The result is not
	// required to be valid JSON.
	String() string

	isValue()
}

// Null is the JSON null constant.
var Null nullValue

type nullValue struct{}

func (nullValue) JSON() string   { return "null" }
func (nullValue) String() string { return "null" }
func (nullValue) isValue()       {}

// Bool is a JSON boolean.
type Bool bool

func (b Bool) JSON() string {
	if b {
		return "true"
	}
	return "false"
}
func (b Bool) String() string { return b.JSON() }
func (Bool) isValue()         {}

// Int is a signed 64-bit integer value.
type Int int64

func (z Int) JSON() string   { return strconv.FormatInt(int64(z), 10) }
func (z Int) String() string { return z.JSON() }
func (Int) isValue()         {}

// Float is a 64-bit floating point value.
type Float float64

func (f Float) JSON() string   { return strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (f Float) String() string { return f.JSON() }
func (Float) isValue()         {}

// Str is a JSON string value.
type Str string

func (s Str) JSON() string   { return quoteString(string(s)) }
func (s Str) String() string { return string(s) }
func (Str) isValue()         {}

// Array is an ordered sequence of values.
type Array []Value

func (a Array) JSON() string {
	if len(a) == 0 {
		return "[]"
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for i, elt := range a {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(elt.JSON())
	}
	sb.WriteByte(']')
	return sb.String()
}
func (a Array) String() string { return fmt.Sprintf("Array(len=%d)", len(a)) }
func (Array) isValue()         {}

// Map is a collection of string-keyed values. Per spec, insertion order is
// not observable: JSON() sorts keys for a deterministic rendering, but
// iteration via Keys returns the Go map's unspecified order.
type Map map[string]Value

// Keys returns the keys of m in unspecified order.
func (m Map) Keys() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func (m Map) JSON() string {
	keys := m.Keys()
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(quoteString(k))
		sb.WriteByte(':')
		sb.WriteString(m[k].JSON())
	}
	sb.WriteByte('}')
	return sb.String()
}
func (m Map) String() string { return fmt.Sprintf("Map(len=%d)", len(m)) }
func (Map) isValue()         {}

// Unit is the pathless singleton a bare Require yields once its condition
// holds: it carries no information beyond "this branch matched", the same
// role Python's None plays as Require's success value in the original
// source.
type Unit struct{}

func (Unit) JSON() string   { return "null" }
func (Unit) String() string { return "Unit" }
func (Unit) isValue()       {}

// Truth reports the truthiness of v, used by Require, Or, And, and the
// "truth" operation. Following the Python source's use of bare truthiness:
// false, 0, 0.0, "", null, empty array, and empty map are all falsy.
func Truth(v Value) bool {
	switch t := v.(type) {
	case nil:
		return false
	case nullValue:
		return false
	case Bool:
		return bool(t)
	case Int:
		return t != 0
	case Float:
		return t != 0
	case Str:
		return t != ""
	case Array:
		return len(t) > 0
	case Map:
		return len(t) > 0
	default:
		return true
	}
}

// Equal reports whether a and b are structurally equal values.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case nullValue:
		_, ok := b.(nullValue)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int:
		switch y := b.(type) {
		case Int:
			return x == y
		case Float:
			return Float(x) == y
		}
		return false
	case Float:
		switch y := b.(type) {
		case Float:
			return x == y
		case Int:
			return x == Float(y)
		}
		return false
	case Str:
		y, ok := b.(Str)
		return ok && x == y
	case Array:
		y, ok := b.(Array)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Map:
		y, ok := b.(Map)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, v := range x {
			w, ok := y[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
