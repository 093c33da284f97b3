// Package value implements the tagged union that backs every dimension
// term in a parameter space: a signed integer, a real number, or an
// enumerated string. Equality and ordering are defined per tag.
package value

import (
	"fmt"
	"strconv"
)

// Kind discriminates the tag carried by a Value.
type Kind uint8

const (
	// Int holds a 64-bit signed integer term.
	Int Kind = iota
	// Real holds a 64-bit floating point term.
	Real
	// String holds an enumerated string term.
	String
)

// String renders the kind name for logging and error messages.
func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Real:
		return "real"
	case String:
		return "string"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Value is a tagged union over {int64, real64, string}. The zero Value
// is the integer 0 — there is no implicit "empty" tag.
type Value struct {
	kind Kind
	i    int64
	r    float64
	s    string
}

// OfInt constructs an integer-tagged Value.
func OfInt(i int64) Value { return Value{kind: Int, i: i} }

// OfReal constructs a real-tagged Value.
func OfReal(r float64) Value { return Value{kind: Real, r: r} }

// OfString constructs a string-tagged Value.
func OfString(s string) Value { return Value{kind: String, s: s} }

// Kind returns the Value's tag.
func (v Value) Kind() Kind { return v.kind }

// Int returns the integer payload. Panics if Kind() != Int.
func (v Value) Int() int64 {
	if v.kind != Int {
		panic(fmt.Sprintf("value: Int() called on %s value", v.kind))
	}
	return v.i
}

// Real returns the real payload. Panics if Kind() != Real.
func (v Value) Real() float64 {
	if v.kind != Real {
		panic(fmt.Sprintf("value: Real() called on %s value", v.kind))
	}
	return v.r
}

// Str returns the string payload. Panics if Kind() != String.
func (v Value) Str() string {
	if v.kind != String {
		panic(fmt.Sprintf("value: Str() called on %s value", v.kind))
	}
	return v.s
}

// Equal reports whether two values carry the same tag and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Int:
		return v.i == o.i
	case Real:
		return v.r == o.r
	case String:
		return v.s == o.s
	default:
		return false
	}
}

// Less reports v < o under the per-tag ordering. Mismatched tags panic —
// ordering is only ever asked of values drawn from the same dimension.
func (v Value) Less(o Value) bool {
	if v.kind != o.kind {
		panic(fmt.Sprintf("value: Less() between mismatched kinds %s and %s", v.kind, o.kind))
	}
	switch v.kind {
	case Int:
		return v.i < o.i
	case Real:
		return v.r < o.r
	case String:
		return v.s < o.s
	default:
		return false
	}
}

// Format renders the value in the canonical point-literal form used by
// Point.Format and point_parse: decimal integers, round-trippable hex
// floats for reals, and bare tokens for strings.
func (v Value) Format() string {
	switch v.kind {
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Real:
		return strconv.FormatFloat(v.r, 'x', -1, 64)
	case String:
		return v.s
	default:
		return ""
	}
}

// Float returns the value as a float64 regardless of tag, for geometry
// code (centroid, distance) that treats every coordinate numerically.
// Int and Real convert directly; a String (enum) term panics, since its
// position is not known here, so enum coordinates go through
// Dimension.Index first.
func (v Value) Float() float64 {
	switch v.kind {
	case Int:
		return float64(v.i)
	case Real:
		return v.r
	default:
		panic(fmt.Sprintf("value: Float() called on %s value", v.kind))
	}
}
