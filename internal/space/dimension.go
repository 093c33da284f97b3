// Package space implements the parameter space: an ordered sequence of
// named, typed dimensions, plus the sampling/indexing/alignment
// operations strategies use to generate and snap candidate points.
package space

import (
	"fmt"
	"math"

	"github.com/activeharmony/harmony/internal/rng"
	"github.com/activeharmony/harmony/internal/value"
)

// Kind identifies which of the three dimension shapes a Dimension is.
type Kind uint8

const (
	// KindInteger is a closed integer interval with a positive step.
	KindInteger Kind = iota
	// KindReal is a closed real interval, not indexable.
	KindReal
	// KindEnum is an ordered list of strings.
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindEnum:
		return "enum"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Dimension is one named axis of a Space: an integer range with step,
// a real range, or an enumerated set of strings. The zero value is not
// valid — construct with NewInteger, NewReal, or NewEnum.
type Dimension struct {
	name string
	kind Kind

	// integer
	imin, imax, istep int64

	// real
	rmin, rmax float64

	// enum
	enum []string
}

// NewInteger constructs a closed integer interval [min, max] with the
// given positive step. Returns an error if min > max or step <= 0.
func NewInteger(name string, min, max, step int64) (Dimension, error) {
	if min > max {
		return Dimension{}, fmt.Errorf("space: integer dimension %q: min (%d) > max (%d)", name, min, max)
	}
	if step <= 0 {
		return Dimension{}, fmt.Errorf("space: integer dimension %q: step must be positive, got %d", name, step)
	}
	return Dimension{name: name, kind: KindInteger, imin: min, imax: max, istep: step}, nil
}

// NewReal constructs a closed real interval [min, max].
// Returns an error if min > max.
func NewReal(name string, min, max float64) (Dimension, error) {
	if min > max {
		return Dimension{}, fmt.Errorf("space: real dimension %q: min (%g) > max (%g)", name, min, max)
	}
	return Dimension{name: name, kind: KindReal, rmin: min, rmax: max}, nil
}

// NewEnum constructs an ordered enumeration of strings. Returns an
// error if values is empty.
func NewEnum(name string, values []string) (Dimension, error) {
	if len(values) == 0 {
		return Dimension{}, fmt.Errorf("space: enum dimension %q: must have at least one value", name)
	}
	cp := make([]string, len(values))
	copy(cp, values)
	return Dimension{name: name, kind: KindEnum, enum: cp}, nil
}

// Name returns the dimension's name.
func (d Dimension) Name() string { return d.name }

// Kind returns the dimension's shape.
func (d Dimension) Kind() Kind { return d.kind }

// Finite reports whether the dimension has a finite, indexable set of
// legal values. Integer and enum dimensions are finite; real is not.
func (d Dimension) Finite() bool { return d.kind != KindReal }

// Limit returns the number of legal values for a finite dimension. It
// is an error to call Limit on a real dimension.
func (d Dimension) Limit() (int64, error) {
	switch d.kind {
	case KindInteger:
		return (d.imax-d.imin)/d.istep + 1, nil
	case KindEnum:
		return int64(len(d.enum)), nil
	default:
		return 0, fmt.Errorf("space: dimension %q: Limit undefined for real dimensions", d.name)
	}
}

// IntBounds returns the [min, max] bounds and step of an integer
// dimension. Panics if Kind() != KindInteger.
func (d Dimension) IntBounds() (min, max, step int64) {
	if d.kind != KindInteger {
		panic("space: IntBounds called on non-integer dimension")
	}
	return d.imin, d.imax, d.istep
}

// RealBounds returns the [min, max] bounds of a real dimension. Panics
// if Kind() != KindReal.
func (d Dimension) RealBounds() (min, max float64) {
	if d.kind != KindReal {
		panic("space: RealBounds called on non-real dimension")
	}
	return d.rmin, d.rmax
}

// EnumValues returns the ordered enumeration. Panics if Kind() != KindEnum.
func (d Dimension) EnumValues() []string {
	if d.kind != KindEnum {
		panic("space: EnumValues called on non-enum dimension")
	}
	out := make([]string, len(d.enum))
	copy(out, d.enum)
	return out
}

// Range returns the numeric span (max - min) of integer and real
// dimensions, used for bounding-box diagonal and penalty-span
// computations. For enum dimensions the span is the index range.
func (d Dimension) Range() float64 {
	switch d.kind {
	case KindInteger:
		return float64(d.imax - d.imin)
	case KindReal:
		return d.rmax - d.rmin
	case KindEnum:
		return float64(len(d.enum) - 1)
	default:
		return 0
	}
}

// Random returns a uniformly random legal value. Integer dimensions are
// uniform over the index range; real dimensions are uniform over the
// interval; enum dimensions are uniform over the list.
func (d Dimension) Random(r *rng.RNG) value.Value {
	switch d.kind {
	case KindInteger:
		limit, _ := d.Limit()
		idx := r.IntRange(0, limit-1)
		v, _ := d.ValueAt(idx)
		return v
	case KindReal:
		return value.OfReal(r.Float64Range(d.rmin, d.rmax))
	case KindEnum:
		idx := r.Intn(len(d.enum))
		return value.OfString(d.enum[idx])
	default:
		panic("space: Random called on invalid dimension")
	}
}

// Index returns the position of v within a finite dimension's legal
// value sequence. Returns an error for real dimensions or values that
// are not exactly on the grid.
func (d Dimension) Index(v value.Value) (int64, error) {
	switch d.kind {
	case KindInteger:
		if v.Kind() != value.Int {
			return 0, fmt.Errorf("space: dimension %q: expected int value, got %s", d.name, v.Kind())
		}
		i := v.Int()
		if i < d.imin || i > d.imax || (i-d.imin)%d.istep != 0 {
			return 0, fmt.Errorf("space: dimension %q: value %d is not on the grid", d.name, i)
		}
		return (i - d.imin) / d.istep, nil
	case KindEnum:
		if v.Kind() != value.String {
			return 0, fmt.Errorf("space: dimension %q: expected string value, got %s", d.name, v.Kind())
		}
		for i, s := range d.enum {
			if s == v.Str() {
				return int64(i), nil
			}
		}
		return 0, fmt.Errorf("space: dimension %q: %q is not a legal enum value", d.name, v.Str())
	default:
		return 0, fmt.Errorf("space: dimension %q: Index undefined for real dimensions", d.name)
	}
}

// ValueAt returns the value at index i of a finite dimension.
func (d Dimension) ValueAt(i int64) (value.Value, error) {
	switch d.kind {
	case KindInteger:
		limit, _ := d.Limit()
		if i < 0 || i >= limit {
			return value.Value{}, fmt.Errorf("space: dimension %q: index %d out of range [0, %d)", d.name, i, limit)
		}
		return value.OfInt(d.imin + i*d.istep), nil
	case KindEnum:
		if i < 0 || int(i) >= len(d.enum) {
			return value.Value{}, fmt.Errorf("space: dimension %q: index %d out of range [0, %d)", d.name, i, len(d.enum))
		}
		return value.OfString(d.enum[i]), nil
	default:
		return value.Value{}, fmt.Errorf("space: dimension %q: ValueAt undefined for real dimensions", d.name)
	}
}

// Align snaps v to the nearest legal value on this dimension: integers
// round to the nearest step, reals clamp to [min, max], and enums
// require an exact match (returning an error otherwise).
func (d Dimension) Align(v value.Value) (value.Value, error) {
	switch d.kind {
	case KindInteger:
		var f float64
		switch v.Kind() {
		case value.Int:
			f = float64(v.Int())
		case value.Real:
			f = v.Real()
		default:
			return value.Value{}, fmt.Errorf("space: dimension %q: cannot align %s value to integer dimension", d.name, v.Kind())
		}
		if f <= float64(d.imin) {
			return value.OfInt(d.imin), nil
		}
		if f >= float64(d.imax) {
			return value.OfInt(d.imax), nil
		}
		steps := math.Round((f - float64(d.imin)) / float64(d.istep))
		aligned := d.imin + int64(steps)*d.istep
		if aligned > d.imax {
			aligned = d.imax
		}
		return value.OfInt(aligned), nil
	case KindReal:
		var f float64
		switch v.Kind() {
		case value.Real:
			f = v.Real()
		case value.Int:
			f = float64(v.Int())
		default:
			return value.Value{}, fmt.Errorf("space: dimension %q: cannot align %s value to real dimension", d.name, v.Kind())
		}
		if f < d.rmin {
			f = d.rmin
		}
		if f > d.rmax {
			f = d.rmax
		}
		return value.OfReal(f), nil
	case KindEnum:
		if v.Kind() != value.String {
			return value.Value{}, fmt.Errorf("space: dimension %q: cannot align %s value to enum dimension", d.name, v.Kind())
		}
		for _, s := range d.enum {
			if s == v.Str() {
				return v, nil
			}
		}
		return value.Value{}, fmt.Errorf("space: dimension %q: %q is not a legal enum value", d.name, v.Str())
	default:
		return value.Value{}, fmt.Errorf("space: dimension %q: invalid kind", d.name)
	}
}

// NextAbove returns the next representable value strictly above v,
// used by the exhaustive strategy's real-dimension odometer. Integer
// and enum dimensions step by their grid; real dimensions step by the
// next representable float64 above v (math.Nextafter toward +Inf).
// Returns ok=false if v is already at or beyond the dimension's max —
// the caller wraps back to min.
func (d Dimension) NextAbove(v value.Value) (value.Value, bool) {
	switch d.kind {
	case KindInteger:
		i := v.Int() + d.istep
		if i > d.imax {
			return value.Value{}, false
		}
		return value.OfInt(i), true
	case KindReal:
		next := math.Nextafter(v.Real(), math.Inf(1))
		if next > d.rmax || next == v.Real() {
			return value.Value{}, false
		}
		return value.OfReal(next), true
	case KindEnum:
		idx, err := d.Index(v)
		if err != nil || int(idx)+1 >= len(d.enum) {
			return value.Value{}, false
		}
		return value.OfString(d.enum[idx+1]), true
	default:
		return value.Value{}, false
	}
}

// Min returns the dimension's minimum legal value.
func (d Dimension) Min() value.Value {
	switch d.kind {
	case KindInteger:
		return value.OfInt(d.imin)
	case KindReal:
		return value.OfReal(d.rmin)
	case KindEnum:
		return value.OfString(d.enum[0])
	default:
		return value.Value{}
	}
}
