// Package point implements the point, performance, and vertex types
// shared by every search strategy: a point is a tagged value tuple
// conforming to a space plus an identifier; a performance record is a
// fixed-length vector of real objective values with a scalar "unified"
// reduction; a vertex pairs a point with its observed performance.
package point

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/activeharmony/harmony/internal/space"
	"github.com/activeharmony/harmony/internal/value"
)

// NoID is the reserved id meaning "no point" — returned by BEST before
// any report and never assigned to a generated point.
const NoID uint32 = 0

// Point is a tagged value tuple conforming to a space, plus a
// strategy-assigned identifier.
type Point struct {
	ID    uint32
	Terms []value.Value
}

// New constructs a Point, validating that it matches the space's
// length. Strategies assign ids monotonically starting at 1 — New does
// not itself mint an id.
func New(id uint32, sp *space.Space, terms []value.Value) (*Point, error) {
	if len(terms) != sp.Len() {
		return nil, fmt.Errorf("point: term count %d does not match space length %d", len(terms), sp.Len())
	}
	cp := make([]value.Value, len(terms))
	copy(cp, terms)
	return &Point{ID: id, Terms: cp}, nil
}

// Clone returns a deep copy, so pipeline stages and strategies never
// alias a caller's term slice.
func (p *Point) Clone() *Point {
	if p == nil {
		return nil
	}
	terms := make([]value.Value, len(p.Terms))
	copy(terms, p.Terms)
	return &Point{ID: p.ID, Terms: terms}
}

// Format renders the point as "( v1, v2, ... )", the literal form
// point_parse reads back.
func (p *Point) Format() string {
	var b strings.Builder
	b.WriteString("( ")
	for i, t := range p.Terms {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.Format())
	}
	b.WriteString(" )")
	return b.String()
}

// Parse reads "( v1, v2, ... )" into a Point conforming to sp, using
// each dimension's kind to interpret the corresponding literal.
func Parse(id uint32, s string, sp *space.Space) (*Point, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("point: malformed literal %q: expected ( ... )", s)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	var fields []string
	if inner != "" {
		fields = strings.Split(inner, ",")
	}
	if len(fields) != sp.Len() {
		return nil, fmt.Errorf("point: literal has %d terms, space has %d", len(fields), sp.Len())
	}
	terms := make([]value.Value, sp.Len())
	for i, f := range fields {
		f = strings.TrimSpace(f)
		d := sp.Dim(i)
		switch d.Kind() {
		case space.KindInteger:
			n, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("point: term %d: invalid integer literal %q: %w", i, f, err)
			}
			terms[i] = value.OfInt(n)
		case space.KindReal:
			r, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("point: term %d: invalid real literal %q: %w", i, f, err)
			}
			terms[i] = value.OfReal(r)
		case space.KindEnum:
			terms[i] = value.OfString(f)
		default:
			return nil, fmt.Errorf("point: term %d: unknown dimension kind", i)
		}
	}
	return New(id, sp, terms)
}

// Align returns a copy of p with every term snapped to sp's grid.
func Align(p *Point, sp *space.Space) (*Point, error) {
	aligned, err := sp.Align(p.Terms)
	if err != nil {
		return nil, err
	}
	return &Point{ID: p.ID, Terms: aligned}, nil
}

// Equal reports whether two points have identical terms (ids are not
// compared — two candidates can be equal in value but carry distinct
// ids).
func (p *Point) Equal(o *Point) bool {
	if p == nil || o == nil {
		return p == o
	}
	if len(p.Terms) != len(o.Terms) {
		return false
	}
	for i := range p.Terms {
		if !p.Terms[i].Equal(o.Terms[i]) {
			return false
		}
	}
	return true
}
