package space

import (
	"fmt"
	"math"
	"strings"

	"github.com/activeharmony/harmony/internal/rng"
	"github.com/activeharmony/harmony/internal/value"
)

// Space is an ordered, immutable sequence of named dimensions with
// stable indices. It is built once at session load (New) and never
// mutated afterward.
type Space struct {
	dims   []Dimension
	byName map[string]int
}

// New builds a Space from an ordered dimension list. Names must be
// unique across the space.
func New(dims ...Dimension) (*Space, error) {
	byName := make(map[string]int, len(dims))
	for i, d := range dims {
		if _, exists := byName[d.name]; exists {
			return nil, fmt.Errorf("space: duplicate dimension name %q", d.name)
		}
		byName[d.name] = i
	}
	cp := make([]Dimension, len(dims))
	copy(cp, dims)
	return &Space{dims: cp, byName: byName}, nil
}

// Len returns the number of dimensions.
func (s *Space) Len() int { return len(s.dims) }

// Dim returns the dimension at index i.
func (s *Space) Dim(i int) Dimension { return s.dims[i] }

// Dims returns the dimension sequence. Callers must not mutate it.
func (s *Space) Dims() []Dimension { return s.dims }

// ByName looks up a dimension by name, returning its index alongside it.
func (s *Space) ByName(name string) (Dimension, int, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Dimension{}, 0, false
	}
	return s.dims[i], i, true
}

// Random draws a uniformly random legal term for every dimension.
func (s *Space) Random(r *rng.RNG) []value.Value {
	out := make([]value.Value, len(s.dims))
	for i, d := range s.dims {
		out[i] = d.Random(r)
	}
	return out
}

// Align snaps every term in terms to its dimension's nearest legal
// value. Returns an error (and the space.len mismatch reported) if
// len(terms) != s.Len(), or if any enum term has no exact match.
func (s *Space) Align(terms []value.Value) ([]value.Value, error) {
	if len(terms) != len(s.dims) {
		return nil, fmt.Errorf("space: term count %d does not match space length %d", len(terms), len(s.dims))
	}
	out := make([]value.Value, len(terms))
	for i, d := range s.dims {
		aligned, err := d.Align(terms[i])
		if err != nil {
			return nil, fmt.Errorf("space: aligning dimension %q: %w", d.name, err)
		}
		out[i] = aligned
	}
	return out, nil
}

// Diagonal returns the Euclidean length of the bounding box diagonal
// across all dimensions, using each dimension's Range() as its
// per-axis extent. This backs the PRO default for CONVERGE_SZ (0.5%
// of the diagonal).
func (s *Space) Diagonal() float64 {
	var sumSq float64
	for _, d := range s.dims {
		r := d.Range()
		sumSq += r * r
	}
	return math.Sqrt(sumSq)
}

// Names returns the dimension names in order, for logging and
// rendering.
func (s *Space) Names() []string {
	out := make([]string, len(s.dims))
	for i, d := range s.dims {
		out[i] = d.name
	}
	return out
}

// String renders the space as "(name:kind, name:kind, ...)".
func (s *Space) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, d := range s.dims {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.name)
		b.WriteByte(':')
		b.WriteString(d.kind.String())
	}
	b.WriteByte(')')
	return b.String()
}
