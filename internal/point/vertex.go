package point

import "github.com/activeharmony/harmony/internal/space"

// Vertex is the authoritative object inside simplex strategies: a point
// augmented with its observed (or assigned) performance. Vertices are
// mapped to Points at pipeline boundaries by aligning each coordinate
// to its dimension's grid.
type Vertex struct {
	Point *Point
	Perf  Performance
}

// NewVertex pairs a point with a performance record.
func NewVertex(p *Point, perf Performance) Vertex {
	return Vertex{Point: p, Perf: perf}
}

// Clone returns a deep copy of the vertex.
func (v Vertex) Clone() Vertex {
	return Vertex{Point: v.Point.Clone(), Perf: v.Perf.Clone()}
}

// ToPoint aligns the vertex's coordinates to sp's grid and returns the
// resulting Point, carrying the vertex's point id forward.
func (v Vertex) ToPoint(sp *space.Space) (*Point, error) {
	return Align(v.Point, sp)
}

// Coords returns the vertex's coordinates as plain float64s, resolving
// enum terms through sp's index so simplex geometry can treat every
// dimension numerically.
func (v Vertex) Coords(sp *space.Space) ([]float64, error) {
	out := make([]float64, len(v.Point.Terms))
	for i, t := range v.Point.Terms {
		d := sp.Dim(i)
		if d.Kind() == space.KindEnum {
			idx, err := d.Index(t)
			if err != nil {
				return nil, err
			}
			out[i] = float64(idx)
			continue
		}
		out[i] = t.Float()
	}
	return out, nil
}
