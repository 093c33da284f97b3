// Package simplex implements the geometric operations PRO and ANGEL
// share: centroid, pairwise distance, scalar transformation around a
// pivot, a collapse test, and a bounds test. These operate on
// []point.Vertex over an N-dimensional space, generalizing the 2-D
// room-position vector arithmetic the teacher's force-directed
// embedder performs for dungeon layout.
package simplex

import (
	"math"

	"github.com/activeharmony/harmony/internal/point"
	"github.com/activeharmony/harmony/internal/space"
	"github.com/activeharmony/harmony/internal/value"
)

// Centroid returns the coordinate-wise mean of verts, excluding the
// vertex at skip (pass -1 to include every vertex). PRO and ANGEL pass
// -1: their convergence and move-length checks use the whole simplex.
func Centroid(sp *space.Space, verts []point.Vertex, skip int) ([]float64, error) {
	n := sp.Len()
	sum := make([]float64, n)
	count := 0
	for i, v := range verts {
		if i == skip {
			continue
		}
		coords, err := v.Coords(sp)
		if err != nil {
			return nil, err
		}
		for j := 0; j < n; j++ {
			sum[j] += coords[j]
		}
		count++
	}
	if count == 0 {
		return sum, nil
	}
	for j := range sum {
		sum[j] /= float64(count)
	}
	return sum, nil
}

// Distance returns the Euclidean distance between two coordinate
// vectors of equal length.
func Distance(a, b []float64) float64 {
	var sumSq float64
	for i := range a {
		d := a[i] - b[i]
		sumSq += d * d
	}
	return math.Sqrt(sumSq)
}

// Transform returns pivot + coefficient*(from - pivot) along every
// axis, i.e. the generalized reflect/expand/contract/shrink step: with
// coefficient -1 this reflects `from` through `pivot`; with a
// coefficient in (0,1) it contracts toward `pivot`.
func Transform(pivot, from []float64, coefficient float64) []float64 {
	out := make([]float64, len(from))
	for i := range from {
		out[i] = pivot[i] + coefficient*(from[i]-pivot[i])
	}
	return out
}

// TermsFromCoords converts a raw (possibly off-grid or out-of-bounds)
// coordinate vector produced by Transform back into dimension-typed
// term values, so the result can be wrapped in a point.Point and then
// aligned via space.Align. Enum coordinates round to the nearest
// integer index, clamped into [0, len(values)-1], before resolving to
// their string term.
func TermsFromCoords(sp *space.Space, coords []float64) ([]value.Value, error) {
	out := make([]value.Value, sp.Len())
	for i := 0; i < sp.Len(); i++ {
		d := sp.Dim(i)
		switch d.Kind() {
		case space.KindInteger:
			out[i] = value.OfInt(int64(math.Round(coords[i])))
		case space.KindReal:
			out[i] = value.OfReal(coords[i])
		case space.KindEnum:
			values := d.EnumValues()
			idx := int64(math.Round(coords[i]))
			if idx < 0 {
				idx = 0
			}
			if idx >= int64(len(values)) {
				idx = int64(len(values)) - 1
			}
			out[i] = value.OfString(values[idx])
		}
	}
	return out, nil
}

// Collapsed reports whether every vertex, once aligned to sp's grid,
// maps to the same point — the PRO/ANGEL convergence condition "the
// simplex is collapsed".
func Collapsed(sp *space.Space, verts []point.Vertex) (bool, error) {
	if len(verts) == 0 {
		return true, nil
	}
	first, err := verts[0].ToPoint(sp)
	if err != nil {
		return false, err
	}
	for _, v := range verts[1:] {
		p, err := v.ToPoint(sp)
		if err != nil {
			return false, err
		}
		if !first.Equal(p) {
			return false, nil
		}
	}
	return true, nil
}

// InBounds reports whether every coordinate of a raw (pre-alignment)
// vertex lies within its dimension's legal interval. PRO/ANGEL use this
// to detect a fully out-of-bounds candidate simplex before emitting it.
func InBounds(sp *space.Space, coords []float64) bool {
	for i := 0; i < sp.Len(); i++ {
		d := sp.Dim(i)
		switch d.Kind() {
		case space.KindInteger:
			min, max, _ := d.IntBounds()
			if coords[i] < float64(min) || coords[i] > float64(max) {
				return false
			}
		case space.KindReal:
			min, max := d.RealBounds()
			if coords[i] < min || coords[i] > max {
				return false
			}
		case space.KindEnum:
			if coords[i] < 0 || coords[i] > float64(len(d.EnumValues())-1) {
				return false
			}
		}
	}
	return true
}

// BestIndex returns the index of the vertex with the lowest unified
// performance in verts.
func BestIndex(verts []point.Vertex) int {
	best := 0
	for i := 1; i < len(verts); i++ {
		if verts[i].Perf.Less(verts[best].Perf) {
			best = i
		}
	}
	return best
}

// MeanSquaredDeviation computes mean((perf_i - perf_centroid)^2) over
// unified performance values, used by the size/fval convergence test.
func MeanSquaredDeviation(verts []point.Vertex, centroidPerf float64) float64 {
	if len(verts) == 0 {
		return 0
	}
	var sum float64
	for _, v := range verts {
		d := v.Perf.Unify() - centroidPerf
		sum += d * d
	}
	return sum / float64(len(verts))
}

// MaxDistanceToCentroid returns the largest distance from any vertex
// (aligned-free raw coordinates) to the centroid coordinate vector.
func MaxDistanceToCentroid(sp *space.Space, verts []point.Vertex, centroid []float64) (float64, error) {
	var maxD float64
	for _, v := range verts {
		coords, err := v.Coords(sp)
		if err != nil {
			return 0, err
		}
		d := Distance(coords, centroid)
		if d > maxD {
			maxD = d
		}
	}
	return maxD, nil
}
