package simplex

import (
	"math"
	"testing"

	"github.com/activeharmony/harmony/internal/point"
	"github.com/activeharmony/harmony/internal/space"
)

func testSpace(t *testing.T) *space.Space {
	x, err := space.NewReal("x", -10, 10)
	if err != nil {
		t.Fatalf("NewReal: %v", err)
	}
	y, err := space.NewReal("y", -10, 10)
	if err != nil {
		t.Fatalf("NewReal: %v", err)
	}
	sp, err := space.New(x, y)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sp
}

func vertexAt(t *testing.T, sp *space.Space, coords []float64, unified float64) point.Vertex {
	terms, err := TermsFromCoords(sp, coords)
	if err != nil {
		t.Fatalf("TermsFromCoords: %v", err)
	}
	perf, _ := point.NewPerformance(unified)
	return point.NewVertex(&point.Point{ID: point.NoID, Terms: terms}, perf)
}

func TestCentroidExcludesSkippedVertex(t *testing.T) {
	sp := testSpace(t)
	verts := []point.Vertex{
		vertexAt(t, sp, []float64{0, 0}, 0),
		vertexAt(t, sp, []float64{2, 0}, 1),
		vertexAt(t, sp, []float64{100, 100}, 2), // excluded via skip
	}
	c, err := Centroid(sp, verts, 2)
	if err != nil {
		t.Fatalf("Centroid: %v", err)
	}
	if c[0] != 1 || c[1] != 0 {
		t.Errorf("Centroid = %v, want [1 0]", c)
	}
}

func TestCentroidIncludesEveryoneWhenSkipIsNegative(t *testing.T) {
	sp := testSpace(t)
	verts := []point.Vertex{
		vertexAt(t, sp, []float64{0, 0}, 0),
		vertexAt(t, sp, []float64{4, 4}, 0),
	}
	c, err := Centroid(sp, verts, -1)
	if err != nil {
		t.Fatalf("Centroid: %v", err)
	}
	if c[0] != 2 || c[1] != 2 {
		t.Errorf("Centroid = %v, want [2 2]", c)
	}
}

func TestDistance(t *testing.T) {
	if d := Distance([]float64{0, 0}, []float64{3, 4}); d != 5 {
		t.Errorf("Distance = %v, want 5", d)
	}
}

func TestTransformReflectsThroughPivot(t *testing.T) {
	pivot := []float64{0, 0}
	from := []float64{2, 3}
	reflected := Transform(pivot, from, -1)
	if reflected[0] != -2 || reflected[1] != -3 {
		t.Errorf("Transform reflect = %v, want [-2 -3]", reflected)
	}
}

func TestTransformContractsTowardPivot(t *testing.T) {
	pivot := []float64{0, 0}
	from := []float64{4, 0}
	contracted := Transform(pivot, from, 0.5)
	if contracted[0] != 2 || contracted[1] != 0 {
		t.Errorf("Transform contract = %v, want [2 0]", contracted)
	}
}

func TestCollapsedTrueWhenEveryVertexAlignsToSamePoint(t *testing.T) {
	sp := testSpace(t)
	verts := []point.Vertex{
		vertexAt(t, sp, []float64{12, 2}, 0),
		vertexAt(t, sp, []float64{15, 2}, 0),
	}
	collapsed, err := Collapsed(sp, verts)
	if err != nil {
		t.Fatalf("Collapsed: %v", err)
	}
	if !collapsed {
		t.Error("expected two out-of-bounds real-valued vertices that both clamp to (10, 2) to collapse to the same aligned point")
	}
}

func TestCollapsedFalseWhenVerticesDiffer(t *testing.T) {
	sp := testSpace(t)
	verts := []point.Vertex{
		vertexAt(t, sp, []float64{1, 2}, 0),
		vertexAt(t, sp, []float64{5, 5}, 0),
	}
	collapsed, err := Collapsed(sp, verts)
	if err != nil {
		t.Fatalf("Collapsed: %v", err)
	}
	if collapsed {
		t.Error("expected distinct vertices not to collapse")
	}
}

func TestInBounds(t *testing.T) {
	sp := testSpace(t)
	if !InBounds(sp, []float64{0, 0}) {
		t.Error("origin should be in bounds")
	}
	if InBounds(sp, []float64{100, 0}) {
		t.Error("x=100 should be out of bounds for [-10,10]")
	}
}

func TestBestIndexPicksLowestUnifiedPerformance(t *testing.T) {
	sp := testSpace(t)
	verts := []point.Vertex{
		vertexAt(t, sp, []float64{0, 0}, 5),
		vertexAt(t, sp, []float64{1, 1}, 1),
		vertexAt(t, sp, []float64{2, 2}, 3),
	}
	if got := BestIndex(verts); got != 1 {
		t.Errorf("BestIndex = %d, want 1", got)
	}
}

func TestMeanSquaredDeviation(t *testing.T) {
	sp := testSpace(t)
	verts := []point.Vertex{
		vertexAt(t, sp, []float64{0, 0}, 1),
		vertexAt(t, sp, []float64{0, 0}, 3),
	}
	msd := MeanSquaredDeviation(verts, 2)
	if math.Abs(msd-1) > 1e-12 {
		t.Errorf("MeanSquaredDeviation = %v, want 1", msd)
	}
}

func TestMaxDistanceToCentroid(t *testing.T) {
	sp := testSpace(t)
	verts := []point.Vertex{
		vertexAt(t, sp, []float64{3, 0}, 0),
		vertexAt(t, sp, []float64{0, 0}, 0),
	}
	d, err := MaxDistanceToCentroid(sp, verts, []float64{0, 0})
	if err != nil {
		t.Fatalf("MaxDistanceToCentroid: %v", err)
	}
	if d != 3 {
		t.Errorf("MaxDistanceToCentroid = %v, want 3", d)
	}
}
