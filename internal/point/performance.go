package point

import (
	"fmt"
	"math"
)

// Performance is a fixed-length vector of real objective values.
type Performance struct {
	Obj []float64
}

// NewPerformance constructs a Performance from obj, requiring at least
// one objective.
func NewPerformance(obj ...float64) (Performance, error) {
	if len(obj) == 0 {
		return Performance{}, fmt.Errorf("point: performance must have at least one objective")
	}
	cp := make([]float64, len(obj))
	copy(cp, obj)
	return Performance{Obj: cp}, nil
}

// Reset returns a "no observation yet" performance: every objective is
// +Inf, so it never wins a minimization comparison until overwritten.
func Reset(n int) Performance {
	obj := make([]float64, n)
	for i := range obj {
		obj[i] = math.Inf(1)
	}
	return Performance{Obj: obj}
}

// IsReset reports whether every objective is +Inf.
func (p Performance) IsReset() bool {
	for _, o := range p.Obj {
		if !math.IsInf(o, 1) {
			return false
		}
	}
	return true
}

// Unify reduces the performance vector to a single scalar: obj[0] when
// there is exactly one objective, and the sum of objectives otherwise.
// This is the neutral reduction spec.md §9 pins for N > 1 (the original
// hperf_unify semantics are underspecified there).
func (p Performance) Unify() float64 {
	if len(p.Obj) == 1 {
		return p.Obj[0]
	}
	var sum float64
	for _, o := range p.Obj {
		sum += o
	}
	return sum
}

// Clone returns a deep copy.
func (p Performance) Clone() Performance {
	cp := make([]float64, len(p.Obj))
	copy(cp, p.Obj)
	return Performance{Obj: cp}
}

// Less reports whether p's unified value is strictly less than o's,
// the comparison every strategy uses to track "best so far".
func (p Performance) Less(o Performance) bool {
	return p.Unify() < o.Unify()
}
