package main

import (
	"fmt"

	"github.com/activeharmony/harmony/internal/point"
	"github.com/activeharmony/harmony/internal/space"
)

// evaluator computes the performance of a candidate point. run drives
// the session against a built-in synthetic evaluator so the CLI can
// demonstrate the FETCH/REPORT contract end to end without the
// excluded wire transport or a real external workload.
type evaluator func(p *point.Point, sp *space.Space) (point.Performance, error)

// sphereEvaluator returns the sum of squared numeric coordinates
// (enum terms contribute their index), a standard single-objective
// optimization test function with a known minimum at the origin.
func sphereEvaluator(p *point.Point, sp *space.Space) (point.Performance, error) {
	v := point.NewVertex(p, point.Performance{})
	coords, err := v.Coords(sp)
	if err != nil {
		return point.Performance{}, fmt.Errorf("evaluator: %w", err)
	}
	var sum float64
	for _, c := range coords {
		sum += c * c
	}
	return point.NewPerformance(sum)
}

// builtinEvaluators is the set of synthetic objective functions the
// run subcommand can select with --eval.
var builtinEvaluators = map[string]evaluator{
	"sphere": sphereEvaluator,
}
