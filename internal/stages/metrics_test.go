package stages

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/activeharmony/harmony/internal/config"
	"github.com/activeharmony/harmony/internal/ctrl"
	"github.com/activeharmony/harmony/internal/point"
	"github.com/activeharmony/harmony/internal/value"
)

func TestMetricsAllocRegistersCollectorsOnAPrivateRegistry(t *testing.T) {
	m := NewMetrics().(*Metrics)
	if err := m.Alloc(config.New()); err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if m.Registry() == nil {
		t.Fatal("expected Alloc to populate a private registry")
	}
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) != 5 {
		t.Fatalf("len(families) = %d, want 5 (joined, generated, reported, rejected, bestObj)", len(families))
	}
}

func TestMetricsCountsJoinGenerateAnalyze(t *testing.T) {
	m := NewMetrics().(*Metrics)
	if err := m.Alloc(config.New()); err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if err := m.Join("client-1"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	flow := ctrl.AcceptFlow()
	trial := ctrl.NewTrial(&point.Point{ID: 1, Terms: []value.Value{value.OfInt(1)}})
	if err := m.Generate(&flow, trial); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	trial.Perf = point.Performance{Obj: []float64{2.0}}
	if err := m.Analyze(&flow, trial); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if got := testutil.ToFloat64(m.joined); got != 1 {
		t.Errorf("joined = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.generated); got != 1 {
		t.Errorf("generated = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.reported); got != 1 {
		t.Errorf("reported = %v, want 1", got)
	}
}

func TestMetricsBestObjOnlyImprovesOnLowerUnified(t *testing.T) {
	m := NewMetrics().(*Metrics)
	if err := m.Alloc(config.New()); err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	flow := ctrl.AcceptFlow()
	trial := ctrl.NewTrial(&point.Point{ID: 1, Terms: []value.Value{value.OfInt(1)}})

	trial.Perf = point.Performance{Obj: []float64{5.0}}
	_ = m.Analyze(&flow, trial)
	if !m.haveBest || m.best != 5.0 {
		t.Fatalf("best = %v, haveBest = %v, want 5.0/true", m.best, m.haveBest)
	}

	trial.Perf = point.Performance{Obj: []float64{9.0}}
	_ = m.Analyze(&flow, trial)
	if m.best != 5.0 {
		t.Errorf("best regressed to %v on a worse report", m.best)
	}

	trial.Perf = point.Performance{Obj: []float64{1.0}}
	_ = m.Analyze(&flow, trial)
	if m.best != 1.0 {
		t.Errorf("best = %v, want 1.0 after a strictly better report", m.best)
	}
}
