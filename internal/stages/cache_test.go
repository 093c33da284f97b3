package stages

import (
	"testing"

	"github.com/activeharmony/harmony/internal/config"
	"github.com/activeharmony/harmony/internal/ctrl"
	"github.com/activeharmony/harmony/internal/point"
	"github.com/activeharmony/harmony/internal/value"
)

func TestCacheDisabledWithoutRedisURL(t *testing.T) {
	c := NewCache().(*Cache)
	if err := c.Alloc(config.New()); err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	flow := ctrl.AcceptFlow()
	trial := ctrl.NewTrial(&point.Point{ID: 1, Terms: []value.Value{value.OfInt(1)}})
	if err := c.Generate(&flow, trial); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if flow.Status != ctrl.Accept {
		t.Errorf("status = %v, want Accept when the cache is disabled", flow.Status)
	}

	trial.Perf = point.Performance{Obj: []float64{1.0}}
	if err := c.Analyze(&flow, trial); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if err := c.Fini(); err != nil {
		t.Fatalf("Fini: %v", err)
	}
}

func TestCacheAllocRejectsMalformedURL(t *testing.T) {
	c := NewCache().(*Cache)
	cfg := config.New()
	cfg.Set("CACHE_REDIS_URL", "not a valid url \x7f")
	if err := c.Alloc(cfg); err == nil {
		t.Error("expected Alloc to reject a malformed CACHE_REDIS_URL")
	}
}

func TestCacheKeyIsStableForIdenticalPoints(t *testing.T) {
	c := NewCache().(*Cache)
	c.namespace = "test"
	p1 := &point.Point{ID: 1, Terms: []value.Value{value.OfInt(3), value.OfReal(1.5)}}
	p2 := &point.Point{ID: 2, Terms: []value.Value{value.OfInt(3), value.OfReal(1.5)}}
	if c.key(p1) != c.key(p2) {
		t.Error("key should depend on term values, not point id")
	}

	p3 := &point.Point{ID: 3, Terms: []value.Value{value.OfInt(4), value.OfReal(1.5)}}
	if c.key(p1) == c.key(p3) {
		t.Error("differing terms should produce differing keys")
	}
}
