// Package strategy implements the pluggable search strategies: a
// capability set {Init, Generate, Rejected, Analyze, Best, Converged}
// over a per-session state struct, registered by name the way
// dshills-dungo/pkg/synthesis registers GraphSynthesizer
// implementations — a tagged, named registry rather than the source
// project's dynamically-loaded plugins (spec.md §9 design note).
package strategy

import (
	"fmt"
	"sync"

	"github.com/activeharmony/harmony/internal/config"
	"github.com/activeharmony/harmony/internal/ctrl"
	"github.com/activeharmony/harmony/internal/harmonylog"
	"github.com/activeharmony/harmony/internal/point"
	"github.com/activeharmony/harmony/internal/space"
)

// Strategy is the capability set every search strategy exposes.
// Implementations hold all of their state in the instance — never in
// file-scope globals — so multiple sessions can run concurrently
// without sharing mutable state (spec.md §9 design note).
type Strategy interface {
	// Init binds the strategy to a space. Idempotent for the same
	// space; re-init resets state when the space changes, and always
	// publishes Converged() == false.
	Init(sp *space.Space) error

	// Generate fills in the next candidate, or sets flow.Status = Wait
	// if the strategy is momentarily idle.
	Generate(flow *ctrl.Flow) (*point.Point, error)

	// Rejected is called when the pipeline or client rejects the point
	// that was assigned rejectedID. If flow.Hint is non-nil, the
	// strategy incorporates the hint as the replacement (keeping
	// rejectedID so the session's trial bookkeeping does not need to
	// change); otherwise it produces a new candidate per its own
	// method and may mint a fresh id.
	Rejected(flow *ctrl.Flow, rejectedID uint32) (*point.Point, error)

	// Analyze feeds back an observed performance, updates best-so-far,
	// and drives the strategy's internal state machine.
	Analyze(tr *ctrl.Trial) error

	// Best copies out the best point seen so far. Returns a point with
	// ID == point.NoID if no report has been analyzed yet.
	Best() (*point.Point, error)

	// Converged reports whether the strategy has reached its
	// termination condition. Once true, the session serves Best()
	// unchanged on further FETCH calls.
	Converged() bool
}

// Factory constructs a fresh, per-session Strategy instance, reading
// its tunables from cfg.
type Factory func(cfg *config.Configuration, log *harmonylog.Logger) Strategy

var (
	mu       sync.RWMutex
	registry = make(map[string]Factory)
)

// Register adds a strategy factory to the global registry. Panics if
// name is already registered, matching the teacher's synthesis
// registry's fail-fast-at-init-time behavior.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("strategy: %q already registered", name))
	}
	registry[name] = factory
}

// Get constructs a new Strategy instance from the named factory.
func Get(name string, cfg *config.Configuration, log *harmonylog.Logger) (Strategy, error) {
	mu.RLock()
	factory, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("strategy: %q not registered", name)
	}
	return factory(cfg, log), nil
}

// List returns all registered strategy names.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}
