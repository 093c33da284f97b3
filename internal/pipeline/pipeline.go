// Package pipeline implements the ordered processing pipeline every
// session drives a trial through: stages observe a point on its way
// out to the client and the matching performance on its way back, and
// may accept, reject (with an optional replacement hint), park on
// WAIT, or short-circuit with RETURN/RETRY. Stage dispatch is an
// optional-interface capability set, the way dshills-dungo/pkg/carving
// registers Carver implementations by name.
package pipeline

import (
	"fmt"

	"github.com/activeharmony/harmony/internal/config"
	"github.com/activeharmony/harmony/internal/ctrl"
	"github.com/activeharmony/harmony/internal/herror"
	"github.com/activeharmony/harmony/internal/space"
)

// Stage is the minimum every pipeline element implements. The rest of
// a stage's behavior is opt-in via the capability interfaces below, so
// a stage that only cares about forward generation need not implement
// Join or Fini at all.
type Stage interface {
	Name() string
}

// Allocator is implemented by stages that need per-session setup
// before Init, typically to read their own configuration keys.
type Allocator interface {
	Alloc(cfg *config.Configuration) error
}

// Initializer is implemented by stages that need the session's space
// before processing starts.
type Initializer interface {
	Init(sp *space.Space) error
}

// Joiner is implemented by stages that want to observe JOIN.
type Joiner interface {
	Join(clientID string) error
}

// ForwardStage is implemented by stages that act on the way out to the
// client.
type ForwardStage interface {
	Generate(flow *ctrl.Flow, trial *ctrl.Trial) error
}

// ReverseStage is implemented by stages that act on the way back from
// the client.
type ReverseStage interface {
	Analyze(flow *ctrl.Flow, trial *ctrl.Trial) error
}

// Finalizer is implemented by stages with teardown work.
type Finalizer interface {
	Fini() error
}

// Pipeline holds an ordered stage list and the WAIT parking state for
// both directions, keyed by stage index — spec.md §9's replacement for
// ad-hoc WAIT retries.
type Pipeline struct {
	stages        []Stage
	parkedForward map[int][]*ctrl.Trial
	parkedReverse map[int][]*ctrl.Trial
}

// New builds a Pipeline over stages in forward order; the reverse pass
// walks the same slice back to front.
func New(stages ...Stage) *Pipeline {
	return &Pipeline{
		stages:        append([]Stage(nil), stages...),
		parkedForward: make(map[int][]*ctrl.Trial),
		parkedReverse: make(map[int][]*ctrl.Trial),
	}
}

// Stages returns the ordered stage list. Callers must not mutate it.
func (p *Pipeline) Stages() []Stage { return p.stages }

// Names returns each stage's name in forward order.
func (p *Pipeline) Names() []string {
	out := make([]string, len(p.stages))
	for i, s := range p.stages {
		out[i] = s.Name()
	}
	return out
}

// Alloc runs Alloc on every stage implementing Allocator, in forward
// order.
func (p *Pipeline) Alloc(cfg *config.Configuration) error {
	for _, s := range p.stages {
		a, ok := s.(Allocator)
		if !ok {
			continue
		}
		if err := a.Alloc(cfg); err != nil {
			return herror.Wrap(herror.StageFault, fmt.Sprintf("stage %q: alloc", s.Name()), err)
		}
	}
	return nil
}

// Init runs Init on every stage implementing Initializer, in forward
// order.
func (p *Pipeline) Init(sp *space.Space) error {
	for _, s := range p.stages {
		in, ok := s.(Initializer)
		if !ok {
			continue
		}
		if err := in.Init(sp); err != nil {
			return herror.Wrap(herror.StageFault, fmt.Sprintf("stage %q: init", s.Name()), err)
		}
	}
	return nil
}

// Join notifies every stage implementing Joiner.
func (p *Pipeline) Join(clientID string) error {
	for _, s := range p.stages {
		j, ok := s.(Joiner)
		if !ok {
			continue
		}
		if err := j.Join(clientID); err != nil {
			return herror.Wrap(herror.StageFault, fmt.Sprintf("stage %q: join", s.Name()), err)
		}
	}
	return nil
}

// Fini runs Fini on every stage implementing Finalizer, in reverse
// order, stopping at the first failure — a stage fini failure is fatal
// to the session (spec.md §7).
func (p *Pipeline) Fini() error {
	for i := len(p.stages) - 1; i >= 0; i-- {
		f, ok := p.stages[i].(Finalizer)
		if !ok {
			continue
		}
		if err := f.Fini(); err != nil {
			return herror.Wrap(herror.StageFault, fmt.Sprintf("stage %q: fini", p.stages[i].Name()), err)
		}
	}
	return nil
}

// Forward drives trial through stages starting at trial.StageCursor.
// ACCEPT advances the cursor; REJECT/RETRY abort the pass and return
// immediately for the session to handle; WAIT parks the trial at the
// current stage; RETURN advances the cursor straight to the end
// (delivery, skipping the remaining stages). A clean run to the end of
// the stage list leaves StageCursor == len(stages) and returns ACCEPT.
func (p *Pipeline) Forward(trial *ctrl.Trial) (ctrl.Flow, error) {
	for trial.StageCursor < len(p.stages) {
		stage := p.stages[trial.StageCursor]
		fs, ok := stage.(ForwardStage)
		if !ok {
			trial.StageCursor++
			continue
		}
		flow := ctrl.AcceptFlow()
		if err := fs.Generate(&flow, trial); err != nil {
			return flow, herror.Wrap(herror.StageFault, fmt.Sprintf("stage %q: generate", stage.Name()), err)
		}
		switch flow.Status {
		case ctrl.Accept:
			trial.StageCursor++
		case ctrl.Reject, ctrl.Retry:
			return flow, nil
		case ctrl.Wait:
			idx := trial.StageCursor
			p.parkedForward[idx] = append(p.parkedForward[idx], trial)
			return flow, nil
		case ctrl.Return:
			trial.StageCursor = len(p.stages)
			return ctrl.AcceptFlow(), nil
		default:
			return flow, fmt.Errorf("pipeline: stage %q: unknown flow status %v", stage.Name(), flow.Status)
		}
	}
	return ctrl.AcceptFlow(), nil
}

// Reverse drives trial backward from trial.StageCursor to 0. ACCEPT
// decrements the cursor; REJECT/RETRY abort and return immediately;
// WAIT parks the trial at the stage about to run; RETURN discards the
// trial (the session must not call strategy.Analyze). A clean run to
// the front leaves StageCursor == 0 and returns ACCEPT, meaning the
// session should call strategy.Analyze.
func (p *Pipeline) Reverse(trial *ctrl.Trial) (ctrl.Flow, error) {
	for trial.StageCursor > 0 {
		idx := trial.StageCursor - 1
		stage := p.stages[idx]
		rs, ok := stage.(ReverseStage)
		if !ok {
			trial.StageCursor = idx
			continue
		}
		flow := ctrl.AcceptFlow()
		if err := rs.Analyze(&flow, trial); err != nil {
			return flow, herror.Wrap(herror.StageFault, fmt.Sprintf("stage %q: analyze", stage.Name()), err)
		}
		switch flow.Status {
		case ctrl.Accept:
			trial.StageCursor = idx
		case ctrl.Reject, ctrl.Retry:
			return flow, nil
		case ctrl.Wait:
			p.parkedReverse[idx] = append(p.parkedReverse[idx], trial)
			return flow, nil
		case ctrl.Return:
			trial.StageCursor = 0
			return ctrl.Flow{Status: ctrl.Return}, nil
		default:
			return flow, fmt.Errorf("pipeline: stage %q: unknown flow status %v", stage.Name(), flow.Status)
		}
	}
	return ctrl.AcceptFlow(), nil
}

// ResumeForward pops every trial parked at stageIndex's forward WAIT,
// for the caller to re-drive through Forward. The trial's StageCursor
// still points at stageIndex, so Forward re-enters at the same stage.
func (p *Pipeline) ResumeForward(stageIndex int) []*ctrl.Trial {
	trials := p.parkedForward[stageIndex]
	delete(p.parkedForward, stageIndex)
	return trials
}

// ResumeReverse pops every trial parked at stageIndex's reverse WAIT.
func (p *Pipeline) ResumeReverse(stageIndex int) []*ctrl.Trial {
	trials := p.parkedReverse[stageIndex]
	delete(p.parkedReverse, stageIndex)
	return trials
}
