package strategy

import (
	"github.com/activeharmony/harmony/internal/config"
	"github.com/activeharmony/harmony/internal/ctrl"
	"github.com/activeharmony/harmony/internal/harmonylog"
	"github.com/activeharmony/harmony/internal/point"
	"github.com/activeharmony/harmony/internal/space"
	"github.com/activeharmony/harmony/internal/value"
)

func init() {
	Register("exhaustive", NewExhaustive)
}

// Exhaustive walks every legal point of the space via an odometer:
// integer/enum dimensions carry on wrap like digits, real dimensions
// step by the next representable float above the current value
// (spec.md §9's real-valued odometer note) and wrap back to their
// minimum on stall.
type Exhaustive struct {
	cfg *config.Configuration
	log *harmonylog.Logger

	sp     *space.Space
	head   []value.Value
	cursor []value.Value

	nextID          uint32
	remainingPasses int64
	finalID         uint32
	outstanding     int
	finalReceived   bool
	converged       bool

	haveBest bool
	best     point.Vertex
}

// NewExhaustive constructs an Exhaustive strategy, reading PASSES
// (default 1) from cfg.
func NewExhaustive(cfg *config.Configuration, log *harmonylog.Logger) Strategy {
	if log == nil {
		log = harmonylog.Nop()
	}
	return &Exhaustive{cfg: cfg, log: log}
}

func (e *Exhaustive) Init(sp *space.Space) error {
	e.sp = sp
	e.head = make([]value.Value, sp.Len())
	for i := 0; i < sp.Len(); i++ {
		e.head[i] = sp.Dim(i).Min()
	}
	e.cursor = make([]value.Value, sp.Len())
	copy(e.cursor, e.head)

	passes := int64(1)
	if e.cfg != nil {
		if p, ok := e.cfg.Int("PASSES", 1); ok && p > 0 {
			passes = p
		}
	}
	e.nextID = 1
	e.remainingPasses = passes
	e.finalID = point.NoID
	e.outstanding = 0
	e.finalReceived = false
	e.converged = false
	e.haveBest = false
	return nil
}

// step advances the odometer by one tick, carrying from the least
// significant (last) dimension. Returns true if the whole space wrapped.
func (e *Exhaustive) step() bool {
	for i := e.sp.Len() - 1; i >= 0; i-- {
		d := e.sp.Dim(i)
		next, ok := d.NextAbove(e.cursor[i])
		if ok {
			e.cursor[i] = next
			return false
		}
		e.cursor[i] = e.head[i]
		if i == 0 {
			return true
		}
	}
	return true
}

func (e *Exhaustive) Generate(flow *ctrl.Flow) (*point.Point, error) {
	if e.converged || e.remainingPasses <= 0 {
		flow.Status = ctrl.Wait
		return nil, nil
	}
	terms := make([]value.Value, len(e.cursor))
	copy(terms, e.cursor)
	id := e.nextID
	e.nextID++
	p := &point.Point{ID: id, Terms: terms}
	e.outstanding++

	if e.step() {
		e.remainingPasses--
		if e.remainingPasses <= 0 {
			e.finalID = id
		}
	}
	flow.Status = ctrl.Accept
	return p, nil
}

func (e *Exhaustive) Rejected(flow *ctrl.Flow, rejectedID uint32) (*point.Point, error) {
	e.outstanding--
	if flow.Hint != nil && flow.Hint.ID != point.NoID {
		flow.Status = ctrl.Accept
		return &point.Point{ID: rejectedID, Terms: flow.Hint.Terms}, nil
	}
	return e.Generate(flow)
}

func (e *Exhaustive) Analyze(tr *ctrl.Trial) error {
	e.outstanding--
	if e.outstanding < 0 {
		e.outstanding = 0
	}
	if !e.haveBest || tr.Perf.Less(e.best.Perf) {
		e.best = point.NewVertex(tr.Point.Clone(), tr.Perf.Clone())
		e.haveBest = true
	}
	if e.finalID != point.NoID && tr.Point.ID == e.finalID {
		e.finalReceived = true
	}
	if e.finalReceived && e.outstanding == 0 {
		e.converged = true
	}
	return nil
}

func (e *Exhaustive) Best() (*point.Point, error) {
	if !e.haveBest {
		return &point.Point{ID: point.NoID}, nil
	}
	return e.best.Point.Clone(), nil
}

func (e *Exhaustive) Converged() bool { return e.converged }
