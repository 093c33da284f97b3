package strategy

import (
	"fmt"

	"github.com/activeharmony/harmony/internal/config"
	"github.com/activeharmony/harmony/internal/ctrl"
	"github.com/activeharmony/harmony/internal/harmonylog"
	"github.com/activeharmony/harmony/internal/herror"
	"github.com/activeharmony/harmony/internal/point"
	"github.com/activeharmony/harmony/internal/rng"
	"github.com/activeharmony/harmony/internal/simplex"
	"github.com/activeharmony/harmony/internal/space"
	"github.com/activeharmony/harmony/internal/value"
)

func init() {
	Register("pro", NewPRO)
}

// proState is PRO's algorithm state, driving which transform
// generateNextSimplex applies next — the same "current enum decides
// the next production" shape as dshills-dungo/pkg/synthesis/grammar.go.
type proState uint8

const (
	proInit proState = iota
	proReflect
	proExpandOne
	proExpandAll
	proShrink
)

func (s proState) String() string {
	switch s {
	case proInit:
		return "INIT"
	case proReflect:
		return "REFLECT"
	case proExpandOne:
		return "EXPAND_ONE"
	case proExpandAll:
		return "EXPAND_ALL"
	case proShrink:
		return "SHRINK"
	default:
		return "UNKNOWN"
	}
}

// maxOOBRetries bounds the "loop the algorithm immediately" path when a
// freshly generated simplex lies entirely out of bounds (spec.md
// §4.3.3), so a pathological configuration cannot spin forever.
const maxOOBRetries = 64

type testSlot struct {
	id       uint32
	vertex   point.Vertex
	reported bool
}

// PRO implements the Nelder-Mead-derived simplex strategy of spec.md
// §4.3.3: two simplices (base, test), a small state machine deciding
// the next transform, and a convergence check run whenever the
// machine re-enters REFLECT.
type PRO struct {
	cfg *config.Configuration
	log *harmonylog.Logger
	r   *rng.RNG

	sp   *space.Space
	size int

	initMethod  string
	initPercent float64

	reflect, expand, contract, shrink float64
	convergeFV, convergeSZ            float64

	base    []point.Vertex
	bestBase int

	test          []testSlot
	bestTestStash int
	sendIdx       int
	reportedCount int

	nextID uint32
	state  proState

	converged bool
	haveBest  bool
	best      point.Vertex
}

// NewPRO constructs a PRO strategy reading its coefficients from cfg.
func NewPRO(cfg *config.Configuration, log *harmonylog.Logger) Strategy {
	if log == nil {
		log = harmonylog.Nop()
	}
	return &PRO{cfg: cfg, log: log}
}

func (p *PRO) configReal(key string, fallback float64) float64 {
	if p.cfg == nil {
		return fallback
	}
	v, ok := p.cfg.Real(key, fallback)
	if !ok {
		return fallback
	}
	return v
}

func (p *PRO) Init(sp *space.Space) error {
	p.sp = sp
	n := int64(sp.Len() + 1)
	size := n
	if p.cfg != nil {
		if v, ok := p.cfg.Int("SIMPLEX_SIZE", n); ok && v > size {
			size = v
		}
	}
	p.size = int(size)

	p.initMethod = "point"
	if p.cfg != nil && p.cfg.Has("INIT_METHOD") {
		switch p.cfg.Get("INIT_METHOD") {
		case "random", "point", "point_fast":
			p.initMethod = p.cfg.Get("INIT_METHOD")
		}
	}
	p.initPercent = p.configReal("INIT_PERCENT", 0.35)
	if p.initPercent <= 0 || p.initPercent > 1 {
		p.initPercent = 0.35
	}

	// Each coefficient is validated against its OWN bound — spec.md §9
	// flags the source's paired "<= 1" guards on every coefficient as a
	// bug; we check reflect>0, expand>reflect, contract/shrink in (0,1).
	p.reflect = p.configReal("REFLECT", 1.0)
	if p.reflect <= 0 {
		p.reflect = 1.0
	}
	p.expand = p.configReal("EXPAND", 2.0)
	if p.expand <= p.reflect {
		p.expand = 2.0
	}
	p.contract = p.configReal("CONTRACT", 0.5)
	if p.contract <= 0 || p.contract >= 1 {
		p.contract = 0.5
	}
	p.shrink = p.configReal("SHRINK", 0.5)
	if p.shrink <= 0 || p.shrink >= 1 {
		p.shrink = 0.5
	}

	p.convergeFV = p.configReal("CONVERGE_FV", 1e-4)
	p.convergeSZ = 0.005 * sp.Diagonal()
	if p.cfg != nil && p.cfg.Has("CONVERGE_SZ") {
		p.convergeSZ = p.configReal("CONVERGE_SZ", p.convergeSZ)
	}

	p.r = newSeededRNG(p.cfg)

	p.state = proInit
	p.converged = false
	p.haveBest = false
	p.bestBase = 0
	p.bestTestStash = 0
	p.nextID = 1
	p.base = nil

	initial, err := p.buildInitial()
	if err != nil {
		return err
	}
	p.installTestSimplex(initial)
	return nil
}

// newSeededRNG seeds from RANDOM_SEED when configured, else the wall
// clock, matching spec.md §5.
func newSeededRNG(cfg *config.Configuration) *rng.RNG {
	if cfg != nil && cfg.Has("RANDOM_SEED") {
		if seed, ok := cfg.Int("RANDOM_SEED", 0); ok {
			return rng.New(uint64(seed))
		}
	}
	return rng.NewFromWallClock()
}

func (p *PRO) vertexFromCoords(coords []float64) point.Vertex {
	terms, _ := simplex.TermsFromCoords(p.sp, coords)
	return point.NewVertex(&point.Point{ID: point.NoID, Terms: terms}, point.Reset(1))
}

func (p *PRO) centerVertex() (point.Vertex, error) {
	if p.cfg != nil && p.cfg.Has("INIT_POINT") {
		if lit := p.cfg.Get("INIT_POINT"); lit != "" {
			if pt, err := point.Parse(point.NoID, lit, p.sp); err == nil {
				return point.NewVertex(pt, point.Reset(1)), nil
			}
		}
	}
	coords := make([]float64, p.sp.Len())
	for i := 0; i < p.sp.Len(); i++ {
		d := p.sp.Dim(i)
		switch d.Kind() {
		case space.KindInteger:
			min, max, _ := d.IntBounds()
			coords[i] = float64(min+max) / 2
		case space.KindReal:
			min, max := d.RealBounds()
			coords[i] = (min + max) / 2
		case space.KindEnum:
			coords[i] = float64(len(d.EnumValues())-1) / 2
		}
	}
	return p.vertexFromCoords(coords), nil
}

// buildInitial constructs the first test simplex per INIT_METHOD:
// "random" draws every vertex uniformly; "point"/"point_fast" perturb
// a center vertex outward by INIT_PERCENT of each dimension's range —
// point_fast along one axis per vertex, point spreading the
// perturbation across every axis for a more balanced initial shape.
func (p *PRO) buildInitial() ([]point.Vertex, error) {
	if p.initMethod == "random" {
		out := make([]point.Vertex, p.size)
		for i := range out {
			terms := p.sp.Random(p.r)
			out[i] = point.NewVertex(&point.Point{ID: point.NoID, Terms: terms}, point.Reset(1))
		}
		return out, nil
	}

	center, err := p.centerVertex()
	if err != nil {
		return nil, err
	}
	centerCoords, err := center.Coords(p.sp)
	if err != nil {
		return nil, err
	}
	ranges := make([]float64, p.sp.Len())
	for i := 0; i < p.sp.Len(); i++ {
		ranges[i] = p.sp.Dim(i).Range()
	}

	out := make([]point.Vertex, p.size)
	out[0] = center
	for i := 1; i < p.size; i++ {
		coords := make([]float64, len(centerCoords))
		copy(coords, centerCoords)
		axis := (i - 1) % p.sp.Len()
		if p.initMethod == "point_fast" {
			coords[axis] += ranges[axis] * p.initPercent
		} else {
			for j := range coords {
				if j == axis {
					coords[j] += ranges[j] * p.initPercent
				} else {
					coords[j] -= ranges[j] * p.initPercent / float64(p.sp.Len())
				}
			}
		}
		out[i] = p.vertexFromCoords(coords)
	}
	return out, nil
}

func (p *PRO) installTestSimplex(verts []point.Vertex) {
	p.test = make([]testSlot, len(verts))
	for i, v := range verts {
		p.test[i] = testSlot{id: point.NoID, vertex: v}
	}
	p.sendIdx = 0
	p.reportedCount = 0
}

func (p *PRO) findSlot(id uint32) int {
	for i := range p.test {
		if p.test[i].id == id {
			return i
		}
	}
	return -1
}

func (p *PRO) Generate(flow *ctrl.Flow) (*point.Point, error) {
	if p.converged {
		flow.Status = ctrl.Wait
		return nil, nil
	}
	if p.sendIdx >= len(p.test) {
		flow.Status = ctrl.Wait
		return nil, nil
	}
	idx := p.sendIdx
	p.sendIdx++
	id := p.nextID
	p.nextID++
	p.test[idx].id = id

	pt, err := p.test[idx].vertex.ToPoint(p.sp)
	if err != nil {
		return nil, err
	}
	pt.ID = id
	flow.Status = ctrl.Accept
	return pt, nil
}

func (p *PRO) Rejected(flow *ctrl.Flow, rejectedID uint32) (*point.Point, error) {
	idx := p.findSlot(rejectedID)
	if flow.Hint != nil && flow.Hint.ID != point.NoID {
		if idx >= 0 {
			terms := make([]value.Value, len(flow.Hint.Terms))
			copy(terms, flow.Hint.Terms)
			p.test[idx].vertex.Point = &point.Point{ID: rejectedID, Terms: terms}
		}
		flow.Status = ctrl.Accept
		return &point.Point{ID: rejectedID, Terms: flow.Hint.Terms}, nil
	}
	if idx >= 0 {
		if err := p.markReported(idx, point.Reset(1)); err != nil {
			return nil, err
		}
	}
	return p.Generate(flow)
}

func (p *PRO) Analyze(tr *ctrl.Trial) error {
	idx := p.findSlot(tr.Point.ID)
	if idx < 0 {
		return nil // rogue report: unknown id, silently accepted as no-op
	}
	return p.markReported(idx, tr.Perf)
}

func (p *PRO) markReported(idx int, perf point.Performance) error {
	if p.test[idx].reported {
		return nil
	}
	p.test[idx].vertex.Perf = perf
	p.test[idx].reported = true
	p.reportedCount++
	if p.reportedCount < len(p.test) {
		return nil
	}
	return p.runAlgorithm()
}

func (p *PRO) testVertices() []point.Vertex {
	out := make([]point.Vertex, len(p.test))
	for i, s := range p.test {
		out[i] = s.vertex
	}
	return out
}

func (p *PRO) runAlgorithm() error {
	bestIn := simplex.BestIndex(p.testVertices())
	if err := p.advanceState(bestIn); err != nil {
		return err
	}
	if p.converged {
		return nil
	}
	return p.generateNextSimplex()
}

// advanceState applies the table of spec.md §4.3.3 and, whenever it
// lands on REFLECT, runs the convergence check.
func (p *PRO) advanceState(bestIn int) error {
	switch p.state {
	case proInit, proShrink:
		p.acceptTestAsBase(bestIn)
		p.state = proReflect
	case proReflect:
		if p.test[bestIn].vertex.Perf.Less(p.base[p.bestBase].Perf) {
			p.bestTestStash = bestIn
			p.acceptTestAsBase(bestIn)
			p.state = proExpandOne
		} else {
			p.state = proShrink
		}
	case proExpandOne:
		if p.test[0].vertex.Perf.Less(p.base[p.bestBase].Perf) {
			p.state = proExpandAll
		} else {
			p.bestBase = bestIn
			p.state = proReflect
		}
	case proExpandAll:
		if p.test[bestIn].vertex.Perf.Less(p.base[p.bestBase].Perf) {
			p.acceptTestAsBase(bestIn)
		}
		p.state = proReflect
	}

	if p.state == proReflect {
		converged, err := p.checkConvergence()
		if err != nil {
			return err
		}
		if converged {
			p.converged = true
		}
	}
	return nil
}

func (p *PRO) acceptTestAsBase(bestIn int) {
	base := make([]point.Vertex, len(p.test))
	for i, s := range p.test {
		base[i] = s.vertex.Clone()
	}
	p.base = base
	p.bestBase = bestIn
	bv := p.base[bestIn]
	if !p.haveBest || bv.Perf.Less(p.best.Perf) {
		p.best = bv.Clone()
		p.haveBest = true
	}
}

func (p *PRO) checkConvergence() (bool, error) {
	collapsed, err := simplex.Collapsed(p.sp, p.base)
	if err != nil {
		return false, err
	}
	if collapsed {
		return true, nil
	}

	centroid, err := simplex.Centroid(p.sp, p.base, -1)
	if err != nil {
		return false, err
	}
	var sumPerf float64
	for _, v := range p.base {
		sumPerf += v.Perf.Unify()
	}
	meanPerf := sumPerf / float64(len(p.base))
	msd := simplex.MeanSquaredDeviation(p.base, meanPerf)
	maxDist, err := simplex.MaxDistanceToCentroid(p.sp, p.base, centroid)
	if err != nil {
		return false, err
	}
	return msd < p.convergeFV && maxDist < p.convergeSZ, nil
}

// generateNextSimplex builds the candidate simplex for p.state. If it
// lies entirely out of bounds, it loops the state machine immediately
// (as if the candidate had reported with infinite performance) rather
// than emitting an out-of-bounds point to the client.
func (p *PRO) generateNextSimplex() error {
	for attempt := 0; attempt < maxOOBRetries; attempt++ {
		raw, err := p.buildCandidateSimplex()
		if err != nil {
			return err
		}
		if anyInBounds(p.sp, raw) {
			p.installTestSimplex(raw)
			return nil
		}
		if err := p.advanceState(0); err != nil {
			return err
		}
		if p.converged {
			return nil
		}
	}
	return herror.New(herror.StrategyInternal, "pro: exceeded out-of-bounds retry limit")
}

func (p *PRO) buildCandidateSimplex() ([]point.Vertex, error) {
	pivotCoords, err := p.base[p.bestBase].Coords(p.sp)
	if err != nil {
		return nil, err
	}

	switch p.state {
	case proReflect:
		return p.transformAll(pivotCoords, -p.reflect)
	case proExpandAll:
		return p.transformAll(pivotCoords, p.expand)
	case proShrink:
		return p.transformAll(pivotCoords, p.shrink)
	case proExpandOne:
		stashCoords, err := p.test[p.bestTestStash].vertex.Coords(p.sp)
		if err != nil {
			return nil, err
		}
		expandCoords := simplex.Transform(pivotCoords, stashCoords, p.expand)
		out := make([]point.Vertex, len(p.base))
		out[0] = p.vertexFromCoords(expandCoords)
		for i := 1; i < len(out); i++ {
			out[i] = p.base[p.bestBase].Clone()
		}
		return out, nil
	default:
		return nil, fmt.Errorf("pro: buildCandidateSimplex called in state %s", p.state)
	}
}

func (p *PRO) transformAll(pivot []float64, coefficient float64) ([]point.Vertex, error) {
	out := make([]point.Vertex, len(p.base))
	for i, v := range p.base {
		coords, err := v.Coords(p.sp)
		if err != nil {
			return nil, err
		}
		out[i] = p.vertexFromCoords(simplex.Transform(pivot, coords, coefficient))
	}
	return out, nil
}

func anyInBounds(sp *space.Space, verts []point.Vertex) bool {
	for _, v := range verts {
		coords, err := v.Coords(sp)
		if err != nil {
			continue
		}
		if simplex.InBounds(sp, coords) {
			return true
		}
	}
	return false
}

func (p *PRO) Best() (*point.Point, error) {
	if !p.haveBest {
		return &point.Point{ID: point.NoID}, nil
	}
	return p.best.ToPoint(p.sp)
}

func (p *PRO) Converged() bool { return p.converged }
