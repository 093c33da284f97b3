package strategy

import (
	"fmt"
	"math"
	"strconv"

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
	Register("angel", NewANGEL)
}

// angelSlot is ANGEL's vertex record: the point and its raw, observed
// per-objective vector alongside the single "effective" scalar
// performance (current phase's objective plus any penalty) that
// drives the shared reflect/expand/shrink machinery.
type angelSlot struct {
	id       uint32
	vertex   point.Vertex // Point + effective (1-dim) performance
	raw      []float64    // nil until reported; length PERF_COUNT
	reported bool
}

func (s angelSlot) clone() angelSlot {
	var raw []float64
	if s.raw != nil {
		raw = append([]float64(nil), s.raw...)
	}
	return angelSlot{id: s.id, vertex: s.vertex.Clone(), raw: raw, reported: s.reported}
}

func cloneAngelSlots(template []angelSlot) []angelSlot {
	out := make([]angelSlot, len(template))
	for i, t := range template {
		out[i] = angelSlot{
			id:     point.NoID,
			vertex: point.NewVertex(t.vertex.Point.Clone(), point.Reset(1)),
		}
	}
	return out
}

func angelSlotsToVertices(slots []angelSlot) []point.Vertex {
	out := make([]point.Vertex, len(slots))
	for i, s := range slots {
		out[i] = s.vertex
	}
	return out
}

// ANGEL extends PRO's simplex skeleton to N objectives minimized in
// lexicographic priority order (spec.md §4.3.4): a phase index selects
// which objective is currently driving the simplex, earlier phases'
// thresholds turn into a penalty term once a later phase begins, and a
// phase advance resets (or reseeds) the simplex around the preserved
// best vertex of the phase just finished.
type ANGEL struct {
	cfg *config.Configuration
	log *harmonylog.Logger
	r   *rng.RNG

	sp   *space.Space
	size int

	n      int
	leeway []float64

	angelLoose       bool
	angelMult        float64
	angelAnchor      bool
	angelSameSimplex bool
	rejectMethod     string
	distTol          float64
	tolCnt           int64

	initMethod                         string
	initPercent                        float64
	reflect, expand, contract, shrink  float64
	convergeFV, convergeSZ             float64

	initialSimplex []angelSlot

	phase                     int
	thresh                    []float64
	finishedMin, finishedMax  []float64
	phaseMin, phaseMax        float64

	base     []angelSlot
	bestBase int

	test          []angelSlot
	bestTestStash int
	sendIdx       int
	reportedCount int

	identicalStreak int
	smallMoveStreak int

	nextID uint32
	state  proState

	converged bool
	haveBest  bool
	best      angelSlot
}

// NewANGEL constructs an ANGEL strategy reading its coefficients and
// multi-objective parameters from cfg.
func NewANGEL(cfg *config.Configuration, log *harmonylog.Logger) Strategy {
	if log == nil {
		log = harmonylog.Nop()
	}
	return &ANGEL{cfg: cfg, log: log}
}

func (a *ANGEL) configReal(key string, fallback float64) float64 {
	if a.cfg == nil {
		return fallback
	}
	v, ok := a.cfg.Real(key, fallback)
	if !ok {
		return fallback
	}
	return v
}

func (a *ANGEL) loadLeeway() {
	n := a.n - 1
	if n < 0 {
		n = 0
	}
	a.leeway = make([]float64, n)
	for i := range a.leeway {
		a.leeway[i] = 0.1
	}
	if a.cfg == nil {
		return
	}
	cnt := a.cfg.ArrayLen("LEEWAY")
	for i := 0; i < n && i < cnt; i++ {
		item, err := a.cfg.ArrayItem("LEEWAY", i)
		if err != nil {
			continue
		}
		if v, perr := strconv.ParseFloat(item, 64); perr == nil && v >= 0 && v <= 1 {
			a.leeway[i] = v
		}
	}
}

func (a *ANGEL) Init(sp *space.Space) error {
	a.sp = sp
	dims := int64(sp.Len() + 1)
	size := dims
	if a.cfg != nil {
		if v, ok := a.cfg.Int("SIMPLEX_SIZE", dims); ok && v > size {
			size = v
		}
	}
	a.size = int(size)

	a.n = 1
	if a.cfg != nil {
		if v, ok := a.cfg.Int("PERF_COUNT", 1); ok && v >= 1 {
			a.n = int(v)
		}
	}
	a.loadLeeway()

	a.angelLoose = false
	if a.cfg != nil {
		if v, ok := a.cfg.Bool("ANGEL_LOOSE", false); ok {
			a.angelLoose = v
		}
	}
	a.angelMult = a.configReal("ANGEL_MULT", 1.0)
	a.angelAnchor = true
	if a.cfg != nil {
		if v, ok := a.cfg.Bool("ANGEL_ANCHOR", true); ok {
			a.angelAnchor = v
		}
	}
	a.angelSameSimplex = true
	if a.cfg != nil {
		if v, ok := a.cfg.Bool("ANGEL_SAMESIMPLEX", true); ok {
			a.angelSameSimplex = v
		}
	}
	a.rejectMethod = "penalty"
	if a.cfg != nil && a.cfg.Has("REJECT_METHOD") {
		if m := a.cfg.Get("REJECT_METHOD"); m == "penalty" || m == "random" {
			a.rejectMethod = m
		}
	}
	a.distTol = math.NaN()
	if a.cfg != nil && a.cfg.Has("DIST_TOL") {
		if v, ok := a.cfg.Real("DIST_TOL", math.NaN()); ok {
			a.distTol = v
		}
	}
	a.tolCnt = 3
	if a.cfg != nil {
		if v, ok := a.cfg.Int("TOL_CNT", 3); ok && v > 0 {
			a.tolCnt = v
		}
	}

	a.initMethod = "point"
	if a.cfg != nil && a.cfg.Has("INIT_METHOD") {
		switch a.cfg.Get("INIT_METHOD") {
		case "random", "point", "point_fast":
			a.initMethod = a.cfg.Get("INIT_METHOD")
		}
	}
	a.initPercent = a.configReal("INIT_PERCENT", 0.35)
	if a.initPercent <= 0 || a.initPercent > 1 {
		a.initPercent = 0.35
	}

	a.reflect = a.configReal("REFLECT", 1.0)
	if a.reflect <= 0 {
		a.reflect = 1.0
	}
	a.expand = a.configReal("EXPAND", 2.0)
	if a.expand <= a.reflect {
		a.expand = 2.0
	}
	a.contract = a.configReal("CONTRACT", 0.5)
	if a.contract <= 0 || a.contract >= 1 {
		a.contract = 0.5
	}
	a.shrink = a.configReal("SHRINK", 0.5)
	if a.shrink <= 0 || a.shrink >= 1 {
		a.shrink = 0.5
	}

	a.convergeFV = a.configReal("CONVERGE_FV", 1e-4)
	a.convergeSZ = 0.005 * sp.Diagonal()
	if a.cfg != nil && a.cfg.Has("CONVERGE_SZ") {
		a.convergeSZ = a.configReal("CONVERGE_SZ", a.convergeSZ)
	}

	a.r = newSeededRNG(a.cfg)

	a.phase = 0
	nThresh := a.n - 1
	if nThresh < 0 {
		nThresh = 0
	}
	a.thresh = make([]float64, nThresh)
	a.finishedMin = make([]float64, nThresh)
	a.finishedMax = make([]float64, nThresh)
	a.phaseMin = math.Inf(1)
	a.phaseMax = math.Inf(-1)
	if a.cfg != nil {
		a.cfg.Set("ANGEL_PHASE", "0")
	}

	a.state = proInit
	a.converged = false
	a.haveBest = false
	a.bestBase = 0
	a.bestTestStash = 0
	a.nextID = 1
	a.base = nil
	a.identicalStreak = 0
	a.smallMoveStreak = 0

	initial, err := a.buildInitial()
	if err != nil {
		return err
	}
	a.initialSimplex = cloneAngelSlots(initial)
	a.installTestSimplex(initial)
	return nil
}

func (a *ANGEL) vertexFromCoords(coords []float64) point.Vertex {
	terms, _ := simplex.TermsFromCoords(a.sp, coords)
	return point.NewVertex(&point.Point{ID: point.NoID, Terms: terms}, point.Reset(1))
}

func (a *ANGEL) centerVertex() (point.Vertex, error) {
	if a.cfg != nil && a.cfg.Has("INIT_POINT") {
		if lit := a.cfg.Get("INIT_POINT"); lit != "" {
			if pt, err := point.Parse(point.NoID, lit, a.sp); err == nil {
				return point.NewVertex(pt, point.Reset(1)), nil
			}
		}
	}
	coords := make([]float64, a.sp.Len())
	for i := 0; i < a.sp.Len(); i++ {
		d := a.sp.Dim(i)
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
	return a.vertexFromCoords(coords), nil
}

func (a *ANGEL) buildInitial() ([]angelSlot, error) {
	if a.initMethod == "random" {
		out := make([]angelSlot, a.size)
		for i := range out {
			terms := a.sp.Random(a.r)
			out[i] = angelSlot{id: point.NoID, vertex: point.NewVertex(&point.Point{ID: point.NoID, Terms: terms}, point.Reset(1))}
		}
		return out, nil
	}

	center, err := a.centerVertex()
	if err != nil {
		return nil, err
	}
	centerCoords, err := center.Coords(a.sp)
	if err != nil {
		return nil, err
	}
	ranges := make([]float64, a.sp.Len())
	for i := 0; i < a.sp.Len(); i++ {
		ranges[i] = a.sp.Dim(i).Range()
	}

	out := make([]angelSlot, a.size)
	out[0] = angelSlot{id: point.NoID, vertex: center}
	for i := 1; i < a.size; i++ {
		coords := make([]float64, len(centerCoords))
		copy(coords, centerCoords)
		axis := (i - 1) % a.sp.Len()
		if a.initMethod == "point_fast" {
			coords[axis] += ranges[axis] * a.initPercent
		} else {
			for j := range coords {
				if j == axis {
					coords[j] += ranges[j] * a.initPercent
				} else {
					coords[j] -= ranges[j] * a.initPercent / float64(a.sp.Len())
				}
			}
		}
		out[i] = angelSlot{id: point.NoID, vertex: a.vertexFromCoords(coords)}
	}
	return out, nil
}

func (a *ANGEL) installTestSimplex(verts []angelSlot) {
	a.test = verts
	for i := range a.test {
		a.test[i].id = point.NoID
		a.test[i].reported = false
	}
	a.sendIdx = 0
	a.reportedCount = 0
}

func (a *ANGEL) findSlot(id uint32) int {
	for i := range a.test {
		if a.test[i].id == id {
			return i
		}
	}
	return -1
}

func (a *ANGEL) testVertices() []point.Vertex { return angelSlotsToVertices(a.test) }
func (a *ANGEL) baseVertices() []point.Vertex { return angelSlotsToVertices(a.base) }

func (a *ANGEL) Generate(flow *ctrl.Flow) (*point.Point, error) {
	if a.converged {
		flow.Status = ctrl.Wait
		return nil, nil
	}
	if a.sendIdx >= len(a.test) {
		flow.Status = ctrl.Wait
		return nil, nil
	}
	idx := a.sendIdx
	a.sendIdx++
	id := a.nextID
	a.nextID++
	a.test[idx].id = id

	pt, err := a.test[idx].vertex.ToPoint(a.sp)
	if err != nil {
		return nil, err
	}
	pt.ID = id
	flow.Status = ctrl.Accept
	return pt, nil
}

func (a *ANGEL) Rejected(flow *ctrl.Flow, rejectedID uint32) (*point.Point, error) {
	idx := a.findSlot(rejectedID)
	if flow.Hint != nil && flow.Hint.ID != point.NoID {
		if idx >= 0 {
			terms := append([]value.Value(nil), flow.Hint.Terms...)
			a.test[idx].vertex.Point = &point.Point{ID: rejectedID, Terms: terms}
		}
		flow.Status = ctrl.Accept
		return &point.Point{ID: rejectedID, Terms: flow.Hint.Terms}, nil
	}
	if a.rejectMethod == "random" {
		pt := &point.Point{ID: rejectedID}
		if idx >= 0 {
			terms := a.sp.Random(a.r)
			a.test[idx].vertex.Point = &point.Point{ID: rejectedID, Terms: terms}
			pt.Terms = terms
		}
		flow.Status = ctrl.Accept
		return pt, nil
	}
	if idx >= 0 {
		if err := a.markReported(idx, point.Reset(a.n)); err != nil {
			return nil, err
		}
	}
	return a.Generate(flow)
}

func (a *ANGEL) Analyze(tr *ctrl.Trial) error {
	idx := a.findSlot(tr.Point.ID)
	if idx < 0 {
		return nil
	}
	return a.markReported(idx, tr.Perf)
}

// computeEff reduces a raw per-objective vector to the single
// effective scalar the shared simplex machinery compares: the current
// phase's own objective plus the accumulated penalty for any earlier
// phase's threshold violation (spec.md §4.3.4's penalty formula).
func (a *ANGEL) computeEff(raw []float64) point.Performance {
	var penalty float64
	anyViolated := false
	for i := 0; i < a.phase; i++ {
		if raw[i] > a.thresh[i] {
			anyViolated = true
			denom := a.finishedMax[i] - a.thresh[i]
			ratio := 1e-9
			if denom > 0 {
				if r := (raw[i] - a.thresh[i]) / denom; r > ratio {
					ratio = r
				}
			}
			penalty += 1 / (1 - math.Log(ratio))
			if !a.angelLoose {
				penalty += math.Pow(2, float64(a.phase-1-i))
			}
		}
	}
	if a.angelLoose && anyViolated {
		penalty += 1.0
	}
	eff := raw[a.phase] + penalty*a.currentPhaseSpan()*a.angelMult
	return point.Performance{Obj: []float64{eff}}
}

func (a *ANGEL) currentPhaseSpan() float64 {
	if math.IsInf(a.phaseMin, 1) || math.IsInf(a.phaseMax, -1) {
		return 0
	}
	return a.phaseMax - a.phaseMin
}

func (a *ANGEL) markReported(idx int, rawPerf point.Performance) error {
	if a.test[idx].reported {
		return nil
	}
	raw := make([]float64, a.n)
	for i := range raw {
		raw[i] = math.Inf(1)
	}
	copy(raw, rawPerf.Obj)

	if !math.IsInf(raw[a.phase], 0) {
		if raw[a.phase] < a.phaseMin {
			a.phaseMin = raw[a.phase]
		}
		if raw[a.phase] > a.phaseMax {
			a.phaseMax = raw[a.phase]
		}
	}
	eff := a.computeEff(raw)

	a.test[idx].raw = raw
	a.test[idx].vertex.Perf = eff
	a.test[idx].reported = true
	a.reportedCount++

	if !a.haveBest || eff.Less(a.best.vertex.Perf) {
		a.best = a.test[idx].clone()
		a.haveBest = true
	}
	if a.reportedCount < len(a.test) {
		return nil
	}
	return a.runAlgorithm()
}

func (a *ANGEL) runAlgorithm() error {
	first := a.test[0].vertex.Perf.Unify()
	allSame := true
	for _, s := range a.test[1:] {
		if s.vertex.Perf.Unify() != first {
			allSame = false
			break
		}
	}
	if allSame {
		a.identicalStreak++
	} else {
		a.identicalStreak = 0
	}

	bestIn := simplex.BestIndex(a.testVertices())
	transitioned, err := a.advanceState(bestIn)
	if err != nil {
		return err
	}
	if a.converged || transitioned {
		return nil
	}
	return a.generateNextSimplex()
}

// advanceState applies PRO's table (spec.md §4.3.3) over ANGEL's
// effective performance, and on re-entering REFLECT checks whether the
// current phase has converged; if so it performs the phase transition
// and reports transitioned=true so the caller skips building another
// candidate simplex itself (advanceState/handlePhaseConvergence has
// already installed one, or set Converged() for the final phase).
func (a *ANGEL) advanceState(bestIn int) (bool, error) {
	switch a.state {
	case proInit, proShrink:
		a.acceptTestAsBase(bestIn)
		a.state = proReflect
	case proReflect:
		if a.test[bestIn].vertex.Perf.Less(a.base[a.bestBase].vertex.Perf) {
			a.bestTestStash = bestIn
			a.acceptTestAsBase(bestIn)
			a.state = proExpandOne
		} else {
			a.state = proShrink
		}
	case proExpandOne:
		if a.test[0].vertex.Perf.Less(a.base[a.bestBase].vertex.Perf) {
			a.state = proExpandAll
		} else {
			a.bestBase = bestIn
			a.state = proReflect
		}
	case proExpandAll:
		if a.test[bestIn].vertex.Perf.Less(a.base[a.bestBase].vertex.Perf) {
			a.acceptTestAsBase(bestIn)
		}
		a.state = proReflect
	}

	if a.state == proReflect {
		converged, err := a.checkPhaseConvergence()
		if err != nil {
			return false, err
		}
		if converged {
			return a.handlePhaseConvergence()
		}
	}
	return false, nil
}

func (a *ANGEL) acceptTestAsBase(bestIn int) {
	base := make([]angelSlot, len(a.test))
	for i, s := range a.test {
		base[i] = s.clone()
	}
	a.base = base
	a.bestBase = bestIn
}

// checkPhaseConvergence implements the four conditions of spec.md
// §4.3.4: (a) DIST_TOL reflection-move-length streak, (b) the PRO
// size/fval test restricted to the current phase's effective
// objective, (c) identical objective values for 3 consecutive rounds,
// (d) simplex collapse.
func (a *ANGEL) checkPhaseConvergence() (bool, error) {
	collapsed, err := simplex.Collapsed(a.sp, a.baseVertices())
	if err != nil {
		return false, err
	}
	if collapsed {
		return true, nil
	}
	if a.identicalStreak >= 3 {
		return true, nil
	}
	if !math.IsNaN(a.distTol) && a.smallMoveStreak >= int(a.tolCnt) {
		return true, nil
	}

	centroid, err := simplex.Centroid(a.sp, a.baseVertices(), -1)
	if err != nil {
		return false, err
	}
	var sumEff float64
	for _, s := range a.base {
		sumEff += s.vertex.Perf.Unify()
	}
	meanEff := sumEff / float64(len(a.base))
	msd := simplex.MeanSquaredDeviation(a.baseVertices(), meanEff)
	maxDist, err := simplex.MaxDistanceToCentroid(a.sp, a.baseVertices(), centroid)
	if err != nil {
		return false, err
	}
	return msd < a.convergeFV && maxDist < a.convergeSZ, nil
}

// handlePhaseConvergence finishes the current phase: at the last phase
// it sets overall convergence; otherwise it freezes a threshold from
// the phase's observed span, preserves the phase's best vertex, and
// reseeds the simplex (SAMESIMPLEX / rebuilt, optionally anchored).
func (a *ANGEL) handlePhaseConvergence() (bool, error) {
	if a.phase >= a.n-1 {
		a.converged = true
		return false, nil
	}

	span := a.currentPhaseSpan()
	thresh := a.phaseMin + a.leeway[a.phase]*span
	if math.IsInf(thresh, 0) || math.IsNaN(thresh) {
		thresh = 0
	}
	a.thresh[a.phase] = thresh
	a.finishedMin[a.phase] = a.phaseMin
	a.finishedMax[a.phase] = a.phaseMax

	preservedPoint := a.base[a.bestBase].vertex.Point.Clone()

	a.phase++
	if a.cfg != nil {
		a.cfg.Set("ANGEL_PHASE", strconv.Itoa(a.phase))
	}
	a.phaseMin = math.Inf(1)
	a.phaseMax = math.Inf(-1)
	a.identicalStreak = 0
	a.smallMoveStreak = 0

	var verts []angelSlot
	if a.angelSameSimplex {
		verts = cloneAngelSlots(a.initialSimplex)
	} else {
		built, err := a.buildInitial()
		if err != nil {
			return false, err
		}
		verts = built
	}

	if a.angelAnchor {
		pc, err := point.NewVertex(preservedPoint, point.Reset(1)).Coords(a.sp)
		if err == nil {
			closest, bestDist := 0, math.Inf(1)
			for i, v := range verts {
				vc, verr := v.vertex.Coords(a.sp)
				if verr != nil {
					continue
				}
				if d := simplex.Distance(pc, vc); d < bestDist {
					bestDist = d
					closest = i
				}
			}
			verts[closest] = angelSlot{id: point.NoID, vertex: point.NewVertex(preservedPoint.Clone(), point.Reset(1))}
		}
	}

	a.state = proInit
	a.base = nil
	a.installTestSimplex(verts)
	return true, nil
}

func (a *ANGEL) generateNextSimplex() error {
	for attempt := 0; attempt < maxOOBRetries; attempt++ {
		raw, err := a.buildCandidateSimplex()
		if err != nil {
			return err
		}
		if anyInBoundsAngel(a.sp, raw) {
			a.installTestSimplex(raw)
			return nil
		}
		transitioned, err := a.advanceState(0)
		if err != nil {
			return err
		}
		if a.converged || transitioned {
			return nil
		}
	}
	return herror.New(herror.StrategyInternal, "angel: exceeded out-of-bounds retry limit")
}

func (a *ANGEL) buildCandidateSimplex() ([]angelSlot, error) {
	pivotCoords, err := a.base[a.bestBase].vertex.Coords(a.sp)
	if err != nil {
		return nil, err
	}

	switch a.state {
	case proReflect:
		out, err := a.transformAll(pivotCoords, -a.reflect)
		if err != nil {
			return nil, err
		}
		if !math.IsNaN(a.distTol) {
			if centroid, cerr := simplex.Centroid(a.sp, angelSlotsToVertices(out), -1); cerr == nil {
				moveLen := simplex.Distance(pivotCoords, centroid)
				if moveLen < a.distTol*a.sp.Diagonal() {
					a.smallMoveStreak++
				} else {
					a.smallMoveStreak = 0
				}
			}
		}
		return out, nil
	case proExpandAll:
		return a.transformAll(pivotCoords, a.expand)
	case proShrink:
		return a.transformAll(pivotCoords, a.shrink)
	case proExpandOne:
		stashCoords, err := a.test[a.bestTestStash].vertex.Coords(a.sp)
		if err != nil {
			return nil, err
		}
		expandCoords := simplex.Transform(pivotCoords, stashCoords, a.expand)
		out := make([]angelSlot, len(a.base))
		out[0] = angelSlot{id: point.NoID, vertex: a.vertexFromCoords(expandCoords)}
		for i := 1; i < len(out); i++ {
			out[i] = angelSlot{id: point.NoID, vertex: point.NewVertex(a.base[a.bestBase].vertex.Point.Clone(), point.Reset(1))}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("angel: buildCandidateSimplex called in state %s", a.state)
	}
}

func (a *ANGEL) transformAll(pivot []float64, coefficient float64) ([]angelSlot, error) {
	out := make([]angelSlot, len(a.base))
	for i, s := range a.base {
		coords, err := s.vertex.Coords(a.sp)
		if err != nil {
			return nil, err
		}
		out[i] = angelSlot{id: point.NoID, vertex: a.vertexFromCoords(simplex.Transform(pivot, coords, coefficient))}
	}
	return out, nil
}

func anyInBoundsAngel(sp *space.Space, verts []angelSlot) bool {
	for _, s := range verts {
		coords, err := s.vertex.Coords(sp)
		if err != nil {
			continue
		}
		if simplex.InBounds(sp, coords) {
			return true
		}
	}
	return false
}

func (a *ANGEL) Best() (*point.Point, error) {
	if !a.haveBest {
		return &point.Point{ID: point.NoID}, nil
	}
	return a.best.vertex.ToPoint(a.sp)
}

func (a *ANGEL) Converged() bool { return a.converged }
