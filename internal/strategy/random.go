package strategy

import (
	"github.com/activeharmony/harmony/internal/config"
	"github.com/activeharmony/harmony/internal/ctrl"
	"github.com/activeharmony/harmony/internal/harmonylog"
	"github.com/activeharmony/harmony/internal/point"
	"github.com/activeharmony/harmony/internal/rng"
	"github.com/activeharmony/harmony/internal/space"
)

func init() {
	Register("random", NewRandom)
}

// Random samples each coordinate uniformly and never converges. It
// honors INIT_POINT as its first candidate when configured.
type Random struct {
	cfg *config.Configuration
	log *harmonylog.Logger

	sp     *space.Space
	r      *rng.RNG
	nextID uint32

	initPoint *point.Point
	sentInit  bool

	haveBest bool
	best     point.Vertex
}

// NewRandom constructs a Random strategy, seeding from RANDOM_SEED (or
// the wall clock) and reading INIT_POINT if present.
func NewRandom(cfg *config.Configuration, log *harmonylog.Logger) Strategy {
	if log == nil {
		log = harmonylog.Nop()
	}
	return &Random{cfg: cfg, log: log}
}

func (s *Random) Init(sp *space.Space) error {
	s.sp = sp
	s.nextID = 1
	s.haveBest = false
	s.sentInit = false
	s.initPoint = nil

	seed := uint64(0)
	haveSeed := false
	if s.cfg != nil {
		if v, ok := s.cfg.Int("RANDOM_SEED", 0); ok && s.cfg.Has("RANDOM_SEED") {
			seed = uint64(v)
			haveSeed = true
		}
	}
	if haveSeed {
		s.r = rng.New(seed)
	} else {
		s.r = rng.NewFromWallClock()
	}

	if s.cfg != nil && s.cfg.Has("INIT_POINT") {
		lit := s.cfg.Get("INIT_POINT")
		if lit != "" {
			if p, err := point.Parse(0, lit, sp); err == nil {
				s.initPoint = p
			}
		}
	}
	return nil
}

func (s *Random) Generate(flow *ctrl.Flow) (*point.Point, error) {
	id := s.nextID
	s.nextID++
	if s.initPoint != nil && !s.sentInit {
		s.sentInit = true
		flow.Status = ctrl.Accept
		return &point.Point{ID: id, Terms: s.initPoint.Terms}, nil
	}
	terms := s.sp.Random(s.r)
	flow.Status = ctrl.Accept
	return &point.Point{ID: id, Terms: terms}, nil
}

func (s *Random) Rejected(flow *ctrl.Flow, rejectedID uint32) (*point.Point, error) {
	if flow.Hint != nil && flow.Hint.ID != point.NoID {
		flow.Status = ctrl.Accept
		return &point.Point{ID: rejectedID, Terms: flow.Hint.Terms}, nil
	}
	terms := s.sp.Random(s.r)
	flow.Status = ctrl.Accept
	return &point.Point{ID: rejectedID, Terms: terms}, nil
}

func (s *Random) Analyze(tr *ctrl.Trial) error {
	if !s.haveBest || tr.Perf.Less(s.best.Perf) {
		s.best = point.NewVertex(tr.Point.Clone(), tr.Perf.Clone())
		s.haveBest = true
	}
	return nil
}

func (s *Random) Best() (*point.Point, error) {
	if !s.haveBest {
		return &point.Point{ID: point.NoID}, nil
	}
	return s.best.Point.Clone(), nil
}

// Converged always reports false: Random never terminates on its own.
func (s *Random) Converged() bool { return false }
