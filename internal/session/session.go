// Package session implements the session core: the owner of a
// Configuration, Space, Strategy, and Pipeline, and the single
// request/response surface {JOIN, FETCH, REPORT, BEST, KILL} a
// transport (or, here, the example CLI driver) calls into. Orchestration
// is grounded on dshills-dungo/pkg/dungeon/dungeon.go's
// DefaultGenerator.Generate: a fixed stage sequence driven from one
// entry point, wrapping each stage's error with its own context,
// except the single-thread cooperative loop of spec.md §5 replaces
// dungo's one-shot pipeline run with a long-lived request loop.
package session

import (
	"github.com/activeharmony/harmony/internal/config"
	"github.com/activeharmony/harmony/internal/ctrl"
	"github.com/activeharmony/harmony/internal/harmonylog"
	"github.com/activeharmony/harmony/internal/herror"
	"github.com/activeharmony/harmony/internal/pipeline"
	"github.com/activeharmony/harmony/internal/point"
	"github.com/activeharmony/harmony/internal/space"
	"github.com/activeharmony/harmony/internal/strategy"
)

// maxForwardAttempts bounds the REJECT/RETRY loop a single FETCH call
// can drive before giving up, the same defensive cap PRO's OOB-retry
// loop uses against a strategy or stage that never settles.
const maxForwardAttempts = 256

// LoggerAware is implemented by stages that want the session's logger
// wired in after Alloc, since a stage factory itself takes no
// constructor arguments (internal/stages.Logger and .Cache implement
// this).
type LoggerAware interface {
	SetLogger(log *harmonylog.Logger)
}

// rejectCounter is implemented by a stage (internal/stages.Metrics)
// that wants to know about every REJECT the session observes, not just
// the ones its own Generate/Analyze hooks raise — a strategy can also
// reject a reported point via Rejected, which never runs through a
// stage's own forward/reverse methods.
type rejectCounter interface {
	CountReject()
}

// Session owns configuration, space, strategy, and pipeline, and
// tracks outstanding trials by point id. A Session is not safe for
// concurrent use — spec.md §5's single-threaded cooperative model
// assumes one caller drives it at a time.
type Session struct {
	cfg  *config.Configuration
	log  *harmonylog.Logger
	sp   *space.Space
	strat strategy.Strategy
	pipe *pipeline.Pipeline

	trials      map[uint32]*ctrl.Trial
	pending     []*point.Point // strategy.Rejected replacements awaiting their forward pass
	ready       []*ctrl.Trial  // trials a resumed WAIT pushed through to ACCEPT, awaiting delivery
	rejects     rejectCounter  // the metrics stage, if LAYERS configured one

	converged bool
	dead      error
}

// New builds a Session: constructs the named strategy and the named
// pipeline stages from cfg's STRATEGY and LAYERS keys, wires each
// stage's logger, and runs Alloc/Init over both. Config and space
// errors here are the spec's "raised at init, abort session startup"
// class — the caller should not retry New with the same cfg/sp.
func New(cfg *config.Configuration, sp *space.Space, log *harmonylog.Logger) (*Session, error) {
	if log == nil {
		log = harmonylog.Nop()
	}
	cfg.Register(
		config.Info{Key: "STRATEGY", Default: "pro", Help: "search strategy name"},
		config.Info{Key: "LAYERS", Default: "", Help: "comma-separated pipeline stage names, forward order"},
	)
	stratName := cfg.Get("STRATEGY")
	if stratName == "" {
		return nil, herror.New(herror.ConfigInvalid, "STRATEGY must name a registered search strategy")
	}
	strat, err := strategy.Get(stratName, cfg, log)
	if err != nil {
		return nil, herror.Wrap(herror.ConfigInvalid, "resolving STRATEGY", err)
	}

	var layerNames []string
	for i := 0; i < cfg.ArrayLen("LAYERS"); i++ {
		name, _ := cfg.ArrayItem("LAYERS", i)
		layerNames = append(layerNames, name)
	}
	stages, err := pipeline.Build(layerNames)
	if err != nil {
		return nil, herror.Wrap(herror.ConfigInvalid, "resolving LAYERS", err)
	}
	pipe := pipeline.New(stages...)

	var rejects rejectCounter
	for _, st := range pipe.Stages() {
		if la, ok := st.(LoggerAware); ok {
			la.SetLogger(log)
		}
		if rc, ok := st.(rejectCounter); ok {
			rejects = rc
		}
	}

	if err := pipe.Alloc(cfg); err != nil {
		return nil, err
	}
	if err := strat.Init(sp); err != nil {
		return nil, herror.Wrap(herror.StrategyInternal, "strategy init", err)
	}
	if err := pipe.Init(sp); err != nil {
		return nil, err
	}

	return &Session{
		cfg:     cfg,
		log:     log,
		sp:      sp,
		strat:   strat,
		pipe:    pipe,
		trials:  make(map[uint32]*ctrl.Trial),
		rejects: rejects,
	}, nil
}

// countReject notifies the metrics stage (if LAYERS configured one)
// that a trial was rejected, from whichever of the four REJECT sites
// (Fetch, Report, ResumeForward, ResumeReverse) observed it.
func (s *Session) countReject() {
	if s.rejects != nil {
		s.rejects.CountReject()
	}
}

// fail records a fatal error (StrategyInternal or a stage's Fini
// failing) as spec.md §7 requires: the session stops accepting new
// work and every subsequent call returns the same error.
func (s *Session) fail(err error) {
	if s.dead == nil {
		s.dead = err
	}
}

// Join notifies every stage that a client has joined.
func (s *Session) Join(clientID string) error {
	if s.dead != nil {
		return s.dead
	}
	return s.pipe.Join(clientID)
}

// Dead returns the fatal error that stopped the session, or nil.
func (s *Session) Dead() error { return s.dead }

// nextCandidate serves a pending strategy.Rejected replacement before
// asking the strategy to generate afresh, and a trial a resumed WAIT
// already pushed to ACCEPT before either of those — ready trials need
// no further forward pass at all.
func (s *Session) nextCandidate() (*ctrl.Trial, ctrl.Flow, bool, error) {
	if len(s.ready) > 0 {
		t := s.ready[0]
		s.ready = s.ready[1:]
		return t, ctrl.AcceptFlow(), true, nil
	}
	if len(s.pending) > 0 {
		p := s.pending[0]
		s.pending = s.pending[1:]
		return ctrl.NewTrial(p), ctrl.AcceptFlow(), false, nil
	}
	flow := ctrl.Flow{}
	p, err := s.strat.Generate(&flow)
	if err != nil {
		return nil, flow, false, herror.Wrap(herror.StrategyInternal, "strategy generate", err)
	}
	if flow.Status == ctrl.Wait || p == nil {
		return nil, flow, false, nil
	}
	return ctrl.NewTrial(p), flow, false, nil
}

// Fetch drives the strategy and forward pipeline for one candidate.
// busy reports FETCH=WAIT/BUSY per spec.md §4.5; best is non-nil only
// when the strategy's current best has a higher id than bestPrevID.
func (s *Session) Fetch(bestPrevID uint32) (candidate *point.Point, best *point.Point, busy bool, err error) {
	if s.dead != nil {
		return nil, nil, false, s.dead
	}
	if s.converged {
		b, berr := s.strat.Best()
		if berr != nil {
			err = herror.Wrap(herror.StrategyInternal, "strategy best", berr)
			s.fail(err)
			return nil, nil, false, err
		}
		return b, nil, false, nil
	}

	for attempt := 0; attempt < maxForwardAttempts; attempt++ {
		trial, flow, alreadyForward, gerr := s.nextCandidate()
		if gerr != nil {
			s.fail(gerr)
			return nil, nil, false, gerr
		}
		if trial == nil {
			return nil, nil, true, nil
		}
		if !alreadyForward {
			trial.Status = ctrl.PipelineFwd
			pflow, perr := s.pipe.Forward(trial)
			if perr != nil {
				s.fail(perr)
				return nil, nil, false, perr
			}
			flow = pflow
		}

		switch flow.Status {
		case ctrl.Accept:
			trial.Status = ctrl.AwaitingClient
			s.trials[trial.Point.ID] = trial
			return trial.Point, s.improvedBest(bestPrevID), false, nil
		case ctrl.Wait:
			return nil, nil, true, nil
		case ctrl.Reject:
			s.countReject()
			np, rerr := s.strat.Rejected(&flow, trial.Point.ID)
			if rerr != nil {
				err = herror.Wrap(herror.StrategyInternal, "strategy rejected", rerr)
				s.fail(err)
				return nil, nil, false, err
			}
			if np == nil {
				return nil, nil, true, nil
			}
			s.pending = append([]*point.Point{np}, s.pending...)
			continue
		case ctrl.Retry:
			continue
		default:
			err = herror.New(herror.StageFault, "forward pipeline returned an unrecognized status")
			s.fail(err)
			return nil, nil, false, err
		}
	}
	err = herror.New(herror.StageFault, "forward pipeline did not settle within the retry bound")
	s.fail(err)
	return nil, nil, false, err
}

// improvedBest returns the strategy's current best point if it is
// further along than bestPrevID, else nil.
func (s *Session) improvedBest(bestPrevID uint32) *point.Point {
	best, err := s.strat.Best()
	if err != nil || best == nil || best.ID == point.NoID {
		return nil
	}
	if best.ID > bestPrevID {
		return best
	}
	return nil
}

// Report locates the outstanding trial for pointID, attaches perf, and
// runs the reverse pipeline. An unknown id is a no-op, per spec.md
// §4.5 and §7 ("rogue reports ... accepted as no-ops").
func (s *Session) Report(pointID uint32, perf point.Performance) error {
	if s.dead != nil {
		return s.dead
	}
	trial, ok := s.trials[pointID]
	if !ok {
		return nil
	}
	delete(s.trials, pointID)

	trial.Perf = perf
	trial.Status = ctrl.PipelineRev
	trial.StageCursor = len(s.pipe.Stages())
	rflow, err := s.pipe.Reverse(trial)
	if err != nil {
		s.fail(err)
		return err
	}

	switch rflow.Status {
	case ctrl.Accept:
		if aerr := s.strat.Analyze(trial); aerr != nil {
			err = herror.Wrap(herror.StrategyInternal, "strategy analyze", aerr)
			s.fail(err)
			return err
		}
		trial.Status = ctrl.Delivered
		if s.strat.Converged() {
			s.converged = true
		}
		return nil
	case ctrl.Wait:
		// A reverse stage parked the trial (e.g. awaiting an external
		// transfer); it resumes later via ResumeReverse, same as the
		// forward pipeline's Wait handling in Fetch.
		return nil
	case ctrl.Reject:
		// The replacement has no direct channel back to the client that
		// reported pointID — it is queued and handed out on a later FETCH,
		// per spec.md §4.5's "replacement consumed by the strategy, not
		// the client".
		s.countReject()
		np, rerr := s.strat.Rejected(&rflow, trial.Point.ID)
		if rerr != nil {
			err = herror.Wrap(herror.StrategyInternal, "strategy rejected", rerr)
			s.fail(err)
			return err
		}
		if np != nil {
			s.pending = append(s.pending, np)
		}
		return nil
	case ctrl.Return:
		// Discarded: the reverse pipeline short-circuited before reaching
		// the strategy.
		return nil
	default:
		err = herror.New(herror.StageFault, "reverse pipeline returned an unrecognized status")
		s.fail(err)
		return err
	}
}

// Best returns the strategy's best point so far.
func (s *Session) Best() (*point.Point, error) {
	if s.dead != nil {
		return nil, s.dead
	}
	best, err := s.strat.Best()
	if err != nil {
		err = herror.Wrap(herror.StrategyInternal, "strategy best", err)
		s.fail(err)
		return nil, err
	}
	return best, nil
}

// Kill drops an outstanding trial, reporting whether one was found.
func (s *Session) Kill(pointID uint32) bool {
	if _, ok := s.trials[pointID]; !ok {
		return false
	}
	delete(s.trials, pointID)
	return true
}

// Converged reports whether the strategy has reached its termination
// condition.
func (s *Session) Converged() bool { return s.converged }

// ResumeForward re-enters the forward pipeline for every trial parked
// at stageIndex, queuing any that now reach ACCEPT for the next Fetch
// call. A stage signals readiness through whatever mechanism it owns
// (e.g. an I/O completion callback); the caller holding that signal is
// expected to invoke this method, since stages carry no back-reference
// to their owning Session.
func (s *Session) ResumeForward(stageIndex int) error {
	for _, trial := range s.pipe.ResumeForward(stageIndex) {
		flow, err := s.pipe.Forward(trial)
		if err != nil {
			s.fail(err)
			return err
		}
		switch flow.Status {
		case ctrl.Accept:
			s.ready = append(s.ready, trial)
		case ctrl.Reject:
			s.countReject()
			np, rerr := s.strat.Rejected(&flow, trial.Point.ID)
			if rerr != nil {
				err = herror.Wrap(herror.StrategyInternal, "strategy rejected", rerr)
				s.fail(err)
				return err
			}
			if np != nil {
				s.pending = append(s.pending, np)
			}
		}
	}
	return nil
}

// ResumeReverse re-enters the reverse pipeline for every trial parked
// at stageIndex.
func (s *Session) ResumeReverse(stageIndex int) error {
	for _, trial := range s.pipe.ResumeReverse(stageIndex) {
		flow, err := s.pipe.Reverse(trial)
		if err != nil {
			s.fail(err)
			return err
		}
		switch flow.Status {
		case ctrl.Accept:
			if aerr := s.strat.Analyze(trial); aerr != nil {
				err = herror.Wrap(herror.StrategyInternal, "strategy analyze", aerr)
				s.fail(err)
				return err
			}
			if s.strat.Converged() {
				s.converged = true
			}
		case ctrl.Reject:
			s.countReject()
			np, rerr := s.strat.Rejected(&flow, trial.Point.ID)
			if rerr != nil {
				err = herror.Wrap(herror.StrategyInternal, "strategy rejected", rerr)
				s.fail(err)
				return err
			}
			if np != nil {
				s.pending = append(s.pending, np)
			}
		}
	}
	return nil
}

// Fini tears down the pipeline. A stage Fini failure is fatal per
// spec.md §7.
func (s *Session) Fini() error {
	if err := s.pipe.Fini(); err != nil {
		s.fail(err)
		return err
	}
	return nil
}

// Space returns the session's space, for callers (the CLI driver,
// tests) that need it outside the request protocol.
func (s *Session) Space() *space.Space { return s.sp }

// Outstanding returns the count of trials awaiting REPORT.
func (s *Session) Outstanding() int { return len(s.trials) }
