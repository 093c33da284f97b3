// Package ctrl holds the small control records that pass between
// strategies, the pipeline, and the session core: the per-request Flow
// (status + optional replacement hint) and the per-id Trial (the
// session's outstanding-request bookkeeping).
package ctrl

import "github.com/activeharmony/harmony/internal/point"

// FlowStatus is the pipeline's per-direction disposition for a trial.
type FlowStatus uint8

const (
	// Accept passes the trial to the next stage in the current direction.
	Accept FlowStatus = iota
	// Reject aborts the current direction; the strategy's Rejected is
	// invoked with the flow's Hint.
	Reject
	// Wait parks the trial; it re-enters the pipeline at the same stage
	// once that stage signals readiness.
	Wait
	// Return short-circuits: skip remaining stages, deliver (forward) or
	// discard (reverse) immediately.
	Return
	// Retry re-asks the strategy to generate.
	Retry
)

func (s FlowStatus) String() string {
	switch s {
	case Accept:
		return "ACCEPT"
	case Reject:
		return "REJECT"
	case Wait:
		return "WAIT"
	case Return:
		return "RETURN"
	case Retry:
		return "RETRY"
	default:
		return "UNKNOWN"
	}
}

// Flow is the control record a stage returns after observing a trial on
// its way through the pipeline.
type Flow struct {
	Status FlowStatus
	Hint   *point.Point
}

// AcceptFlow is the common case: pass through unchanged.
func AcceptFlow() Flow { return Flow{Status: Accept} }

// RejectFlow rejects the trial, offering hint as a replacement
// candidate (hint may be nil, meaning "no hint — strategy picks").
func RejectFlow(hint *point.Point) Flow { return Flow{Status: Reject, Hint: hint} }

// Status is the session's per-trial lifecycle state.
type Status uint8

const (
	// Generating: the strategy has been asked for a candidate.
	Generating Status = iota
	// PipelineFwd: the candidate is moving through the forward pipeline.
	PipelineFwd
	// AwaitingClient: the candidate has been delivered and awaits REPORT.
	AwaitingClient
	// PipelineRev: the reported performance is moving through the reverse pipeline.
	PipelineRev
	// Delivered: the trial has been analyzed (or dropped) and is complete.
	Delivered
)

func (s Status) String() string {
	switch s {
	case Generating:
		return "GENERATING"
	case PipelineFwd:
		return "PIPELINE_FWD"
	case AwaitingClient:
		return "AWAITING_CLIENT"
	case PipelineRev:
		return "PIPELINE_REV"
	case Delivered:
		return "DELIVERED"
	default:
		return "UNKNOWN"
	}
}

// Trial is one outstanding (id, point, perf?) tracked by the session
// from generate until it is either analyzed or dropped as rogue.
type Trial struct {
	Point       *point.Point
	Perf        point.Performance
	StageCursor int
	Status      Status
}

// NewTrial starts a trial for a freshly generated point.
func NewTrial(p *point.Point) *Trial {
	return &Trial{Point: p, Status: Generating}
}
