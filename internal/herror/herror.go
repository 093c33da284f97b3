// Package herror classifies the error kinds spec.md §7 names so
// callers can branch on failure class with errors.Is/errors.As while
// still getting a normal wrapped-error chain for logging, matching the
// teacher's fmt.Errorf("...: %w", err) convention rather than a bespoke
// error framework.
package herror

import "fmt"

// Kind is one of the error classes spec.md §7 defines.
type Kind uint8

const (
	// ConfigInvalid: bad key or out-of-range configuration value.
	ConfigInvalid Kind = iota
	// SpaceMismatch: point/space length disagreement.
	SpaceMismatch
	// UnknownID: a REPORT/KILL referenced an id the session does not
	// recognize. Treated as a no-op for REPORT, FAIL for KILL.
	UnknownID
	// StrategyInternal: a strategy violated its own invariant. Fatal to
	// the session.
	StrategyInternal
	// StageFault: a pipeline stage failed. Fatal to the session.
	StageFault
	// Resource: allocation or I/O failure.
	Resource
)

func (k Kind) String() string {
	switch k {
	case ConfigInvalid:
		return "ConfigInvalid"
	case SpaceMismatch:
		return "SpaceMismatch"
	case UnknownID:
		return "UnknownId"
	case StrategyInternal:
		return "StrategyInternal"
	case StageFault:
		return "StageFault"
	case Resource:
		return "Resource"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying error with its spec.md §7 kind.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a Kind-tagged error without an underlying cause.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap constructs a Kind-tagged error wrapping err.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if err == nil {
		return false
	}
	if asErr, ok := err.(*Error); ok {
		e = asErr
	} else {
		return false
	}
	return e.Kind == kind
}

// Fatal reports whether an error of this kind must abort the session
// (StrategyInternal and StageFault), per spec.md §7.
func Fatal(err error) bool {
	if asErr, ok := err.(*Error); ok {
		return asErr.Kind == StrategyInternal || asErr.Kind == StageFault
	}
	return false
}
