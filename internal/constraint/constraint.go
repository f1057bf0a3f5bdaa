// Package constraint implements the two-tier constraint policy that governs
// a verification round: hard constraints (Assert) whose failure is
// unconditionally terminal, and soft constraints (Suggest) whose failure
// triggers bounded regeneration before becoming terminal.
package constraint

import (
	"go.uber.org/zap"

	"github.com/ahrav/go-scrutiny/internal/domain"
)

// DefaultMaxBacktracks is the default bound on regeneration attempts per
// request. The bound guarantees the backtrack loop terminates.
const DefaultMaxBacktracks = 2

// Outcome is the tagged result of evaluating a soft constraint. The
// orchestrator's backtrack loop consumes outcomes explicitly; constraint
// failures are never raised as non-local control transfer.
type Outcome int

const (
	// Pass means the constraint held and the round proceeds.
	Pass Outcome = iota

	// Backtrack means the constraint failed with attempts remaining: the
	// upstream generation stage that produced the failing artifact must
	// be re-run along with everything downstream of it.
	Backtrack

	// Exhausted means the constraint failed and the backtrack bound is
	// spent; the failure is now terminal.
	Exhausted
)

// String returns the outcome's name for logging.
func (o Outcome) String() string {
	switch o {
	case Pass:
		return "pass"
	case Backtrack:
		return "backtrack"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// BacktrackState tracks regeneration attempts against a maximum bound for
// one top-level request. It is owned exclusively by a single request's
// engine and never shared across requests.
type BacktrackState struct {
	attempts int
	max      int
}

// Attempts returns the number of backtrack attempts consumed so far.
func (b BacktrackState) Attempts() int { return b.attempts }

// Max returns the bound on backtrack attempts.
func (b BacktrackState) Max() int { return b.max }

// Engine evaluates hard and soft constraints for one request. A fresh
// engine is created per request so the backtrack counter resets between
// requests. Engine is not safe for concurrent use; the orchestrator
// evaluates constraints strictly sequentially.
type Engine struct {
	state  BacktrackState
	logger *zap.Logger
}

// NewEngine creates an Engine with the given backtrack bound. A
// non-positive bound falls back to DefaultMaxBacktracks.
func NewEngine(maxBacktracks int, logger *zap.Logger) *Engine {
	if maxBacktracks <= 0 {
		maxBacktracks = DefaultMaxBacktracks
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		state:  BacktrackState{max: maxBacktracks},
		logger: logger,
	}
}

// Assert evaluates a hard constraint. On failure it returns a
// *domain.StructuralError that terminates the round immediately; no
// backtrack is ever attempted for hard constraints.
func (e *Engine) Assert(ok bool, check, msg string) error {
	if ok {
		return nil
	}
	e.logger.Warn("hard constraint failed",
		zap.String("check", check),
		zap.String("msg", msg))
	return domain.NewStructuralError(check, msg)
}

// Suggest evaluates a soft constraint. On failure it consumes one backtrack
// attempt and reports Backtrack while attempts remain; once the bound is
// exhausted it reports Exhausted and Violation carries the terminal error.
func (e *Engine) Suggest(ok bool, msg string) Outcome {
	if ok {
		return Pass
	}

	e.state.attempts++
	if e.state.attempts <= e.state.max {
		e.logger.Info("soft constraint failed, backtracking",
			zap.String("msg", msg),
			zap.Int("attempt", e.state.attempts),
			zap.Int("max", e.state.max))
		return Backtrack
	}

	e.logger.Warn("soft constraint failed, backtracks exhausted",
		zap.String("msg", msg),
		zap.Int("attempts", e.state.attempts-1))
	return Exhausted
}

// Violation builds the terminal error for an exhausted soft constraint,
// preserving the original diagnostic message and the number of backtrack
// attempts consumed.
func (e *Engine) Violation(msg string) *domain.ConstraintViolation {
	return &domain.ConstraintViolation{Msg: msg, Attempts: e.state.max}
}

// State returns a copy of the engine's backtrack state for reporting.
func (e *Engine) State() BacktrackState { return e.state }
