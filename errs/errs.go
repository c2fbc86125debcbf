// Package errs renders the engine's error taxonomy as a typed Go error.
package errs

import "fmt"

// Kind classifies a TreeError into one of the categories the engine
// distinguishes, so callers can react programmatically via errors.As
// instead of string matching.
type Kind int

const (
	// Misuse is an illegal argument: non-positive range, k<1, a nil
	// probe, branching_factor<2, max_tuples_per_page<5, an invalid
	// child removal, and similar caller errors.
	Misuse Kind = iota
	// ModeViolation is a read/write operation disallowed by the
	// configured read_write_mode.
	ModeViolation
	// Invariant is a structural invariant violation: two roots
	// staged, a leaf asked to list children, and the like. (A bad
	// metric value is reported directly by metric.InvariantError,
	// not wrapped here, since it panics at the metric boundary.)
	Invariant
	// ConcurrentModification is a transaction whose expected tree id
	// no longer matches the backend. (An iterator that observes a
	// changed tree panics with a *ConcurrentModificationError instead
	// of returning a TreeError.)
	ConcurrentModification
	// State is an operation requested in an invalid lifecycle state.
	// No operation in this module currently returns this kind.
	State
	// Backend is an opaque error raised by the DataStore (I/O
	// failure and similar); propagated unchanged, not reclassified.
	Backend
)

func (k Kind) String() string {
	switch k {
	case Misuse:
		return "misuse"
	case ModeViolation:
		return "mode-violation"
	case Invariant:
		return "invariant"
	case ConcurrentModification:
		return "concurrent-modification"
	case State:
		return "state"
	case Backend:
		return "backend"
	default:
		return "unknown"
	}
}

// TreeError is the engine's error type. Wrap an underlying cause with
// Wrap when one exists (e.g. a backend I/O error); leave Cause nil for
// errors the engine raises on its own (e.g. misuse).
type TreeError struct {
	Kind  Kind
	Msg   string
	Cause error
}

func New(kind Kind, msg string) *TreeError {
	return &TreeError{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, cause error) *TreeError {
	return &TreeError{Kind: kind, Msg: msg, Cause: cause}
}

func (e *TreeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *TreeError) Unwrap() error {
	return e.Cause
}

// Is reports whether err is a *TreeError of the given kind.
func Is(err error, kind Kind) bool {
	te, ok := err.(*TreeError)
	if !ok {
		return false
	}
	return te.Kind == kind
}
