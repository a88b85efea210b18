package signature

import (
	"errors"
	"fmt"
)

// ErrInvalidVersion indicates a version index outside 1..NumVersions.
// It is an argument error and never wrapped in a ParseError.
var ErrInvalidVersion = errors.New("signature: invalid version index")

// Reason identifies which structural rule a line violated.
type Reason uint8

const (
	ReasonUnknown Reason = iota
	ReasonConventionMissed
	ReasonAdjustorThunk
	ReasonAddressNotFound
	ReasonConventionNotFound
	ReasonSeparatorNotFound
	ReasonNameNotFound
	ReasonParameterList
	ReasonParenMismatch
	ReasonAngleMismatch
)

// String returns the diagnostic text written to error logs.
func (r Reason) String() string {
	switch r {
	case ReasonConventionMissed:
		return "Calling convention missed"
	case ReasonAdjustorThunk:
		return "Adjustor thunk rejected"
	case ReasonAddressNotFound:
		return "Address not found"
	case ReasonConventionNotFound:
		return "Calling convention not found"
	case ReasonSeparatorNotFound:
		return "Class/method separator not found"
	case ReasonNameNotFound:
		return "Function name not found"
	case ReasonParameterList:
		return "Parameter list must be between parenthesis"
	case ReasonParenMismatch:
		return "Parenthesis mismatch"
	case ReasonAngleMismatch:
		return "Triangle bracket mismatch"
	default:
		return "Unknown parse failure"
	}
}

// Error lets pipeline stages return a Reason directly; Build wraps it in a
// ParseError before it reaches callers.
func (r Reason) Error() string { return r.String() }

// ParseError reports why a line could not be turned into a Signature.
type ParseError struct {
	Stage  string // Pipeline stage that rejected the line
	Reason Reason // Violated rule
	Err    error  // Underlying bracket error, if any
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("signature: %s stage: %s", e.Stage, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Diagnostic returns the short human-readable failure message.
func (e *ParseError) Diagnostic() string { return e.Reason.String() }
