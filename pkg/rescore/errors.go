package rescore

import "fmt"

// FailException signals a search-recoverable inconsistency: a propagator
// detected that no value can satisfy its constraint given the current
// bounds. The engine surfaces it up through Propagate/propagate and the
// search driver responds by backtracking, never by panicking.
type FailException struct {
	cause string
}

// Fail constructs a FailException carrying a short, human-readable reason.
// Propagators call this instead of a bare fmt.Errorf so callers can type
// switch on *FailException to distinguish it from a ContractViolationError.
func Fail(format string, args ...interface{}) error {
	return &FailException{cause: fmt.Sprintf(format, args...)}
}

func (e *FailException) Error() string {
	return fmt.Sprintf("propagation failure: %s", e.cause)
}

// IsFailure reports whether err is a search-recoverable FailException.
func IsFailure(err error) bool {
	_, ok := err.(*FailException)
	return ok
}

// ContractViolationError signals a fatal misuse of the API: mismatched
// array lengths, forcing a non-optional task to become optional, an
// invalid ArbitrationRule, and similar programmer errors. These are never
// caught by backtracking; they abort the current solve.
type ContractViolationError struct {
	cause string
}

// ContractViolation constructs a ContractViolationError.
func ContractViolation(format string, args ...interface{}) error {
	return &ContractViolationError{cause: fmt.Sprintf(format, args...)}
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("contract violation: %s", e.cause)
}

// IsContractViolation reports whether err is a fatal ContractViolationError.
func IsContractViolation(err error) bool {
	_, ok := err.(*ContractViolationError)
	return ok
}
