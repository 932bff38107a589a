package registry

import "errors"

// Registry errors. Every mutating operation fails with exactly one of
// these; no partial effects persist on any error path.
var (
	// Not-found.
	ErrTaskNotFound         = errors.New("registry: task not found")
	ErrEvaluationNotStarted = errors.New("registry: evaluation not started")

	// Conflict.
	ErrTaskExists          = errors.New("registry: task already registered")
	ErrEvaluationStarted   = errors.New("registry: evaluation already started")
	ErrEvaluationFinalized = errors.New("registry: evaluation already finalized")
	ErrNoEvaluation        = errors.New("registry: no evaluation to reset")

	// Invalid-input.
	ErrZeroRoot        = errors.New("registry: dataset root is the zero sentinel")
	ErrZeroExpected    = errors.New("registry: expected sample count must be positive")
	ErrInvalidVerifier = errors.New("registry: invalid verifier identity")
	ErrMalformedProof  = errors.New("registry: malformed proof encoding")

	// Verification-failure. Distinct from ErrMalformedProof: the proof was
	// well-formed but does not reconstruct the task's dataset root, i.e. a
	// false accuracy claim rather than a caller mistake.
	ErrProofMismatch = errors.New("registry: merkle proof does not match dataset root")

	// Authorization.
	ErrNotAdmin = errors.New("registry: caller is not the administrator")
)

// ErrorClass groups registry errors for downstream handling (a proof
// mismatch may warrant alerting where a malformed request does not).
type ErrorClass int

const (
	ClassUnknown ErrorClass = iota
	ClassNotFound
	ClassConflict
	ClassInvalidInput
	ClassVerification
	ClassAuthorization
)

// String returns the class name.
func (c ErrorClass) String() string {
	switch c {
	case ClassNotFound:
		return "not-found"
	case ClassConflict:
		return "conflict"
	case ClassInvalidInput:
		return "invalid-input"
	case ClassVerification:
		return "verification-failure"
	case ClassAuthorization:
		return "authorization"
	default:
		return "unknown"
	}
}

// Classify maps a registry error to its class. Wrapped errors are
// recognised via errors.Is. Unrecognised errors map to ClassUnknown.
func Classify(err error) ErrorClass {
	switch {
	case errors.Is(err, ErrTaskNotFound), errors.Is(err, ErrEvaluationNotStarted):
		return ClassNotFound
	case errors.Is(err, ErrTaskExists), errors.Is(err, ErrEvaluationStarted),
		errors.Is(err, ErrEvaluationFinalized), errors.Is(err, ErrNoEvaluation):
		return ClassConflict
	case errors.Is(err, ErrZeroRoot), errors.Is(err, ErrZeroExpected),
		errors.Is(err, ErrInvalidVerifier), errors.Is(err, ErrMalformedProof):
		return ClassInvalidInput
	case errors.Is(err, ErrProofMismatch):
		return ClassVerification
	case errors.Is(err, ErrNotAdmin):
		return ClassAuthorization
	default:
		return ClassUnknown
	}
}
