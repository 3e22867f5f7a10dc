// Package apperr models the engine's error taxonomy (spec §7): every
// condition the engine can hit is tagged with a Kind so callers can decide,
// without string matching, whether to retry, rotate an attacker, replace the
// candidate region, or abort the attack.
package apperr

import "fmt"

// Kind classifies an AppError the way spec.md §7 enumerates error kinds.
type Kind string

const (
	// KindRecoverableAttacker marks a placement or oracle failure tied to one
	// attacker identity: rotate and retry, counts as a consumed query.
	KindRecoverableAttacker Kind = "recoverable_attacker"
	// KindRecoverableRegion marks a set-op that emptied the candidate region:
	// replace it with the probe disk/ring and continue.
	KindRecoverableRegion Kind = "recoverable_region"
	// KindConvergence marks the MIN_REDUCTION guard tripping: stop normally.
	KindConvergence Kind = "convergence"
	// KindBudgetExhausted marks attack_queries reaching query_limit.
	KindBudgetExhausted Kind = "budget_exhausted"
	// KindFatal marks conditions that abort the attack outright.
	KindFatal Kind = "fatal"
)

// AppError is the engine's single error type, modeled on the teacher's
// AppError{Code, Message, Details} shape.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]interface{}
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s[%s]: %s", e.Kind, e.Code, e.Message)
}

// New builds an AppError of the given kind.
func New(kind Kind, code, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WithDetails attaches structured context and returns the same error.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// Is lets errors.Is match on Kind+Code rather than pointer identity, so a
// wrapped/detailed copy of a sentinel still compares equal.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

var (
	// ErrSearchAreaMissing: the KML search-area file could not be read (fatal).
	ErrSearchAreaMissing = New(KindFatal, "SEARCH_AREA_MISSING", "search area KML could not be read")
	// ErrNoRadii: DUDP attack called with an empty disk-radius list (fatal).
	ErrNoRadii = New(KindFatal, "NO_RADII_CONFIGURED", "no disk radii configured for coverage")
	// ErrNoRoundingClasses: RUDP attack called with an empty class list (fatal).
	ErrNoRoundingClasses = New(KindFatal, "NO_ROUNDING_CLASSES", "no rounding classes configured for trilateration")
	// ErrAttackerPoolExhausted: rotation exceeded the configured restart cap (fatal).
	ErrAttackerPoolExhausted = New(KindFatal, "ATTACKER_POOL_EXHAUSTED", "attacker pool restart cap exceeded")
	// ErrHostUnknown: a host primitive returned an untagged/unknown error (fatal).
	ErrHostUnknown = New(KindFatal, "HOST_UNKNOWN_ERROR", "host primitive returned an unrecognized error")
	// ErrCoverageExhausted: every coverage vertex answered FALSE (caller aborts).
	ErrCoverageExhausted = New(KindFatal, "COVERAGE_EXHAUSTED", "no coverage vertex fell within the oracle's disk")
	// ErrNoClassMatch: a disclosed distance matched no configured rounding class (fatal).
	ErrNoClassMatch = New(KindFatal, "NO_CLASS_MATCH", "disclosed distance matched no rounding class")

	// ErrHostRecoverable: a host primitive failed with a tagged recoverable error.
	ErrHostRecoverable = New(KindRecoverableAttacker, "HOST_RECOVERABLE_ERROR", "host primitive reported a recoverable error")
	// ErrOracleRetriesExhausted: oracle returned None/unknown oracle_retry_limit times in a row.
	ErrOracleRetriesExhausted = New(KindRecoverableAttacker, "ORACLE_RETRIES_EXHAUSTED", "oracle retry limit exhausted for this attacker")

	// ErrRegionEmptied: a polygon set-op emptied the candidate region.
	ErrRegionEmptied = New(KindRecoverableRegion, "REGION_EMPTIED", "set operation produced an empty candidate region")

	// ErrConvergence: the MIN_REDUCTION guard tripped, terminating bisection normally.
	ErrConvergence = New(KindConvergence, "CONVERGENCE", "candidate area reduction fell below MIN_REDUCTION")
	// ErrBudgetExhausted: attack_queries reached the configured query limit.
	ErrBudgetExhausted = New(KindBudgetExhausted, "BUDGET_EXHAUSTED", "attack query budget exhausted before convergence")
)

// AsAppError returns err as an *AppError, wrapping it as KindFatal under
// fallbackCode if it isn't already one. Lets callers dispatch on Kind
// without caring whether the error originated inside this module.
func AsAppError(err error, fallbackCode string) *AppError {
	if ae, ok := err.(*AppError); ok {
		return ae
	}
	return New(KindFatal, fallbackCode, err.Error())
}
