package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNormalization signals a per-field normalization failure. Recoverable:
	// the field is dropped from the record and ingestion continues.
	ErrNormalization = errors.New("normalization failed")
	// ErrTranslation signals a rejected filter constraint set.
	ErrTranslation = errors.New("filter translation failed")
	// ErrPlanning signals an unrecoverable query planning failure.
	ErrPlanning = errors.New("planning failed")
	// ErrRetrieval signals a vector index failure that survived the retry.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrGeneration signals an answer generation failure.
	ErrGeneration = errors.New("generation failed")

	// ErrNotFound signals a lookup for a record that is not indexed.
	ErrNotFound = errors.New("not found")
	// ErrProviderUnavailable signals a model provider transport failure.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrRunFinished signals a transition attempted on a terminal run.
	ErrRunFinished = errors.New("run already finished")
)

// NormalizationError wraps ErrNormalization with the offending field name.
type NormalizationError struct {
	Field string
	Err   error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("%s: field %q: %v", ErrNormalization.Error(), e.Field, e.Err)
}

func (e *NormalizationError) Unwrap() error { return ErrNormalization }

// NewNormalizationError creates a per-field normalization error.
func NewNormalizationError(field string, err error) error {
	return &NormalizationError{Field: field, Err: err}
}

// UnsupportedOperatorError wraps ErrTranslation when an operator is illegal
// for the declared type of the attribute it targets.
type UnsupportedOperatorError struct {
	Attribute string
	Operator  string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("%s: operator %q not supported on attribute %q",
		ErrTranslation.Error(), e.Operator, e.Attribute)
}

func (e *UnsupportedOperatorError) Unwrap() error { return ErrTranslation }

// StepError carries the orchestration step that failed along with its cause.
// The sentinel is one of ErrPlanning, ErrRetrieval, ErrGeneration.
type StepError struct {
	Step     string
	Sentinel error
	Cause    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %s: %v", e.Step, e.Sentinel.Error(), e.Cause)
}

func (e *StepError) Unwrap() error { return e.Sentinel }

// NewStepError creates a step failure error.
func NewStepError(step string, sentinel, cause error) error {
	return &StepError{Step: step, Sentinel: sentinel, Cause: cause}
}
