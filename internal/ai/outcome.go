package ai

import (
	"errors"
	"fmt"

	"github.com/spigell/toolmatch/internal/matching"
)

var (
	// ErrServiceUnavailable reports that the interpreter could not be reached or did not answer in time.
	ErrServiceUnavailable = errors.New("interpreter service unavailable")
	// ErrMalformedResponse reports that the interpreter answered with something that is not valid criteria.
	ErrMalformedResponse = errors.New("malformed interpreter response")
)

type FailureKind string

const (
	FailureServiceUnavailable FailureKind = "service_unavailable"
	FailureMalformedResponse  FailureKind = "malformed_response"
)

// Failure describes why an interpretation did not produce criteria.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

// Unwrap exposes both the kind sentinel and the underlying cause to errors.Is.
func (f *Failure) Unwrap() []error {
	sentinel := ErrServiceUnavailable
	if f.Kind == FailureMalformedResponse {
		sentinel = ErrMalformedResponse
	}
	if f.Err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, f.Err}
}

func serviceUnavailable(err error) *Failure {
	return &Failure{Kind: FailureServiceUnavailable, Err: err}
}

func malformed(format string, args ...any) *Failure {
	return &Failure{Kind: FailureMalformedResponse, Err: fmt.Errorf(format, args...)}
}

// Criteria is a successful interpretation of a query.
type Criteria struct {
	UseCases         []string
	ExcludeTools     []string
	RequiredFeatures []string
	Constraints      matching.Constraints
	Reasoning        string
}

// Outcome holds exactly one of Criteria or Failure.
type Outcome struct {
	Criteria *Criteria
	Failure  *Failure
}

func (o Outcome) OK() bool {
	return o.Failure == nil && o.Criteria != nil
}

// Err returns the failure as an error, or nil on success.
func (o Outcome) Err() error {
	if o.Failure == nil {
		return nil
	}
	return o.Failure
}
