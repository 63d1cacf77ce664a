package recommender

import (
	"fmt"

	"go.uber.org/zap"
)

// State is a step of a single recommendation request.
type State string

const (
	StateAttemptAI     State = "attempt_ai"
	StateAISucceeded   State = "ai_succeeded"
	StateAIFailed      State = "ai_failed"
	StateLocalFallback State = "local_fallback"
)

type transition struct {
	From State
	To   State
}

// attempt_ai -> ai_succeeded | ai_failed -> local_fallback
var allowedTransitions = map[transition]bool{
	{StateAttemptAI, StateAISucceeded}:  true,
	{StateAttemptAI, StateAIFailed}:     true,
	{StateAIFailed, StateLocalFallback}: true,
}

// InvalidTransitionError reports a state change outside the allowed table.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid recommendation state transition: %s -> %s", e.From, e.To)
}

func canTransition(from, to State) bool {
	if from == to {
		return false
	}
	return allowedTransitions[transition{From: from, To: to}]
}

// requestState tracks one request. It is never shared between requests.
type requestState struct {
	current State
	logger  *zap.Logger
}

func newRequestState(logger *zap.Logger) *requestState {
	return &requestState{current: StateAttemptAI, logger: logger}
}

func (s *requestState) transition(to State, fields ...zap.Field) error {
	if !canTransition(s.current, to) {
		err := &InvalidTransitionError{From: s.current, To: to}
		s.logger.Error("state transition rejected", zap.Error(err))
		return err
	}

	s.logger.Debug("state transition",
		append([]zap.Field{
			zap.String("from", string(s.current)),
			zap.String("to", string(to)),
		}, fields...)...,
	)
	s.current = to
	return nil
}

func (s *requestState) State() State {
	return s.current
}
