package workflow

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel kinds for contract violations. Both indicate a bug in the
// calling specification, not a runtime condition; they are never retried.
var (
	ErrDuplicateStep = errors.New("duplicate step")
	ErrUnknownStep   = errors.New("unknown step")
)

// DuplicateStepError reports a RequestWork action reusing an existing step ID.
type DuplicateStepError struct {
	StepID string
}

func (e *DuplicateStepError) Error() string {
	return fmt.Sprintf("duplicate step: %q already exists in this run", e.StepID)
}

func (e *DuplicateStepError) Unwrap() error { return ErrDuplicateStep }

// UnknownStepError reports a response addressed to a step never requested.
type UnknownStepError struct {
	StepID string
}

func (e *UnknownStepError) Error() string {
	return fmt.Sprintf("unknown step: %q was never requested in this run", e.StepID)
}

func (e *UnknownStepError) Unwrap() error { return ErrUnknownStep }

// AgentErrorKind is the closed set of executor failure categories.
type AgentErrorKind string

const (
	AgentRateLimit       AgentErrorKind = "rate_limit"
	AgentContextExceeded AgentErrorKind = "context_exceeded"
	AgentInvalidRequest  AgentErrorKind = "invalid_request"
	AgentProviderError   AgentErrorKind = "provider_error"
	AgentValidationError AgentErrorKind = "validation_error"
	AgentTimeout         AgentErrorKind = "timeout"
)

// AgentError is a typed executor failure. It travels through
// ApplyAgentResponse into the failed step's ledger entry; the retry
// decision belongs to the specification reading it from state, never to
// the engine.
type AgentError struct {
	Kind       AgentErrorKind
	Message    string
	Retryable  bool
	RetryAfter time.Duration
}

func (e *AgentError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// AsAgentError unwraps err to an *AgentError if one is in the chain.
func AsAgentError(err error) (*AgentError, bool) {
	var ae *AgentError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
