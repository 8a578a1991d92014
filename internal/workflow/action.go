package workflow

// Action is one declarative instruction produced by a specification. The
// set is closed within this package (isAction is unexported) but new
// variants can be added here without touching the driver loop: the engine
// dispatches on the concrete type.
type Action interface {
	isAction()
}

// RequestWork asks the engine to open a new step. StepID must be unique
// within the run; reuse is a specification bug surfaced as
// DuplicateStepError.
type RequestWork struct {
	StepID  string
	Kind    string
	Payload any
}

func (RequestWork) isAction() {}

// Annotate records one artifact key/value pair on the ledger.
type Annotate struct {
	Key   string
	Value any
}

func (Annotate) isAction() {}

// Decision is one specification output: an ordered action list plus a
// finalize flag. Actions are applied strictly in list order; this is the
// one place ordering is caller-controlled rather than engine-controlled.
type Decision struct {
	// DecisionID must come from RunContext.NextDecisionID so replayed runs
	// reproduce it.
	DecisionID string
	// BasedOn references the step or run event that prompted this decision,
	// for causal verification during replay.
	BasedOn  string
	Actions  []Action
	Finalize bool
}

// ResponseStatus is the outcome an executor reports for one step.
type ResponseStatus string

const (
	ResponseOK   ResponseStatus = "ok"
	ResponseFail ResponseStatus = "fail"
)

// AgentResponse is the executor's answer for one dispatched step. Artifacts
// are merged into the ledger last-write-wins. Err is set only for FAIL
// responses and is typically an *AgentError.
type AgentResponse struct {
	StepID    string
	Status    ResponseStatus
	Artifacts map[string]any
	Err       error
}
