package workflow

import "fmt"

// The transition engine: every function here is pure over well-formed
// input. It takes a State by value, returns a new State, and touches
// nothing outside the RunContext it was handed.

// ApplyRequestWork opens a new step in waiting status. It fails with a
// DuplicateStepError if the ID is already present; step IDs are never
// reused within a run.
func ApplyRequestWork(s State, req RequestWork, rc *RunContext) (State, error) {
	if _, exists := s.Steps[req.StepID]; exists {
		return s, &DuplicateStepError{StepID: req.StepID}
	}

	now := rc.Now()
	steps := s.cloneSteps()
	steps[req.StepID] = StepRecord{
		Kind:      req.Kind,
		Status:    StepWaiting,
		Payload:   req.Payload,
		CreatedAt: now,
	}

	next := s
	next.Steps = steps
	next.Log = s.appendLog(LogEntry{
		Seq:     rc.Seq(),
		At:      now,
		Level:   LogInfo,
		Message: fmt.Sprintf("step requested (%s)", req.Kind),
		StepID:  req.StepID,
	})
	return next, nil
}

// MarkInProgress records that a waiting step has been handed to the
// executor. Dispatching a step that is not waiting is a contract
// violation.
func MarkInProgress(s State, stepID string, rc *RunContext) (State, error) {
	rec, ok := s.Steps[stepID]
	if !ok {
		return s, &UnknownStepError{StepID: stepID}
	}
	if rec.Status != StepWaiting {
		return s, fmt.Errorf("step %q cannot start from status %q", stepID, rec.Status)
	}

	rec.Status = StepInProgress
	steps := s.cloneSteps()
	steps[stepID] = rec

	next := s
	next.Steps = steps
	next.Log = s.appendLog(LogEntry{
		Seq:     rc.Seq(),
		At:      rc.Now(),
		Level:   LogInfo,
		Message: "step dispatched",
		StepID:  stepID,
	})
	return next, nil
}

// ApplyAgentResponse closes a step with the executor's outcome and merges
// any returned artifacts (last write wins on key collision).
//
// A response for a step already done or failed is deliberately a no-op
// that still appends a warning entry: a late or duplicate response must
// neither corrupt the ledger nor flip a terminal status.
func ApplyAgentResponse(s State, resp AgentResponse, rc *RunContext) (State, error) {
	rec, ok := s.Steps[resp.StepID]
	if !ok {
		return s, &UnknownStepError{StepID: resp.StepID}
	}

	if rec.Status.Terminal() {
		next := s
		next.Log = s.appendLog(LogEntry{
			Seq:     rc.Seq(),
			At:      rc.Now(),
			Level:   LogWarn,
			Message: fmt.Sprintf("response ignored: step already %s", rec.Status),
			StepID:  resp.StepID,
		})
		return next, nil
	}

	switch resp.Status {
	case ResponseOK:
		rec.Status = StepDone
	case ResponseFail:
		rec.Status = StepFailed
		rec.Failure = failureOf(resp.Err)
	default:
		return s, fmt.Errorf("malformed response for step %q: status %q", resp.StepID, resp.Status)
	}

	steps := s.cloneSteps()
	steps[resp.StepID] = rec

	arts := s.Artifacts
	if len(resp.Artifacts) > 0 {
		arts = s.cloneArtifacts()
		for k, v := range resp.Artifacts {
			arts[k] = v
		}
	}

	msg := fmt.Sprintf("step %s", rec.Status)
	level := LogInfo
	if rec.Status == StepFailed {
		level = LogWarn
		if resp.Err != nil {
			msg = fmt.Sprintf("step failed: %v", resp.Err)
		}
	}

	next := s
	next.Steps = steps
	next.Artifacts = arts
	next.Log = s.appendLog(LogEntry{
		Seq:     rc.Seq(),
		At:      rc.Now(),
		Level:   level,
		Message: msg,
		StepID:  resp.StepID,
	})
	return next, nil
}

// failureOf normalizes an executor error for the ledger. Untyped errors
// become provider errors so the specification always sees a kind and a
// retryability verdict, even from a sloppy executor.
func failureOf(err error) *AgentError {
	if err == nil {
		return nil
	}
	if ae, ok := AsAgentError(err); ok {
		return ae
	}
	return &AgentError{Kind: AgentProviderError, Message: err.Error()}
}

// ApplyAnnotate writes one artifact key/value pair. It never fails for
// well-formed input.
func ApplyAnnotate(s State, ann Annotate, rc *RunContext) State {
	arts := s.cloneArtifacts()
	arts[ann.Key] = ann.Value

	next := s
	next.Artifacts = arts
	next.Log = s.appendLog(LogEntry{
		Seq:     rc.Seq(),
		At:      rc.Now(),
		Level:   LogInfo,
		Message: fmt.Sprintf("artifact recorded: %s", ann.Key),
	})
	return next
}

// Finalize closes the run: failed if any step failed, completed otherwise.
// While any step remains open it is a no-op; the driver must not finalize
// prematurely, and the engine enforces that here rather than trusting it.
func Finalize(s State, rc *RunContext) State {
	if s.OpenSteps() {
		return s
	}

	status := StatusCompleted
	for _, rec := range s.Steps {
		if rec.Status == StepFailed {
			status = StatusFailed
			break
		}
	}

	next := s
	next.Status = status
	next.Log = s.appendLog(LogEntry{
		Seq:     rc.Seq(),
		At:      rc.Now(),
		Level:   LogInfo,
		Message: fmt.Sprintf("run finalized: %s", status),
	})
	return next
}

// Apply dispatches one action to its transition function. Unknown action
// types are a programmer error.
func Apply(s State, action Action, rc *RunContext) (State, error) {
	switch a := action.(type) {
	case RequestWork:
		return ApplyRequestWork(s, a, rc)
	case Annotate:
		return ApplyAnnotate(s, a, rc), nil
	default:
		return s, fmt.Errorf("unhandled action type %T", action)
	}
}
