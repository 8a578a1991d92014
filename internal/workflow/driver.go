package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/vk/forgegrid/internal/ctxlog"
)

// Specification is the pluggable decision policy. Given the current ledger
// and the most recently applied response (nil on the first iteration), it
// returns the next decision. Retry policy lives here: the driver never
// retries anything on its own.
type Specification interface {
	Decide(ctx context.Context, s State, last *AgentResponse, rc *RunContext) (Decision, error)
}

// Executor performs the actual work for one dispatched step. It must
// return exactly one response per call; an infrastructure failure is
// reported as a FAIL response carrying an *AgentError, never swallowed.
type Executor interface {
	Execute(ctx context.Context, stepID string, rec StepRecord) AgentResponse
}

// Outcome is the driver's verdict for a run.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeStalled means the iteration budget ran out before the
	// specification finalized: distinct from logical failure so callers can
	// tell a runaway loop from a failed goal.
	OutcomeStalled Outcome = "stalled"
)

// Driver runs the decide, apply, dispatch, observe loop for one goal.
type Driver struct {
	spec          Specification
	exec          Executor
	maxIterations int
}

// DefaultMaxIterations bounds a run when the caller does not.
const DefaultMaxIterations = 50

// NewDriver wires a driver from its collaborators. maxIterations <= 0
// selects the default budget.
func NewDriver(spec Specification, exec Executor, maxIterations int) (*Driver, error) {
	if spec == nil {
		return nil, fmt.Errorf("nil specification")
	}
	if exec == nil {
		return nil, fmt.Errorf("nil executor")
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Driver{spec: spec, exec: exec, maxIterations: maxIterations}, nil
}

// Run drives the goal to a terminal outcome and returns the final ledger.
//
// Each iteration applies one decision's actions in list order, dispatches
// every waiting step concurrently, then blocks until all of them have
// responded before the next iteration begins. That barrier is deliberate
// and is the opposite of the build scheduler's first-completion reaping:
// a specification reasons about complete iterations, not partial ones.
func (d *Driver) Run(ctx context.Context, goalID string, rc *RunContext) (State, Outcome, error) {
	logger := ctxlog.FromContext(ctx).With("goalID", goalID)
	state := NewState(goalID)

	var last *AgentResponse
	for iter := 0; iter < d.maxIterations; iter++ {
		if ctx.Err() != nil {
			logger.Warn("Run cancelled before iteration.", "iteration", iter)
			state.Status = StatusCancelled
			return state, OutcomeCancelled, nil
		}

		decision, err := d.spec.Decide(ctx, state, last, rc)
		if err != nil {
			return state, OutcomeFailed, fmt.Errorf("specification failed at iteration %d: %w", iter, err)
		}
		logger.Debug("Decision received.",
			"iteration", iter,
			"decisionID", decision.DecisionID,
			"actions", len(decision.Actions),
			"finalize", decision.Finalize,
		)

		for _, action := range decision.Actions {
			state, err = Apply(state, action, rc)
			if err != nil {
				return state, OutcomeFailed, fmt.Errorf("applying decision %s: %w", decision.DecisionID, err)
			}
		}

		waiting := state.StepsWithStatus(StepWaiting)
		if len(waiting) > 0 && ctx.Err() == nil {
			var responses []AgentResponse
			state, responses, err = d.dispatch(ctx, state, waiting, rc, logger)
			if err != nil {
				return state, OutcomeFailed, err
			}
			// Hand the specification the last response in deterministic
			// (step ID) order, Err and Artifacts intact; the full set is
			// visible through state anyway.
			resp := responses[len(responses)-1]
			last = &resp
		}

		if decision.Finalize {
			state = Finalize(state, rc)
			switch {
			case state.Status == StatusFailed:
				return state, OutcomeFailed, nil
			case state.Status.Terminal():
				return state, OutcomeCompleted, nil
			case ctx.Err() != nil:
				// Cancellation landed during Decide, so the requested steps
				// were never dispatched and Finalize refused to close the run.
				logger.Warn("Run cancelled with steps still open.", "iteration", iter)
				state.Status = StatusCancelled
				return state, OutcomeCancelled, nil
			default:
				logger.Warn("Finalize refused: steps still open.", "iteration", iter)
				return state, OutcomeStalled, nil
			}
		}
	}

	logger.Warn("Iteration budget exhausted without finalize.", "budget", d.maxIterations)
	return state, OutcomeStalled, nil
}

// dispatch runs every waiting step concurrently and applies all responses
// before returning (barrier semantics). Responses are applied, and
// returned, in step ID order so the resulting ledger is identical across
// runs regardless of goroutine completion order.
func (d *Driver) dispatch(ctx context.Context, state State, waiting []string, rc *RunContext, logger *slog.Logger) (State, []AgentResponse, error) {
	var err error
	for _, id := range waiting {
		state, err = MarkInProgress(state, id, rc)
		if err != nil {
			return state, nil, err
		}
	}

	responses := make([]AgentResponse, len(waiting))
	var wg sync.WaitGroup
	for i, id := range waiting {
		wg.Add(1)
		go func(i int, id string, rec StepRecord) {
			defer wg.Done()
			responses[i] = d.exec.Execute(ctx, id, rec)
			responses[i].StepID = id
		}(i, id, state.Steps[id])
	}
	wg.Wait()

	sort.Slice(responses, func(i, j int) bool { return responses[i].StepID < responses[j].StepID })
	for _, resp := range responses {
		logger.Debug("Applying step response.", "stepID", resp.StepID, "status", resp.Status)
		state, err = ApplyAgentResponse(state, resp, rc)
		if err != nil {
			return state, nil, err
		}
	}
	return state, responses, nil
}
