package agent

import (
	"context"
	"errors"
	"fmt"

	"gofer/internal/git"
	"gofer/internal/history"
	"gofer/internal/logging"
	"gofer/internal/planner"
	"gofer/internal/tools"
)

// HandleRequest runs one user turn: iterate perceive/reason/act/record until
// the planner declares completion, a step fails, the iteration bound is hit,
// or ctx is cancelled. It returns the planner's final message on success.
//
// Exactly one action executes per iteration, and the planner sees its outcome
// before the next one is chosen. A failed step aborts the rest of the plan:
// nothing is rolled back automatically, the failure is recorded, and the
// caller decides what to do next.
func (s *Session) HandleRequest(ctx context.Context, goal string) (string, error) {
	var steps []planner.StepRecord

	defer s.sink.OnStateChange(StateIdle)

	for iteration := 0; iteration < s.maxIterations; iteration++ {
		// Interrupts are honored between dispatches, never mid-action.
		if err := ctx.Err(); err != nil {
			return "", err
		}

		s.sink.OnStateChange(StatePerceiving)
		state := s.perceive()

		s.sink.OnStateChange(StateReasoning)
		result, err := s.planner.NextStep(ctx, planner.Request{
			Goal:   goal,
			State:  state,
			Recent: s.recentSummaries(),
			Steps:  steps,
			Tools:  s.registry.Declarations(),
		})
		if err != nil {
			// Planner trouble leaves no trace in the action log: no
			// action was attempted.
			return "", err
		}

		if result.Done() {
			s.sink.OnMessage(result.Message)
			return result.Message, nil
		}

		step := *result.Step
		s.sink.OnStep(step.Tool, step.Rationale)
		s.sink.OnStateChange(StateActing)

		logging.Info("dispatching step",
			"iteration", iteration+1,
			"tool", step.Tool)

		outcome, action := s.dispatchAndRecord(ctx, step)
		s.sink.OnActionDone(step.Tool, outcome.Success, outcome.Message)
		logging.Debug("recorded action", "id", action.ID, "tool", action.Tool, "success", action.Success)

		if !outcome.Success {
			return "", &PlanAbortedError{
				Tool:   step.Tool,
				Step:   iteration + 1,
				Reason: outcome.Message,
			}
		}

		steps = append(steps, planner.StepRecord{
			Step:    step,
			Success: true,
			Output:  outcomeForPlanner(outcome),
		})
	}

	return "", fmt.Errorf("%w after %d steps", ErrMaxIterations, s.maxIterations)
}

// dispatchAndRecord runs one step through the registry and records it in the
// action log. Dispatches that never reach tool code (unknown tool, invalid
// parameters) are recorded too: memory reflects what was attempted.
func (s *Session) dispatchAndRecord(ctx context.Context, step planner.Step) (tools.Outcome, *history.Action) {
	outcome, err := s.registry.Dispatch(ctx, step.Tool, step.Args)
	if err != nil {
		var invalidErr *tools.InvalidParametersError
		switch {
		case errors.Is(err, tools.ErrUnknownTool):
			outcome = tools.FailureOutcome(err.Error())
		case errors.As(err, &invalidErr):
			outcome = tools.FailureOutcome(err.Error())
		default:
			outcome = tools.FailureOutcome(fmt.Sprintf("dispatch failed: %v", err))
		}
	}

	s.sink.OnStateChange(StateRecording)

	// An action without a reverse payload cannot be undone no matter what
	// its tool declares; record it as irreversible so memory never claims
	// otherwise.
	class := s.registry.Reversibility(step.Tool)
	if outcome.Reverse == nil {
		class = tools.Irreversible
	}

	action := s.log.Record(step.Tool, step.Args, outcome, class)
	if outcome.Success {
		s.needsReview.Store(false)
	}
	return outcome, action
}

// perceive assembles the workspace snapshot for the planner.
func (s *Session) perceive() planner.StateSnapshot {
	snapshot := planner.StateSnapshot{WorkDir: s.workDir}

	g := git.TakeSnapshot(s.workDir)
	if g.IsRepo {
		snapshot.GitBranch = g.Branch
		snapshot.GitStatus = g.Status
	}

	if s.watcher != nil {
		snapshot.ChangedFiles = s.watcher.TakeChanged()
	}
	return snapshot
}

func (s *Session) recentSummaries() []planner.ActionSummary {
	recent := s.log.Recent(s.historyWindow)
	summaries := make([]planner.ActionSummary, len(recent))
	for i, a := range recent {
		summaries[i] = planner.ActionSummary{
			Tool:    a.Tool,
			Success: a.Success,
			Message: a.Message,
		}
	}
	return summaries
}

// outcomeForPlanner picks what the planner should read back: content when the
// tool produced some, the status message otherwise.
func outcomeForPlanner(outcome tools.Outcome) string {
	if outcome.Content != "" {
		return outcome.Content
	}
	return outcome.Message
}
