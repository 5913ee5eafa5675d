// Package planner turns the session goal plus workspace state into the next
// single action. Backends wrap model APIs; the agent loop stays backend
// agnostic.
package planner

import (
	"context"

	"google.golang.org/genai"
)

// StateSnapshot is what the loop perceives about the workspace before each
// planning call.
type StateSnapshot struct {
	WorkDir   string
	GitBranch string
	GitStatus string
	// ChangedFiles lists paths the filesystem watcher saw change since the
	// previous iteration.
	ChangedFiles []string
}

// ActionSummary is one action-memory entry rendered for the planner.
type ActionSummary struct {
	Tool    string
	Success bool
	Message string
}

// Step is one planned action: a tool invocation with arguments.
type Step struct {
	Tool      string
	Args      map[string]any
	Rationale string
}

// StepRecord is a step already taken this turn together with its outcome.
type StepRecord struct {
	Step    Step
	Success bool
	Output  string
}

// Request carries everything a backend needs to decide the next step. The
// planner is stateless; the loop resubmits the full turn context each call.
type Request struct {
	Goal   string
	State  StateSnapshot
	Recent []ActionSummary
	Steps  []StepRecord
	Tools  []*genai.FunctionDeclaration
}

// Result is the planner's decision: either the next Step, or a final Message
// when the goal is complete (Step is nil).
type Result struct {
	Step    *Step
	Message string
}

// Done reports whether the planner considers the goal complete.
func (r *Result) Done() bool {
	return r.Step == nil
}

// Planner decides one step at a time.
type Planner interface {
	// NextStep returns the next action or a final message. Errors are
	// ErrUnavailable (wrapped) for backend trouble and
	// *MalformedOutputError for uninterpretable output.
	NextStep(ctx context.Context, req Request) (*Result, error)

	// Name identifies the backend in logs and status output.
	Name() string

	Close() error
}
