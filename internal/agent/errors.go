package agent

import (
	"errors"
	"fmt"
)

// ErrMaxIterations means the turn hit its iteration bound before the planner
// declared completion. Everything executed so far stays recorded.
var ErrMaxIterations = errors.New("iteration limit reached")

// PlanAbortedError means a step failed and the rest of the plan was dropped.
// The loop never runs later steps after a failure; the planner must see the
// failure and re-plan on the next user request.
type PlanAbortedError struct {
	Tool   string
	Step   int
	Reason string
}

func (e *PlanAbortedError) Error() string {
	return fmt.Sprintf("plan aborted at step %d (%s): %s", e.Step, e.Tool, e.Reason)
}
