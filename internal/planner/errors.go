package planner

import (
	"errors"
	"fmt"
)

// ErrUnavailable indicates the backend could not be reached or kept failing
// after retries. The loop surfaces it without recording an action.
var ErrUnavailable = errors.New("planner unavailable")

// MalformedOutputError indicates the backend answered but produced nothing
// interpretable as a step or a final message.
type MalformedOutputError struct {
	Raw    string
	Reason string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed planner output: %s", e.Reason)
}
