package undo

import "fmt"

// CannotUndoError is returned when no undo is possible: the log is empty or
// the newest action is irreversible. The workspace is untouched and, when an
// action was examined, it stays at the top of the log.
type CannotUndoError struct {
	Reason string
	// Tool names the action that refused, empty when the log was empty.
	Tool string
}

func (e *CannotUndoError) Error() string {
	if e.Tool == "" {
		return fmt.Sprintf("cannot undo: %s", e.Reason)
	}
	return fmt.Sprintf("cannot undo %s: %s", e.Tool, e.Reason)
}

// UndoExecutionError is returned when the reverse operation itself failed.
// The action has been removed from the log and is flagged NeedsReview; the
// workspace may be in a mixed state and wants human eyes.
type UndoExecutionError struct {
	Tool   string
	Reason string
}

func (e *UndoExecutionError) Error() string {
	return fmt.Sprintf("undo of %s failed: %s", e.Tool, e.Reason)
}
