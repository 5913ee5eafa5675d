// Package undo reverses recorded actions in strict reverse-chronological
// order. Reverse operations are ordinary tools dispatched through the same
// registry the forward actions used.
package undo

import (
	"context"
	"sync"

	"gofer/internal/history"
	"gofer/internal/logging"
	"gofer/internal/tools"
)

// Manager owns the undo side of the action log. It is the only component
// allowed to remove entries from the log.
type Manager struct {
	log      *history.Log
	registry *tools.Registry
	mu       sync.Mutex
}

// NewManager creates an undo Manager over the given log and registry.
func NewManager(log *history.Log, registry *tools.Registry) *Manager {
	return &Manager{
		log:      log,
		registry: registry,
	}
}

// UndoLast reverses the most recent action.
//
// On success the action is removed from the log and returned. A
// *CannotUndoError means nothing changed: either the log was empty, or the
// newest action is irreversible and was pushed back. A *UndoExecutionError
// means the reverse operation ran and failed: the action is NOT pushed back,
// it is returned flagged NeedsReview, and the workspace may be mixed.
func (m *Manager) UndoLast(ctx context.Context) (*history.Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	action, ok := m.log.PopLast()
	if !ok {
		return nil, &CannotUndoError{Reason: "no actions recorded"}
	}

	if !action.CanUndo() {
		// Leave the log exactly as it was.
		m.log.PushBack(action)
		return action, &CannotUndoError{
			Tool:   action.Tool,
			Reason: refusalReason(action),
		}
	}

	logging.Info("undoing action",
		"id", action.ID,
		"tool", action.Tool,
		"reverse_tool", action.Reverse.Tool)

	outcome, err := m.registry.Dispatch(ctx, action.Reverse.Tool, action.Reverse.Args)
	if err != nil {
		action.NeedsReview = true
		return action, &UndoExecutionError{Tool: action.Tool, Reason: err.Error()}
	}
	if !outcome.Success {
		action.NeedsReview = true
		return action, &UndoExecutionError{Tool: action.Tool, Reason: outcome.Message}
	}

	return action, nil
}

// CanUndo reports whether the newest recorded action is undoable.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	last, ok := m.log.Last()
	return ok && last.CanUndo()
}

func refusalReason(action *history.Action) string {
	switch {
	case !action.Success:
		return "action did not succeed, nothing to reverse"
	case action.Reverse == nil:
		return "no reverse payload was captured"
	default:
		return "action is " + action.Reversibility.String()
	}
}
