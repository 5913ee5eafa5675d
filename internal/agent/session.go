// Package agent runs the control loop: perceive the workspace, ask the
// planner for one step, dispatch it, record it, repeat until the planner
// declares the goal complete or something stops the turn.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"gofer/internal/config"
	"gofer/internal/history"
	"gofer/internal/planner"
	"gofer/internal/tools"
	"gofer/internal/undo"
	"gofer/internal/watcher"
)

// Session wires the loop's collaborators for one working directory.
type Session struct {
	workDir  string
	registry *tools.Registry
	log      *history.Log
	undoer   *undo.Manager
	planner  planner.Planner
	watcher  *watcher.Watcher
	sink     EventSink

	maxIterations int
	historyWindow int

	// needsReview is set when a reverse operation ran and failed, and
	// stays set until the next successful action.
	needsReview atomic.Bool
}

// Option configures a Session.
type Option func(*Session)

// WithSink sets the event sink. Default is NopSink.
func WithSink(sink EventSink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithWatcher attaches a filesystem watcher for change perception.
func WithWatcher(w *watcher.Watcher) Option {
	return func(s *Session) { s.watcher = w }
}

// NewSession creates a Session over an existing registry, log and planner.
func NewSession(workDir string, cfg *config.Config, registry *tools.Registry, log *history.Log, p planner.Planner, opts ...Option) (*Session, error) {
	if registry == nil || log == nil || p == nil {
		return nil, fmt.Errorf("registry, log and planner are required")
	}

	maxIterations := 10
	historyWindow := 20
	if cfg != nil {
		if cfg.Session.MaxIterations > 0 {
			maxIterations = cfg.Session.MaxIterations
		}
		if cfg.Session.HistoryWindow > 0 {
			historyWindow = cfg.Session.HistoryWindow
		}
	}

	s := &Session{
		workDir:       workDir,
		registry:      registry,
		log:           log,
		undoer:        undo.NewManager(log, registry),
		planner:       p,
		sink:          NopSink{},
		maxIterations: maxIterations,
		historyWindow: historyWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Registry exposes the tool registry, for status displays.
func (s *Session) Registry() *tools.Registry {
	return s.registry
}

// Status is a point-in-time summary of the session.
type Status struct {
	WorkDir string
	Planner string
	// Actions counts the entries currently in the action log.
	Actions int
	CanUndo bool
	// NeedsReview reports that a failed undo may have left the workspace
	// partially reverted; it clears on the next successful action.
	NeedsReview bool
}

// Status reports where the session works, which planner backend it talks to,
// how many actions it holds, and whether the workspace awaits manual review.
func (s *Session) Status() Status {
	return Status{
		WorkDir:     s.workDir,
		Planner:     s.planner.Name(),
		Actions:     s.log.Len(),
		CanUndo:     s.undoer.CanUndo(),
		NeedsReview: s.needsReview.Load(),
	}
}

// History returns the n most recent actions, newest first.
func (s *Session) History(n int) []*history.Action {
	return s.log.Recent(n)
}

// UndoLast reverses the most recent recorded action. A reverse operation that
// ran and failed flags the session for manual review.
func (s *Session) UndoLast(ctx context.Context) (*history.Action, error) {
	action, err := s.undoer.UndoLast(ctx)
	var execErr *undo.UndoExecutionError
	if errors.As(err, &execErr) {
		s.needsReview.Store(true)
	}
	return action, err
}

// CanUndo reports whether the newest action is undoable.
func (s *Session) CanUndo() bool {
	return s.undoer.CanUndo()
}

// Close flushes the action log and releases the planner.
func (s *Session) Close() error {
	if s.watcher != nil {
		_ = s.watcher.Stop()
	}
	s.log.Flush()
	return s.planner.Close()
}
