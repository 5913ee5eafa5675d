package agent

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"

	"gofer/internal/history"
	"gofer/internal/planner"
	"gofer/internal/tools"
	"gofer/internal/undo"
)

// scriptedPlanner returns a fixed sequence of results and records every
// request it sees.
type scriptedPlanner struct {
	results  []*planner.Result
	err      error
	calls    int
	requests []planner.Request
}

func (p *scriptedPlanner) NextStep(_ context.Context, req planner.Request) (*planner.Result, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	if p.calls >= len(p.results) {
		return &planner.Result{Message: "done"}, nil
	}
	result := p.results[p.calls]
	p.calls++
	return result, nil
}

func (p *scriptedPlanner) Name() string { return "scripted" }
func (p *scriptedPlanner) Close() error { return nil }

// scriptedTool succeeds or fails per call, in order. The zero class is
// irreversible.
type scriptedTool struct {
	name     string
	class    tools.Reversibility
	outcomes []tools.Outcome
	calls    int
}

func (s *scriptedTool) Name() string                       { return s.name }
func (s *scriptedTool) Description() string                { return "scripted tool" }
func (s *scriptedTool) Reversibility() tools.Reversibility { return s.class }
func (s *scriptedTool) Validate(map[string]any) error      { return nil }

func (s *scriptedTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{Name: s.name, Description: "scripted tool"}
}

func (s *scriptedTool) Execute(context.Context, map[string]any) (tools.Outcome, error) {
	if s.calls >= len(s.outcomes) {
		return tools.SuccessOutcome("ok"), nil
	}
	outcome := s.outcomes[s.calls]
	s.calls++
	return outcome, nil
}

func stepResult(tool string) *planner.Result {
	return &planner.Result{Step: &planner.Step{Tool: tool, Args: map[string]any{}}}
}

func newTestSession(t *testing.T, p planner.Planner, toolSet ...tools.Tool) (*Session, *history.Log) {
	t.Helper()
	registry := tools.NewRegistry()
	for _, tool := range toolSet {
		if err := registry.Register(tool); err != nil {
			t.Fatalf("failed to register %s: %v", tool.Name(), err)
		}
	}
	log := history.NewLog()
	s, err := NewSession(t.TempDir(), nil, registry, log, p)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	return s, log
}

func TestHandleRequest_RunsPlanToCompletion(t *testing.T) {
	p := &scriptedPlanner{results: []*planner.Result{
		stepResult("probe"),
		stepResult("probe"),
		{Message: "both steps finished"},
	}}
	s, log := newTestSession(t, p, &scriptedTool{name: "probe"})

	message, err := s.HandleRequest(context.Background(), "do the thing")
	if err != nil {
		t.Fatalf("HandleRequest failed: %v", err)
	}
	if message != "both steps finished" {
		t.Errorf("final message = %q", message)
	}
	if log.Len() != 2 {
		t.Errorf("recorded %d actions, want 2", log.Len())
	}
}

func TestHandleRequest_FailedStepAbortsPlan(t *testing.T) {
	p := &scriptedPlanner{results: []*planner.Result{
		stepResult("flaky"),
		stepResult("flaky"),
		stepResult("flaky"),
	}}
	tool := &scriptedTool{name: "flaky", outcomes: []tools.Outcome{
		tools.SuccessOutcome("ok"),
		tools.FailureOutcome("step two broke"),
		tools.SuccessOutcome("never reached"),
	}}
	s, log := newTestSession(t, p, tool)

	_, err := s.HandleRequest(context.Background(), "goal")
	var aborted *PlanAbortedError
	if !errors.As(err, &aborted) {
		t.Fatalf("expected PlanAbortedError, got %v", err)
	}
	if aborted.Step != 2 {
		t.Errorf("aborted at step %d, want 2", aborted.Step)
	}
	if tool.calls != 2 {
		t.Errorf("tool executed %d times, want 2: later steps must not run", tool.calls)
	}
	if log.Len() != 2 {
		t.Errorf("recorded %d actions, want 2: the failure itself is recorded", log.Len())
	}
	last, _ := log.Last()
	if last.Success {
		t.Error("final recorded action should be the failure")
	}
}

func TestHandleRequest_UnknownToolIsRecordedAndAborts(t *testing.T) {
	p := &scriptedPlanner{results: []*planner.Result{stepResult("no_such_tool")}}
	s, log := newTestSession(t, p)

	_, err := s.HandleRequest(context.Background(), "goal")
	var aborted *PlanAbortedError
	if !errors.As(err, &aborted) {
		t.Fatalf("expected PlanAbortedError, got %v", err)
	}
	if log.Len() != 1 {
		t.Fatalf("unknown tool dispatch must be recorded, Len = %d", log.Len())
	}
	last, _ := log.Last()
	if last.Success {
		t.Error("unknown tool dispatch must be recorded as failed")
	}
}

func TestHandleRequest_PlannerErrorLeavesNoTrace(t *testing.T) {
	p := &scriptedPlanner{err: planner.ErrUnavailable}
	s, log := newTestSession(t, p)

	_, err := s.HandleRequest(context.Background(), "goal")
	if !errors.Is(err, planner.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if log.Len() != 0 {
		t.Errorf("planner failure must not be recorded as an action, Len = %d", log.Len())
	}
}

func TestHandleRequest_IterationBound(t *testing.T) {
	// Planner that never declares completion.
	results := make([]*planner.Result, 50)
	for i := range results {
		results[i] = stepResult("probe")
	}
	p := &scriptedPlanner{results: results}

	registry := tools.NewRegistry()
	if err := registry.Register(&scriptedTool{name: "probe"}); err != nil {
		t.Fatalf("failed to register tool: %v", err)
	}
	log := history.NewLog()
	s, err := NewSession(t.TempDir(), nil, registry, log, p)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	_, err = s.HandleRequest(context.Background(), "goal")
	if !errors.Is(err, ErrMaxIterations) {
		t.Fatalf("expected ErrMaxIterations, got %v", err)
	}
	if log.Len() != 10 {
		t.Errorf("recorded %d actions, want the default bound of 10", log.Len())
	}
}

func TestHandleRequest_CancelledContextStopsBeforeDispatch(t *testing.T) {
	p := &scriptedPlanner{results: []*planner.Result{stepResult("probe")}}
	tool := &scriptedTool{name: "probe"}
	s, log := newTestSession(t, p, tool)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.HandleRequest(ctx, "goal")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if tool.calls != 0 {
		t.Error("no tool may run after cancellation")
	}
	if log.Len() != 0 {
		t.Error("no action may be recorded after cancellation")
	}
}

func TestHandleRequest_PlannerSeesPriorStepOutputs(t *testing.T) {
	p := &scriptedPlanner{results: []*planner.Result{
		stepResult("probe"),
		{Message: "done"},
	}}
	s, _ := newTestSession(t, p, &scriptedTool{
		name:     "probe",
		outcomes: []tools.Outcome{{Success: true, Message: "ok", Content: "probe output"}},
	})

	if _, err := s.HandleRequest(context.Background(), "goal"); err != nil {
		t.Fatalf("HandleRequest failed: %v", err)
	}

	if len(p.requests) != 2 {
		t.Fatalf("planner called %d times, want 2", len(p.requests))
	}
	second := p.requests[1]
	if len(second.Steps) != 1 {
		t.Fatalf("second request carries %d steps, want 1", len(second.Steps))
	}
	if second.Steps[0].Output != "probe output" {
		t.Errorf("step output = %q, want tool content", second.Steps[0].Output)
	}
	if second.Goal != "goal" {
		t.Errorf("goal not carried across iterations: %q", second.Goal)
	}
}

func TestSession_Status(t *testing.T) {
	p := &scriptedPlanner{results: []*planner.Result{
		stepResult("probe"),
		{Message: "done"},
	}}
	s, _ := newTestSession(t, p, &scriptedTool{name: "probe"})

	st := s.Status()
	if st.Planner != "scripted" {
		t.Errorf("planner = %q, want the backend name", st.Planner)
	}
	if st.WorkDir == "" {
		t.Error("status must report the working directory")
	}
	if st.Actions != 0 || st.CanUndo || st.NeedsReview {
		t.Errorf("fresh session status = %+v", st)
	}

	if _, err := s.HandleRequest(context.Background(), "goal"); err != nil {
		t.Fatalf("HandleRequest failed: %v", err)
	}
	if st = s.Status(); st.Actions != 1 {
		t.Errorf("actions = %d after one step, want 1", st.Actions)
	}
}

func TestSession_NeedsReviewSetByFailedUndoClearedByNextSuccess(t *testing.T) {
	p := &scriptedPlanner{results: []*planner.Result{
		stepResult("probe"),
		{Message: "done"},
	}}
	restore := &scriptedTool{name: "restore_file", outcomes: []tools.Outcome{
		tools.FailureOutcome("disk full"),
	}}
	s, log := newTestSession(t, p, restore, &scriptedTool{name: "probe"})

	log.Record("write_file", map[string]any{"path": "a.txt"},
		tools.Outcome{
			Success: true,
			Message: "wrote a.txt",
			Reverse: &tools.ReversePayload{
				Tool: "restore_file",
				Args: map[string]any{"path": "a.txt"},
			},
		}, tools.FullyReversible)

	_, err := s.UndoLast(context.Background())
	var execErr *undo.UndoExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected UndoExecutionError, got %v", err)
	}
	if !s.Status().NeedsReview {
		t.Fatal("failed undo must flag the session for manual review")
	}

	if _, err := s.HandleRequest(context.Background(), "goal"); err != nil {
		t.Fatalf("HandleRequest failed: %v", err)
	}
	if s.Status().NeedsReview {
		t.Error("the next successful action must clear the review flag")
	}
}

func TestHandleRequest_MissingReversePayloadRecordsIrreversible(t *testing.T) {
	p := &scriptedPlanner{results: []*planner.Result{
		stepResult("settle"),
		{Message: "done"},
	}}
	// Declares itself reversible but yields nothing to reverse, like
	// make_dir on a directory that already exists.
	tool := &scriptedTool{name: "settle", class: tools.FullyReversible,
		outcomes: []tools.Outcome{tools.SuccessOutcome("already there")}}
	s, log := newTestSession(t, p, tool)

	if _, err := s.HandleRequest(context.Background(), "goal"); err != nil {
		t.Fatalf("HandleRequest failed: %v", err)
	}
	last, _ := log.Last()
	if last.Reversibility != tools.Irreversible {
		t.Errorf("recorded class %v, want irreversible when no reverse payload exists",
			last.Reversibility)
	}
	if s.CanUndo() {
		t.Error("an action without a reverse payload must not be undoable")
	}
}

// recordingSink captures loop events for assertions.
type recordingSink struct {
	states   []State
	messages []string
	steps    []string
}

func (r *recordingSink) OnStateChange(s State)             { r.states = append(r.states, s) }
func (r *recordingSink) OnStep(tool, _ string)             { r.steps = append(r.steps, tool) }
func (r *recordingSink) OnActionDone(string, bool, string) {}
func (r *recordingSink) OnMessage(text string)             { r.messages = append(r.messages, text) }

func TestHandleRequest_EmitsStateTransitions(t *testing.T) {
	p := &scriptedPlanner{results: []*planner.Result{
		stepResult("probe"),
		{Message: "done"},
	}}

	registry := tools.NewRegistry()
	if err := registry.Register(&scriptedTool{name: "probe"}); err != nil {
		t.Fatalf("failed to register tool: %v", err)
	}
	sink := &recordingSink{}
	s, err := NewSession(t.TempDir(), nil, registry, history.NewLog(), p, WithSink(sink))
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	if _, err := s.HandleRequest(context.Background(), "goal"); err != nil {
		t.Fatalf("HandleRequest failed: %v", err)
	}

	want := []State{
		StatePerceiving, StateReasoning, StateActing, StateRecording,
		StatePerceiving, StateReasoning,
		StateIdle,
	}
	if len(sink.states) != len(want) {
		t.Fatalf("state sequence %v, want %v", sink.states, want)
	}
	for i := range want {
		if sink.states[i] != want[i] {
			t.Fatalf("state sequence %v, want %v", sink.states, want)
		}
	}
	if len(sink.steps) != 1 || sink.steps[0] != "probe" {
		t.Errorf("step events = %v", sink.steps)
	}
	if len(sink.messages) != 1 || sink.messages[0] != "done" {
		t.Errorf("message events = %v", sink.messages)
	}
}
