package tools

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"
)

// stubTool is a configurable tool for registry tests.
type stubTool struct {
	name        string
	class       Reversibility
	validateErr error
	outcome     Outcome
	execErr     error
	panicWith   any
}

func (s *stubTool) Name() string                  { return s.name }
func (s *stubTool) Description() string           { return "stub tool" }
func (s *stubTool) Reversibility() Reversibility  { return s.class }
func (s *stubTool) Validate(map[string]any) error { return s.validateErr }

func (s *stubTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{Name: s.name, Description: "stub tool"}
}

func (s *stubTool) Execute(context.Context, map[string]any) (Outcome, error) {
	if s.panicWith != nil {
		panic(s.panicWith)
	}
	return s.outcome, s.execErr
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(&stubTool{name: "alpha"}); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	err := r.Register(&stubTool{name: "alpha"})
	if err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if !errors.Is(err, ErrDuplicateTool) {
		t.Errorf("expected ErrDuplicateTool, got %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 registered tool, got %d", r.Len())
	}
}

func TestRegistry_DispatchUnknownTool(t *testing.T) {
	r := NewRegistry()

	_, err := r.Dispatch(context.Background(), "ghost", nil)
	if err == nil {
		t.Fatal("expected dispatch of unknown tool to fail")
	}
	if !errors.Is(err, ErrUnknownTool) {
		t.Errorf("expected ErrUnknownTool, got %v", err)
	}
}

func TestRegistry_DispatchInvalidParameters(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubTool{
		name:        "picky",
		validateErr: NewValidationError("path", "is required"),
	}); err != nil {
		t.Fatalf("registration failed: %v", err)
	}

	_, err := r.Dispatch(context.Background(), "picky", map[string]any{})
	if err == nil {
		t.Fatal("expected dispatch with invalid parameters to fail")
	}
	var invalidErr *InvalidParametersError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected InvalidParametersError, got %v", err)
	}
	if invalidErr.Tool != "picky" {
		t.Errorf("expected tool name picky, got %s", invalidErr.Tool)
	}
}

func TestRegistry_DispatchContainsPanic(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubTool{name: "bomb", panicWith: "boom"}); err != nil {
		t.Fatalf("registration failed: %v", err)
	}

	outcome, err := r.Dispatch(context.Background(), "bomb", nil)
	if err != nil {
		t.Fatalf("panic should be contained, got error: %v", err)
	}
	if outcome.Success {
		t.Error("expected failed outcome from panicking tool")
	}
}

func TestRegistry_DispatchExecuteErrorBecomesFailedOutcome(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubTool{
		name:    "broken",
		execErr: errors.New("contract violation"),
	}); err != nil {
		t.Fatalf("registration failed: %v", err)
	}

	outcome, err := r.Dispatch(context.Background(), "broken", nil)
	if err != nil {
		t.Fatalf("execute errors must not escape dispatch, got: %v", err)
	}
	if outcome.Success {
		t.Error("expected failed outcome when tool returns error")
	}
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(&stubTool{name: name}); err != nil {
			t.Fatalf("registration failed: %v", err)
		}
	}

	names := r.Names()
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestRegistry_ReversibilityUnknownToolIsIrreversible(t *testing.T) {
	r := NewRegistry()
	if got := r.Reversibility("ghost"); got != Irreversible {
		t.Errorf("expected Irreversible for unknown tool, got %s", got)
	}
}
