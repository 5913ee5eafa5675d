package tools

import (
	"context"

	"google.golang.org/genai"
)

// Reversibility is a tool's declared reversibility class. It is part of the
// tool contract, declared at registration, never inferred from behavior.
type Reversibility int

const (
	// Irreversible means the tool's effect cannot be undone. Read-only
	// analysis tools also declare this class so undo refuses them instead
	// of pretending to reverse a read.
	Irreversible Reversibility = iota

	// PartiallyReversible means the reverse payload restores the primary
	// effect but side effects (timestamps, generated artifacts) may remain.
	PartiallyReversible

	// FullyReversible means the reverse payload restores the exact prior state.
	FullyReversible
)

// String returns the class name used in logs and the history display.
func (r Reversibility) String() string {
	switch r {
	case FullyReversible:
		return "fully-reversible"
	case PartiallyReversible:
		return "partially-reversible"
	default:
		return "irreversible"
	}
}

// CanUndo reports whether this class permits an undo attempt.
func (r Reversibility) CanUndo() bool {
	return r == FullyReversible || r == PartiallyReversible
}

// ReversePayload names a registered tool invocation that undoes a forward
// action. It is captured BEFORE the forward mutation is applied, so the
// prior state it carries is trustworthy even if the mutation half-fails.
type ReversePayload struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// Outcome is the result of one tool execution.
type Outcome struct {
	// Success indicates whether the tool did what it was asked.
	Success bool

	// Message is the human-readable status, or the failure detail.
	Message string

	// Content is the primary result body fed back to the planner
	// (file contents, command output, search hits).
	Content string

	// Reverse is present when the action can be undone. Nil for
	// irreversible tools and for failed executions.
	Reverse *ReversePayload
}

// Success creates a successful outcome.
func SuccessOutcome(message string) Outcome {
	return Outcome{Success: true, Message: message}
}

// SuccessWithContent creates a successful outcome carrying result content.
func SuccessWithContent(message, content string) Outcome {
	return Outcome{Success: true, Message: message, Content: content}
}

// FailureOutcome creates a failed outcome.
func FailureOutcome(message string) Outcome {
	return Outcome{Success: false, Message: message}
}

// Tool is the capability contract every registered tool satisfies.
// Execute returns a failed Outcome for operational problems (file missing,
// command failed); the error return is reserved for contract violations
// and is wrapped by the registry so it cannot crash the loop.
type Tool interface {
	// Name returns the unique registry name of the tool.
	Name() string

	// Description returns a human-readable description for the planner.
	Description() string

	// Declaration returns the function declaration the planner validates
	// arguments against.
	Declaration() *genai.FunctionDeclaration

	// Reversibility returns the tool's declared reversibility class.
	Reversibility() Reversibility

	// Validate checks arguments before execution.
	Validate(args map[string]any) error

	// Execute runs the tool with the given arguments.
	Execute(ctx context.Context, args map[string]any) (Outcome, error)
}

// GetString extracts a string argument from the args map.
func GetString(args map[string]any, key string) (string, bool) {
	val, ok := args[key]
	if !ok {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// GetStringDefault extracts a string argument with a default value.
func GetStringDefault(args map[string]any, key, defaultVal string) string {
	if val, ok := GetString(args, key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetInt extracts an integer argument from the args map.
// Planner backends may deliver numbers as float64.
func GetInt(args map[string]any, key string) (int, bool) {
	val, ok := args[key]
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// GetIntDefault extracts an integer argument with a default value.
func GetIntDefault(args map[string]any, key string, defaultVal int) int {
	if val, ok := GetInt(args, key); ok {
		return val
	}
	return defaultVal
}

// GetBool extracts a boolean argument from the args map.
func GetBool(args map[string]any, key string) (bool, bool) {
	val, ok := args[key]
	if !ok {
		return false, false
	}
	b, ok := val.(bool)
	return b, ok
}

// GetBoolDefault extracts a boolean argument with a default value.
func GetBoolDefault(args map[string]any, key string, defaultVal bool) bool {
	if val, ok := GetBool(args, key); ok {
		return val
	}
	return defaultVal
}
