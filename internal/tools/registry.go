package tools

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"

	"gofer/internal/logging"

	"google.golang.org/genai"
)

// Registry manages the collection of available tools. Registration happens
// once at startup; dispatch is the single path every action takes, forward
// and reverse alike.
type Registry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

// NewRegistry creates a new tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry. Registering a name twice fails
// with ErrDuplicateTool.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}

	r.tools[name] = tool
	return nil
}

// MustRegister adds a tool and logs a warning on error.
func (r *Registry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		logging.Warn("failed to register tool", "tool", tool.Name(), "error", err)
	}
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns the sorted names of all registered tools.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Declarations returns all tool declarations for the planner.
func (r *Registry) Declarations() []*genai.FunctionDeclaration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	declarations := make([]*genai.FunctionDeclaration, 0, len(r.tools))
	for _, tool := range r.tools {
		declarations = append(declarations, tool.Declaration())
	}
	return declarations
}

// Reversibility returns the declared class for a tool, Irreversible if unknown.
func (r *Registry) Reversibility(name string) Reversibility {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if tool, ok := r.tools[name]; ok {
		return tool.Reversibility()
	}
	return Irreversible
}

// Dispatch validates and executes the named tool.
//
// The error return covers only the cases where no tool code ran:
// ErrUnknownTool and InvalidParametersError. Everything that happens inside
// a tool — including a panic — is contained and reported as a failed
// Outcome, so one misbehaving tool cannot crash the loop.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (outcome Outcome, err error) {
	tool, ok := r.Get(name)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	if verr := tool.Validate(args); verr != nil {
		return Outcome{}, &InvalidParametersError{Tool: name, Err: verr}
	}

	defer func() {
		if rec := recover(); rec != nil {
			logging.Error("tool panicked", "tool", name, "panic", rec, "stack", string(debug.Stack()))
			outcome = FailureOutcome(fmt.Sprintf("tool %s panicked: %v", name, rec))
			err = nil
		}
	}()

	outcome, execErr := tool.Execute(ctx, args)
	if execErr != nil {
		// Tool broke its contract; preserve the detail, keep the loop alive.
		logging.Warn("tool returned error", "tool", name, "error", execErr)
		return FailureOutcome(fmt.Sprintf("tool %s failed: %v", name, execErr)), nil
	}

	return outcome, nil
}
