package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"google.golang.org/genai"

	"gofer/internal/security"
)

// MoveTool renames a file or directory. Fully reversible and its own
// inverse: the reverse payload is another move with the paths swapped.
// Overwriting an existing destination is refused so the inverse is safe.
type MoveTool struct {
	workDir       string
	pathValidator *security.PathValidator
}

// NewMoveTool creates a new MoveTool instance.
func NewMoveTool(workDir string) *MoveTool {
	return &MoveTool{
		workDir:       workDir,
		pathValidator: security.NewPathValidator([]string{workDir}),
	}
}

// SetAllowedDirs sets additional allowed directories for path validation.
func (t *MoveTool) SetAllowedDirs(dirs []string) {
	t.pathValidator = security.NewPathValidator(append([]string{t.workDir}, dirs...))
}

func (t *MoveTool) Name() string {
	return "move_path"
}

func (t *MoveTool) Description() string {
	return "Moves or renames a file or directory. Fails if the destination already exists."
}

func (t *MoveTool) Reversibility() Reversibility {
	return FullyReversible
}

func (t *MoveTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"source": {
					Type:        genai.TypeString,
					Description: "The current path",
				},
				"destination": {
					Type:        genai.TypeString,
					Description: "The new path",
				},
			},
			Required: []string{"source", "destination"},
		},
	}
}

func (t *MoveTool) Validate(args map[string]any) error {
	source, ok := GetString(args, "source")
	if !ok || source == "" {
		return NewValidationError("source", "is required")
	}
	destination, ok := GetString(args, "destination")
	if !ok || destination == "" {
		return NewValidationError("destination", "is required")
	}
	if source == destination {
		return NewValidationError("destination", "must differ from source")
	}
	return nil
}

func (t *MoveTool) Execute(ctx context.Context, args map[string]any) (Outcome, error) {
	source, _ := GetString(args, "source")
	destination, _ := GetString(args, "destination")

	validSource, err := t.pathValidator.Validate(source)
	if err != nil {
		return FailureOutcome(fmt.Sprintf("source validation failed: %s", err)), nil
	}
	validDest, err := t.pathValidator.Validate(destination)
	if err != nil {
		return FailureOutcome(fmt.Sprintf("destination validation failed: %s", err)), nil
	}

	if _, err := os.Stat(validSource); err != nil {
		return FailureOutcome(fmt.Sprintf("error reading source: %s", err)), nil
	}
	if _, err := os.Stat(validDest); err == nil {
		return FailureOutcome(fmt.Sprintf("destination already exists: %s", validDest)), nil
	}

	if err := os.MkdirAll(filepath.Dir(validDest), 0755); err != nil {
		return FailureOutcome(fmt.Sprintf("error creating directories: %s", err)), nil
	}
	if err := os.Rename(validSource, validDest); err != nil {
		return FailureOutcome(fmt.Sprintf("error moving path: %s", err)), nil
	}

	return Outcome{
		Success: true,
		Message: fmt.Sprintf("Moved %s to %s", validSource, validDest),
		Reverse: &ReversePayload{
			Tool: t.Name(),
			Args: map[string]any{"source": validDest, "destination": validSource},
		},
	}, nil
}
