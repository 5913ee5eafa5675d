package tools

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"gofer/internal/security"
)

// MkdirTool creates directories, with parents as needed. Reversible for the
// directory itself: undo removes it if it is still empty. Parents created
// along the way remain.
type MkdirTool struct {
	workDir       string
	pathValidator *security.PathValidator
}

// NewMkdirTool creates a new MkdirTool instance.
func NewMkdirTool(workDir string) *MkdirTool {
	return &MkdirTool{
		workDir:       workDir,
		pathValidator: security.NewPathValidator([]string{workDir}),
	}
}

// SetAllowedDirs sets additional allowed directories for path validation.
func (t *MkdirTool) SetAllowedDirs(dirs []string) {
	t.pathValidator = security.NewPathValidator(append([]string{t.workDir}, dirs...))
}

func (t *MkdirTool) Name() string {
	return "make_dir"
}

func (t *MkdirTool) Description() string {
	return "Creates a directory, including parent directories as needed (like mkdir -p)."
}

func (t *MkdirTool) Reversibility() Reversibility {
	return FullyReversible
}

func (t *MkdirTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"path": {
					Type:        genai.TypeString,
					Description: "The path of the directory to create",
				},
			},
			Required: []string{"path"},
		},
	}
}

func (t *MkdirTool) Validate(args map[string]any) error {
	path, ok := GetString(args, "path")
	if !ok || path == "" {
		return NewValidationError("path", "is required")
	}
	return nil
}

func (t *MkdirTool) Execute(ctx context.Context, args map[string]any) (Outcome, error) {
	path, _ := GetString(args, "path")

	validPath, err := t.pathValidator.Validate(path)
	if err != nil {
		return FailureOutcome(fmt.Sprintf("path validation failed: %s", err)), nil
	}

	if info, err := os.Stat(validPath); err == nil {
		if info.IsDir() {
			// Already there: nothing happened, so nothing to reverse.
			return SuccessOutcome(fmt.Sprintf("Directory already exists: %s", validPath)), nil
		}
		return FailureOutcome(fmt.Sprintf("path exists but is not a directory: %s", validPath)), nil
	}

	if err := os.MkdirAll(validPath, 0755); err != nil {
		return FailureOutcome(fmt.Sprintf("error creating directory: %s", err)), nil
	}

	return Outcome{
		Success: true,
		Message: fmt.Sprintf("Created directory: %s", validPath),
		Reverse: RestorePayload(validPath, nil, false),
	}, nil
}
