package tools

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"gofer/internal/fileutil"
	"gofer/internal/security"
)

// ClearTool truncates a file to zero bytes. Fully reversible: the prior
// content travels in the reverse payload.
type ClearTool struct {
	workDir       string
	pathValidator *security.PathValidator
}

// NewClearTool creates a new ClearTool instance.
func NewClearTool(workDir string) *ClearTool {
	return &ClearTool{
		workDir:       workDir,
		pathValidator: security.NewPathValidator([]string{workDir}),
	}
}

// SetAllowedDirs sets additional allowed directories for path validation.
func (t *ClearTool) SetAllowedDirs(dirs []string) {
	t.pathValidator = security.NewPathValidator(append([]string{t.workDir}, dirs...))
}

func (t *ClearTool) Name() string {
	return "clear_file"
}

func (t *ClearTool) Description() string {
	return "Empties a file, leaving it present with zero bytes."
}

func (t *ClearTool) Reversibility() Reversibility {
	return FullyReversible
}

func (t *ClearTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"path": {
					Type:        genai.TypeString,
					Description: "The path to the file to clear",
				},
			},
			Required: []string{"path"},
		},
	}
}

func (t *ClearTool) Validate(args map[string]any) error {
	path, ok := GetString(args, "path")
	if !ok || path == "" {
		return NewValidationError("path", "is required")
	}
	return nil
}

func (t *ClearTool) Execute(ctx context.Context, args map[string]any) (Outcome, error) {
	path, _ := GetString(args, "path")

	validPath, err := t.pathValidator.ValidateFile(path)
	if err != nil {
		return FailureOutcome(fmt.Sprintf("path validation failed: %s", err)), nil
	}

	oldContent, err := os.ReadFile(validPath)
	if err != nil {
		if os.IsNotExist(err) {
			return FailureOutcome(fmt.Sprintf("file not found: %s", path)), nil
		}
		return FailureOutcome(fmt.Sprintf("error reading file: %s", err)), nil
	}

	reverse := RestorePayload(validPath, oldContent, true)

	if err := fileutil.AtomicWrite(validPath, nil, 0644); err != nil {
		return FailureOutcome(fmt.Sprintf("error clearing file: %s", err)), nil
	}

	return Outcome{
		Success: true,
		Message: fmt.Sprintf("Cleared %s (was %d bytes)", validPath, len(oldContent)),
		Reverse: reverse,
	}, nil
}
