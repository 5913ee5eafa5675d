package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"google.golang.org/genai"

	"gofer/internal/fileutil"
	"gofer/internal/security"
)

// RestorePayload builds the reverse payload every mutating file tool uses.
// existed=false means the forward action created the file, so the reverse
// is to remove it.
func RestorePayload(path string, oldContent []byte, existed bool) *ReversePayload {
	args := map[string]any{
		"path":    path,
		"existed": existed,
	}
	if existed {
		args["content"] = string(oldContent)
	}
	return &ReversePayload{Tool: "restore_file", Args: args}
}

// RestoreTool puts a file back to a captured prior state. It is the reverse
// operation behind write_file, edit_file, clear_file and delete_file, and is
// dispatched through the registry like any other tool so undo failures
// follow the normal Outcome contract. Restoring is itself declared
// irreversible: the undo of an undo is not tracked.
type RestoreTool struct {
	workDir       string
	pathValidator *security.PathValidator
}

// NewRestoreTool creates a new RestoreTool instance.
func NewRestoreTool(workDir string) *RestoreTool {
	return &RestoreTool{
		workDir:       workDir,
		pathValidator: security.NewPathValidator([]string{workDir}),
	}
}

// SetAllowedDirs sets additional allowed directories for path validation.
func (t *RestoreTool) SetAllowedDirs(dirs []string) {
	t.pathValidator = security.NewPathValidator(append([]string{t.workDir}, dirs...))
}

func (t *RestoreTool) Name() string {
	return "restore_file"
}

func (t *RestoreTool) Description() string {
	return "Restores a file to a previously captured state: rewrites its prior content, or removes it if it did not exist. Used by undo."
}

func (t *RestoreTool) Reversibility() Reversibility {
	return Irreversible
}

func (t *RestoreTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"path": {
					Type:        genai.TypeString,
					Description: "The path to the file to restore",
				},
				"existed": {
					Type:        genai.TypeBoolean,
					Description: "Whether the file existed before the forward action",
				},
				"content": {
					Type:        genai.TypeString,
					Description: "The prior content to restore (required when existed is true)",
				},
			},
			Required: []string{"path", "existed"},
		},
	}
}

func (t *RestoreTool) Validate(args map[string]any) error {
	path, ok := GetString(args, "path")
	if !ok || path == "" {
		return NewValidationError("path", "is required")
	}
	existed, ok := GetBool(args, "existed")
	if !ok {
		return NewValidationError("existed", "is required")
	}
	if existed {
		if _, ok := GetString(args, "content"); !ok {
			return NewValidationError("content", "is required when existed is true")
		}
	}
	return nil
}

func (t *RestoreTool) Execute(ctx context.Context, args map[string]any) (Outcome, error) {
	path, _ := GetString(args, "path")
	existed, _ := GetBool(args, "existed")

	validPath, err := t.pathValidator.Validate(path)
	if err != nil {
		return FailureOutcome(fmt.Sprintf("path validation failed: %s", err)), nil
	}

	if !existed {
		// Forward action created the file; reversing means removing it.
		if err := os.Remove(validPath); err != nil && !os.IsNotExist(err) {
			return FailureOutcome(fmt.Sprintf("error removing created file: %s", err)), nil
		}
		return SuccessOutcome(fmt.Sprintf("Removed created file: %s", validPath)), nil
	}

	content, _ := GetString(args, "content")
	if err := os.MkdirAll(filepath.Dir(validPath), 0755); err != nil {
		return FailureOutcome(fmt.Sprintf("error creating directories: %s", err)), nil
	}
	if err := fileutil.AtomicWrite(validPath, []byte(content), 0644); err != nil {
		return FailureOutcome(fmt.Sprintf("error restoring file: %s", err)), nil
	}

	return SuccessOutcome(fmt.Sprintf("Restored %s to its previous content (%d bytes)", validPath, len(content))), nil
}
