package tools

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"gofer/internal/security"
)

// DeleteTool removes a single file. Partially reversible: the content comes
// back via restore_file, but permissions and timestamps do not.
type DeleteTool struct {
	workDir       string
	pathValidator *security.PathValidator
	maxSnapshot   int64
}

// NewDeleteTool creates a new DeleteTool instance.
func NewDeleteTool(workDir string) *DeleteTool {
	return &DeleteTool{
		workDir:       workDir,
		pathValidator: security.NewPathValidator([]string{workDir}),
		maxSnapshot:   10 << 20, // 10MB
	}
}

// SetAllowedDirs sets additional allowed directories for path validation.
func (t *DeleteTool) SetAllowedDirs(dirs []string) {
	t.pathValidator = security.NewPathValidator(append([]string{t.workDir}, dirs...))
}

func (t *DeleteTool) Name() string {
	return "delete_file"
}

func (t *DeleteTool) Description() string {
	return "Deletes a single file. Directories are refused."
}

func (t *DeleteTool) Reversibility() Reversibility {
	return PartiallyReversible
}

func (t *DeleteTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"path": {
					Type:        genai.TypeString,
					Description: "The path to the file to delete",
				},
			},
			Required: []string{"path"},
		},
	}
}

func (t *DeleteTool) Validate(args map[string]any) error {
	path, ok := GetString(args, "path")
	if !ok || path == "" {
		return NewValidationError("path", "is required")
	}
	return nil
}

func (t *DeleteTool) Execute(ctx context.Context, args map[string]any) (Outcome, error) {
	path, _ := GetString(args, "path")

	validPath, err := t.pathValidator.Validate(path)
	if err != nil {
		return FailureOutcome(fmt.Sprintf("path validation failed: %s", err)), nil
	}

	info, err := os.Lstat(validPath)
	if err != nil {
		if os.IsNotExist(err) {
			return FailureOutcome(fmt.Sprintf("file not found: %s", path)), nil
		}
		return FailureOutcome(fmt.Sprintf("error accessing file: %s", err)), nil
	}
	if info.IsDir() {
		return FailureOutcome(fmt.Sprintf("refusing to delete directory: %s", path)), nil
	}

	// Snapshot for undo; huge files get deleted without one and the action
	// downgrades to irreversible in the outcome message.
	var reverse *ReversePayload
	if info.Mode().IsRegular() && info.Size() <= t.maxSnapshot {
		content, rerr := os.ReadFile(validPath)
		if rerr != nil {
			return FailureOutcome(fmt.Sprintf("error snapshotting file before delete: %s", rerr)), nil
		}
		reverse = RestorePayload(validPath, content, true)
	}

	if err := os.Remove(validPath); err != nil {
		return FailureOutcome(fmt.Sprintf("error deleting file: %s", err)), nil
	}

	msg := fmt.Sprintf("Deleted file: %s (%d bytes)", validPath, info.Size())
	if reverse == nil {
		msg += " (too large to snapshot; not undoable)"
	}
	return Outcome{Success: true, Message: msg, Reverse: reverse}, nil
}
