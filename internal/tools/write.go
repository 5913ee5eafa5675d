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

// WriteTool writes content to files. Fully reversible: the previous content
// (or absence of the file) is captured before the write and carried in the
// reverse payload.
type WriteTool struct {
	workDir       string
	pathValidator *security.PathValidator
}

// NewWriteTool creates a new WriteTool instance.
func NewWriteTool(workDir string) *WriteTool {
	return &WriteTool{
		workDir:       workDir,
		pathValidator: security.NewPathValidator([]string{workDir}),
	}
}

// SetAllowedDirs sets additional allowed directories for path validation.
func (t *WriteTool) SetAllowedDirs(dirs []string) {
	t.pathValidator = security.NewPathValidator(append([]string{t.workDir}, dirs...))
}

func (t *WriteTool) Name() string {
	return "write_file"
}

func (t *WriteTool) Description() string {
	return "Writes content to a file. Creates the file if it doesn't exist, or overwrites if it does."
}

func (t *WriteTool) Reversibility() Reversibility {
	return FullyReversible
}

func (t *WriteTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"path": {
					Type:        genai.TypeString,
					Description: "The path to the file to write",
				},
				"content": {
					Type:        genai.TypeString,
					Description: "The content to write to the file",
				},
			},
			Required: []string{"path", "content"},
		},
	}
}

func (t *WriteTool) Validate(args map[string]any) error {
	path, ok := GetString(args, "path")
	if !ok || path == "" {
		return NewValidationError("path", "is required")
	}
	if _, ok := GetString(args, "content"); !ok {
		return NewValidationError("content", "is required")
	}
	return nil
}

func (t *WriteTool) Execute(ctx context.Context, args map[string]any) (Outcome, error) {
	path, _ := GetString(args, "path")
	content, _ := GetString(args, "content")

	validPath, err := t.pathValidator.Validate(path)
	if err != nil {
		return FailureOutcome(fmt.Sprintf("path validation failed: %s", err)), nil
	}

	if err := os.MkdirAll(filepath.Dir(validPath), 0755); err != nil {
		return FailureOutcome(fmt.Sprintf("error creating directories: %s", err)), nil
	}

	// Capture prior state before the mutation so the reverse payload is
	// trustworthy even if the write itself half-fails.
	var oldContent []byte
	_, statErr := os.Stat(validPath)
	isNew := os.IsNotExist(statErr)
	if !isNew {
		oldContent, err = os.ReadFile(validPath)
		if err != nil {
			return FailureOutcome(fmt.Sprintf("error reading existing file: %s", err)), nil
		}
	}
	reverse := RestorePayload(validPath, oldContent, !isNew)

	if err := fileutil.AtomicWrite(validPath, []byte(content), 0644); err != nil {
		return FailureOutcome(fmt.Sprintf("error writing file: %s", err)), nil
	}

	var status string
	if isNew {
		status = fmt.Sprintf("Created new file: %s (%d bytes)", validPath, len(content))
	} else {
		status = fmt.Sprintf("Updated file: %s (%d bytes)", validPath, len(content))
	}

	return Outcome{Success: true, Message: status, Reverse: reverse}, nil
}
