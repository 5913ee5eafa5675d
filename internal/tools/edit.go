package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"gofer/internal/fileutil"
	"gofer/internal/security"
)

// EditTool performs search/replace edits in a file. Fully reversible via a
// snapshot of the whole prior content: restoring bytes is exact, while
// counter-replacing the new string would drift if the file changed meanwhile.
type EditTool struct {
	workDir       string
	pathValidator *security.PathValidator
}

// NewEditTool creates a new EditTool instance.
func NewEditTool(workDir string) *EditTool {
	return &EditTool{
		workDir:       workDir,
		pathValidator: security.NewPathValidator([]string{workDir}),
	}
}

// SetAllowedDirs sets additional allowed directories for path validation.
func (t *EditTool) SetAllowedDirs(dirs []string) {
	t.pathValidator = security.NewPathValidator(append([]string{t.workDir}, dirs...))
}

func (t *EditTool) Name() string {
	return "edit_file"
}

func (t *EditTool) Description() string {
	return "Replaces old_string with new_string in a file. old_string must be unique unless replace_all is true."
}

func (t *EditTool) Reversibility() Reversibility {
	return FullyReversible
}

func (t *EditTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"path": {
					Type:        genai.TypeString,
					Description: "The path to the file to edit",
				},
				"old_string": {
					Type:        genai.TypeString,
					Description: "The text to find and replace",
				},
				"new_string": {
					Type:        genai.TypeString,
					Description: "The text to replace with (must differ from old_string)",
				},
				"replace_all": {
					Type:        genai.TypeBoolean,
					Description: "If true, replace every occurrence. If false (default), old_string must be unique.",
				},
			},
			Required: []string{"path", "old_string", "new_string"},
		},
	}
}

func (t *EditTool) Validate(args map[string]any) error {
	path, ok := GetString(args, "path")
	if !ok || path == "" {
		return NewValidationError("path", "is required")
	}
	oldStr, ok := GetString(args, "old_string")
	if !ok || oldStr == "" {
		return NewValidationError("old_string", "is required")
	}
	newStr, ok := GetString(args, "new_string")
	if !ok {
		return NewValidationError("new_string", "is required")
	}
	if oldStr == newStr {
		return NewValidationError("new_string", "must be different from old_string")
	}
	return nil
}

func (t *EditTool) Execute(ctx context.Context, args map[string]any) (Outcome, error) {
	path, _ := GetString(args, "path")
	oldStr, _ := GetString(args, "old_string")
	newStr, _ := GetString(args, "new_string")
	replaceAll := GetBoolDefault(args, "replace_all", false)

	validPath, err := t.pathValidator.ValidateFile(path)
	if err != nil {
		return FailureOutcome(fmt.Sprintf("path validation failed: %s", err)), nil
	}

	data, err := os.ReadFile(validPath)
	if err != nil {
		if os.IsNotExist(err) {
			return FailureOutcome(fmt.Sprintf("file not found: %s", path)), nil
		}
		return FailureOutcome(fmt.Sprintf("error reading file: %s", err)), nil
	}

	if isBinary(data) {
		return FailureOutcome(fmt.Sprintf("cannot edit binary file: %s", path)), nil
	}

	content := string(data)
	count := strings.Count(content, oldStr)
	if count == 0 {
		return FailureOutcome(fmt.Sprintf("old_string not found in %s", path)), nil
	}
	if count > 1 && !replaceAll {
		return FailureOutcome(fmt.Sprintf("old_string occurs %d times in %s; set replace_all=true or make it unique", count, path)), nil
	}

	reverse := RestorePayload(validPath, data, true)

	var newContent string
	if replaceAll {
		newContent = strings.ReplaceAll(content, oldStr, newStr)
	} else {
		newContent = strings.Replace(content, oldStr, newStr, 1)
	}

	if err := fileutil.AtomicWrite(validPath, []byte(newContent), 0644); err != nil {
		return FailureOutcome(fmt.Sprintf("error writing file: %s", err)), nil
	}

	replaced := 1
	if replaceAll {
		replaced = count
	}
	return Outcome{
		Success: true,
		Message: fmt.Sprintf("Edited %s (%d replacement(s))", validPath, replaced),
		Reverse: reverse,
	}, nil
}
