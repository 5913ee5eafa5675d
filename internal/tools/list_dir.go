package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/genai"

	"gofer/internal/security"
)

// maxListDirEntries limits directory listing output size.
const maxListDirEntries = 2000

// ListDirTool lists the contents of a directory.
type ListDirTool struct {
	workDir       string
	pathValidator *security.PathValidator
}

// NewListDirTool creates a new ListDirTool instance.
func NewListDirTool(workDir string) *ListDirTool {
	return &ListDirTool{
		workDir:       workDir,
		pathValidator: security.NewPathValidator([]string{workDir}),
	}
}

// SetAllowedDirs sets additional allowed directories for path validation.
func (t *ListDirTool) SetAllowedDirs(dirs []string) {
	t.pathValidator = security.NewPathValidator(append([]string{t.workDir}, dirs...))
}

func (t *ListDirTool) Name() string {
	return "list_dir"
}

func (t *ListDirTool) Description() string {
	return "Lists the contents of a directory, including files and subdirectories."
}

func (t *ListDirTool) Reversibility() Reversibility {
	return Irreversible
}

func (t *ListDirTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"path": {
					Type:        genai.TypeString,
					Description: "The directory to list. Defaults to the working directory.",
				},
			},
			Required: []string{},
		},
	}
}

func (t *ListDirTool) Validate(args map[string]any) error {
	// Empty path defaults to the working directory.
	return nil
}

func (t *ListDirTool) Execute(ctx context.Context, args map[string]any) (Outcome, error) {
	dirPath := GetStringDefault(args, "path", ".")

	absPath := dirPath
	if !filepath.IsAbs(dirPath) {
		absPath = filepath.Join(t.workDir, dirPath)
	}

	validPath, err := t.pathValidator.Validate(absPath)
	if err != nil {
		return FailureOutcome(fmt.Sprintf("path validation failed: %s", err)), nil
	}

	entries, err := os.ReadDir(validPath)
	if err != nil {
		if os.IsNotExist(err) {
			return FailureOutcome(fmt.Sprintf("directory not found: %s", dirPath)), nil
		}
		return FailureOutcome(fmt.Sprintf("error reading directory: %s", err)), nil
	}

	if len(entries) == 0 {
		return SuccessWithContent(fmt.Sprintf("Listed %s (empty)", validPath), "(empty)"), nil
	}

	truncated := false
	if len(entries) > maxListDirEntries {
		truncated = true
		entries = entries[:maxListDirEntries]
	}

	var builder strings.Builder
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		builder.WriteString(name)
		builder.WriteByte('\n')
	}
	if truncated {
		builder.WriteString(fmt.Sprintf("\n... (output truncated: showing %d entries)", maxListDirEntries))
	}

	return SuccessWithContent(
		fmt.Sprintf("Listed %s (%d entries)", validPath, len(entries)),
		builder.String(),
	), nil
}
