package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"gofer/internal/security"
)

// ReadTool reads file contents.
type ReadTool struct {
	workDir       string
	pathValidator *security.PathValidator
	maxSize       int64
}

// NewReadTool creates a new ReadTool instance.
func NewReadTool(workDir string) *ReadTool {
	return &ReadTool{
		workDir:       workDir,
		pathValidator: security.NewPathValidator([]string{workDir}),
		maxSize:       1 << 20, // 1MB
	}
}

func (t *ReadTool) Name() string {
	return "read_file"
}

func (t *ReadTool) Description() string {
	return "Reads the content of a file and returns it as text."
}

func (t *ReadTool) Reversibility() Reversibility {
	return Irreversible
}

func (t *ReadTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"path": {
					Type:        genai.TypeString,
					Description: "The path to the file to read",
				},
			},
			Required: []string{"path"},
		},
	}
}

func (t *ReadTool) Validate(args map[string]any) error {
	path, ok := GetString(args, "path")
	if !ok || path == "" {
		return NewValidationError("path", "is required")
	}
	return nil
}

func (t *ReadTool) Execute(ctx context.Context, args map[string]any) (Outcome, error) {
	path, _ := GetString(args, "path")

	validPath, err := t.pathValidator.Validate(path)
	if err != nil {
		return FailureOutcome(fmt.Sprintf("path validation failed: %s", err)), nil
	}

	info, err := os.Stat(validPath)
	if err != nil {
		if os.IsNotExist(err) {
			return FailureOutcome(fmt.Sprintf("file not found: %s", path)), nil
		}
		return FailureOutcome(fmt.Sprintf("error accessing file: %s", err)), nil
	}
	if info.IsDir() {
		return FailureOutcome(fmt.Sprintf("is a directory: %s", path)), nil
	}
	if info.Size() > t.maxSize {
		return FailureOutcome(fmt.Sprintf("file too large: %s (%d bytes, limit %d)", path, info.Size(), t.maxSize)), nil
	}

	data, err := os.ReadFile(validPath)
	if err != nil {
		return FailureOutcome(fmt.Sprintf("error reading file: %s", err)), nil
	}

	if isBinary(data) {
		return FailureOutcome(fmt.Sprintf("cannot read binary file: %s", path)), nil
	}

	lineCount := strings.Count(string(data), "\n") + 1
	return SuccessWithContent(
		fmt.Sprintf("Read %s (%d bytes, %d lines)", validPath, len(data), lineCount),
		string(data),
	), nil
}

// isBinary checks the first 512 bytes for null bytes.
func isBinary(data []byte) bool {
	checkLen := len(data)
	if checkLen > 512 {
		checkLen = 512
	}
	for _, b := range data[:checkLen] {
		if b == 0 {
			return true
		}
	}
	return false
}
