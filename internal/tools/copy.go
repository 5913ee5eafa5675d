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

// CopyTool copies a single file. Fully reversible: undo removes the copy, or
// restores the destination's prior content when the copy overwrote a file.
// Directories are refused, matching delete_file.
type CopyTool struct {
	workDir       string
	pathValidator *security.PathValidator
}

// NewCopyTool creates a new CopyTool instance.
func NewCopyTool(workDir string) *CopyTool {
	return &CopyTool{
		workDir:       workDir,
		pathValidator: security.NewPathValidator([]string{workDir}),
	}
}

// SetAllowedDirs sets additional allowed directories for path validation.
func (t *CopyTool) SetAllowedDirs(dirs []string) {
	t.pathValidator = security.NewPathValidator(append([]string{t.workDir}, dirs...))
}

func (t *CopyTool) Name() string {
	return "copy_file"
}

func (t *CopyTool) Description() string {
	return "Copies a file to a new location. Refuses directories."
}

func (t *CopyTool) Reversibility() Reversibility {
	return FullyReversible
}

func (t *CopyTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"source": {
					Type:        genai.TypeString,
					Description: "The path to the source file",
				},
				"destination": {
					Type:        genai.TypeString,
					Description: "The path to copy the file to",
				},
			},
			Required: []string{"source", "destination"},
		},
	}
}

func (t *CopyTool) Validate(args map[string]any) error {
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

func (t *CopyTool) Execute(ctx context.Context, args map[string]any) (Outcome, error) {
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

	info, err := os.Stat(validSource)
	if err != nil {
		return FailureOutcome(fmt.Sprintf("error reading source: %s", err)), nil
	}
	if info.IsDir() {
		return FailureOutcome(fmt.Sprintf("%s is a directory; copy files individually", validSource)), nil
	}

	data, err := os.ReadFile(validSource)
	if err != nil {
		return FailureOutcome(fmt.Sprintf("error reading source: %s", err)), nil
	}

	// Capture the destination's prior state before touching it.
	var reverse *ReversePayload
	if oldData, readErr := os.ReadFile(validDest); readErr == nil {
		reverse = RestorePayload(validDest, oldData, true)
	} else if os.IsNotExist(readErr) {
		reverse = RestorePayload(validDest, nil, false)
	} else {
		return FailureOutcome(fmt.Sprintf("error reading destination: %s", readErr)), nil
	}

	if err := os.MkdirAll(filepath.Dir(validDest), 0755); err != nil {
		return FailureOutcome(fmt.Sprintf("error creating directories: %s", err)), nil
	}
	if err := fileutil.AtomicWrite(validDest, data, info.Mode().Perm()); err != nil {
		return FailureOutcome(fmt.Sprintf("error writing destination: %s", err)), nil
	}

	return Outcome{
		Success: true,
		Message: fmt.Sprintf("Copied %s to %s (%d bytes)", validSource, validDest, len(data)),
		Reverse: reverse,
	}, nil
}
