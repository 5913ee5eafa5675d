package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GitTool runs git subcommands in the working directory. Irreversible as a
// class: commits, checkouts and merges rewrite repository state in ways the
// undo manager does not model.
type GitTool struct {
	workDir string
	timeout time.Duration
}

// NewGitTool creates a new GitTool instance.
func NewGitTool(workDir string) *GitTool {
	return &GitTool{
		workDir: workDir,
		timeout: DefaultCommandTimeout,
	}
}

// SetTimeout sets the timeout for git commands.
func (t *GitTool) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		t.timeout = timeout
	}
}

func (t *GitTool) Name() string {
	return "git_command"
}

func (t *GitTool) Description() string {
	return "Runs a git subcommand (e.g. 'status --porcelain', 'diff HEAD', 'add file.go', 'commit -m \"msg\"') in the working directory."
}

func (t *GitTool) Reversibility() Reversibility {
	return Irreversible
}

func (t *GitTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"args": {
					Type:        genai.TypeString,
					Description: "The git arguments, without the leading 'git' (e.g. 'status --porcelain')",
				},
			},
			Required: []string{"args"},
		},
	}
}

func (t *GitTool) Validate(args map[string]any) error {
	raw, ok := GetString(args, "args")
	if !ok || strings.TrimSpace(raw) == "" {
		return NewValidationError("args", "is required")
	}
	parts, err := splitCommandLine(raw)
	if err != nil {
		return NewValidationError("args", err.Error())
	}
	if len(parts) == 0 {
		return NewValidationError("args", "no subcommand given")
	}
	return nil
}

func (t *GitTool) Execute(ctx context.Context, args map[string]any) (Outcome, error) {
	raw, _ := GetString(args, "args")

	parts, err := splitCommandLine(raw)
	if err != nil {
		return FailureOutcome(fmt.Sprintf("invalid arguments: %s", err)), nil
	}

	execCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "git", parts...)
	cmd.Dir = t.workDir
	cmd.Env = buildSafeEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(execCtx.Err(), context.DeadlineExceeded):
			return FailureOutcome(fmt.Sprintf("git command timed out after %s", t.timeout)), nil
		case errors.As(runErr, &exitErr):
			exitCode = exitErr.ExitCode()
		default:
			return FailureOutcome(fmt.Sprintf("failed to run git: %s", runErr)), nil
		}
	}

	output := formatCommandOutput(exitCode, stdout.String(), stderr.String())
	if exitCode != 0 {
		return Outcome{
			Success: false,
			Message: fmt.Sprintf("git %s exited with code %d", parts[0], exitCode),
			Content: output,
		}, nil
	}

	return SuccessWithContent(fmt.Sprintf("git %s succeeded", parts[0]), output), nil
}

// splitCommandLine splits a command line respecting single and double quotes,
// so 'commit -m "fix the thing"' becomes three arguments.
func splitCommandLine(s string) ([]string, error) {
	var parts []string
	var current strings.Builder
	inSingle, inDouble := false, false
	hasToken := false

	for _, r := range s {
		switch {
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			hasToken = true
		case r == '"' && !inSingle:
			inDouble = !inDouble
			hasToken = true
		case (r == ' ' || r == '\t') && !inSingle && !inDouble:
			if hasToken {
				parts = append(parts, current.String())
				current.Reset()
				hasToken = false
			}
		default:
			current.WriteRune(r)
			hasToken = true
		}
	}
	if inSingle || inDouble {
		return nil, fmt.Errorf("unterminated quote")
	}
	if hasToken {
		parts = append(parts, current.String())
	}
	return parts, nil
}
