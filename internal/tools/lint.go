package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"google.golang.org/genai"
)

// checkTool runs a preconfigured analysis command and reports its verdict.
// run_linter and run_tests are both instances of it; the command comes from
// configuration, not from the model, so no command validation is needed.
type checkTool struct {
	name        string
	description string
	workDir     string
	command     string
	timeout     time.Duration
}

// NewLintTool creates the run_linter tool with the configured lint command.
func NewLintTool(workDir, command string) Tool {
	return &checkTool{
		name:        "run_linter",
		description: "Runs the project's configured linter and reports problems found.",
		workDir:     workDir,
		command:     command,
		timeout:     5 * time.Minute,
	}
}

// NewTestTool creates the run_tests tool with the configured test command.
func NewTestTool(workDir, command string) Tool {
	return &checkTool{
		name:        "run_tests",
		description: "Runs the project's configured test suite and reports failures.",
		workDir:     workDir,
		command:     command,
		timeout:     10 * time.Minute,
	}
}

func (t *checkTool) Name() string {
	return t.name
}

func (t *checkTool) Description() string {
	return t.description
}

func (t *checkTool) Reversibility() Reversibility {
	// Analysis only. Test suites may touch caches, but nothing the undo
	// manager should track.
	return Irreversible
}

func (t *checkTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"package": {
					Type:        genai.TypeString,
					Description: "Optional package or path argument appended to the configured command",
				},
			},
			Required: []string{},
		},
	}
}

func (t *checkTool) Validate(args map[string]any) error {
	if t.command == "" {
		return NewValidationError("command", fmt.Sprintf("no command configured for %s", t.name))
	}
	return nil
}

func (t *checkTool) Execute(ctx context.Context, args map[string]any) (Outcome, error) {
	command := t.command
	if pkg, ok := GetString(args, "package"); ok && pkg != "" {
		command += " " + pkg
	}

	execCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "bash", "-c", command)
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
			return FailureOutcome(fmt.Sprintf("%s timed out after %s", t.name, t.timeout)), nil
		case errors.As(runErr, &exitErr):
			exitCode = exitErr.ExitCode()
		default:
			return FailureOutcome(fmt.Sprintf("failed to run %s: %s", command, runErr)), nil
		}
	}

	output := formatCommandOutput(exitCode, stdout.String(), stderr.String())
	if exitCode != 0 {
		return Outcome{
			Success: false,
			Message: fmt.Sprintf("%s found problems (exit code %d)", command, exitCode),
			Content: output,
		}, nil
	}

	return SuccessWithContent(fmt.Sprintf("%s passed", command), output), nil
}
