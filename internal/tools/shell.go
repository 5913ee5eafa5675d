package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"google.golang.org/genai"

	"gofer/internal/security"
)

// SafeEnvVars is the whitelist of environment variables passed to shell
// commands. Keeps API keys and other secrets out of child processes.
var SafeEnvVars = []string{
	"PATH",
	"HOME",
	"USER",
	"SHELL",
	"TERM",
	"LANG",
	"LC_ALL",
	"LC_CTYPE",
	"TMPDIR",
	"TMP",
	"TEMP",
	"EDITOR",
	"PAGER",
	"XDG_CONFIG_HOME",
	"XDG_DATA_HOME",
	"XDG_CACHE_HOME",
	// Go toolchain
	"GOPATH",
	"GOROOT",
	"GOPROXY",
	"GOFLAGS",
	// Node/npm
	"NODE_PATH",
	// Python
	"PYTHONPATH",
	"VIRTUAL_ENV",
	// Git identity
	"GIT_AUTHOR_NAME",
	"GIT_AUTHOR_EMAIL",
	"GIT_COMMITTER_NAME",
	"GIT_COMMITTER_EMAIL",
}

const (
	// DefaultCommandTimeout bounds foreground command execution.
	DefaultCommandTimeout = 30 * time.Second
	// maxCommandOutput truncates captured stdout/stderr.
	maxCommandOutput = 30000
)

// CommandTool executes shell commands in the working directory. Irreversible:
// arbitrary processes have arbitrary side effects.
type CommandTool struct {
	workDir   string
	timeout   time.Duration
	validator *security.CommandValidator
}

// NewCommandTool creates a new CommandTool instance.
func NewCommandTool(workDir string) *CommandTool {
	return &CommandTool{
		workDir:   workDir,
		timeout:   DefaultCommandTimeout,
		validator: security.NewCommandValidator(),
	}
}

// SetTimeout sets the timeout for foreground commands.
func (t *CommandTool) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		t.timeout = timeout
	}
}

func (t *CommandTool) Name() string {
	return "run_command"
}

func (t *CommandTool) Description() string {
	return "Executes a shell command in the working directory and returns exit code, stdout and stderr. Destructive commands are blocked."
}

func (t *CommandTool) Reversibility() Reversibility {
	return Irreversible
}

func (t *CommandTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"command": {
					Type:        genai.TypeString,
					Description: "The shell command to execute",
				},
				"description": {
					Type:        genai.TypeString,
					Description: "A brief description of what the command does",
				},
			},
			Required: []string{"command"},
		},
	}
}

func (t *CommandTool) Validate(args map[string]any) error {
	command, ok := GetString(args, "command")
	if !ok || command == "" {
		return NewValidationError("command", "is required")
	}
	if err := t.validator.Validate(command); err != nil {
		return NewValidationError("command", fmt.Sprintf("blocked: %s", err))
	}
	return nil
}

func (t *CommandTool) Execute(ctx context.Context, args map[string]any) (Outcome, error) {
	command, _ := GetString(args, "command")

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
			return FailureOutcome(fmt.Sprintf("command timed out after %s: %s", t.timeout, command)), nil
		case errors.Is(execCtx.Err(), context.Canceled):
			return FailureOutcome("command cancelled"), nil
		case errors.As(runErr, &exitErr):
			exitCode = exitErr.ExitCode()
		default:
			return FailureOutcome(fmt.Sprintf("failed to run command: %s", runErr)), nil
		}
	}

	output := formatCommandOutput(exitCode, stdout.String(), stderr.String())

	if exitCode != 0 {
		return Outcome{
			Success: false,
			Message: fmt.Sprintf("command exited with code %d", exitCode),
			Content: output,
		}, nil
	}

	return SuccessWithContent(fmt.Sprintf("Command succeeded: %s", command), output), nil
}

func formatCommandOutput(exitCode int, stdout, stderr string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Exit Code: %d\n", exitCode)
	if stdout != "" {
		b.WriteString("STDOUT:\n")
		b.WriteString(truncateOutput(stdout))
		if !strings.HasSuffix(stdout, "\n") {
			b.WriteByte('\n')
		}
	}
	if stderr != "" {
		b.WriteString("STDERR:\n")
		b.WriteString(truncateOutput(stderr))
		if !strings.HasSuffix(stderr, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func truncateOutput(s string) string {
	if len(s) <= maxCommandOutput {
		return s
	}
	return s[:maxCommandOutput] + "\n... (output truncated)"
}

// buildSafeEnv creates a sanitized environment for command execution. Only
// whitelisted variables are passed through.
func buildSafeEnv() []string {
	env := make([]string, 0, len(SafeEnvVars))
	hasPath, hasTerm := false, false
	for _, key := range SafeEnvVars {
		if val := os.Getenv(key); val != "" {
			env = append(env, key+"="+val)
			if key == "PATH" {
				hasPath = true
			}
			if key == "TERM" {
				hasTerm = true
			}
		}
	}
	if !hasPath {
		env = append(env, "PATH=/usr/local/bin:/usr/bin:/bin")
	}
	if !hasTerm {
		env = append(env, "TERM=xterm-256color")
	}
	return env
}
