package tools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/genai"

	"gofer/internal/ssh"
)

// RemoteExecTool runs commands on remote hosts over SSH. Connections are
// cached per user@host:port. Irreversible: remote side effects are out of
// reach of the undo manager.
type RemoteExecTool struct {
	sshConfig *ssh.Config
	clients   map[string]*ssh.Client
	mu        sync.Mutex
}

// NewRemoteExecTool creates a new RemoteExecTool using defaults from cfg.
// cfg may be nil.
func NewRemoteExecTool(cfg *ssh.Config) *RemoteExecTool {
	if cfg == nil {
		cfg = ssh.DefaultConfig()
	}
	return &RemoteExecTool{
		sshConfig: cfg,
		clients:   make(map[string]*ssh.Client),
	}
}

func (t *RemoteExecTool) Name() string {
	return "remote_exec"
}

func (t *RemoteExecTool) Description() string {
	return "Executes a command on a remote host over SSH and returns its output and exit code."
}

func (t *RemoteExecTool) Reversibility() Reversibility {
	return Irreversible
}

func (t *RemoteExecTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"host": {
					Type:        genai.TypeString,
					Description: "The remote host to connect to",
				},
				"command": {
					Type:        genai.TypeString,
					Description: "The command to run on the remote host",
				},
				"user": {
					Type:        genai.TypeString,
					Description: "The SSH user (defaults to the configured user)",
				},
				"port": {
					Type:        genai.TypeInteger,
					Description: "The SSH port (defaults to 22)",
				},
			},
			Required: []string{"host", "command"},
		},
	}
}

func (t *RemoteExecTool) Validate(args map[string]any) error {
	host, ok := GetString(args, "host")
	if !ok || host == "" {
		return NewValidationError("host", "is required")
	}
	command, ok := GetString(args, "command")
	if !ok || command == "" {
		return NewValidationError("command", "is required")
	}
	return nil
}

func (t *RemoteExecTool) Execute(ctx context.Context, args map[string]any) (Outcome, error) {
	host, _ := GetString(args, "host")
	command, _ := GetString(args, "command")
	user := GetStringDefault(args, "user", t.sshConfig.User)
	port := GetIntDefault(args, "port", t.sshConfig.Port)

	client := t.clientFor(host, user, port)

	output, exitCode, err := client.Run(ctx, command)
	if err != nil {
		return FailureOutcome(fmt.Sprintf("remote execution failed: %s", err)), nil
	}

	if exitCode != 0 {
		return Outcome{
			Success: false,
			Message: fmt.Sprintf("remote command exited with code %d on %s", exitCode, host),
			Content: output,
		}, nil
	}

	return SuccessWithContent(
		fmt.Sprintf("Remote command succeeded on %s@%s:%d", user, host, port),
		output,
	), nil
}

// Close shuts down all cached connections.
func (t *RemoteExecTool) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var firstErr error
	for key, client := range t.clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(t.clients, key)
	}
	return firstErr
}

func (t *RemoteExecTool) clientFor(host, user string, port int) *ssh.Client {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := fmt.Sprintf("%s@%s:%d", user, host, port)
	if client, ok := t.clients[key]; ok {
		return client
	}

	cfg := *t.sshConfig
	cfg.Host = host
	cfg.User = user
	cfg.Port = port
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := ssh.NewClient(&cfg)
	t.clients[key] = client
	return client
}
