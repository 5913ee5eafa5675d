package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingAuth is returned when the active planner backend has no credentials.
var ErrMissingAuth = errors.New("no API key configured for the active provider")

// Config represents the main application configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Model   ModelConfig   `yaml:"model"`
	Tools   ToolsConfig   `yaml:"tools"`
	Session SessionConfig `yaml:"session"`
	Watcher WatcherConfig `yaml:"watcher"`
	Logging LoggingConfig `yaml:"logging"`
	UI      UIConfig      `yaml:"ui"`
	SSH     SSHConfig     `yaml:"ssh"`

	// Runtime version information, set by the CLI.
	Version string `yaml:"-"`
}

// APIConfig holds planner backend credentials and endpoints.
type APIConfig struct {
	// Active provider: gemini or ollama (default: gemini).
	Provider string `yaml:"provider"`

	GeminiKey string `yaml:"gemini_key,omitempty"`

	// Ollama server URL (default: http://localhost:11434).
	OllamaBaseURL string `yaml:"ollama_base_url,omitempty"`
	// Optional, for remote Ollama servers behind auth.
	OllamaKey string `yaml:"ollama_key,omitempty"`

	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

// ModelConfig holds model selection and generation settings.
type ModelConfig struct {
	Name            string  `yaml:"name"`
	Temperature     float32 `yaml:"temperature"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
}

// ToolsConfig holds tool execution settings.
type ToolsConfig struct {
	// CommandTimeout bounds a single run_command invocation.
	CommandTimeout time.Duration `yaml:"command_timeout"`
	// LintCommand and TestCommand are what run_linter/run_tests invoke.
	LintCommand string `yaml:"lint_command"`
	TestCommand string `yaml:"test_command"`
	// AllowedDirs are extra directories mutating tools may touch,
	// in addition to the working directory.
	AllowedDirs []string `yaml:"allowed_dirs"`
}

// SessionConfig holds agent session settings.
type SessionConfig struct {
	// MaxIterations bounds the reason/act cycles in one user turn.
	MaxIterations int `yaml:"max_iterations"`
	// HistoryWindow is how many recent actions are shown to the planner.
	HistoryWindow int `yaml:"history_window"`
	// PersistLog enables writing the session action log to disk.
	PersistLog bool `yaml:"persist_log"`
}

// WatcherConfig holds filesystem watcher settings.
type WatcherConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMs int  `yaml:"debounce_ms"`
	MaxWatches int  `yaml:"max_watches"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	ToFile bool   `yaml:"to_file"`
}

// UIConfig holds terminal UI settings.
type UIConfig struct {
	HighlightStyle string `yaml:"highlight_style"`
}

// SSHConfig holds remote execution settings for the remote_exec tool.
type SSHConfig struct {
	Host    string        `yaml:"host,omitempty"`
	Port    int           `yaml:"port,omitempty"`
	User    string        `yaml:"user,omitempty"`
	KeyPath string        `yaml:"key_path,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Validate checks the configuration for fatal problems.
func (c *Config) Validate() error {
	switch c.API.Provider {
	case "gemini":
		if c.API.GeminiKey == "" {
			return ErrMissingAuth
		}
	case "ollama":
		// Local Ollama needs no key.
	default:
		return fmt.Errorf("unknown provider: %q (want gemini or ollama)", c.API.Provider)
	}

	if c.Session.MaxIterations <= 0 {
		return fmt.Errorf("session.max_iterations must be positive, got %d", c.Session.MaxIterations)
	}
	return nil
}
