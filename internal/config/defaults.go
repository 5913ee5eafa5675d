package config

import "time"

// DefaultConfig returns the configuration used when no file or env overrides exist.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Provider:      "gemini",
			OllamaBaseURL: "http://localhost:11434",
			HTTPTimeout:   120 * time.Second,
		},
		Model: ModelConfig{
			Name:            "gemini-2.5-flash",
			Temperature:     0.2,
			MaxOutputTokens: 8192,
		},
		Tools: ToolsConfig{
			CommandTimeout: 30 * time.Second,
			LintCommand:    "go vet ./...",
			TestCommand:    "go test ./...",
		},
		Session: SessionConfig{
			MaxIterations: 10,
			HistoryWindow: 20,
			PersistLog:    true,
		},
		Watcher: WatcherConfig{
			Enabled:    true,
			DebounceMs: 500,
			MaxWatches: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			ToFile: true,
		},
		UI: UIConfig{
			HighlightStyle: "monokai",
		},
		SSH: SSHConfig{
			Port:    22,
			Timeout: 30 * time.Second,
		},
	}
}
