package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gofer/internal/agent"
	"gofer/internal/config"
	"gofer/internal/history"
	"gofer/internal/logging"
	"gofer/internal/planner"
	"gofer/internal/tools"
	"gofer/internal/ui"
	"gofer/internal/watcher"
)

var (
	version = "0.1.0"

	cfgFile       string
	modelName     string
	provider      string
	preset        string
	workDir       string
	maxIterations int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gofer",
		Short: "An AI coding agent with an undoable action log",
		Long: `Gofer is a terminal coding agent. It plans one action at a time,
executes it through a registry of workspace tools, and records everything
in an action log so file changes can be undone in reverse order.`,
		RunE: runInteractive,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/gofer/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&modelName, "model", "", "model to use")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "planner backend: gemini or ollama")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "model preset (fast, deep, local)")
	rootCmd.PersistentFlags().StringVarP(&workDir, "workdir", "w", "", "working directory (default is the current directory)")
	rootCmd.PersistentFlags().IntVar(&maxIterations, "max-iterations", 0, "max reason/act cycles per request")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "exec <goal>",
		Short: "Run a single request without the interactive UI",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runExec,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "tools",
		Short: "List the registered tools and their reversibility",
		RunE:  runTools,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gofer version %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFrom(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg.Version = version

	if preset != "" && !cfg.ApplyPreset(preset) {
		return nil, fmt.Errorf("unknown preset %q (have: %v)", preset, config.PresetNames())
	}
	if provider != "" {
		cfg.API.Provider = provider
	}
	if modelName != "" {
		cfg.Model.Name = modelName
	}
	if maxIterations > 0 {
		cfg.Session.MaxIterations = maxIterations
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveWorkDir() (string, error) {
	if workDir != "" {
		return workDir, nil
	}
	return os.Getwd()
}

// buildSession assembles the registry, log, planner and watcher for one run.
func buildSession(ctx context.Context, cfg *config.Config, opts ...agent.Option) (*agent.Session, string, error) {
	dir, err := resolveWorkDir()
	if err != nil {
		return nil, "", err
	}

	configDir, err := config.Dir()
	if err != nil {
		return nil, "", err
	}
	if cfg.Logging.ToFile {
		if err := logging.EnableFileLogging(configDir, logging.Level(cfg.Logging.Level)); err != nil {
			fmt.Fprintf(os.Stderr, "warning: file logging disabled: %v\n", err)
		}
	}

	var log *history.Log
	if cfg.Session.PersistLog {
		log, err = history.NewPersistentLog(configDir)
		if err != nil {
			return nil, "", fmt.Errorf("failed to set up action log: %w", err)
		}
	} else {
		log = history.NewLog()
	}

	p, err := planner.New(ctx, cfg)
	if err != nil {
		return nil, "", err
	}

	w, err := watcher.New(dir, watcher.Config{
		Enabled:    cfg.Watcher.Enabled,
		DebounceMs: cfg.Watcher.DebounceMs,
		MaxWatches: cfg.Watcher.MaxWatches,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: file watching disabled: %v\n", err)
	} else if err := w.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: file watching disabled: %v\n", err)
	} else {
		opts = append(opts, agent.WithWatcher(w))
	}

	registry := tools.DefaultRegistry(dir, cfg)
	session, err := agent.NewSession(dir, cfg, registry, log, p, opts...)
	if err != nil {
		return nil, "", err
	}
	return session, dir, nil
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sink := ui.NewSink()
	session, dir, err := buildSession(context.Background(), cfg, agent.WithSink(sink))
	if err != nil {
		return err
	}
	defer session.Close()
	defer logging.Close()

	return ui.Run(session, dir, cfg.UI.HighlightStyle, sink)
}

func runExec(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, _, err := buildSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer session.Close()
	defer logging.Close()

	goal := args[0]
	for _, extra := range args[1:] {
		goal += " " + extra
	}

	message, err := session.HandleRequest(ctx, goal)
	if err != nil {
		return err
	}
	fmt.Println(message)
	return nil
}

func runTools(cmd *cobra.Command, args []string) error {
	dir, err := resolveWorkDir()
	if err != nil {
		return err
	}
	cfg, err := config.LoadFrom(cfgFile)
	if err != nil {
		return err
	}

	registry := tools.DefaultRegistry(dir, cfg)
	for _, name := range registry.Names() {
		fmt.Printf("%-14s %s\n", name, registry.Reversibility(name))
	}
	return nil
}
