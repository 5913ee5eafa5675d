package tools

import (
	"gofer/internal/config"
	"gofer/internal/ssh"
)

// DefaultRegistry builds the standard tool set for a working directory.
// Mutating tools get the configured allowed directories; command tools get
// the configured timeout.
func DefaultRegistry(workDir string, cfg *config.Config) *Registry {
	registry := NewRegistry()

	read := NewReadTool(workDir)
	write := NewWriteTool(workDir)
	edit := NewEditTool(workDir)
	clear := NewClearTool(workDir)
	del := NewDeleteTool(workDir)
	restore := NewRestoreTool(workDir)
	mkdir := NewMkdirTool(workDir)
	cp := NewCopyTool(workDir)
	mv := NewMoveTool(workDir)
	listDir := NewListDirTool(workDir)
	search := NewSearchTool(workDir)
	command := NewCommandTool(workDir)
	git := NewGitTool(workDir)

	if cfg != nil {
		if dirs := cfg.Tools.AllowedDirs; len(dirs) > 0 {
			write.SetAllowedDirs(dirs)
			edit.SetAllowedDirs(dirs)
			clear.SetAllowedDirs(dirs)
			del.SetAllowedDirs(dirs)
			restore.SetAllowedDirs(dirs)
			mkdir.SetAllowedDirs(dirs)
			cp.SetAllowedDirs(dirs)
			mv.SetAllowedDirs(dirs)
			listDir.SetAllowedDirs(dirs)
			search.SetAllowedDirs(dirs)
		}
		command.SetTimeout(cfg.Tools.CommandTimeout)
		git.SetTimeout(cfg.Tools.CommandTimeout)
	}

	registry.MustRegister(read)
	registry.MustRegister(write)
	registry.MustRegister(edit)
	registry.MustRegister(clear)
	registry.MustRegister(del)
	registry.MustRegister(restore)
	registry.MustRegister(mkdir)
	registry.MustRegister(cp)
	registry.MustRegister(mv)
	registry.MustRegister(listDir)
	registry.MustRegister(search)
	registry.MustRegister(command)
	registry.MustRegister(git)
	registry.MustRegister(NewWebFetchTool())

	lintCmd, testCmd := "go vet ./...", "go test ./..."
	if cfg != nil {
		if cfg.Tools.LintCommand != "" {
			lintCmd = cfg.Tools.LintCommand
		}
		if cfg.Tools.TestCommand != "" {
			testCmd = cfg.Tools.TestCommand
		}
	}
	registry.MustRegister(NewLintTool(workDir, lintCmd))
	registry.MustRegister(NewTestTool(workDir, testCmd))

	registry.MustRegister(NewRemoteExecTool(sshConfigFrom(cfg)))

	return registry
}

func sshConfigFrom(cfg *config.Config) *ssh.Config {
	sc := ssh.DefaultConfig()
	if cfg == nil {
		return sc
	}
	if cfg.SSH.Host != "" {
		sc.Host = cfg.SSH.Host
	}
	if cfg.SSH.Port != 0 {
		sc.Port = cfg.SSH.Port
	}
	if cfg.SSH.User != "" {
		sc.User = cfg.SSH.User
	}
	if cfg.SSH.KeyPath != "" {
		sc.KeyPath = cfg.SSH.KeyPath
	}
	if cfg.SSH.Timeout != 0 {
		sc.Timeout = cfg.SSH.Timeout
	}
	return sc
}
