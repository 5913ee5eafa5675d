// Package git reads repository state for the perception phase of the agent
// loop. It shells out to the git binary; no repo means empty snapshots, not
// errors.
package git

import (
	"os/exec"
	"strings"
)

// Snapshot is the repository state at one point in time.
type Snapshot struct {
	IsRepo bool
	Branch string
	// Status is the raw `git status --porcelain` output, empty when clean.
	Status string
}

// TakeSnapshot captures the current repository state of workDir.
func TakeSnapshot(workDir string) Snapshot {
	if !IsRepo(workDir) {
		return Snapshot{}
	}
	return Snapshot{
		IsRepo: true,
		Branch: currentBranch(workDir),
		Status: porcelainStatus(workDir),
	}
}

// IsRepo checks whether workDir is inside a git repository.
func IsRepo(workDir string) bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = workDir
	return cmd.Run() == nil
}

func currentBranch(workDir string) string {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = workDir
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

func porcelainStatus(workDir string) string {
	cmd := exec.Command("git", "status", "--porcelain", "-uall")
	cmd.Dir = workDir
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(output), "\n")
}

// DirtyFiles parses a porcelain status into the list of touched paths.
func (s Snapshot) DirtyFiles() []string {
	if s.Status == "" {
		return nil
	}
	var files []string
	for _, line := range strings.Split(s.Status, "\n") {
		if len(line) < 4 {
			continue
		}
		path := strings.TrimSpace(line[3:])
		if idx := strings.Index(path, " -> "); idx >= 0 {
			path = path[idx+4:]
		}
		files = append(files, path)
	}
	return files
}
