package security

import (
	"fmt"
	"regexp"
	"strings"
)

// CommandValidator rejects shell commands that could destroy the workspace
// or the host. It is a blocklist, not a sandbox: cooperating tools only.
type CommandValidator struct {
	blockedPatterns   []*regexp.Regexp
	blockedCommands   []string
	blockedSubstrings []string
}

// NewCommandValidator creates a CommandValidator with the default blocklist.
func NewCommandValidator() *CommandValidator {
	cv := &CommandValidator{
		blockedCommands: []string{
			":(){:|:&};:",
			":(){ :|:& };:",
		},
		blockedSubstrings: []string{
			// Destructive filesystem operations
			"rm -rf /",
			"rm -rf /*",
			"rm -rf ~",
			"rm -rf $HOME",
			"rm -rf ${HOME}",
			"rm -fr /",
			// Disk operations
			"mkfs.",
			"mkfs ",
			"> /dev/sda",
			"> /dev/nvme",
			"dd if=/dev/zero of=/dev/sd",
			"dd if=/dev/zero of=/dev/nvme",
			"dd if=/dev/urandom of=/dev/sd",
			// Permission attacks
			"chmod -R 777 /",
			"chmod 777 /",
			"chown -R root /",
			// Reverse shells
			"nc -e",
			"ncat -e",
			"bash -i >& /dev/tcp",
			"/dev/tcp/",
			"/dev/udp/",
			// Credential files
			"/etc/shadow",
			".ssh/id_rsa",
			".ssh/id_ed25519",
			".aws/credentials",
			".kube/config",
		},
	}

	cv.blockedPatterns = []*regexp.Regexp{
		// Fork bombs
		regexp.MustCompile(`:\s*\(\s*\)\s*\{`),
		regexp.MustCompile(`\$\{?0\}?\s*[&|]\s*\$\{?0\}?`),
		// rm -rf / variants and variable expansions
		regexp.MustCompile(`rm\s+(-[rRf]+\s+)+/\s*$`),
		regexp.MustCompile(`rm\s+(-[rRf]+\s+)+\$`),
		// dd onto block devices
		regexp.MustCompile(`dd\s+.*of=/dev/[snhv]d`),
		// download piped straight into a shell
		regexp.MustCompile(`(?i)(wget|curl)\s+.*\|\s*(ba)?sh`),
		regexp.MustCompile(`base64\s+-d.*\|\s*(ba)?sh`),
	}

	return cv
}

// Validate returns an error if the command matches the blocklist.
func (cv *CommandValidator) Validate(command string) error {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return fmt.Errorf("empty command")
	}

	for _, blocked := range cv.blockedCommands {
		if trimmed == blocked {
			return fmt.Errorf("blocked command: %s", blocked)
		}
	}

	lower := strings.ToLower(trimmed)
	for _, sub := range cv.blockedSubstrings {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return fmt.Errorf("command contains blocked pattern: %s", sub)
		}
	}

	for _, pattern := range cv.blockedPatterns {
		if pattern.MatchString(trimmed) {
			return fmt.Errorf("command matches blocked pattern: %s", pattern.String())
		}
	}

	return nil
}
