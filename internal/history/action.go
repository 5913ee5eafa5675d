// Package history is the agent's action memory: an append-only record of
// every dispatched action, consumed from the newest end only by undo.
package history

import (
	"time"

	"gofer/internal/tools"
)

// Action is one recorded tool dispatch.
type Action struct {
	// ID is assigned by the log, strictly increasing within a session.
	ID        uint64         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Tool      string         `json:"tool"`
	Args      map[string]any `json:"args"`

	Success bool   `json:"success"`
	Message string `json:"message"`

	Reversibility tools.Reversibility   `json:"reversibility"`
	Reverse       *tools.ReversePayload `json:"reverse,omitempty"`

	// NeedsReview is set when an undo attempt for this action failed and
	// the workspace may be in a mixed state.
	NeedsReview bool `json:"needs_review,omitempty"`
}

// CanUndo reports whether this action carries enough information to reverse.
func (a *Action) CanUndo() bool {
	return a.Success && a.Reverse != nil && a.Reversibility.CanUndo()
}

// sensitiveKeys are argument names whose values never reach the log.
var sensitiveKeys = map[string]bool{
	"password":    true,
	"secret":      true,
	"token":       true,
	"api_key":     true,
	"apikey":      true,
	"credentials": true,
	"auth":        true,
	"passphrase":  true,
}

// SanitizeArgs copies args with sensitive values redacted.
func SanitizeArgs(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	sanitized := make(map[string]any, len(args))
	for k, v := range args {
		if sensitiveKeys[k] {
			sanitized[k] = "[REDACTED]"
		} else {
			sanitized[k] = v
		}
	}
	return sanitized
}

// TruncateMessage bounds a recorded message to maxLen.
func TruncateMessage(message string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 1000
	}
	if len(message) <= maxLen {
		return message
	}
	return message[:maxLen] + "...[truncated]"
}
