package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"gofer/internal/logging"
	"gofer/internal/tools"
)

const maxRecordedMessage = 1000

// Log is the session's action memory. Appends happen on every dispatch;
// removal happens only from the newest end, and only through the undo
// manager. Persistence to disk is best-effort and asynchronous.
type Log struct {
	sessionID string
	dir       string // empty disables persistence
	entries   []*Action
	nextID    uint64
	mu        sync.RWMutex
	wg        sync.WaitGroup
}

// NewLog creates an in-memory action log with a fresh session ID.
func NewLog() *Log {
	return &Log{
		sessionID: uuid.New().String(),
		nextID:    1,
	}
}

// NewPersistentLog creates a log that mirrors itself to
// configDir/sessions/<session-id>.json after every change.
func NewPersistentLog(configDir string) (*Log, error) {
	sessionDir := filepath.Join(configDir, "sessions")
	if err := os.MkdirAll(sessionDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	log := NewLog()
	log.dir = sessionDir
	return log, nil
}

// SessionID returns the session identifier for this log.
func (l *Log) SessionID() string {
	return l.sessionID
}

// Record appends a new action and returns it with its assigned ID.
func (l *Log) Record(tool string, args map[string]any, outcome tools.Outcome, class tools.Reversibility) *Action {
	l.mu.Lock()

	action := &Action{
		ID:            l.nextID,
		Timestamp:     time.Now(),
		Tool:          tool,
		Args:          SanitizeArgs(args),
		Success:       outcome.Success,
		Message:       TruncateMessage(outcome.Message, maxRecordedMessage),
		Reversibility: class,
		Reverse:       outcome.Reverse,
	}
	l.nextID++
	l.entries = append(l.entries, action)

	l.mu.Unlock()

	l.saveAsync()
	return action
}

// PopLast removes and returns the most recent action. Only the undo manager
// calls this; everything else observes the log through Recent.
func (l *Log) PopLast() (*Action, bool) {
	l.mu.Lock()

	if len(l.entries) == 0 {
		l.mu.Unlock()
		return nil, false
	}
	last := l.entries[len(l.entries)-1]
	l.entries = l.entries[:len(l.entries)-1]

	l.mu.Unlock()

	l.saveAsync()
	return last, true
}

// PushBack reinstates an action previously removed by PopLast. Used when an
// undo attempt is refused so the entry stays at the top of the log.
func (l *Log) PushBack(action *Action) {
	l.mu.Lock()
	l.entries = append(l.entries, action)
	l.mu.Unlock()

	l.saveAsync()
}

// Recent returns up to n actions, newest first, without consuming them.
// The returned slice is a copy; callers may not mutate log state through it.
func (l *Log) Recent(n int) []*Action {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || len(l.entries) == 0 {
		return nil
	}
	if n > len(l.entries) {
		n = len(l.entries)
	}

	results := make([]*Action, n)
	for i := 0; i < n; i++ {
		results[i] = l.entries[len(l.entries)-1-i]
	}
	return results
}

// Last returns the most recent action without removing it.
func (l *Log) Last() (*Action, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.entries) == 0 {
		return nil, false
	}
	return l.entries[len(l.entries)-1], true
}

// Len returns the number of recorded actions.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Flush waits for pending async saves. Call before shutdown.
func (l *Log) Flush() {
	l.wg.Wait()
}

func (l *Log) saveAsync() {
	if l.dir == "" {
		return
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := l.save(); err != nil {
			logging.Warn("failed to persist action log", "session", l.sessionID, "error", err)
		}
	}()
}

func (l *Log) save() error {
	l.mu.RLock()
	data, err := json.MarshalIndent(l.entries, "", "  ")
	l.mu.RUnlock()
	if err != nil {
		return err
	}
	path := filepath.Join(l.dir, l.sessionID+".json")
	return os.WriteFile(path, data, 0600)
}
