package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"gofer/internal/tools"
)

func recordN(t *testing.T, log *Log, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		log.Record("read_file", map[string]any{"path": "a.txt"},
			tools.SuccessOutcome("ok"), tools.Irreversible)
	}
}

func TestLog_IDsAreMonotonicFromOne(t *testing.T) {
	log := NewLog()

	first := log.Record("write_file", nil, tools.SuccessOutcome("ok"), tools.FullyReversible)
	second := log.Record("write_file", nil, tools.SuccessOutcome("ok"), tools.FullyReversible)

	if first.ID != 1 {
		t.Errorf("first action ID = %d, want 1", first.ID)
	}
	if second.ID != 2 {
		t.Errorf("second action ID = %d, want 2", second.ID)
	}
}

func TestLog_IDsNeverReusedAfterPop(t *testing.T) {
	log := NewLog()
	recordN(t, log, 2)

	if _, ok := log.PopLast(); !ok {
		t.Fatal("expected PopLast to succeed")
	}
	next := log.Record("read_file", nil, tools.SuccessOutcome("ok"), tools.Irreversible)
	if next.ID != 3 {
		t.Errorf("ID after pop = %d, want 3", next.ID)
	}
}

func TestLog_RecentNewestFirst(t *testing.T) {
	log := NewLog()
	log.Record("first", nil, tools.SuccessOutcome("ok"), tools.Irreversible)
	log.Record("second", nil, tools.SuccessOutcome("ok"), tools.Irreversible)
	log.Record("third", nil, tools.SuccessOutcome("ok"), tools.Irreversible)

	recent := log.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("Recent(2) returned %d entries", len(recent))
	}
	if recent[0].Tool != "third" || recent[1].Tool != "second" {
		t.Errorf("Recent order = [%s, %s], want [third, second]", recent[0].Tool, recent[1].Tool)
	}
	if log.Len() != 3 {
		t.Errorf("Recent must not consume entries, Len = %d", log.Len())
	}
}

func TestLog_RecentLargerThanLog(t *testing.T) {
	log := NewLog()
	recordN(t, log, 2)

	if got := len(log.Recent(10)); got != 2 {
		t.Errorf("Recent(10) returned %d entries, want 2", got)
	}
}

func TestLog_PopLastAndPushBack(t *testing.T) {
	log := NewLog()
	if _, ok := log.PopLast(); ok {
		t.Error("PopLast on empty log should report false")
	}

	recorded := log.Record("delete_file", nil, tools.SuccessOutcome("ok"), tools.PartiallyReversible)
	popped, ok := log.PopLast()
	if !ok {
		t.Fatal("expected PopLast to succeed")
	}
	if popped.ID != recorded.ID {
		t.Errorf("popped ID = %d, want %d", popped.ID, recorded.ID)
	}
	if log.Len() != 0 {
		t.Errorf("Len after pop = %d, want 0", log.Len())
	}

	log.PushBack(popped)
	last, ok := log.Last()
	if !ok {
		t.Fatal("expected Last to find the pushed-back entry")
	}
	if last.ID != recorded.ID {
		t.Errorf("pushed-back ID = %d, want %d", last.ID, recorded.ID)
	}
}

func TestLog_RecordSanitizesSensitiveArgs(t *testing.T) {
	log := NewLog()
	action := log.Record("remote_exec", map[string]any{
		"host":     "example.com",
		"password": "hunter2",
	}, tools.SuccessOutcome("ok"), tools.Irreversible)

	if action.Args["password"] == "hunter2" {
		t.Error("password must be redacted in recorded args")
	}
	if action.Args["host"] != "example.com" {
		t.Errorf("non-sensitive arg altered: %v", action.Args["host"])
	}
}

func TestLog_RecordTruncatesLongMessages(t *testing.T) {
	log := NewLog()
	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'x'
	}

	action := log.Record("run_command", nil,
		tools.SuccessOutcome(string(long)), tools.Irreversible)
	if len(action.Message) > 1100 {
		t.Errorf("message not truncated, len = %d", len(action.Message))
	}
}

func TestPersistentLog_WritesSessionFile(t *testing.T) {
	dir := t.TempDir()
	log, err := NewPersistentLog(dir)
	if err != nil {
		t.Fatalf("NewPersistentLog failed: %v", err)
	}

	log.Record("write_file", map[string]any{"path": "a.txt"},
		tools.SuccessOutcome("ok"), tools.FullyReversible)
	log.Flush()

	entries, err := os.ReadDir(filepath.Join(dir, "sessions"))
	if err != nil {
		t.Fatalf("sessions dir missing: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 session file, got %d", len(entries))
	}

	data, err := os.ReadFile(filepath.Join(dir, "sessions", entries[0].Name()))
	if err != nil {
		t.Fatalf("failed to read session file: %v", err)
	}
	var saved []Action
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("session file is not valid JSON: %v", err)
	}
	if len(saved) != 1 || saved[0].Tool != "write_file" {
		t.Errorf("unexpected persisted entries: %+v", saved)
	}
}

func TestAction_CanUndo(t *testing.T) {
	reverse := tools.RestorePayload("/tmp/a.txt", []byte("old"), true)

	cases := []struct {
		name   string
		action Action
		want   bool
	}{
		{"reversible with payload", Action{Success: true, Reversibility: tools.FullyReversible, Reverse: reverse}, true},
		{"partially reversible with payload", Action{Success: true, Reversibility: tools.PartiallyReversible, Reverse: reverse}, true},
		{"failed action", Action{Success: false, Reversibility: tools.FullyReversible, Reverse: reverse}, false},
		{"missing payload", Action{Success: true, Reversibility: tools.FullyReversible}, false},
		{"irreversible", Action{Success: true, Reversibility: tools.Irreversible, Reverse: reverse}, false},
	}
	for _, tc := range cases {
		if got := tc.action.CanUndo(); got != tc.want {
			t.Errorf("%s: CanUndo = %v, want %v", tc.name, got, tc.want)
		}
	}
}
